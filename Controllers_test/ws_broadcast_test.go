package Controllers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/adiwarsito/resto-pos/kds"
	"github.com/adiwarsito/resto-pos/models"
	"github.com/adiwarsito/resto-pos/services"
	"github.com/adiwarsito/resto-pos/utils"
)

var displayUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event table_update harus keluar setelah transaksi release meja commit:
// display yang menerimanya langsung me-refetch, jadi state yang dibacanya
// harus sudah final, bukan state tengah transaksi.
func TestAbandonBroadcastsTableUpdateAfterCommit(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB(t, "ws_abandon")
	gin.SetMode(gin.TestMode)

	serverConns := make(chan *websocket.Conn, 1)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		conn, err := displayUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		kds.RegisterClient(conn, "manager")
		serverConns <- conn
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.NoError(t, err)
	defer client.Close()

	serverConn := <-serverConns
	defer kds.UnregisterClient(serverConn)

	stockSvc := services.NewStockService(db)
	orderSvc := services.NewOrderService(db, stockSvc, services.NewRoutingService())
	sessionSvc := services.NewSessionService(db, orderSvc, stockSvc)

	table := models.Table{TableNumber: "B-07", Capacity: 2, Status: "available"}
	assert.NoError(t, db.Create(&table).Error)
	tableID := table.ID

	session, err := sessionSvc.Open(&tableID, nil, 1)
	assert.NoError(t, err)

	_, err = sessionSvc.Abandon(session.ID, 1)
	assert.NoError(t, err)

	// Cari table_update di antara broadcast lain dari open/abandon
	assert.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var tableEvent map[string]interface{}
	for i := 0; i < 10; i++ {
		_, raw, err := client.ReadMessage()
		if err != nil {
			break
		}
		var msg map[string]interface{}
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg["event"] == kds.EventTableUpdate {
			tableEvent = msg
			break
		}
	}
	assert.NotNil(t, tableEvent, "table_update tidak diterima")

	// Event tiba berarti transaksinya sudah commit: refetch melihat meja lepas
	var reloaded models.Table
	assert.NoError(t, db.First(&reloaded, table.ID).Error)
	assert.Nil(t, reloaded.OpenSessionID)
	assert.Equal(t, services.TableStatusDirty, reloaded.Status)

	payload := tableEvent["data"].(map[string]interface{})
	assert.Equal(t, float64(table.ID), payload["id"])
	assert.Equal(t, services.TableStatusDirty, payload["status"])
}
