package kds

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/adiwarsito/resto-pos/models"
)

// Event types
const (
	EventOrderUpdate   = "order_update"
	EventTicketUpdate  = "ticket_update"
	EventSessionUpdate = "session_update"
	EventTableUpdate   = "table_update"
	EventStockAlert    = "stock_alert"
	EventStaffNotif    = "staff_notification"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// KDSHub menampung semua client display (chef, bartender, cashier, manager)
// dan menyiarkan perubahan state. Observer read-only: hub tidak pernah ikut
// di jalur tulis dan kegagalan kirim tidak menggagalkan transaksi apa pun.
type KDSHub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

var kdsHub = KDSHub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient -> menambahkan connection ke set dengan role
func RegisterClient(conn *websocket.Conn, role string) {
	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()
	kdsHub.clients[conn] = role
}

// UnregisterClient -> melepaskan connection
func UnregisterClient(conn *websocket.Conn) {
	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()
	delete(kdsHub.clients, conn)
	conn.Close()
}

// BroadcastOrderUpdate -> menyiarkan update order ke semua client
func BroadcastOrderUpdate(order models.Order) {
	broadcast(Message{
		Event: EventOrderUpdate,
		Data:  order,
	})
}

// BroadcastTicketUpdate -> update satu prep ticket untuk station display
func BroadcastTicketUpdate(ticket models.PrepTicket) {
	broadcast(Message{
		Event: EventTicketUpdate,
		Data:  ticket,
	})
}

// BroadcastSessionUpdate -> update tab (total berubah, closed, abandoned)
func BroadcastSessionUpdate(session models.Session) {
	broadcast(Message{
		Event: EventSessionUpdate,
		Data:  session,
	})
}

// BroadcastTableUpdate -> update status meja
func BroadcastTableUpdate(table models.Table) {
	broadcast(Message{
		Event: EventTableUpdate,
		Data:  table,
	})
}

// BroadcastStockAlert -> stok menembus ambang bawah atau gagal dipotong
func BroadcastStockAlert(data interface{}) {
	broadcast(Message{
		Event: EventStockAlert,
		Data:  data,
	})
}

// BroadcastStaffNotification -> notifikasi untuk staff
func BroadcastStaffNotification(message string) {
	broadcast(Message{
		Event: EventStaffNotif,
		Data:  message,
	})
}

// BroadcastMessage -> broadcast pesan umum
func BroadcastMessage(msg Message) {
	broadcast(msg)
}

// broadcast -> fungsi internal untuk mengirim pesan
func broadcast(msg Message) {
	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	for conn := range kdsHub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Error sending message to client: %v", err)
			continue
		}
	}
}
