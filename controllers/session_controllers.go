package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/models"
	"github.com/adiwarsito/resto-pos/services"
	"github.com/adiwarsito/resto-pos/utils"
)

type SessionController struct {
	DB       *gorm.DB
	Sessions *services.SessionService
}

func NewSessionController(db *gorm.DB, sessions *services.SessionService) *SessionController {
	return &SessionController{DB: db, Sessions: sessions}
}

// OpenSession -> buka tab baru dan tempati meja
func (sc *SessionController) OpenSession(c *gin.Context) {
	var req struct {
		TableID    *uint `json:"table_id"`
		CustomerID *uint `json:"customer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.Open(req.TableID, req.CustomerID, actorID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Session opened", session)
}

// GetAllSessions -> list session, opsional filter status (?status=open)
func (sc *SessionController) GetAllSessions(c *gin.Context) {
	query := sc.DB.Preload("Table").Preload("Customer")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var sessions []models.Session
	if err := query.Order("opened_at desc").Find(&sessions).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of sessions", sessions)
}

// GetSessionByID -> detail satu session beserta order-ordernya
func (sc *SessionController) GetSessionByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("session_id"))

	var session models.Session
	if err := sc.DB.Preload("Table").Preload("Customer").
		Preload("Orders.OrderItems").
		First(&session, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session detail", session)
}

// PreviewBill -> agregasi tagihan read-only, tidak memutasi apa pun
func (sc *SessionController) PreviewBill(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("session_id"))

	bill, err := sc.Sessions.PreviewBill(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill preview", bill)
}

// CloseSession -> selesaikan semua order, potong stok, lepas meja
func (sc *SessionController) CloseSession(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("session_id"))

	var req services.PaymentInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.Close(uint(id), req, actorID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session closed", session)
}

// AbandonSession -> walkout, tutup tanpa pembayaran
func (sc *SessionController) AbandonSession(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("session_id"))

	session, err := sc.Sessions.Abandon(uint(id), actorID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session abandoned", session)
}
