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

type TicketController struct {
	DB     *gorm.DB
	Orders *services.OrderService
}

func NewTicketController(db *gorm.DB, orders *services.OrderService) *TicketController {
	return &TicketController{DB: db, Orders: orders}
}

// GetStationTickets -> antrian ticket untuk satu station
// (?destination=kitchen|bar), pending dan preparing saja, urut masuk.
func (tc *TicketController) GetStationTickets(c *gin.Context) {
	role, _ := c.Get("role")
	if role != "chef" && role != "bartender" && role != "admin" && role != "manager" {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	destination := c.Query("destination")
	if destination == "" {
		destination = models.DestinationKitchen
	}

	var tickets []models.PrepTicket
	if err := tc.DB.Preload("OrderItem.Product").Preload("OrderItem.Package").
		Where("destination = ? AND status IN ?", destination,
			[]string{services.TicketStatusPending, services.TicketStatusPreparing}).
		Order("urgent desc, created_at asc").
		Find(&tickets).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Station tickets", tickets)
}

// UpdateTicketStatus -> station melaporkan progres satu ticket;
// status order ikut naik kalau semua ticket-nya sudah sampai.
func (tc *TicketController) UpdateTicketStatus(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("ticket_id"))

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ticket, err := tc.Orders.UpdateTicketStatus(uint(id), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Ticket updated", ticket)
}

// GetOrderTickets -> semua ticket milik satu order
func (tc *TicketController) GetOrderTickets(c *gin.Context) {
	orderID, _ := strconv.Atoi(c.Param("order_id"))

	var tickets []models.PrepTicket
	if err := tc.DB.Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&tickets).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order tickets", tickets)
}
