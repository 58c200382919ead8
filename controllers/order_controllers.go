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

type OrderController struct {
	DB     *gorm.DB
	Orders *services.OrderService
}

func NewOrderController(db *gorm.DB, orders *services.OrderService) *OrderController {
	return &OrderController{DB: db, Orders: orders}
}

// GetAllOrders -> list orders beserta items
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	query := oc.DB.Preload("OrderItems")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if sessionID := c.Query("session_id"); sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}

	var orders []models.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// CreateOrder -> buat order draft (di dalam session atau express sale)
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	req.CashierID = actorID(c)

	order, err := oc.Orders.Create(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created (draft)", order)
}

// GetOrderByID -> detail 1 order beserta items dan tickets
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	var order models.Order
	if err := oc.DB.Preload("OrderItems").Preload("PrepTickets").
		First(&order, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// ConfirmOrder -> validasi stok + buat tickets + status confirmed.
// Kekurangan stok strict menolak seluruh konfirmasi; warning flexible
// ikut dikembalikan ke caller.
func (oc *OrderController) ConfirmOrder(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	order, warnings, err := oc.Orders.Confirm(uint(id), actorID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order confirmed", gin.H{
		"order":    order,
		"warnings": warnings,
	})
}

// HoldOrder -> tunda order draft
func (oc *OrderController) HoldOrder(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	order, err := oc.Orders.Hold(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order on hold", order)
}

// ResumeOrder -> lanjutkan order yang ditunda
func (oc *OrderController) ResumeOrder(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	order, err := oc.Orders.Resume(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order resumed", order)
}

// PayOrder -> pembayaran express sale; order tab diselesaikan lewat
// close session, bukan endpoint ini.
func (oc *OrderController) PayOrder(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	var req services.PaymentInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.PayExpress(uint(id), req, actorID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order completed", order)
}

// VoidOrder -> batalkan order (khusus manager/admin)
func (oc *OrderController) VoidOrder(c *gin.Context) {
	role, _ := c.Get("role")
	if role != "manager" && role != "admin" {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	id, _ := strconv.Atoi(c.Param("order_id"))

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.Void(uint(id), req.Reason, actorID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order voided", order)
}
