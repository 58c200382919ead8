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

type StockController struct {
	DB    *gorm.DB
	Stock *services.StockService
}

func NewStockController(db *gorm.DB, stock *services.StockService) *StockController {
	return &StockController{DB: db, Stock: stock}
}

// GetMovements -> ledger movement satu product, terbaru dulu
func (sc *StockController) GetMovements(c *gin.Context) {
	productID, _ := strconv.Atoi(c.Param("product_id"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	movements, err := sc.Stock.Movements(uint(productID), limit)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Stock movements", movements)
}

// AdjustStock -> penyesuaian manual (khusus manager/admin)
func (sc *StockController) AdjustStock(c *gin.Context) {
	role, _ := c.Get("role")
	if role != "manager" && role != "admin" {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	productID, _ := strconv.Atoi(c.Param("product_id"))

	var req struct {
		Delta int    `json:"delta" binding:"required"`
		Note  string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	movement, err := sc.Stock.Adjust(uint(productID), req.Delta, actorID(c), req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Stock adjusted", movement)
}

// GetReconciliation -> view operator untuk deduksi yang gagal; tidak
// terlihat oleh user yang bertransaksi.
func (sc *StockController) GetReconciliation(c *gin.Context) {
	role, _ := c.Get("role")
	if role != "manager" && role != "admin" {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var flags []models.Notification
	if err := sc.DB.Where("kind = ?", models.NotifReconciliation).
		Order("created_at desc").
		Find(&flags).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reconciliation flags", flags)
}
