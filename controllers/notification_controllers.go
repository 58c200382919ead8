package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/models"
	"github.com/adiwarsito/resto-pos/utils"
)

type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// GetAllNotifications -> list notifikasi, opsional filter jenis (?kind=low_stock)
func (nc *NotificationController) GetAllNotifications(c *gin.Context) {
	query := nc.DB.Order("created_at desc")
	if kind := c.Query("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of notifications", notifications)
}

// MarkNotificationRead -> tandai satu notifikasi sudah dibaca
func (nc *NotificationController) MarkNotificationRead(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("notif_id"))

	var notification models.Notification
	if err := nc.DB.First(&notification, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	notification.Read = true
	if err := nc.DB.Save(&notification).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification marked read", notification)
}
