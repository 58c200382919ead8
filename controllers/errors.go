package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/services"
	"github.com/adiwarsito/resto-pos/utils"
)

// respondServiceError memetakan taksonomi error services ke kode HTTP.
// ConflictError menyertakan status resource saat ini supaya caller bisa
// resync; InsufficientStockError menyebut item yang kurang.
func respondServiceError(c *gin.Context, err error) {
	var validation *services.ValidationError
	var conflict *services.ConflictError
	var insufficient *services.InsufficientStockError

	switch {
	case errors.As(err, &validation):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, utils.JSONResponse{
			Status:  false,
			Message: conflict.Error(),
			Data: gin.H{
				"resource": conflict.Resource,
				"current":  conflict.Current,
			},
		})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusUnprocessableEntity, utils.JSONResponse{
			Status:  false,
			Message: insufficient.Error(),
			Data: gin.H{
				"shortages": insufficient.Shortages,
			},
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

// actorID mengambil user id dari context yang diisi auth middleware.
func actorID(c *gin.Context) uint {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
