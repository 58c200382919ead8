package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/adiwarsito/resto-pos/utils"
)

// AuditLoggerMiddleware mencatat aksi bergerbang manager (void, adjustment)
// beserta siapa pelakunya.
func AuditLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		userID, _ := c.Get("user_id")
		role, _ := c.Get("role")

		if c.Writer.Status() < 400 {
			utils.InfoLogger.Printf("Audit: %s %s by user %v (%v) -> %d",
				c.Request.Method, c.Request.URL.Path, userID, role, c.Writer.Status())
		} else {
			utils.ErrorLogger.Printf("Audit: %s %s by user %v (%v) REJECTED -> %d",
				c.Request.Method, c.Request.URL.Path, userID, role, c.Writer.Status())
		}
	}
}
