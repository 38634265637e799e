package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sharath018/event-gift-backend/internal/auditlog"
	"github.com/sharath018/event-gift-backend/utils"
)

// AuditMiddleware extracts and stores the client IP for audit logging.
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.ClientIPKey, utils.ClientIP(c))
		c.Next()
	}
}

// GetIPFromContext retrieves the IP stored by AuditMiddleware.
func GetIPFromContext(c *gin.Context) string {
	return utils.GetIPFromContext(c)
}

// AuditActor builds the audit identity of the current request.
func AuditActor(c *gin.Context) auditlog.Actor {
	return auditlog.Actor{UserID: CurrentUserID(c), IP: GetIPFromContext(c)}
}
