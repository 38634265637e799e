package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sharath018/event-gift-backend/internal/apperr"
	"github.com/sharath018/event-gift-backend/utils"
)

var (
	errUnauthenticated = apperr.New(apperr.ErrUnauthorized, "unauthenticated", "Authentication required")
	errRoleDenied      = apperr.New(apperr.ErrForbidden, "forbidden", "Access denied")
)

// RBACMiddleware checks if the caller has one of the allowed roles.
// It must run after AuthMiddleware.
func RBACMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			utils.RespondError(c, errUnauthenticated)
			return
		}
		if !principal.HasRole(allowedRoles...) {
			utils.RespondError(c, errRoleDenied)
			return
		}
		c.Next()
	}
}
