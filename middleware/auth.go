package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sharath018/event-gift-backend/internal/apperr"
	"github.com/sharath018/event-gift-backend/internal/auth"
	"github.com/sharath018/event-gift-backend/utils"
)

var errMissingToken = apperr.New(apperr.ErrUnauthorized, "missing_token", "Missing or malformed Authorization header")

// AuthMiddleware validates the Bearer access token and attaches the caller's
// Principal to the request context.
func AuthMiddleware(authSvc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			utils.RespondError(c, errMissingToken)
			return
		}

		principal, err := authSvc.Authorize(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		c.Set(PrincipalKey, principal)
		c.Set("user_id", principal.UserID)
		c.Next()
	}
}
