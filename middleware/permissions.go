package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sharath018/event-gift-backend/internal/auth"
)

const PrincipalKey = "principal"

// CurrentPrincipal returns the caller attached by AuthMiddleware.
func CurrentPrincipal(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// CurrentUserID is the caller's user id, or nil for anonymous requests.
func CurrentUserID(c *gin.Context) *uint {
	p, ok := CurrentPrincipal(c)
	if !ok {
		return nil
	}
	id := p.UserID
	return &id
}
