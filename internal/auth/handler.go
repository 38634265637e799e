package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sharath018/event-gift-backend/internal/apperr"
	"github.com/sharath018/event-gift-backend/internal/auditlog"
	"github.com/sharath018/event-gift-backend/utils"
)

const RefreshCookie = "refreshToken"

type Handler struct {
	service      Service
	auditSvc     auditlog.Service
	secureCookie bool
	cookieMaxAge time.Duration
}

func NewHandler(s Service, auditSvc auditlog.Service, secureCookie bool, refreshTTL time.Duration) *Handler {
	return &Handler{service: s, auditSvc: auditSvc, secureCookie: secureCookie, cookieMaxAge: refreshTTL}
}

func userPayload(u *User) gin.H {
	return gin.H{
		"id":       u.ID,
		"name":     u.Name,
		"username": u.Username,
		"role":     u.Role,
	}
}

func (h *Handler) setRefreshCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookie, token, maxAge, "/api", "", h.secureCookie, true)
}

// ===============================
// Login
// ===============================

type loginReq struct {
	Username string `json:"username" validate:"required" example:"admin"`
	Password string `json:"password" validate:"required" example:"secret123"`
}

// Login godoc
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body loginReq true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BindError(c, err)
		return
	}
	if err := apperr.Struct(req); err != nil {
		utils.RespondError(c, err)
		return
	}

	ip := utils.GetIPFromContext(c)
	tokens, user, err := h.service.Login(c.Request.Context(), LoginInput(req))
	if err != nil {
		_ = h.auditSvc.LogAction(c.Request.Context(), nil, nil, auditlog.ActionLogin,
			map[string]interface{}{"username": req.Username}, ip, auditlog.StatusFailure)
		utils.RespondError(c, err)
		return
	}
	_ = h.auditSvc.LogAction(c.Request.Context(), &user.ID, nil, auditlog.ActionLogin,
		map[string]interface{}{"username": user.Username}, ip, auditlog.StatusSuccess)

	h.setRefreshCookie(c, tokens.RefreshToken, int(h.cookieMaxAge.Seconds()))
	utils.RespondOK(c, http.StatusOK, "Login successful", gin.H{
		"accessToken": tokens.AccessToken,
		"user":        userPayload(user),
	})
}

// ===============================
// Refresh Token
// ===============================

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

func refreshTokenFrom(c *gin.Context) string {
	if token, err := c.Cookie(RefreshCookie); err == nil && token != "" {
		return token
	}
	var req refreshReq
	_ = c.ShouldBindJSON(&req)
	return req.RefreshToken
}

// Refresh godoc
// @Summary Rotate the refresh token and issue a new access token
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	token := refreshTokenFrom(c)
	if token == "" {
		utils.RespondError(c, ErrInvalidRefreshToken)
		return
	}

	tokens, user, err := h.service.Renew(c.Request.Context(), token)
	if err != nil {
		h.setRefreshCookie(c, "", -1)
		utils.RespondError(c, err)
		return
	}

	h.setRefreshCookie(c, tokens.RefreshToken, int(h.cookieMaxAge.Seconds()))
	utils.RespondOK(c, http.StatusOK, "", gin.H{
		"accessToken": tokens.AccessToken,
		"user":        userPayload(user),
	})
}

// ===============================
// Logout
// ===============================

// Logout godoc
// @Summary Revoke the current refresh token
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), refreshTokenFrom(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	h.setRefreshCookie(c, "", -1)
	utils.RespondOK(c, http.StatusOK, "Logged out successfully", nil)
}
