package guest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sharath018/event-gift-backend/internal/apperr"
	"github.com/sharath018/event-gift-backend/middleware"
	"github.com/sharath018/event-gift-backend/utils"
)

type Handler struct {
	service    Service
	revealCode bool
}

// NewHandler builds the guest handlers. With revealCode unset the public
// registration answer leaves the code out; it reaches the guest through the
// dispatch bus only.
func NewHandler(s Service, revealCode bool) *Handler {
	return &Handler{service: s, revealCode: revealCode}
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		utils.RespondError(c, apperr.Invalid(param, "must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

func listQuery(c *gin.Context) ListQuery {
	return ListQuery{
		EventID:   c.Query("eventId"),
		Redeemed:  c.Query("redeemed"),
		DateField: c.Query("dateField"),
		DateRange: c.Query("dateRange"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}
}

// Register godoc
// @Summary Register a guest and issue a redemption code
// @Tags Public
// @Accept json
// @Produce json
// @Param body body RegisterInput true "Registration"
// @Success 201 {object} RegisteredGuest
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /guests/register [post]
func (h *Handler) Register(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BindError(c, err)
		return
	}
	g, err := h.service.Register(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusCreated, "Guest registered", gin.H{"guest": publicGuest(g, h.revealCode)})
}

type redeemRequest struct {
	Code    string `json:"code"`
	OTP     string `json:"otp"`
	EventID uint   `json:"eventId"`
}

// Redeem godoc
// @Summary Redeem a guest code
// @Description Accepts the code as "code" or "otp". Agents may only redeem codes of their own events.
// @Tags Guests
// @Accept json
// @Produce json
// @Param body body redeemRequest true "Code and event"
// @Success 200 {object} Redemption
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /guests/verify-otp [post]
func (h *Handler) Redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BindError(c, err)
		return
	}
	code := req.Code
	if code == "" {
		code = req.OTP
	}

	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		utils.RespondError(c, apperr.New(apperr.ErrUnauthorized, "unauthenticated", "Authentication required"))
		return
	}

	res, err := h.service.Redeem(c.Request.Context(), RedeemInput{Code: code, EventID: req.EventID}, p, middleware.AuditActor(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "Guest verified successfully", gin.H{
		"guest":         res.Guest,
		"redeemedCount": res.RedeemedCount,
	})
}

// List godoc
// @Summary List guests
// @Tags Guests
// @Produce json
// @Param eventId query int false "Event"
// @Param redeemed query bool false "Redemption state"
// @Param dateField query string false "createdAt or verifiedAt"
// @Param dateRange query string false "daily, weekly, monthly, yearly or custom"
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD, inclusive"
// @Success 200 {array} Row
// @Router /guests [get]
func (h *Handler) List(c *gin.Context) {
	f, err := h.service.ParseFilter(listQuery(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	rows, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "", gin.H{"count": len(rows), "guests": rows})
}

// Export godoc
// @Summary Download the guest list
// @Tags Guests
// @Produce application/octet-stream
// @Param format query string false "excel (default), csv or pdf"
// @Router /guests/export [get]
func (h *Handler) Export(c *gin.Context) {
	f, err := h.service.ParseFilter(listQuery(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	data, name, ctype, err := h.service.Export(c.Request.Context(), f, c.DefaultQuery("format", "excel"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, ctype, data)
}

// ListRedeemed godoc
// @Summary List redeemed guests, optionally for one event
// @Tags Guests
// @Produce json
// @Param eventId path int false "Event"
// @Success 200 {array} Row
// @Router /guests/verified/{eventId} [get]
func (h *Handler) ListRedeemed(c *gin.Context) {
	var eventID *uint
	if c.Param("eventId") != "" {
		id, ok := parseID(c, "eventId")
		if !ok {
			return
		}
		eventID = &id
	}
	rows, err := h.service.ListRedeemed(c.Request.Context(), eventID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "", gin.H{"count": len(rows), "guests": rows})
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BindError(c, err)
		return
	}
	g, err := h.service.Update(c.Request.Context(), id, in, middleware.AuditActor(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "Guest updated", gin.H{"guest": g})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, middleware.AuditActor(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "Guest deleted", nil)
}
