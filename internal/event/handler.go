package event

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sharath018/event-gift-backend/internal/apperr"
	"github.com/sharath018/event-gift-backend/internal/media"
	"github.com/sharath018/event-gift-backend/middleware"
	"github.com/sharath018/event-gift-backend/utils"
)

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{service: s}
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		utils.RespondError(c, apperr.Invalid(param, "must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

// ParseGiftIDs reads the gifts form field. A single value may be a JSON array
// or a comma separated list; repeated fields are read one id per value.
func ParseGiftIDs(values []string) ([]uint, error) {
	invalid := apperr.Invalid("gifts", "must be a list of gift ids")

	var raw []string
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var items []interface{}
		if err := json.Unmarshal([]byte(values[0]), &items); err != nil {
			return nil, invalid
		}
		for _, item := range items {
			raw = append(raw, fmt.Sprint(item))
		}
	} else {
		for _, v := range values {
			raw = append(raw, strings.Split(v, ",")...)
		}
	}

	ids := make([]uint, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		id, err := strconv.ParseUint(r, 10, 32)
		if err != nil || id == 0 {
			return nil, invalid
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func formUint(c *gin.Context, field string) (*uint, error) {
	v, ok := c.GetPostForm(field)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return nil, apperr.Invalid(field, "must be a positive integer")
	}
	u := uint(n)
	return &u, nil
}

func formBool(c *gin.Context, field string) (*bool, error) {
	v, ok := c.GetPostForm(field)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return nil, apperr.Invalid(field, "must be true or false")
	}
	return &b, nil
}

func formString(c *gin.Context, field string) *string {
	if v, ok := c.GetPostForm(field); ok {
		return &v
	}
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Create godoc
// @Summary Create an event
// @Tags Events
// @Accept multipart/form-data
// @Produce json
// @Param eventName formData string true "Event name"
// @Param contactPerson formData string true "Contact person"
// @Param contactNo formData string true "Contact number"
// @Param functionName formData string true "Function name"
// @Param functionType formData string true "Function type"
// @Param relationEnabled formData boolean false "Collect bride and groom names"
// @Param agentId formData int true "Assigned agent"
// @Param eventDate formData string true "YYYY-MM-DD or RFC 3339"
// @Param gifts formData string false "Gift ids: JSON array, comma list or repeated field"
// @Param welcomeImage formData file false "Welcome image"
// @Success 201 {object} Event
// @Router /events [post]
func (h *Handler) Create(c *gin.Context) {
	agentID, err := formUint(c, "agentId")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	relation, err := formBool(c, "relationEnabled")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	gifts, err := ParseGiftIDs(c.PostFormArray("gifts"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	in := CreateEventInput{
		EventName:       c.PostForm("eventName"),
		ContactPerson:   c.PostForm("contactPerson"),
		ContactNo:       c.PostForm("contactNo"),
		FunctionName:    c.PostForm("functionName"),
		FunctionType:    c.PostForm("functionType"),
		RelationEnabled: deref(relation),
		BrideName:       c.PostForm("brideName"),
		GroomName:       c.PostForm("groomName"),
		AgentID:         deref(agentID),
		EventDate:       c.PostForm("eventDate"),
		GiftIDs:         gifts,
	}
	if fh, err := c.FormFile("welcomeImage"); err == nil {
		f, err := media.OpenUpload(fh)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		defer f.Close()
		in.WelcomeImage = f
	}

	e, err := h.service.Create(c.Request.Context(), in, middleware.AuditActor(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusCreated, "Event created", gin.H{"event": e})
}

// List godoc
// @Summary List events, latest event date first
// @Tags Events
// @Produce json
// @Success 200 {array} Event
// @Router /events [get]
func (h *Handler) List(c *gin.Context) {
	events, err := h.service.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "", gin.H{"count": len(events), "events": events})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	e, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "", gin.H{"event": e})
}

// GetPublic godoc
// @Summary Guest-facing event view
// @Tags Public
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} PublicEvent
// @Failure 403 {object} map[string]interface{}
// @Router /events/public/{id} [get]
func (h *Handler) GetPublic(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	e, err := h.service.GetPublic(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, e.Message, gin.H{"event": e})
}

// Update godoc
// @Summary Update an event
// @Description Status is ignored here; use the status endpoint.
// @Tags Events
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} Event
// @Router /events/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	agentID, err := formUint(c, "agentId")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	relation, err := formBool(c, "relationEnabled")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	in := UpdateEventInput{
		EventName:       formString(c, "eventName"),
		ContactPerson:   formString(c, "contactPerson"),
		ContactNo:       formString(c, "contactNo"),
		FunctionName:    formString(c, "functionName"),
		FunctionType:    formString(c, "functionType"),
		RelationEnabled: relation,
		BrideName:       formString(c, "brideName"),
		GroomName:       formString(c, "groomName"),
		AgentID:         agentID,
		EventDate:       formString(c, "eventDate"),
	}
	if values, ok := c.GetPostFormArray("gifts"); ok {
		if in.GiftIDs, err = ParseGiftIDs(values); err != nil {
			utils.RespondError(c, err)
			return
		}
		in.ReplaceGifts = true
	}
	if fh, err := c.FormFile("welcomeImage"); err == nil {
		f, err := media.OpenUpload(fh)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		defer f.Close()
		in.WelcomeImage = f
	}

	e, err := h.service.Update(c.Request.Context(), id, in, middleware.AuditActor(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "Event updated", gin.H{"event": e})
}

// Delete godoc
// @Summary Delete an event with its guests
// @Tags Events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} map[string]interface{}
// @Router /events/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, middleware.AuditActor(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "Event deleted", nil)
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus godoc
// @Summary Move an event between pending, active and completed
// @Tags Events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param body body statusRequest true "New status"
// @Success 200 {object} Event
// @Router /events/{id}/status [put]
func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BindError(c, err)
		return
	}
	e, err := h.service.SetStatus(c.Request.Context(), id, req.Status, middleware.AuditActor(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "Event status updated", gin.H{"event": e})
}

// ListActiveForAgent godoc
// @Summary Active events assigned to an agent
// @Tags Events
// @Produce json
// @Param agentId path int true "Agent ID"
// @Success 200 {array} ActiveEvent
// @Router /events/active/{agentId} [get]
func (h *Handler) ListActiveForAgent(c *gin.Context) {
	agentID, ok := parseID(c, "agentId")
	if !ok {
		return
	}
	p, _ := middleware.CurrentPrincipal(c)
	events, err := h.service.ListActiveForAgent(c.Request.Context(), agentID, p)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "", gin.H{"events": events})
}
