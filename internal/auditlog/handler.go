package auditlog

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sharath018/event-gift-backend/internal/apperr"
	"github.com/sharath018/event-gift-backend/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func optionalID(c *gin.Context, key string) *uint {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	v := uint(id)
	return &v
}

// GetAuditLogs handles GET /auditlogs
// @Summary Get audit logs
// @Description Audit logs with optional filters and pagination (admin only)
// @Tags AuditLog
// @Produce json
// @Param userId query uint false "Filter by user ID"
// @Param eventId query uint false "Filter by event ID"
// @Param action query string false "Filter by action (partial match)"
// @Param status query string false "success or failure"
// @Param fromDate query string false "From date (YYYY-MM-DD)"
// @Param toDate query string false "To date (YYYY-MM-DD, inclusive)"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Records per page (default: 20)"
// @Success 200 {object} PaginatedAuditLogs
// @Router /auditlogs [get]
func (h *Handler) GetAuditLogs(c *gin.Context) {
	filter := AuditLogFilter{
		UserID:  optionalID(c, "userId"),
		EventID: optionalID(c, "eventId"),
		Action:  c.Query("action"),
		Status:  c.Query("status"),
	}

	if raw := c.Query("fromDate"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.RespondError(c, apperr.Invalid("fromDate", "must be YYYY-MM-DD"))
			return
		}
		filter.FromDate = &from
	}
	if raw := c.Query("toDate"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.RespondError(c, apperr.Invalid("toDate", "must be YYYY-MM-DD"))
			return
		}
		endOfDay := to.Add(24*time.Hour - time.Nanosecond)
		filter.ToDate = &endOfDay
	}

	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))

	result, err := h.service.GetAuditLogs(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "", gin.H{
		"logs":       result.Data,
		"total":      result.Total,
		"page":       result.Page,
		"limit":      result.Limit,
		"totalPages": result.TotalPages,
	})
}

// GetAuditLogByID handles GET /auditlogs/:id
// @Summary Get audit log by ID
// @Tags AuditLog
// @Produce json
// @Param id path uint true "Audit Log ID"
// @Success 200 {object} AuditLogResponse
// @Router /auditlogs/{id} [get]
func (h *Handler) GetAuditLogByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.RespondError(c, apperr.Invalid("id", "must be a positive integer"))
		return
	}

	entry, err := h.service.GetAuditLogByID(c.Request.Context(), uint(id))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "", gin.H{"log": entry})
}
