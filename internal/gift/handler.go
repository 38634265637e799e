package gift

import (
	"net/http"
	"strconv"

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

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.RespondError(c, apperr.Invalid("id", "must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

// Create godoc
// @Summary Create a gift
// @Tags Gifts
// @Accept multipart/form-data
// @Produce json
// @Param giftName formData string true "Gift name"
// @Param giftImage formData file true "Gift image (jpeg, png, gif, webp; max 2 MB)"
// @Success 201 {object} Gift
// @Router /gifts [post]
func (h *Handler) Create(c *gin.Context) {
	in := CreateGiftInput{Name: c.PostForm("giftName")}

	if fh, err := c.FormFile("giftImage"); err == nil {
		f, err := media.OpenUpload(fh)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		defer f.Close()
		in.Image = f
	}

	g, err := h.service.Create(c.Request.Context(), in, middleware.AuditActor(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusCreated, "Gift created", gin.H{"data": g})
}

// List godoc
// @Summary List gifts, newest first
// @Tags Gifts
// @Produce json
// @Success 200 {array} Gift
// @Router /gifts [get]
func (h *Handler) List(c *gin.Context) {
	gifts, err := h.service.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "", gin.H{"count": len(gifts), "data": gifts})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	g, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "", gin.H{"data": g})
}

// Update godoc
// @Summary Update a gift
// @Tags Gifts
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Gift ID"
// @Param giftName formData string false "Gift name"
// @Param giftImage formData file false "Replacement image"
// @Success 200 {object} Gift
// @Router /gifts/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var in UpdateGiftInput
	if name, ok := c.GetPostForm("giftName"); ok {
		in.Name = &name
	}
	if fh, err := c.FormFile("giftImage"); err == nil {
		f, err := media.OpenUpload(fh)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		defer f.Close()
		in.Image = f
	}

	g, err := h.service.Update(c.Request.Context(), id, in, middleware.AuditActor(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "Gift updated", gin.H{"data": g})
}

// Delete godoc
// @Summary Delete an unused gift
// @Tags Gifts
// @Produce json
// @Param id path int true "Gift ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /gifts/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, middleware.AuditActor(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "Gift deleted", nil)
}
