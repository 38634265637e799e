package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sharath018/event-gift-backend/internal/apperr"
)

// RespondError writes the error envelope for err. Errors that are not part of the
// apperr taxonomy are logged and reported as a generic server error.
func RespondError(c *gin.Context, err error) {
	status, code := apperr.Status(err)

	body := gin.H{"success": false, "error": code}

	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		body["message"] = "Validation failed"
		body["fields"] = verr.Fields
	case status == http.StatusInternalServerError:
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString(RequestIDKey)).
			Msg("request failed")
		body["message"] = "Something went wrong"
	default:
		body["message"] = err.Error()
	}

	c.AbortWithStatusJSON(status, body)
}

// RespondOK writes a success envelope merged with data.
func RespondOK(c *gin.Context, status int, message string, data gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}

// BindError reports a malformed request body as a validation failure.
func BindError(c *gin.Context, err error) {
	if converted := apperr.FromValidator(err); converted != err {
		RespondError(c, converted)
		return
	}
	RespondError(c, apperr.New(apperr.ErrValidation, "invalid_request", "Invalid request body"))
}
