package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// ErrorResponse is the shape of every error body: {"message": "..."}
type ErrorResponse struct {
	Message string `json:"message"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Message: message}
}

// RespondError maps a service error to its HTTP status. Anything that is not
// an AppError is an unexpected failure: it is logged and surfaced as a
// generic 500, never a raw error string.
func RespondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		if appErr.Code == apperrors.ErrInternal {
			log.Error().
				Err(appErr.Err).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("Internal error")
		}
		c.JSON(appErr.HTTPStatus(), NewErrorResponse(appErr.Message))
		return
	}

	log.Error().
		Err(err).
		Str("path", c.Request.URL.Path).
		Str("method", c.Request.Method).
		Msg("Unexpected error")
	c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
}
