package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"time-planner/internal/service"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMigrationFailed):
		return http.StatusUnprocessableEntity, "migration_failed"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status, code := statusFor(err)
	body := ErrorResponse{Code: code, Message: err.Error()}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body.Errors = verr.Fields
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		body.Message = "internal server error"
	}
	c.AbortWithStatusJSON(status, body)
}

// badRequest reports malformed input that never reached a service.
func (s *Server) badRequest(c *gin.Context, field string, err error) {
	s.abortWithError(c, &service.ValidationError{Fields: map[string]string{field: err.Error()}})
}
