package adapter

import (
	"errors"
	"net/http"

	"github.com/akolanti/DocChat/internal/domain/ragErrors"
)

// ErrorStatus maps the error taxonomy onto an http status code.
func ErrorStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ragErrors.ErrUnsupportedFormat),
		errors.Is(err, ragErrors.ErrInvalidArgument),
		errors.Is(err, ragErrors.ErrEmptyDocument):
		return http.StatusBadRequest
	case errors.Is(err, ragErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ragErrors.ErrDimensionMismatch),
		errors.Is(err, ragErrors.ErrMetricMismatch),
		errors.Is(err, ragErrors.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ragErrors.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage hides internal failures from clients.
func ErrorMessage(err error) string {
	if ErrorStatus(err) == http.StatusInternalServerError {
		return "Internal Server Error"
	}
	return err.Error()
}
