package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/akolanti/DocChat/internal/adapter"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

var logUtils = logger_i.NewLogger("HandlerUtils")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already out, only log
		logUtils.Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

// writeServiceError maps a service failure onto its status code.
func writeServiceError(w http.ResponseWriter, r *http.Request, id string, err error) {
	code, body := adapter.FromError(id, err)
	log := logUtils.With("traceId", r.Context().Value(config.TRACE_ID_KEY), "path", r.URL.Path)
	if code >= http.StatusInternalServerError {
		log.Error("Request failed", "status", code, "error", err)
	} else {
		log.Warn("Request rejected", "status", code, "error", err)
	}
	writeJsonResponse(w, code, body)
}

func userFromContext(ctx context.Context) string {
	userId, _ := ctx.Value(config.USER_ID_KEY).(string)
	return userId
}

// decodeAndValidate reads a json body into dst and runs its validate tags.
func (h *Handler) decodeAndValidate(body io.ReadCloser, dst interface{}) error {
	defer func() {
		if err := body.Close(); err != nil {
			logUtils.Warn("Couldn't close request body", "error", err)
		}
	}()
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("malformed json: %w", err)
	}
	return h.validate.Struct(dst)
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logUtils.Warn("Context error", "traceId", ctx.Value(config.TRACE_ID_KEY), "error", ctx.Err())
		return false
	}
	return true
}
