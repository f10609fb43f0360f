// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/stratafight/internal/app/system/apperr"
	"github.com/dalemusser/stratafight/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// Handler answers requests the router cannot match with JSON envelopes.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a new error Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// NotFound writes the 404 envelope for unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("route not found",
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)
	jsonutil.Error(w, http.StatusNotFound, apperr.CodeNotFound, "route not found")
}

// MethodNotAllowed writes the 405 envelope when the path exists but not for
// the request method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("method not allowed",
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)
	jsonutil.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}
