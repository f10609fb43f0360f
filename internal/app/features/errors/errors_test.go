package errors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratafight/internal/app/system/apperr"
	"github.com/dalemusser/stratafight/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func router() http.Handler {
	h := NewHandler(zap.NewNop())
	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
	r.Get("/api/fighters", func(w http.ResponseWriter, r *http.Request) {})
	return r
}

func TestNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	env := testutil.DecodeEnvelope(t, rec, nil)
	if env.Success || env.ErrorCode() != apperr.CodeNotFound {
		t.Errorf("envelope = %+v", env)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/fighters", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if code := testutil.DecodeEnvelope(t, rec, nil).ErrorCode(); code != "METHOD_NOT_ALLOWED" {
		t.Errorf("code = %q, want METHOD_NOT_ALLOWED", code)
	}
}
