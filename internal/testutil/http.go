package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratafight/internal/app/system/auth"
	"github.com/dalemusser/stratafight/internal/domain/models"
)

// NewJSONRequest creates a request with body encoded as JSON. A nil body
// sends no payload.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithCaller adds an authenticated caller for a to the request context,
// bypassing the bearer middleware.
func WithCaller(r *http.Request, a models.Account) *http.Request {
	return auth.WithCaller(r, &auth.Caller{
		ID:       a.ID,
		Username: a.Username,
		Role:     string(a.Role),
	})
}

// Envelope is the decoded response body shape.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Fields  []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	} `json:"error"`
}

// DecodeEnvelope decodes the recorder body. dst, when non-nil, receives the
// data member.
func DecodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, dst any) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	if dst != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("decode envelope data: %v", err)
		}
	}
	return env
}

// ErrorCode returns the envelope error code, or "" on success.
func (e Envelope) ErrorCode() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Code
}
