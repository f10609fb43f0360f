package jsonutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/stratafight/internal/app/system/apperr"
	"go.uber.org/zap"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("json unmarshal error: %v", err)
	}
	return env
}

func TestJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       any
		wantStatus int
		wantBody   string
	}{
		{
			name:       "200 OK with data",
			status:     http.StatusOK,
			data:       map[string]string{"message": "hello"},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"hello"}`,
		},
		{
			name:       "nil data",
			status:     http.StatusOK,
			data:       nil,
			wantStatus: http.StatusOK,
			wantBody:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			JSON(rec, tt.status, tt.data)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			body := strings.TrimSpace(rec.Body.String())
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, "loaded", map[string]string{"id": "abc"})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Error("success = false, want true")
	}
	if env.Message != "loaded" {
		t.Errorf("message = %q, want loaded", env.Message)
	}
	if env.Error != nil {
		t.Errorf("error = %+v, want nil", env.Error)
	}
	data, ok := env.Data.(map[string]any)
	if !ok || data["id"] != "abc" {
		t.Errorf("data = %v, want id=abc", env.Data)
	}
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, "", map[string]any{"id": 456})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if !decodeEnvelope(t, rec).Success {
		t.Error("success = false, want true")
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "NOT_FOUND", "route not found")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Error("success = true, want false")
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" || env.Error.Message != "route not found" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestWriteError_Operational(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/challenges", nil)

	WriteError(rec, req, zap.NewNop(), apperr.ChallengeExists())

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != apperr.CodeChallengeExists {
		t.Errorf("error = %+v, want code %s", env.Error, apperr.CodeChallengeExists)
	}
}

func TestWriteError_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", nil)

	WriteError(rec, req, zap.NewNop(), apperr.Validation([]apperr.FieldError{
		{Field: "email", Message: "A valid email address is required."},
		{Field: "username", Message: "Username is required."},
	}))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || len(env.Error.Fields) != 2 {
		t.Fatalf("error = %+v, want two fields", env.Error)
	}
	if env.Error.Fields[0].Field != "email" {
		t.Errorf("fields[0].field = %q, want email", env.Error.Fields[0].Field)
	}
}

func TestWriteError_InternalHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/challenges/my", nil)

	WriteError(rec, req, zap.NewNop(), errors.New("connection refused: 10.0.0.3:27017"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.3") {
		t.Error("internal error details leaked to client")
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != apperr.CodeInternal {
		t.Errorf("error = %+v, want code %s", env.Error, apperr.CodeInternal)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid JSON", body: `{"name":"test","value":123}`},
		{name: "invalid JSON", body: `{invalid}`, wantErr: true},
		{name: "empty body", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var got map[string]any
			err := Decode(rec, req, &got)

			if (err != nil) != tt.wantErr {
				t.Errorf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperr.Is(err, apperr.CodeValidation) {
				t.Errorf("Decode() error code = %v, want %s", err, apperr.CodeValidation)
			}
		})
	}
}

func TestDecode_StructBinding(t *testing.T) {
	type Input struct {
		Message string `json:"message"`
		Age     int    `json:"age"`
	}

	body := `{"message":"Let's fight","age":30}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	var input Input
	if err := Decode(rec, req, &input); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if input.Message != "Let's fight" {
		t.Errorf("Message = %q", input.Message)
	}
	if input.Age != 30 {
		t.Errorf("Age = %d, want 30", input.Age)
	}
}
