// Package jsonutil provides helper functions for JSON API responses.
//
// Every response uses the same envelope:
//
//	{
//	    "success": true,
//	    "message": "optional human text",
//	    "data":    { ... },
//	    "error":   {"message": "...", "code": "NOT_FOUND", "fields": [...]}
//	}
//
// Use these helpers in API handlers to ensure consistent JSON responses
// with proper Content-Type headers and error formatting.
package jsonutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/stratafight/internal/app/system/apperr"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies decoded by Decode.
const maxBodyBytes = 1 << 20

// Envelope is the response body shape for all API endpoints.
type Envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the error part of the envelope.
type ErrorBody struct {
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Fields  []apperr.FieldError `json:"fields,omitempty"`
}

// JSON writes a JSON response with the given status code.
//
// Usage:
//
//	jsonutil.JSON(w, http.StatusOK, jsonutil.Envelope{Success: true, Data: result})
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Success writes a successful envelope with the given status code.
func Success(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// OK writes a 200 OK envelope.
func OK(w http.ResponseWriter, message string, data any) {
	Success(w, http.StatusOK, message, data)
}

// Created writes a 201 Created envelope.
func Created(w http.ResponseWriter, message string, data any) {
	Success(w, http.StatusCreated, message, data)
}

// Error writes an error envelope with the given status code.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, Envelope{
		Success: false,
		Message: message,
		Error:   &ErrorBody{Message: message, Code: code},
	})
}

// AppError writes an operational error with its own status and code.
func AppError(w http.ResponseWriter, e *apperr.Error) {
	JSON(w, e.Status, Envelope{
		Success: false,
		Message: e.Message,
		Error:   &ErrorBody{Message: e.Message, Code: e.Code, Fields: e.Fields},
	})
}

// InternalError writes a 500 Internal Server Error response.
// Use this for unexpected server errors. Do not expose internal details
// to clients - log the actual error separately.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, apperr.CodeInternal, "internal server error")
}

// WriteError writes err to the client. Operational errors (*apperr.Error)
// are written as-is; anything else is logged and answered with a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	if e, ok := apperr.As(err); ok {
		AppError(w, e)
		return
	}
	if logger != nil {
		logger.Error("request failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
		)
	}
	InternalError(w)
}

// Decode reads and decodes JSON from the request body into v.
// An empty body leaves v untouched. Decode failures come back as a
// VALIDATION_ERROR ready to pass to WriteError.
//
// Usage:
//
//	var input CreateChallengeInput
//	if err := jsonutil.Decode(w, r, &input); err != nil {
//	    jsonutil.WriteError(w, r, h.logger, err)
//	    return
//	}
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.ValidationField("body", "Invalid JSON payload.")
	}
	return nil
}
