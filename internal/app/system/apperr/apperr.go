// Package apperr defines the operational errors surfaced by the API.
//
// Each Error carries a stable machine-readable Code and the HTTP status it
// maps to. Anything that is not an *Error is treated as an unexpected
// internal failure by jsonutil.WriteError.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeNotAuthorized      = "NOT_AUTHORIZED"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeDuplicateUser      = "DUPLICATE_USER"
	CodeDuplicateField     = "DUPLICATE_FIELD"
	CodeValidation         = "VALIDATION_ERROR"
	CodeSelfChallenge      = "SELF_CHALLENGE"
	CodeNotFighter         = "NOT_FIGHTER"
	CodeTargetNotFighter   = "TARGET_NOT_FIGHTER"
	CodeChallengeExists    = "CHALLENGE_EXISTS"
	CodeAlreadyFighter     = "ALREADY_FIGHTER"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeConflict           = "CONFLICT"
	CodeInvalidID          = "INVALID_ID"
	CodeInternal           = "INTERNAL_ERROR"
)

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is an expected, client-facing failure.
type Error struct {
	Code    string
	Message string
	Status  int
	Fields  []FieldError
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// New creates an Error with the given code, HTTP status, and message.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// As returns the *Error wrapped in err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code string) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

func NotFound(what string) *Error {
	return New(CodeNotFound, http.StatusNotFound, what+" not found")
}

func NotAuthorized(message string) *Error {
	return New(CodeNotAuthorized, http.StatusForbidden, message)
}

// InvalidStatus names the current status so clients can tell why the
// transition was refused.
func InvalidStatus(action, current string) *Error {
	return New(CodeInvalidStatus, http.StatusBadRequest,
		fmt.Sprintf("cannot %s a challenge that is %s", action, current))
}

func DuplicateUser(message string) *Error {
	return New(CodeDuplicateUser, http.StatusConflict, message)
}

func DuplicateField(field string) *Error {
	return &Error{
		Code:    CodeDuplicateField,
		Status:  http.StatusConflict,
		Message: field + " is already in use",
		Fields:  []FieldError{{Field: field, Message: field + " is already in use"}},
	}
}

// Validation builds a VALIDATION_ERROR carrying every field message.
func Validation(fields []FieldError) *Error {
	msg := "validation failed"
	if len(fields) > 0 {
		msg = fields[0].Message
	}
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: msg, Fields: fields}
}

// ValidationField is a shorthand for a single-field validation failure.
func ValidationField(field, message string) *Error {
	return Validation([]FieldError{{Field: field, Message: message}})
}

func SelfChallenge() *Error {
	return New(CodeSelfChallenge, http.StatusBadRequest, "you cannot challenge yourself")
}

func NotFighter() *Error {
	return New(CodeNotFighter, http.StatusForbidden, "only fighters can perform this action")
}

func TargetNotFighter() *Error {
	return New(CodeTargetNotFighter, http.StatusBadRequest, "the challenged account is not a fighter")
}

func ChallengeExists() *Error {
	return New(CodeChallengeExists, http.StatusConflict, "an active challenge already exists between these fighters")
}

func AlreadyFighter() *Error {
	return New(CodeAlreadyFighter, http.StatusBadRequest, "account is already a fighter")
}

func InvalidCredentials() *Error {
	return New(CodeInvalidCredentials, http.StatusUnauthorized, "invalid username or password")
}

func Unauthorized(message string) *Error {
	return New(CodeUnauthorized, http.StatusUnauthorized, message)
}

func RateLimited(message string) *Error {
	return New(CodeRateLimited, http.StatusTooManyRequests, message)
}

func Conflict(message string) *Error {
	return New(CodeConflict, http.StatusConflict, message)
}

func InvalidID(field string) *Error {
	return New(CodeInvalidID, http.StatusBadRequest, field+" is not a valid ID")
}
