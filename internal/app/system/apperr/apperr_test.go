package apperr

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAs_Wrapped(t *testing.T) {
	err := fmt.Errorf("load challenge: %w", NotFound("challenge"))

	e, ok := As(err)
	if !ok {
		t.Fatal("As() did not find wrapped *Error")
	}
	if e.Code != CodeNotFound {
		t.Errorf("Code = %q, want %q", e.Code, CodeNotFound)
	}
	if e.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", e.Status, http.StatusNotFound)
	}
}

func TestAs_PlainError(t *testing.T) {
	if _, ok := As(fmt.Errorf("boom")); ok {
		t.Error("As() should not match a plain error")
	}
}

func TestIs(t *testing.T) {
	if !Is(SelfChallenge(), CodeSelfChallenge) {
		t.Error("Is() = false for matching code")
	}
	if Is(SelfChallenge(), CodeNotFound) {
		t.Error("Is() = true for different code")
	}
}

func TestInvalidStatus_NamesCurrentStatus(t *testing.T) {
	e := InvalidStatus("accept", "declined")
	want := "cannot accept a challenge that is declined"
	if e.Message != want {
		t.Errorf("Message = %q, want %q", e.Message, want)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{NotAuthorized("x"), http.StatusForbidden},
		{NotFighter(), http.StatusForbidden},
		{ChallengeExists(), http.StatusConflict},
		{DuplicateUser("x"), http.StatusConflict},
		{DuplicateField("email"), http.StatusConflict},
		{ValidationField("message", "required"), http.StatusBadRequest},
		{TargetNotFighter(), http.StatusBadRequest},
		{InvalidCredentials(), http.StatusUnauthorized},
		{RateLimited("x"), http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if tt.err.Status != tt.want {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.want)
			}
		})
	}
}

func TestValidation_FirstMessage(t *testing.T) {
	e := Validation([]FieldError{
		{Field: "username", Message: "Username is required."},
		{Field: "email", Message: "A valid email address is required."},
	})
	if e.Message != "Username is required." {
		t.Errorf("Message = %q", e.Message)
	}
	if len(e.Fields) != 2 {
		t.Errorf("len(Fields) = %d, want 2", len(e.Fields))
	}
}
