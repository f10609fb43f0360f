// Package authapi provides the public sign-up and sign-in endpoints.
//
// Endpoints (mounted at /api/auth):
//   - POST /signup - create a fan account
//   - POST /signin - exchange username + password for a bearer token
package authapi

import (
	"net/http"

	"github.com/dalemusser/stratafight/internal/app/store/audit"
	"github.com/dalemusser/stratafight/internal/app/system/accounts"
	"github.com/dalemusser/stratafight/internal/app/system/auditlog"
	"github.com/dalemusser/stratafight/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// Handler serves the auth endpoints.
type Handler struct {
	accounts    *accounts.Service
	auditLogger *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a new auth Handler. auditLogger may be nil.
func NewHandler(svc *accounts.Service, auditLogger *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{accounts: svc, auditLogger: auditLogger, logger: logger}
}

// Signup handles POST /signup.
//
// Request body:
//
//	{"username": "rocky", "email": "rocky@example.com", "password": "...", "display_name": "Rocky"}
//
// Response (201 Created): the new account, without credential.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in accounts.SignupInput
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}

	a, err := h.accounts.Signup(r.Context(), in)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}

	h.auditLogger.Signup(r, a.ID, a.Username)
	h.logger.Info("account created", zap.String("account_id", a.ID.Hex()), zap.String("username", a.Username))
	jsonutil.Created(w, "Account created.", a.View())
}

// Signin handles POST /signin.
//
// Request body:
//
//	{"username": "rocky", "password": "..."}
//
// Response (200 OK):
//
//	{"token": "...", "expires_at": "...", "user": {...}}
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var in accounts.SigninInput
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}

	res, attempt, err := h.accounts.Signin(r.Context(), in)
	switch {
	case err == nil:
		h.auditLogger.SigninSuccess(r, res.User.ID, res.User.Username)
	case attempt.Event != "" && attempt.Event != audit.EventSigninSuccess:
		h.auditLogger.SigninFailed(r, attempt.AccountID, attempt.Username, attempt.Event, attempt.Reason)
	}
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}

	jsonutil.OK(w, "Signed in.", res)
}
