// Package auth verifies bearer tokens and carries the authenticated caller
// through the request context.
package auth

// Terminology: Account Identifiers
//   - AccountID / accountID: The MongoDB ObjectID (_id) that uniquely identifies an account
//   - Username: The human-readable string users sign in with

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/stratafight/internal/app/system/apperr"
	"github.com/dalemusser/stratafight/internal/app/system/jsonutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-Caller helper                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Caller is the authenticated account behind a request, as asserted by its
// token. Role may be stale after a promotion until the next sign-in;
// authorization decisions that depend on role re-read the account.
type Caller struct {
	ID       primitive.ObjectID
	Username string
	Role     string
	TokenID  string
}

type ctxKey string

const currentCallerKey ctxKey = "currentCaller"

// CurrentCaller returns the caller & "found?" flag from the request context.
func CurrentCaller(r *http.Request) (*Caller, bool) {
	return CallerFromContext(r.Context())
}

// CallerFromContext returns the caller stored in ctx, if any.
func CallerFromContext(ctx context.Context) (*Caller, bool) {
	c, ok := ctx.Value(currentCallerKey).(*Caller)
	return c, ok && c != nil
}

// Require returns the request's caller, or an UNAUTHORIZED error when
// RequireBearer did not run.
func Require(r *http.Request) (*Caller, error) {
	c, ok := CurrentCaller(r)
	if !ok {
		return nil, apperr.Unauthorized("Authentication required.")
	}
	return c, nil
}

// WithCaller injects a Caller into the request context.
func WithCaller(r *http.Request, c *Caller) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentCallerKey, c))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// RequireBearer returns middleware that authenticates requests with an
// "Authorization: Bearer <token>" header.
//
// Usage in routes.go:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(auth.RequireBearer(tokens, logger))
//	    r.Mount("/challenges", challenges.Routes(h))
//	})
//
// Missing, malformed, expired or forged tokens get a 401 UNAUTHORIZED
// envelope and the wrapped handler never runs.
func RequireBearer(tokens *TokenIssuer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("request rejected: missing Authorization header",
					zap.String("path", r.URL.Path),
				)
				jsonutil.AppError(w, apperr.Unauthorized("Authentication required."))
				return
			}

			// Expect "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				logger.Debug("request rejected: invalid Authorization format",
					zap.String("path", r.URL.Path),
				)
				jsonutil.AppError(w, apperr.Unauthorized("Invalid Authorization format (expected: Bearer <token>)."))
				return
			}

			claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				logger.Info("request rejected: invalid token",
					zap.Error(err),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				jsonutil.AppError(w, apperr.Unauthorized("Invalid or expired token."))
				return
			}

			id, err := primitive.ObjectIDFromHex(claims.AccountID)
			if err != nil {
				jsonutil.AppError(w, apperr.Unauthorized("Invalid or expired token."))
				return
			}

			next.ServeHTTP(w, WithCaller(r, &Caller{
				ID:       id,
				Username: claims.Username,
				Role:     claims.Role,
				TokenID:  claims.ID,
			}))
		})
	}
}
