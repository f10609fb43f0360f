// Package accounts implements sign-up, sign-in and profile management on top
// of the account store.
package accounts

// Terminology: Account Identifiers
//   - AccountID / accountID: The MongoDB ObjectID (_id) that uniquely identifies an account
//   - Username: The human-readable string users sign in with (exact, case-sensitive)

import (
	"context"
	"errors"
	"fmt"
	"time"

	accountstore "github.com/dalemusser/stratafight/internal/app/store/accounts"
	"github.com/dalemusser/stratafight/internal/app/store/audit"
	"github.com/dalemusser/stratafight/internal/app/store/ratelimit"
	"github.com/dalemusser/stratafight/internal/app/store/storeutil"
	"github.com/dalemusser/stratafight/internal/app/system/apperr"
	"github.com/dalemusser/stratafight/internal/app/system/auth"
	"github.com/dalemusser/stratafight/internal/app/system/authutil"
	"github.com/dalemusser/stratafight/internal/app/system/inputval"
	"github.com/dalemusser/stratafight/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Service runs account operations.
type Service struct {
	accounts *accountstore.Store
	limiter  *ratelimit.Store // nil disables sign-in throttling
	tokens   *auth.TokenIssuer
	logger   *zap.Logger

	defaultLimit int64
	maxLimit     int64
}

// New creates a Service. limiter may be nil.
func New(db *mongo.Database, tokens *auth.TokenIssuer, limiter *ratelimit.Store, logger *zap.Logger) *Service {
	return &Service{
		accounts:     accountstore.New(db),
		limiter:      limiter,
		tokens:       tokens,
		logger:       logger,
		defaultLimit: storeutil.DefaultLimit,
		maxLimit:     storeutil.MaxLimit,
	}
}

// SetPageLimits overrides the fighter directory page size default and ceiling.
func (s *Service) SetPageLimits(def, max int64) {
	if def > 0 {
		s.defaultLimit = def
	}
	if max > 0 {
		s.maxLimit = max
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Sign-up / sign-in                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// SignupInput is the payload for Signup.
type SignupInput struct {
	Username    string `json:"username" validate:"required,username" label:"Username"`
	Email       string `json:"email" validate:"required,email,max=254" label:"Email"`
	Password    string `json:"password" validate:"required" label:"Password"`
	DisplayName string `json:"display_name" validate:"max=100" label:"Display name"`
}

// Signup creates a fan account. Username and email must be unused
// (exact match on both).
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.Account, error) {
	res := inputval.Validate(in)
	if in.Password != "" {
		if err := authutil.ValidatePassword(in.Password, in.Username); err != nil {
			res.Add("password", err.Error())
		}
	}
	if err := res.AppError(); err != nil {
		return nil, err
	}

	usernameTaken, emailTaken, err := s.accounts.Taken(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if usernameTaken {
		return nil, apperr.DuplicateUser(accountstore.ErrDuplicateUsername.Error())
	}
	if emailTaken {
		return nil, apperr.DuplicateUser(accountstore.ErrDuplicateEmail.Error())
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a, err := s.accounts.Create(ctx, models.Account{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		DisplayName:  in.DisplayName,
		Role:         models.RoleFan,
	})
	switch {
	case errors.Is(err, accountstore.ErrDuplicateUsername), errors.Is(err, accountstore.ErrDuplicateEmail):
		// Lost a race with a concurrent signup.
		return nil, apperr.DuplicateUser(err.Error())
	case err != nil:
		return nil, err
	}
	return &a, nil
}

// SigninInput is the payload for Signin.
type SigninInput struct {
	Username string `json:"username" validate:"required" label:"Username"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// SigninResult is returned on successful sign-in.
type SigninResult struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      models.AccountView `json:"user"`
}

// Attempt describes how a sign-in resolved, for the audit trail.
type Attempt struct {
	AccountID *primitive.ObjectID
	Username  string
	Event     string
	Reason    string
}

// Signin verifies the credential for username and issues an access token.
// Unknown usernames and wrong passwords both yield INVALID_CREDENTIALS.
// With a limiter configured, repeated failures for a username lock it out
// (RATE_LIMITED) until the lockout expires.
func (s *Service) Signin(ctx context.Context, in SigninInput) (*SigninResult, Attempt, error) {
	attempt := Attempt{Username: in.Username}
	if err := inputval.Validate(in).AppError(); err != nil {
		return nil, attempt, err
	}

	if s.limiter != nil {
		if d := s.limiter.CheckAllowed(ctx, in.Username); !d.Allowed {
			attempt.Event = audit.EventSigninRateLimited
			attempt.Reason = "locked out"
			return nil, attempt, lockedOut(d.LockedUntil)
		}
	}

	a, err := s.accounts.GetByUsername(ctx, in.Username)
	if errors.Is(err, accountstore.ErrNotFound) {
		authutil.EqualizeTiming(in.Password)
		attempt.Event = audit.EventSigninFailedUnknownUser
		attempt.Reason = "unknown username"
		s.recordFailure(ctx, &attempt)
		return nil, attempt, apperr.InvalidCredentials()
	}
	if err != nil {
		return nil, attempt, err
	}
	attempt.AccountID = &a.ID

	if !authutil.CheckPassword(in.Password, a.PasswordHash) {
		attempt.Event = audit.EventSigninFailedPassword
		attempt.Reason = "wrong password"
		s.recordFailure(ctx, &attempt)
		return nil, attempt, apperr.InvalidCredentials()
	}

	if s.limiter != nil {
		if err := s.limiter.Clear(ctx, in.Username); err != nil {
			s.logger.Warn("failed to clear sign-in attempts", zap.String("username", in.Username), zap.Error(err))
		}
	}

	token, claims, err := s.tokens.Issue(a)
	if err != nil {
		return nil, attempt, err
	}
	attempt.Event = audit.EventSigninSuccess
	return &SigninResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      a.View(),
	}, attempt, nil
}

// recordFailure counts a failed attempt. Store errors are logged and
// swallowed so the caller still sees the credential failure.
func (s *Service) recordFailure(ctx context.Context, attempt *Attempt) {
	if s.limiter == nil {
		return
	}
	lockedUntil, err := s.limiter.RecordFailure(ctx, attempt.Username)
	if err != nil {
		s.logger.Warn("failed to record sign-in failure", zap.String("username", attempt.Username), zap.Error(err))
		return
	}
	if lockedUntil != nil {
		attempt.Event = audit.EventSigninLockedOut
		attempt.Reason = "too many failed attempts"
	}
}

func lockedOut(until *time.Time) error {
	if until == nil {
		return apperr.RateLimited("too many failed sign-in attempts; try again later")
	}
	return apperr.RateLimited(fmt.Sprintf(
		"too many failed sign-in attempts; try again after %s", until.UTC().Format(time.RFC3339)))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Account reads and role change                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// GetAccount returns the account with id.
func (s *Service) GetAccount(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if errors.Is(err, accountstore.ErrNotFound) {
		return nil, apperr.NotFound("account")
	}
	return a, err
}

// GetFighter returns the fighter account with id. Fans are reported as
// NOT_FOUND so the public directory never exposes them.
func (s *Service) GetFighter(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if errors.Is(err, accountstore.ErrNotFound) || (err == nil && !a.IsFighter()) {
		return nil, apperr.NotFound("fighter")
	}
	return a, err
}

// BecomeFighter promotes a fan to fighter. The transition is one-way.
func (s *Service) BecomeFighter(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	a, err := s.accounts.PromoteToFighter(ctx, id)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, accountstore.ErrNotFound) {
		return nil, err
	}
	// No fan matched: either the account is gone or it is already a fighter.
	existing, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.IsFighter() {
		return nil, apperr.AlreadyFighter()
	}
	return nil, apperr.NotFound("account")
}
