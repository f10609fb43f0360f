// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratafight/internal/app/store/audit"
	"github.com/dalemusser/stratafight/internal/app/system/network"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls signup/signin/promotion events.
	Auth string
	// Challenge controls challenge lifecycle events.
	Challenge string
}

// Logger records audit events to MongoDB (via audit.Store) and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.AccountID != nil {
		fields = append(fields, zap.String("account_id", event.AccountID.Hex()))
	}
	if event.ChallengeID != nil {
		fields = append(fields, zap.String("challenge_id", event.ChallengeID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryChallenge:
		return l.config.Challenge
	}
	return All
}

// Log records an audit event according to the category's setting.
// A nil Logger is a no-op so tests can pass nil.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.setting(event.Category)
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if (setting == All || setting == Log) && l.zapLog != nil {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil && l.zapLog != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func fromRequest(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        network.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
}

// --- Authentication Events ---

// Signup logs a new account.
func (l *Logger) Signup(r *http.Request, accountID primitive.ObjectID, username string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventSignup)
	e.AccountID = &accountID
	e.Details = map[string]string{"username": username}
	l.Log(r.Context(), e)
}

// SigninSuccess logs a successful signin.
func (l *Logger) SigninSuccess(r *http.Request, accountID primitive.ObjectID, username string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventSigninSuccess)
	e.AccountID = &accountID
	e.Details = map[string]string{"username": username}
	l.Log(r.Context(), e)
}

// SigninFailed logs a rejected signin. eventType is one of the
// audit.EventSignin* failure types; accountID is nil when the username
// matched no account.
func (l *Logger) SigninFailed(r *http.Request, accountID *primitive.ObjectID, username, eventType, reason string) {
	e := fromRequest(r, audit.CategoryAuth, eventType)
	e.AccountID = accountID
	e.Success = false
	e.FailureReason = reason
	e.Details = map[string]string{"attempted_username": username}
	l.Log(r.Context(), e)
}

// BecameFighter logs a fan-to-fighter promotion.
func (l *Logger) BecameFighter(r *http.Request, accountID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventBecameFighter)
	e.AccountID = &accountID
	l.Log(r.Context(), e)
}

// --- Challenge Events ---

// Challenge logs a challenge lifecycle event performed by actorID.
func (l *Logger) Challenge(r *http.Request, eventType string, actorID, challengeID primitive.ObjectID, details map[string]string) {
	e := fromRequest(r, audit.CategoryChallenge, eventType)
	e.AccountID = &actorID
	e.ChallengeID = &challengeID
	e.Details = details
	l.Log(r.Context(), e)
}
