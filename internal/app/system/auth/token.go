package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratafight/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTokenTTL is used when no TTL is configured.
const DefaultTokenTTL = 72 * time.Hour

// Claims are the JWT claims embedded in each access token. The registered
// Subject carries the account id and ID carries a random jti.
type Claims struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// ErrInvalidToken is returned by Parse for any token that does not verify.
var ErrInvalidToken = errors.New("invalid token")

/*─────────────────────────────────────────────────────────────────────────────*
| TokenIssuer - injectable token signing and verification                     |
*─────────────────────────────────────────────────────────────────────────────*/

// TokenIssuer signs and verifies HS256 access tokens.
// Use NewTokenIssuer to create an instance.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenConfigError is returned when token configuration is invalid.
type TokenConfigError struct {
	Message string
}

func (e *TokenConfigError) Error() string {
	return e.Message
}

// NewTokenIssuer creates a TokenIssuer.
//
// Parameters:
//   - secret: HMAC signing key (must be ≥32 chars in production)
//   - issuer: value of the iss claim; verified on parse when non-empty
//   - ttl: token lifetime (DefaultTokenTTL when ≤0)
//   - secure: production mode; weak secrets fail instead of warning
//   - logger: zap logger for configuration warnings
func NewTokenIssuer(secret, issuer string, ttl time.Duration, secure bool, logger *zap.Logger) (*TokenIssuer, error) {
	if secret == "" {
		return nil, &TokenConfigError{Message: "jwt secret is empty; provide ≥32 random chars"}
	}

	isWeak := len(secret) < 32 || isDefaultKey(secret)
	if secure {
		if isWeak {
			return nil, &TokenConfigError{
				Message: "jwt secret is too weak for production; provide ≥32 random chars (not the default dev key)",
			}
		}
	} else if isWeak {
		logger.Warn("jwt secret is weak; 32+ random chars required in production",
			zap.Int("length", len(secret)),
			zap.Bool("is_default", isDefaultKey(secret)))
	}

	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

// Issue signs a token for the account.
func (ti *TokenIssuer) Issue(a *models.Account) (string, *Claims, error) {
	now := ti.now().UTC()
	claims := &Claims{
		AccountID: a.ID.Hex(),
		Role:      string(a.Role),
		Username:  a.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID.Hex(),
			Issuer:    ti.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse validates a token string and returns the embedded claims.
// It rejects tokens with:
//   - wrong or missing signature
//   - expired tokens (ExpiresAt in the past)
//   - an issuer other than the configured one
//   - unexpected signing algorithm
func (ti *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(ti.now),
		jwt.WithExpirationRequired(),
	}
	if ti.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ti.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.AccountID == "" || claims.Subject != claims.AccountID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// isDefaultKey checks if the secret appears to be a default/placeholder value.
func isDefaultKey(key string) bool {
	lower := strings.ToLower(key)
	patterns := []string{
		"dev-only",
		"change-me",
		"placeholder",
		"default",
		"example",
		"insecure",
		"test-key",
		"secret123",
		"password",
	}
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
