// internal/app/system/authutil/password.go
package authutil

import (
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Password limits. bcrypt reads at most 72 bytes, so the ceiling is in bytes.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
	BcryptCost        = 12
)

var (
	ErrPasswordTooShort        = errors.New("Password must be at least 8 characters.")
	ErrPasswordTooLong         = errors.New("Password must be at most 72 bytes.")
	ErrPasswordCommon          = errors.New("This password is too common. Please choose a different one.")
	ErrPasswordContainsAccount = errors.New("Password must not contain your username.")
)

// blocked holds lowercased passwords rejected outright. Entries shorter than
// MinPasswordLength never reach the lookup.
var blocked = map[string]struct{}{
	"12345678": {}, "123456789": {}, "1234567890": {}, "11111111": {},
	"password": {}, "password1": {}, "password123": {}, "qwerty123": {},
	"qwertyuiop": {}, "iloveyou": {}, "sunshine": {}, "football": {},
	"letmein1": {}, "welcome1": {},
	// ring vocabulary
	"champion": {}, "knockout": {}, "fighter1": {}, "undefeated": {},
	"heavyweight": {}, "jiujitsu": {}, "muaythai": {}, "kickboxing": {},
}

// ValidatePassword checks password against the length bounds, the block list
// and, when username is non-empty, the username itself (case-insensitive).
func ValidatePassword(password, username string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	lower := strings.ToLower(password)
	if _, ok := blocked[lower]; ok {
		return ErrPasswordCommon
	}
	if username != "" && strings.Contains(lower, strings.ToLower(username)) {
		return ErrPasswordContainsAccount
	}
	return nil
}

// HashPassword hashes a validated password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// EqualizeTiming spends one bcrypt comparison on a throwaway hash so a
// sign-in for an unknown username costs about the same as a wrong password.
func EqualizeTiming(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unused-sign-in-probe"), BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
