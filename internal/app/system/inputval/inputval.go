// Package inputval provides request input validation using waffle/pantry/validate.
//
// This package wraps pantry/validate to provide a convenient interface for
// validating decoded JSON inputs with struct tags. Define an input struct with
// validate tags, decode the request body into it, and call Validate to get
// user-friendly error messages keyed by JSON field name.
//
// Example:
//
//	type SignupInput struct {
//	    Username string `json:"username" validate:"required,username" label:"Username"`
//	    Email    string `json:"email" validate:"required,email" label:"Email"`
//	}
//
//	if res := inputval.Validate(input); res.HasErrors() {
//	    jsonutil.WriteError(w, r, h.logger, res.AppError())
//	    return
//	}
package inputval

import (
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/dalemusser/stratafight/internal/app/system/apperr"
	"github.com/dalemusser/stratafight/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result holds validation results with user-friendly messages.
type Result struct {
	Errors []FieldError
}

// FieldError represents a validation error for a single field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or empty string if no errors.
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// All returns all error messages joined with "; ".
func (r *Result) All() string {
	if len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// AppError converts the result into a VALIDATION_ERROR, or nil when valid.
func (r *Result) AppError() error {
	if !r.HasErrors() {
		return nil
	}
	fields := make([]apperr.FieldError, len(r.Errors))
	for i, e := range r.Errors {
		fields[i] = apperr.FieldError{Field: e.Field, Message: e.Message}
	}
	return apperr.Validation(fields)
}

// Add appends a field error produced outside of struct tag validation.
func (r *Result) Add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Label: field, Message: message})
}

// Merge appends all errors from other.
func (r *Result) Merge(other *Result) {
	if other != nil {
		r.Errors = append(r.Errors, other.Errors...)
	}
}

// customValidator is a singleton validator with custom rules registered.
var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

// getValidator returns the singleton validator with custom rules.
func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		customValidator = validate.New(validate.WithStopOnFirstError())

		// username: 3-30 letters, digits, underscores, hyphens or dots
		customValidator.RegisterRuleFunc("username", func(value any) bool {
			if s, ok := value.(string); ok {
				return IsValidUsername(s)
			}
			return false
		}, "username")

		// weightclass: validates against the weight class vocabulary
		customValidator.RegisterRuleFunc("weightclass", func(value any) bool {
			if s, ok := value.(string); ok {
				return s == "" || models.IsValidWeightClass(s)
			}
			return false
		}, "weightclass")

		// fightingstyle: validates against the fighting style vocabulary
		customValidator.RegisterRuleFunc("fightingstyle", func(value any) bool {
			if s, ok := value.(string); ok {
				return models.IsValidFightingStyle(s)
			}
			return false
		}, "fightingstyle")

		// httpurl: validates that string is a valid http/https URL
		customValidator.RegisterRuleFunc("httpurl", func(value any) bool {
			if s, ok := value.(string); ok {
				return s == "" || IsValidHTTPURL(s)
			}
			return false
		}, "httpurl")

		// objectid: validates that string is a valid MongoDB ObjectID hex
		customValidator.RegisterRuleFunc("objectid", func(value any) bool {
			if s, ok := value.(string); ok {
				return s == "" || IsValidObjectID(s)
			}
			return false
		}, "objectid")
	})
	return customValidator
}

// Validate validates a struct and returns a Result with user-friendly errors.
// The struct should have `validate` tags for rules and optional `label` tags
// for user-friendly field names.
//
// Supported validation rules (from pantry/validate):
//   - required: field must not be empty
//   - email: field must be a valid email address
//   - oneof=a b c: field must be one of the specified values
//   - timezone: field must be a valid IANA time zone
//   - min=N: string length or numeric value must be >= N
//   - max=N: string length or numeric value must be <= N
//
// Custom validation rules (registered by this package):
//   - username: 3-30 characters of letters, digits, '_', '-' or '.'
//   - weightclass: field must be empty or a known weight class
//   - fightingstyle: field must be a known fighting style
//   - httpurl: field must be empty or a valid http:// or https:// URL
//   - objectid: field must be empty or a valid MongoDB ObjectID hex string
//
// Example:
//
//	type Input struct {
//	    Name   string `validate:"required,max=200" label:"Full name"`
//	    Email  string `validate:"required,email,max=254" label:"Email address"`
//	    Class  string `validate:"weightclass" label:"Weight class"`
//	}
func Validate(s any) *Result {
	result := &Result{}

	v := getValidator()
	err := v.Struct(s)
	if err == nil {
		return result
	}

	// Get field labels from struct tags
	labels := getFieldLabels(s)

	if errs, ok := err.(validate.Errors); ok {
		for _, e := range errs {
			label := labels[e.Field]
			if label == "" {
				label = e.Field
			}

			msg := formatMessage(label, e.Rule, e.Param)
			result.Errors = append(result.Errors, FieldError{
				Field:   e.Field,
				Label:   label,
				Message: msg,
			})
		}
	}

	return result
}

// getFieldLabels extracts the "label" tag from struct fields.
func getFieldLabels(s any) map[string]string {
	labels := make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		// Get the field name (use json tag if available)
		fieldName := field.Name
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" && parts[0] != "-" {
				fieldName = parts[0]
			}
		}

		// Get the label
		if label := field.Tag.Get("label"); label != "" {
			labels[fieldName] = label
		}
	}

	return labels
}

// formatMessage creates a user-friendly message for a validation rule.
func formatMessage(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "timezone":
		return label + " must be a valid time zone."
	case "min":
		return label + " must be at least " + param + " characters."
	case "max":
		return label + " must be at most " + param + " characters."
	case "username":
		return label + " must be 3-30 characters and contain only letters, numbers, underscores, hyphens or dots."
	case "weightclass":
		return label + " must be one of: " + strings.Join(models.AllWeightClasses(), ", ") + "."
	case "fightingstyle":
		return label + " must be one of: " + strings.Join(models.AllFightingStyles(), ", ") + "."
	case "httpurl":
		return label + " must be a valid URL starting with http:// or https://."
	case "objectid":
		return label + " is not a valid ID."
	default:
		return label + " is invalid."
	}
}

// IsValidEmail checks if the given string has a valid email format.
//
// This function uses Go's net/mail.ParseAddress for RFC 5322 compliant validation.
// RFC 5322 defines the Internet Message Format, including email address syntax.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}

	// net/mail.ParseAddress provides RFC 5322 compliant validation.
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}

	// ParseAddress accepts "Name <email>" format, so verify the address
	// matches what we passed in (just the email part).
	return addr.Address == email
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)

// IsValidUsername checks the username character set and length.
// Usernames are matched exactly (case-sensitive) at sign-in.
func IsValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// IsValidHTTPURL checks if the given string is a valid http:// or https:// URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// IsValidObjectID checks if the given string is a valid MongoDB ObjectID hex.
func IsValidObjectID(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// ParseObjectID parses a path or body id, returning INVALID_ID for field
// when raw is not a valid ObjectID hex string.
func ParseObjectID(raw, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidID(field)
	}
	return id, nil
}

// PositiveInt parses an optional positive integer (page, limit). Empty
// yields 0; anything else invalid is recorded on res under field.
func PositiveInt(res *Result, field, raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		res.Add(field, field+" must be a positive integer.")
		return 0
	}
	return v
}

// Number parses an optional decimal number. Empty yields nil.
func Number(res *Result, field, raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		res.Add(field, field+" must be a number.")
		return nil
	}
	return &v
}
