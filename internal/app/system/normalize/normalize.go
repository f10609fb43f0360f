// Package normalize holds the string normalization rules shared by stores,
// services and handlers. Identity fields keep their case; keywords are
// lowercased.
package normalize

import "strings"

// Username normalizes a username by trimming whitespace. Case is preserved;
// usernames are unique and matched case-sensitively.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// Email normalizes an email address by trimming whitespace. Case is preserved;
// emails are unique and matched case-sensitively.
func Email(s string) string {
	return strings.TrimSpace(s)
}

// Name normalizes a name by trimming whitespace.
// Use text.Fold() for case-insensitive comparison keys.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Keyword normalizes an enumerated query value (status, role, sort) by
// trimming whitespace and lowercasing.
func Keyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam normalizes a query parameter by trimming whitespace.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// List splits a comma-separated query parameter into trimmed, non-empty values.
func List(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
