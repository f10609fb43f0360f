// Package htmlsanitize strips markup from user-supplied text.
// It uses bluemonday so challenge messages, fight terms and profile bios are
// stored as plain text regardless of what the client sends.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// policy is the shared strict policy: no elements or attributes survive.
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, creating it on first use.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// StripTags removes every HTML element from s and returns plain text with
// entities decoded and surrounding whitespace trimmed. Content of script and
// style elements is dropped along with the tags.
//
// A "<" directly followed by a letter opens a tag as far as HTML is
// concerned, so plain text such as "x<y and y>z" loses everything from the
// "<" up to the next ">". A "<" followed by a space is kept as text.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	if IsPlainText(s) && !strings.Contains(s, "&") {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(html.UnescapeString(getPolicy().Sanitize(s)))
}

// IsPlainText checks if content appears to be plain text (no HTML tags).
func IsPlainText(content string) bool {
	if content == "" {
		return true
	}
	// Valid HTML tags require both characters, so if either is missing, treat as plain text
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}
