package social

import (
	"regexp"
	"strings"
	"time"
)

// maxContentLen bounds post content length.
const maxContentLen = 140

var usernamePattern = regexp.MustCompile(`^\w+$`)

// ValidationError reports a required field that was missing or malformed at
// creation or update time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "arbor: invalid " + e.Field + ": " + e.Reason
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return &ValidationError{Field: "username", Reason: "must be a nonempty alphanumeric string"}
	}
	return nil
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return &ValidationError{Field: "password", Reason: "must not be empty"}
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if len(content) > maxContentLen {
		return &ValidationError{Field: "content", Reason: "must be at most 140 characters"}
	}
	return nil
}

func validateName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

func validateEventTime(value string) error {
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return &ValidationError{Field: "time", Reason: "must be an RFC 3339 timestamp"}
	}
	return nil
}

func validateID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

// normalizeUsername produces the canonical form used for the uniqueness
// constraint and lookups; usernames are unique case-insensitively.
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
