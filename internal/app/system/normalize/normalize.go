// Package normalize trims and canonicalizes form values before they are
// validated or sent to the backend.
package normalize

import (
	"strconv"
	"strings"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a query parameter.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Slug trims, lowercases and strips leading and trailing slashes.
func Slug(s string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(s)), "/")
}

// Flag maps checkbox and select values to the backend's 1/0.
func Flag(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "on", "true", "yes":
		return 1
	}
	return 0
}

// FilterFlag keeps "1" and "0" and turns anything else into "" (no filter).
func FilterFlag(s string) string {
	switch s = strings.TrimSpace(s); s {
	case "1", "0":
		return s
	}
	return ""
}

// OptionalInt parses a non-negative integer, or returns nil for blank and
// invalid input.
func OptionalInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// OptionalID parses a positive id, or returns nil.
func OptionalID(s string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// PageNumber parses a 1-based page number, defaulting to 1.
func PageNumber(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
