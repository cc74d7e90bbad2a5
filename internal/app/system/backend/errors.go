package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrUnauthorized matches any *APIError carrying a 401.
var ErrUnauthorized = errors.New("backend: unauthorized")

// APIError is a non-success answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
	// Fields holds validation messages keyed by the backend's dotted field
	// names, e.g. "meta.canonical_url".
	Fields map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend: %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// HasFields reports whether the error carries field-level validation messages.
func (e *APIError) HasFields() bool { return len(e.Fields) > 0 }

// FieldErrors returns the first message per field, keyed by form field name.
func (e *APIError) FieldErrors() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for k, msgs := range e.Fields {
		if len(msgs) == 0 {
			continue
		}
		out[FormKey(k)] = msgs[0]
	}
	return out
}

// FirstField returns the form key of the first invalid field. order lists
// the form's inputs top to bottom; invalid fields it does not name come after
// it, sorted.
func (e *APIError) FirstField(order ...string) string {
	invalid := make(map[string]bool, len(e.Fields))
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		invalid[FormKey(k)] = true
		keys = append(keys, FormKey(k))
	}
	for _, name := range order {
		if invalid[name] {
			return name
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return keys[0]
}

// FormKey maps a dotted backend key to a bracketed form key:
//
//	meta.canonical_url -> meta[canonical_url]
//	services.0.title   -> services[0][title]
func FormKey(key string) string {
	parts := strings.Split(key, ".")
	if len(parts) == 1 {
		return key
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		b.WriteByte('[')
		b.WriteString(p)
		b.WriteByte(']')
	}
	return b.String()
}

// UserMessage returns a message suitable for a flash. Backend messages are
// shown as-is; transport errors become a generic line.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// parseAPIError reads {message, errors} from body. errors values may be a
// string or a list of strings.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var env struct {
		Message string                     `json:"message"`
		Errors  map[string]json.RawMessage `json:"errors"`
	}
	if len(body) == 0 || json.Unmarshal(body, &env) != nil {
		if s := strings.TrimSpace(string(body)); s != "" && len(s) <= 200 {
			apiErr.Message = s
		}
		return apiErr
	}
	apiErr.Message = env.Message
	if len(env.Errors) > 0 {
		apiErr.Fields = make(map[string][]string, len(env.Errors))
		for k, raw := range env.Errors {
			var list []string
			if json.Unmarshal(raw, &list) == nil {
				apiErr.Fields[k] = list
				continue
			}
			var one string
			if json.Unmarshal(raw, &one) == nil {
				apiErr.Fields[k] = []string{one}
			}
		}
	}
	return apiErr
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
