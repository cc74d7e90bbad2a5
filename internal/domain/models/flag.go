// internal/domain/models/flag.go
package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Flag is a boolean the backend may encode as true/false, 1/0 or "1"/"0".
type Flag bool

// UnmarshalJSON accepts any of the encodings the backend emits.
// Unknown values decode as false rather than failing the whole record.
func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch strings.Trim(string(b), `"`) {
	case "true", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}

// MarshalJSON writes the flag as 1 or 0, the form the backend expects on write.
func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Int())
}

// Int returns 1 or 0.
func (f Flag) Int() int {
	if f {
		return 1
	}
	return 0
}
