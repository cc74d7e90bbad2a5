package sections

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

// Unwrap strips at most one {data: ...} envelope and then at most one
// {content: ...} envelope, and decodes a JSON string if that is what remains.
// A string that is not valid JSON is returned as-is.
//
// Keys only count when their value is truthy, so {data: null} or
// {content: ""} are left alone. Calling Unwrap on its own output is safe.
func Unwrap(raw any) any {
	if raw == nil {
		return nil
	}
	candidate := raw
	if rec, ok := candidate.(map[string]any); ok {
		if v, ok := rec["data"]; ok && truthy(v) {
			candidate = v
		}
		if rec, ok := candidate.(map[string]any); ok {
			if v, ok := rec["content"]; ok && truthy(v) {
				candidate = v
			}
		}
	}
	if s, ok := candidate.(string); ok {
		if v, err := Decode([]byte(s)); err == nil {
			return v
		}
		return s
	}
	return candidate
}

var errTrailingData = errors.New("sections: trailing data after JSON value")

// Decode parses JSON into the generic representation used by this package.
// Numbers are kept as json.Number so large ids survive.
func Decode(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	// Trailing data means the string was not a single JSON value.
	if dec.More() {
		return nil, errTrailingData
	}
	return v, nil
}

// truthy follows the loose truthiness the backend's clients rely on:
// null, false, zero and "" are falsy; empty arrays and objects are not.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

// record returns v as an object, or nil.
func record(v any) map[string]any {
	rec, _ := v.(map[string]any)
	return rec
}

// str returns the field as a string, or "" when it is missing or mistyped.
func str(rec map[string]any, key string) string {
	if rec == nil {
		return ""
	}
	s, _ := rec[key].(string)
	return s
}

// numericID returns the positive integer id stored under "id".
// Strings are not ids: the backend always sends ids as JSON numbers.
func numericID(rec map[string]any) int64 {
	if rec == nil {
		return 0
	}
	var id int64
	switch t := rec["id"].(type) {
	case json.Number:
		if n, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			id = n
		} else if f, err := t.Float64(); err == nil && f == math.Trunc(f) {
			id = int64(f)
		}
	case float64:
		if t == math.Trunc(t) {
			id = int64(t)
		}
	case int:
		id = int64(t)
	case int64:
		id = t
	}
	if id < 0 {
		return 0
	}
	return id
}

// entries flattens the post-unwrap value into a candidate list.
// An object carrying an array under "data" is a second envelope and yields
// that array; any other object yields itself.
func entries(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case map[string]any:
		if arr, ok := t["data"].([]any); ok {
			return arr, true
		}
		return []any{t}, false
	}
	return nil, false
}

// first returns element 0 of the candidate list as a record.
func first(v any) map[string]any {
	list, _ := entries(v)
	if len(list) == 0 {
		return nil
	}
	return record(list[0])
}
