// Package jsonutil writes JSON responses in the backend's error shape, so
// browser scripts see the same {message} body whether an error came from the
// backend or from this server.
package jsonutil

import (
	"encoding/json"
	"io"
	"net/http"
)

// MaxBody caps request bodies read by Decode.
const MaxBody = 1 << 20

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK writes a 200 JSON response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Message writes {"message": msg} with the given status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// BadRequest writes a 400 {message} response.
func BadRequest(w http.ResponseWriter, msg string) {
	Message(w, http.StatusBadRequest, msg)
}

// ServerError writes a 500 {message} response.
func ServerError(w http.ResponseWriter, msg string) {
	Message(w, http.StatusInternalServerError, msg)
}

// Decode reads at most MaxBody bytes of JSON from the request into v.
func Decode(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, MaxBody)).Decode(v)
}
