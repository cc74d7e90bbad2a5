package testutil

import (
	"context"
	"net/http"
)

// csrfTokenKey matches the context key gorilla/csrf reads in csrf.Token.
const csrfTokenKey = "gorilla.csrf.Token"

// CSRFToken is the token WithCSRFToken injects.
const CSRFToken = "test-csrf-token-12345"

// WithCSRFToken adds a fixed CSRF token to the request context so handlers
// that render forms see a token without the csrf middleware.
func WithCSRFToken(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), csrfTokenKey, CSRFToken))
}
