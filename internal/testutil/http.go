package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/dalemusser/seoadmin/internal/app/system/auth"
)

// TestToken is the bearer token carried by StaffUser.
const TestToken = "test-token"

// StaffUser returns a signed-in staff member.
func StaffUser() *auth.SessionUser {
	return &auth.SessionUser{ID: 1, Name: "Test Staff", Email: "staff@example.com", Token: TestToken}
}

// NewRequest creates a request with a CSRF token and no user.
func NewRequest(method, target string, body io.Reader) *http.Request {
	return WithCSRFToken(httptest.NewRequest(method, target, body))
}

// NewSignedInRequest creates a request carrying StaffUser and a CSRF token.
func NewSignedInRequest(method, target string, body io.Reader) *http.Request {
	return auth.WithTestUser(NewRequest(method, target, body), StaffUser())
}

// NewFormRequest creates a signed-in urlencoded form post.
func NewFormRequest(target string, form url.Values) *http.Request {
	req := NewSignedInRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with assertion helpers.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %.300s)", r.Code, expected, r.Body.String())
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, expectedLocation string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	if location := r.Header().Get("Location"); location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// AssertContains checks that the body contains expected.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
