package signin

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/seoadmin/internal/app/features/errors"
	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/seoadmin/internal/testutil"
	"go.uber.org/zap"
)

type fakeAuth struct {
	res   *models.LoginResult
	err   error
	email string
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (*models.LoginResult, error) {
	f.email = email
	return f.res, f.err
}

func newHandler(t *testing.T, api Authenticator) (*Handler, *auth.SessionManager) {
	t.Helper()
	testutil.MustBootTemplates(t)
	sm, err := auth.NewSessionManager("this-is-a-32-character-long-key!", "", "", time.Hour, 0, false, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return NewHandler(api, sm, errorsfeature.NewErrorLogger(zap.NewNop()), zap.NewNop()), sm
}

func postForm(form url.Values) *http.Request {
	req := testutil.NewRequest(http.MethodPost, "/signin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestShow_KeepsRedirect(t *testing.T) {
	h, _ := newHandler(t, &fakeAuth{})
	rec := testutil.NewRecorder()
	h.show(rec, testutil.NewRequest(http.MethodGet, "/signin?redirect=%2Fusers", nil))

	rec.AssertStatus(t, http.StatusOK)
	doc := testutil.ParseHTML(t, rec.Body.String())
	if got := testutil.InputValue(doc, "redirect"); got != "/users" {
		t.Errorf("redirect input = %q", got)
	}
	if !testutil.HasAutofocus(doc, "email") {
		t.Error("email should be focused on a fresh form")
	}
}

func TestSubmit_RequiresFields(t *testing.T) {
	api := &fakeAuth{}
	h, _ := newHandler(t, api)
	rec := testutil.NewRecorder()
	h.submit(rec, postForm(url.Values{"password": {"secret"}}))

	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, "Email is required.")
	if api.email != "" {
		t.Error("backend should not be called when validation fails")
	}
	doc := testutil.ParseHTML(t, rec.Body.String())
	if !testutil.HasAutofocus(doc, "email") {
		t.Error("email should carry autofocus")
	}
}

func TestSubmit_BackendMessageShown(t *testing.T) {
	api := &fakeAuth{err: &backend.APIError{StatusCode: 401, Message: "These credentials do not match our records."}}
	h, _ := newHandler(t, api)
	rec := testutil.NewRecorder()
	h.submit(rec, postForm(url.Values{"email": {" Staff@Example.com "}, "password": {"wrong"}}))

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "These credentials do not match our records.")
	if api.email != "staff@example.com" {
		t.Errorf("email sent = %q", api.email)
	}
	doc := testutil.ParseHTML(t, rec.Body.String())
	if got := testutil.InputValue(doc, "email"); got != "staff@example.com" {
		t.Errorf("email echoed = %q", got)
	}
}

func TestSubmit_FallbackMessage(t *testing.T) {
	h, _ := newHandler(t, &fakeAuth{err: &backend.APIError{StatusCode: 401}})
	rec := testutil.NewRecorder()
	h.submit(rec, postForm(url.Values{"email": {"a@example.com"}, "password": {"x"}}))
	rec.AssertContains(t, failedMessage)
}

func TestSubmit_TransportFailure(t *testing.T) {
	h, _ := newHandler(t, &fakeAuth{err: errors.New("dial tcp: refused")})
	rec := testutil.NewRecorder()
	h.submit(rec, postForm(url.Values{"email": {"a@example.com"}, "password": {"x"}}))
	rec.AssertStatus(t, http.StatusBadGateway)
	rec.AssertContains(t, "Could not reach the server.")
}

func TestSubmit_Success(t *testing.T) {
	api := &fakeAuth{res: &models.LoginResult{
		AccessToken: "tok",
		User:        models.LoginUser{ID: 9, Name: "Kim", Email: "kim@example.com"},
	}}
	h, sm := newHandler(t, api)
	rec := testutil.NewRecorder()
	h.submit(rec, postForm(url.Values{
		"email":    {"kim@example.com"},
		"password": {"pw"},
		"redirect": {"/seo-pages?page=2"},
	}))

	rec.AssertRedirect(t, "/seo-pages?page=2")

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sm.SessionName() {
			found = true
		}
	}
	if !found {
		t.Error("session cookie not set")
	}
}

func TestSubmit_UnsafeRedirectIgnored(t *testing.T) {
	api := &fakeAuth{res: &models.LoginResult{AccessToken: "tok", User: models.LoginUser{ID: 1}}}
	h, _ := newHandler(t, api)
	rec := testutil.NewRecorder()
	h.submit(rec, postForm(url.Values{
		"email":    {"kim@example.com"},
		"password": {"pw"},
		"redirect": {"https://evil.example.com/"},
	}))
	rec.AssertRedirect(t, "/")
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/users", "/users"},
		{"/seo-pages/3/sections?x=1", "/seo-pages/3/sections?x=1"},
		{"", ""},
		{"users", ""},
		{"//evil.example.com", ""},
		{"/\\evil.example.com", ""},
		{"https://evil.example.com", ""},
		{"/signin", ""},
	}
	for _, tt := range tests {
		if got := SafeRedirect(tt.in); got != tt.want {
			t.Errorf("SafeRedirect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
