package users

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/seoadmin/internal/app/features/errors"
	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/seoadmin/internal/testutil"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, fb *testutil.FakeBackend) http.Handler {
	t.Helper()
	testutil.MustBootTemplates(t)
	sm, err := auth.NewSessionManager("this-is-a-32-character-long-key!", "", "", time.Hour, 0, false, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return Routes(NewHandler(fb.Client(t), sm, errorsfeature.NewErrorLogger(zap.NewNop()), zap.NewNop()), sm)
}

func serve(h http.Handler, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const usersJSON = `{"status":true,"data":[
	{"id":1,"name":"Test Staff","email":"staff@example.com","roles":[{"id":1,"name":"admin"}]},
	{"id":2,"name":"Dana Lee","email":"dana@example.com","roles":[{"id":2,"name":"editor"},{"id":3,"name":"seo"}]},
	{"id":3,"name":"Sam Ortiz","email":"sam@agency.test","roles":[]}
]}`

func TestList_Search(t *testing.T) {
	fb := testutil.NewFakeBackend(t).On(http.MethodGet, "/users", 200, usersJSON)
	h := newRouter(t, fb)

	rec := serve(h, testutil.NewSignedInRequest(http.MethodGet, "/?q=AGENCY", nil))
	rec.AssertStatus(t, http.StatusOK)
	doc := testutil.ParseHTML(t, rec.Body.String())
	rows := doc.Find("#users tbody tr")
	if rows.Length() != 1 {
		t.Fatalf("rows = %d", rows.Length())
	}
	if id, _ := rows.Attr("data-user-id"); id != "3" {
		t.Errorf("matched user = %q", id)
	}

	rec = serve(h, testutil.NewSignedInRequest(http.MethodGet, "/", nil))
	doc = testutil.ParseHTML(t, rec.Body.String())
	if doc.Find("#users tbody tr").Length() != 3 {
		t.Errorf("unfiltered rows = %d", doc.Find("#users tbody tr").Length())
	}
	if got := doc.Find(`tr[data-user-id="2"] td`).Eq(2).Text(); got != "editor, seo" {
		t.Errorf("roles = %q", got)
	}
	if doc.Find(`tr[data-user-id="1"] a.danger`).Length() != 0 {
		t.Error("the signed-in user should not be offered a delete link")
	}
}

func TestCreate_Validation(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	h := newRouter(t, fb)

	rec := serve(h, testutil.NewFormRequest("/new", url.Values{"name": {"Kim"}, "email": {"not-an-email"}}))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, "A valid email address is required.")

	doc := testutil.ParseHTML(t, rec.Body.String())
	if !testutil.HasAutofocus(doc, "email") {
		t.Error("email should be focused")
	}
	if len(fb.Calls()) != 0 {
		t.Error("invalid form should not reach the backend")
	}
}

func TestCreate_Success(t *testing.T) {
	fb := testutil.NewFakeBackend(t).On(http.MethodPost, "/users", 201, `{"status":true,"data":{"user":{"id":5,"name":"Kim"}}}`)
	h := newRouter(t, fb)

	rec := serve(h, testutil.NewFormRequest("/new", url.Values{"name": {" Kim "}, "email": {" Kim@Example.com "}}))
	rec.AssertRedirect(t, "/users?notice=created")

	var got models.UserInput
	fb.CallsTo(http.MethodPost, "/users")[0].JSON(t, &got)
	if got.Name != "Kim" || got.Email != "kim@example.com" {
		t.Errorf("payload = %+v", got)
	}
}

func TestUpdate_BackendFieldError(t *testing.T) {
	fb := testutil.NewFakeBackend(t).On(http.MethodPut, "/users/2", 422,
		`{"message":"The given data was invalid.","errors":{"email":"The email has already been taken."}}`)
	h := newRouter(t, fb)

	rec := serve(h, testutil.NewFormRequest("/2", url.Values{"name": {"Dana"}, "email": {"staff@example.com"}}))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, "The email has already been taken.")
	doc := testutil.ParseHTML(t, rec.Body.String())
	if got := testutil.InputValue(doc, "email"); got != "staff@example.com" {
		t.Errorf("email echoed = %q", got)
	}
}

func TestShowEdit(t *testing.T) {
	fb := testutil.NewFakeBackend(t).On(http.MethodGet, "/users/2", 200, `{"status":true,"data":{"id":2,"name":"Dana Lee","email":"dana@example.com"}}`)
	h := newRouter(t, fb)

	rec := serve(h, testutil.NewSignedInRequest(http.MethodGet, "/2/edit", nil))
	rec.AssertStatus(t, http.StatusOK)
	doc := testutil.ParseHTML(t, rec.Body.String())
	if got := testutil.InputValue(doc, "name"); got != "Dana Lee" {
		t.Errorf("name = %q", got)
	}
	if action, _ := doc.Find("form[novalidate]").Attr("action"); action != "/users/2" {
		t.Errorf("action = %q", action)
	}

	rec = serve(h, testutil.NewSignedInRequest(http.MethodGet, "/9/edit", nil))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestChangePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		confirm    string
		wantStatus int
		wantText   string
	}{
		{"too short", "short", "short", http.StatusUnprocessableEntity, "at least 8 characters"},
		{"mismatch", "long-enough-1", "long-enough-2", http.StatusUnprocessableEntity, "Passwords do not match."},
		{"missing confirmation", "long-enough-1", "", http.StatusUnprocessableEntity, "Please confirm the password."},
		{"ok", "long-enough-1", "long-enough-1", http.StatusSeeOther, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := testutil.NewFakeBackend(t).On(http.MethodPut, "/users/2/password", 200, `{"status":true}`)
			h := newRouter(t, fb)

			rec := serve(h, testutil.NewFormRequest("/2/password", url.Values{
				"password":              {tt.password},
				"password_confirmation": {tt.confirm},
			}))
			rec.AssertStatus(t, tt.wantStatus)
			calls := fb.CallsTo(http.MethodPut, "/users/2/password")
			if tt.wantStatus != http.StatusSeeOther {
				rec.AssertContains(t, tt.wantText)
				if len(calls) != 0 {
					t.Error("invalid password should not reach the backend")
				}
				doc := testutil.ParseHTML(t, rec.Body.String())
				if v, has := doc.Find(`input[name="password"]`).Attr("value"); has && v != "" {
					t.Error("password must not be echoed")
				}
				return
			}
			if len(calls) != 1 {
				t.Fatalf("password calls = %d", len(calls))
			}
			var body models.PasswordChange
			calls[0].JSON(t, &body)
			if body.Password != tt.password || body.PasswordConfirmation != tt.confirm {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	fb := testutil.NewFakeBackend(t).On(http.MethodDelete, "/users/2", 200, `{"status":true}`)
	h := newRouter(t, fb)

	rec := serve(h, testutil.NewFormRequest("/2/delete", url.Values{}))
	rec.AssertRedirect(t, "/users?notice=deleted")
	if len(fb.CallsTo(http.MethodDelete, "/users/2")) != 1 {
		t.Error("delete not sent")
	}
}

func TestDelete_SelfRefused(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	h := newRouter(t, fb)

	rec := serve(h, testutil.NewFormRequest("/1/delete", url.Values{}))
	rec.AssertStatus(t, http.StatusForbidden)
	if len(fb.Calls()) != 0 {
		t.Error("self delete reached the backend")
	}
}

func TestList_UnauthorizedSignsOut(t *testing.T) {
	fb := testutil.NewFakeBackend(t).On(http.MethodGet, "/users", 401, `{"message":"Unauthenticated."}`)
	h := newRouter(t, fb)

	req := testutil.NewSignedInRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	rec := serve(h, req)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d", rec.Code)
	}
}
