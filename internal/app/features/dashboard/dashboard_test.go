package dashboard

import (
	"net/http"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/seoadmin/internal/app/features/errors"
	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T, fb *testutil.FakeBackend) *Handler {
	t.Helper()
	testutil.MustBootTemplates(t)
	sm, err := auth.NewSessionManager("this-is-a-32-character-long-key!", "", "", time.Hour, 0, false, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return NewHandler(fb.Client(t), sm, errorsfeature.NewErrorLogger(zap.NewNop()), zap.NewNop())
}

func TestShow_RendersMetrics(t *testing.T) {
	fb := testutil.NewFakeBackend(t).On(http.MethodGet, "/dashboard-data", 200, `{
		"status": true,
		"data": {
			"user_count": 12,
			"seo_page_count": 34,
			"recent_seo_pages": [
				{"id": 5, "title": "Roof Repair", "slug": "roof-repair", "page_type": 1, "seo_status": 1},
				{"id": 6, "title": "Property Care", "slug": "property-care", "page_type": 2, "seo_status": 0}
			]
		}
	}`)
	h := newHandler(t, fb)

	rec := testutil.NewRecorder()
	h.show(rec, testutil.NewSignedInRequest(http.MethodGet, "/", nil))
	rec.AssertStatus(t, http.StatusOK)

	doc := testutil.ParseHTML(t, rec.Body.String())
	if got := doc.Find(`[data-stat="users"] strong`).Text(); got != "12" {
		t.Errorf("user count = %q", got)
	}
	if got := doc.Find(`[data-stat="seo-pages"] strong`).Text(); got != "34" {
		t.Errorf("page count = %q", got)
	}
	links := doc.Find("#recent-pages tbody a")
	if links.Length() != 2 {
		t.Fatalf("recent rows = %d", links.Length())
	}
	if href, _ := links.Eq(0).Attr("href"); href != "/seo-pages/5/edit" {
		t.Errorf("first link = %q", href)
	}

	calls := fb.CallsTo(http.MethodGet, "/dashboard-data")
	if len(calls) != 1 || calls[0].Auth != "Bearer "+testutil.TestToken || calls[0].DomainKey != "test-domain" {
		t.Errorf("unexpected backend calls %+v", calls)
	}
}

func TestShow_BackendFailureShowsError(t *testing.T) {
	fb := testutil.NewFakeBackend(t).On(http.MethodGet, "/dashboard-data", 500, `{"message":"Server Error"}`)
	h := newHandler(t, fb)

	rec := testutil.NewRecorder()
	h.show(rec, testutil.NewSignedInRequest(http.MethodGet, "/", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Server Error")
}

func TestShow_BackendUnauthorizedSignsOut(t *testing.T) {
	fb := testutil.NewFakeBackend(t).On(http.MethodGet, "/dashboard-data", 401, `{"message":"Unauthenticated."}`)
	h := newHandler(t, fb)

	req := testutil.NewSignedInRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	rec := testutil.NewRecorder()
	h.show(rec, req)
	rec.AssertRedirect(t, "/signin?redirect=%2F")
}

func TestRoutes_RequiresSignIn(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	h := newHandler(t, fb)

	req := testutil.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	rec := testutil.NewRecorder()
	Routes(h, h.sessionMgr).ServeHTTP(rec, req)

	rec.AssertRedirect(t, "/signin?redirect=%2F")
	if len(fb.Calls()) != 0 {
		t.Error("backend should not be called for anonymous users")
	}
}
