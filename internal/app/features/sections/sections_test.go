package sections

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	errorsfeature "github.com/dalemusser/seoadmin/internal/app/features/errors"
	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/seoadmin/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, fb *testutil.FakeBackend, pt models.PageType) http.Handler {
	t.Helper()
	testutil.MustBootTemplates(t)
	sm, err := auth.NewSessionManager("this-is-a-32-character-long-key!", "", "", time.Hour, 0, false, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(fb.Client(t), pt, sm, errorsfeature.NewErrorLogger(zap.NewNop()), zap.NewNop())
	r := chi.NewRouter()
	r.Mount(pt.BasePath()+"/{id}/sections", Routes(h))
	return r
}

func serve(h http.Handler, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const pageJSON = `{"status":true,"data":{"id":3,"title":"Property Care","slug":"property-care","page_type":2,"meta":{"page_content_5":"extra copy"}}}`

func TestShow_LoadsSectionsForPageType(t *testing.T) {
	fb := testutil.NewFakeBackend(t).
		On(http.MethodGet, "/seo-pages/3", 200, pageJSON).
		On(http.MethodGet, "/components/whychoose/page/3", 200, `{"status":true,"data":[{"id":11,"title":"Why us","points":["Fast","Local"]}]}`).
		On(http.MethodGet, "/components/services/page/3", 200, `{"status":true,"data":[{"id":12,"title":"Cleaning","description":"<p>Weekly</p>"}]}`).
		On(http.MethodGet, "/components/faq/page/3", 500, `{"message":"Server Error"}`)
	h := newRouter(t, fb, models.PageTypeManagementService)

	rec := serve(h, testutil.NewSignedInRequest(http.MethodGet, "/management-services/3/sections", nil))
	rec.AssertStatus(t, http.StatusOK)

	if n := len(fb.Calls()); n != 5 {
		t.Errorf("backend calls = %d, want 5", n)
	}
	if len(fb.CallsTo(http.MethodGet, "/components/herosection/page/3")) != 0 {
		t.Error("management pages have no hero section")
	}

	doc := testutil.ParseHTML(t, rec.Body.String())
	if doc.Find(".section-panel").Length() != 4 {
		t.Fatalf("panels = %d", doc.Find(".section-panel").Length())
	}
	state := func(kind string) string {
		v, _ := doc.Find("#section-" + kind + ` input[name="section_id"]`).Attr("value")
		return v
	}
	if got := state("whychoose"); got != "11" {
		t.Errorf("whychoose state = %q", got)
	}
	if got := state("aboutus"); got != "" {
		t.Errorf("aboutus state = %q", got)
	}
	if got := state("faq"); got != "unknown" {
		t.Errorf("failed faq state = %q", got)
	}
	if doc.Find("#section-faq .load-error").Length() != 1 {
		t.Error("faq load error not shown")
	}
	if doc.Find("#section-whychoose .load-error").Length() != 0 {
		t.Error("a failed section must not affect the others")
	}
	if got := testutil.InputValue(doc, "services[0][title]"); got != "Cleaning" {
		t.Errorf("service title = %q", got)
	}
	if doc.Find(`#section-whychoose .repeat > .repeat-row > input[name="points[]"]`).Length() != 2 {
		t.Error("points not rendered")
	}
	if got := doc.Find(`#meta-page_content_5 textarea`).Text(); got != "extra copy" {
		t.Errorf("slot = %q", got)
	}
}

func TestShow_PageNotFound(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	h := newRouter(t, fb, models.PageTypeSEO)

	rec := serve(h, testutil.NewSignedInRequest(http.MethodGet, "/seo-pages/3/sections", nil))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestSave_CreateThenUpdate(t *testing.T) {
	// The list read lags the create: the new row is not visible yet.
	fb := testutil.NewFakeBackend(t).
		On(http.MethodGet, "/seo-pages/3", 200, pageJSON).
		On(http.MethodGet, "/components/whychoose/page/3", 200, `{"status":true,"data":[]}`).
		On(http.MethodPost, "/components/whychoose/page/3", 200, `{"status":true,"data":{"id":40}}`).
		On(http.MethodPut, "/components/whychoose/page/3/40", 200, `{"status":true,"data":{"id":40}}`)
	h := newRouter(t, fb, models.PageTypeManagementService)

	form := url.Values{"section_id": {""}, "title": {" Why us "}, "points[]": {"Fast", " ", "Local"}}
	rec := serve(h, testutil.NewFormRequest("/management-services/3/sections/whychoose", form))
	rec.AssertRedirect(t, "/management-services/3/sections?notice=updated&saved=whychoose&section_id=40#section-whychoose")

	calls := fb.CallsTo(http.MethodPost, "/components/whychoose/page/3")
	if len(calls) != 1 {
		t.Fatalf("create calls = %d", len(calls))
	}
	var body struct {
		Title    string   `json:"title"`
		Points   []string `json:"points"`
		PageType int      `json:"page_type"`
	}
	calls[0].JSON(t, &body)
	if body.Title != "Why us" || strings.Join(body.Points, "|") != "Fast|Local" || body.PageType != 2 {
		t.Errorf("payload = %+v", body)
	}

	// Follow the redirect and submit the form as rendered.
	target, _, _ := strings.Cut(rec.Header().Get("Location"), "#")
	rec = serve(h, testutil.NewSignedInRequest(http.MethodGet, target, nil))
	rec.AssertStatus(t, http.StatusOK)
	doc := testutil.ParseHTML(t, rec.Body.String())
	rendered, _ := doc.Find(`#section-whychoose input[name="section_id"]`).Attr("value")
	if rendered != "40" {
		t.Fatalf("section_id after create = %q, want 40", rendered)
	}

	form.Set("section_id", rendered)
	rec = serve(h, testutil.NewFormRequest("/management-services/3/sections/whychoose", form))
	rec.AssertRedirect(t, "/management-services/3/sections?notice=updated&saved=whychoose&section_id=40#section-whychoose")
	if len(fb.CallsTo(http.MethodPut, "/components/whychoose/page/3/40")) != 1 {
		t.Error("second save should update")
	}
	if len(fb.CallsTo(http.MethodPost, "/components/whychoose/page/3")) != 1 {
		t.Error("second save must not create again")
	}
}

func TestShow_CarriedStateIgnoredWithoutID(t *testing.T) {
	fb := testutil.NewFakeBackend(t).
		On(http.MethodGet, "/seo-pages/3", 200, pageJSON)
	h := newRouter(t, fb, models.PageTypeManagementService)

	rec := serve(h, testutil.NewSignedInRequest(http.MethodGet, "/management-services/3/sections?saved=whychoose&section_id=abc", nil))
	rec.AssertStatus(t, http.StatusOK)
	doc := testutil.ParseHTML(t, rec.Body.String())
	if v, _ := doc.Find(`#section-whychoose input[name="section_id"]`).Attr("value"); v != "" {
		t.Errorf("section_id = %q, want blank", v)
	}
}

func TestShow_DuplicateServicesKeepFirstID(t *testing.T) {
	fb := testutil.NewFakeBackend(t).
		On(http.MethodGet, "/seo-pages/3", 200, pageJSON).
		On(http.MethodGet, "/components/services/page/3", 200,
			`{"status":true,"data":[{"id":9,"title":"Cleaning","description":"Weekly"},{"id":9,"title":"Cleaning","description":"Weekly"}]}`)
	h := newRouter(t, fb, models.PageTypeManagementService)

	rec := serve(h, testutil.NewSignedInRequest(http.MethodGet, "/management-services/3/sections", nil))
	rec.AssertStatus(t, http.StatusOK)

	panel := testutil.ParseHTML(t, rec.Body.String()).Find("#section-services")
	if v, _ := panel.Find(`input[name="section_id"]`).Attr("value"); v != "9" {
		t.Errorf("section_id = %q, want 9", v)
	}
	rows := panel.Find(".repeat > .repeat-row")
	if rows.Length() != 2 {
		t.Fatalf("service rows = %d, want 2", rows.Length())
	}
	rows.Each(func(i int, row *goquery.Selection) {
		if v, _ := row.Find("input").Attr("value"); v != "Cleaning" {
			t.Errorf("row %d title = %q", i, v)
		}
	})
}

func TestSave_UnknownStateRefused(t *testing.T) {
	fb := testutil.NewFakeBackend(t).On(http.MethodGet, "/seo-pages/3", 200, pageJSON)
	h := newRouter(t, fb, models.PageTypeManagementService)

	form := url.Values{"section_id": {"unknown"}, "question": {"Q"}}
	rec := serve(h, testutil.NewFormRequest("/management-services/3/sections/faq", form))
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, "Reload the page")

	for _, c := range fb.Calls() {
		if c.Method != http.MethodGet {
			t.Errorf("unexpected write %s %s", c.Method, c.Path)
		}
	}
}

func TestSave_ServicesRowsInOrder(t *testing.T) {
	fb := testutil.NewFakeBackend(t).
		On(http.MethodPut, "/components/services/page/3/12", 200, `{"status":true}`)
	h := newRouter(t, fb, models.PageTypeManagementService)

	form := url.Values{
		"section_id":               {"12"},
		"services[2][title]":       {"Second"},
		"services[2][description]": {""},
		"services[0][title]":       {"First"},
		"services[0][description]": {"<p>one</p>"},
		"services[5][title]":       {" "},
		"services[5][description]": {" "},
		"services[x][title]":       {"ignored"},
	}
	rec := serve(h, testutil.NewFormRequest("/management-services/3/sections/services", form))
	rec.AssertRedirect(t, "/management-services/3/sections?notice=updated&saved=services&section_id=12#section-services")

	var body struct {
		Services []models.ServiceItem `json:"services"`
	}
	fb.CallsTo(http.MethodPut, "/components/services/page/3/12")[0].JSON(t, &body)
	if len(body.Services) != 2 || body.Services[0].Title != "First" || body.Services[1].Title != "Second" {
		t.Errorf("services = %+v", body.Services)
	}
}

func TestSave_BackendFieldErrors(t *testing.T) {
	fb := testutil.NewFakeBackend(t).
		On(http.MethodGet, "/seo-pages/3", 200, pageJSON).
		On(http.MethodPut, "/components/services/page/3/12", 422,
			`{"message":"The given data was invalid.","errors":{"services.0.title":["The title field is required."]}}`)
	h := newRouter(t, fb, models.PageTypeManagementService)

	form := url.Values{
		"section_id":               {"12"},
		"services[0][title]":       {""},
		"services[0][description]": {"Only a description"},
	}
	rec := serve(h, testutil.NewFormRequest("/management-services/3/sections/services", form))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)

	doc := testutil.ParseHTML(t, rec.Body.String())
	panel := doc.Find("#section-services")
	if got := panel.Find(".save-error").Text(); got != "The given data was invalid." {
		t.Errorf("save error = %q", got)
	}
	if got := panel.Find(".field-error").First().Text(); got != "The title field is required." {
		t.Errorf("field error = %q", got)
	}
	if got := panel.Find(`textarea[name="services[0][description]"]`).Text(); got != "Only a description" {
		t.Errorf("submitted value not kept: %q", got)
	}
	if v, _ := panel.Find(`input[name="section_id"]`).Attr("value"); v != "12" {
		t.Errorf("state = %q", v)
	}
}

func multipartRequest(t *testing.T, target string, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(content)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := testutil.NewSignedInRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func TestSave_HeroUploadUsesMethodOverride(t *testing.T) {
	fb := testutil.NewFakeBackend(t).
		On(http.MethodPost, "/components/herosection/page/3/5", 200, `{"status":true,"data":{"id":5}}`)
	h := newRouter(t, fb, models.PageTypeSEO)

	req := multipartRequest(t, "/seo-pages/3/sections/herosection",
		map[string]string{"section_id": "5", "title": "Hello", "sub_title": "World"},
		"Banner.PNG", pngBytes)
	rec := serve(h, req)
	rec.AssertRedirect(t, "/seo-pages/3/sections?notice=updated&saved=herosection&section_id=5#section-herosection")

	calls := fb.CallsTo(http.MethodPost, "/components/herosection/page/3/5")
	if len(calls) != 1 {
		t.Fatalf("hero calls = %d", len(calls))
	}
	c := calls[0]
	if !strings.HasPrefix(c.ContentType, "multipart/form-data") {
		t.Errorf("content type = %q", c.ContentType)
	}
	for _, want := range []string{`name="_method"`, "PUT", `name="title"`, "Hello", `name="image"`, ".png", "image/png"} {
		if !strings.Contains(c.Body, want) {
			t.Errorf("multipart body missing %q", want)
		}
	}
	if strings.Contains(c.Body, "Banner") {
		t.Error("uploaded file should be renamed")
	}
}

func TestSave_HeroRejectsNonImage(t *testing.T) {
	fb := testutil.NewFakeBackend(t).On(http.MethodGet, "/seo-pages/3", 200, `{"status":true,"data":{"id":3,"title":"Roofs","page_type":1}}`)
	h := newRouter(t, fb, models.PageTypeSEO)

	req := multipartRequest(t, "/seo-pages/3/sections/herosection",
		map[string]string{"section_id": "5", "title": "Hello"},
		"notes.txt", []byte("just some text"))
	rec := serve(h, req)
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, "The file must be a PNG, JPEG, GIF or WebP image.")

	doc := testutil.ParseHTML(t, rec.Body.String())
	if got := testutil.InputValue(doc, "sub_title"); got != "" {
		t.Errorf("sub_title = %q", got)
	}
	if got := doc.Find(`#section-herosection input[name="title"]`).AttrOr("value", ""); got != "Hello" {
		t.Errorf("title not kept: %q", got)
	}
	for _, c := range fb.Calls() {
		if strings.HasPrefix(c.Path, "/components/herosection") && c.Method != http.MethodGet {
			t.Error("rejected upload reached the backend")
		}
	}
}

func TestSave_SectionNotOnPageType(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	h := newRouter(t, fb, models.PageTypeManagementService)

	rec := serve(h, testutil.NewFormRequest("/management-services/3/sections/herosection", url.Values{}))
	rec.AssertStatus(t, http.StatusNotFound)
	rec = serve(h, testutil.NewFormRequest("/management-services/3/sections/bogus", url.Values{}))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestSaveSlot(t *testing.T) {
	fb := testutil.NewFakeBackend(t).On(http.MethodPut, "/seo-pages/3", 200, `{"status":true}`)
	h := newRouter(t, fb, models.PageTypeSEO)

	rec := serve(h, testutil.NewFormRequest("/seo-pages/3/sections/meta", url.Values{
		"key":   {"page_content_5"},
		"value": {" new copy "},
	}))
	rec.AssertRedirect(t, "/seo-pages/3/sections?notice=updated#meta-page_content_5")

	var body models.MetaPatch
	fb.CallsTo(http.MethodPut, "/seo-pages/3")[0].JSON(t, &body)
	if body.Meta["page_content_5"] != "new copy" || body.PageType != models.PageTypeSEO || len(body.Meta) != 1 {
		t.Errorf("patch = %+v", body)
	}

	rec = serve(h, testutil.NewFormRequest("/seo-pages/3/sections/meta", url.Values{"key": {"page_content_1"}, "value": {"x"}}))
	rec.AssertStatus(t, http.StatusBadRequest)
}
