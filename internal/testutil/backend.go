package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"go.uber.org/zap"
)

// Call is one request received by a FakeBackend.
type Call struct {
	Method      string
	Path        string // relative to /api, e.g. /seo-pages/3
	Query       string
	Body        string
	ContentType string
	Auth        string
	DomainKey   string
}

// JSON decodes the call body into v.
func (c Call) JSON(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(c.Body), v); err != nil {
		t.Fatalf("decode %s %s body %q: %v", c.Method, c.Path, c.Body, err)
	}
}

// Reply is a canned backend answer.
type Reply struct {
	Status int
	Body   string
}

// FakeBackend is an httptest server standing in for the REST backend. Routes
// are keyed by "METHOD /path" (path without the /api prefix). Unknown routes
// answer 404.
type FakeBackend struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]Reply
	calls  []Call
}

// NewFakeBackend starts a FakeBackend that is closed with the test.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{routes: map[string]Reply{}}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.Close)
	return fb
}

// On registers a reply for method and path.
func (fb *FakeBackend) On(method, path string, status int, body string) *FakeBackend {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.routes[method+" "+path] = Reply{Status: status, Body: body}
	return fb
}

// Calls returns a copy of every request received so far.
func (fb *FakeBackend) Calls() []Call {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]Call(nil), fb.calls...)
}

// CallsTo returns the requests received for method and path.
func (fb *FakeBackend) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range fb.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Client returns a backend client pointed at the fake.
func (fb *FakeBackend) Client(t testing.TB) *backend.Client {
	t.Helper()
	c, err := backend.New(fb.URL+"/api", "test-domain", fb.Server.Client(), zap.NewNop())
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	return c
}

func (fb *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, "/api")

	fb.mu.Lock()
	fb.calls = append(fb.calls, Call{
		Method:      r.Method,
		Path:        path,
		Query:       r.URL.RawQuery,
		Body:        string(body),
		ContentType: r.Header.Get("Content-Type"),
		Auth:        r.Header.Get("Authorization"),
		DomainKey:   r.Header.Get(backend.DomainKeyHeader),
	})
	reply, ok := fb.routes[r.Method+" "+path]
	fb.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Not found."}`)
		return
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply.Body)
}
