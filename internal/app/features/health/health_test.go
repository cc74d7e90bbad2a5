package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/seoadmin/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type downBackend struct{}

func (downBackend) Ping(context.Context) error { return errors.New("dial tcp: connection refused") }

func TestHandler_Check(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	h := NewHandler(fb.Client(t), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Check(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Check() status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("response status = %q, want %q", resp.Status, "ok")
	}
	if resp.Services["backend"] != "ok" {
		t.Errorf("backend status = %q, want %q", resp.Services["backend"], "ok")
	}
}

func TestHandler_CheckDegraded(t *testing.T) {
	h := NewHandler(downBackend{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Check() status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "degraded" || resp.Services["backend"] != "unavailable" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		backend    Pinger
		wantStatus int
		wantBody   string
	}{
		{name: "reachable", wantStatus: http.StatusOK, wantBody: `{"status":"ready"}`},
		{name: "unreachable", backend: downBackend{}, wantStatus: http.StatusServiceUnavailable, wantBody: `{"status":"not ready"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.backend
			if b == nil {
				b = testutil.NewFakeBackend(t).Client(t)
			}
			h := NewHandler(b, zap.NewNop())

			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("Ready() status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if body := strings.TrimSpace(rec.Body.String()); body != tt.wantBody {
				t.Errorf("Ready() body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestHandler_Live(t *testing.T) {
	// Live never touches the backend.
	h := NewHandler(nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	rec := httptest.NewRecorder()

	h.Live(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Live() status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := strings.TrimSpace(rec.Body.String())
	if body != `{"status":"alive"}` {
		t.Errorf("Live() body = %q, want %q", body, `{"status":"alive"}`)
	}
}

func TestRoutes(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	router := Routes(NewHandler(fb.Client(t), zap.NewNop()))

	for _, path := range []string{"/", "/ready", "/live"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestMountRootEndpoints(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	h := NewHandler(fb.Client(t), zap.NewNop())
	r := chi.NewRouter()
	MountRootEndpoints(r, h)

	for _, path := range []string{"/ready", "/readyz", "/livez"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("%s status = %d, want %d", path, rec.Code, http.StatusOK)
			}
		})
	}
}
