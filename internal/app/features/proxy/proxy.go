// Package proxy exposes same-origin endpoints that relay browser script calls
// to the backend with the session's bearer token and the domain key attached.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/jsonutil"
	"github.com/dalemusser/seoadmin/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MaxUpload caps multipart bodies streamed through formPost.
const MaxUpload = 16 << 20

// Forwarder is the part of the backend client the proxy needs.
type Forwarder interface {
	Forward(ctx context.Context, creds backend.Credentials, method, endpoint string, query url.Values, body io.Reader, contentType string) (*http.Response, error)
}

// Handler relays requests to the backend.
type Handler struct {
	fwd    Forwarder
	logger *zap.Logger
}

// NewHandler creates a proxy Handler.
func NewHandler(fwd Forwarder, logger *zap.Logger) *Handler {
	return &Handler{fwd: fwd, logger: logger}
}

// Routes returns a chi.Router with the proxy endpoints mounted. The routes sit
// outside CSRF protection and rely on the session cookie instead.
func Routes(h *Handler, sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/get/*", h.get)
	r.Post("/post/*", h.unwrapped(http.MethodPost))
	r.Put("/put/*", h.unwrapped(http.MethodPut))
	r.Post("/formPost/*", h.formPost)
	r.Delete("/delete/*", h.delete)
	return r
}

var errBadEndpoint = errors.New("invalid endpoint")

// endpoint returns the backend path named by the wildcard.
func endpoint(r *http.Request) (string, error) {
	p, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		return "", errBadEndpoint
	}
	p = strings.Trim(p, "/")
	if p == "" {
		return "", errBadEndpoint
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", errBadEndpoint
		}
	}
	return "/" + p, nil
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, http.MethodGet, r.URL.Query(), nil, "")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, http.MethodDelete, r.URL.Query(), nil, "")
}

// unwrapped forwards the JSON body with its outer {payload: X} envelope
// removed.
func (h *Handler) unwrapped(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, jsonutil.MaxBody))
		if err != nil {
			jsonutil.BadRequest(w, "Could not read request body.")
			return
		}
		body, err := Unwrap(raw)
		if err != nil {
			jsonutil.BadRequest(w, "Request body must be JSON.")
			return
		}
		var rd io.Reader
		ct := ""
		if body != nil {
			rd = bytes.NewReader(body)
			ct = "application/json"
		}
		h.relay(w, r, method, nil, rd, ct)
	}
}

func (h *Handler) formPost(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		jsonutil.BadRequest(w, "Expected a multipart form.")
		return
	}
	body := http.MaxBytesReader(w, r.Body, MaxUpload)
	h.relay(w, r, http.MethodPost, nil, body, ct)
}

// Unwrap removes one level of {payload: X} from a JSON body. A string payload
// holding JSON is parsed; any other string is sent as a JSON string. A body
// without a payload key is returned unchanged, and an empty body yields nil.
func Unwrap(raw []byte) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, errors.New("proxy: body is not JSON")
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw, nil
	}
	payload, ok := env["payload"]
	if !ok {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		if inner := bytes.TrimSpace([]byte(s)); json.Valid(inner) {
			return inner, nil
		}
	}
	return payload, nil
}

func (h *Handler) relay(w http.ResponseWriter, r *http.Request, method string, query url.Values, body io.Reader, contentType string) {
	ep, err := endpoint(r)
	if err != nil {
		jsonutil.BadRequest(w, "Invalid endpoint.")
		return
	}
	limit := timeouts.Call()
	if strings.HasPrefix(contentType, "multipart/") {
		limit = timeouts.Upload()
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), limit, h.logger, "proxy "+method+" "+ep)
	defer cancel()

	resp, err := h.fwd.Forward(ctx, auth.Credentials(r), method, ep, query, body, contentType)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonutil.Message(w, http.StatusRequestEntityTooLarge, "Upload is too large.")
			return
		}
		h.logger.Warn("proxy request failed",
			zap.String("method", method),
			zap.String("endpoint", ep),
			zap.Error(err))
		jsonutil.ServerError(w, err.Error())
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Debug("proxy response copy interrupted", zap.String("endpoint", ep), zap.Error(err))
	}
}
