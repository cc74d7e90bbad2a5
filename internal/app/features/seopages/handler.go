// Package seopages lists, creates, edits and deletes managed pages. One
// Handler serves one page type; bootstrap mounts an SEO-page instance at
// /seo-pages and a management-service instance at /management-services.
package seopages

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	errorsfeature "github.com/dalemusser/seoadmin/internal/app/features/errors"
	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// API is the part of the backend client used for pages.
type API interface {
	Pages(ctx context.Context, creds backend.Credentials, f models.PageFilter) (*models.PageList, error)
	Page(ctx context.Context, creds backend.Credentials, id int64) (*models.Page, error)
	CreatePage(ctx context.Context, creds backend.Credentials, in models.PageInput) (*models.Page, error)
	UpdatePage(ctx context.Context, creds backend.Credentials, id int64, in models.PageInput) (*models.Page, error)
	DeletePage(ctx context.Context, creds backend.Credentials, id int64, pt models.PageType) error
	ChangePageStatus(ctx context.Context, creds backend.Credentials, id int64, on bool) error
	ParentPages(ctx context.Context, creds backend.Credentials, pt models.PageType) ([]models.ParentPage, error)
}

// Handler serves the pages of one page type.
type Handler struct {
	api        API
	pageType   models.PageType
	sessionMgr *auth.SessionManager
	errLog     *errorsfeature.ErrorLogger
	errPages   *errorsfeature.Handler
	logger     *zap.Logger
	perPage    int
}

// NewHandler creates a Handler for pages of type pt.
func NewHandler(api API, pt models.PageType, sessionMgr *auth.SessionManager, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		api:        api,
		pageType:   pt,
		sessionMgr: sessionMgr,
		errLog:     errLog,
		errPages:   errorsfeature.NewHandler(),
		logger:     logger.With(zap.Int("page_type", int(pt))),
	}
}

// SetPageSize sets the rows per page requested from the backend. Zero leaves
// the choice to the backend.
func (h *Handler) SetPageSize(n int) {
	if n < 0 {
		n = 0
	}
	h.perPage = n
}

// Routes mounts the page routes. sections, when non-nil, is mounted at
// /{id}/sections.
func Routes(h *Handler, sessionMgr *auth.SessionManager, sections http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireSignedIn)

	r.Get("/", h.list)
	r.Get("/new", h.showNew)
	r.Post("/new", h.create)
	r.Get("/{id}/edit", h.showEdit)
	r.Post("/{id}", h.update)
	r.Get("/{id}/delete", h.confirmDelete)
	r.Post("/{id}/delete", h.delete)
	r.Post("/{id}/status", h.toggleStatus)

	if sections != nil {
		r.Mount("/{id}/sections", sections)
	}
	return r
}

func (h *Handler) base() string { return h.pageType.BasePath() }

func (h *Handler) pageURL(id int64, suffix string) string {
	return h.base() + "/" + strconv.FormatInt(id, 10) + suffix
}

// pageID reads the {id} route parameter; ok is false unless it is a
// positive integer.
func pageID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// localReturn keeps return targets inside this handler's path space.
func (h *Handler) localReturn(raw string) string {
	if raw == h.base() || strings.HasPrefix(raw, h.base()+"?") || strings.HasPrefix(raw, h.base()+"/") {
		if !strings.Contains(raw, "//") {
			return raw
		}
	}
	return h.base()
}

// failed handles a backend error for a full-page request. It reports true
// when the session was expired and a redirect already written.
func (h *Handler) failed(w http.ResponseWriter, r *http.Request, msg string, err error) bool {
	if h.sessionMgr.ExpireOnUnauthorized(w, r, err) {
		return true
	}
	h.errLog.Backend(r, msg, err)
	return false
}

func withNotice(target, notice string) string {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + "notice=" + notice
}
