// Package sections is the content-section editor mounted under a page:
// /seo-pages/{id}/sections and /management-services/{id}/sections.
//
// Every section is loaded concurrently with the page record and saved on its
// own form. A section that fails to load still renders, with its error and
// empty defaults, and refuses to save until it has been reloaded.
package sections

import (
	"context"
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/seoadmin/internal/app/features/errors"
	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	sectionsys "github.com/dalemusser/seoadmin/internal/app/system/sections"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// API is the part of the backend client used by the editor.
type API interface {
	Page(ctx context.Context, creds backend.Credentials, id int64) (*models.Page, error)
	PatchMeta(ctx context.Context, creds backend.Credentials, id int64, patch models.MetaPatch) error
	FetchSection(ctx context.Context, creds backend.Credentials, kind models.SectionKind, pageID int64) (any, error)
	SendSection(ctx context.Context, creds backend.Credentials, sr backend.SectionRequest) (any, error)
}

// Handler serves the section editor for one page type.
type Handler struct {
	api        API
	pageType   models.PageType
	sessionMgr *auth.SessionManager
	errLog     *errorsfeature.ErrorLogger
	errPages   *errorsfeature.Handler
	logger     *zap.Logger
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

// Routes returns the editor router. It expects an {id} URL parameter from
// the router it is mounted under, which also enforces sign-in.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.show)
	r.Post("/meta", h.saveSlot)
	r.Post("/{kind}", h.save)
	return r
}

func pageID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) editorURL(id int64) string {
	return h.pageType.BasePath() + "/" + strconv.FormatInt(id, 10) + "/sections"
}

// allowed reports whether kind is edited on this page type.
func (h *Handler) allowed(kind models.SectionKind) bool {
	for _, k := range models.SectionsFor(h.pageType) {
		if k == kind {
			return true
		}
	}
	return false
}

// load fetches the page and every section of this page type in one fan-out.
// Only a failure of the page fetch is returned.
func (h *Handler) load(r *http.Request, id int64) (*models.Page, *sectionsys.Snapshot, error) {
	creds := auth.Credentials(r)
	var page *models.Page
	snap, err := sectionsys.Load(r.Context(), h.api, creds, id, models.SectionsFor(h.pageType),
		func(ctx context.Context) error {
			p, err := h.api.Page(ctx, creds, id)
			page = p
			return err
		})
	if err != nil {
		return nil, nil, err
	}
	for kind, ferr := range snap.Errors {
		h.errLog.LogWithFields(r, "load section", ferr, zap.String("section", string(kind)), zap.Int64("page_id", id))
	}
	return page, snap, nil
}

// loadFailed writes the response for a failed page fetch.
func (h *Handler) loadFailed(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case h.sessionMgr.ExpireOnUnauthorized(w, r, err):
	case backend.IsNotFound(err):
		h.errPages.NotFound(w, r)
	default:
		h.errLog.Backend(r, "load page for sections", err)
		h.errPages.InternalError(w, r)
	}
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := pageID(r)
	if !ok {
		h.errPages.NotFound(w, r)
		return
	}
	page, snap, err := h.load(r, id)
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}
	if page.PageType.Valid() && page.PageType != h.pageType {
		http.Redirect(w, r, page.PageType.BasePath()+"/"+strconv.FormatInt(id, 10)+"/sections", http.StatusSeeOther)
		return
	}
	vm := h.newEditorVM(r, id, page, snap)
	if kind, carried, ok := carriedState(r); ok {
		if p := vm.panel(kind); p != nil {
			fetched, _ := snap.State(kind).ID()
			p.State = carried.Fetched(fetched).FormValue()
		}
	}
	h.render(w, r, http.StatusOK, vm)
}
