package dashboard

import (
	"context"
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/seoadmin/internal/app/features/errors"
	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/viewdata"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// API is the backend call behind the dashboard.
type API interface {
	Dashboard(ctx context.Context, creds backend.Credentials) (*models.Dashboard, error)
}

// Handler provides dashboard handlers.
type Handler struct {
	api        API
	sessionMgr *auth.SessionManager
	errLog     *errorsfeature.ErrorLogger
	logger     *zap.Logger
}

// NewHandler creates a new dashboard Handler.
func NewHandler(api API, sessionMgr *auth.SessionManager, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{api: api, sessionMgr: sessionMgr, errLog: errLog, logger: logger}
}

// DashboardVM is the view model for the dashboard.
type DashboardVM struct {
	viewdata.BaseVM
	Stats  models.Dashboard
	Recent []recentRow
	Error  string
}

type recentRow struct {
	models.RecentPageInfo
	EditURL string
	Kind    string
}

// Routes returns a chi.Router with dashboard routes mounted.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireSignedIn)
	r.Get("/", h.show)
	return r
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	vm := DashboardVM{BaseVM: viewdata.NewBaseVM(r, "Dashboard", "/")}

	stats, err := h.api.Dashboard(r.Context(), auth.Credentials(r))
	if err != nil {
		if h.sessionMgr.ExpireOnUnauthorized(w, r, err) {
			return
		}
		h.errLog.Backend(r, "load dashboard", err)
		vm.Error = backend.UserMessage(err, "Could not load the dashboard figures.")
		templates.Render(w, r, "dashboard/index", vm)
		return
	}

	vm.Stats = *stats
	for _, p := range stats.RecentSEOPages {
		pt := p.PageType
		if !pt.Valid() {
			pt = models.PageTypeSEO
		}
		vm.Recent = append(vm.Recent, recentRow{
			RecentPageInfo: p,
			EditURL:        pagePath(pt, p.ID) + "/edit",
			Kind:           pt.Label(),
		})
	}
	templates.Render(w, r, "dashboard/index", vm)
}

func pagePath(pt models.PageType, id int64) string {
	return pt.BasePath() + "/" + strconv.FormatInt(id, 10)
}
