package logout

import (
	"net/http"

	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler provides logout handlers.
type Handler struct {
	sessionMgr *auth.SessionManager
	logger     *zap.Logger
}

// NewHandler creates a new logout Handler.
func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{sessionMgr: sessionMgr, logger: logger}
}

// Routes mounts the logout endpoint. The backend token is simply dropped;
// the backend has no revoke call.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.handleLogout)
	r.Get("/", h.handleLogout)
	return r
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.logger.Info("user signed out", zap.Int64("user_id", u.ID))
	}
	h.sessionMgr.DestroySession(w, r)
	http.Redirect(w, r, auth.SignInPath, http.StatusSeeOther)
}
