// Package signin exchanges staff credentials for a backend token and records
// it in the session.
package signin

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	errorsfeature "github.com/dalemusser/seoadmin/internal/app/features/errors"
	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/formutil"
	"github.com/dalemusser/seoadmin/internal/app/system/inputval"
	"github.com/dalemusser/seoadmin/internal/app/system/network"
	"github.com/dalemusser/seoadmin/internal/app/system/normalize"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Authenticator is the backend call used to sign in.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
}

// Handler provides sign-in handlers.
type Handler struct {
	api        Authenticator
	sessionMgr *auth.SessionManager
	errLog     *errorsfeature.ErrorLogger
	logger     *zap.Logger
}

// NewHandler creates a sign-in Handler.
func NewHandler(api Authenticator, sessionMgr *auth.SessionManager, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{api: api, sessionMgr: sessionMgr, errLog: errLog, logger: logger}
}

// Routes mounts the sign-in form. Signed-in users are sent to the dashboard.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RedirectIfSignedIn)
	r.Get("/", h.show)
	r.Post("/", h.submit)
	return r
}

type signinVM struct {
	formutil.Base
	Email    string
	Redirect string
}

type credentials struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

const failedMessage = "Invalid email or password"

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	vm := signinVM{
		Base:     formutil.NewBase(r, "Sign in", "/"),
		Redirect: SafeRedirect(query.Get(r, "redirect")),
	}
	templates.Render(w, r, "signin/form", vm)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	in := credentials{
		Email:    normalize.Email(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	vm := signinVM{
		Base:     formutil.NewBase(r, "Sign in", "/"),
		Email:    in.Email,
		Redirect: SafeRedirect(r.PostFormValue("redirect")),
	}

	if res := inputval.Validate(in); res.HasErrors() {
		vm.ApplyValidation(res)
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "signin/form", vm)
		return
	}

	result, err := h.api.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			h.logger.Info("sign-in refused",
				zap.Int("status", apiErr.StatusCode),
				zap.String("ip", network.ClientIP(r)))
			vm.ApplyError(err, failedMessage, "email", "password")
			w.WriteHeader(http.StatusUnauthorized)
		} else {
			h.errLog.Backend(r, "sign-in request failed", err)
			vm.SetError("Could not reach the server. Please try again.")
			w.WriteHeader(http.StatusBadGateway)
		}
		vm.Focus = "password"
		templates.Render(w, r, "signin/form", vm)
		return
	}

	if err := h.sessionMgr.CreateSession(w, r, result); err != nil {
		h.errLog.Log(r, "failed to save session", err)
		vm.SetError("Could not start your session. Please try again.")
		w.WriteHeader(http.StatusInternalServerError)
		templates.Render(w, r, "signin/form", vm)
		return
	}

	h.logger.Info("user signed in", zap.Int64("user_id", result.User.ID))
	target := vm.Redirect
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// SafeRedirect keeps only same-site absolute paths. Anything else, including
// scheme-relative "//host" forms, becomes "".
func SafeRedirect(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	if u.Path == auth.SignInPath {
		return ""
	}
	return raw
}
