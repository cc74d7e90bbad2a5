// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"
	"time"

	dashboardfeature "github.com/dalemusser/seoadmin/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/seoadmin/internal/app/features/errors"
	healthfeature "github.com/dalemusser/seoadmin/internal/app/features/health"
	logoutfeature "github.com/dalemusser/seoadmin/internal/app/features/logout"
	proxyfeature "github.com/dalemusser/seoadmin/internal/app/features/proxy"
	sectionsfeature "github.com/dalemusser/seoadmin/internal/app/features/sections"
	seopagesfeature "github.com/dalemusser/seoadmin/internal/app/features/seopages"
	signinfeature "github.com/dalemusser/seoadmin/internal/app/features/signin"
	usersfeature "github.com/dalemusser/seoadmin/internal/app/features/users"
	appresources "github.com/dalemusser/seoadmin/internal/app/resources"
	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// apiPrefix is where the browser-script proxy lives. It is exempt from CSRF
// checks and guarded by the session instead.
const apiPrefix = "/api/"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, backend setup and Startup have
// completed. Form routes get session + CSRF; /api/* proxy routes get session
// only.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps BackendDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, appCfg.TokenValidity, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()
	api := deps.API

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	// Uploads forward to the backend under their own, longer timeout.
	r.Use(chimw.Timeout(appCfg.UploadTimeout + 5*time.Second))

	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Session middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	r.Use(csrfMiddleware(appCfg, secure, logger))

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(api, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// /assets/* serves embedded assets (bundled into the binary)
	r.Handle("/assets/*", appresources.AssetsHandler("/assets"))

	// /static/* serves files from disk with pre-compressed variants, when configured
	if appCfg.StaticDir != "" {
		r.Handle("/static/*", fileserver.Handler("/static", appCfg.StaticDir))
	}

	// Authentication
	signinHandler := signinfeature.NewHandler(api, sessionMgr, errLog, logger)
	r.Mount("/signin", signinfeature.Routes(signinHandler, sessionMgr))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Dashboard
	dashboardHandler := dashboardfeature.NewHandler(api, sessionMgr, errLog, logger)
	r.Handle("/", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Page lists, page forms and section editors, one tree per page type
	for _, pt := range []models.PageType{models.PageTypeSEO, models.PageTypeManagementService} {
		sectionsHandler := sectionsfeature.NewHandler(api, pt, sessionMgr, errLog, logger)
		pagesHandler := seopagesfeature.NewHandler(api, pt, sessionMgr, errLog, logger)
		pagesHandler.SetPageSize(appCfg.PageSize)
		r.Mount(pt.BasePath(), seopagesfeature.Routes(pagesHandler, sessionMgr, sectionsfeature.Routes(sectionsHandler)))
	}

	// Staff users
	usersHandler := usersfeature.NewHandler(api, sessionMgr, errLog, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	// Same-origin proxy for browser scripts
	proxyHandler := proxyfeature.NewHandler(api, logger)
	r.Mount(strings.TrimSuffix(apiPrefix, "/"), proxyfeature.Routes(proxyHandler, sessionMgr))

	// Error pages
	r.Get("/forbidden", errorsHandler.Forbidden)

	// 404 catch-all for unmatched routes
	r.NotFound(errorsHandler.NotFound)

	return r, nil
}

// csrfMiddleware protects form routes with gorilla/csrf and lets /api/*
// through untouched.
func csrfMiddleware(appCfg AppConfig, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("seoadmin_csrf"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			if req.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", auth.SignInPath)
				w.WriteHeader(http.StatusForbidden)
				return
			}
			http.Error(w, "Your form expired. Go back, reload the page and try again.", http.StatusForbidden)
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	protect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasPrefix(req.URL.Path, apiPrefix) {
				next.ServeHTTP(w, req)
				return
			}
			if !secure {
				req = csrf.PlaintextHTTPRequest(req)
			}
			protected.ServeHTTP(w, req)
		})
	}
}
