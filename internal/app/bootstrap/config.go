// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/app/system/timeouts"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "SEOADMIN"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: api_base_url, session_name, etc.
//   - Environment variables: SEOADMIN_API_BASE_URL, SEOADMIN_DOMAIN_KEY, etc.
//   - Command-line flags: --api_base_url, --domain_key, etc.
var appConfigKeys = []config.AppKey{
	// Backend API
	{Name: "api_base_url", Default: "http://localhost:8000/api", Desc: "Base URL of the backend REST API (including /api)"},
	{Name: "domain_key", Default: "", Desc: "Domain key sent with every backend request (required in production)"},
	{Name: "backend_timeout", Default: "10s", Desc: "Timeout for a single backend call (e.g., 10s, 30s)"},
	{Name: "upload_timeout", Default: "60s", Desc: "Timeout for backend uploads"},
	{Name: "probe_interval", Default: "1m", Desc: "Backend reachability probe interval"},
	{Name: "cert_warn_within", Default: "336h", Desc: "Warn when the backend TLS certificate expires within this window"},

	// Sessions
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "seoadmin-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie max age (e.g., 24h, 720h, 30m)"},
	{Name: "token_validity", Default: "24h", Desc: "How long a backend token is trusted after sign-in"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},

	// Presentation
	{Name: "site_name", Default: models.DefaultSiteName, Desc: "Name shown in the header"},
	{Name: "page_size", Default: 0, Desc: "Rows per page requested from list endpoints (0 lets the backend decide)"},
	{Name: "static_dir", Default: "", Desc: "Directory served under /static (blank disables)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, SEOADMIN_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		APIBaseURL:     strings.TrimSpace(appValues.String("api_base_url")),
		DomainKey:      strings.TrimSpace(appValues.String("domain_key")),
		BackendTimeout: appValues.Duration("backend_timeout", timeouts.DefaultCall),
		UploadTimeout:  appValues.Duration("upload_timeout", timeouts.DefaultUpload),
		ProbeInterval:  appValues.Duration("probe_interval", time.Minute),
		CertWarnWithin: appValues.Duration("cert_warn_within", 14*24*time.Hour),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),
		TokenValidity: appValues.Duration("token_validity", auth.DefaultTokenValidity),

		CSRFKey: appValues.String("csrf_key"),

		SiteName:  appValues.String("site_name"),
		PageSize:  appValues.Int("page_size"),
		StaticDir: strings.TrimSpace(appValues.String("static_dir")),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Session key strength is checked when the session manager is built.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := validateBaseURL(appCfg.APIBaseURL); err != nil {
		logger.Error("invalid backend URL", zap.String("api_base_url", appCfg.APIBaseURL), zap.Error(err))
		return err
	}

	prod := coreCfg.Env == "prod"
	if appCfg.DomainKey == "" {
		if prod {
			return errors.New("domain_key is required in production")
		}
		logger.Warn("domain_key is empty; the backend may reject requests")
	}
	if prod && len(appCfg.CSRFKey) < 32 {
		return errors.New("csrf_key must be at least 32 characters in production")
	}
	if appCfg.PageSize < 0 {
		return fmt.Errorf("page_size must not be negative, got %d", appCfg.PageSize)
	}
	if appCfg.BackendTimeout <= 0 || appCfg.UploadTimeout <= 0 {
		return errors.New("backend_timeout and upload_timeout must be positive")
	}

	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return errors.New("api_base_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("api_base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_base_url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("api_base_url has no host")
	}
	return nil
}
