// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits); AppConfig
// covers the backend this dashboard fronts and the browser session.
type AppConfig struct {
	// Backend API
	APIBaseURL     string        // Base URL of the REST API, including its /api prefix
	DomainKey      string        // Static key sent as the domainkey header on every call
	BackendTimeout time.Duration // Bound on a single JSON call (default: 10s)
	UploadTimeout  time.Duration // Bound on multipart uploads (default: 60s)
	ProbeInterval  time.Duration // How often the backend reachability probe runs (default: 1m)
	CertWarnWithin time.Duration // Warn when the backend certificate expires within this window (default: 336h)

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: seoadmin-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Maximum session cookie lifetime (default: 24h)
	TokenValidity time.Duration // How long a backend token is trusted after sign-in (default: 24h)

	// CSRF protection configuration
	CSRFKey string // Secret key for CSRF token signing (32 bytes, must be strong in production)

	// Presentation
	SiteName  string // Name shown in the header and page titles
	PageSize  int    // Rows per page requested from list endpoints
	StaticDir string // Optional directory served under /static (blank disables it)
}
