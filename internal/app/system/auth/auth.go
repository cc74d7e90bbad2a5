package auth

// The session holds the backend's bearer token and nothing the backend does
// not already own. Keys keep the names the browser cookies used before the
// move to a signed session: auth_token, auth_token_validity, user_name and
// user_token (the backend user id).

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"
)

// Session error classification for logging and monitoring.
type sessionErrorType int

const (
	sessionErrUnknown   sessionErrorType = iota
	sessionErrExpired                    // timestamp expired - normal
	sessionErrTampered                   // MAC invalid - potential attack
	sessionErrCorrupted                  // decode/decrypt failed - corruption or key rotation
	sessionErrBackend                    // store failure
)

const (
	authTokenKey = "auth_token"
	validityKey  = "auth_token_validity" // epoch ms at sign-in
	userNameKey  = "user_name"
	userTokenKey = "user_token"
	userEmailKey = "user_email"
	avatarKey    = "user_avatar"
)

// SignInPath is where unauthenticated browsers are sent.
const SignInPath = "/signin"

// DefaultTokenValidity matches the backend token lifetime.
const DefaultTokenValidity = 24 * time.Hour

// SessionManager wraps the cookie store and the route guards.
type SessionManager struct {
	store    *sessions.CookieStore
	logger   *zap.Logger
	name     string
	validity time.Duration
	now      func() time.Time
}

// NewSessionManager creates a SessionManager.
//
// Parameters:
//   - sessionKey: master secret; hash and block keys are derived from it (≥32 chars in production)
//   - name: session cookie name (defaults to "seoadmin-session")
//   - domain: cookie domain (empty means current host)
//   - maxAge: cookie lifetime
//   - validity: how long a backend token is trusted after sign-in
//   - secure: Secure cookies, and a strong key is mandatory
func NewSessionManager(sessionKey, name, domain string, maxAge, validity time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, &SessionConfigError{Message: "session key is empty; provide ≥32 random chars"}
	}
	weak := len(sessionKey) < 32 || isDefaultKey(sessionKey)
	if secure && weak {
		return nil, &SessionConfigError{
			Message: "session key is too weak for production; provide ≥32 random chars (not the default dev key)",
		}
	}
	if weak {
		logger.Warn("session key is weak; 32+ random chars required in production",
			zap.Int("length", len(sessionKey)),
			zap.Bool("is_default", isDefaultKey(sessionKey)))
	}
	if name == "" {
		name = "seoadmin-session"
	}
	if validity <= 0 {
		validity = DefaultTokenValidity
	}

	hashKey, blockKey, err := deriveKeys(sessionKey)
	if err != nil {
		return nil, &SessionConfigError{Message: "derive session keys: " + err.Error()}
	}
	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(maxAge.Seconds()))

	logger.Info("session manager initialized",
		zap.Bool("secure", secure),
		zap.String("name", name),
		zap.String("domain", domain),
		zap.Duration("token_validity", validity))

	return &SessionManager{
		store:    store,
		logger:   logger,
		name:     name,
		validity: validity,
		now:      time.Now,
	}, nil
}

// deriveKeys expands the configured secret into a 64-byte HMAC key and a
// 32-byte AES key.
func deriveKeys(secret string) (hashKey, blockKey []byte, err error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("seoadmin session cookie v1"))
	hashKey = make([]byte, 64)
	blockKey = make([]byte, 32)
	if _, err = io.ReadFull(r, hashKey); err != nil {
		return nil, nil, err
	}
	if _, err = io.ReadFull(r, blockKey); err != nil {
		return nil, nil, err
	}
	return hashKey, blockKey, nil
}

// SessionConfigError is returned when session configuration is invalid.
type SessionConfigError struct {
	Message string
}

func (e *SessionConfigError) Error() string { return e.Message }

// SessionName returns the configured session cookie name.
func (sm *SessionManager) SessionName() string { return sm.name }

// TokenValidity returns how long a token is trusted after sign-in.
func (sm *SessionManager) TokenValidity() time.Duration { return sm.validity }

/*─────────────────────────────────────────────────────────────────────────────*
| Current user                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the signed-in staff member as recorded at sign-in.
type SessionUser struct {
	ID       int64
	Name     string
	Email    string
	Avatar   string
	Token    string
	IssuedAt time.Time
}

// Credentials returns the per-request backend credentials.
func (u *SessionUser) Credentials() backend.Credentials {
	if u == nil {
		return backend.Credentials{}
	}
	return backend.Credentials{Token: u.Token}
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and a "found?" flag from the request context.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// Credentials returns the backend credentials of the signed-in user, or the
// zero value.
func Credentials(r *http.Request) backend.Credentials {
	u, _ := CurrentUser(r)
	return u.Credentials()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadSessionUser injects the user into the context when the session holds a
// token that is still inside its validity window. An expired token clears the
// session.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			sm.logSessionError(r, err)
		}

		token := getString(sess, authTokenKey)
		if token != "" {
			issued := time.UnixMilli(getInt64(sess, validityKey))
			if sm.valid(issued) {
				r = withUser(r, &SessionUser{
					ID:       parseID(getString(sess, userTokenKey)),
					Name:     getString(sess, userNameKey),
					Email:    getString(sess, userEmailKey),
					Avatar:   getString(sess, avatarKey),
					Token:    token,
					IssuedAt: issued,
				})
			} else {
				sm.logger.Debug("backend token past validity window, clearing session",
					zap.Time("issued_at", issued),
					zap.String("path", r.URL.Path))
				clearValues(sess)
				_ = sess.Save(r, w)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// valid reports whether a token issued at issued is still trusted.
func (sm *SessionManager) valid(issued time.Time) bool {
	if issued.UnixMilli() <= 0 {
		return false
	}
	return issued.After(sm.now().Add(-sm.validity))
}

// RequireSignedIn sends unauthenticated callers to the sign-in page, keeping
// the requested path in ?redirect=. API callers get a plain 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		sm.sendToSignIn(w, r)
	})
}

// RedirectIfSignedIn keeps signed-in users away from public-only pages.
func (sm *SessionManager) RedirectIfSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (sm *SessionManager) sendToSignIn(w http.ResponseWriter, r *http.Request) {
	target := SignInPath + "?redirect=" + url.QueryEscape(currentURI(r))

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
}

// ExpireOnUnauthorized handles a backend 401: the token was revoked or has
// expired on the backend side. It clears the session, redirects to sign-in
// and reports true. Any other error reports false.
func (sm *SessionManager) ExpireOnUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, backend.ErrUnauthorized) {
		return false
	}
	sm.logger.Info("backend rejected token, signing out", zap.String("path", r.URL.Path))
	sm.DestroySession(w, r)
	sm.sendToSignIn(w, r)
	return true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session lifecycle                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateSession records a successful sign-in.
func (sm *SessionManager) CreateSession(w http.ResponseWriter, r *http.Request, res *models.LoginResult) error {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		sess, _ = sm.store.New(r, sm.name)
	}
	clearValues(sess)
	sess.Values[authTokenKey] = res.AccessToken
	sess.Values[validityKey] = sm.now().UnixMilli()
	sess.Values[userNameKey] = res.User.Name
	sess.Values[userTokenKey] = strconv.FormatInt(res.User.ID, 10)
	sess.Values[userEmailKey] = res.User.Email
	sess.Values[avatarKey] = res.User.ProfileImage
	sess.Options.MaxAge = sm.store.Options.MaxAge
	return sess.Save(r, w)
}

// DestroySession removes every session value and expires the cookie.
func (sm *SessionManager) DestroySession(w http.ResponseWriter, r *http.Request) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil && sess == nil {
		return
	}
	clearValues(sess)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a SessionUser into the request context for testing.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func clearValues(s *sessions.Session) {
	for _, k := range []string{authTokenKey, validityKey, userNameKey, userTokenKey, userEmailKey, avatarKey} {
		delete(s.Values, k)
	}
}

func getString(s *sessions.Session, key string) string {
	if s == nil {
		return ""
	}
	v, _ := s.Values[key].(string)
	return v
}

func getInt64(s *sessions.Session, key string) int64 {
	if s == nil {
		return 0
	}
	v, _ := s.Values[key].(int64)
	return v
}

func parseID(s string) int64 {
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}

func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}

// isDefaultKey checks if the session key looks like a placeholder.
func isDefaultKey(key string) bool {
	lower := strings.ToLower(key)
	for _, p := range []string{"dev-only", "change-me", "placeholder", "default", "example", "insecure", "test-key", "secret123", "password"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func (sm *SessionManager) logSessionError(r *http.Request, err error) {
	errType, category := classifySessionError(err)
	fields := []zap.Field{zap.String("category", category), zap.String("path", r.URL.Path)}
	switch errType {
	case sessionErrExpired:
		sm.logger.Debug("session expired, starting fresh session", fields...)
	case sessionErrTampered:
		sm.logger.Warn("session MAC validation failed (possible tampering)",
			append(fields, zap.String("remote_addr", r.RemoteAddr), zap.String("user_agent", r.UserAgent()))...)
	case sessionErrCorrupted:
		sm.logger.Info("session decode failed, starting fresh session", fields...)
	default:
		sm.logger.Warn("session error, starting fresh session", append(fields, zap.Error(err))...)
	}
}

// classifySessionError categorizes a session/cookie error for logging.
func classifySessionError(err error) (sessionErrorType, string) {
	if err == nil {
		return sessionErrUnknown, "none"
	}
	var scErr securecookie.Error
	if !errors.As(err, &scErr) {
		return sessionErrBackend, "unknown"
	}
	if !scErr.IsDecode() {
		return sessionErrBackend, "backend"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "expired timestamp"):
		return sessionErrExpired, "expired"
	case strings.Contains(msg, "mac") || strings.Contains(msg, "hash"):
		return sessionErrTampered, "mac_invalid"
	case strings.Contains(msg, "decrypt"):
		return sessionErrCorrupted, "decrypt_failed"
	default:
		return sessionErrCorrupted, "decode_failed"
	}
}
