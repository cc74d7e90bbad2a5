// Package viewdata builds the fields every rendered page shares.
package viewdata

import (
	"net/http"
	"strings"
	"sync"

	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// BaseVM contains common fields for all view models.
// Embed this struct in feature view models:
//
//	type listData struct {
//	    viewdata.BaseVM
//	    Rows []row
//	}
type BaseVM struct {
	SiteName string

	// Signed-in user, from the session.
	IsLoggedIn bool
	UserID     int64
	UserName   string
	UserEmail  string
	Avatar     string

	Title       string
	BackURL     string
	CurrentPath string

	// Flash is a one-shot notice carried in ?notice= after a redirect.
	Flash string

	CSRFToken string
}

var (
	mu       sync.RWMutex
	siteName = models.DefaultSiteName
)

// Init sets the site name shown in the header. An empty name keeps the default.
// Call once at startup.
func Init(name string) {
	mu.Lock()
	defer mu.Unlock()
	if name = strings.TrimSpace(name); name != "" {
		siteName = name
	} else {
		siteName = models.DefaultSiteName
	}
}

// SiteName returns the configured site name.
func SiteName() string {
	mu.RLock()
	defer mu.RUnlock()
	return siteName
}

// NewBaseVM creates a populated BaseVM for a page.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := New(r)
	vm.Title = title
	vm.BackURL = httpnav.ResolveBackURL(r, backDefault)
	return vm
}

// New creates a BaseVM without page title or back link.
func New(r *http.Request) BaseVM {
	vm := BaseVM{
		SiteName:    SiteName(),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
		Flash:       notice(r),
	}
	if u, ok := auth.CurrentUser(r); ok {
		vm.IsLoggedIn = true
		vm.UserID = u.ID
		vm.UserName = u.Name
		vm.UserEmail = u.Email
		vm.Avatar = u.Avatar
	}
	return vm
}

// InSection reports whether the current path is under prefix; used to mark
// the active navigation entry.
func (vm BaseVM) InSection(prefix string) bool {
	path, _, _ := strings.Cut(vm.CurrentPath, "?")
	if prefix == "/" {
		return path == "/"
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Initial returns the first letter of the user's name for the avatar badge.
func (vm BaseVM) Initial() string {
	for _, r := range strings.TrimSpace(vm.UserName) {
		return strings.ToUpper(string(r))
	}
	return "?"
}

var notices = map[string]string{
	"created":  "Saved.",
	"updated":  "Changes saved.",
	"deleted":  "Deleted.",
	"password": "Password changed.",
	"status":   "Status updated.",
}

func notice(r *http.Request) string {
	return notices[r.URL.Query().Get("notice")]
}
