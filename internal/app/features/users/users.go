// Package users manages staff accounts: search, create, edit, password
// change and delete. Passwords are only ever sent to the dedicated password
// endpoint.
package users

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	errorsfeature "github.com/dalemusser/seoadmin/internal/app/features/errors"
	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/formutil"
	"github.com/dalemusser/seoadmin/internal/app/system/inputval"
	"github.com/dalemusser/seoadmin/internal/app/system/normalize"
	"github.com/dalemusser/seoadmin/internal/app/system/viewdata"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// API is the part of the backend client used for users.
type API interface {
	Users(ctx context.Context, creds backend.Credentials) ([]models.User, error)
	User(ctx context.Context, creds backend.Credentials, id int64) (*models.User, error)
	CreateUser(ctx context.Context, creds backend.Credentials, in models.UserInput) (*models.User, error)
	UpdateUser(ctx context.Context, creds backend.Credentials, id int64, in models.UserInput) (*models.User, error)
	ChangePassword(ctx context.Context, creds backend.Credentials, id int64, in models.PasswordChange) error
	DeleteUser(ctx context.Context, creds backend.Credentials, id int64) error
}

// Handler serves the user pages.
type Handler struct {
	api        API
	sessionMgr *auth.SessionManager
	errLog     *errorsfeature.ErrorLogger
	errPages   *errorsfeature.Handler
	logger     *zap.Logger
}

// NewHandler creates a users Handler.
func NewHandler(api API, sessionMgr *auth.SessionManager, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		api:        api,
		sessionMgr: sessionMgr,
		errLog:     errLog,
		errPages:   errorsfeature.NewHandler(),
		logger:     logger,
	}
}

// Routes mounts the user routes under /users.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireSignedIn)

	r.Get("/", h.list)
	r.Get("/new", h.showNew)
	r.Post("/new", h.create)
	r.Get("/{id}/edit", h.showEdit)
	r.Post("/{id}", h.update)
	r.Get("/{id}/password", h.showPassword)
	r.Post("/{id}/password", h.changePassword)
	r.Get("/{id}/delete", h.confirmDelete)
	r.Post("/{id}/delete", h.delete)
	return r
}

const basePath = "/users"

func userURL(id int64, suffix string) string {
	return basePath + "/" + strconv.FormatInt(id, 10) + suffix
}

func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// userInput is the create/edit form as validated locally.
type userInput struct {
	Name  string `json:"name" validate:"required,max=255" label:"Name"`
	Email string `json:"email" validate:"required,email,max=255" label:"Email"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| List                                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// ListVM is the view model for the user list.
type ListVM struct {
	viewdata.BaseVM
	Query string
	Rows  []userRow
	Total int
	Error string
}

type userRow struct {
	models.User
	Roles       string
	IsSelf      bool
	EditURL     string
	PasswordURL string
	DeleteURL   string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := normalize.QueryParam(query.Get(r, "q"))
	vm := ListVM{BaseVM: viewdata.NewBaseVM(r, "Users", "/"), Query: q}

	all, err := h.api.Users(r.Context(), auth.Credentials(r))
	if err != nil {
		if h.sessionMgr.ExpireOnUnauthorized(w, r, err) {
			return
		}
		h.errLog.Backend(r, "list users", err)
		vm.Error = backend.UserMessage(err, "Could not load users.")
		templates.Render(w, r, "users/list", vm)
		return
	}

	vm.Total = len(all)
	for _, u := range all {
		if !u.Matches(q) {
			continue
		}
		vm.Rows = append(vm.Rows, userRow{
			User:        u,
			Roles:       strings.Join(u.RoleNames(), ", "),
			IsSelf:      u.ID == vm.UserID,
			EditURL:     userURL(u.ID, "/edit"),
			PasswordURL: userURL(u.ID, "/password"),
			DeleteURL:   userURL(u.ID, "/delete"),
		})
	}
	templates.Render(w, r, "users/list", vm)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Create / edit                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// FormVM is the view model for the create and edit forms.
type FormVM struct {
	formutil.Base
	IsEdit      bool
	ID          int64
	Action      string
	SubmitLabel string
	Name        string
	Email       string
}

func newFormVM(r *http.Request) FormVM {
	vm := FormVM{Base: formutil.NewBase(r, "Add User", basePath)}
	vm.Action = basePath + "/new"
	vm.SubmitLabel = "Create user"
	return vm
}

func editFormVM(r *http.Request, id int64) FormVM {
	vm := FormVM{Base: formutil.NewBase(r, "Edit User", basePath)}
	vm.IsEdit = true
	vm.ID = id
	vm.Action = userURL(id, "")
	vm.SubmitLabel = "Save changes"
	return vm
}

func renderForm(w http.ResponseWriter, r *http.Request, status int, vm FormVM) {
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	templates.Render(w, r, "users/form", vm)
}

// readForm copies the submission into vm and validates it locally.
func readForm(r *http.Request, vm *FormVM) (models.UserInput, bool) {
	if err := r.ParseForm(); err != nil {
		vm.SetError("Could not read the form.")
		return models.UserInput{}, false
	}
	vm.Name = normalize.Name(r.PostForm.Get("name"))
	vm.Email = normalize.Email(r.PostForm.Get("email"))

	res := inputval.Validate(userInput{Name: vm.Name, Email: vm.Email})
	vm.ApplyValidation(res)
	return models.UserInput{Name: vm.Name, Email: vm.Email}, !res.HasErrors()
}

func (h *Handler) showNew(w http.ResponseWriter, r *http.Request) {
	renderForm(w, r, http.StatusOK, newFormVM(r))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	vm := newFormVM(r)
	in, ok := readForm(r, &vm)
	if !ok {
		renderForm(w, r, http.StatusUnprocessableEntity, vm)
		return
	}
	u, err := h.api.CreateUser(r.Context(), auth.Credentials(r), in)
	if err != nil {
		if h.sessionMgr.ExpireOnUnauthorized(w, r, err) {
			return
		}
		h.errLog.Backend(r, "create user", err)
		vm.ApplyError(err, "Could not create the user.", "name", "email")
		renderForm(w, r, http.StatusUnprocessableEntity, vm)
		return
	}
	h.logger.Info("user created", zap.Int64("user_id", u.ID), zap.String("email", in.Email))
	http.Redirect(w, r, basePath+"?notice=created", http.StatusSeeOther)
}

// loadUser fetches the user named by the route, writing the error response
// itself when it fails.
func (h *Handler) loadUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, ok := userID(r)
	if !ok {
		h.errPages.NotFound(w, r)
		return nil, false
	}
	u, err := h.api.User(r.Context(), auth.Credentials(r), id)
	if err != nil {
		switch {
		case h.sessionMgr.ExpireOnUnauthorized(w, r, err):
		case backend.IsNotFound(err):
			h.errPages.NotFound(w, r)
		default:
			h.errLog.Backend(r, "load user", err)
			h.errPages.InternalError(w, r)
		}
		return nil, false
	}
	if u.ID == 0 {
		u.ID = id
	}
	return u, true
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	vm := editFormVM(r, u.ID)
	vm.Name = u.Name
	vm.Email = u.Email
	renderForm(w, r, http.StatusOK, vm)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		h.errPages.NotFound(w, r)
		return
	}
	vm := editFormVM(r, id)
	in, ok := readForm(r, &vm)
	if !ok {
		renderForm(w, r, http.StatusUnprocessableEntity, vm)
		return
	}
	if _, err := h.api.UpdateUser(r.Context(), auth.Credentials(r), id, in); err != nil {
		if h.sessionMgr.ExpireOnUnauthorized(w, r, err) {
			return
		}
		h.errLog.Backend(r, "update user", err)
		vm.ApplyError(err, "Could not save the user.", "name", "email")
		renderForm(w, r, http.StatusUnprocessableEntity, vm)
		return
	}
	h.logger.Info("user updated", zap.Int64("user_id", id))
	http.Redirect(w, r, basePath+"?notice=updated", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Password                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// PasswordVM is the view model for the password form. Entered passwords are
// never echoed back.
type PasswordVM struct {
	formutil.Base
	ID     int64
	Name   string
	Email  string
	Action string
}

func (h *Handler) showPassword(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	vm := PasswordVM{
		Base:   formutil.NewBase(r, "Change Password", basePath),
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Action: userURL(u.ID, "/password"),
	}
	templates.Render(w, r, "users/password", vm)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		h.errPages.NotFound(w, r)
		return
	}
	vm := PasswordVM{
		Base:   formutil.NewBase(r, "Change Password", basePath),
		ID:     id,
		Action: userURL(id, "/password"),
	}
	if err := r.ParseForm(); err != nil {
		vm.SetError("Could not read the form.")
		w.WriteHeader(http.StatusBadRequest)
		templates.Render(w, r, "users/password", vm)
		return
	}
	vm.Name = r.PostForm.Get("name")

	pc := models.PasswordChange{
		Password:             r.PostForm.Get("password"),
		PasswordConfirmation: r.PostForm.Get("password_confirmation"),
	}
	if res := inputval.ValidatePassword(pc); res.HasErrors() {
		vm.ApplyValidation(res)
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "users/password", vm)
		return
	}

	if err := h.api.ChangePassword(r.Context(), auth.Credentials(r), id, pc); err != nil {
		if h.sessionMgr.ExpireOnUnauthorized(w, r, err) {
			return
		}
		h.errLog.Backend(r, "change password", err)
		vm.ApplyError(err, "Could not change the password.", "password", "password_confirmation")
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "users/password", vm)
		return
	}
	h.logger.Info("password changed", zap.Int64("user_id", id))
	http.Redirect(w, r, basePath+"?notice=password", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Delete                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// DeleteVM is the view model for the delete confirmation.
type DeleteVM struct {
	viewdata.BaseVM
	Target models.User
	IsSelf bool
	Action string
	Error  string
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	vm := DeleteVM{
		BaseVM: viewdata.NewBaseVM(r, "Delete User", basePath),
		Target: *u,
		Action: userURL(u.ID, "/delete"),
	}
	vm.IsSelf = u.ID == vm.UserID
	templates.Render(w, r, "users/delete", vm)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		h.errPages.NotFound(w, r)
		return
	}
	vm := DeleteVM{
		BaseVM: viewdata.NewBaseVM(r, "Delete User", basePath),
		Target: models.User{ID: id},
		Action: userURL(id, "/delete"),
	}
	if id == vm.UserID {
		vm.IsSelf = true
		vm.Error = "You cannot delete your own account."
		w.WriteHeader(http.StatusForbidden)
		templates.Render(w, r, "users/delete", vm)
		return
	}
	if err := h.api.DeleteUser(r.Context(), auth.Credentials(r), id); err != nil {
		if h.sessionMgr.ExpireOnUnauthorized(w, r, err) {
			return
		}
		h.errLog.Backend(r, "delete user", err)
		vm.Error = backend.UserMessage(err, "Could not delete the user.")
		w.WriteHeader(http.StatusBadGateway)
		templates.Render(w, r, "users/delete", vm)
		return
	}
	h.logger.Info("user deleted", zap.Int64("user_id", id))
	http.Redirect(w, r, basePath+"?notice=deleted", http.StatusSeeOther)
}
