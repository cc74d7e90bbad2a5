package seopages

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/formutil"
	"github.com/dalemusser/seoadmin/internal/app/system/inputval"
	"github.com/dalemusser/seoadmin/internal/app/system/normalize"
	"github.com/dalemusser/seoadmin/internal/app/system/seometa"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// FormVM is the view model for the new and edit page forms.
type FormVM struct {
	formutil.Base
	TypeLabel   string
	BasePath    string
	Action      string
	SubmitLabel string
	IsEdit      bool
	ID          int64
	SectionsURL string
	DeleteURL   string

	PageTitle string
	Slug      string
	ParentID  string
	MenuOrder string
	IsActive  bool
	SEOStatus bool
	Meta      models.Meta

	Parents []parentOption
}

type metaGroup struct {
	Name   string
	Fields []metaField
}

type metaField struct {
	seometa.Field
	Name    string // form input name
	ID      string // element id
	Value   string
	Length  int
	TooLong bool
	Error   string
	Focus   bool
}

type metaSlot struct {
	Name  string
	Value string
}

// MetaGroups lays out the catalog fields with the current values and errors.
func (vm FormVM) MetaGroups() []metaGroup {
	groups := seometa.Groups()
	out := make([]metaGroup, 0, len(groups))
	for _, g := range groups {
		mg := metaGroup{Name: g.Name}
		for _, f := range g.Fields {
			v := seometa.Get(vm.Meta, f.Key)
			mg.Fields = append(mg.Fields, metaField{
				Field:   f,
				Name:    f.FormKey(),
				ID:      "meta-" + strings.ReplaceAll(f.Key, "_", "-"),
				Value:   v,
				Length:  seometa.Len(v),
				TooLong: f.Over(v),
				Error:   vm.FieldError(f.FormKey()),
				Focus:   vm.Autofocus(f.FormKey()),
			})
		}
		out = append(out, mg)
	}
	return out
}

// Slots returns the page_content values carried through the form unchanged.
func (vm FormVM) Slots() []metaSlot {
	out := make([]metaSlot, 0, 5)
	for n := 1; n <= 5; n++ {
		out = append(out, metaSlot{
			Name:  seometa.FormKey("page_content_" + strconv.Itoa(n)),
			Value: vm.Meta.Slot(n),
		})
	}
	return out
}

// IsSelectedParent reports whether id is the chosen parent.
func (vm FormVM) IsSelectedParent(id int64) bool {
	return vm.ParentID == strconv.FormatInt(id, 10)
}

// fieldOrder lists the form's inputs top to bottom.
func fieldOrder() []string {
	return append([]string{"title", "slug", "parent_id", "menu_order", "is_active", "seo_status"}, seometa.FormOrder()...)
}

func (h *Handler) newVM(r *http.Request, title string) FormVM {
	return FormVM{
		Base:      formutil.NewBase(r, title, h.base()),
		TypeLabel: h.pageType.Label(),
		BasePath:  h.base(),
	}
}

func (h *Handler) editVM(r *http.Request, id int64) FormVM {
	vm := h.newVM(r, "Edit "+h.pageType.Label())
	vm.IsEdit = true
	vm.ID = id
	vm.Action = h.pageURL(id, "")
	vm.SubmitLabel = "Save changes"
	vm.SectionsURL = h.pageURL(id, "/sections")
	vm.DeleteURL = h.pageURL(id, "/delete")
	return vm
}

func (h *Handler) createVM(r *http.Request) FormVM {
	vm := h.newVM(r, "New "+h.pageType.Label())
	vm.Action = h.base() + "/new"
	vm.SubmitLabel = "Create"
	vm.IsActive = true
	vm.Meta.TwitterCard = "summary_large_image"
	return vm
}

// loadParents fills the parent dropdown, leaving out exclude (the page itself).
// A failure is logged and leaves the dropdown empty.
func (h *Handler) loadParents(r *http.Request, vm *FormVM, exclude int64) {
	parents, err := h.api.ParentPages(r.Context(), auth.Credentials(r), h.pageType)
	if err != nil {
		h.errLog.Backend(r, "load parent pages", err)
		return
	}
	for _, p := range parents {
		if p.ID == exclude {
			continue
		}
		vm.Parents = append(vm.Parents, parentOption{ID: p.ID, Title: p.Title})
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, vm FormVM) {
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	templates.Render(w, r, "seopages/form", vm)
}

func (h *Handler) showNew(w http.ResponseWriter, r *http.Request) {
	vm := h.createVM(r)
	h.loadParents(r, &vm, 0)
	h.render(w, r, http.StatusOK, vm)
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pageID(r)
	if !ok {
		h.errPages.NotFound(w, r)
		return
	}
	page, err := h.api.Page(r.Context(), auth.Credentials(r), id)
	if err != nil {
		if backend.IsNotFound(err) {
			h.errPages.NotFound(w, r)
			return
		}
		if h.failed(w, r, "load page", err) {
			return
		}
		h.errPages.InternalError(w, r)
		return
	}
	if page.PageType.Valid() && page.PageType != h.pageType {
		http.Redirect(w, r, page.PageType.BasePath()+"/"+strconv.FormatInt(id, 10)+"/edit", http.StatusSeeOther)
		return
	}

	vm := h.editVM(r, id)
	vm.PageTitle = page.Title
	vm.Slug = page.Slug
	if page.ParentID != nil {
		vm.ParentID = strconv.FormatInt(*page.ParentID, 10)
	}
	if page.MenuOrder != nil {
		vm.MenuOrder = strconv.Itoa(*page.MenuOrder)
	}
	vm.IsActive = bool(page.IsActive)
	vm.SEOStatus = bool(page.SEOStatus)
	vm.Meta = page.Meta
	h.loadParents(r, &vm, id)
	h.render(w, r, http.StatusOK, vm)
}

// readForm copies the submission into vm and returns the write payload with
// any local validation errors recorded on vm.
func (h *Handler) readForm(r *http.Request, vm *FormVM) (models.PageInput, bool) {
	in := models.PageInput{PageType: h.pageType}
	if err := r.ParseForm(); err != nil {
		vm.SetError("Could not read the form.")
		return in, false
	}
	form := r.PostForm

	vm.PageTitle = strings.TrimSpace(form.Get("title"))
	vm.Slug = normalize.Slug(form.Get("slug"))
	vm.ParentID = strings.TrimSpace(form.Get("parent_id"))
	vm.MenuOrder = strings.TrimSpace(form.Get("menu_order"))
	vm.IsActive = normalize.Flag(form.Get("is_active")) == 1
	vm.SEOStatus = normalize.Flag(form.Get("seo_status")) == 1
	vm.Meta = seometa.FromForm(form)

	in.Title = vm.PageTitle
	in.Slug = vm.Slug
	in.ParentID = normalize.OptionalID(vm.ParentID)
	in.MenuOrder = normalize.OptionalInt(vm.MenuOrder)
	in.IsActive = models.Flag(vm.IsActive).Int()
	in.SEOStatus = models.Flag(vm.SEOStatus).Int()
	in.Meta = vm.Meta
	if in.Meta.Language != "" {
		in.Meta.Language = seometa.CanonicalLanguage(in.Meta.Language)
	}

	res := &inputval.Result{}
	if vm.PageTitle == "" {
		res.Add("title", "Title", "Title is required.")
	}
	switch {
	case vm.Slug == "":
		res.Add("slug", "Slug", "Slug is required.")
	case !inputval.IsValidSlug(vm.Slug):
		res.Add("slug", "Slug", "Slug may contain lowercase letters, numbers, hyphens and slashes only.")
	}
	if vm.MenuOrder != "" && in.MenuOrder == nil {
		res.Add("menu_order", "Menu order", "Menu order must be a whole number.")
	}
	if vm.IsEdit && in.ParentID != nil && *in.ParentID == vm.ID {
		res.Add("parent_id", "Parent", "A page cannot be its own parent.")
	}
	vm.ApplyValidation(res)

	metaErrs := seometa.Validate(in.Meta)
	for _, g := range seometa.Groups() {
		for _, f := range g.Fields {
			if msg, bad := metaErrs[f.FormKey()]; bad {
				vm.SetFieldError(f.FormKey(), msg)
				if vm.Error == "" {
					vm.SetError(msg)
				}
			}
		}
	}
	return in, !res.HasErrors() && len(metaErrs) == 0
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	vm := h.createVM(r)
	in, ok := h.readForm(r, &vm)
	if !ok {
		h.loadParents(r, &vm, 0)
		h.render(w, r, http.StatusUnprocessableEntity, vm)
		return
	}

	page, err := h.api.CreatePage(r.Context(), auth.Credentials(r), in)
	if err != nil {
		if h.failed(w, r, "create page", err) {
			return
		}
		vm.ApplyError(err, "Could not create the page.", fieldOrder()...)
		h.loadParents(r, &vm, 0)
		h.render(w, r, http.StatusUnprocessableEntity, vm)
		return
	}
	h.logger.Info("page created", zap.Int64("page_id", page.ID), zap.String("slug", in.Slug))
	http.Redirect(w, r, withNotice(h.base(), "created"), http.StatusSeeOther)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pageID(r)
	if !ok {
		h.errPages.NotFound(w, r)
		return
	}
	vm := h.editVM(r, id)
	in, ok := h.readForm(r, &vm)
	if !ok {
		h.loadParents(r, &vm, id)
		h.render(w, r, http.StatusUnprocessableEntity, vm)
		return
	}

	if _, err := h.api.UpdatePage(r.Context(), auth.Credentials(r), id, in); err != nil {
		if h.failed(w, r, "update page", err) {
			return
		}
		vm.ApplyError(err, "Could not save the page.", fieldOrder()...)
		h.loadParents(r, &vm, id)
		h.render(w, r, http.StatusUnprocessableEntity, vm)
		return
	}
	h.logger.Info("page updated", zap.Int64("page_id", id))
	http.Redirect(w, r, withNotice(h.pageURL(id, "/edit"), "updated"), http.StatusSeeOther)
}
