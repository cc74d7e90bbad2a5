package seopages

import (
	"net/http"
	"strings"

	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/jsonutil"
	"github.com/dalemusser/seoadmin/internal/app/system/normalize"
	"github.com/dalemusser/seoadmin/internal/app/system/viewdata"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// DeleteVM is the view model for the delete confirmation page.
type DeleteVM struct {
	viewdata.BaseVM
	TypeLabel string
	Page      *models.Page
	Action    string
	CancelURL string
	Error     string
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
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
		if h.failed(w, r, "load page for delete", err) {
			return
		}
		h.errPages.InternalError(w, r)
		return
	}
	templates.Render(w, r, "seopages/delete", DeleteVM{
		BaseVM:    viewdata.NewBaseVM(r, "Delete "+h.pageType.Label(), h.base()),
		TypeLabel: h.pageType.Label(),
		Page:      page,
		Action:    h.pageURL(id, "/delete"),
		CancelURL: h.pageURL(id, "/edit"),
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pageID(r)
	if !ok {
		h.errPages.NotFound(w, r)
		return
	}
	if err := h.api.DeletePage(r.Context(), auth.Credentials(r), id, h.pageType); err != nil {
		if h.failed(w, r, "delete page", err) {
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		templates.Render(w, r, "seopages/delete", DeleteVM{
			BaseVM:    viewdata.NewBaseVM(r, "Delete "+h.pageType.Label(), h.base()),
			TypeLabel: h.pageType.Label(),
			Page:      &models.Page{ID: id},
			Action:    h.pageURL(id, "/delete"),
			CancelURL: h.pageURL(id, "/edit"),
			Error:     backend.UserMessage(err, "Could not delete the page."),
		})
		return
	}
	h.logger.Info("page deleted", zap.Int64("page_id", id))
	http.Redirect(w, r, withNotice(h.base(), "deleted"), http.StatusSeeOther)
}

// toggleStatus sets seo_status from the list without script. Script-driven
// toggles go through the /api proxy instead; this answers them with JSON when
// they ask for it.
func (h *Handler) toggleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pageID(r)
	if !ok {
		h.errPages.NotFound(w, r)
		return
	}
	_ = r.ParseForm()
	on := normalize.Flag(r.PostForm.Get("seo_status")) == 1
	wantsJSON := strings.Contains(r.Header.Get("Accept"), "application/json")

	if err := h.api.ChangePageStatus(r.Context(), auth.Credentials(r), id, on); err != nil {
		if h.failed(w, r, "change page status", err) {
			return
		}
		if wantsJSON {
			jsonutil.Message(w, http.StatusBadGateway, backend.UserMessage(err, "Could not change the status."))
			return
		}
		http.Redirect(w, r, h.localReturn(r.PostForm.Get("return")), http.StatusSeeOther)
		return
	}
	h.logger.Info("page status changed", zap.Int64("page_id", id), zap.Bool("seo_status", on))
	if wantsJSON {
		jsonutil.OK(w, map[string]any{"id": id, "seo_status": models.Flag(on).Int()})
		return
	}
	http.Redirect(w, r, withNotice(h.localReturn(r.PostForm.Get("return")), "status"), http.StatusSeeOther)
}
