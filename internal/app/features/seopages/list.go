package seopages

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/normalize"
	"github.com/dalemusser/seoadmin/internal/app/system/viewdata"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"golang.org/x/sync/errgroup"
)

// ListVM is the view model for the page list.
type ListVM struct {
	viewdata.BaseVM
	TypeLabel string
	BasePath  string

	Filter  models.PageFilter
	Parents []parentOption
	Summary []string // human-readable active filters

	Rows  []pageRow
	Pager pager
	Error string
}

type pageRow struct {
	models.Page
	ParentTitle string
	EditURL     string
	SectionsURL string
	DeleteURL   string
	StatusURL   string
	ToggleAPI   string // path under /api/put for the status toggle
}

type parentOption struct {
	ID       int64
	Title    string
	Selected bool
}

type pager struct {
	CurrentPage int
	LastPage    int
	Total       int
	PerPage     int
	HasPrev     bool
	HasNext     bool
	PrevURL     string
	NextURL     string
}

func (h *Handler) readFilter(r *http.Request) models.PageFilter {
	return models.PageFilter{
		Page:      normalize.PageNumber(query.Get(r, "page")),
		PerPage:   h.perPage,
		PageType:  h.pageType,
		Title:     normalize.QueryParam(query.Get(r, "title")),
		Slug:      normalize.QueryParam(query.Get(r, "slug")),
		IsActive:  normalize.FilterFlag(query.Get(r, "is_active")),
		SEOStatus: normalize.FilterFlag(query.Get(r, "seo_status")),
		ParentID:  parentFilter(query.Get(r, "parent_id")),
	}
}

func parentFilter(s string) string {
	if id := normalize.OptionalID(s); id != nil {
		return strconv.FormatInt(*id, 10)
	}
	return ""
}

// filterQuery encodes f for links, leaving out empty filters and page 1.
func filterQuery(f models.PageFilter, page int) url.Values {
	q := url.Values{}
	for k, v := range map[string]string{
		"title": f.Title, "slug": f.Slug, "is_active": f.IsActive,
		"seo_status": f.SEOStatus, "parent_id": f.ParentID,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}

func (h *Handler) listURL(f models.PageFilter, page int) string {
	if q := filterQuery(f, page).Encode(); q != "" {
		return h.base() + "?" + q
	}
	return h.base()
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := h.readFilter(r)
	creds := auth.Credentials(r)

	vm := ListVM{
		BaseVM:    viewdata.NewBaseVM(r, h.pageType.Label()+"s", "/"),
		TypeLabel: h.pageType.Label(),
		BasePath:  h.base(),
		Filter:    f,
	}

	var (
		list    *models.PageList
		parents []models.ParentPage
		loadErr error
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		l, err := h.api.Pages(ctx, creds, f)
		if err != nil {
			return err
		}
		list = l
		return nil
	})
	g.Go(func() error {
		// The parent dropdown is optional; a failure leaves it empty.
		p, err := h.api.ParentPages(ctx, creds, h.pageType)
		parents, loadErr = p, err
		return nil
	})
	if err := g.Wait(); err != nil {
		if h.failed(w, r, "list pages", err) {
			return
		}
		vm.Error = backend.UserMessage(err, "Could not load pages.")
		vm.Pager = pager{CurrentPage: 1, LastPage: 1}
		templates.Render(w, r, "seopages/list", vm)
		return
	}
	if loadErr != nil {
		h.errLog.Backend(r, "load parent pages", loadErr)
	}

	titles := make(map[int64]string, len(parents))
	for _, p := range parents {
		titles[p.ID] = p.Title
		vm.Parents = append(vm.Parents, parentOption{
			ID:       p.ID,
			Title:    p.Title,
			Selected: f.ParentID == strconv.FormatInt(p.ID, 10),
		})
	}

	for _, p := range list.Data {
		row := pageRow{
			Page:        p,
			EditURL:     h.pageURL(p.ID, "/edit"),
			SectionsURL: h.pageURL(p.ID, "/sections"),
			DeleteURL:   h.pageURL(p.ID, "/delete"),
			StatusURL:   h.pageURL(p.ID, "/status"),
			ToggleAPI:   "seo-pages/" + strconv.FormatInt(p.ID, 10) + "/change-status",
		}
		switch {
		case p.Parent != nil:
			row.ParentTitle = p.Parent.Title
		case p.ParentID != nil:
			row.ParentTitle = titles[*p.ParentID]
		}
		vm.Rows = append(vm.Rows, row)
	}

	vm.Summary = summarize(f, titles)
	vm.Pager = pager{
		CurrentPage: list.CurrentPage,
		LastPage:    list.LastPage,
		Total:       list.Total,
		PerPage:     list.PerPage,
		HasPrev:     list.CurrentPage > 1,
		HasNext:     list.CurrentPage < list.LastPage,
		PrevURL:     h.listURL(f, list.CurrentPage-1),
		NextURL:     h.listURL(f, list.CurrentPage+1),
	}
	templates.Render(w, r, "seopages/list", vm)
}

func summarize(f models.PageFilter, parents map[int64]string) []string {
	var out []string
	if f.Title != "" {
		out = append(out, `Title contains "`+f.Title+`"`)
	}
	if f.Slug != "" {
		out = append(out, `Slug contains "`+f.Slug+`"`)
	}
	if f.IsActive != "" {
		out = append(out, "Active: "+yesNo(f.IsActive))
	}
	if f.SEOStatus != "" {
		out = append(out, "SEO: "+yesNo(f.SEOStatus))
	}
	if f.ParentID != "" {
		id, _ := strconv.ParseInt(f.ParentID, 10, 64)
		name := parents[id]
		if name == "" {
			name = "#" + f.ParentID
		}
		out = append(out, "Parent: "+name)
	}
	return out
}

func yesNo(flag string) string {
	if flag == "1" {
		return "yes"
	}
	return "no"
}
