package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dalemusser/seoadmin/internal/domain/models"
)

func pagePath(id int64) string { return "/seo-pages/" + strconv.FormatInt(id, 10) }

// Pages fetches one page of the filtered page listing. Filter keys are sent
// even when empty; the backend expects them to be present.
func (c *Client) Pages(ctx context.Context, creds Credentials, f models.PageFilter) (*models.PageList, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if f.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(f.PerPage))
	}
	q.Set("page_type", strconv.Itoa(int(f.PageType)))
	q.Set("title", f.Title)
	q.Set("slug", f.Slug)
	q.Set("is_active", f.IsActive)
	q.Set("seo_status", f.SEOStatus)
	q.Set("parent_id", f.ParentID)

	body, err := c.call(ctx, creds, http.MethodGet, "/seo-pages", q, nil)
	if err != nil {
		return nil, err
	}
	var list models.PageList
	if err := decode(payload(body), &list, "page list"); err != nil {
		return nil, err
	}
	if list.Data == nil {
		list.Data = []models.Page{}
	}
	if list.CurrentPage < 1 {
		list.CurrentPage = page
	}
	if list.LastPage < 1 {
		list.LastPage = 1
	}
	return &list, nil
}

// Page fetches one page with its meta.
func (c *Client) Page(ctx context.Context, creds Credentials, id int64) (*models.Page, error) {
	body, err := c.call(ctx, creds, http.MethodGet, pagePath(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodePage(body)
}

// CreatePage creates a page and returns it as stored.
func (c *Client) CreatePage(ctx context.Context, creds Credentials, in models.PageInput) (*models.Page, error) {
	body, err := c.call(ctx, creds, http.MethodPost, "/seo-pages", nil, in)
	if err != nil {
		return nil, err
	}
	return decodePage(body)
}

// UpdatePage replaces a page and its meta.
func (c *Client) UpdatePage(ctx context.Context, creds Credentials, id int64, in models.PageInput) (*models.Page, error) {
	body, err := c.call(ctx, creds, http.MethodPut, pagePath(id), nil, in)
	if err != nil {
		return nil, err
	}
	return decodePage(body)
}

// PatchMeta updates individual meta keys of a page.
func (c *Client) PatchMeta(ctx context.Context, creds Credentials, id int64, patch models.MetaPatch) error {
	_, err := c.call(ctx, creds, http.MethodPut, pagePath(id), nil, patch)
	return err
}

// DeletePage deletes a page. page_type travels as a query parameter.
func (c *Client) DeletePage(ctx context.Context, creds Credentials, id int64, pt models.PageType) error {
	q := url.Values{}
	q.Set("page_type", strconv.Itoa(int(pt)))
	_, err := c.call(ctx, creds, http.MethodDelete, pagePath(id), q, nil)
	return err
}

// ChangePageStatus sets a page's seo_status.
func (c *Client) ChangePageStatus(ctx context.Context, creds Credentials, id int64, on bool) error {
	_, err := c.call(ctx, creds, http.MethodPut, pagePath(id)+"/change-status", nil, map[string]int{
		"seo_status": models.Flag(on).Int(),
	})
	return err
}

// ParentPages lists candidate parents for pages of type pt.
func (c *Client) ParentPages(ctx context.Context, creds Credentials, pt models.PageType) ([]models.ParentPage, error) {
	q := url.Values{}
	q.Set("page_type", strconv.Itoa(int(pt)))
	body, err := c.call(ctx, creds, http.MethodGet, "/seo-pages-parent", q, nil)
	if err != nil {
		return nil, err
	}
	raw := payload(body)
	// Either a bare array or a paginated {data: [...]}.
	var probe []json.RawMessage
	if json.Unmarshal(raw, &probe) != nil {
		raw = nested(raw, "data")
	}
	parents := []models.ParentPage{}
	if err := decode(raw, &parents, "parent pages"); err != nil {
		return nil, err
	}
	return parents, nil
}

// decodePage reads {data: {...}}, {page: {...}} or a bare object.
func decodePage(body []byte) (*models.Page, error) {
	var p models.Page
	if err := decode(nested(payload(body), "page"), &p, "page"); err != nil {
		return nil, err
	}
	return &p, nil
}
