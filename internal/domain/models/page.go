// internal/domain/models/page.go
package models

import "strings"

// PageType discriminates the two kinds of managed pages. It is sent on every
// write so the backend can apply type-specific rules.
type PageType int

const (
	PageTypeSEO               PageType = 1
	PageTypeManagementService PageType = 2
)

// Label returns the human-readable name of the page type.
func (t PageType) Label() string {
	switch t {
	case PageTypeSEO:
		return "SEO Page"
	case PageTypeManagementService:
		return "Management Service"
	default:
		return "Page"
	}
}

// BasePath is the admin URL prefix under which pages of type t are managed.
func (t PageType) BasePath() string {
	if t == PageTypeManagementService {
		return "/management-services"
	}
	return "/seo-pages"
}

// Valid reports whether t is a known page type.
func (t PageType) Valid() bool {
	return t == PageTypeSEO || t == PageTypeManagementService
}

// Page is a managed content page as exchanged with the backend.
type Page struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	ParentID  *int64   `json:"parent_id"`
	MenuOrder *int     `json:"menu_order"`
	IsActive  Flag     `json:"is_active"`
	SEOStatus Flag     `json:"seo_status"`
	PageType  PageType `json:"page_type"`
	Meta      Meta     `json:"meta"`

	// Parent is populated by some list endpoints.
	Parent *ParentPage `json:"parent,omitempty"`
}

// Meta is the flat bag of SEO fields stored with a page. The page_content
// slots are reassigned per content section.
type Meta struct {
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	MetaKeywords    string `json:"meta_keywords"` // comma-joined tags
	CanonicalURL    string `json:"canonical_url"`
	SchemaMarkup    string `json:"schema_markup"`
	SchemaMarkupFAQ string `json:"schema_markup_faq"`
	OGTitle         string `json:"og_title"`
	OGDescription   string `json:"og_description"`
	OGImage         string `json:"og_image"`
	TwitterCard     string `json:"twitter_card"`
	Language        string `json:"language"`
	H1Tag           string `json:"h1_tag"`
	PageContent1    string `json:"page_content_1"`
	PageContent2    string `json:"page_content_2"`
	PageContent3    string `json:"page_content_3"`
	PageContent4    string `json:"page_content_4"`
	PageContent5    string `json:"page_content_5"`
}

// Keywords splits the comma-joined keyword list into trimmed, non-empty tags.
func (m Meta) Keywords() []string {
	return SplitTags(m.MetaKeywords)
}

// Slot returns the page_content_N value for n in 1..5.
func (m Meta) Slot(n int) string {
	switch n {
	case 1:
		return m.PageContent1
	case 2:
		return m.PageContent2
	case 3:
		return m.PageContent3
	case 4:
		return m.PageContent4
	case 5:
		return m.PageContent5
	}
	return ""
}

// SplitTags splits a comma-joined tag list, dropping blanks.
func SplitTags(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}

// PageInput is the write payload for creating or updating a page.
// Flags are sent as 1/0 and nullable numbers as JSON null.
type PageInput struct {
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	ParentID  *int64   `json:"parent_id"`
	MenuOrder *int     `json:"menu_order"`
	IsActive  int      `json:"is_active"`
	SEOStatus int      `json:"seo_status"`
	PageType  PageType `json:"page_type"`
	Meta      Meta     `json:"meta"`
}

// MetaPatch updates a subset of meta keys without touching the rest.
type MetaPatch struct {
	Meta     map[string]string `json:"meta"`
	PageType PageType          `json:"page_type"`
}

// ParentPage is an entry in the parent-page dropdown.
type ParentPage struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// PageFilter holds list filters. Empty strings mean "no filter".
type PageFilter struct {
	Page      int
	PerPage   int // 0 leaves the page size to the backend
	PageType  PageType
	Title     string
	Slug      string
	IsActive  string // "", "1", "0"
	SEOStatus string // "", "1", "0"
	ParentID  string
}

// Active reports whether any narrowing filter is set.
func (f PageFilter) Active() bool {
	return f.Title != "" || f.Slug != "" || f.IsActive != "" || f.SEOStatus != "" || f.ParentID != ""
}

// PageList is one page of list results.
type PageList struct {
	Data        []Page `json:"data"`
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	PerPage     int    `json:"per_page"`
	Total       int    `json:"total"`
}

// Meta length hints shown next to the corresponding inputs.
const (
	MaxMetaTitle       = 70
	MaxMetaDescription = 175
	MaxH1Tag           = 70
)
