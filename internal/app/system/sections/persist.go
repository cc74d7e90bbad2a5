package sections

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/htmlsanitize"
	"github.com/dalemusser/seoadmin/internal/domain/models"
)

// Sender is the part of the backend client used to save sections.
type Sender interface {
	SendSection(ctx context.Context, creds backend.Credentials, sr backend.SectionRequest) (any, error)
}

// Draft is an edited section ready to be serialized for the backend.
type Draft interface {
	Kind() models.SectionKind
	encode(pt models.PageType) backend.SectionRequest
}

// WhyChooseDraft is an edited WhyChoose block.
type WhyChooseDraft struct{ models.WhyChoose }

// AboutUsDraft is an edited AboutUs block.
type AboutUsDraft struct{ models.AboutUs }

// ServicesDraft is an edited services list.
type ServicesDraft struct{ Items []models.ServiceItem }

// FaqDraft is an edited FAQ list.
type FaqDraft struct{ Items []models.FaqItem }

// PricingDraft is an edited TransparentPricing block.
type PricingDraft struct{ models.TransparentPricing }

// HeroDraft is an edited hero block. Upload is nil when no new image was
// chosen, in which case the stored image is left as it is.
type HeroDraft struct {
	models.Hero
	Upload *backend.FileUpload
}

// ServicesBackgroundDraft carries an optional replacement image.
type ServicesBackgroundDraft struct {
	Upload *backend.FileUpload
}

func (WhyChooseDraft) Kind() models.SectionKind          { return models.SectionWhyChoose }
func (AboutUsDraft) Kind() models.SectionKind            { return models.SectionAboutUs }
func (ServicesDraft) Kind() models.SectionKind           { return models.SectionServices }
func (FaqDraft) Kind() models.SectionKind                { return models.SectionFaq }
func (PricingDraft) Kind() models.SectionKind            { return models.SectionTransparentPricing }
func (HeroDraft) Kind() models.SectionKind               { return models.SectionHero }
func (ServicesBackgroundDraft) Kind() models.SectionKind { return models.SectionServicesBackground }

type whyChoosePayload struct {
	Title    string          `json:"title"`
	Points   []string        `json:"points"`
	PageType models.PageType `json:"page_type"`
}

type aboutUsPayload struct {
	Description string          `json:"description"`
	MapEmbed    string          `json:"map_embed"`
	PageType    models.PageType `json:"page_type"`
}

type servicesPayload struct {
	Services []models.ServiceItem `json:"services"`
	PageType models.PageType      `json:"page_type"`
}

type faqPayload struct {
	Faqs     []models.FaqItem `json:"faqs"`
	PageType models.PageType  `json:"page_type"`
}

type pricingPayload struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ButtonText  string          `json:"button_text"`
	Link        string          `json:"link"`
	PageType    models.PageType `json:"page_type"`
}

func (d WhyChooseDraft) encode(pt models.PageType) backend.SectionRequest {
	return backend.SectionRequest{JSON: whyChoosePayload{
		Title:    strings.TrimSpace(d.Title),
		Points:   FilterPoints(d.Points),
		PageType: pt,
	}}
}

func (d AboutUsDraft) encode(pt models.PageType) backend.SectionRequest {
	return backend.SectionRequest{JSON: aboutUsPayload{
		Description: htmlsanitize.RichText(d.Description),
		MapEmbed:    htmlsanitize.Embed(d.MapEmbed),
		PageType:    pt,
	}}
}

func (d ServicesDraft) encode(pt models.PageType) backend.SectionRequest {
	items := FilterServices(d.Items)
	for i := range items {
		items[i].Description = htmlsanitize.RichText(items[i].Description)
	}
	return backend.SectionRequest{JSON: servicesPayload{Services: items, PageType: pt}}
}

func (d FaqDraft) encode(pt models.PageType) backend.SectionRequest {
	items := FilterFaqs(d.Items)
	for i := range items {
		items[i].Answer = htmlsanitize.RichText(items[i].Answer)
	}
	return backend.SectionRequest{JSON: faqPayload{Faqs: items, PageType: pt}}
}

func (d PricingDraft) encode(pt models.PageType) backend.SectionRequest {
	return backend.SectionRequest{JSON: pricingPayload{
		Title:       strings.TrimSpace(d.Title),
		Description: htmlsanitize.RichText(d.Description),
		ButtonText:  strings.TrimSpace(d.ButtonText),
		Link:        strings.TrimSpace(d.Link),
		PageType:    pt,
	}}
}

func (d HeroDraft) encode(pt models.PageType) backend.SectionRequest {
	return backend.SectionRequest{
		Fields: map[string]string{
			"title":     strings.TrimSpace(d.Title),
			"sub_title": strings.TrimSpace(d.SubTitle),
			"page_type": strconv.Itoa(int(pt)),
		},
		File: imagePart(d.Upload),
	}
}

func (d ServicesBackgroundDraft) encode(pt models.PageType) backend.SectionRequest {
	return backend.SectionRequest{
		Fields: map[string]string{"page_type": strconv.Itoa(int(pt))},
		File:   imagePart(d.Upload),
	}
}

func imagePart(u *backend.FileUpload) *backend.FileUpload {
	if u == nil || u.Content == nil {
		return nil
	}
	f := *u
	f.Field = "image"
	return &f
}

// FilterPoints drops blank points and trims the rest.
func FilterPoints(points []string) []string {
	out := make([]string, 0, len(points))
	for _, p := range points {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FilterServices drops items whose fields are all blank.
func FilterServices(items []models.ServiceItem) []models.ServiceItem {
	out := make([]models.ServiceItem, 0, len(items))
	for _, it := range items {
		if !it.Blank() {
			out = append(out, it)
		}
	}
	return out
}

// FilterFaqs drops items whose fields are all blank.
func FilterFaqs(items []models.FaqItem) []models.FaqItem {
	out := make([]models.FaqItem, 0, len(items))
	for _, it := range items {
		if !it.Blank() {
			out = append(out, it)
		}
	}
	return out
}

// Saver persists drafts for one page.
type Saver struct {
	sender   Sender
	pageID   int64
	pageType models.PageType
}

// NewSaver returns a Saver for the page identified by pageID.
func NewSaver(sender Sender, pageID int64, pt models.PageType) *Saver {
	return &Saver{sender: sender, pageID: pageID, pageType: pt}
}

// Request builds the outbound request for d in state st without sending it.
func (s *Saver) Request(st State, d Draft) backend.SectionRequest {
	sr := d.encode(s.pageType)
	id, _ := st.ID()
	sr.Method = st.Method()
	sr.Path = backend.SectionPath(d.Kind(), s.pageID, id)
	return sr
}

// ErrNotLoaded is returned when saving a section whose current row was never
// fetched; a create could duplicate an existing row.
var ErrNotLoaded = errors.New("sections: section was not loaded")

// Save sends d as a create (no known id) or update (known id) and returns the
// next state. On a create the response is normalized again to learn the new
// id. On error the state is returned unchanged.
func (s *Saver) Save(ctx context.Context, creds backend.Credentials, st State, d Draft) (State, error) {
	if st.Kind() == StateUnknown {
		return st, ErrNotLoaded
	}
	sr := s.Request(st, d)
	resp, err := s.sender.SendSection(ctx, creds, sr)
	if err != nil {
		return st, fmt.Errorf("save %s: %w", d.Kind(), err)
	}
	return st.Saved(DiscoverID(d.Kind(), resp)), nil
}
