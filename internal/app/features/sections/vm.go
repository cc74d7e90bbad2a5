package sections

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/htmlsanitize"
	"github.com/dalemusser/seoadmin/internal/app/system/seometa"
	sectionsys "github.com/dalemusser/seoadmin/internal/app/system/sections"
	"github.com/dalemusser/seoadmin/internal/app/system/viewdata"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// EditorVM is the view model for the section editor.
type EditorVM struct {
	viewdata.BaseVM
	TypeLabel string
	PageID    int64
	PageTitle string
	PageSlug  string
	EditURL   string

	Panels []*Panel
	Slots  []*SlotForm
}

// Panel is one section form.
type Panel struct {
	Kind      models.SectionKind
	Heading   string
	Action    string
	State     string // hidden section_id value
	Multipart bool
	CSRFToken string

	LoadError string
	SaveError string
	Fields    map[string]string

	WhyChoose models.WhyChoose
	AboutUs   models.AboutUs
	Services  []models.ServiceItem
	Faqs      []models.FaqItem
	Hero      models.Hero
	BgImage   string
	Pricing   models.TransparentPricing
}

// Is reports whether the panel edits the section named kind.
func (p *Panel) Is(kind string) bool { return string(p.Kind) == kind }

// Anchor is the element id of the panel.
func (p *Panel) Anchor() string { return "section-" + string(p.Kind) }

// FieldError returns the message recorded for the input named name.
func (p *Panel) FieldError(name string) string { return p.Fields[name] }

// Points returns the why-choose points with one blank row for input.
func (p *Panel) Points() []string {
	if len(p.WhyChoose.Points) == 0 {
		return []string{""}
	}
	return p.WhyChoose.Points
}

// ServiceRows returns the services with one blank row when empty.
func (p *Panel) ServiceRows() []models.ServiceItem {
	if len(p.Services) == 0 {
		return []models.ServiceItem{{}}
	}
	return p.Services
}

// FaqRows returns the FAQ entries with one blank row when empty.
func (p *Panel) FaqRows() []models.FaqItem {
	if len(p.Faqs) == 0 {
		return []models.FaqItem{{}}
	}
	return p.Faqs
}

// MapPreview renders the stored map embed through the iframe allowlist.
func (p *Panel) MapPreview() template.HTML {
	return htmlsanitize.DisplayEmbed(p.AboutUs.MapEmbed)
}

// Name builds an indexed input name such as services[2][title].
func (p *Panel) Name(list string, i int, field string) string {
	return list + "[" + strconv.Itoa(i) + "][" + field + "]"
}

// SlotForm edits one free page_content meta slot.
type SlotForm struct {
	Key       string
	Label     string
	Value     string
	Action    string
	CSRFToken string
	Error     string
}

func (h *Handler) newEditorVM(r *http.Request, id int64, page *models.Page, snap *sectionsys.Snapshot) *EditorVM {
	base := h.editorURL(id)
	vm := &EditorVM{
		BaseVM:    viewdata.NewBaseVM(r, "Sections · "+page.Title, h.pageType.BasePath()),
		TypeLabel: h.pageType.Label(),
		PageID:    id,
		PageTitle: page.Title,
		PageSlug:  page.Slug,
		EditURL:   h.pageType.BasePath() + "/" + strconv.FormatInt(id, 10) + "/edit",
	}
	for _, kind := range snap.Kinds {
		p := &Panel{
			Kind:      kind,
			Heading:   kind.Title(),
			Action:    base + "/" + string(kind),
			State:     snap.State(kind).FormValue(),
			Multipart: kind.Multipart(),
			CSRFToken: vm.CSRFToken,
		}
		if err := snap.Err(kind); err != nil {
			p.LoadError = backend.UserMessage(err, "This section could not be loaded.")
		}
		switch kind {
		case models.SectionWhyChoose:
			p.WhyChoose = snap.WhyChoose.Value()
		case models.SectionAboutUs:
			p.AboutUs = snap.AboutUs.Value()
		case models.SectionServices:
			p.Services = snap.Services.List()
		case models.SectionFaq:
			p.Faqs = snap.Faq.List()
		case models.SectionHero:
			p.Hero = snap.Hero.Value()
		case models.SectionServicesBackground:
			p.BgImage = snap.ServicesBackground.Value().Image
		case models.SectionTransparentPricing:
			p.Pricing = snap.Pricing.Value()
		}
		vm.Panels = append(vm.Panels, p)
	}
	for _, key := range models.FreeSlots() {
		label := "Page content " + strings.TrimPrefix(key, "page_content_")
		if f, ok := seometa.Lookup(key); ok {
			label = f.Label
		}
		vm.Slots = append(vm.Slots, &SlotForm{
			Key:       key,
			Label:     label,
			Value:     seometa.Get(page.Meta, key),
			Action:    base + "/meta",
			CSRFToken: vm.CSRFToken,
		})
	}
	return vm
}

// panel returns the panel for kind, or nil.
func (vm *EditorVM) panel(kind models.SectionKind) *Panel {
	for _, p := range vm.Panels {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}

func (vm *EditorVM) slot(key string) *SlotForm {
	for _, s := range vm.Slots {
		if s.Key == key {
			return s
		}
	}
	return nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, vm *EditorVM) {
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	templates.Render(w, r, "sections/editor", vm)
}
