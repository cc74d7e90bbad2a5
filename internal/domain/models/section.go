// internal/domain/models/section.go
package models

import "strings"

// SectionKind identifies a content section type. The value is the backend
// path segment under /components/.
type SectionKind string

const (
	SectionWhyChoose          SectionKind = "whychoose"
	SectionAboutUs            SectionKind = "aboutus"
	SectionServices           SectionKind = "services"
	SectionFaq                SectionKind = "faq"
	SectionHero               SectionKind = "herosection"
	SectionServicesBackground SectionKind = "servicesbg"
	SectionTransparentPricing SectionKind = "transparentpricing"
)

// AllSectionKinds returns the section kinds in editor display order.
func AllSectionKinds() []SectionKind {
	return []SectionKind{
		SectionHero,
		SectionWhyChoose,
		SectionAboutUs,
		SectionServicesBackground,
		SectionServices,
		SectionTransparentPricing,
		SectionFaq,
	}
}

// ParseSectionKind returns the kind named by s and whether it is known.
func ParseSectionKind(s string) (SectionKind, bool) {
	for _, k := range AllSectionKinds() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Title returns the editor heading for the section.
func (k SectionKind) Title() string {
	switch k {
	case SectionWhyChoose:
		return "Why Choose Us"
	case SectionAboutUs:
		return "About Us"
	case SectionServices:
		return "Services"
	case SectionFaq:
		return "FAQ"
	case SectionHero:
		return "Hero Section"
	case SectionServicesBackground:
		return "Services Background"
	case SectionTransparentPricing:
		return "Transparent Pricing"
	}
	return string(k)
}

// Multipart reports whether the section is saved as multipart form data.
func (k SectionKind) Multipart() bool {
	return k == SectionHero || k == SectionServicesBackground
}

// WhyChoose is the "why choose us" block.
type WhyChoose struct {
	Title  string
	Points []string
}

// AboutUs holds a rich-text description and a raw map iframe.
type AboutUs struct {
	Description string
	MapEmbed    string
}

// ServiceItem is one entry of the services list.
type ServiceItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Blank reports whether every text field is empty after trimming.
func (s ServiceItem) Blank() bool {
	return isBlank(s.Title) && isBlank(s.Description)
}

// FaqItem is one question/answer pair.
type FaqItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Blank reports whether every text field is empty after trimming.
func (f FaqItem) Blank() bool {
	return isBlank(f.Question) && isBlank(f.Answer)
}

// Hero is the top-of-page hero block. Image is a remote URL.
type Hero struct {
	Title    string
	SubTitle string
	Image    string
}

// ServicesBackground is the background image of the services block.
type ServicesBackground struct {
	Image string
}

// TransparentPricing is the pricing call-to-action block.
type TransparentPricing struct {
	Title       string
	Description string
	ButtonText  string
	Link        string
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// SectionsFor returns the sections edited on pages of type pt, in display
// order. Management service pages carry only the four text sections.
func SectionsFor(pt PageType) []SectionKind {
	if pt == PageTypeManagementService {
		return []SectionKind{SectionWhyChoose, SectionAboutUs, SectionServices, SectionFaq}
	}
	return AllSectionKinds()
}

// FreeSlots returns the page_content meta keys not claimed by a section.
// Sections occupy slots 1-4 on both page types; the rest are edited as plain
// meta values.
func FreeSlots() []string {
	return []string{"page_content_5"}
}
