package sections

import (
	"github.com/dalemusser/seoadmin/internal/domain/models"
)

// Single-entry sections (everything except Services and Faq) treat element 0
// of an array as authoritative and ignore the rest.

// ResolveWhyChoose normalizes a WhyChoose payload. A bare string is taken
// as the title with no points.
func ResolveWhyChoose(raw any) Shape[models.WhyChoose] {
	v := Unwrap(raw)
	if !truthy(v) {
		return Absent[models.WhyChoose]()
	}
	if rec := first(v); rec != nil {
		return Single(numericID(rec), models.WhyChoose{
			Title:  str(rec, "title"),
			Points: points(rec["points"]),
		})
	}
	if s, ok := v.(string); ok {
		return Single(0, models.WhyChoose{Title: s, Points: []string{}})
	}
	return Absent[models.WhyChoose]()
}

// points accepts strings and {point: string} objects, dropping everything
// else while keeping order.
func points(v any) []string {
	out := []string{}
	list, _ := v.([]any)
	for _, p := range list {
		switch t := p.(type) {
		case string:
			if t != "" {
				out = append(out, t)
			}
		case map[string]any:
			if s, ok := t["point"].(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// ResolveAboutUs normalizes an AboutUs payload. A bare string is taken as
// the description.
func ResolveAboutUs(raw any) Shape[models.AboutUs] {
	v := Unwrap(raw)
	if !truthy(v) {
		return Absent[models.AboutUs]()
	}
	if s, ok := v.(string); ok {
		return Single(0, models.AboutUs{Description: s})
	}
	if rec := first(v); rec != nil {
		return Single(numericID(rec), models.AboutUs{
			Description: str(rec, "description"),
			MapEmbed:    str(rec, "map_embed"),
		})
	}
	return Absent[models.AboutUs]()
}

// ResolveServices normalizes a Services payload. Services is a list: every
// record in an array is kept, duplicates included, and the section id comes
// from the first element that carries a numeric id.
func ResolveServices(raw any) Shape[models.ServiceItem] {
	v := Unwrap(raw)
	if !truthy(v) {
		return Absent[models.ServiceItem]()
	}
	if s, ok := v.(string); ok {
		return List(0, []models.ServiceItem{{Title: "", Description: s}})
	}
	list, isList := entries(v)
	if !isList {
		rec := record(v)
		if rec == nil {
			return Absent[models.ServiceItem]()
		}
		return List(numericID(rec), []models.ServiceItem{serviceItem(rec)})
	}
	var id int64
	items := make([]models.ServiceItem, 0, len(list))
	for _, el := range list {
		rec := record(el)
		if rec == nil {
			continue
		}
		if id == 0 {
			id = numericID(rec)
		}
		items = append(items, serviceItem(rec))
	}
	return List(id, items)
}

func serviceItem(rec map[string]any) models.ServiceItem {
	return models.ServiceItem{
		Title:       str(rec, "title"),
		Description: str(rec, "description"),
	}
}

// ResolveFaq normalizes a Faq payload. Accepted shapes:
//   - a bare array of {question, answer}
//   - a wrapper {id, faqs: [...]} whose id is the section id
//   - a single {question, answer}, kept only when non-empty
//   - a plain string, taken as one answer with an empty question
func ResolveFaq(raw any) Shape[models.FaqItem] {
	v := Unwrap(raw)
	if !truthy(v) {
		return Absent[models.FaqItem]()
	}
	if s, ok := v.(string); ok {
		return List(0, []models.FaqItem{{Question: "", Answer: s}})
	}
	if list, isList := entries(v); isList {
		var id int64
		if len(list) > 0 {
			id = numericID(record(list[0]))
		}
		return List(id, faqItems(list))
	}
	rec := record(v)
	if rec == nil {
		return Absent[models.FaqItem]()
	}
	if wrapped, ok := rec["faqs"].([]any); ok {
		return List(numericID(rec), faqItems(wrapped))
	}
	item := faqItem(rec)
	if item.Question == "" && item.Answer == "" {
		return List[models.FaqItem](numericID(rec), nil)
	}
	return List(numericID(rec), []models.FaqItem{item})
}

func faqItems(list []any) []models.FaqItem {
	items := make([]models.FaqItem, 0, len(list))
	for _, el := range list {
		if rec := record(el); rec != nil {
			items = append(items, faqItem(rec))
		}
	}
	return items
}

func faqItem(rec map[string]any) models.FaqItem {
	return models.FaqItem{
		Question: str(rec, "question"),
		Answer:   str(rec, "answer"),
	}
}

// ResolveHero normalizes a HeroSection payload.
func ResolveHero(raw any) Shape[models.Hero] {
	rec := first(Unwrap(raw))
	if rec == nil {
		return Absent[models.Hero]()
	}
	return Single(numericID(rec), models.Hero{
		Title:    str(rec, "title"),
		SubTitle: str(rec, "sub_title"),
		Image:    str(rec, "image"),
	})
}

// ResolveServicesBackground normalizes a ServicesBackground payload.
func ResolveServicesBackground(raw any) Shape[models.ServicesBackground] {
	rec := first(Unwrap(raw))
	if rec == nil {
		return Absent[models.ServicesBackground]()
	}
	return Single(numericID(rec), models.ServicesBackground{Image: str(rec, "image")})
}

// ResolveTransparentPricing normalizes a TransparentPricing payload.
func ResolveTransparentPricing(raw any) Shape[models.TransparentPricing] {
	rec := first(Unwrap(raw))
	if rec == nil {
		return Absent[models.TransparentPricing]()
	}
	return Single(numericID(rec), models.TransparentPricing{
		Title:       str(rec, "title"),
		Description: str(rec, "description"),
		ButtonText:  str(rec, "button_text"),
		Link:        str(rec, "link"),
	})
}

// DiscoverID runs the resolver for kind and returns the section id it finds.
// It is used on create responses to learn the id of the new row.
func DiscoverID(kind models.SectionKind, raw any) int64 {
	switch kind {
	case models.SectionWhyChoose:
		return ResolveWhyChoose(raw).ID
	case models.SectionAboutUs:
		return ResolveAboutUs(raw).ID
	case models.SectionServices:
		return ResolveServices(raw).ID
	case models.SectionFaq:
		return ResolveFaq(raw).ID
	case models.SectionHero:
		return ResolveHero(raw).ID
	case models.SectionServicesBackground:
		return ResolveServicesBackground(raw).ID
	case models.SectionTransparentPricing:
		return ResolveTransparentPricing(raw).ID
	}
	return 0
}
