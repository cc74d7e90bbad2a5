package sections

import (
	"context"
	"sync"

	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"golang.org/x/sync/errgroup"
)

// Fetcher is the part of the backend client used to read sections.
type Fetcher interface {
	FetchSection(ctx context.Context, creds backend.Credentials, kind models.SectionKind, pageID int64) (any, error)
}

// Snapshot is every requested section of one page, each normalized on its own.
// A section that failed to load is Absent and has an entry in Errors.
type Snapshot struct {
	Kinds              []models.SectionKind
	WhyChoose          Shape[models.WhyChoose]
	AboutUs            Shape[models.AboutUs]
	Services           Shape[models.ServiceItem]
	Faq                Shape[models.FaqItem]
	Hero               Shape[models.Hero]
	ServicesBackground Shape[models.ServicesBackground]
	Pricing            Shape[models.TransparentPricing]
	Errors             map[models.SectionKind]error
}

// State returns the persistence state discovered for kind. A section that
// failed to load stays Unknown, so it cannot be saved as a blind create.
func (s *Snapshot) State(kind models.SectionKind) State {
	if _, failed := s.Errors[kind]; failed {
		return Unknown()
	}
	switch kind {
	case models.SectionWhyChoose:
		return s.WhyChoose.State()
	case models.SectionAboutUs:
		return s.AboutUs.State()
	case models.SectionServices:
		return s.Services.State()
	case models.SectionFaq:
		return s.Faq.State()
	case models.SectionHero:
		return s.Hero.State()
	case models.SectionServicesBackground:
		return s.ServicesBackground.State()
	case models.SectionTransparentPricing:
		return s.Pricing.State()
	}
	return Unknown()
}

// Err returns the load error for kind, if any.
func (s *Snapshot) Err(kind models.SectionKind) error { return s.Errors[kind] }

// Load fetches kinds concurrently and normalizes each as it arrives. The
// optional also functions run in the same group (the page record fetch);
// their errors are returned and cancel the remaining fetches. Section fetch
// errors are recorded per section and never returned.
func Load(ctx context.Context, f Fetcher, creds backend.Credentials, pageID int64, kinds []models.SectionKind, also ...func(context.Context) error) (*Snapshot, error) {
	snap := &Snapshot{
		Kinds:  kinds,
		Errors: map[models.SectionKind]error{},
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range also {
		fn := fn
		g.Go(func() error { return fn(gctx) })
	}
	for _, kind := range kinds {
		kind := kind
		g.Go(func() error {
			raw, err := f.FetchSection(gctx, creds, kind, pageID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				snap.Errors[kind] = err
				return nil
			}
			snap.apply(kind, raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Snapshot) apply(kind models.SectionKind, raw any) {
	switch kind {
	case models.SectionWhyChoose:
		s.WhyChoose = ResolveWhyChoose(raw)
	case models.SectionAboutUs:
		s.AboutUs = ResolveAboutUs(raw)
	case models.SectionServices:
		s.Services = ResolveServices(raw)
	case models.SectionFaq:
		s.Faq = ResolveFaq(raw)
	case models.SectionHero:
		s.Hero = ResolveHero(raw)
	case models.SectionServicesBackground:
		s.ServicesBackground = ResolveServicesBackground(raw)
	case models.SectionTransparentPricing:
		s.Pricing = ResolveTransparentPricing(raw)
	}
}
