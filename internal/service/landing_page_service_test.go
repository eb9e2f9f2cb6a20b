package service

import (
	"bytes"
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-radar/internal/domain"
	"lead-radar/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{8}$`)

func newLandingPageFixture(t *testing.T) (*fixture, LandingPageService, string, *domain.Business) {
	t.Helper()
	f := newFixture(t)
	ownerID, business := f.owner(t, "pages@example.com")
	svc := NewLandingPageService(f.businesses, f.pages, f.leads, "https://radar.test/")
	return f, svc, ownerID, business
}

func TestLandingPageService_Create(t *testing.T) {
	_, svc, ownerID, business := newLandingPageFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ownerID, LandingPageInput{Title: "Promo"})
	requireKind(t, err, domain.KindValidation)

	page, err := svc.Create(ctx, ownerID, LandingPageInput{Title: "Promo", Headline: "Pão quentinho", Offer: "10% off"})
	require.NoError(t, err)
	assert.Regexp(t, slugPattern, page.Slug)
	assert.Equal(t, business.ID[:8], page.Slug[:8])
	assert.Equal(t, domain.DefaultCTAText, page.CTAText)
	assert.Zero(t, page.Visits)
	assert.Zero(t, page.Conversions)
	assert.Equal(t, "https://radar.test/p/"+page.Slug, svc.PublicURL(page.Slug))

	updated, err := svc.Update(ctx, ownerID, page.ID, LandingPageInput{Title: "Promo 2", Headline: "Novo", CTAText: "Quero"})
	require.NoError(t, err)
	assert.Equal(t, page.Slug, updated.Slug)
	assert.Equal(t, "Quero", updated.CTAText)

	list, err := svc.List(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Promo 2", list[0].Title)
}

func TestLandingPageService_VisitsAndCapture(t *testing.T) {
	f, svc, ownerID, business := newLandingPageFixture(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, ownerID, LandingPageInput{Title: "Promo", Headline: "H", Offer: "Brinde"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		view, err := svc.View(ctx, page.Slug)
		require.NoError(t, err)
		assert.Equal(t, "Promo", view.Title)
	}
	stored, err := f.pages.GetBySlug(ctx, page.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Visits)

	lead, err := svc.Capture(ctx, page.Slug, LeadInput{Name: "Joana", Phone: "81999990000"})
	require.NoError(t, err)
	assert.Equal(t, business.ID, lead.BusinessID)
	assert.Equal(t, "landing_page:"+page.Slug, lead.Source)
	assert.Equal(t, "Brinde", lead.Interest)
	assert.Equal(t, domain.LeadStatusNew, lead.Status)

	stored, err = f.pages.GetBySlug(ctx, page.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Conversions)

	_, err = svc.View(ctx, "missing-slug")
	requireKind(t, err, domain.KindNotFound)
	_, err = svc.Capture(ctx, "missing-slug", LeadInput{Name: "x"})
	requireKind(t, err, domain.KindNotFound)
}

// deletingPages removes the page right before the conversion is counted.
type deletingPages struct {
	repository.LandingPageRepository
	businessID, pageID string
}

func (p *deletingPages) IncrementConversions(ctx context.Context, slug string) error {
	if err := p.Delete(ctx, p.businessID, p.pageID); err != nil {
		return err
	}
	return p.LandingPageRepository.IncrementConversions(ctx, slug)
}

func TestLandingPageService_CapturePageDeletedMeanwhile(t *testing.T) {
	f, svc, ownerID, business := newLandingPageFixture(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, ownerID, LandingPageInput{Title: "Promo", Headline: "H"})
	require.NoError(t, err)

	racing := NewLandingPageService(f.businesses, &deletingPages{
		LandingPageRepository: f.pages,
		businessID:            business.ID,
		pageID:                page.ID,
	}, f.leads, "https://radar.test")

	_, err = racing.Capture(ctx, page.Slug, LeadInput{Name: "Joana"})
	requireKind(t, err, domain.KindNotFound)
	assert.Equal(t, 0, f.countRows(t, `SELECT COUNT(*) FROM leads`))
}

func TestLandingPageService_ConcurrentVisits(t *testing.T) {
	f, svc, ownerID, _ := newLandingPageFixture(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, ownerID, LandingPageInput{Title: "Promo", Headline: "H"})
	require.NoError(t, err)

	const visitors = 40
	var wg sync.WaitGroup
	for i := 0; i < visitors; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.View(ctx, page.Slug)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := f.pages.GetBySlug(ctx, page.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(visitors), stored.Visits)
}

func TestLandingPageService_QRCode(t *testing.T) {
	_, svc, ownerID, _ := newLandingPageFixture(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, ownerID, LandingPageInput{Title: "Promo", Headline: "H"})
	require.NoError(t, err)

	png, err := svc.QRCode(ctx, ownerID, page.ID, 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))

	_, err = svc.QRCode(ctx, ownerID, page.ID, 4096)
	requireKind(t, err, domain.KindValidation)

	_, err = svc.QRCode(ctx, ownerID, "missing", 0)
	requireKind(t, err, domain.KindNotFound)

	require.NoError(t, svc.Delete(ctx, ownerID, page.ID))
	requireKind(t, svc.Delete(ctx, ownerID, page.ID), domain.KindNotFound)
}
