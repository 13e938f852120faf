package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"repair-offers-service/internal/domain"
	redisinfra "repair-offers-service/internal/infra/redis"
)

// stubProvider serves canned offers and counts how often it was queried.
type stubProvider struct {
	name   domain.Source
	offers []domain.Offer
	err    error
	calls  atomic.Int32
}

func (p *stubProvider) Name() domain.Source { return p.name }

func (p *stubProvider) Search(_ context.Context, _ domain.SearchSpec) ([]domain.Offer, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.offers, nil
}

func stubOffer(source domain.Source, id string, price, shipping float64) domain.Offer {
	o := domain.Offer{
		Source:        source,
		SourceOfferID: id,
		Title:         "Ecran iPhone 12 " + id,
		URL:           "https://example.org/" + id,
		PriceEur:      price,
		ShippingEur:   shipping,
		QueryType:     domain.PartTypeScreen,
	}
	o.Finalize()
	return o
}

func newTestCache(t *testing.T) (domain.Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redisinfra.NewCache(client, zap.NewNop(), "test"), mr
}

func testSpec() domain.SearchSpec {
	return domain.SearchSpec{
		Brand:    "apple",
		Model:    "iphone 12",
		PartType: domain.PartTypeScreen,
		Sources:  []domain.Source{domain.SourceLeboncoin, domain.SourceEbay},
	}
}

func TestSearch_MergesAndRanksAcrossProviders(t *testing.T) {
	lbc := &stubProvider{name: domain.SourceLeboncoin, offers: []domain.Offer{
		stubOffer(domain.SourceLeboncoin, "l1", 40, 5),
	}}
	ebay := &stubProvider{name: domain.SourceEbay, offers: []domain.Offer{
		stubOffer(domain.SourceEbay, "e1", 38, 8),
		stubOffer(domain.SourceEbay, "e1", 38, 8), // duplicate listing
	}}

	svc := NewSearchService([]domain.Provider{lbc, ebay}, nil, nil, 900*time.Second, zap.NewNop())

	result, err := svc.Search(context.Background(), testSpec(), false)
	require.NoError(t, err)

	require.Len(t, result.Offers, 2)
	assert.Equal(t, 45.0, result.Offers[0].TotalEur, "cheapest total ranks first")
	assert.Equal(t, domain.SourceLeboncoin, result.Offers[0].Source)
	assert.Equal(t, 46.0, result.Offers[1].TotalEur)
	assert.False(t, result.Cached)
	assert.Empty(t, result.ProviderErrors)
}

func TestSearch_SecondPassServedFromCache(t *testing.T) {
	lbc := &stubProvider{name: domain.SourceLeboncoin, offers: []domain.Offer{
		stubOffer(domain.SourceLeboncoin, "l1", 40, 5),
	}}
	cache, _ := newTestCache(t)

	svc := NewSearchService([]domain.Provider{lbc}, cache, nil, 900*time.Second, zap.NewNop())

	spec := testSpec()
	spec.Sources = []domain.Source{domain.SourceLeboncoin}

	first, err := svc.Search(context.Background(), spec, false)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Search(context.Background(), spec, false)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Offers, second.Offers)
	assert.Equal(t, first.QueryKey, second.QueryKey)

	assert.Equal(t, int32(1), lbc.calls.Load(), "cache hit does not touch the provider")
}

func TestSearch_FingerprintFoldsCasingAndSourceOrder(t *testing.T) {
	lbc := &stubProvider{name: domain.SourceLeboncoin, offers: []domain.Offer{
		stubOffer(domain.SourceLeboncoin, "l1", 40, 5),
	}}
	ebay := &stubProvider{name: domain.SourceEbay}
	cache, _ := newTestCache(t)

	svc := NewSearchService([]domain.Provider{lbc, ebay}, cache, nil, 900*time.Second, zap.NewNop())

	_, err := svc.Search(context.Background(), testSpec(), false)
	require.NoError(t, err)

	variant := domain.SearchSpec{
		Brand:    "Apple",
		Model:    "iPhone 12",
		PartType: domain.PartTypeScreen,
		Sources:  []domain.Source{domain.SourceEbay, domain.SourceLeboncoin},
	}
	result, err := svc.Search(context.Background(), variant, false)
	require.NoError(t, err)

	assert.True(t, result.Cached, "equivalent specs share one cache entry")
}

func TestSearch_ForceRefreshBypassesCacheRead(t *testing.T) {
	lbc := &stubProvider{name: domain.SourceLeboncoin, offers: []domain.Offer{
		stubOffer(domain.SourceLeboncoin, "l1", 40, 5),
	}}
	cache, _ := newTestCache(t)

	svc := NewSearchService([]domain.Provider{lbc}, cache, nil, 900*time.Second, zap.NewNop())

	spec := testSpec()
	spec.Sources = []domain.Source{domain.SourceLeboncoin}

	_, err := svc.Search(context.Background(), spec, false)
	require.NoError(t, err)

	refreshed, err := svc.Search(context.Background(), spec, true)
	require.NoError(t, err)
	assert.False(t, refreshed.Cached)
	assert.Equal(t, int32(2), lbc.calls.Load())

	// The refresh rewrote the entry, so a plain search hits it again.
	third, err := svc.Search(context.Background(), spec, false)
	require.NoError(t, err)
	assert.True(t, third.Cached)
	assert.Equal(t, int32(2), lbc.calls.Load())
}

func TestSearch_CacheEntryExpires(t *testing.T) {
	lbc := &stubProvider{name: domain.SourceLeboncoin, offers: []domain.Offer{
		stubOffer(domain.SourceLeboncoin, "l1", 40, 5),
	}}
	cache, mr := newTestCache(t)

	svc := NewSearchService([]domain.Provider{lbc}, cache, nil, 900*time.Second, zap.NewNop())

	spec := testSpec()
	spec.Sources = []domain.Source{domain.SourceLeboncoin}

	_, err := svc.Search(context.Background(), spec, false)
	require.NoError(t, err)

	mr.FastForward(901 * time.Second)

	result, err := svc.Search(context.Background(), spec, false)
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, int32(2), lbc.calls.Load())
}

func TestSearch_PartialFailureDegradesResult(t *testing.T) {
	lbc := &stubProvider{name: domain.SourceLeboncoin, err: errors.New("fetching from leboncoin: status 403")}
	ebay := &stubProvider{name: domain.SourceEbay, offers: []domain.Offer{
		stubOffer(domain.SourceEbay, "e1", 38, 8),
	}}
	cache, _ := newTestCache(t)

	svc := NewSearchService([]domain.Provider{lbc, ebay}, cache, nil, 900*time.Second, zap.NewNop())

	result, err := svc.Search(context.Background(), testSpec(), false)
	require.NoError(t, err, "a failed provider does not fail the search")

	require.Len(t, result.Offers, 1)
	assert.Equal(t, domain.SourceEbay, result.Offers[0].Source)
	assert.Contains(t, result.ProviderErrors[domain.SourceLeboncoin], "403")

	// Partial results are still worth caching; the caveat is stored with them.
	cached, err := svc.Search(context.Background(), testSpec(), false)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Contains(t, cached.ProviderErrors[domain.SourceLeboncoin], "403")
}

func TestSearch_TotalFailureIsNotCached(t *testing.T) {
	lbc := &stubProvider{name: domain.SourceLeboncoin, err: errors.New("boom")}
	ebay := &stubProvider{name: domain.SourceEbay, err: errors.New("boom")}
	cache, _ := newTestCache(t)

	svc := NewSearchService([]domain.Provider{lbc, ebay}, cache, nil, 900*time.Second, zap.NewNop())

	result, err := svc.Search(context.Background(), testSpec(), false)
	require.NoError(t, err)
	assert.Empty(t, result.Offers)
	assert.Len(t, result.ProviderErrors, 2)

	_, err = svc.Search(context.Background(), testSpec(), false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), lbc.calls.Load(), "an all-failed pass is retried, not replayed")
}

func TestSearch_RequestedSourceNotEnabled(t *testing.T) {
	ebay := &stubProvider{name: domain.SourceEbay, offers: []domain.Offer{
		stubOffer(domain.SourceEbay, "e1", 38, 8),
	}}

	svc := NewSearchService([]domain.Provider{ebay}, nil, nil, 900*time.Second, zap.NewNop())

	result, err := svc.Search(context.Background(), testSpec(), false)
	require.NoError(t, err)

	require.Len(t, result.Offers, 1)
	assert.Contains(t, result.ProviderErrors[domain.SourceLeboncoin], "not enabled")
}

func TestSearch_MaxPriceCapsResults(t *testing.T) {
	ebay := &stubProvider{name: domain.SourceEbay, offers: []domain.Offer{
		stubOffer(domain.SourceEbay, "cheap", 10, 5),
		stubOffer(domain.SourceEbay, "dear", 90, 10),
	}}

	svc := NewSearchService([]domain.Provider{ebay}, nil, nil, 900*time.Second, zap.NewNop())

	spec := testSpec()
	spec.Sources = []domain.Source{domain.SourceEbay}
	spec.MaxPriceEur = 50

	result, err := svc.Search(context.Background(), spec, false)
	require.NoError(t, err)

	require.Len(t, result.Offers, 1)
	assert.Equal(t, "cheap", result.Offers[0].SourceOfferID)
}

func TestSearch_InvalidSpec(t *testing.T) {
	svc := NewSearchService(nil, nil, nil, 900*time.Second, zap.NewNop())

	_, err := svc.Search(context.Background(), domain.SearchSpec{Model: "iphone 12"}, false)

	var specErr *domain.SpecError
	require.ErrorAs(t, err, &specErr)
	assert.Equal(t, "brand", specErr.Field)
}
