package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"repair-offers-service/internal/domain"
)

func newTestEnricher(t *testing.T, cache domain.Cache) *ImageEnricher {
	t.Helper()

	e := NewImageEnricher(EnricherConfig{
		Workers:      2,
		MaxPerSearch: 10,
		Timeout:      time.Second,
		CacheTTL:     time.Hour,
	}, cache, zap.NewNop())

	httpmock.ActivateNonDefault(e.client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	return e
}

func TestEnrich_FillsMissingImagesFromMetadata(t *testing.T) {
	e := newTestEnricher(t, nil)

	httpmock.RegisterResponder(http.MethodGet, "https://example.org/with-og",
		httpmock.NewStringResponder(http.StatusOK,
			`<html><head><meta property="og:image" content="https://img.example.org/a.jpg"></head></html>`))
	httpmock.RegisterResponder(http.MethodGet, "https://example.org/protocol-relative",
		httpmock.NewStringResponder(http.StatusOK,
			`<html><head><meta property="og:image" content="//img.example.org/b.jpg"></head></html>`))

	offers := []domain.Offer{
		{URL: "https://example.org/with-og"},
		{URL: "https://example.org/protocol-relative"},
		{URL: "https://example.org/already-has-one", ImageURL: "https://img.example.org/keep.jpg"},
	}

	e.Enrich(context.Background(), offers)

	assert.Equal(t, "https://img.example.org/a.jpg", offers[0].ImageURL)
	assert.Equal(t, "https://img.example.org/b.jpg", offers[1].ImageURL, "protocol-relative URL gains a scheme")
	assert.Equal(t, "https://img.example.org/keep.jpg", offers[2].ImageURL, "existing image is untouched")
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestEnrich_MemoizesThroughCache(t *testing.T) {
	cache, _ := newTestCache(t)
	e := newTestEnricher(t, cache)

	httpmock.RegisterResponder(http.MethodGet, "https://example.org/listing",
		httpmock.NewStringResponder(http.StatusOK,
			`<html><head><meta property="og:image" content="https://img.example.org/a.jpg"></head></html>`))

	first := []domain.Offer{{URL: "https://example.org/listing"}}
	e.Enrich(context.Background(), first)
	require.Equal(t, "https://img.example.org/a.jpg", first[0].ImageURL)

	second := []domain.Offer{{URL: "https://example.org/listing"}}
	e.Enrich(context.Background(), second)
	assert.Equal(t, "https://img.example.org/a.jpg", second[0].ImageURL)

	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "second pass is served from cache")
}

func TestEnrich_FailedFetchLeavesOfferImageless(t *testing.T) {
	e := newTestEnricher(t, nil)

	httpmock.RegisterResponder(http.MethodGet, "https://example.org/gone",
		httpmock.NewStringResponder(http.StatusNotFound, "gone"))

	offers := []domain.Offer{{URL: "https://example.org/gone"}}
	e.Enrich(context.Background(), offers)

	assert.Empty(t, offers[0].ImageURL)
}

func TestEnrich_HonorsPerSearchBudget(t *testing.T) {
	cache, _ := newTestCache(t)
	e := NewImageEnricher(EnricherConfig{
		Workers:      2,
		MaxPerSearch: 1,
		Timeout:      time.Second,
		CacheTTL:     time.Hour,
	}, cache, zap.NewNop())

	httpmock.ActivateNonDefault(e.client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder(http.MethodGet, `=~^https://example\.org/.*`,
		httpmock.NewStringResponder(http.StatusOK,
			`<html><head><meta property="og:image" content="https://img.example.org/a.jpg"></head></html>`))

	offers := []domain.Offer{
		{URL: "https://example.org/one"},
		{URL: "https://example.org/two"},
	}
	e.Enrich(context.Background(), offers)

	assert.NotEmpty(t, offers[0].ImageURL)
	assert.Empty(t, offers[1].ImageURL, "budget caps enrichment at one listing")
}
