package service

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"repair-offers-service/internal/domain"
)

// ImageEnricher backfills missing offer images by fetching each listing page
// and reading its social preview metadata. Enrichment is best effort: a
// failed fetch leaves the offer without an image, never fails the search.
type ImageEnricher struct {
	client       *resty.Client
	cache        domain.Cache
	workers      int
	maxPerSearch int
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// EnricherConfig holds image enrichment settings.
type EnricherConfig struct {
	Workers      int
	MaxPerSearch int
	Timeout      time.Duration
	CacheTTL     time.Duration
}

// NewImageEnricher creates a new ImageEnricher. cache may be nil, in which
// case every enrichment pass refetches.
func NewImageEnricher(cfg EnricherConfig, cache domain.Cache, logger *zap.Logger) *ImageEnricher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	return &ImageEnricher{
		client:       resty.New().SetTimeout(cfg.Timeout),
		cache:        cache,
		workers:      cfg.Workers,
		maxPerSearch: cfg.MaxPerSearch,
		cacheTTL:     cfg.CacheTTL,
		logger:       logger,
	}
}

// Enrich fills ImageURL in place for offers that lack one, bounded by the
// per-search budget and the worker pool size.
func (e *ImageEnricher) Enrich(ctx context.Context, offers []domain.Offer) {
	var pending []int
	for i := range offers {
		if offers[i].ImageURL == "" && offers[i].URL != "" {
			pending = append(pending, i)
		}
		if e.maxPerSearch > 0 && len(pending) >= e.maxPerSearch {
			break
		}
	}
	if len(pending) == 0 {
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				offers[idx].ImageURL = e.imageFor(ctx, offers[idx].URL)
			}
		}()
	}

	for _, idx := range pending {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
}

// imageFor resolves the preview image for a listing URL, memoized so repeat
// searches do not refetch the same page.
func (e *ImageEnricher) imageFor(ctx context.Context, listingURL string) string {
	cacheKey := "img:" + domain.CanonicalURL(listingURL)

	if e.cache != nil {
		if data, err := e.cache.Get(ctx, cacheKey); err == nil && data != nil {
			return string(data)
		}
	}

	imageURL := e.fetchImage(ctx, listingURL)

	// Negative results are cached too; a listing without an image stays
	// imageless for the whole TTL instead of being refetched every search.
	if e.cache != nil {
		if err := e.cache.Set(ctx, cacheKey, []byte(imageURL), e.cacheTTL); err != nil {
			e.logger.Debug("image cache write failed", zap.Error(err))
		}
	}

	return imageURL
}

func (e *ImageEnricher) fetchImage(ctx context.Context, listingURL string) string {
	resp, err := e.client.R().SetContext(ctx).Get(listingURL)
	if err != nil || resp.IsError() {
		e.logger.Debug("image fetch failed",
			zap.String("url", listingURL),
			zap.Error(err),
		)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return ""
	}

	return normalizeImageURL(extractImage(doc))
}

// extractImage prefers social preview tags over in-page images, matching
// what the marketplaces themselves consider the listing's main photo.
func extractImage(doc *goquery.Document) string {
	if src, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && src != "" {
		return src
	}
	if src, ok := doc.Find(`meta[name="twitter:image"]`).First().Attr("content"); ok && src != "" {
		return src
	}
	if src, ok := doc.Find("img[src]").First().Attr("src"); ok {
		return src
	}
	return ""
}

// normalizeImageURL fixes protocol-relative URLs and rejects inline data URIs.
func normalizeImageURL(src string) string {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	if strings.HasPrefix(src, "data:") {
		return ""
	}
	return src
}
