// Package service provides application use cases.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"repair-offers-service/internal/domain"
)

// errProviderDisabled reports a requested source with no configured provider.
var errProviderDisabled = errors.New("provider is not enabled")

// SearchService aggregates repair-part offers across marketplace providers.
type SearchService struct {
	providers []domain.Provider
	cache     domain.Cache
	enricher  *ImageEnricher
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewSearchService creates a new SearchService. cache may be nil to disable
// result caching; enricher may be nil to skip image enrichment.
func NewSearchService(
	providers []domain.Provider,
	cache domain.Cache,
	enricher *ImageEnricher,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *SearchService {
	return &SearchService{
		providers: providers,
		cache:     cache,
		enricher:  enricher,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// cachePayload is the serialized form of one aggregation pass. Provider
// errors are stored too, so a cached partial result replays its caveats.
type cachePayload struct {
	Offers         []domain.Offer           `json:"offers"`
	ProviderErrors map[domain.Source]string `json:"providerErrors,omitempty"`
}

// providerOutcome is one provider's slot in the fan-out result slice.
type providerOutcome struct {
	source domain.Source
	offers []domain.Offer
	err    error
}

// Search runs one aggregation pass: cache lookup, concurrent provider
// fan-out, normalization, ranking. Provider failures degrade the result
// instead of failing it; only an invalid spec is an error.
func (s *SearchService) Search(ctx context.Context, spec domain.SearchSpec, forceRefresh bool) (*domain.AggregationResult, error) {
	if err := spec.Normalize(); err != nil {
		return nil, err
	}

	key := "search:" + spec.Fingerprint()

	if s.cache != nil && !forceRefresh {
		if result := s.fromCache(ctx, key); result != nil {
			return result, nil
		}
	}

	outcomes := s.fanOut(ctx, spec)

	var offers []domain.Offer
	providerErrors := map[domain.Source]string{}
	succeeded := 0
	for _, outcome := range outcomes {
		if outcome.err != nil {
			providerErrors[outcome.source] = outcome.err.Error()
			continue
		}
		succeeded++
		offers = append(offers, outcome.offers...)
	}

	offers = domain.DedupeOffers(offers)
	offers = domain.FilterByMaxPrice(offers, spec.MaxPriceEur)
	domain.RankOffers(offers)

	if s.enricher != nil {
		s.enricher.Enrich(ctx, offers)
	}

	result := &domain.AggregationResult{
		Offers:         offers,
		Cached:         false,
		QueryKey:       key,
		ProviderErrors: providerErrors,
	}

	// A pass where every provider failed says nothing about the market;
	// caching it would pin an empty result for the full TTL.
	if s.cache != nil && succeeded > 0 {
		s.toCache(ctx, key, result)
	}

	s.logger.Info("search completed",
		zap.String("key", key),
		zap.Int("offers", len(offers)),
		zap.Int("providers_failed", len(providerErrors)),
	)

	return result, nil
}

// fanOut queries every requested source concurrently. Outcomes land in an
// indexed slice, so merge order follows the requested source order
// deterministically.
func (s *SearchService) fanOut(ctx context.Context, spec domain.SearchSpec) []providerOutcome {
	byName := make(map[domain.Source]domain.Provider, len(s.providers))
	for _, p := range s.providers {
		byName[p.Name()] = p
	}

	outcomes := make([]providerOutcome, len(spec.Sources))
	var wg sync.WaitGroup

	for i, source := range spec.Sources {
		provider, ok := byName[source]
		if !ok {
			outcomes[i] = providerOutcome{
				source: source,
				err:    domain.NewProviderError(source, errProviderDisabled),
			}
			continue
		}

		wg.Add(1)
		go func(idx int, p domain.Provider) {
			defer wg.Done()

			start := time.Now()
			offers, err := p.Search(ctx, spec)
			if err != nil {
				s.logger.Warn("provider search failed",
					zap.String("provider", string(p.Name())),
					zap.Duration("duration", time.Since(start)),
					zap.Error(err),
				)
				outcomes[idx] = providerOutcome{source: p.Name(), err: err}
				return
			}

			s.logger.Debug("provider search completed",
				zap.String("provider", string(p.Name())),
				zap.Int("count", len(offers)),
				zap.Duration("duration", time.Since(start)),
			)
			outcomes[idx] = providerOutcome{source: p.Name(), offers: offers}
		}(i, provider)
	}

	wg.Wait()

	return outcomes
}

// fromCache returns the replayed result for key, or nil on miss. A corrupt
// entry is treated as a miss; the fresh pass will overwrite it.
func (s *SearchService) fromCache(ctx context.Context, key string) *domain.AggregationResult {
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}

	var payload cachePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.logger.Warn("discarding corrupt cache entry",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil
	}

	return &domain.AggregationResult{
		Offers:         payload.Offers,
		Cached:         true,
		QueryKey:       key,
		ProviderErrors: payload.ProviderErrors,
	}
}

// toCache stores the pass result. Cache write failures are logged and
// swallowed; the caller already has the fresh result.
func (s *SearchService) toCache(ctx context.Context, key string, result *domain.AggregationResult) {
	data, err := json.Marshal(cachePayload{
		Offers:         result.Offers,
		ProviderErrors: result.ProviderErrors,
	})
	if err != nil {
		s.logger.Error("marshaling cache payload failed", zap.Error(err))
		return
	}

	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Error("cache write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
