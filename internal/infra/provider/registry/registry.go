// Package registry builds the set of marketplace providers enabled in
// configuration.
package registry

import (
	"fmt"

	"go.uber.org/zap"

	"repair-offers-service/internal/config"
	"repair-offers-service/internal/domain"
	"repair-offers-service/internal/infra/provider"
	"repair-offers-service/internal/infra/provider/ebay"
	"repair-offers-service/internal/infra/provider/leboncoin"
)

// Build constructs one provider per enabled source name. Unknown names are an
// error so a typo in config fails at startup instead of silently dropping a
// marketplace.
func Build(cfg config.ProviderConfig, logger *zap.Logger) ([]domain.Provider, error) {
	providers := make([]domain.Provider, 0, len(cfg.Enabled))

	for _, name := range cfg.Enabled {
		switch domain.Source(name) {
		case domain.SourceLeboncoin:
			providers = append(providers, leboncoin.New(clientConfig(cfg.Leboncoin), logger))
		case domain.SourceEbay:
			providers = append(providers, ebay.New(clientConfig(cfg.Ebay), logger))
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers enabled")
	}

	return providers, nil
}

func clientConfig(ep config.ProviderEndpoint) provider.ClientConfig {
	return provider.ClientConfig{
		BaseURL: ep.BaseURL,
		Timeout: ep.Timeout,
		Retry: provider.RetryConfig{
			MaxAttempts: ep.Retry.MaxAttempts,
			WaitTime:    ep.Retry.WaitTime,
			MaxWaitTime: ep.Retry.MaxWaitTime,
		},
		CB: provider.CBConfig{
			MaxRequests:  ep.CB.MaxRequests,
			Interval:     ep.CB.Interval,
			Timeout:      ep.CB.Timeout,
			FailureRatio: ep.CB.FailureRatio,
		},
	}
}
