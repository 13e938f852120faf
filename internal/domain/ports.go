package domain

import (
	"context"
	"time"
)

// Provider fetches and normalizes listings for one marketplace.
// Implementations: internal/infra/provider/leboncoin, internal/infra/provider/ebay
type Provider interface {
	// Name returns the source this provider serves.
	Name() Source

	// Search retrieves offers matching the spec, bounded by the caller's
	// context. A malformed individual listing is skipped, never fatal; only
	// a wholly unusable response produces an error.
	Search(ctx context.Context, spec SearchSpec) ([]Offer, error)
}

// Cache stores serialized aggregation results under a query fingerprint.
// Expiry is the store's concern: Get returns nil bytes once the TTL elapsed.
// Implementations: internal/infra/redis/cache.go
type Cache interface {
	// Get retrieves a value by key. Returns nil bytes if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value, replacing any previous entry for the key.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// FavoritesRepository persists user-pinned offers keyed by
// (source, sourceOfferId).
// Implementations: internal/infra/postgres/repository.go
type FavoritesRepository interface {
	// List returns all favorites, newest first.
	List(ctx context.Context) ([]Favorite, error)

	// FindByOffer returns the favorite pinned for the given offer key,
	// or nil when none exists.
	FindByOffer(ctx context.Context, source Source, sourceOfferID string) (*Favorite, error)

	// Create stores a favorite from the offer snapshot. Creating twice for
	// the same key updates the snapshot rather than duplicating the row.
	Create(ctx context.Context, offer Offer) (*Favorite, error)

	// Delete removes a favorite by id. Returns false when no row existed;
	// that is not an error.
	Delete(ctx context.Context, favoriteID int64) (bool, error)
}
