package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"repair-offers-service/internal/domain"
	"repair-offers-service/pkg/locker"
)

const (
	// toggleLockTTL bounds how long a crashed instance can hold a toggle lock.
	toggleLockTTL = 5 * time.Second

	toggleLockTries = 20
	toggleLockWait  = 50 * time.Millisecond
)

// FavoritesService manages the pinned-offer list. Toggle serializes per
// listing through a distributed lock, so double-clicks and concurrent
// instances converge on one stable state instead of racing the repository.
type FavoritesService struct {
	repo   domain.FavoritesRepository
	locker locker.DistributedLocker
	logger *zap.Logger
}

// NewFavoritesService creates a new FavoritesService.
func NewFavoritesService(repo domain.FavoritesRepository, lock locker.DistributedLocker, logger *zap.Logger) *FavoritesService {
	return &FavoritesService{
		repo:   repo,
		locker: lock,
		logger: logger,
	}
}

// ListFilter narrows the favorites listing. Zero values mean no constraint.
type ListFilter struct {
	Source      domain.Source
	Model       string
	MaxPriceEur float64
}

// Toggle pins the offer, or unpins it when already pinned. Returns the
// created favorite and true on pin, nil and false on unpin.
func (s *FavoritesService) Toggle(ctx context.Context, offer domain.Offer) (*domain.Favorite, bool, error) {
	if !offer.Source.IsKnown() {
		return nil, false, &domain.SpecError{Field: "source", Reason: "is not a known source"}
	}
	if offer.SourceOfferID == "" {
		return nil, false, &domain.SpecError{Field: "sourceOfferId", Reason: "is required"}
	}

	// Recompute derived fields; the snapshot must not trust client totals.
	offer.Finalize()

	lockKey := fmt.Sprintf("favorites:toggle:%s:%s", offer.Source, offer.SourceOfferID)
	if err := s.acquireToggleLock(ctx, lockKey); err != nil {
		return nil, false, err
	}
	defer func() {
		if err := s.locker.Release(ctx, lockKey); err != nil {
			s.logger.Warn("releasing toggle lock failed",
				zap.String("key", lockKey),
				zap.Error(err),
			)
		}
	}()

	existing, err := s.repo.FindByOffer(ctx, offer.Source, offer.SourceOfferID)
	if err != nil {
		return nil, false, err
	}

	if existing != nil {
		if _, err := s.repo.Delete(ctx, existing.FavoriteID); err != nil {
			return nil, false, err
		}

		s.logger.Info("favorite removed",
			zap.String("source", string(offer.Source)),
			zap.String("source_offer_id", offer.SourceOfferID),
		)

		return nil, false, nil
	}

	favorite, err := s.repo.Create(ctx, offer)
	if err != nil {
		return nil, false, err
	}

	s.logger.Info("favorite added",
		zap.String("source", string(offer.Source)),
		zap.String("source_offer_id", offer.SourceOfferID),
		zap.Int64("favorite_id", favorite.FavoriteID),
	)

	return favorite, true, nil
}

// acquireToggleLock waits briefly for the per-listing lock, so concurrent
// toggles of the same listing serialize rather than fail.
func (s *FavoritesService) acquireToggleLock(ctx context.Context, key string) error {
	for try := 0; try < toggleLockTries; try++ {
		acquired, err := s.locker.Acquire(ctx, key, toggleLockTTL)
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(toggleLockWait):
		}
	}

	return fmt.Errorf("toggle already in progress for %s", key)
}

// List returns favorites newest first, narrowed by the filter.
func (s *FavoritesService) List(ctx context.Context, filter ListFilter) ([]domain.Favorite, error) {
	favorites, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	modelKey := domain.FoldKey(filter.Model)

	filtered := make([]domain.Favorite, 0, len(favorites))
	for _, fav := range favorites {
		if filter.Source != "" && fav.Offer.Source != filter.Source {
			continue
		}
		if modelKey != "" && !strings.Contains(domain.FoldKey(fav.Offer.Title), modelKey) {
			continue
		}
		if filter.MaxPriceEur > 0 && fav.Offer.TotalEur > filter.MaxPriceEur {
			continue
		}
		filtered = append(filtered, fav)
	}

	return filtered, nil
}

// Remove deletes a favorite by id. Returns false when it did not exist;
// removal is idempotent.
func (s *FavoritesService) Remove(ctx context.Context, favoriteID int64) (bool, error) {
	removed, err := s.repo.Delete(ctx, favoriteID)
	if err != nil {
		return false, err
	}

	if removed {
		s.logger.Info("favorite removed", zap.Int64("favorite_id", favoriteID))
	}

	return removed, nil
}
