package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"repair-offers-service/internal/domain"
)

// Repository implements domain.FavoritesRepository using PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns all favorites, newest first.
func (r *Repository) List(ctx context.Context) ([]domain.Favorite, error) {
	var models []FavoriteModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC, favorite_id DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}

	favorites := make([]domain.Favorite, len(models))
	for i, m := range models {
		favorites[i] = *m.ToDomain()
	}

	return favorites, nil
}

// FindByOffer retrieves a favorite by its source-scoped offer key.
func (r *Repository) FindByOffer(ctx context.Context, source domain.Source, sourceOfferID string) (*domain.Favorite, error) {
	var model FavoriteModel
	err := r.db.WithContext(ctx).
		Where("source = ? AND source_offer_id = ?", string(source), sourceOfferID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("finding favorite by offer: %w", err)
	}

	return model.ToDomain(), nil
}

// Create stores a favorite snapshot. A second create for the same
// (source, source_offer_id) refreshes the snapshot instead of duplicating
// the row, so the returned favorite keeps its original id.
func (r *Repository) Create(ctx context.Context, offer domain.Offer) (*domain.Favorite, error) {
	model := FromOffer(offer)
	model.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source"}, {Name: "source_offer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"offer_id", "title", "url", "image_url",
			"price_eur", "shipping_eur", "total_eur",
			"location", "condition_text", "is_recently_added", "query_type",
			"updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		return nil, fmt.Errorf("creating favorite: %w", err)
	}

	// On conflict the insert does not report the surviving row's id; read it
	// back through the natural key.
	return r.FindByOffer(ctx, offer.Source, offer.SourceOfferID)
}

// Delete removes a favorite by id. Returns false when no row existed.
func (r *Repository) Delete(ctx context.Context, favoriteID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("favorite_id = ?", favoriteID).
		Delete(&FavoriteModel{})
	if result.Error != nil {
		return false, fmt.Errorf("deleting favorite: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}
