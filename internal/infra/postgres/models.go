package postgres

import (
	"time"

	"repair-offers-service/internal/domain"
)

// FavoriteModel is the GORM model for the favorites table. The offer fields
// are a snapshot taken at pin time, so a favorite stays displayable after the
// source listing disappears.
type FavoriteModel struct {
	FavoriteID int64 `gorm:"primaryKey;autoIncrement"`

	OfferID       string `gorm:"type:varchar(40);not null;index"`
	Source        string `gorm:"type:varchar(20);not null;index:idx_source_offer,unique"`
	SourceOfferID string `gorm:"type:varchar(300);not null;index:idx_source_offer,unique"`

	Title    string `gorm:"type:varchar(500);not null"`
	URL      string `gorm:"type:text;not null"`
	ImageURL string `gorm:"type:text"`

	PriceEur    float64 `gorm:"type:decimal(10,2);not null"`
	ShippingEur float64 `gorm:"type:decimal(10,2);not null"`
	TotalEur    float64 `gorm:"type:decimal(10,2);not null;index"`

	Location        string `gorm:"type:varchar(200)"`
	ConditionText   string `gorm:"type:varchar(200)"`
	IsRecentlyAdded bool   `gorm:"default:false"`
	QueryType       string `gorm:"type:varchar(20)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for FavoriteModel.
func (FavoriteModel) TableName() string {
	return "favorites"
}

// ToDomain converts FavoriteModel to domain.Favorite.
func (m *FavoriteModel) ToDomain() *domain.Favorite {
	return &domain.Favorite{
		FavoriteID: m.FavoriteID,
		CreatedAt:  m.CreatedAt,
		Offer: domain.Offer{
			ID:              m.OfferID,
			Source:          domain.Source(m.Source),
			SourceOfferID:   m.SourceOfferID,
			Title:           m.Title,
			URL:             m.URL,
			ImageURL:        m.ImageURL,
			PriceEur:        m.PriceEur,
			ShippingEur:     m.ShippingEur,
			TotalEur:        m.TotalEur,
			Location:        m.Location,
			ConditionText:   m.ConditionText,
			IsRecentlyAdded: m.IsRecentlyAdded,
			QueryType:       domain.PartType(m.QueryType),
		},
	}
}

// FromOffer creates a FavoriteModel snapshot from an offer.
func FromOffer(o domain.Offer) *FavoriteModel {
	return &FavoriteModel{
		OfferID:         o.ID,
		Source:          string(o.Source),
		SourceOfferID:   o.SourceOfferID,
		Title:           o.Title,
		URL:             o.URL,
		ImageURL:        o.ImageURL,
		PriceEur:        o.PriceEur,
		ShippingEur:     o.ShippingEur,
		TotalEur:        o.TotalEur,
		Location:        o.Location,
		ConditionText:   o.ConditionText,
		IsRecentlyAdded: o.IsRecentlyAdded,
		QueryType:       string(o.QueryType),
	}
}
