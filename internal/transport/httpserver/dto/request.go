// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import "repair-offers-service/internal/domain"

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Brand    string   `json:"brand" validate:"required,max=100"`
	Model    string   `json:"model" validate:"required,max=100"`
	PartType string   `json:"partType" validate:"required,oneof=screen battery other"`
	Category string   `json:"category" validate:"omitempty,oneof=replacement_screen phone_no_screen"`
	Sources  []string `json:"sources" validate:"omitempty,dive,oneof=leboncoin ebay"`

	MaxPriceEur  float64 `json:"maxPriceEur" validate:"omitempty,gt=0"`
	ForceRefresh bool    `json:"forceRefresh"`
}

// ToSpec converts the request to a domain search spec. An absent sources
// list means every known marketplace.
func (r *SearchRequest) ToSpec() domain.SearchSpec {
	sources := make([]domain.Source, 0, len(r.Sources))
	for _, s := range r.Sources {
		sources = append(sources, domain.Source(s))
	}
	if len(sources) == 0 {
		sources = append(sources, domain.KnownSources...)
	}

	return domain.SearchSpec{
		Brand:       r.Brand,
		Model:       r.Model,
		PartType:    domain.PartType(r.PartType),
		Category:    domain.Category(r.Category),
		Sources:     sources,
		MaxPriceEur: r.MaxPriceEur,
	}
}

// ListFavoritesRequest holds the query parameters of GET /api/v1/favorites.
type ListFavoritesRequest struct {
	Source      string  `query:"source" validate:"omitempty,oneof=leboncoin ebay"`
	Model       string  `query:"model" validate:"max=200"`
	MaxPriceEur float64 `query:"maxPriceEur" validate:"omitempty,gt=0"`
}

// OfferRequest is the offer snapshot a client sends when toggling a
// favorite. Derived fields (id, totalEur) are recomputed server side.
type OfferRequest struct {
	Source        string `json:"source" validate:"required,oneof=leboncoin ebay"`
	SourceOfferID string `json:"sourceOfferId" validate:"required,max=300"`

	Title    string `json:"title" validate:"required,max=500"`
	URL      string `json:"url" validate:"required,url"`
	ImageURL string `json:"imageUrl" validate:"omitempty,max=2000"`

	PriceEur    float64 `json:"priceEur" validate:"gte=0"`
	ShippingEur float64 `json:"shippingEur" validate:"gte=0"`

	Location        string `json:"location" validate:"max=200"`
	ConditionText   string `json:"conditionText" validate:"max=200"`
	IsRecentlyAdded bool   `json:"isRecentlyAdded"`
	QueryType       string `json:"queryType" validate:"omitempty,oneof=screen battery other"`
}

// ToOffer converts the request to a domain offer.
func (r *OfferRequest) ToOffer() domain.Offer {
	return domain.Offer{
		Source:          domain.Source(r.Source),
		SourceOfferID:   r.SourceOfferID,
		Title:           r.Title,
		URL:             r.URL,
		ImageURL:        r.ImageURL,
		PriceEur:        r.PriceEur,
		ShippingEur:     r.ShippingEur,
		Location:        r.Location,
		ConditionText:   r.ConditionText,
		IsRecentlyAdded: r.IsRecentlyAdded,
		QueryType:       domain.PartType(r.QueryType),
	}
}

// ToggleFavoriteRequest is the body of POST /api/v1/favorites/toggle.
type ToggleFavoriteRequest struct {
	Offer OfferRequest `json:"offer" validate:"required"`
}
