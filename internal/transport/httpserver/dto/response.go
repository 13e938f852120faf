package dto

import (
	"time"

	"repair-offers-service/internal/domain"
)

// OfferResponse represents a single offer in API responses.
type OfferResponse struct {
	ID            string `json:"id"`
	Source        string `json:"source"`
	SourceOfferID string `json:"sourceOfferId"`

	Title    string `json:"title"`
	URL      string `json:"url"`
	ImageURL string `json:"imageUrl,omitempty"`

	PriceEur    float64 `json:"priceEur"`
	ShippingEur float64 `json:"shippingEur"`
	TotalEur    float64 `json:"totalEur"`

	Location        string `json:"location,omitempty"`
	ConditionText   string `json:"conditionText,omitempty"`
	IsRecentlyAdded bool   `json:"isRecentlyAdded"`
	QueryType       string `json:"queryType,omitempty"`
}

// FromDomainOffer converts domain.Offer to OfferResponse.
func FromDomainOffer(o domain.Offer) OfferResponse {
	return OfferResponse{
		ID:              o.ID,
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

// SearchResponse is the result of one aggregation pass.
type SearchResponse struct {
	Offers         []OfferResponse   `json:"offers"`
	Count          int               `json:"count"`
	Cached         bool              `json:"cached"`
	QueryKey       string            `json:"queryKey"`
	ProviderErrors map[string]string `json:"providerErrors,omitempty"`
}

// FromAggregationResult converts domain.AggregationResult to SearchResponse.
func FromAggregationResult(result *domain.AggregationResult) SearchResponse {
	offers := make([]OfferResponse, len(result.Offers))
	for i, o := range result.Offers {
		offers[i] = FromDomainOffer(o)
	}

	var providerErrors map[string]string
	if len(result.ProviderErrors) > 0 {
		providerErrors = make(map[string]string, len(result.ProviderErrors))
		for source, cause := range result.ProviderErrors {
			providerErrors[string(source)] = cause
		}
	}

	return SearchResponse{
		Offers:         offers,
		Count:          len(offers),
		Cached:         result.Cached,
		QueryKey:       result.QueryKey,
		ProviderErrors: providerErrors,
	}
}

// FavoriteResponse represents one pinned offer.
type FavoriteResponse struct {
	FavoriteID int64         `json:"favoriteId"`
	CreatedAt  string        `json:"createdAt"`
	Offer      OfferResponse `json:"offer"`
}

// FromDomainFavorite converts domain.Favorite to FavoriteResponse.
func FromDomainFavorite(f domain.Favorite) FavoriteResponse {
	return FavoriteResponse{
		FavoriteID: f.FavoriteID,
		CreatedAt:  f.CreatedAt.Format(time.RFC3339),
		Offer:      FromDomainOffer(f.Offer),
	}
}

// FavoritesListResponse is the favorites listing.
type FavoritesListResponse struct {
	Favorites []FavoriteResponse `json:"favorites"`
	Count     int                `json:"count"`
}

// FromDomainFavorites converts a favorites slice to FavoritesListResponse.
func FromDomainFavorites(favorites []domain.Favorite) FavoritesListResponse {
	out := make([]FavoriteResponse, len(favorites))
	for i, f := range favorites {
		out[i] = FromDomainFavorite(f)
	}

	return FavoritesListResponse{Favorites: out, Count: len(out)}
}

// ToggleFavoriteResponse reports the state after a toggle.
type ToggleFavoriteResponse struct {
	Favorited bool              `json:"favorited"`
	Favorite  *FavoriteResponse `json:"favorite,omitempty"`
}

// DeleteFavoriteResponse reports whether a delete removed anything.
type DeleteFavoriteResponse struct {
	Removed bool `json:"removed"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
