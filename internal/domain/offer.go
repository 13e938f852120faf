// Package domain contains the core business logic and entities.
// This package has no external dependencies beyond text helpers.
package domain

import "time"

// Source identifies a marketplace a listing came from.
type Source string

const (
	SourceLeboncoin Source = "leboncoin"
	SourceEbay      Source = "ebay"
)

// KnownSources lists every source the aggregator can fan out to.
var KnownSources = []Source{SourceLeboncoin, SourceEbay}

// IsKnown reports whether the source is part of the closed provider set.
func (s Source) IsKnown() bool {
	switch s {
	case SourceLeboncoin, SourceEbay:
		return true
	default:
		return false
	}
}

// PartType represents the kind of repair part being searched.
type PartType string

const (
	PartTypeScreen  PartType = "screen"
	PartTypeBattery PartType = "battery"
	PartTypeOther   PartType = "other"
)

// Category narrows a search to a listing category.
type Category string

const (
	CategoryReplacementScreen Category = "replacement_screen"
	CategoryPhoneNoScreen     Category = "phone_no_screen"
)

// Offer represents a normalized listing from any marketplace.
//
// TotalEur is always derived from PriceEur + ShippingEur; upstream totals are
// never trusted, even when a source reports one separately.
type Offer struct {
	ID            string `json:"id"`
	Source        Source `json:"source"`
	SourceOfferID string `json:"sourceOfferId"`

	Title    string `json:"title"`
	URL      string `json:"url"`
	ImageURL string `json:"imageUrl,omitempty"`

	PriceEur    float64 `json:"priceEur"`
	ShippingEur float64 `json:"shippingEur"`
	TotalEur    float64 `json:"totalEur"`

	Location      string `json:"location,omitempty"`
	ConditionText string `json:"conditionText,omitempty"`

	// IsRecentlyAdded is a source-specific signal; only eBay exposes it.
	IsRecentlyAdded bool     `json:"isRecentlyAdded"`
	QueryType       PartType `json:"queryType"`
}

// Finalize recomputes the derived fields from the offer's components.
// Providers call this once per parsed listing, after all price fields are set.
func (o *Offer) Finalize() {
	o.PriceEur = Round2(o.PriceEur)
	o.ShippingEur = Round2(o.ShippingEur)
	o.TotalEur = Round2(o.PriceEur + o.ShippingEur)
	o.ID = ComputeOfferID(o.Source, o.SourceOfferID, o.URL)
}

// AggregationResult is the ranked outcome of one search pass.
type AggregationResult struct {
	Offers   []Offer `json:"offers"`
	Cached   bool    `json:"cached"`
	QueryKey string  `json:"queryKey"`

	// ProviderErrors maps each failed source to a human-readable cause.
	// Sources that succeeded (or were not requested) are absent.
	ProviderErrors map[Source]string `json:"providerErrors"`
}

// Favorite is a user-pinned offer snapshot. The snapshot keeps the favorite
// displayable even after the source listing disappears.
type Favorite struct {
	FavoriteID int64     `json:"favoriteId"`
	CreatedAt  time.Time `json:"createdAt"`
	Offer      Offer     `json:"offer"`
}
