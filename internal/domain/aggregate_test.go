package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeOffer(source Source, id, title string, price, shipping float64) Offer {
	o := Offer{
		Source:        source,
		SourceOfferID: id,
		Title:         title,
		URL:           "https://example.com/" + id,
		PriceEur:      price,
		ShippingEur:   shipping,
		QueryType:     PartTypeScreen,
	}
	o.Finalize()
	return o
}

func TestOffer_Finalize_DerivesTotal(t *testing.T) {
	o := Offer{
		Source:        SourceEbay,
		SourceOfferID: "123456789012",
		URL:           "https://www.ebay.fr/itm/123456789012",
		PriceEur:      38,
		ShippingEur:   8,
		TotalEur:      999, // upstream total is never trusted
	}
	o.Finalize()

	assert.Equal(t, 46.0, o.TotalEur)
	assert.Len(t, o.ID, 20)
}

func TestRankOffers_AscendingByTotal(t *testing.T) {
	// The worked example: Leboncoin 40+5=45 ranks before eBay 38+8=46.
	offers := []Offer{
		makeOffer(SourceEbay, "e1", "Ecran iPhone 12", 38, 8),
		makeOffer(SourceLeboncoin, "l1", "Ecran iPhone 12 remplacement", 40, 5),
	}

	RankOffers(offers)

	require.Len(t, offers, 2)
	assert.Equal(t, SourceLeboncoin, offers[0].Source)
	assert.Equal(t, 45.0, offers[0].TotalEur)
	assert.Equal(t, SourceEbay, offers[1].Source)
	assert.Equal(t, 46.0, offers[1].TotalEur)
}

func TestRankOffers_TieBreakSourceThenTitle(t *testing.T) {
	offers := []Offer{
		makeOffer(SourceLeboncoin, "l1", "Zeta screen", 20, 0),
		makeOffer(SourceLeboncoin, "l2", "Alpha screen", 20, 0),
		makeOffer(SourceEbay, "e1", "Mid screen", 20, 0),
	}

	RankOffers(offers)

	assert.Equal(t, SourceEbay, offers[0].Source)
	assert.Equal(t, "Alpha screen", offers[1].Title)
	assert.Equal(t, "Zeta screen", offers[2].Title)
}

func TestRankOffers_NonDecreasing(t *testing.T) {
	offers := []Offer{
		makeOffer(SourceEbay, "a", "A", 12.5, 3),
		makeOffer(SourceLeboncoin, "b", "B", 7, 0),
		makeOffer(SourceEbay, "c", "C", 30, 4.99),
		makeOffer(SourceLeboncoin, "d", "D", 7, 0.01),
	}

	RankOffers(offers)

	for i := 1; i < len(offers); i++ {
		assert.GreaterOrEqual(t, offers[i].TotalEur, offers[i-1].TotalEur)
	}
}

func TestDedupeOffers_KeepsFirstOccurrence(t *testing.T) {
	first := makeOffer(SourceEbay, "dup", "First seen", 10, 0)
	second := makeOffer(SourceEbay, "dup", "Second seen", 12, 0)
	other := makeOffer(SourceLeboncoin, "dup", "Same id, other source", 11, 0)

	out := DedupeOffers([]Offer{first, second, other})

	require.Len(t, out, 2)
	assert.Equal(t, "First seen", out[0].Title)
	assert.Equal(t, SourceLeboncoin, out[1].Source, "same external id on another source is kept")
}

func TestFilterByMaxPrice(t *testing.T) {
	offers := []Offer{
		makeOffer(SourceEbay, "a", "Cheap", 10, 5),
		makeOffer(SourceEbay, "b", "At the cap", 15, 5),
		makeOffer(SourceEbay, "c", "Too dear", 20, 5),
	}

	out := FilterByMaxPrice(offers, 20)

	require.Len(t, out, 2)
	assert.Equal(t, "Cheap", out[0].Title)
	assert.Equal(t, "At the cap", out[1].Title)

	assert.Len(t, FilterByMaxPrice(offers, 0), 3, "zero cap disables filtering")
}
