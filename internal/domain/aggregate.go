package domain

import "sort"

// DedupeOffers drops offers whose (source, sourceOfferId) repeats, keeping
// the first occurrence. Input order is preserved, so merging providers in
// spec order makes deduplication deterministic.
func DedupeOffers(offers []Offer) []Offer {
	seen := make(map[string]bool, len(offers))
	out := make([]Offer, 0, len(offers))
	for _, offer := range offers {
		key := string(offer.Source) + "|" + offer.SourceOfferID
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, offer)
	}
	return out
}

// FilterByMaxPrice drops offers whose total cost exceeds the cap.
// A zero cap means no filtering.
func FilterByMaxPrice(offers []Offer, maxPriceEur float64) []Offer {
	if maxPriceEur <= 0 {
		return offers
	}
	out := make([]Offer, 0, len(offers))
	for _, offer := range offers {
		if offer.TotalEur > maxPriceEur {
			continue
		}
		out = append(out, offer)
	}
	return out
}

// RankOffers sorts ascending by total cost, tie-breaking by source name then
// title so identical inputs always rank identically across runs.
func RankOffers(offers []Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		a, b := offers[i], offers[j]
		if a.TotalEur != b.TotalEur {
			return a.TotalEur < b.TotalEur
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Title < b.Title
	})
}
