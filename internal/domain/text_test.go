package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePriceEur(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"comma decimal with euro sign", "40,50 €", 40.5},
		{"dot decimal", "12.99 EUR", 12.99},
		{"integer", "7 €", 7},
		{"embedded in text", "a saisir 25,00 € port compris", 25},
		{"free shipping text", "Livraison gratuite", 0},
		{"empty", "", 0},
		{"no digits", "prix sur demande", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePriceEur(tt.raw))
		})
	}
}

func TestNormalizeSpaces(t *testing.T) {
	assert.Equal(t, "ecran iPhone 12", NormalizeSpaces("  ecran \n iPhone\t12 "))
	assert.Equal(t, "", NormalizeSpaces("   "))
}

func TestASCIIFold(t *testing.T) {
	assert.Equal(t, "ecran telephone", ASCIIFold("écran téléphone"))
	assert.Equal(t, "Etat", ASCIIFold("État"))
}

func TestCanonicalURL(t *testing.T) {
	assert.Equal(t,
		"https://www.ebay.fr/itm/123456789012",
		CanonicalURL("https://www.ebay.fr/itm/123456789012?hash=abc&_trkparms=x#frag"),
	)
	assert.Equal(t,
		"https://www.leboncoin.fr/ad/telephonie/2222222222",
		CanonicalURL("https://www.leboncoin.fr/ad/telephonie/2222222222/"),
	)
}

func TestComputeOfferID_StableAcrossTracking(t *testing.T) {
	a := ComputeOfferID(SourceEbay, "123456789012", "https://www.ebay.fr/itm/123456789012?var=1")
	b := ComputeOfferID(SourceEbay, "123456789012", "https://www.ebay.fr/itm/123456789012?var=2")

	assert.Equal(t, a, b, "tracking params do not change identity")
	assert.Len(t, a, 20)

	c := ComputeOfferID(SourceLeboncoin, "123456789012", "https://www.ebay.fr/itm/123456789012")
	assert.NotEqual(t, a, c, "identity is source-scoped")
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 46.0, Round2(45.999999))
	assert.Equal(t, 0.1, Round2(0.10000000001))
}
