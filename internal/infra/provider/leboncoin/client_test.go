package leboncoin

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"repair-offers-service/internal/domain"
	"repair-offers-service/internal/infra/provider"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	c := New(provider.ClientConfig{
		BaseURL: "https://www.leboncoin.fr",
		CB:      provider.CBConfig{MaxRequests: 3, FailureRatio: 0.99},
	}, zap.NewNop())

	httpmock.ActivateNonDefault(c.client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	return c
}

const nextDataPage = `<html><body>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"searchData":{"ads":[
  {"subject":"Écran iPhone 12 noir ",
   "url":"/ad/telephonie/2222222222",
   "price":[40],
   "list_id":2222222222,
   "location":{"city":"Lyon"},
   "images":{"urls":{"small":"https://img.leboncoin.fr/a.jpg"}}},
  {"title":"Vitre iPhone 12",
   "url":"https://www.leboncoin.fr/ad/telephonie/3333333333",
   "price_cents":2550},
  {"subject":"Annonce sans prix",
   "url":"/ad/telephonie/4444444444",
   "price":[]}
]}}}}
</script>
</body></html>`

func TestSearch_ParsesEmbeddedAdData(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodGet, "https://www.leboncoin.fr/recherche",
		httpmock.NewStringResponder(http.StatusOK, nextDataPage))

	offers, err := c.Search(context.Background(), domain.SearchSpec{
		Brand:    "apple",
		Model:    "iphone 12",
		PartType: domain.PartTypeScreen,
		Category: domain.CategoryReplacementScreen,
	})

	require.NoError(t, err)
	require.Len(t, offers, 2, "ad without a price is skipped")

	first := offers[0]
	assert.Equal(t, domain.SourceLeboncoin, first.Source)
	assert.Equal(t, "2222222222", first.SourceOfferID)
	assert.Equal(t, "Écran iPhone 12 noir", first.Title)
	assert.Equal(t, "https://www.leboncoin.fr/ad/telephonie/2222222222", first.URL)
	assert.Equal(t, "https://img.leboncoin.fr/a.jpg", first.ImageURL)
	assert.Equal(t, 40.0, first.PriceEur)
	assert.Equal(t, 0.0, first.ShippingEur)
	assert.Equal(t, 40.0, first.TotalEur)
	assert.Equal(t, "Lyon", first.Location)
	assert.Len(t, first.ID, 20)

	second := offers[1]
	assert.Equal(t, "3333333333", second.SourceOfferID)
	assert.Equal(t, 25.5, second.PriceEur, "price_cents is converted to euros")
}

func TestSearch_FallsBackToAnchors(t *testing.T) {
	page := `<html><body>
	<div class="card"><a href="/ad/telephonie/5555555555">Ecran iPhone 12 reconditionne</a><span>35,90 €</span></div>
	<div class="card"><a href="/ad/telephonie/6666666666">Lot vitres diverses</a><span>prix sur demande</span></div>
	</body></html>`

	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodGet, "https://www.leboncoin.fr/recherche",
		httpmock.NewStringResponder(http.StatusOK, page))

	offers, err := c.Search(context.Background(), domain.SearchSpec{
		Brand: "apple", Model: "iphone 12",
		PartType: domain.PartTypeScreen,
		Category: domain.CategoryReplacementScreen,
	})

	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "5555555555", offers[0].SourceOfferID)
	assert.Equal(t, 35.9, offers[0].PriceEur)
	assert.Equal(t, "https://www.leboncoin.fr/ad/telephonie/5555555555", offers[0].URL)
}

func TestSearch_SendsQueryAndPriceCap(t *testing.T) {
	c := newTestClient(t)

	var gotText, gotPrice string
	httpmock.RegisterResponder(http.MethodGet, "https://www.leboncoin.fr/recherche",
		func(req *http.Request) (*http.Response, error) {
			gotText = req.URL.Query().Get("text")
			gotPrice = req.URL.Query().Get("price")
			return httpmock.NewStringResponse(http.StatusOK, "<html></html>"), nil
		})

	_, err := c.Search(context.Background(), domain.SearchSpec{
		Brand: "apple", Model: "iphone 12",
		PartType:    domain.PartTypeScreen,
		Category:    domain.CategoryReplacementScreen,
		MaxPriceEur: 60,
	})

	require.NoError(t, err)
	assert.Equal(t, "ecran apple iphone 12 remplacement telephones mobiles pieces", gotText)
	assert.Equal(t, "min-60", gotPrice)
}

func TestSearch_UpstreamError(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodGet, "https://www.leboncoin.fr/recherche",
		httpmock.NewStringResponder(http.StatusForbidden, "blocked"))

	_, err := c.Search(context.Background(), domain.SearchSpec{
		Brand: "apple", Model: "iphone 12",
		PartType: domain.PartTypeScreen,
		Category: domain.CategoryReplacementScreen,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching from leboncoin")
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name string
		spec domain.SearchSpec
		want string
	}{
		{
			name: "replacement screen",
			spec: domain.SearchSpec{Brand: "apple", Model: "iphone 12", PartType: domain.PartTypeScreen, Category: domain.CategoryReplacementScreen},
			want: "ecran apple iphone 12 remplacement telephones mobiles pieces",
		},
		{
			name: "phone without screen",
			spec: domain.SearchSpec{Brand: "apple", Model: "iphone 12", PartType: domain.PartTypeScreen, Category: domain.CategoryPhoneNoScreen},
			want: "apple iphone 12 sans ecran pour pieces telephones mobiles pieces",
		},
		{
			name: "battery overrides category",
			spec: domain.SearchSpec{Brand: "samsung", Model: "galaxy s21", PartType: domain.PartTypeBattery, Category: domain.CategoryReplacementScreen},
			want: "batterie samsung galaxy s21 telephones mobiles pieces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQuery(tt.spec))
		})
	}
}

func TestListingIDFromURL(t *testing.T) {
	assert.Equal(t, "2222222222", listingIDFromURL("https://www.leboncoin.fr/ad/telephonie/2222222222"))
	assert.Equal(t, "77", listingIDFromURL("https://www.leboncoin.fr/vi/77.htm"))

	raw := "https://www.leboncoin.fr/nothing-numeric"
	assert.Equal(t, raw, listingIDFromURL(raw))
}
