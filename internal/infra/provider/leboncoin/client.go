// Package leboncoin implements the Leboncoin marketplace provider.
//
// Leboncoin search pages embed their listing data in a #__NEXT_DATA__ JSON
// blob whose exact shape drifts between deployments; parsing walks the blob
// for ad-shaped nodes instead of relying on a fixed path, and falls back to
// the anchor markup when the blob yields nothing.
package leboncoin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"repair-offers-service/internal/domain"
	"repair-offers-service/internal/infra/provider"
)

// maxOffers caps one search response; Leboncoin result pages are long.
const maxOffers = 120

var (
	listingIDRe = regexp.MustCompile(`/([0-9]+)(?:\.htm)?/?$`)

	// cardPriceRe anchors on the euro sign so model numbers in the listing
	// title ("iPhone 12") are not mistaken for the price.
	cardPriceRe = regexp.MustCompile(`([0-9]+(?:[.,][0-9]{1,2})?)\s*€`)
)

// Client implements domain.Provider for Leboncoin.
type Client struct {
	baseURL string
	client  *resty.Client
	cb      *gobreaker.CircuitBreaker[*resty.Response]
	logger  *zap.Logger
}

// New creates a new Leboncoin client.
func New(cfg provider.ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  provider.NewRestyClient(cfg),
		cb:      provider.NewCircuitBreaker[*resty.Response]("leboncoin", cfg.CB),
		logger:  logger,
	}
}

// Name returns the source identifier.
func (c *Client) Name() domain.Source {
	return domain.SourceLeboncoin
}

// BuildQuery composes the marketplace search phrase for a spec.
// Phrases mirror what a French buyer would type, which keeps result
// relevance acceptable without access to a structured search API.
func BuildQuery(spec domain.SearchSpec) string {
	var base string
	switch {
	case spec.PartType == domain.PartTypeBattery:
		base = fmt.Sprintf("batterie %s %s", spec.Brand, spec.Model)
	case spec.Category == domain.CategoryPhoneNoScreen:
		base = fmt.Sprintf("%s %s sans ecran pour pieces", spec.Brand, spec.Model)
	default:
		base = fmt.Sprintf("ecran %s %s remplacement", spec.Brand, spec.Model)
	}

	return base + " telephones mobiles pieces"
}

// Search retrieves offers for the spec from the Leboncoin search page.
func (c *Client) Search(ctx context.Context, spec domain.SearchSpec) ([]domain.Offer, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("text", BuildQuery(spec))
	if spec.MaxPriceEur > 0 {
		req.SetQueryParam("price", fmt.Sprintf("min-%d", int(spec.MaxPriceEur)))
	}

	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		r, err := req.Get("/recherche")
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fmt.Errorf("leboncoin returned status %d", r.StatusCode())
		}

		return r, nil
	})

	if err != nil {
		c.logger.Warn("leboncoin fetch failed",
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, fmt.Errorf("fetching from leboncoin: %w", err)
	}

	offers, skipped, err := c.parse(resp.Body(), spec)
	if err != nil {
		return nil, fmt.Errorf("parsing leboncoin response: %w", err)
	}

	c.logger.Info("leboncoin search completed",
		zap.Int("count", len(offers)),
		zap.Int("skipped", skipped),
	)

	return offers, nil
}

// parse extracts offers from a search page. Individual malformed listings are
// skipped and counted; only an unreadable document is an error.
func (c *Client) parse(body []byte, spec domain.SearchSpec) ([]domain.Offer, int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}

	offers, skipped := c.parseNextData(doc, spec)
	if len(offers) == 0 {
		var fallbackSkipped int
		offers, fallbackSkipped = c.parseAnchors(doc, spec)
		skipped += fallbackSkipped
	}

	if len(offers) > maxOffers {
		offers = offers[:maxOffers]
	}

	return offers, skipped, nil
}

// parseNextData pulls listings out of the embedded #__NEXT_DATA__ JSON.
func (c *Client) parseNextData(doc *goquery.Document, spec domain.SearchSpec) ([]domain.Offer, int) {
	raw := doc.Find("script#__NEXT_DATA__").First().Text()
	if raw == "" {
		return nil, 0
	}

	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		c.logger.Debug("leboncoin __NEXT_DATA__ is not valid JSON", zap.Error(err))
		return nil, 0
	}

	var candidates []map[string]any
	walkForAds(payload, &candidates)

	offers := make([]domain.Offer, 0, len(candidates))
	skipped := 0
	for _, row := range candidates {
		offer, ok := c.offerFromAd(row, spec)
		if !ok {
			skipped++
			continue
		}
		offers = append(offers, offer)
	}

	return offers, skipped
}

// walkForAds collects every node that looks like an ad record. Leboncoin
// payloads vary, so the match is structural: a title, a url and a price.
func walkForAds(node any, out *[]map[string]any) {
	switch n := node.(type) {
	case map[string]any:
		_, hasSubject := n["subject"]
		_, hasTitle := n["title"]
		_, hasURL := n["url"]
		_, hasPrice := n["price"]
		_, hasCents := n["price_cents"]
		if (hasSubject || hasTitle) && hasURL && (hasPrice || hasCents) {
			*out = append(*out, n)
		}
		for _, v := range n {
			walkForAds(v, out)
		}
	case []any:
		for _, v := range n {
			walkForAds(v, out)
		}
	}
}

// offerFromAd normalizes one ad record into an Offer.
func (c *Client) offerFromAd(row map[string]any, spec domain.SearchSpec) (domain.Offer, bool) {
	title := domain.NormalizeSpaces(stringField(row, "subject"))
	if title == "" {
		title = domain.NormalizeSpaces(stringField(row, "title"))
	}
	rawURL := stringField(row, "url")
	if title == "" || rawURL == "" {
		return domain.Offer{}, false
	}

	price := priceField(row)
	if price <= 0 {
		return domain.Offer{}, false
	}

	listingID := stringField(row, "list_id")
	if listingID == "" {
		listingID = stringField(row, "ad_id")
	}
	if listingID == "" {
		listingID = stringField(row, "id")
	}
	fullURL := c.absoluteURL(rawURL)
	if listingID == "" {
		listingID = listingIDFromURL(fullURL)
	}

	var location string
	if loc, ok := row["location"].(map[string]any); ok {
		location = domain.NormalizeSpaces(stringField(loc, "city"))
	}

	var imageURL string
	if images, ok := row["images"].(map[string]any); ok {
		if urls, ok := images["urls"].(map[string]any); ok {
			imageURL = stringField(urls, "small")
			if imageURL == "" {
				imageURL = stringField(urls, "thumb_url")
			}
		}
	}

	offer := domain.Offer{
		Source:        domain.SourceLeboncoin,
		SourceOfferID: listingID,
		Title:         title,
		URL:           fullURL,
		ImageURL:      imageURL,
		PriceEur:      price,
		ShippingEur:   0, // listings are local pickup by default
		Location:      location,
		QueryType:     spec.PartType,
	}
	offer.Finalize()

	return offer, true
}

// parseAnchors is the markup fallback when no ad data was embedded.
func (c *Client) parseAnchors(doc *goquery.Document, spec domain.SearchSpec) ([]domain.Offer, int) {
	var offers []domain.Offer
	skipped := 0

	doc.Find("a[href*='/ad/'], a[href$='.htm']").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		title := domain.NormalizeSpaces(sel.Text())
		if href == "" || len(title) < 6 {
			return
		}

		cardText := domain.NormalizeSpaces(sel.Parent().Text())
		var price float64
		if m := cardPriceRe.FindStringSubmatch(cardText); m != nil {
			price = domain.ParsePriceEur(m[1] + " €")
		}
		if price <= 0 {
			skipped++
			return
		}

		fullURL := c.absoluteURL(href)
		offer := domain.Offer{
			Source:        domain.SourceLeboncoin,
			SourceOfferID: listingIDFromURL(fullURL),
			Title:         title,
			URL:           fullURL,
			PriceEur:      price,
			QueryType:     spec.PartType,
		}
		offer.Finalize()
		offers = append(offers, offer)
	})

	return offers, skipped
}

func (c *Client) absoluteURL(raw string) string {
	if strings.HasPrefix(raw, "http") {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return c.baseURL + raw
}

// listingIDFromURL extracts the numeric listing id, falling back to the URL
// itself when none is present.
func listingIDFromURL(u string) string {
	if m := listingIDRe.FindStringSubmatch(domain.CanonicalURL(u)); m != nil {
		return m[1]
	}
	return u
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

// priceField handles the three price encodings seen in the wild: a list of
// amounts, a bare number, or integer cents.
func priceField(row map[string]any) float64 {
	switch v := row["price"].(type) {
	case []any:
		if len(v) > 0 {
			if f, ok := v[0].(float64); ok {
				return f
			}
		}
	case float64:
		return v
	}
	if cents, ok := row["price_cents"].(float64); ok {
		return cents / 100
	}
	return 0
}
