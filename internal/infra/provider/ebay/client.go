// Package ebay implements the eBay France marketplace provider.
package ebay

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"repair-offers-service/internal/domain"
	"repair-offers-service/internal/infra/provider"
)

const (
	searchPath = "/sch/i.html"

	// cellPhonePartsCategory scopes results to "Pièces: téléphones portables".
	cellPhonePartsCategory = "15032"

	// recentIDsTTL bounds how often the newly-listed page is refetched.
	recentIDsTTL = 15 * time.Minute
)

var itemIDRe = regexp.MustCompile(`/itm/(?:[^/]+/)?([0-9]{8,20})`)

// Client implements domain.Provider for eBay France.
type Client struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[*resty.Response]
	logger *zap.Logger

	mu     sync.Mutex
	recent map[string]recentEntry
}

// recentEntry is one cached newly-listed id set, keyed by search phrase.
type recentEntry struct {
	ids       map[string]struct{}
	fetchedAt time.Time
}

// New creates a new eBay client.
func New(cfg provider.ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		client: provider.NewRestyClient(cfg),
		cb:     provider.NewCircuitBreaker[*resty.Response]("ebay", cfg.CB),
		logger: logger,
		recent: map[string]recentEntry{},
	}
}

// Name returns the source identifier.
func (c *Client) Name() domain.Source {
	return domain.SourceEbay
}

// BuildQuery composes the eBay search phrase for a spec. The parts category
// filter already scopes results, so the phrase stays short.
func BuildQuery(spec domain.SearchSpec) string {
	switch {
	case spec.PartType == domain.PartTypeBattery:
		return fmt.Sprintf("batterie %s %s", spec.Brand, spec.Model)
	case spec.Category == domain.CategoryPhoneNoScreen:
		return fmt.Sprintf("%s %s sans ecran pour pieces", spec.Brand, spec.Model)
	default:
		return fmt.Sprintf("ecran %s %s", spec.Brand, spec.Model)
	}
}

// Search retrieves buy-it-now offers sorted by price plus shipping, then
// flags the ones that also appear on the newly-listed page.
func (c *Client) Search(ctx context.Context, spec domain.SearchSpec) ([]domain.Offer, error) {
	body, err := c.fetch(ctx, spec, "15")
	if err != nil {
		return nil, fmt.Errorf("fetching from ebay: %w", err)
	}

	offers, skipped, err := parseItems(body, spec)
	if err != nil {
		return nil, fmt.Errorf("parsing ebay response: %w", err)
	}

	recent := c.recentOfferIDs(ctx, spec)
	for i := range offers {
		if _, ok := recent[offers[i].SourceOfferID]; ok {
			offers[i].IsRecentlyAdded = true
		}
	}

	c.logger.Info("ebay search completed",
		zap.Int("count", len(offers)),
		zap.Int("skipped", skipped),
		zap.Int("recent", len(recent)),
	)

	return offers, nil
}

// fetch runs one search page request with the given sort order.
func (c *Client) fetch(ctx context.Context, spec domain.SearchSpec, sortOrder string) ([]byte, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"_nkw":   BuildQuery(spec),
			"_sop":   sortOrder,
			"LH_BIN": "1",
			"_sacat": cellPhonePartsCategory,
			"rt":     "nc",
		})
	if spec.MaxPriceEur > 0 {
		req.SetQueryParam("_udhi", strconv.Itoa(int(spec.MaxPriceEur)))
	}

	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		r, err := req.Get(searchPath)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fmt.Errorf("ebay returned status %d", r.StatusCode())
		}

		return r, nil
	})

	if err != nil {
		c.logger.Warn("ebay fetch failed",
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, err
	}

	return resp.Body(), nil
}

// recentOfferIDs returns the item ids of the newly-listed page for this spec.
// The set is cached across searches; a failed refresh degrades to an empty
// set because recency is a hint, not part of the result contract.
func (c *Client) recentOfferIDs(ctx context.Context, spec domain.SearchSpec) map[string]struct{} {
	key := BuildQuery(spec)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.recent[key]; ok && time.Since(entry.fetchedAt) < recentIDsTTL {
		return entry.ids
	}

	ids := map[string]struct{}{}

	body, err := c.fetch(ctx, spec, "10")
	if err != nil {
		c.logger.Debug("ebay recent listings fetch failed", zap.Error(err))
		return ids
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ids
	}

	doc.Find("li.s-item a.s-item__link").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if id := ExtractOfferID(href); id != "" {
			ids[id] = struct{}{}
		}
	})

	c.recent[key] = recentEntry{ids: ids, fetchedAt: time.Now()}

	return ids
}

// parseItems extracts offers from a result page. Malformed or placeholder
// items are skipped and counted.
func parseItems(body []byte, spec domain.SearchSpec) ([]domain.Offer, int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}

	var offers []domain.Offer
	skipped := 0

	doc.Find("li.s-item").Each(func(_ int, item *goquery.Selection) {
		title := domain.NormalizeSpaces(item.Find(".s-item__title").First().Text())
		// eBay pads every result page with a "Shop on eBay" placeholder card.
		if title == "" || strings.EqualFold(title, "Shop on eBay") {
			return
		}

		href, _ := item.Find("a.s-item__link").First().Attr("href")
		price := domain.ParsePriceEur(item.Find(".s-item__price").First().Text())
		if href == "" || price <= 0 {
			skipped++
			return
		}

		offer := domain.Offer{
			Source:        domain.SourceEbay,
			SourceOfferID: offerIDOrURL(href),
			Title:         title,
			URL:           href,
			ImageURL:      imageURL(item),
			PriceEur:      price,
			ShippingEur:   parseShipping(item.Find(".s-item__shipping").First().Text()),
			Location:      domain.NormalizeSpaces(item.Find(".s-item__location, .s-item__itemLocation").First().Text()),
			ConditionText: domain.NormalizeSpaces(item.Find(".SECONDARY_INFO").First().Text()),
			QueryType:     spec.PartType,
		}
		offer.Finalize()
		offers = append(offers, offer)
	})

	return offers, skipped, nil
}

// ExtractOfferID pulls the numeric item id out of an eBay listing URL.
// Returns the empty string when the URL does not look like a listing.
func ExtractOfferID(rawURL string) string {
	if m := itemIDRe.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

// offerIDOrURL falls back to the canonical URL when no item id is present, so
// the offer still gets a stable identity.
func offerIDOrURL(rawURL string) string {
	if id := ExtractOfferID(rawURL); id != "" {
		return id
	}
	return domain.CanonicalURL(rawURL)
}

// parseShipping reads the shipping cost line. Free shipping renders as
// "Livraison gratuite", which carries no digits and parses to zero.
func parseShipping(text string) float64 {
	return domain.ParsePriceEur(text)
}

func imageURL(item *goquery.Selection) string {
	img := item.Find("img.s-item__image-img, .s-item__image img").First()
	if src, ok := img.Attr("src"); ok && src != "" {
		return src
	}
	if src, ok := img.Attr("data-src"); ok {
		return src
	}
	return ""
}
