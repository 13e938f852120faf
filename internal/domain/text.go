package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRe = regexp.MustCompile(`\s+`)
	priceRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]{1,2})?)`)

	foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// NormalizeSpaces trims the string and collapses any whitespace run to one space.
func NormalizeSpaces(s string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ASCIIFold strips diacritics ("écran" -> "ecran") for accent-insensitive matching.
func ASCIIFold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return folded
}

// FoldKey lowercases and accent-folds a display string into its canonical
// fingerprint form.
func FoldKey(s string) string {
	return strings.ToLower(ASCIIFold(NormalizeSpaces(s)))
}

// ParsePriceEur extracts a price in euros from free text such as
// "40,50 €" or "EUR 12.00". Returns 0 when no numeric amount is present,
// so "Livraison gratuite" parses as free shipping.
func ParsePriceEur(raw string) float64 {
	if raw == "" {
		return 0
	}
	text := strings.ToLower(ASCIIFold(raw))
	text = strings.ReplaceAll(text, "eur", "")
	text = strings.ReplaceAll(text, "€", "")
	text = strings.ReplaceAll(text, ",", ".")

	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return Round2(value)
}

// CanonicalURL strips query, fragment and trailing slash so the same listing
// reached through different tracking parameters hashes identically.
func CanonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// ComputeOfferID derives a stable offer identifier from the source-scoped
// natural key. Stable across passes for the same listing, which lets the
// caller round-trip it for favoriting.
func ComputeOfferID(source Source, sourceOfferID, rawURL string) string {
	payload := string(source) + "|" + sourceOfferID + "|" + CanonicalURL(rawURL)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:20]
}

// Round2 rounds to two decimal places (cents).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
