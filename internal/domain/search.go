package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// SearchSpec is a canonical search for repair-part offers.
//
// Brand and Model keep their original casing; providers pass them through to
// the marketplace query as-is. Case- and accent-folded copies are used only
// for the fingerprint, so "iPhone" and "iphone" share a cache entry.
type SearchSpec struct {
	Brand    string
	Model    string
	PartType PartType
	Category Category
	Sources  []Source

	// MaxPriceEur caps totalEur; zero means no cap.
	MaxPriceEur float64
}

// SpecError reports a malformed search spec field.
type SpecError struct {
	Field  string
	Reason string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid search spec: %s %s", e.Field, e.Reason)
}

// Normalize validates the spec and brings it to canonical form: fields are
// trimmed and sources are deduplicated and sorted. Pure apart from mutating
// the receiver.
func (s *SearchSpec) Normalize() error {
	s.Brand = NormalizeSpaces(s.Brand)
	s.Model = NormalizeSpaces(s.Model)

	if s.Brand == "" {
		return &SpecError{Field: "brand", Reason: "is required"}
	}
	if s.Model == "" {
		return &SpecError{Field: "model", Reason: "is required"}
	}
	switch s.PartType {
	case PartTypeScreen, PartTypeBattery, PartTypeOther:
	default:
		return &SpecError{Field: "partType", Reason: "must be one of screen, battery, other"}
	}
	if s.Category == "" {
		s.Category = CategoryReplacementScreen
	}
	switch s.Category {
	case CategoryReplacementScreen, CategoryPhoneNoScreen:
	default:
		return &SpecError{Field: "category", Reason: "is not a known category"}
	}
	if s.MaxPriceEur < 0 {
		return &SpecError{Field: "maxPriceEur", Reason: "must be positive"}
	}

	seen := make(map[Source]bool, len(s.Sources))
	sources := make([]Source, 0, len(s.Sources))
	for _, src := range s.Sources {
		if !src.IsKnown() {
			return &SpecError{Field: "sources", Reason: fmt.Sprintf("contains unknown source %q", src)}
		}
		if seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return &SpecError{Field: "sources", Reason: "must not be empty"}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	s.Sources = sources

	return nil
}

// fingerprintPayload fixes the field set and order hashed by Fingerprint.
// forceRefresh is a call-time directive and deliberately not part of it.
type fingerprintPayload struct {
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	PartType    PartType `json:"partType"`
	Category    Category `json:"category"`
	Sources     []Source `json:"sources"`
	MaxPriceEur *float64 `json:"maxPriceEur"`
}

// Fingerprint returns a stable hash of the canonical spec, used as the cache
// key. Specs differing only in source order or brand/model casing fingerprint
// identically; the spec must be normalized first.
func (s *SearchSpec) Fingerprint() string {
	payload := fingerprintPayload{
		Brand:    FoldKey(s.Brand),
		Model:    FoldKey(s.Model),
		PartType: s.PartType,
		Category: s.Category,
		Sources:  append([]Source(nil), s.Sources...),
	}
	sort.Slice(payload.Sources, func(i, j int) bool { return payload.Sources[i] < payload.Sources[j] })
	if s.MaxPriceEur > 0 {
		max := s.MaxPriceEur
		payload.MaxPriceEur = &max
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// Marshaling a flat struct of strings and numbers cannot fail.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
