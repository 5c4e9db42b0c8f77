package domain

import "time"

// HighConfidenceThreshold is the confidence score above which the first match
// may be flagged as recommended
const HighConfidenceThreshold = 85.0

// MaxAlternativeMatches caps how many alternative matches a lookup may return
const MaxAlternativeMatches = 3

// NutritionFacts holds nutrition values per 100 g/100 ml of product unless a
// scaler has explicitly rebased them to a serving. A nil field means the value
// is unknown; it is never defaulted to zero at this layer.
type NutritionFacts struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"` // grams
	Carbs    *float64 `json:"carbs,omitempty"`   // grams
	Fat      *float64 `json:"fat,omitempty"`     // grams
	Fiber    *float64 `json:"fiber,omitempty"`   // grams
	Sugar    *float64 `json:"sugar,omitempty"`   // grams
	Salt     *float64 `json:"salt,omitempty"`    // grams
}

// ProductMatch is a single candidate product returned by the lookup service.
// Matches arrive ordered by descending confidence; that order is authoritative
// and is never re-sorted here.
type ProductMatch struct {
	Name            string         `json:"name"`
	Brand           string         `json:"brand,omitempty"`
	Barcode         string         `json:"barcode,omitempty"`
	ServingSizeText string         `json:"servingSize,omitempty"`
	IngredientsText string         `json:"ingredients"`
	Nutrition       NutritionFacts `json:"nutrition"`
	SourceURL       string         `json:"sourceUrl,omitempty"`
	Confidence      *float64       `json:"confidence,omitempty"` // 0-100
	SourceName      string         `json:"sourceName,omitempty"`
	Recommended     bool           `json:"recommended,omitempty"`
}

// IsHighConfidence reports whether the match scored above the recommendation
// threshold.
func (m *ProductMatch) IsHighConfidence() bool {
	return m.Confidence != nil && *m.Confidence > HighConfidenceThreshold
}

// LookupResult is the payload of a product lookup. CachedAt is set only when
// the result was served from cache.
type LookupResult struct {
	Found       bool           `json:"found"`
	Name        string         `json:"name,omitempty"`
	Brand       string         `json:"brand,omitempty"`
	Barcode     string         `json:"barcode,omitempty"`
	ServingSize string         `json:"servingSize,omitempty"`
	Ingredients string         `json:"ingredients,omitempty"`
	Nutrition   NutritionFacts `json:"nutrition"`
	SourceURL   string         `json:"sourceUrl,omitempty"`
	Matches     []ProductMatch `json:"matches,omitempty"`
	CachedAt    *time.Time     `json:"cachedAt,omitempty"`
}

// Clone returns a copy that shares no mutable state with the receiver. The
// cache hands out and keeps results across goroutines; aliasing the Matches
// backing array between a cached copy and a caller-owned one is a data race.
func (r *LookupResult) Clone() *LookupResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Matches != nil {
		out.Matches = make([]ProductMatch, len(r.Matches))
		copy(out.Matches, r.Matches)
	}
	return &out
}

// RefinementContext carries optional user-supplied hints that disambiguate a
// repeated search. It varies the cache key and is never persisted on its own.
type RefinementContext struct {
	Store             string `json:"store,omitempty"`
	PackageSize       string `json:"packageSize,omitempty"`
	AdditionalDetails string `json:"additionalDetails,omitempty"`
}

// IsZero reports whether the context carries no hints at all. A nil or empty
// context is treated the same as an absent one.
func (r *RefinementContext) IsZero() bool {
	return r == nil || (r.Store == "" && r.PackageSize == "" && r.AdditionalDetails == "")
}

// LookupRequest describes a product lookup.
type LookupRequest struct {
	ProductName string             `json:"productName" binding:"required"`
	Brand       string             `json:"brand,omitempty"`
	Barcode     string             `json:"barcode,omitempty"`
	Refinement  *RefinementContext `json:"refinement,omitempty"`
	SkipCache   bool               `json:"skipCache,omitempty"`
	MaxResults  int                `json:"maxResults,omitempty"`
	SearchID    string             `json:"searchId,omitempty"`
}

// CacheEntry wraps a cached lookup result with its key and insertion time.
type CacheEntry struct {
	Key        string       `json:"key"`
	Result     LookupResult `json:"result"`
	InsertedAt time.Time    `json:"insertedAt"`
}
