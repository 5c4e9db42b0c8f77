package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Defaults returned whenever serving-size text is empty or unusable.
const (
	DefaultServingAmount = "100"
	DefaultServingUnit   = "g"

	// maxServingAmount rejects implausible amounts before they reach scaling.
	maxServingAmount = 10000
)

// servingUnitTokens is the recognized unit vocabulary, longest tokens first so
// the regex alternation matches "milliliters" before "ml".
var servingUnitTokens = []string{
	"milliliters", "milliliter", "tablespoons", "tablespoon",
	"teaspoons", "teaspoon", "kilograms", "kilogram",
	"servings", "serving", "ounces", "ounce", "pounds", "pound",
	"pieces", "piece", "slices", "slice", "grams", "gram",
	"cups", "cup", "tbsp", "tsp", "mls", "lbs", "kgs",
	"oz", "ml", "lb", "kg", "gr", "g",
}

// Package-level compiled regex patterns for performance
var (
	amountUnitPattern = regexp.MustCompile(
		`(\d+(?:\.\d+)?)\s*(` + strings.Join(servingUnitTokens, "|") + `)\b`,
	)
	parenGroupPattern = regexp.MustCompile(`\(([^)]*)\)`)
)

// unitSynonyms maps unit spellings to the canonical short unit. kg and lb are
// relabeled without converting the numeric value; existing diary entries
// depend on this.
var unitSynonyms = map[string]string{
	"milliliters": "ml", "milliliter": "ml", "mls": "ml",
	"grams": "g", "gram": "g", "gr": "g",
	"ounces": "oz", "ounce": "oz",
	"kilograms": "g", "kilogram": "g", "kgs": "g", "kg": "g",
	"pounds": "oz", "pound": "oz", "lbs": "oz", "lb": "oz",
	"tablespoons": "tbsp", "tablespoon": "tbsp",
	"teaspoons": "tsp", "teaspoon": "tsp",
	"pieces": "piece", "slices": "slice",
	"servings": "serving", "cups": "cup",
}

// canonicalUnits pass through NormalizeUnit unchanged.
var canonicalUnits = map[string]bool{
	"ml": true, "g": true, "oz": true, "cup": true, "tbsp": true,
	"tsp": true, "piece": true, "slice": true, "serving": true,
}

// ParseServingSize extracts an amount and canonical unit from free-form
// serving-size text such as "1 can (330ml)" or "30 g". It never fails:
// anything unusable degrades to "100 g".
//
// A parenthesized amount+unit group wins over the rest of the text, since
// labels typically write the measured size in parens after a count.
func ParseServingSize(text string) (amount, unit string) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return DefaultServingAmount, DefaultServingUnit
	}

	for _, group := range parenGroupPattern.FindAllStringSubmatch(lowered, -1) {
		if m := amountUnitPattern.FindStringSubmatch(group[1]); m != nil {
			return validateMatch(m)
		}
	}

	if m := amountUnitPattern.FindStringSubmatch(lowered); m != nil {
		return validateMatch(m)
	}

	return DefaultServingAmount, DefaultServingUnit
}

// validateMatch rejects out-of-range or malformed amounts and normalizes the
// unit token.
func validateMatch(m []string) (string, string) {
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v >= maxServingAmount {
		return DefaultServingAmount, DefaultServingUnit
	}
	return m[1], NormalizeUnit(m[2])
}

// NormalizeUnit maps a unit token, case-insensitively, to its canonical short
// form. Unrecognized tokens default to "g".
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if canonical, ok := unitSynonyms[u]; ok {
		return canonical
	}
	if canonicalUnits[u] {
		return u
	}
	return "g"
}
