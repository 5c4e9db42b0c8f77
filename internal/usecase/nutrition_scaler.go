package usecase

import (
	"math"
	"strconv"
	"strings"

	"github.com/nutriscan/backend/internal/domain"
)

// ScaleNutrition rescales per-100g nutrition facts to the serving size named
// by servingSizeText (a plain number of the product's natural basis units,
// e.g. "50" for half the canonical basis). Unparseable text leaves the values
// on their source basis (factor 1).
//
// Values are rounded for presentation: whole numbers for calories, one
// decimal place for everything else.
func ScaleNutrition(facts domain.NutritionFacts, servingSizeText string) domain.NutritionFacts {
	factor := 1.0
	if v, err := strconv.ParseFloat(strings.TrimSpace(servingSizeText), 64); err == nil {
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 && v < maxServingAmount {
			factor = v / 100
		}
	}

	return domain.NutritionFacts{
		Calories: scaleField(facts.Calories, factor, 0),
		Protein:  scaleField(facts.Protein, factor, 1),
		Carbs:    scaleField(facts.Carbs, factor, 1),
		Fat:      scaleField(facts.Fat, factor, 1),
		Fiber:    scaleField(facts.Fiber, factor, 1),
		Sugar:    scaleField(facts.Sugar, factor, 1),
		Salt:     scaleField(facts.Salt, factor, 1),
	}
}

// scaleField multiplies a single field by factor. Absent, negative and
// non-finite inputs all come out as absent: the numbers originate from an
// uncontrolled upstream AI response and a NaN or Inf must never reach the UI.
func scaleField(v *float64, factor float64, decimals int) *float64 {
	if v == nil || *v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	scaled := *v * factor
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		return nil
	}
	if decimals == 0 {
		scaled = math.Round(scaled)
	} else {
		scaled = math.Round(scaled*10) / 10
	}
	return &scaled
}

// ScaleForServing parses free-form serving-size text and applies it to
// per-100g facts in one step. Returns the scaled facts along with the parsed
// amount and canonical unit.
func ScaleForServing(facts domain.NutritionFacts, servingSizeText string) (domain.NutritionFacts, string, string) {
	amount, unit := ParseServingSize(servingSizeText)
	return ScaleNutrition(facts, amount), amount, unit
}
