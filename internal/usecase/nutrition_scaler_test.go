package usecase

import (
	"math"
	"testing"

	"github.com/nutriscan/backend/internal/domain"
)

func fptr(v float64) *float64 {
	return &v
}

func TestScaleNutrition_HalvesAtFifty(t *testing.T) {
	facts := domain.NutritionFacts{
		Calories: fptr(200),
		Protein:  fptr(10),
		Carbs:    fptr(30.6),
		Fat:      fptr(5),
		Salt:     fptr(1.2),
	}

	scaled := ScaleNutrition(facts, "50")

	if scaled.Calories == nil || *scaled.Calories != 100 {
		t.Errorf("Calories = %v, want 100", scaled.Calories)
	}
	if scaled.Protein == nil || *scaled.Protein != 5 {
		t.Errorf("Protein = %v, want 5", scaled.Protein)
	}
	if scaled.Carbs == nil || *scaled.Carbs != 15.3 {
		t.Errorf("Carbs = %v, want 15.3", scaled.Carbs)
	}
	if scaled.Fat == nil || *scaled.Fat != 2.5 {
		t.Errorf("Fat = %v, want 2.5", scaled.Fat)
	}
	if scaled.Salt == nil || *scaled.Salt != 0.6 {
		t.Errorf("Salt = %v, want 0.6", scaled.Salt)
	}
}

func TestScaleNutrition_AbsentFieldsStayAbsent(t *testing.T) {
	facts := domain.NutritionFacts{Calories: fptr(100)}

	scaled := ScaleNutrition(facts, "50")

	if scaled.Protein != nil || scaled.Carbs != nil || scaled.Fat != nil ||
		scaled.Fiber != nil || scaled.Sugar != nil || scaled.Salt != nil {
		t.Errorf("absent fields must stay absent, got %+v", scaled)
	}
}

func TestScaleNutrition_NonFiniteNeverPropagates(t *testing.T) {
	tests := []struct {
		name  string
		value float64
	}{
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
		{"NaN", math.NaN()},
		{"negative value", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := domain.NutritionFacts{Calories: fptr(tt.value)}
			scaled := ScaleNutrition(facts, "50")
			if scaled.Calories != nil {
				t.Errorf("Calories = %v, want nil for %s input", *scaled.Calories, tt.name)
			}
		})
	}
}

func TestScaleNutrition_UnparseableServingKeepsBasis(t *testing.T) {
	tests := []string{"", "a bowl", "0", "-50", "10001", "inf"}

	for _, serving := range tests {
		t.Run("serving="+serving, func(t *testing.T) {
			facts := domain.NutritionFacts{Calories: fptr(200)}
			scaled := ScaleNutrition(facts, serving)
			if scaled.Calories == nil || *scaled.Calories != 200 {
				t.Errorf("Calories = %v, want unchanged 200 (factor 1)", scaled.Calories)
			}
		})
	}
}

func TestScaleNutrition_Rounding(t *testing.T) {
	facts := domain.NutritionFacts{
		Calories: fptr(333),
		Protein:  fptr(3.33),
	}

	scaled := ScaleNutrition(facts, "33")

	// 333 * 0.33 = 109.89 -> 110; 3.33 * 0.33 = 1.0989 -> 1.1
	if scaled.Calories == nil || *scaled.Calories != 110 {
		t.Errorf("Calories = %v, want 110 (whole-number rounding)", scaled.Calories)
	}
	if scaled.Protein == nil || *scaled.Protein != 1.1 {
		t.Errorf("Protein = %v, want 1.1 (one-decimal rounding)", scaled.Protein)
	}
}

func TestScaleForServing_ParsesThenScales(t *testing.T) {
	facts := domain.NutritionFacts{Calories: fptr(400)}

	scaled, amount, unit := ScaleForServing(facts, "1 can (330ml)")

	if amount != "330" || unit != "ml" {
		t.Fatalf("parsed serving = (%q, %q), want (330, ml)", amount, unit)
	}
	if scaled.Calories == nil || *scaled.Calories != 1320 {
		t.Errorf("Calories = %v, want 1320", scaled.Calories)
	}
}
