package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/luisquicidev/easydiet-backend/internal/domain/diet"
	"github.com/luisquicidev/easydiet-backend/internal/modules/diet/prompts"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
)

// Tolerance is the relative per-axis deviation a detailed meal may have
// from its target before its totals are reset to the target.
const Tolerance = 0.05

var ErrInvalidFoodDetailingResponse = errors.New("invalid food detailing response")

type foodReply struct {
	Name           string      `json:"name"`
	Grams          Number      `json:"grams"`
	Macronutrients macrosReply `json:"macronutrients"`
	Group          *string     `json:"group"`
}

type foodDetailingReply struct {
	Name              string      `json:"name"`
	Macronutrients    macrosReply `json:"macronutrients"`
	Foods             []foodReply `json:"foods"`
	HowTo             string      `json:"how_to"`
	ServingSuggestion *string     `json:"serving_suggestion"`
	Alternatives      []struct {
		Name           string      `json:"name"`
		Macronutrients macrosReply `json:"macronutrients"`
		HowTo          string      `json:"how_to"`
		Foods          []foodReply `json:"foods"`
	} `json:"alternatives"`
}

type DetailedFood struct {
	Name     string
	Grams    float64
	Macros   diet.Macros
	Calories float64
	GroupKey *string
}

type DetailedAlternative struct {
	Name     string
	Macros   diet.Macros
	Calories float64
	HowTo    string
	Foods    []DetailedFood
}

type FoodDetailingResult struct {
	// Macros are the meal totals to persist: the reply's totals, or the
	// target when any axis deviates beyond Tolerance.
	Macros            diet.Macros
	Reported          diet.Macros
	Corrected         bool
	Deviations        map[string]float64
	Foods             []DetailedFood
	Alternatives      []DetailedAlternative
	HowTo             string
	ServingSuggestion string
}

// ValidateFoodDetailing checks a phase 3 reply against the meal target.
func ValidateFoodDetailing(doc []byte, target diet.Macros) (*FoodDetailingResult, error) {
	const op = "validation.ValidateFoodDetailing"
	if err := CheckSchema(prompts.PromptFoodDetailing, doc); err != nil {
		return nil, apierr.E(apierr.ValidationFailure, op, fmt.Errorf("%w: %v", ErrInvalidFoodDetailingResponse, err))
	}
	var r foodDetailingReply
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, apierr.E(apierr.ValidationFailure, op, fmt.Errorf("%w: %v", ErrInvalidFoodDetailingResponse, err))
	}
	if len(r.Foods) == 0 {
		return nil, apierr.E(apierr.ValidationFailure, op, fmt.Errorf("%w: foods empty", ErrInvalidFoodDetailingResponse))
	}

	out := &FoodDetailingResult{
		Reported: r.Macronutrients.macros(),
		Foods:    detailFoods(r.Foods),
		HowTo:    strings.TrimSpace(r.HowTo),
	}
	if r.ServingSuggestion != nil {
		out.ServingSuggestion = strings.TrimSpace(*r.ServingSuggestion)
	}
	out.Deviations = Deviations(out.Reported, target)
	out.Macros = out.Reported
	if WithinTolerance(out.Deviations) {
		out.Deviations = nil
	} else {
		out.Macros = target
		out.Corrected = true
	}

	for _, a := range r.Alternatives {
		if len(a.Foods) == 0 {
			continue
		}
		am := a.Macronutrients.macros()
		out.Alternatives = append(out.Alternatives, DetailedAlternative{
			Name:     strings.TrimSpace(a.Name),
			Macros:   am,
			Calories: am.Calories(),
			HowTo:    strings.TrimSpace(a.HowTo),
			Foods:    detailFoods(a.Foods),
		})
	}
	return out, nil
}

func detailFoods(in []foodReply) []DetailedFood {
	out := make([]DetailedFood, 0, len(in))
	for _, f := range in {
		m := f.Macronutrients.macros()
		var group *string
		if f.Group != nil && strings.TrimSpace(*f.Group) != "" {
			g := strings.TrimSpace(*f.Group)
			group = &g
		}
		out = append(out, DetailedFood{
			Name:     strings.TrimSpace(f.Name),
			Grams:    round1(f.Grams.Float()),
			Macros:   m,
			Calories: m.Calories(),
			GroupKey: group,
		})
	}
	return out
}

// Deviations is the relative difference per axis (protein, carbs, fat). A
// zero target deviates fully when more than half a gram is reported.
func Deviations(got, want diet.Macros) map[string]float64 {
	return map[string]float64{
		"protein": deviation(got.ProteinG, want.ProteinG),
		"carbs":   deviation(got.CarbsG, want.CarbsG),
		"fat":     deviation(got.FatG, want.FatG),
	}
}

func deviation(got, want float64) float64 {
	if want == 0 {
		if math.Abs(got) > 0.5 {
			return 1
		}
		return 0
	}
	return math.Abs(got-want) / math.Abs(want)
}

func WithinTolerance(dev map[string]float64) bool {
	for _, d := range dev {
		if d > Tolerance {
			return false
		}
	}
	return true
}

// ExceededAxes lists the axes beyond Tolerance in a stable order.
func ExceededAxes(dev map[string]float64) []string {
	var out []string
	for _, axis := range []string{"protein", "carbs", "fat"} {
		if dev[axis] > Tolerance {
			out = append(out, axis)
		}
	}
	return out
}
