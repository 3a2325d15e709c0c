package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/luisquicidev/easydiet-backend/internal/domain/diet"
	"github.com/luisquicidev/easydiet-backend/internal/modules/diet/prompts"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
)

var ErrInvalidMealPlanningResponse = errors.New("invalid meal planning response")

type macrosReply struct {
	Protein  Number `json:"protein"`
	Carbs    Number `json:"carbs"`
	Fat      Number `json:"fat"`
	Calories Number `json:"calories"`
}

func (m macrosReply) macros() diet.Macros {
	return diet.Macros{ProteinG: m.Protein.Float(), CarbsG: m.Carbs.Float(), FatG: m.Fat.Float()}.Rounded()
}

type mealPlanningReply struct {
	Plans []struct {
		Name  string `json:"name"`
		Meals []struct {
			Name           string      `json:"name"`
			Macronutrients macrosReply `json:"macronutrients"`
		} `json:"meals"`
	} `json:"plans"`
}

type PlannedMeal struct {
	Name     string
	Macros   diet.Macros
	Calories float64
}

// PlannedPlan carries the meals for one plan. Macros is the sum of the meals.
type PlannedPlan struct {
	Name   string
	Macros diet.Macros
	Meals  []PlannedMeal
}

// ValidateMealPlanning checks a phase 2 reply: the plans array is required
// and every plan must have exactly mealsPerDay meals.
func ValidateMealPlanning(doc []byte, mealsPerDay int) ([]PlannedPlan, error) {
	const op = "validation.ValidateMealPlanning"
	if err := CheckSchema(prompts.PromptMealPlanning, doc); err != nil {
		return nil, apierr.E(apierr.ValidationFailure, op, fmt.Errorf("%w: %v", ErrInvalidMealPlanningResponse, err))
	}
	var r mealPlanningReply
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, apierr.E(apierr.ValidationFailure, op, fmt.Errorf("%w: %v", ErrInvalidMealPlanningResponse, err))
	}
	if r.Plans == nil {
		return nil, apierr.E(apierr.ValidationFailure, op, fmt.Errorf("%w: plans missing", ErrInvalidMealPlanningResponse))
	}

	out := make([]PlannedPlan, 0, len(r.Plans))
	for _, p := range r.Plans {
		if len(p.Meals) != mealsPerDay {
			return nil, apierr.E(apierr.ValidationFailure, op,
				fmt.Errorf("%w: plan %q has %d meals, want %d", ErrInvalidMealPlanningResponse, p.Name, len(p.Meals), mealsPerDay))
		}
		pp := PlannedPlan{Name: p.Name, Meals: make([]PlannedMeal, 0, len(p.Meals))}
		var sum diet.Macros
		for _, m := range p.Meals {
			mm := m.Macronutrients.macros()
			sum = sum.Add(mm)
			pp.Meals = append(pp.Meals, PlannedMeal{
				Name:     strings.TrimSpace(m.Name),
				Macros:   mm,
				Calories: mm.Calories(),
			})
		}
		pp.Macros = sum.Rounded()
		out = append(out, pp)
	}
	return out, nil
}
