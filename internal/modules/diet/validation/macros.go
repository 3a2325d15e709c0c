package validation

import (
	"math"

	"github.com/luisquicidev/easydiet-backend/internal/domain/diet"
	"github.com/luisquicidev/easydiet-backend/internal/domain/profile"
)

type macroRule struct {
	proteinPerKg float64
	fatPct       float64
}

// Deficits get more protein and fat, surpluses less of both.
var macroRules = map[string]macroRule{
	profile.GoalLoss:        {proteinPerKg: 2.2, fatPct: 0.30},
	profile.GoalMaintenance: {proteinPerKg: 1.8, fatPct: 0.25},
	profile.GoalGain:        {proteinPerKg: 1.6, fatPct: 0.20},
}

// DeriveMacros splits a calorie target into grams: protein from body weight,
// fat from a share of calories, carbohydrate as the remainder. Protein is
// capped so carbohydrate never goes negative.
func DeriveMacros(calories, weightKg float64, goal string) diet.Macros {
	if calories <= 0 {
		return diet.Macros{}
	}
	rule, ok := macroRules[goal]
	if !ok {
		rule = macroRules[profile.GoalMaintenance]
	}

	fat := round1(calories * rule.fatPct / 9)
	var protein float64
	if weightKg > 0 {
		protein = round1(weightKg * rule.proteinPerKg)
	} else {
		protein = round1(calories * 0.25 / 4)
	}
	if room := calories - fat*9; protein*4 > room {
		protein = math.Floor(room/4*10) / 10
		if protein < 0 {
			protein = 0
		}
	}
	carbs := round1((calories - protein*4 - fat*9) / 4)
	if carbs < 0 {
		carbs = 0
	}
	return diet.Macros{ProteinG: protein, CarbsG: carbs, FatG: fat}
}
