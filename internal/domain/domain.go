package domain

import (
	"github.com/luisquicidev/easydiet-backend/internal/domain/diet"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/domain/profile"
)

type (
	Job       = jobs.Job
	JobStage  = jobs.Stage
	JobEvent  = jobs.Event
	PhaseTask = jobs.PhaseTask

	Macros             = diet.Macros
	Calculation        = diet.Calculation
	CalculationFormula = diet.CalculationFormula
	CalculationMet     = diet.CalculationMet
	MetActivity        = diet.MetActivity
	Plan               = diet.Plan
	Meal               = diet.Meal
	Food               = diet.Food
	MealAlternative    = diet.MealAlternative
	AlternativeFood    = diet.AlternativeFood

	Biometrics     = profile.Biometrics
	Goal           = profile.Goal
	Activity       = profile.Activity
	FoodPreference = profile.FoodPreference
	Profile        = profile.Profile
)

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&jobs.Job{},
		&jobs.PhaseTask{},
		&diet.MetActivity{},
		&diet.Calculation{},
		&diet.CalculationFormula{},
		&diet.CalculationMet{},
		&diet.Plan{},
		&diet.Meal{},
		&diet.Food{},
		&diet.MealAlternative{},
		&diet.AlternativeFood{},
		&profile.Biometrics{},
		&profile.Goal{},
		&profile.Activity{},
		&profile.FoodPreference{},
	}
}
