package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/domain/profile"
)

func SeedJob(tb testing.TB, ctx context.Context, tx *gorm.DB, userID int64, stage jobs.Stage) *types.Job {
	tb.Helper()
	j := &types.Job{
		UserID:   userID,
		JobType:  jobs.JobTypeDietPlan,
		Stage:    stage,
		Status:   stage.Status(),
		Progress: max(stage.Progress(), 0),
		Input:    datatypes.JSON([]byte("{}")),
		Result:   datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed job: %v", err)
	}
	return j
}

func SeedCalculation(tb testing.TB, ctx context.Context, tx *gorm.DB, job *types.Job, ger float64) *types.Calculation {
	tb.Helper()
	c := &types.Calculation{
		UserID:         job.UserID,
		JobID:          job.ID,
		Tmb:            ger / 1.55,
		Ger:            ger,
		ActivityFactor: 1.55,
		ObjectivePct:   -20,
		Phase:          1,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed calculation: %v", err)
	}
	return c
}

func SeedPlan(tb testing.TB, ctx context.Context, tx *gorm.DB, calc *types.Calculation, name string, macros types.Macros, active bool) *types.Plan {
	tb.Helper()
	p := &types.Plan{
		UserID:        calc.UserID,
		JobID:         calc.JobID,
		CalculationID: calc.ID,
		Name:          name,
		TotalCalories: macros.Calories(),
		Macros:        macros,
		IsActive:      active,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed plan: %v", err)
	}
	return p
}

func SeedMeal(tb testing.TB, ctx context.Context, tx *gorm.DB, planID uuid.UUID, name string, order int, macros types.Macros) *types.Meal {
	tb.Helper()
	m := &types.Meal{
		PlanID:    planID,
		Name:      name,
		SortOrder: order,
		Macros:    macros,
		Calories:  macros.Calories(),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed meal: %v", err)
	}
	return m
}

func SeedFood(tb testing.TB, ctx context.Context, tx *gorm.DB, mealID uuid.UUID, name string, grams float64) *types.Food {
	tb.Helper()
	f := &types.Food{MealID: mealID, Name: name, Grams: grams}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed food: %v", err)
	}
	return f
}

// SeedProfile stores the reference profile used across pipeline tests:
// 80 kg, 180 cm, 30 y male, weight loss at -20%, running 3x30min a week.
func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, userID int64, mealsPerDay int) *types.Profile {
	tb.Helper()
	p := &types.Profile{
		UserID: userID,
		Biometrics: &types.Biometrics{
			UserID: userID, WeightKg: 80, HeightCm: 180, Age: 30, Gender: "male",
		},
		Goal: &types.Goal{
			UserID: userID, Type: profile.GoalLoss, CaloriePct: -20, MealsPerDay: mealsPerDay, DietType: profile.DietBalanced,
		},
		Activities: []types.Activity{
			{UserID: userID, Code: "12150", Description: "running", WeeklyFrequency: 3, DurationMinutes: 30},
		},
		Preferences: []types.FoodPreference{
			{UserID: userID, Name: "chicken breast", Kind: profile.PreferenceLiked},
			{UserID: userID, Name: "peanut", Kind: profile.PreferenceAllergy},
		},
	}
	for _, v := range []any{p.Biometrics, p.Goal, &p.Activities, &p.Preferences} {
		if err := tx.WithContext(ctx).Create(v).Error; err != nil {
			tb.Fatalf("seed profile: %v", err)
		}
	}
	return p
}
