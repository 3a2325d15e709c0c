package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisquicidev/easydiet-backend/internal/domain/diet"
	"github.com/luisquicidev/easydiet-backend/internal/domain/profile"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
)

var lossCtx = CalculationContext{WeightKg: 80, Goal: profile.GoalLoss, ObjectivePct: -20}

func TestNumberCoercion(t *testing.T) {
	cases := map[string]float64{
		`1800`:      1800,
		`"1800"`:    1800,
		`" 2,5 "`:   2.5,
		`"-20%"`:    -20,
		`1.75`:      1.75,
		`"1800.25"`: 1800.25,
	}
	for in, want := range cases {
		var n Number
		require.NoError(t, n.UnmarshalJSON([]byte(in)), in)
		assert.True(t, n.Valid, in)
		assert.Equal(t, want, n.Float(), in)
	}
	var n Number
	require.NoError(t, n.UnmarshalJSON([]byte(`null`)))
	assert.False(t, n.Valid)
	assert.Error(t, n.UnmarshalJSON([]byte(`"abc"`)))
}

func TestValidateCalculation(t *testing.T) {
	doc := []byte(`{
		"formula": "mifflin_st_jeor",
		"tmb": "1780",
		"ger": 2650.4,
		"objective_pct": -20,
		"tmb_formulas": [{"name": "harris_benedict", "value": 1850.2}],
		"mets": [{"code": "12150", "description": "running", "factor": 8, "weekly_frequency": "3", "duration_minutes": 30}],
		"plans": [
			{"name": "standard day", "total_calories": 2120, "application": "rest days"},
			{"name": "training day", "total_calories": "2400"}
		]
	}`)
	res, err := ValidateCalculation(doc, lossCtx)
	require.NoError(t, err)
	assert.Equal(t, 1780.0, res.Tmb)
	assert.Equal(t, 2650.4, res.Ger)
	assert.Equal(t, -20.0, res.ObjectivePct)
	assert.InDelta(t, 1.49, res.ActivityFactor, 0.001)
	require.Len(t, res.Formulas, 1)
	require.Len(t, res.Mets, 1)
	assert.Equal(t, 3, res.Mets[0].WeeklyFrequency)
	require.Len(t, res.Plans, 2)
	for _, p := range res.Plans {
		assert.InDelta(t, p.TotalCalories, p.Macros.ProteinG*4+p.Macros.CarbsG*4+p.Macros.FatG*9, 1, p.Name)
		assert.Less(t, p.TotalCalories, res.Ger)
	}
	assert.Equal(t, 176.0, res.Plans[0].Macros.ProteinG)
}

func TestValidateCalculationDefaultsOptionalArrays(t *testing.T) {
	res, err := ValidateCalculation([]byte(`{"tmb": 1500, "ger": 2000, "plans": [{"name": "standard day", "total_calories": 1800}]}`), lossCtx)
	require.NoError(t, err)
	assert.NotNil(t, res.Formulas)
	assert.Empty(t, res.Formulas)
	assert.NotNil(t, res.Mets)
	assert.Equal(t, -20.0, res.ObjectivePct)
}

func TestValidateCalculationRejects(t *testing.T) {
	docs := map[string]string{
		"missing tmb":    `{"ger": 2000, "plans": [{"name": "a", "total_calories": 1800}]}`,
		"missing ger":    `{"tmb": 1500, "plans": [{"name": "a", "total_calories": 1800}]}`,
		"missing plans":  `{"tmb": 1500, "ger": 2000}`,
		"empty plans":    `{"tmb": 1500, "ger": 2000, "plans": []}`,
		"zero tmb":       `{"tmb": 0, "ger": 2000, "plans": [{"name": "a", "total_calories": 1800}]}`,
		"bad number":     `{"tmb": "lots", "ger": 2000, "plans": [{"name": "a", "total_calories": 1800}]}`,
		"zero calories":  `{"tmb": 1500, "ger": 2000, "plans": [{"name": "a", "total_calories": 0}]}`,
		"duplicate plan": `{"tmb": 1500, "ger": 2000, "plans": [{"name": "a", "total_calories": 1800}, {"name": "a", "total_calories": 1900}]}`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateCalculation([]byte(doc), lossCtx)
			require.Error(t, err)
			assert.True(t, apierr.Is(err, apierr.ValidationFailure))
			assert.True(t, errors.Is(err, ErrInvalidCalculationResponse))
		})
	}
}

func TestDeriveMacros(t *testing.T) {
	for _, goal := range []string{profile.GoalLoss, profile.GoalMaintenance, profile.GoalGain, "unknown"} {
		for _, kcal := range []float64{900, 1500, 2120, 3400} {
			for _, w := range []float64{0, 55, 80, 140} {
				m := DeriveMacros(kcal, w, goal)
				assert.GreaterOrEqual(t, m.CarbsG, 0.0)
				assert.GreaterOrEqual(t, m.ProteinG, 0.0)
				assert.LessOrEqual(t, math.Abs(m.ProteinG*4+m.CarbsG*4+m.FatG*9-kcal), 1.0, "%s %v %v", goal, kcal, w)
			}
		}
	}

	loss := DeriveMacros(2000, 80, profile.GoalLoss)
	gain := DeriveMacros(2000, 80, profile.GoalGain)
	assert.Greater(t, loss.ProteinG, gain.ProteinG)
	assert.Greater(t, loss.FatG, gain.FatG)

	capped := DeriveMacros(900, 140, profile.GoalLoss)
	assert.Equal(t, 0.0, capped.CarbsG)
	assert.Equal(t, diet.Macros{}, DeriveMacros(0, 80, profile.GoalLoss))
}

func TestValidateMealPlanning(t *testing.T) {
	doc := []byte(`{"plans": [{"name": "standard day", "meals": [
		{"name": "Breakfast", "macronutrients": {"protein": 40, "carbs": 50, "fat": 15}},
		{"name": "Lunch", "macronutrients": {"protein": "60", "carbs": 70, "fat": 25}},
		{"name": "Snack", "macronutrients": {"protein": 20, "carbs": 20, "fat": 7}},
		{"name": "Dinner", "macronutrients": {"protein": 56, "carbs": 17, "fat": 20}}
	]}]}`)
	plans, err := ValidateMealPlanning(doc, 4)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Len(t, plans[0].Meals, 4)
	assert.Equal(t, diet.Macros{ProteinG: 176, CarbsG: 157, FatG: 67}, plans[0].Macros)
	assert.Equal(t, 495.0, plans[0].Meals[0].Calories)

	_, err = ValidateMealPlanning(doc, 3)
	assert.True(t, apierr.Is(err, apierr.ValidationFailure))

	_, err = ValidateMealPlanning([]byte(`{"meals": []}`), 4)
	assert.True(t, errors.Is(err, ErrInvalidMealPlanningResponse))

	_, err = ValidateMealPlanning([]byte(`{"plans": {"name": "x"}}`), 4)
	assert.True(t, errors.Is(err, ErrInvalidMealPlanningResponse))
}

func TestValidateFoodDetailingWithinTolerance(t *testing.T) {
	target := diet.Macros{ProteinG: 50, CarbsG: 60, FatG: 15}
	doc := []byte(`{
		"name": "Lunch",
		"macronutrients": {"protein": 51, "carbs": 58, "fat": 15.5},
		"foods": [
			{"name": "chicken breast", "grams": 150, "macronutrients": {"protein": 46, "carbs": 0, "fat": 5}},
			{"name": "white rice", "grams": "180", "macronutrients": {"protein": 5, "carbs": 58, "fat": 0.5}, "group": "carb"}
		],
		"how_to": "Grill the chicken.",
		"serving_suggestion": "Serve warm",
		"alternatives": [
			{"name": "Fish bowl", "macronutrients": {"protein": 50, "carbs": 60, "fat": 15}, "foods": [
				{"name": "tilapia", "grams": 200, "macronutrients": {"protein": 50, "carbs": 0, "fat": 6}}
			]}
		]
	}`)
	res, err := ValidateFoodDetailing(doc, target)
	require.NoError(t, err)
	assert.False(t, res.Corrected)
	assert.Equal(t, diet.Macros{ProteinG: 51, CarbsG: 58, FatG: 15.5}, res.Macros)
	require.Len(t, res.Foods, 2)
	assert.Equal(t, 180.0, res.Foods[1].Grams)
	require.NotNil(t, res.Foods[1].GroupKey)
	assert.Equal(t, "carb", *res.Foods[1].GroupKey)
	assert.Len(t, res.Alternatives, 1)
	assert.Equal(t, "Serve warm", res.ServingSuggestion)
}

func TestValidateFoodDetailingCorrectsBeyondTolerance(t *testing.T) {
	target := diet.Macros{ProteinG: 50, CarbsG: 60, FatG: 15}
	doc := []byte(`{
		"macronutrients": {"protein": 50, "carbs": 70, "fat": 15},
		"foods": [{"name": "rice", "grams": 250, "macronutrients": {"protein": 50, "carbs": 70, "fat": 15}}]
	}`)
	res, err := ValidateFoodDetailing(doc, target)
	require.NoError(t, err)
	assert.True(t, res.Corrected)
	assert.Equal(t, target, res.Macros)
	assert.Equal(t, 70.0, res.Reported.CarbsG)
	assert.Equal(t, []string{"carbs"}, ExceededAxes(res.Deviations))
	assert.Equal(t, 70.0, res.Foods[0].Macros.CarbsG)
}

func TestValidateFoodDetailingRejectsEmptyFoods(t *testing.T) {
	_, err := ValidateFoodDetailing([]byte(`{"macronutrients": {"protein": 1, "carbs": 1, "fat": 1}, "foods": []}`), diet.Macros{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFoodDetailingResponse))
	assert.True(t, apierr.Is(err, apierr.ValidationFailure))
}

func TestDeviationZeroTarget(t *testing.T) {
	assert.Equal(t, 0.0, deviation(0.3, 0))
	assert.Equal(t, 1.0, deviation(2, 0))
	assert.InDelta(t, 0.1, deviation(55, 50), 1e-9)
}
