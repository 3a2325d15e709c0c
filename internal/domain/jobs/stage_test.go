package jobs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	steps := []struct {
		ev     Event
		want   Stage
		status string
	}{
		{EventStartCalculation, StageCalculating, StatusProcessing},
		{EventCalculationDone, StageCalculated, StatusCompleted},
		{EventQueueMealPlanning, StageMealPlanningPending, StatusProcessing},
		{EventStartMealPlanning, StageMealPlanning, StatusProcessing},
		{EventMealPlanningDone, StageMealsPlanned, StatusCompleted},
		{EventStartFoodDetailing, StageFoodDetailing, StatusProcessing},
		{EventMealDetailed, StageFoodDetailing, StatusProcessing},
		{EventAllMealsDetailed, StageCompleted, StatusCompleted},
	}
	stage := StageCalculationPending
	assert.Equal(t, StatusPending, stage.Status())
	for _, s := range steps {
		next, err := Transition(stage, s.ev)
		require.NoError(t, err, "event %s from %s", s.ev, stage)
		assert.Equal(t, s.want, next)
		assert.Equal(t, s.status, next.Status())
		stage = next
	}
	assert.Equal(t, 100, stage.Progress())
	assert.Equal(t, 3, stage.CalculationPhase())
}

func TestTransitionRejectsUndefinedPairs(t *testing.T) {
	cases := []struct {
		from Stage
		ev   Event
	}{
		{StageCalculationPending, EventCalculationDone},
		{StageCalculationPending, EventStartMealPlanning},
		{StageCalculated, EventStartFoodDetailing},
		{StageMealPlanning, EventAllMealsDetailed},
		{StageCompleted, EventCalculationDone},
	}
	for _, c := range cases {
		_, err := Transition(c.from, c.ev)
		assert.True(t, errors.Is(err, ErrInvalidTransition), "%s on %s", c.ev, c.from)
	}
}

func TestTransitionFailAndRestart(t *testing.T) {
	for _, from := range []Stage{StageCalculating, StageMealPlanning, StageFoodDetailing, StageFailed} {
		next, err := Transition(from, EventFail)
		require.NoError(t, err)
		assert.Equal(t, StageFailed, next)
		assert.Equal(t, StatusFailed, next.Status())
	}
	next, err := Transition(StageFailed, EventStartMealPlanning)
	require.NoError(t, err)
	assert.Equal(t, StageMealPlanning, next)

	_, err = Transition(StageFailed, EventMealPlanningDone)
	assert.Error(t, err)
}

func TestFoodDetailingProgress(t *testing.T) {
	assert.Equal(t, 70, FoodDetailingProgress(0, 4))
	assert.Equal(t, 84, FoodDetailingProgress(2, 4))
	assert.Equal(t, 99, FoodDetailingProgress(4, 4))
	assert.Equal(t, 70, FoodDetailingProgress(1, 0))
}
