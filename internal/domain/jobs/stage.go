package jobs

import (
	"errors"
	"fmt"
)

// Stage is the pipeline position of a Job.
type Stage string

const (
	StageCalculationPending  Stage = "calculation_pending"
	StageCalculating         Stage = "calculating"
	StageCalculated          Stage = "calculated"
	StageMealPlanningPending Stage = "meal_planning_pending"
	StageMealPlanning        Stage = "meal_planning"
	StageMealsPlanned        Stage = "meals_planned"
	StageFoodDetailing       Stage = "food_detailing"
	StageCompleted           Stage = "completed"
	StageFailed              Stage = "failed"
)

type Event string

const (
	EventStartCalculation   Event = "start_calculation"
	EventCalculationDone    Event = "calculation_done"
	EventQueueMealPlanning  Event = "queue_meal_planning"
	EventStartMealPlanning  Event = "start_meal_planning"
	EventMealPlanningDone   Event = "meal_planning_done"
	EventStartFoodDetailing Event = "start_food_detailing"
	EventMealDetailed       Event = "meal_detailed"
	EventAllMealsDetailed   Event = "all_meals_detailed"
	EventFail               Event = "fail"
)

var ErrInvalidTransition = errors.New("invalid job transition")

type edge struct {
	from  Stage
	event Event
}

var transitions = map[edge]Stage{
	{StageCalculationPending, EventStartCalculation}: StageCalculating,
	{StageCalculating, EventStartCalculation}:        StageCalculating,
	{StageCalculating, EventCalculationDone}:         StageCalculated,

	{StageCalculated, EventQueueMealPlanning}:          StageMealPlanningPending,
	{StageMealsPlanned, EventQueueMealPlanning}:        StageMealPlanningPending,
	{StageMealPlanningPending, EventStartMealPlanning}: StageMealPlanning,
	{StageMealPlanning, EventStartMealPlanning}:        StageMealPlanning,
	{StageMealPlanning, EventMealPlanningDone}:         StageMealsPlanned,

	{StageMealsPlanned, EventStartFoodDetailing}:  StageFoodDetailing,
	{StageFoodDetailing, EventStartFoodDetailing}: StageFoodDetailing,
	{StageCompleted, EventStartFoodDetailing}:     StageFoodDetailing,
	{StageFoodDetailing, EventMealDetailed}:       StageFoodDetailing,
	{StageFoodDetailing, EventAllMealsDetailed}:   StageCompleted,
}

// Transition is the single place job stages move. Every stage may fail; a
// failed job may restart any phase, which is how queue retries re-enter.
func Transition(from Stage, ev Event) (Stage, error) {
	switch ev {
	case EventFail:
		return StageFailed, nil
	case EventStartCalculation, EventStartMealPlanning, EventStartFoodDetailing:
		if from == StageFailed {
			return startTarget(ev), nil
		}
	}
	to, ok := transitions[edge{from, ev}]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
	}
	return to, nil
}

func startTarget(ev Event) Stage {
	switch ev {
	case EventStartCalculation:
		return StageCalculating
	case EventStartMealPlanning:
		return StageMealPlanning
	default:
		return StageFoodDetailing
	}
}

// Status is the coarse job status a stage reports.
func (s Stage) Status() string {
	switch s {
	case StageCalculationPending:
		return StatusPending
	case StageCalculated, StageMealsPlanned, StageCompleted:
		return StatusCompleted
	case StageFailed:
		return StatusFailed
	default:
		return StatusProcessing
	}
}

// Progress is the baseline percentage for a stage. Food detailing refines it
// by the fraction of detailed meals (see FoodDetailingProgress).
func (s Stage) Progress() int {
	switch s {
	case StageCalculationPending:
		return 0
	case StageCalculating:
		return 10
	case StageCalculated:
		return 33
	case StageMealPlanningPending:
		return 40
	case StageMealPlanning:
		return 50
	case StageMealsPlanned:
		return 66
	case StageFoodDetailing:
		return 70
	case StageCompleted:
		return 100
	default:
		return -1
	}
}

// CalculationPhase is the Calculation.phase value a stage implies, or 0 when
// the stage does not move it.
func (s Stage) CalculationPhase() int {
	switch s {
	case StageCalculated:
		return 1
	case StageMealsPlanned:
		return 2
	case StageCompleted:
		return 3
	default:
		return 0
	}
}

func FoodDetailingProgress(detailed, total int) int {
	if total <= 0 {
		return StageFoodDetailing.Progress()
	}
	p := 70 + (29*detailed)/total
	if p > 99 {
		p = 99
	}
	return p
}
