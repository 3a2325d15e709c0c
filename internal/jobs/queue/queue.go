// Package queue builds phase tasks and hands them to a dispatcher. Payloads
// carry ids and small scalars only; executors reload entities themselves.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
)

const (
	PriorityDefault       = 0
	PriorityFoodDetailing = 10

	DefaultMaxAttempts = 3
)

type CalculationPayload struct {
	JobID  uuid.UUID `json:"job_id"`
	UserID int64     `json:"user_id"`
}

type MealPlanningPayload struct {
	JobID         uuid.UUID `json:"job_id"`
	CalculationID uuid.UUID `json:"calculation_id"`
	MealsPerDay   int       `json:"meals_per_day"`
}

type FoodDetailingPayload struct {
	JobID  uuid.UUID `json:"job_id"`
	PlanID uuid.UUID `json:"plan_id"`
	MealID uuid.UUID `json:"meal_id"`
}

// Task is a phase task ready to be dispatched.
type Task struct {
	JobID    uuid.UUID
	Type     string
	Priority int
	Payload  any
}

func Calculation(p CalculationPayload) Task {
	return Task{JobID: p.JobID, Type: jobs.TaskCalculation, Priority: PriorityDefault, Payload: p}
}

func MealPlanning(p MealPlanningPayload) Task {
	return Task{JobID: p.JobID, Type: jobs.TaskMealPlanning, Priority: PriorityDefault, Payload: p}
}

// FoodDetailing tasks are user triggered per meal, so they jump the queue.
func FoodDetailing(p FoodDetailingPayload) Task {
	return Task{JobID: p.JobID, Type: jobs.TaskFoodDetailing, Priority: PriorityFoodDetailing, Payload: p}
}

// Row converts t into a queue row.
func (t Task) Row(maxAttempts int) (*types.PhaseTask, error) {
	raw, err := json.Marshal(t.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t.Type, err)
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &types.PhaseTask{
		JobID:       t.JobID,
		TaskType:    t.Type,
		Payload:     datatypes.JSON(raw),
		Priority:    t.Priority,
		MaxAttempts: maxAttempts,
	}, nil
}

// Decode unmarshals a stored payload into out.
func Decode(raw datatypes.JSON, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty task payload")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode task payload: %w", err)
	}
	return nil
}

// FromRow rebuilds a dispatchable task from a stored queue row.
func FromRow(row *types.PhaseTask) Task {
	return Task{
		JobID:    row.JobID,
		Type:     row.TaskType,
		Priority: row.Priority,
		Payload:  json.RawMessage(row.Payload),
	}
}
