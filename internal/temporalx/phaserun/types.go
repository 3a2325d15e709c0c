// Package phaserun runs phase tasks as Temporal workflows. Each dispatched
// task becomes one workflow with a single activity; Temporal owns the retry
// schedule and the activity owns the job bookkeeping.
package phaserun

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
)

const (
	WorkflowName     = "diet_phase"
	ActivityRunPhase = "diet_phase_run"

	// ErrTypeNonRetryable marks activity failures Temporal must not retry.
	ErrTypeNonRetryable = "NonRetryable"

	InitialInterval    = 2 * time.Second
	BackoffCoefficient = 2.0
	ActivityTimeout    = 15 * time.Minute
)

// Envelope is the workflow input. It mirrors a queue row so the activity can
// hand the runtime the same task shape the database worker does.
type Envelope struct {
	TaskID      uuid.UUID       `json:"task_id"`
	JobID       uuid.UUID       `json:"job_id"`
	TaskType    string          `json:"task_type"`
	Priority    int             `json:"priority"`
	MaxAttempts int             `json:"max_attempts"`
	Payload     json.RawMessage `json:"payload"`
}

func NewEnvelope(t queue.Task, maxAttempts int) (Envelope, error) {
	row, err := t.Row(maxAttempts)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		TaskID:      uuid.New(),
		JobID:       t.JobID,
		TaskType:    t.Type,
		Priority:    t.Priority,
		MaxAttempts: row.MaxAttempts,
		Payload:     json.RawMessage(row.Payload),
	}, nil
}

// WorkflowID is unique per dispatch so a retried phase starts a new run.
func (e Envelope) WorkflowID() string {
	return fmt.Sprintf("%s-%s-%s", e.TaskType, e.JobID, e.TaskID)
}
