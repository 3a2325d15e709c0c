package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TaskCalculation   = "diet.calculation"
	TaskMealPlanning  = "diet.meal_planning"
	TaskFoodDetailing = "diet.food_detailing"
)

const (
	TaskQueued  = "queued"
	TaskRunning = "running"
	TaskFailed  = "failed"
)

// PhaseTask is a durable queue entry. Payload carries ids and small scalars
// only. Rows are deleted on success and kept with status failed once attempts
// are exhausted.
type PhaseTask struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	JobID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"job_id"`
	Job         *Job           `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
	TaskType    string         `gorm:"column:task_type;not null;index" json:"task_type"`
	Payload     datatypes.JSON `gorm:"column:payload" json:"payload"`
	Priority    int            `gorm:"column:priority;not null;index" json:"priority"`
	Status      string         `gorm:"column:status;not null;index" json:"status"`
	Attempts    int            `gorm:"column:attempts;not null" json:"attempts"`
	MaxAttempts int            `gorm:"column:max_attempts;not null" json:"max_attempts"`
	RunAfter    time.Time      `gorm:"column:run_after;not null;index" json:"run_after"`
	LockedAt    *time.Time     `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	LastError   string         `gorm:"column:last_error" json:"last_error,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (PhaseTask) TableName() string { return "phase_task" }

func (t *PhaseTask) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TaskQueued
	}
	if t.RunAfter.IsZero() {
		t.RunAfter = time.Now()
	}
	return nil
}
