package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const JobTypeDietPlan = "diet_plan"

const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Job is one end-to-end diet generation run. Status and Progress are derived
// from Stage; only Transition moves Stage.
type Job struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      int64          `gorm:"column:user_id;not null;index" json:"user_id"`
	JobType     string         `gorm:"column:job_type;not null;index" json:"job_type"`
	Status      string         `gorm:"column:status;not null;index" json:"status"`
	Stage       Stage          `gorm:"column:stage;not null;index" json:"stage"`
	FailedStage Stage          `gorm:"column:failed_stage" json:"failed_stage,omitempty"`
	Progress    int            `gorm:"column:progress;not null" json:"progress"`
	Input       datatypes.JSON `gorm:"column:input" json:"input"`
	Result      datatypes.JSON `gorm:"column:result" json:"result"`
	Error       string         `gorm:"column:error" json:"error,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`
}

func (Job) TableName() string { return "diet_job" }

func (j *Job) BeforeCreate(*gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.JobType == "" {
		j.JobType = JobTypeDietPlan
	}
	if j.Stage == "" {
		j.Stage = StageCalculationPending
	}
	if j.Status == "" {
		j.Status = j.Stage.Status()
	}
	return nil
}
