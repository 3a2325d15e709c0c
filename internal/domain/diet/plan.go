package diet

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
)

// Plan is a named calorie/macro target variant. Plans are history: a newer
// calculation for the same user deactivates them instead of deleting them.
type Plan struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        int64     `gorm:"column:user_id;not null;index" json:"user_id"`
	JobID         uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	Job           *jobs.Job `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
	CalculationID uuid.UUID `gorm:"type:uuid;not null;index" json:"calculation_id"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	TotalCalories float64   `gorm:"column:total_calories;not null" json:"total_calories"`
	Macros        `gorm:"embedded"`
	Application   string    `gorm:"column:application" json:"application,omitempty"`
	IsActive      bool      `gorm:"column:is_active;not null;index" json:"is_active"`
	Meals         []Meal    `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"meals,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Plan) TableName() string { return "diet_plan" }

func (p *Plan) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
