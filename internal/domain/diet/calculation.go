package diet

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
)

// Calculation is the metabolic result of phase 1. Phase mirrors the owning
// job's stage (1 calculated, 2 meals planned, 3 detailed).
type Calculation struct {
	ID             uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         int64                `gorm:"column:user_id;not null;index" json:"user_id"`
	JobID          uuid.UUID            `gorm:"type:uuid;not null;index" json:"job_id"`
	Job            *jobs.Job            `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
	Tmb            float64              `gorm:"column:tmb;not null" json:"tmb"`
	Ger            float64              `gorm:"column:ger;not null" json:"ger"`
	ActivityFactor float64              `gorm:"column:activity_factor;not null" json:"activity_factor"`
	ObjectivePct   float64              `gorm:"column:objective_pct;not null" json:"objective_pct"`
	Phase          int                  `gorm:"column:phase;not null" json:"phase"`
	Formulas       []CalculationFormula `gorm:"foreignKey:CalculationID;constraint:OnDelete:CASCADE" json:"formulas,omitempty"`
	Mets           []CalculationMet     `gorm:"foreignKey:CalculationID;constraint:OnDelete:CASCADE" json:"mets,omitempty"`
	Plans          []Plan               `gorm:"foreignKey:CalculationID;constraint:OnDelete:CASCADE" json:"plans,omitempty"`
	CreatedAt      time.Time            `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

func (Calculation) TableName() string { return "diet_calculation" }

func (c *Calculation) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CalculationFormula is an informational BMR value from an alternative equation.
type CalculationFormula struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CalculationID uuid.UUID `gorm:"type:uuid;not null;index" json:"calculation_id"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	Value         float64   `gorm:"column:value;not null" json:"value"`
	CreatedAt     time.Time `json:"created_at"`
}

func (CalculationFormula) TableName() string { return "diet_calculation_formula" }

func (f *CalculationFormula) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// CalculationMet links a calculation to a MET reference activity.
type CalculationMet struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CalculationID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"calculation_id"`
	MetCode         string       `gorm:"column:met_code;not null;index" json:"met_code"`
	MetActivity     *MetActivity `gorm:"foreignKey:MetCode;references:Code;constraint:OnDelete:RESTRICT" json:"met_activity,omitempty"`
	Description     string       `gorm:"column:description" json:"description"`
	Factor          float64      `gorm:"column:factor;not null" json:"factor"`
	WeeklyFrequency int          `gorm:"column:weekly_frequency;not null" json:"weekly_frequency"`
	DurationMinutes int          `gorm:"column:duration_minutes;not null" json:"duration_minutes"`
	CreatedAt       time.Time    `json:"created_at"`
}

func (CalculationMet) TableName() string { return "diet_calculation_met" }

func (m *CalculationMet) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MetActivity is the reference table of metabolic-equivalent activity codes.
type MetActivity struct {
	Code        string  `gorm:"column:code;primaryKey" json:"code" yaml:"code"`
	Description string  `gorm:"column:description;not null" json:"description" yaml:"description"`
	Category    string  `gorm:"column:category;index" json:"category" yaml:"category"`
	MetValue    float64 `gorm:"column:met_value;not null" json:"met_value" yaml:"met"`
}

func (MetActivity) TableName() string { return "met_activity" }
