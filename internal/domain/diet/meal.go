package diet

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Meal struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PlanID            uuid.UUID `gorm:"type:uuid;not null;index" json:"plan_id"`
	Name              string    `gorm:"column:name;not null" json:"name"`
	SortOrder         int       `gorm:"column:sort_order;not null" json:"sort_order"`
	Macros            `gorm:"embedded"`
	Calories          float64           `gorm:"column:calories;not null" json:"calories"`
	HowTo             string            `gorm:"column:how_to" json:"how_to,omitempty"`
	ServingSuggestion string            `gorm:"column:serving_suggestion" json:"serving_suggestion,omitempty"`
	Foods             []Food            `gorm:"foreignKey:MealID;constraint:OnDelete:CASCADE" json:"foods,omitempty"`
	Alternatives      []MealAlternative `gorm:"foreignKey:MealID;constraint:OnDelete:CASCADE" json:"alternatives,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (Meal) TableName() string { return "diet_meal" }

func (m *Meal) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Food struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MealID    uuid.UUID `gorm:"type:uuid;not null;index" json:"meal_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Grams     float64   `gorm:"column:grams;not null" json:"grams"`
	Macros    `gorm:"embedded"`
	Calories  float64   `gorm:"column:calories;not null" json:"calories"`
	GroupKey  *string   `gorm:"column:group_key" json:"group_key,omitempty"`
	SortOrder int       `gorm:"column:sort_order;not null" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

func (Food) TableName() string { return "diet_food" }

func (f *Food) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// MealAlternative is a full substitute for a meal with its own foods.
type MealAlternative struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MealID    uuid.UUID `gorm:"type:uuid;not null;index" json:"meal_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	SortOrder int       `gorm:"column:sort_order;not null" json:"sort_order"`
	Macros    `gorm:"embedded"`
	Calories  float64           `gorm:"column:calories;not null" json:"calories"`
	HowTo     string            `gorm:"column:how_to" json:"how_to,omitempty"`
	Foods     []AlternativeFood `gorm:"foreignKey:AlternativeID;constraint:OnDelete:CASCADE" json:"foods,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (MealAlternative) TableName() string { return "diet_meal_alternative" }

func (a *MealAlternative) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type AlternativeFood struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AlternativeID uuid.UUID `gorm:"type:uuid;not null;index" json:"alternative_id"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	Grams         float64   `gorm:"column:grams;not null" json:"grams"`
	Macros        `gorm:"embedded"`
	Calories      float64   `gorm:"column:calories;not null" json:"calories"`
	GroupKey      *string   `gorm:"column:group_key" json:"group_key,omitempty"`
	SortOrder     int       `gorm:"column:sort_order;not null" json:"sort_order"`
	CreatedAt     time.Time `json:"created_at"`
}

func (AlternativeFood) TableName() string { return "diet_alternative_food" }

func (f *AlternativeFood) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
