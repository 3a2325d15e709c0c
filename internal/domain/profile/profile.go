package profile

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GoalLoss        = "loss"
	GoalMaintenance = "maintenance"
	GoalGain        = "gain"
)

const (
	PreferenceLiked       = "preference"
	PreferenceRestriction = "restriction"
	PreferenceAllergy     = "allergy"
)

const (
	DietBalanced    = "balanced"
	DietLowCarb     = "low_carb"
	DietHighProtein = "high_protein"
	DietVegetarian  = "vegetarian"
	DietVegan       = "vegan"
)

type Biometrics struct {
	UserID     int64     `gorm:"column:user_id;primaryKey;autoIncrement:false" json:"user_id"`
	WeightKg   float64   `gorm:"column:weight_kg;not null" json:"weight_kg" validate:"gt=0,lt=500"`
	HeightCm   float64   `gorm:"column:height_cm;not null" json:"height_cm" validate:"gt=0,lt=300"`
	Age        int       `gorm:"column:age;not null" json:"age" validate:"gt=0,lt=130"`
	Gender     string    `gorm:"column:gender;not null" json:"gender" validate:"required"`
	LeanMassKg *float64  `gorm:"column:lean_mass_kg" json:"lean_mass_kg,omitempty" validate:"omitempty,gt=0"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Biometrics) TableName() string { return "user_biometrics" }

type Goal struct {
	UserID        int64     `gorm:"column:user_id;primaryKey;autoIncrement:false" json:"user_id"`
	Type          string    `gorm:"column:type;not null" json:"type" validate:"oneof=loss maintenance gain"`
	CaloriePct    float64   `gorm:"column:calorie_pct;not null" json:"calorie_pct" validate:"gte=-50,lte=50"`
	MealsPerDay   int       `gorm:"column:meals_per_day;not null" json:"meals_per_day" validate:"gte=1,lte=10"`
	DietType      string    `gorm:"column:diet_type" json:"diet_type,omitempty" validate:"omitempty,oneof=balanced low_carb high_protein vegetarian vegan"`
	ActivityNotes string    `gorm:"column:activity_notes" json:"activity_notes,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Goal) TableName() string { return "user_goal" }

type Activity struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          int64     `gorm:"column:user_id;not null;index" json:"user_id"`
	Code            string    `gorm:"column:code" json:"code,omitempty"`
	Description     string    `gorm:"column:description;not null" json:"description" validate:"required"`
	WeeklyFrequency int       `gorm:"column:weekly_frequency;not null" json:"weekly_frequency" validate:"gte=0,lte=21"`
	DurationMinutes int       `gorm:"column:duration_minutes;not null" json:"duration_minutes" validate:"gte=0,lte=600"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Activity) TableName() string { return "user_activity" }

func (a *Activity) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// FoodPreference is a liked, restricted or allergenic item. Per-100g macros
// are optional and passed through to prompts when known.
type FoodPreference struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          int64     `gorm:"column:user_id;not null;index" json:"user_id"`
	Name            string    `gorm:"column:name;not null" json:"name" validate:"required"`
	Kind            string    `gorm:"column:kind;not null;index" json:"kind" validate:"oneof=preference restriction allergy"`
	ProteinPer100g  *float64  `gorm:"column:protein_per_100g" json:"protein_per_100g,omitempty"`
	CarbsPer100g    *float64  `gorm:"column:carbs_per_100g" json:"carbs_per_100g,omitempty"`
	FatPer100g      *float64  `gorm:"column:fat_per_100g" json:"fat_per_100g,omitempty"`
	CaloriesPer100g *float64  `gorm:"column:calories_per_100g" json:"calories_per_100g,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (FoodPreference) TableName() string { return "user_food_preference" }

func (p *FoodPreference) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Profile is the current nutrition profile the pipeline consumes.
type Profile struct {
	UserID      int64            `json:"user_id"`
	Biometrics  *Biometrics      `json:"biometrics,omitempty" validate:"required"`
	Goal        *Goal            `json:"goal,omitempty" validate:"required"`
	Activities  []Activity       `json:"activities" validate:"dive"`
	Preferences []FoodPreference `json:"preferences" validate:"dive"`
}

func (p *Profile) Restricted() []FoodPreference {
	var out []FoodPreference
	for _, fp := range p.Preferences {
		if fp.Kind == PreferenceRestriction || fp.Kind == PreferenceAllergy {
			out = append(out, fp)
		}
	}
	return out
}

func (p *Profile) Liked() []FoodPreference {
	var out []FoodPreference
	for _, fp := range p.Preferences {
		if fp.Kind == PreferenceLiked {
			out = append(out, fp)
		}
	}
	return out
}

// MealsPerDay falls back to 3 when no goal is set.
func (p *Profile) MealsPerDay() int {
	if p == nil || p.Goal == nil || p.Goal.MealsPerDay <= 0 {
		return 3
	}
	return p.Goal.MealsPerDay
}

func (p *Profile) DietType() string {
	if p == nil || p.Goal == nil || p.Goal.DietType == "" {
		return DietBalanced
	}
	return p.Goal.DietType
}
