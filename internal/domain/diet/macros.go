package diet

import "math"

// Macros is embedded by every entity carrying a macronutrient breakdown.
type Macros struct {
	ProteinG float64 `gorm:"column:protein_g;not null" json:"protein_g"`
	CarbsG   float64 `gorm:"column:carbs_g;not null" json:"carbs_g"`
	FatG     float64 `gorm:"column:fat_g;not null" json:"fat_g"`
}

// Calories derives energy as protein*4 + carbs*4 + fat*9, rounded.
func (m Macros) Calories() float64 {
	return math.Round(m.ProteinG*4 + m.CarbsG*4 + m.FatG*9)
}

func (m Macros) Add(o Macros) Macros {
	return Macros{ProteinG: m.ProteinG + o.ProteinG, CarbsG: m.CarbsG + o.CarbsG, FatG: m.FatG + o.FatG}
}

func (m Macros) Rounded() Macros {
	return Macros{ProteinG: round1(m.ProteinG), CarbsG: round1(m.CarbsG), FatG: round1(m.FatG)}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
