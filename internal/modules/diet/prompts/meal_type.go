package prompts

type MealType string

const (
	MealBreakfast      MealType = "breakfast"
	MealMorningSnack   MealType = "morning_snack"
	MealLunch          MealType = "lunch"
	MealAfternoonSnack MealType = "afternoon_snack"
	MealDinner         MealType = "dinner"
	MealSupper         MealType = "supper"
	MealSnack          MealType = "snack"
)

var mealLayouts = map[int][]MealType{
	1: {MealLunch},
	2: {MealLunch, MealDinner},
	3: {MealBreakfast, MealLunch, MealDinner},
	4: {MealBreakfast, MealLunch, MealAfternoonSnack, MealDinner},
	5: {MealBreakfast, MealMorningSnack, MealLunch, MealAfternoonSnack, MealDinner},
	6: {MealBreakfast, MealMorningSnack, MealLunch, MealAfternoonSnack, MealDinner, MealSupper},
}

// ClassifyMeal maps a 1-based meal position within a day of total meals to
// its meal type. Days with more than six meals use the six-meal layout and
// treat the extra positions as snacks.
func ClassifyMeal(position, total int) MealType {
	if total > 6 {
		total = 6
	}
	layout, ok := mealLayouts[total]
	if !ok || position < 1 || position > len(layout) {
		return MealSnack
	}
	return layout[position-1]
}

// MealTypes is the layout for a day of total meals.
func MealTypes(total int) []MealType {
	out := make([]MealType, 0, total)
	for i := 1; i <= total; i++ {
		out = append(out, ClassifyMeal(i, total))
	}
	return out
}
