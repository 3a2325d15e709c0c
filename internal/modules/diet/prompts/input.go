package prompts

// Input is a superset of the fields any diet prompt renders.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	// Calculation
	BiometricsText string
	LeanMassKnown  bool
	GoalText       string
	ActivitiesText string
	ActivityNotes  string
	MetCatalogText string

	// Meal planning
	PlansJSON    string
	MealsPerDay  int
	MealNamesCSV string

	// Food detailing
	MealName          string
	MealType          string
	MealLabel         string
	MealPosition      int
	MealCount         int
	TargetJSON        string
	DietType          string
	StructureTemplate string
	SuggestedFoods    string
	Forbidden         string
	Preferred         string
	MaxAdditions      int
}
