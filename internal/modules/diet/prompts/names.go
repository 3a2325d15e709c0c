package prompts

type PromptName string

const (
	PromptCalculation   PromptName = "diet_calculation"
	PromptMealPlanning  PromptName = "diet_meal_planning"
	PromptFoodDetailing PromptName = "diet_food_detailing"
)
