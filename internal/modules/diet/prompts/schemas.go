package prompts

func CalculationSchema() map[string]any {
	return ObjectSchema(map[string]any{
		"formula":         StringSchema(),
		"tmb":             NumericSchema(),
		"ger":             NumericSchema(),
		"activity_factor": NumericSchema(),
		"objective_pct":   NumericSchema(),
		"tmb_formulas": ArraySchema(ObjectSchema(map[string]any{
			"name":  NonEmptyStringSchema(),
			"value": NumericSchema(),
		}, "name", "value"), 0),
		"mets": ArraySchema(ObjectSchema(map[string]any{
			"code":             StringSchema(),
			"description":      StringSchema(),
			"factor":           NumericSchema(),
			"weekly_frequency": NumericSchema(),
			"duration_minutes": NumericSchema(),
		}, "description"), 0),
		"plans": ArraySchema(ObjectSchema(map[string]any{
			"name":           NonEmptyStringSchema(),
			"total_calories": NumericSchema(),
			"application":    StringSchema(),
		}, "name", "total_calories"), 1),
		"warnings": StringArraySchema(),
	}, "tmb", "ger", "plans")
}

func MealPlanningSchema() map[string]any {
	meal := ObjectSchema(map[string]any{
		"name":           NonEmptyStringSchema(),
		"macronutrients": MacrosSchema(),
	}, "name", "macronutrients")
	return ObjectSchema(map[string]any{
		"plans": ArraySchema(ObjectSchema(map[string]any{
			"name":           NonEmptyStringSchema(),
			"macronutrients": MacrosSchema(),
			"meals":          ArraySchema(meal, 1),
		}, "name", "meals"), 0),
	}, "plans")
}

func foodSchema() map[string]any {
	return ObjectSchema(map[string]any{
		"name":           NonEmptyStringSchema(),
		"grams":          NumericSchema(),
		"macronutrients": MacrosSchema(),
		"group":          StringOrNullSchema(),
	}, "name", "grams", "macronutrients")
}

func FoodDetailingSchema() map[string]any {
	return ObjectSchema(map[string]any{
		"name":               StringSchema(),
		"macronutrients":     MacrosSchema(),
		"foods":              ArraySchema(foodSchema(), 1),
		"how_to":             StringSchema(),
		"serving_suggestion": StringOrNullSchema(),
		"alternatives": ArraySchema(ObjectSchema(map[string]any{
			"name":           NonEmptyStringSchema(),
			"macronutrients": MacrosSchema(),
			"how_to":         StringSchema(),
			"foods":          ArraySchema(foodSchema(), 1),
		}, "name", "foods"), 0),
	}, "macronutrients", "foods")
}
