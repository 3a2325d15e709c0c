package prompts

func RegisterAll() {
	RegisterSpec(Spec{
		Name:       PromptCalculation,
		Version:    1,
		SchemaName: "diet_calculation",
		Schema:     CalculationSchema,
		System: `
You are a clinical sports nutritionist computing energy targets for a diet plan.
Choose the basal metabolic rate (tmb) formula that fits the person: when lean mass is known prefer a
lean-mass based equation (Katch-McArdle or Cunningham), otherwise use Mifflin-St Jeor.
Report the other equations you considered in tmb_formulas.
Compute total energy expenditure (ger) from tmb, an activity factor and the MET contribution of the
reported activities. Map every activity to the closest code of the MET reference list.
Return JSON only.`,
		User: `
Biometrics:
{{.BiometricsText}}
{{if .LeanMassKnown}}Lean mass is known: use a lean-mass based tmb formula.{{end}}

Goal:
{{.GoalText}}

Reported activities:
{{.ActivitiesText}}
{{if .ActivityNotes}}Activity notes from the person: {{.ActivityNotes}}{{end}}

MET reference (code | description | MET):
{{.MetCatalogText}}

Output rules:
- tmb and ger in kcal/day, ger >= tmb.
- objective_pct is the calorie adjustment in percent (negative for a deficit, positive for a surplus).
- mets: one entry per reported activity with code from the MET reference, factor (MET value),
  weekly_frequency and duration_minutes.
- plans: one or more named day variants (for example "standard day" and "training day"), each with
  total_calories = ger adjusted by objective_pct and an application note saying when to use it.`,
		Validators: []Validator{
			RequireNonEmpty("BiometricsText", func(in Input) string { return in.BiometricsText }),
			RequireNonEmpty("GoalText", func(in Input) string { return in.GoalText }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptMealPlanning,
		Version:    1,
		SchemaName: "diet_meal_planning",
		Schema:     MealPlanningSchema,
		System: `
You are a nutritionist splitting daily calorie and macronutrient targets into meals.
Keep every plan name exactly as given.
Return JSON only.`,
		User: `
Plans with their daily targets (grams and kcal):
{{.PlansJSON}}

Split each plan into exactly {{.MealsPerDay}} meals, in this order: {{.MealNamesCSV}}.

Output rules:
- plans[].name must match the input plan name character for character.
- each plan has exactly {{.MealsPerDay}} meals with macronutrients in grams (protein, carbs, fat).
- for each plan the sum of meal protein, carbs and fat must equal the plan totals.
- larger meals (lunch, dinner) get a larger share than snacks.`,
		Validators: []Validator{
			RequireNonEmpty("PlansJSON", func(in Input) string { return in.PlansJSON }),
			RequirePositive("MealsPerDay", func(in Input) int { return in.MealsPerDay }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptFoodDetailing,
		Version:    1,
		SchemaName: "diet_food_detailing",
		Schema:     FoodDetailingSchema,
		System: `
You are a nutritionist turning a meal target into concrete foods with gram portions.
Use common Brazilian household foods and realistic portions.
Never include a forbidden item or anything derived from it.
Return JSON only.`,
		User: `
Meal: {{.MealName}} ({{.MealLabel}}, meal {{.MealPosition}} of {{.MealCount}})
Diet type: {{.DietType}}
Target (grams and kcal):
{{.TargetJSON}}

Structure for this meal: {{.StructureTemplate}}
Suggested foods: {{.SuggestedFoods}}
{{if .Forbidden}}
Forbidden (restrictions and allergies, never use): {{.Forbidden}}{{end}}
{{if .Preferred}}
Preferred items (use these first, then add at most {{.MaxAdditions}} complementary foods): {{.Preferred}}{{end}}

Output rules:
- foods: each with name, grams and macronutrients in grams.
- macronutrients: the meal totals, equal to the target protein, carbs and fat.
- how_to: short preparation instructions.
- serving_suggestion: optional plating or timing tip.
- alternatives: up to 2 complete substitute meals with the same totals and their own foods.
- use group to tag interchangeable foods with the same key.`,
		Validators: []Validator{
			RequireNonEmpty("MealName", func(in Input) string { return in.MealName }),
			RequireNonEmpty("TargetJSON", func(in Input) string { return in.TargetJSON }),
		},
	})
}
