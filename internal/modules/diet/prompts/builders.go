package prompts

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/luisquicidev/easydiet-backend/internal/domain/diet"
	"github.com/luisquicidev/easydiet-backend/internal/domain/profile"
)

// MaxPreferredAdditions is how many foods beyond the preferred list a
// detailed meal may add.
const MaxPreferredAdditions = 3

func BuildCalculation(p *profile.Profile, mets []diet.MetActivity) (Prompt, error) {
	if p == nil || p.Biometrics == nil || p.Goal == nil {
		return Prompt{}, fmt.Errorf("calculation prompt needs biometrics and goal")
	}
	in := Input{
		BiometricsText: biometricsText(p.Biometrics),
		LeanMassKnown:  p.Biometrics.LeanMassKg != nil && *p.Biometrics.LeanMassKg > 0,
		GoalText:       goalText(p.Goal),
		ActivitiesText: activitiesText(p.Activities),
		ActivityNotes:  strings.TrimSpace(p.Goal.ActivityNotes),
		MetCatalogText: metCatalogText(mets),
	}
	return Build(PromptCalculation, in)
}

type planTarget struct {
	Name          string  `json:"name"`
	TotalCalories float64 `json:"total_calories"`
	ProteinG      float64 `json:"protein"`
	CarbsG        float64 `json:"carbs"`
	FatG          float64 `json:"fat"`
}

func BuildMealPlanning(plans []diet.Plan, mealsPerDay int) (Prompt, error) {
	if len(plans) == 0 {
		return Prompt{}, fmt.Errorf("meal planning prompt needs at least one plan")
	}
	targets := make([]planTarget, 0, len(plans))
	for _, pl := range plans {
		targets = append(targets, planTarget{
			Name:          pl.Name,
			TotalCalories: pl.TotalCalories,
			ProteinG:      pl.ProteinG,
			CarbsG:        pl.CarbsG,
			FatG:          pl.FatG,
		})
	}
	b, err := json.MarshalIndent(targets, "", "  ")
	if err != nil {
		return Prompt{}, err
	}
	names := make([]string, 0, mealsPerDay)
	for _, mt := range MealTypes(mealsPerDay) {
		names = append(names, string(mt))
	}
	return Build(PromptMealPlanning, Input{
		PlansJSON:    string(b),
		MealsPerDay:  mealsPerDay,
		MealNamesCSV: strings.Join(names, ", "),
	})
}

type FoodDetailingInput struct {
	Meal        diet.Meal
	Position    int
	Total       int
	DietType    string
	Preferences []profile.FoodPreference
	Biometrics  *profile.Biometrics
}

func BuildFoodDetailing(in FoodDetailingInput) (Prompt, error) {
	cat, err := LoadCatalog()
	if err != nil {
		return Prompt{}, err
	}
	dietType := in.DietType
	if dietType == "" {
		dietType = profile.DietBalanced
	}
	mt := ClassifyMeal(in.Position, in.Total)
	tpl, suggested := cat.Lookup(mt, dietType)

	forbidden, preferred := splitPreferences(in.Preferences)
	suggested = withoutForbidden(suggested, forbidden)

	target := map[string]any{
		"protein":  in.Meal.ProteinG,
		"carbs":    in.Meal.CarbsG,
		"fat":      in.Meal.FatG,
		"calories": in.Meal.Calories,
	}
	if in.Biometrics != nil {
		target["person_weight_kg"] = in.Biometrics.WeightKg
	}
	b, err := json.MarshalIndent(target, "", "  ")
	if err != nil {
		return Prompt{}, err
	}

	return Build(PromptFoodDetailing, Input{
		MealName:          in.Meal.Name,
		MealType:          string(mt),
		MealLabel:         tpl.Label,
		MealPosition:      in.Position,
		MealCount:         in.Total,
		TargetJSON:        string(b),
		DietType:          dietType,
		StructureTemplate: tpl.Structure,
		SuggestedFoods:    strings.Join(suggested, ", "),
		Forbidden:         strings.Join(forbidden, ", "),
		Preferred:         strings.Join(preferred, "; "),
		MaxAdditions:      MaxPreferredAdditions,
	})
}

func splitPreferences(prefs []profile.FoodPreference) (forbidden, preferred []string) {
	for _, p := range prefs {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		switch p.Kind {
		case profile.PreferenceRestriction:
			forbidden = append(forbidden, name)
		case profile.PreferenceAllergy:
			forbidden = append(forbidden, name+" (allergy)")
		case profile.PreferenceLiked:
			preferred = append(preferred, name+per100g(p))
		}
	}
	return forbidden, preferred
}

func per100g(p profile.FoodPreference) string {
	var parts []string
	add := func(label string, v *float64) {
		if v != nil {
			parts = append(parts, label+" "+fmtNum(*v))
		}
	}
	add("kcal", p.CaloriesPer100g)
	add("protein", p.ProteinPer100g)
	add("carbs", p.CarbsPer100g)
	add("fat", p.FatPer100g)
	if len(parts) == 0 {
		return ""
	}
	return " (per 100g: " + strings.Join(parts, ", ") + ")"
}

// withoutForbidden drops suggestions that mention a forbidden item.
func withoutForbidden(suggested, forbidden []string) []string {
	if len(forbidden) == 0 {
		return suggested
	}
	out := make([]string, 0, len(suggested))
	for _, s := range suggested {
		ls := strings.ToLower(s)
		banned := false
		for _, f := range forbidden {
			f = strings.ToLower(strings.TrimSuffix(f, " (allergy)"))
			if strings.Contains(ls, f) || strings.Contains(f, ls) {
				banned = true
				break
			}
		}
		if !banned {
			out = append(out, s)
		}
	}
	return out
}

func biometricsText(b *profile.Biometrics) string {
	lines := []string{
		"- weight: " + fmtNum(b.WeightKg) + " kg",
		"- height: " + fmtNum(b.HeightCm) + " cm",
		"- age: " + strconv.Itoa(b.Age) + " years",
		"- gender: " + b.Gender,
	}
	if b.LeanMassKg != nil && *b.LeanMassKg > 0 {
		lines = append(lines, "- lean mass: "+fmtNum(*b.LeanMassKg)+" kg")
	}
	return strings.Join(lines, "\n")
}

func goalText(g *profile.Goal) string {
	return fmt.Sprintf("- type: %s\n- calorie adjustment: %s%%\n- meals per day: %d",
		g.Type, fmtNum(g.CaloriePct), g.MealsPerDay)
}

func activitiesText(acts []profile.Activity) string {
	if len(acts) == 0 {
		return "- none reported"
	}
	lines := make([]string, 0, len(acts))
	for _, a := range acts {
		line := fmt.Sprintf("- %s: %dx/week, %d min", a.Description, a.WeeklyFrequency, a.DurationMinutes)
		if a.Code != "" {
			line += " (code " + a.Code + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func metCatalogText(mets []diet.MetActivity) string {
	if len(mets) == 0 {
		return "- (empty)"
	}
	lines := make([]string, 0, len(mets))
	for _, m := range mets {
		lines = append(lines, m.Code+" | "+m.Description+" | "+fmtNum(m.MetValue))
	}
	return strings.Join(lines, "\n")
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
