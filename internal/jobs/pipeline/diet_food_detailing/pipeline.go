package diet_food_detailing

import (
	"github.com/google/uuid"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/diet/steps"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
	jobrt "github.com/luisquicidev/easydiet-backend/internal/jobs/runtime"
	"github.com/luisquicidev/easydiet-backend/internal/modules/diet/prompts"
	"github.com/luisquicidev/easydiet-backend/internal/modules/diet/validation"
	"github.com/luisquicidev/easydiet-backend/internal/observability"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
)

const op = "diet_food_detailing.Run"

func (p *Pipeline) Run(jc *jobrt.Context) (err error) {
	end := steps.StartSpan(jc, "diet.food_detailing")
	defer func() { end(err) }()

	var in queue.FoodDetailingPayload
	if err := jc.Decode(&in); err != nil {
		return apierr.E(apierr.InvalidInput, op, err)
	}
	read := dbctx.Context{Ctx: jc.Ctx}

	plan, err := p.deps.Plans.GetByID(read, in.PlanID)
	if err != nil {
		return err
	}
	meal, err := p.deps.Meals.GetByID(read, in.MealID)
	if err != nil {
		return err
	}
	if meal.PlanID != plan.ID {
		return apierr.Errorf(apierr.InvalidInput, op, "meal %s does not belong to plan %s", meal.ID, plan.ID)
	}
	siblings, err := p.deps.Meals.ListByPlan(read, plan.ID)
	if err != nil {
		return err
	}
	position := 1
	for i, m := range siblings {
		if m.ID == meal.ID {
			position = i + 1
			break
		}
	}

	fin := prompts.FoodDetailingInput{Meal: *meal, Position: position, Total: len(siblings)}
	switch prof, err := p.deps.Profiles.Get(read, plan.UserID); {
	case err == nil:
		fin.DietType = prof.DietType()
		fin.Preferences = prof.Preferences
		fin.Biometrics = prof.Biometrics
	case !apierr.Is(err, apierr.NotFound):
		return err
	}

	// Further meals keep the progress already reached.
	var keep map[string]interface{}
	if jc.Job.Stage == jobs.StageFoodDetailing {
		keep = map[string]interface{}{"progress": jc.Job.Progress}
	}
	if err := jc.Transition(read, jobs.EventStartFoodDetailing, keep); err != nil {
		return err
	}

	prompt, err := prompts.BuildFoodDetailing(fin)
	if err != nil {
		return apierr.E(apierr.InvalidInput, op, err)
	}
	reply, err := steps.Ask(jc.Ctx, p.deps.AI, prompt, "food_detailing")
	if err != nil {
		return err
	}
	res, err := validation.ValidateFoodDetailing(reply.JSON, meal.Macros)
	if err != nil {
		return err
	}
	if res.Corrected {
		axes := validation.ExceededAxes(res.Deviations)
		p.log.Warn("Detailed meal outside tolerance; keeping target macros",
			"meal_id", meal.ID, "axes", axes, "reported", res.Reported, "target", meal.Macros)
		for _, axis := range axes {
			observability.Current().IncToleranceCorrection(axis)
		}
	}

	return jc.InTx(func(dbc dbctx.Context) error {
		// Sibling meal tasks serialize here so exactly one of them sees the
		// plan fully detailed.
		if err := p.deps.Plans.LockForUpdate(dbc, plan.ID); err != nil {
			return err
		}
		if err := p.deps.Foods.Create(dbc, foodRows(meal.ID, res.Foods)); err != nil {
			return err
		}
		if err := p.deps.Foods.CreateAlternatives(dbc, alternativeRows(meal.ID, res.Alternatives)); err != nil {
			return err
		}
		if err := p.deps.Meals.UpdateDetails(dbc, meal.ID, res.Macros, res.HowTo, res.ServingSuggestion); err != nil {
			return err
		}

		detailed, total, err := p.deps.Meals.DetailProgress(dbc, plan.ID)
		if err != nil {
			return err
		}
		fields := map[string]any{
			"calculationId": plan.CalculationID,
			"planId":        plan.ID,
			"mealsDetailed": detailed,
			"mealsTotal":    total,
		}
		if res.Corrected {
			fields["lastCorrection"] = map[string]any{
				"mealId":     meal.ID,
				"corrected":  true,
				"deviations": res.Deviations,
			}
		}
		if total > 0 && detailed >= total {
			if err := p.deps.Calculations.SetPhase(dbc, plan.CalculationID, jobs.StageCompleted.CalculationPhase()); err != nil {
				return err
			}
			if err := jc.Transition(dbc, jobs.EventAllMealsDetailed, nil); err != nil {
				return err
			}
			fields["completed"] = true
		} else {
			if err := jc.Transition(dbc, jobs.EventMealDetailed, map[string]interface{}{
				"progress": jobs.FoodDetailingProgress(detailed, total),
			}); err != nil {
				return err
			}
			fields["completed"] = false
		}
		return jc.MergeResult(dbc, steps.WithUsage(jc, fields, "food_detailing", steps.Usage(reply)))
	})
}

func foodRows(mealID uuid.UUID, foods []validation.DetailedFood) []*types.Food {
	out := make([]*types.Food, 0, len(foods))
	for i, f := range foods {
		out = append(out, &types.Food{
			MealID:    mealID,
			Name:      f.Name,
			Grams:     f.Grams,
			Macros:    f.Macros,
			Calories:  f.Calories,
			GroupKey:  f.GroupKey,
			SortOrder: i,
		})
	}
	return out
}

func alternativeRows(mealID uuid.UUID, alts []validation.DetailedAlternative) []*types.MealAlternative {
	out := make([]*types.MealAlternative, 0, len(alts))
	for i, a := range alts {
		foods := make([]types.AlternativeFood, 0, len(a.Foods))
		for j, f := range a.Foods {
			foods = append(foods, types.AlternativeFood{
				Name:      f.Name,
				Grams:     f.Grams,
				Macros:    f.Macros,
				Calories:  f.Calories,
				GroupKey:  f.GroupKey,
				SortOrder: j,
			})
		}
		out = append(out, &types.MealAlternative{
			MealID:    mealID,
			Name:      a.Name,
			SortOrder: i,
			Macros:    a.Macros,
			Calories:  a.Calories,
			HowTo:     a.HowTo,
			Foods:     foods,
		})
	}
	return out
}
