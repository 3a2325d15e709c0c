package diet_meal_planning

import (
	"math"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/domain/profile"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/diet/steps"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
	jobrt "github.com/luisquicidev/easydiet-backend/internal/jobs/runtime"
	"github.com/luisquicidev/easydiet-backend/internal/modules/diet/prompts"
	"github.com/luisquicidev/easydiet-backend/internal/modules/diet/validation"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
)

const (
	op = "diet_meal_planning.Run"

	MaxMealsPerDay = 10

	StandardDayPlan = "standard day"
	TrainingDayPlan = "training day"
)

func (p *Pipeline) Run(jc *jobrt.Context) (err error) {
	end := steps.StartSpan(jc, "diet.meal_planning")
	defer func() { end(err) }()

	var in queue.MealPlanningPayload
	if err := jc.Decode(&in); err != nil {
		return apierr.E(apierr.InvalidInput, op, err)
	}
	if in.MealsPerDay < 1 || in.MealsPerDay > MaxMealsPerDay {
		return apierr.Errorf(apierr.InvalidInput, op, "meals per day must be between 1 and %d, got %d", MaxMealsPerDay, in.MealsPerDay)
	}
	read := dbctx.Context{Ctx: jc.Ctx}

	calc, err := p.deps.Calculations.GetByID(read, in.CalculationID)
	if err != nil {
		return err
	}
	if calc.JobID != jc.Job.ID {
		return apierr.Errorf(apierr.InvalidInput, op, "calculation %s does not belong to job %s", calc.ID, jc.Job.ID)
	}

	if err := jc.Transition(read, jobs.EventStartMealPlanning, nil); err != nil {
		return err
	}

	plans, err := p.deps.Plans.ListByCalculation(read, calc.ID)
	if err != nil {
		return err
	}
	fallbackPlans := len(plans) == 0
	if fallbackPlans {
		if plans, err = p.defaultPlans(read, calc); err != nil {
			return err
		}
	}

	targets := make([]types.Plan, 0, len(plans))
	byName := make(map[string]*types.Plan, len(plans))
	for _, pl := range plans {
		targets = append(targets, *pl)
		byName[pl.Name] = pl
	}
	prompt, err := prompts.BuildMealPlanning(targets, in.MealsPerDay)
	if err != nil {
		return apierr.E(apierr.InvalidInput, op, err)
	}
	reply, err := steps.Ask(jc.Ctx, p.deps.AI, prompt, "meal_planning")
	if err != nil {
		return err
	}
	planned, err := validation.ValidateMealPlanning(reply.JSON, in.MealsPerDay)
	if err != nil {
		return err
	}

	return jc.InTx(func(dbc dbctx.Context) error {
		if fallbackPlans {
			if _, err := p.deps.Plans.Create(dbc, plans); err != nil {
				return err
			}
			p.log.Warn("Calculation had no plans; created defaults", "calculation_id", calc.ID, "ger", calc.Ger)
		}
		generated, replaced := 0, int64(0)
		skipped := []string{}
		for _, pp := range planned {
			// Plan names match exactly; anything else is reported, not fatal.
			pl, ok := byName[pp.Name]
			if !ok {
				p.log.Warn("Meal plan names no known plan; skipping", "job_id", jc.Job.ID, "plan", pp.Name)
				skipped = append(skipped, pp.Name)
				continue
			}
			if err := p.deps.Plans.UpdateTargets(dbc, pl.ID, pp.Macros, pp.Macros.Calories()); err != nil {
				return err
			}
			// Re-planning replaces the plan's meals along with their foods.
			n, err := p.deps.Meals.DeleteByPlan(dbc, pl.ID)
			if err != nil {
				return err
			}
			replaced += n
			meals := make([]*types.Meal, 0, len(pp.Meals))
			for i, m := range pp.Meals {
				meals = append(meals, &types.Meal{
					PlanID:    pl.ID,
					Name:      m.Name,
					SortOrder: i,
					Macros:    m.Macros,
					Calories:  m.Macros.Calories(),
				})
			}
			if _, err := p.deps.Meals.Create(dbc, meals); err != nil {
				return err
			}
			generated++
		}

		if err := p.deps.Calculations.SetPhase(dbc, calc.ID, jobs.StageMealsPlanned.CalculationPhase()); err != nil {
			return err
		}
		if err := jc.Transition(dbc, jobs.EventMealPlanningDone, nil); err != nil {
			return err
		}
		result := steps.WithUsage(jc, map[string]any{
			"calculationId":  calc.ID,
			"plansGenerated": generated,
			"skippedPlans":   skipped,
			"mealsPerDay":    in.MealsPerDay,
			"fallbackPlans":  fallbackPlans,
			"mealsReplaced":  replaced,
		}, "meal_planning", steps.Usage(reply))
		return jc.MergeResult(dbc, result)
	})
}

// defaultPlans builds, without saving, the plans used for a calculation that
// has none: a standard day at GER and a training day at 1.2x GER. They are
// inserted together with the meals so a failed reply leaves nothing behind.
func (p *Pipeline) defaultPlans(read dbctx.Context, calc *types.Calculation) ([]*types.Plan, error) {
	weight, goal := 0.0, profile.GoalMaintenance
	if prof, err := p.deps.Profiles.Get(read, calc.UserID); err == nil {
		if prof.Biometrics != nil {
			weight = prof.Biometrics.WeightKg
		}
		if prof.Goal != nil && prof.Goal.Type != "" {
			goal = prof.Goal.Type
		}
	} else if !apierr.Is(err, apierr.NotFound) {
		return nil, err
	}

	var plans []*types.Plan
	for _, d := range []struct {
		name   string
		factor float64
	}{{StandardDayPlan, 1.0}, {TrainingDayPlan, 1.2}} {
		kcal := math.Round(calc.Ger * d.factor)
		plans = append(plans, &types.Plan{
			UserID:        calc.UserID,
			JobID:         calc.JobID,
			CalculationID: calc.ID,
			Name:          d.name,
			TotalCalories: kcal,
			Macros:        validation.DeriveMacros(kcal, weight, goal),
			IsActive:      true,
		})
	}
	return plans, nil
}
