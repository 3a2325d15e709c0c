package diet_calculation

import (
	"github.com/google/uuid"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/diet/steps"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
	jobrt "github.com/luisquicidev/easydiet-backend/internal/jobs/runtime"
	"github.com/luisquicidev/easydiet-backend/internal/modules/diet/prompts"
	"github.com/luisquicidev/easydiet-backend/internal/modules/diet/validation"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
)

const op = "diet_calculation.Run"

type planSummary struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	TotalCalories float64   `json:"totalCalories"`
	ProteinG      float64   `json:"protein"`
	CarbsG        float64   `json:"carbs"`
	FatG          float64   `json:"fat"`
}

func (p *Pipeline) Run(jc *jobrt.Context) (err error) {
	end := steps.StartSpan(jc, "diet.calculation")
	defer func() { end(err) }()

	var in queue.CalculationPayload
	if err := jc.Decode(&in); err != nil {
		return apierr.E(apierr.InvalidInput, op, err)
	}
	userID := in.UserID
	if userID == 0 {
		userID = jc.Job.UserID
	}
	read := dbctx.Context{Ctx: jc.Ctx}

	prof, err := p.deps.Profiles.Get(read, userID)
	if err != nil {
		return err
	}
	if prof.Biometrics == nil || prof.Goal == nil {
		return apierr.Errorf(apierr.InvalidInput, op, "user %d needs biometrics and a goal before calculation", userID)
	}

	if err := jc.Transition(read, jobs.EventStartCalculation, nil); err != nil {
		return err
	}

	catalog, err := p.deps.Mets.List(read)
	if err != nil {
		return err
	}
	mets := make([]types.MetActivity, 0, len(catalog))
	for _, m := range catalog {
		mets = append(mets, *m)
	}
	prompt, err := prompts.BuildCalculation(prof, mets)
	if err != nil {
		return apierr.E(apierr.InvalidInput, op, err)
	}

	reply, err := steps.Ask(jc.Ctx, p.deps.AI, prompt, "calculation")
	if err != nil {
		return err
	}
	res, err := validation.ValidateCalculation(reply.JSON, validation.CalculationContext{
		WeightKg:     prof.Biometrics.WeightKg,
		Goal:         prof.Goal.Type,
		ObjectivePct: prof.Goal.CaloriePct,
	})
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		p.log.Warn("Calculation warning from model", "job_id", jc.Job.ID, "warning", w)
	}

	return jc.InTx(func(dbc dbctx.Context) error {
		superseded, err := p.deps.Plans.SupersedeActive(dbc, userID)
		if err != nil {
			return err
		}

		calc, err := p.deps.Calculations.Create(dbc, &types.Calculation{
			UserID:         userID,
			JobID:          jc.Job.ID,
			Tmb:            res.Tmb,
			Ger:            res.Ger,
			ActivityFactor: res.ActivityFactor,
			ObjectivePct:   res.ObjectivePct,
			Phase:          jobs.StageCalculated.CalculationPhase(),
		})
		if err != nil {
			return err
		}

		formulas := make([]*types.CalculationFormula, 0, len(res.Formulas))
		for i := range res.Formulas {
			f := res.Formulas[i]
			f.CalculationID = calc.ID
			formulas = append(formulas, &f)
		}
		if err := p.deps.Calculations.CreateFormulas(dbc, formulas); err != nil {
			return err
		}

		metRows, err := p.resolveMets(dbc, calc.ID, res.Mets)
		if err != nil {
			return err
		}
		if err := p.deps.Calculations.CreateMets(dbc, metRows); err != nil {
			return err
		}

		plans := make([]*types.Plan, 0, len(res.Plans))
		for _, pt := range res.Plans {
			plans = append(plans, &types.Plan{
				UserID:        userID,
				JobID:         jc.Job.ID,
				CalculationID: calc.ID,
				Name:          pt.Name,
				TotalCalories: pt.TotalCalories,
				Macros:        pt.Macros,
				Application:   pt.Application,
				IsActive:      true,
			})
		}
		if _, err := p.deps.Plans.Create(dbc, plans); err != nil {
			return err
		}

		if err := jc.Transition(dbc, jobs.EventCalculationDone, nil); err != nil {
			return err
		}

		summaries := make([]planSummary, 0, len(plans))
		for _, pl := range plans {
			summaries = append(summaries, planSummary{
				ID:            pl.ID,
				Name:          pl.Name,
				TotalCalories: pl.TotalCalories,
				ProteinG:      pl.ProteinG,
				CarbsG:        pl.CarbsG,
				FatG:          pl.FatG,
			})
		}
		result := steps.WithUsage(jc, map[string]any{
			"calculationId":     calc.ID,
			"tmb":               calc.Tmb,
			"ger":               calc.Ger,
			"formula":           res.Formula,
			"plans":             summaries,
			"supersededPlans":   superseded,
			"calculationPrompt": prompt.Fingerprint(),
		}, "calculation", steps.Usage(reply))
		if err := jc.MergeResult(dbc, result); err != nil {
			return err
		}

		next := queue.MealPlanning(queue.MealPlanningPayload{
			JobID:         jc.Job.ID,
			CalculationID: calc.ID,
			MealsPerDay:   prof.MealsPerDay(),
		})
		if err := steps.Enqueue(jc, dbc, p.deps.Dispatch, next); err != nil {
			return err
		}
		return jc.Transition(dbc, jobs.EventQueueMealPlanning, nil)
	})
}

// resolveMets maps reported activity codes onto the reference table. Codes
// that match nothing fall back through description to the first activity.
func (p *Pipeline) resolveMets(dbc dbctx.Context, calcID uuid.UUID, entries []validation.MetEntry) ([]*types.CalculationMet, error) {
	out := make([]*types.CalculationMet, 0, len(entries))
	for _, e := range entries {
		term := e.Code
		if term == "" {
			term = e.Description
		}
		ref, err := p.deps.Mets.Resolve(dbc, term)
		if err != nil {
			return nil, err
		}
		if ref == nil {
			p.log.Warn("MET reference table is empty; dropping activity", "code", e.Code)
			continue
		}
		if ref.Code != e.Code {
			p.log.Debug("MET code resolved", "reported", e.Code, "resolved", ref.Code)
		}
		factor := e.Factor
		if factor <= 0 {
			factor = ref.MetValue
		}
		desc := e.Description
		if desc == "" {
			desc = ref.Description
		}
		out = append(out, &types.CalculationMet{
			CalculationID:   calcID,
			MetCode:         ref.Code,
			Description:     desc,
			Factor:          factor,
			WeeklyFrequency: e.WeeklyFrequency,
			DurationMinutes: e.DurationMinutes,
		})
	}
	return out, nil
}
