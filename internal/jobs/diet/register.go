// Package diet registers the three diet phase pipelines with a task registry.
package diet

import (
	"github.com/luisquicidev/easydiet-backend/internal/jobs/diet/steps"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/pipeline/diet_calculation"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/pipeline/diet_food_detailing"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/pipeline/diet_meal_planning"
	jobrt "github.com/luisquicidev/easydiet-backend/internal/jobs/runtime"
)

func Register(reg *jobrt.Registry, deps steps.Deps) error {
	for _, h := range []jobrt.Handler{
		diet_calculation.New(deps),
		diet_meal_planning.New(deps),
		diet_food_detailing.New(deps),
	} {
		if err := reg.Register(h); err != nil {
			return err
		}
	}
	return nil
}
