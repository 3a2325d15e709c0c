package diet_food_detailing

import (
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/diet/steps"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

// Pipeline is phase 3: concrete foods for one meal of a plan.
type Pipeline struct {
	deps steps.Deps
	log  *logger.Logger
}

func New(deps steps.Deps) *Pipeline {
	return &Pipeline{
		deps: deps,
		log:  deps.Log.With("job", "diet_food_detailing"),
	}
}

func (p *Pipeline) Type() string { return jobs.TaskFoodDetailing }
