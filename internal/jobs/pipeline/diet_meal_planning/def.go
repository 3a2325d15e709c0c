package diet_meal_planning

import (
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/diet/steps"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

// Pipeline is phase 2: split each plan of a calculation into meals.
type Pipeline struct {
	deps steps.Deps
	log  *logger.Logger
}

func New(deps steps.Deps) *Pipeline {
	return &Pipeline{
		deps: deps,
		log:  deps.Log.With("job", "diet_meal_planning"),
	}
}

func (p *Pipeline) Type() string { return jobs.TaskMealPlanning }
