package diet_calculation

import (
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/diet/steps"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

// Pipeline is phase 1: metabolic targets and draft plans for a user.
type Pipeline struct {
	deps steps.Deps
	log  *logger.Logger
}

func New(deps steps.Deps) *Pipeline {
	return &Pipeline{
		deps: deps,
		log:  deps.Log.With("job", "diet_calculation"),
	}
}

func (p *Pipeline) Type() string { return jobs.TaskCalculation }
