// Package steps holds what the diet phase pipelines share: their
// dependencies, the AI call, tracing and job result bookkeeping.
package steps

import (
	"gorm.io/gorm"

	dietrepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/diet"
	profilerepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/profile"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

type Deps struct {
	DB           *gorm.DB
	Log          *logger.Logger
	AI           aigateway.Client
	Profiles     profilerepo.ProfileRepo
	Calculations dietrepo.CalculationRepo
	Plans        dietrepo.PlanRepo
	Meals        dietrepo.MealRepo
	Foods        dietrepo.FoodRepo
	Mets         dietrepo.MetActivityRepo
	Dispatch     queue.Dispatcher
}

// NewDeps wires the gorm-backed repositories around db.
func NewDeps(db *gorm.DB, log *logger.Logger, ai aigateway.Client, dispatch queue.Dispatcher) Deps {
	return Deps{
		DB:           db,
		Log:          log,
		AI:           ai,
		Profiles:     profilerepo.NewProfileRepo(db, log),
		Calculations: dietrepo.NewCalculationRepo(db, log),
		Plans:        dietrepo.NewPlanRepo(db, log),
		Meals:        dietrepo.NewMealRepo(db, log),
		Foods:        dietrepo.NewFoodRepo(db, log),
		Mets:         dietrepo.NewMetActivityRepo(db, log),
		Dispatch:     dispatch,
	}
}
