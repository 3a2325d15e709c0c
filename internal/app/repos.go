package app

import (
	"gorm.io/gorm"

	"github.com/luisquicidev/easydiet-backend/internal/data/repos"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

type Repos struct {
	Job         repos.JobRepo
	Task        repos.TaskRepo
	Profile     repos.ProfileRepo
	Calculation repos.CalculationRepo
	Plan        repos.PlanRepo
	Meal        repos.MealRepo
	Food        repos.FoodRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Job:         repos.NewJobRepo(db, log),
		Task:        repos.NewTaskRepo(db, log),
		Profile:     repos.NewProfileRepo(db, log),
		Calculation: repos.NewCalculationRepo(db, log),
		Plan:        repos.NewPlanRepo(db, log),
		Meal:        repos.NewMealRepo(db, log),
		Food:        repos.NewFoodRepo(db, log),
	}
}
