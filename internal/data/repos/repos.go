package repos

import (
	"gorm.io/gorm"

	"github.com/luisquicidev/easydiet-backend/internal/data/repos/diet"
	"github.com/luisquicidev/easydiet-backend/internal/data/repos/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/data/repos/profile"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

type JobRepo = jobs.JobRepo
type TaskRepo = jobs.TaskRepo

type ProfileRepo = profile.ProfileRepo

type CalculationRepo = diet.CalculationRepo
type PlanRepo = diet.PlanRepo
type MealRepo = diet.MealRepo
type FoodRepo = diet.FoodRepo
type MetActivityRepo = diet.MetActivityRepo

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo   { return jobs.NewJobRepo(db, baseLog) }
func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo { return jobs.NewTaskRepo(db, baseLog) }

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return profile.NewProfileRepo(db, baseLog)
}

func NewCalculationRepo(db *gorm.DB, baseLog *logger.Logger) CalculationRepo {
	return diet.NewCalculationRepo(db, baseLog)
}
func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo { return diet.NewPlanRepo(db, baseLog) }
func NewMealRepo(db *gorm.DB, baseLog *logger.Logger) MealRepo { return diet.NewMealRepo(db, baseLog) }
func NewFoodRepo(db *gorm.DB, baseLog *logger.Logger) FoodRepo { return diet.NewFoodRepo(db, baseLog) }
func NewMetActivityRepo(db *gorm.DB, baseLog *logger.Logger) MetActivityRepo {
	return diet.NewMetActivityRepo(db, baseLog)
}
