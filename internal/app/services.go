package app

import (
	"gorm.io/gorm"

	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
	"github.com/luisquicidev/easydiet-backend/internal/realtime"
	"github.com/luisquicidev/easydiet-backend/internal/services"
)

type Services struct {
	Jobs     services.DietJobService
	Profiles services.ProfileService
}

func wireServices(db *gorm.DB, log *logger.Logger, r Repos, dispatch queue.Dispatcher, notify realtime.JobNotifier) Services {
	log.Info("Wiring services...")
	return Services{
		Jobs: services.NewDietJobService(db, log, r.Job, r.Task, r.Profile,
			r.Calculation, r.Plan, r.Meal, r.Food, dispatch, notify),
		Profiles: services.NewProfileService(db, log, r.Profile),
	}
}
