package app

import (
	"gorm.io/gorm"

	httpH "github.com/luisquicidev/easydiet-backend/internal/http/handlers"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
	"github.com/luisquicidev/easydiet-backend/internal/realtime"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Job      *httpH.JobHandler
	Profile  *httpH.ProfileHandler
	Realtime *httpH.RealtimeHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, svc Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(db),
		Job:      httpH.NewJobHandler(svc.Jobs),
		Profile:  httpH.NewProfileHandler(svc.Profiles),
		Realtime: httpH.NewRealtimeHandler(log, hub, svc.Jobs),
	}
}
