package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/luisquicidev/easydiet-backend/internal/http"
	"github.com/luisquicidev/easydiet-backend/internal/observability"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

func routerConfig(log *logger.Logger, cfg Config, h Handlers) apphttp.RouterConfig {
	return apphttp.RouterConfig{
		Log:             log,
		ServiceName:     cfg.Otel.ServiceName,
		CORSOrigins:     cfg.CORSOrigins,
		Metrics:         observability.Current(),
		JobHandler:      h.Job,
		ProfileHandler:  h.Profile,
		RealtimeHandler: h.Realtime,
		HealthHandler:   h.Health,
	}
}

func wireRouter(log *logger.Logger, cfg Config, h Handlers) *gin.Engine {
	log.Info("Wiring router...")
	return apphttp.NewRouter(routerConfig(log, cfg, h))
}
