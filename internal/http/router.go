package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/luisquicidev/easydiet-backend/internal/http/handlers"
	httpMW "github.com/luisquicidev/easydiet-backend/internal/http/middleware"
	"github.com/luisquicidev/easydiet-backend/internal/observability"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	JobHandler      *httpH.JobHandler
	ProfileHandler  *httpH.ProfileHandler
	RealtimeHandler *httpH.RealtimeHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Profile
		if cfg.ProfileHandler != nil {
			api.GET("/users/:userId/profile", cfg.ProfileHandler.Get)
			api.PUT("/users/:userId/profile", cfg.ProfileHandler.Put)
		}

		// Jobs and their artifacts
		if cfg.JobHandler != nil {
			api.POST("/users/:userId/jobs", cfg.JobHandler.CreateJob)
			api.GET("/users/:userId/jobs", cfg.JobHandler.ListJobs)
			api.GET("/users/:userId/plans/active", cfg.JobHandler.ListActivePlans)

			api.GET("/jobs/:id", cfg.JobHandler.GetJob)
			api.POST("/jobs/:id/meal-planning", cfg.JobHandler.TriggerMealPlanning)
			api.POST("/jobs/:id/food-detailing", cfg.JobHandler.TriggerFoodDetailing)
			api.POST("/jobs/:id/retry", cfg.JobHandler.Retry)

			api.GET("/calculations/:id", cfg.JobHandler.GetCalculation)
			api.GET("/plans/:id", cfg.JobHandler.GetPlan)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			api.GET("/jobs/:id/events", cfg.RealtimeHandler.JobEvents)
		}
	}

	return r
}
