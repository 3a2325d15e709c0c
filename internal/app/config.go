package app

import (
	"strings"

	"github.com/luisquicidev/easydiet-backend/internal/data/db"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/worker"
	"github.com/luisquicidev/easydiet-backend/internal/observability"
	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway/factory"
	"github.com/luisquicidev/easydiet-backend/internal/platform/envutil"
	"github.com/luisquicidev/easydiet-backend/internal/realtime/bus"
	"github.com/luisquicidev/easydiet-backend/internal/temporalx"
)

const (
	QueueBackendDB       = "db"
	QueueBackendTemporal = "temporal"
)

type Config struct {
	LogMode     string
	Port        string
	CORSOrigins []string
	AutoMigrate bool

	DB       db.Config
	AI       factory.Config
	Bus      bus.Config
	Worker   worker.Config
	Temporal temporalx.Config
	Otel     observability.OtelConfig

	QueueBackend string
	MaxAttempts  int
	// EmbeddedWorker runs the phase worker inside the API process.
	EmbeddedWorker bool
}

func LoadConfig() Config {
	driver := "postgres"
	if envutil.String("SQLITE_PATH", "") != "" {
		driver = "sqlite"
	}
	return Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		Port:        envutil.String("PORT", "8080"),
		CORSOrigins: envutil.List("CORS_ORIGINS", nil),
		AutoMigrate: envutil.Bool("AUTO_MIGRATE", true),

		DB: db.Config{
			Driver:       envutil.String("DB_DRIVER", driver),
			Host:         envutil.String("POSTGRES_HOST", "localhost"),
			Port:         envutil.String("POSTGRES_PORT", "5432"),
			User:         envutil.String("POSTGRES_USER", "postgres"),
			Password:     envutil.String("POSTGRES_PASSWORD", ""),
			Name:         envutil.String("POSTGRES_NAME", "easydiet"),
			SSLMode:      envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:   envutil.String("SQLITE_PATH", ""),
			MaxOpenConns: envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20),
			LogLevel:     envutil.String("DB_LOG_LEVEL", "warn"),
		},
		AI: factory.ConfigFromEnv(),
		Bus: bus.Config{
			Kind:         envutil.String("REALTIME_BUS", bus.KindMemory),
			RedisAddr:    envutil.String("REDIS_ADDR", "localhost:6379"),
			RedisChannel: envutil.String("REDIS_CHANNEL", "easydiet:events"),
			NATSURL:      envutil.String("NATS_URL", "nats://localhost:4222"),
			NATSSubject:  envutil.String("NATS_SUBJECT", "easydiet.events"),
		},
		Worker:   worker.ConfigFromEnv(),
		Temporal: temporalx.LoadConfig(),
		Otel: observability.OtelConfig{
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "easydiet-backend"),
			Environment: envutil.String("OTEL_ENVIRONMENT", envutil.String("LOG_MODE", "development")),
			Version:     envutil.String("APP_VERSION", "dev"),
		},

		QueueBackend:   strings.ToLower(envutil.String("QUEUE_BACKEND", QueueBackendDB)),
		MaxAttempts:    envutil.Int("TASK_MAX_ATTEMPTS", 3),
		EmbeddedWorker: envutil.Bool("EMBEDDED_WORKER", true),
	}
}

func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
