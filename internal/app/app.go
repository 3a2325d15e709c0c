package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	temporalsdkclient "go.temporal.io/sdk/client"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/luisquicidev/easydiet-backend/internal/data/db"
	apphttp "github.com/luisquicidev/easydiet-backend/internal/http"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/diet"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/diet/steps"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
	jobrt "github.com/luisquicidev/easydiet-backend/internal/jobs/runtime"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/worker"
	"github.com/luisquicidev/easydiet-backend/internal/observability"
	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway/factory"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
	"github.com/luisquicidev/easydiet-backend/internal/realtime"
	"github.com/luisquicidev/easydiet-backend/internal/realtime/bus"
	"github.com/luisquicidev/easydiet-backend/internal/temporalx"
	"github.com/luisquicidev/easydiet-backend/internal/temporalx/phaserun"
	"github.com/luisquicidev/easydiet-backend/internal/temporalx/temporalworker"
)

type Mode int

const (
	// ModeServe runs the HTTP API, plus the phase worker when EmbeddedWorker is set.
	ModeServe Mode = iota
	// ModeWorker runs only the phase worker.
	ModeWorker
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Bus      bus.Bus
	Notify   realtime.JobNotifier
	Dispatch queue.Dispatcher
	Registry *jobrt.Registry
	Temporal temporalsdkclient.Client

	mode    Mode
	closers []func() error
}

func New(ctx context.Context, cfg Config, mode Mode) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &App{Log: log, Cfg: cfg, mode: mode}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, log := a.Cfg, a.Log

	observability.Init(log)
	shutdownOtel := observability.InitOTel(ctx, log, cfg.Otel)
	a.closers = append(a.closers, func() error { return shutdownOtel(context.Background()) })

	pg, err := db.NewPostgresService(cfg.DB, log)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	a.closers = append(a.closers, pg.Close)
	a.DB = pg.DB()
	if cfg.AutoMigrate {
		if err := migrate(a.DB, log); err != nil {
			return err
		}
	}

	a.SSEHub = realtime.NewSSEHub(log)
	b, err := bus.New(log, cfg.Bus)
	if err != nil {
		return fmt.Errorf("init realtime bus: %w", err)
	}
	a.Bus = b
	a.closers = append(a.closers, b.Close)
	a.Notify = realtime.NewJobNotifier(&realtime.BusEmitter{Bus: b, Log: log})

	a.Repos = wireRepos(a.DB, log)

	switch cfg.QueueBackend {
	case QueueBackendTemporal:
		tc, err := temporalx.NewClient(cfg.Temporal, log)
		if err != nil {
			return fmt.Errorf("init temporal client: %w", err)
		}
		if tc == nil {
			return fmt.Errorf("QUEUE_BACKEND=temporal requires TEMPORAL_ADDRESS")
		}
		a.Temporal = tc
		a.closers = append(a.closers, func() error { tc.Close(); return nil })
		a.Dispatch = phaserun.NewDispatcher(tc, cfg.Temporal.TaskQueue, cfg.MaxAttempts, log)
	case QueueBackendDB, "":
		a.Dispatch = queue.NewDBDispatcher(a.Repos.Task, cfg.MaxAttempts, log)
	default:
		return fmt.Errorf("unknown QUEUE_BACKEND %q", cfg.QueueBackend)
	}

	if a.runsWorker() {
		gw, closeAI, err := factory.Build(ctx, log, cfg.AI)
		if err != nil {
			return fmt.Errorf("init ai gateway: %w", err)
		}
		a.closers = append(a.closers, closeAI)
		a.Registry = jobrt.NewRegistry()
		if err := diet.Register(a.Registry, steps.NewDeps(a.DB, log, gw, a.Dispatch)); err != nil {
			return fmt.Errorf("register pipelines: %w", err)
		}
	}

	if a.mode == ModeServe {
		a.Services = wireServices(a.DB, log, a.Repos, a.Dispatch, a.Notify)
		a.Router = wireRouter(log, cfg, wireHandlers(a.DB, log, a.Services, a.SSEHub))
	}
	return nil
}

func (a *App) runsWorker() bool {
	return a.mode == ModeWorker || a.Cfg.EmbeddedWorker
}

// Run blocks until ctx is done or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.DB == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)
	if a.mode == ModeServe {
		if err := a.Bus.StartForwarder(gctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start realtime forwarder: %w", err)
		}
		g.Go(func() error {
			a.Log.Info("HTTP server listening", "addr", a.Cfg.Addr())
			return (&apphttp.Server{Engine: a.Router}).Run(gctx, a.Cfg.Addr())
		})
	}
	if a.runsWorker() {
		g.Go(func() error { return a.runWorker(gctx) })
	}
	return g.Wait()
}

func (a *App) runWorker(ctx context.Context) error {
	switch a.Cfg.QueueBackend {
	case QueueBackendTemporal:
		runner, err := temporalworker.NewRunner(a.Log, a.Cfg.Temporal, a.Temporal, a.DB,
			a.Repos.Job, a.Repos.Task, a.Registry, a.Notify, a.Cfg.Worker.Concurrency)
		if err != nil {
			return err
		}
		return runner.Run(ctx)
	default:
		w := worker.New(a.DB, a.Log, a.Repos.Job, a.Repos.Task, a.Registry, a.Notify, a.Cfg.Worker)
		return w.Run(ctx)
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.Log != nil {
			a.Log.Warn("Shutdown step failed", "error", err)
		}
	}
	a.closers = nil
	if a.Log != nil {
		a.Log.Sync()
	}
}

// Migrate creates the schema and loads the MET reference table.
func Migrate(cfg Config) error {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	pg, err := db.NewPostgresService(cfg.DB, log)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer pg.Close()
	return migrate(pg.DB(), log)
}

func migrate(gdb *gorm.DB, log *logger.Logger) error {
	if err := db.AutoMigrateAll(gdb); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	n, err := db.SeedMetActivities(gdb)
	if err != nil {
		return fmt.Errorf("seed met activities: %w", err)
	}
	log.Info("Schema migrated", "met_activities_seeded", n)
	return nil
}
