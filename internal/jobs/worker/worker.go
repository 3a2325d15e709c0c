package worker

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	jobrepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/jobs"
	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/runtime"
	"github.com/luisquicidev/easydiet-backend/internal/observability"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/envutil"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
	"github.com/luisquicidev/easydiet-backend/internal/realtime"
)

type Config struct {
	Concurrency  int
	PollInterval time.Duration
	BackoffBase  time.Duration
	StaleAfter   time.Duration
	DepthEvery   time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		Concurrency:  envutil.Int("WORKER_CONCURRENCY", 2),
		PollInterval: envutil.Duration("WORKER_POLL_INTERVAL", time.Second),
		BackoffBase:  envutil.Duration("TASK_BACKOFF_BASE", 2*time.Second),
		StaleAfter:   envutil.Duration("TASK_STALE_AFTER", 15*time.Minute),
		DepthEvery:   envutil.Duration("QUEUE_DEPTH_INTERVAL", 15*time.Second),
	}
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 2 * time.Second
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 15 * time.Minute
	}
	return c
}

// Backoff is the delay before retry number attempt: base * 2^(attempt-1).
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	jobs     jobrepo.JobRepo
	tasks    jobrepo.TaskRepo
	registry *runtime.Registry
	notify   realtime.JobNotifier
	cfg      Config
	now      func() time.Time
}

func New(db *gorm.DB, baseLog *logger.Logger, jobsRepo jobrepo.JobRepo, tasks jobrepo.TaskRepo, registry *runtime.Registry, notify realtime.JobNotifier, cfg Config) *Worker {
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "TaskWorker"),
		jobs:     jobsRepo,
		tasks:    tasks,
		registry: registry,
		notify:   notify,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// Run polls the queue with cfg.Concurrency loops until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Starting task worker pool", "concurrency", w.cfg.Concurrency, "task_types", w.registry.Types())
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.cfg.Concurrency; i++ {
		workerID := i + 1
		g.Go(func() error {
			w.runLoop(gctx, workerID)
			return nil
		})
	}
	if w.cfg.DepthEvery > 0 && observability.Current() != nil {
		g.Go(func() error {
			w.reportDepth(gctx)
			return nil
		})
	}
	return g.Wait()
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			// Drain what is runnable before waiting for the next tick.
			for ctx.Err() == nil {
				ok, err := w.ProcessNext(ctx)
				if err != nil {
					w.log.Warn("Task processing failed", "worker_id", workerID, "error", err)
					break
				}
				if !ok {
					break
				}
			}
		}
	}
}

func (w *Worker) reportDepth(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.DepthEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, status := range []string{jobs.TaskQueued, jobs.TaskRunning, jobs.TaskFailed} {
				n, err := w.tasks.CountByStatus(dbctx.Context{Ctx: ctx}, status)
				if err != nil {
					w.log.Warn("Queue depth query failed", "status", status, "error", err)
					continue
				}
				observability.Current().SetQueueDepth(status, n)
			}
		}
	}
}

// ProcessNext claims and executes one task. It reports whether a task was
// claimed; the returned error covers queue bookkeeping only, task failures
// are handled by the retry policy.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	task, err := w.tasks.ClaimNext(dbctx.Context{Ctx: ctx}, w.now(), w.cfg.StaleAfter)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}
	return true, w.execute(ctx, task)
}

func (w *Worker) execute(ctx context.Context, task *types.PhaseTask) error {
	log := w.log.With("task_id", task.ID, "task_type", task.TaskType, "job_id", task.JobID, "attempt", task.Attempts)
	start := time.Now()

	job, err := w.jobs.GetByID(dbctx.Context{Ctx: ctx}, task.JobID)
	if err != nil {
		log.Warn("Task job lookup failed", "error", err)
		return w.settle(ctx, log, task, start, nil, err)
	}
	jc := runtime.NewContext(ctx, w.db, job, task, w.jobs, w.notify, w.log)

	h, ok := w.registry.Get(task.TaskType)
	if !ok {
		log.Warn("No handler registered for task_type")
		runErr := apierr.Errorf(apierr.InvalidInput, "worker.dispatch", "no handler registered for task_type=%s", task.TaskType)
		return w.settle(ctx, log, task, start, jc, runErr)
	}

	runErr := runtime.Execute(h, jc)
	return w.settle(ctx, log, task, start, jc, runErr)
}

// settle applies the retry policy: delete on success, reschedule with
// backoff while attempts remain and the error kind allows it, else keep the
// row as failed.
func (w *Worker) settle(ctx context.Context, log *logger.Logger, task *types.PhaseTask, start time.Time, jc *runtime.Context, runErr error) error {
	dbc := dbctx.Context{Ctx: context.WithoutCancel(ctx)}
	m := observability.Current()

	if runErr == nil {
		m.ObserveTask(task.TaskType, "success", time.Since(start))
		log.Info("Task completed", "duration_ms", time.Since(start).Milliseconds())
		return w.tasks.Complete(dbc, task.ID)
	}

	if jc != nil && jc.Job != nil && jc.Job.Stage != jobs.StageFailed {
		jc.Fail(runErr)
	}

	retryable := apierr.KindOf(runErr).Retryable() && task.Attempts < task.MaxAttempts
	if retryable {
		delay := Backoff(w.cfg.BackoffBase, task.Attempts)
		m.ObserveTask(task.TaskType, "retry", time.Since(start))
		log.Warn("Task failed; retrying", "error", runErr, "retry_in", delay)
		return w.tasks.Reschedule(dbc, task.ID, w.now().Add(delay), runErr.Error())
	}
	m.ObserveTask(task.TaskType, "failed", time.Since(start))
	log.Error("Task failed terminally", "error", runErr, "kind", apierr.KindOf(runErr).String())
	return w.tasks.MarkFailed(dbc, task.ID, runErr.Error())
}
