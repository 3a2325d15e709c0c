package phaserun

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	jobrepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/jobs"
	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	jobrt "github.com/luisquicidev/easydiet-backend/internal/jobs/runtime"
	"github.com/luisquicidev/easydiet-backend/internal/observability"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
	"github.com/luisquicidev/easydiet-backend/internal/realtime"
)

type Activities struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Jobs     jobrepo.JobRepo
	Tasks    jobrepo.TaskRepo
	Registry *jobrt.Registry
	Notify   realtime.JobNotifier
}

// RunPhase executes one attempt of a phase task. Exhausted or non-retryable
// failures leave a failed queue row behind so the job can be retried later.
func (a *Activities) RunPhase(ctx context.Context, env Envelope) error {
	attempt := int(activity.GetInfo(ctx).Attempt)
	task := &types.PhaseTask{
		ID:          env.TaskID,
		JobID:       env.JobID,
		TaskType:    env.TaskType,
		Payload:     datatypes.JSON(env.Payload),
		Priority:    env.Priority,
		Status:      jobs.TaskRunning,
		Attempts:    attempt,
		MaxAttempts: env.MaxAttempts,
	}
	log := a.Log.With("task_id", task.ID, "task_type", task.TaskType, "job_id", task.JobID, "attempt", attempt)
	start := time.Now()

	job, err := a.Jobs.GetByID(dbctx.Context{Ctx: ctx}, env.JobID)
	if err != nil {
		return a.settle(ctx, log, task, start, nil, err)
	}
	jc := jobrt.NewContext(ctx, a.DB, job, task, a.Jobs, a.Notify, a.Log)

	h, ok := a.Registry.Get(task.TaskType)
	if !ok {
		runErr := apierr.Errorf(apierr.InvalidInput, "phaserun.dispatch", "no handler registered for task_type=%s", task.TaskType)
		return a.settle(ctx, log, task, start, jc, runErr)
	}
	return a.settle(ctx, log, task, start, jc, jobrt.Execute(h, jc))
}

func (a *Activities) settle(ctx context.Context, log *logger.Logger, task *types.PhaseTask, start time.Time, jc *jobrt.Context, runErr error) error {
	m := observability.Current()
	if runErr == nil {
		m.ObserveTask(task.TaskType, "success", time.Since(start))
		log.Info("Task completed", "duration_ms", time.Since(start).Milliseconds())
		return nil
	}
	if jc != nil && jc.Job != nil && jc.Job.Stage != jobs.StageFailed {
		jc.Fail(runErr)
	}

	kind := apierr.KindOf(runErr)
	if kind.Retryable() && task.Attempts < task.MaxAttempts {
		m.ObserveTask(task.TaskType, "retry", time.Since(start))
		log.Warn("Task failed; Temporal will retry", "error", runErr)
		return runErr
	}

	m.ObserveTask(task.TaskType, "failed", time.Since(start))
	log.Error("Task failed terminally", "error", runErr, "kind", kind.String())
	if err := a.recordFailure(ctx, task, runErr); err != nil {
		log.Warn("Recording failed task row failed", "error", err)
	}
	return temporal.NewNonRetryableApplicationError(runErr.Error(), ErrTypeNonRetryable, runErr)
}

func (a *Activities) recordFailure(ctx context.Context, task *types.PhaseTask, runErr error) error {
	dbc := dbctx.Context{Ctx: context.WithoutCancel(ctx)}
	return a.DB.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		row := *task
		row.LockedAt = nil
		if _, err := a.Tasks.Enqueue(inner, &row); err != nil {
			return err
		}
		return a.Tasks.MarkFailed(inner, row.ID, runErr.Error())
	})
}
