package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

type TaskRepo interface {
	Enqueue(dbc dbctx.Context, task *types.PhaseTask) (*types.PhaseTask, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PhaseTask, error)
	// ClaimNext locks the highest priority runnable task and marks it running.
	// Running tasks locked before now-staleAfter are claimable again.
	ClaimNext(dbc dbctx.Context, now time.Time, staleAfter time.Duration) (*types.PhaseTask, error)
	Complete(dbc dbctx.Context, id uuid.UUID) error
	Reschedule(dbc dbctx.Context, id uuid.UUID, runAfter time.Time, lastErr string) error
	MarkFailed(dbc dbctx.Context, id uuid.UUID, lastErr string) error
	Requeue(dbc dbctx.Context, id uuid.UUID, now time.Time) error
	LatestFailedForJob(dbc dbctx.Context, jobID uuid.UUID) (*types.PhaseTask, error)
	CountByJob(dbc dbctx.Context, jobID uuid.UUID) (int64, error)
	CountByStatus(dbc dbctx.Context, status string) (int64, error)
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{
		db:  db,
		log: baseLog.With("repo", "TaskRepo"),
	}
}

func (r *taskRepo) Enqueue(dbc dbctx.Context, task *types.PhaseTask) (*types.PhaseTask, error) {
	if task == nil || task.JobID == uuid.Nil || task.TaskType == "" {
		return nil, apierr.Errorf(apierr.InvalidInput, "tasks.Enqueue", "task needs job id and type")
	}
	task.Status = jobs.TaskQueued
	if task.MaxAttempts <= 0 {
		task.MaxAttempts = 3
	}
	if err := dbc.DB(r.db).Create(task).Error; err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "tasks.Enqueue", err)
	}
	return task, nil
}

func (r *taskRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PhaseTask, error) {
	var t types.PhaseTask
	err := dbc.DB(r.db).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.Errorf(apierr.NotFound, "tasks.Get", "task %s not found", id)
	}
	if err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "tasks.Get", err)
	}
	return &t, nil
}

func (r *taskRepo) ClaimNext(dbc dbctx.Context, now time.Time, staleAfter time.Duration) (*types.PhaseTask, error) {
	staleCutoff := now.Add(-staleAfter)
	var claimed *types.PhaseTask
	err := dbc.DB(r.db).Transaction(func(txx *gorm.DB) error {
		var task types.PhaseTask
		qErr := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(`
        (
          (status = ? AND run_after <= ?)
          OR (status = ? AND locked_at IS NOT NULL AND locked_at < ?)
        )
      `, jobs.TaskQueued, now, jobs.TaskRunning, staleCutoff).
			Order("priority DESC").
			Order("created_at ASC").
			First(&task).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.PhaseTask{}).
			Where("id = ?", task.ID).
			Updates(map[string]interface{}{
				"status":     jobs.TaskRunning,
				"attempts":   gorm.Expr("attempts + 1"),
				"locked_at":  now,
				"updated_at": now,
			}).Error
		if uErr != nil {
			return uErr
		}
		task.Status = jobs.TaskRunning
		task.Attempts++
		task.LockedAt = &now
		claimed = &task
		return nil
	})
	if err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "tasks.ClaimNext", err)
	}
	return claimed, nil
}

func (r *taskRepo) Complete(dbc dbctx.Context, id uuid.UUID) error {
	if err := dbc.DB(r.db).Where("id = ?", id).Delete(&types.PhaseTask{}).Error; err != nil {
		return apierr.E(apierr.PersistenceFailure, "tasks.Complete", err)
	}
	return nil
}

func (r *taskRepo) Reschedule(dbc dbctx.Context, id uuid.UUID, runAfter time.Time, lastErr string) error {
	return r.update(dbc, "tasks.Reschedule", id, map[string]interface{}{
		"status":     jobs.TaskQueued,
		"run_after":  runAfter,
		"locked_at":  nil,
		"last_error": lastErr,
	})
}

func (r *taskRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID, lastErr string) error {
	return r.update(dbc, "tasks.MarkFailed", id, map[string]interface{}{
		"status":     jobs.TaskFailed,
		"locked_at":  nil,
		"last_error": lastErr,
	})
}

// Requeue gives a terminally failed task a fresh set of attempts.
func (r *taskRepo) Requeue(dbc dbctx.Context, id uuid.UUID, now time.Time) error {
	return r.update(dbc, "tasks.Requeue", id, map[string]interface{}{
		"status":    jobs.TaskQueued,
		"attempts":  0,
		"run_after": now,
		"locked_at": nil,
	})
}

func (r *taskRepo) LatestFailedForJob(dbc dbctx.Context, jobID uuid.UUID) (*types.PhaseTask, error) {
	var t types.PhaseTask
	err := dbc.DB(r.db).
		Where("job_id = ? AND status = ?", jobID, jobs.TaskFailed).
		Order("updated_at DESC").
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.Errorf(apierr.NotFound, "tasks.LatestFailedForJob", "no failed task for job %s", jobID)
	}
	if err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "tasks.LatestFailedForJob", err)
	}
	return &t, nil
}

func (r *taskRepo) CountByJob(dbc dbctx.Context, jobID uuid.UUID) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.PhaseTask{}).Where("job_id = ?", jobID).Count(&n).Error; err != nil {
		return 0, apierr.E(apierr.PersistenceFailure, "tasks.CountByJob", err)
	}
	return n, nil
}

func (r *taskRepo) CountByStatus(dbc dbctx.Context, status string) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.PhaseTask{}).Where("status = ?", status).Count(&n).Error; err != nil {
		return 0, apierr.E(apierr.PersistenceFailure, "tasks.CountByStatus", err)
	}
	return n, nil
}

func (r *taskRepo) update(dbc dbctx.Context, op string, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	res := dbc.DB(r.db).Model(&types.PhaseTask{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return apierr.E(apierr.PersistenceFailure, op, res.Error)
	}
	if res.RowsAffected == 0 {
		return apierr.Errorf(apierr.NotFound, op, "task %s not found", id)
	}
	return nil
}
