package jobs

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

type JobRepo interface {
	Create(dbc dbctx.Context, job *types.Job) (*types.Job, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Job, error)
	ListByUser(dbc dbctx.Context, userID int64, limit int) ([]*types.Job, error)
	// Apply moves the job through the state machine and persists stage,
	// status and progress plus any extra column updates.
	Apply(dbc dbctx.Context, job *types.Job, ev jobs.Event, updates map[string]interface{}) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type jobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	return &jobRepo{
		db:  db,
		log: baseLog.With("repo", "JobRepo"),
	}
}

func (r *jobRepo) Create(dbc dbctx.Context, job *types.Job) (*types.Job, error) {
	if job == nil {
		return nil, apierr.Errorf(apierr.InvalidInput, "jobs.Create", "nil job")
	}
	if err := dbc.DB(r.db).Create(job).Error; err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "jobs.Create", err)
	}
	return job, nil
}

func (r *jobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Job, error) {
	var job types.Job
	err := dbc.DB(r.db).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.Errorf(apierr.NotFound, "jobs.Get", "job %s not found", id)
	}
	if err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "jobs.Get", err)
	}
	return &job, nil
}

func (r *jobRepo) ListByUser(dbc dbctx.Context, userID int64, limit int) ([]*types.Job, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []*types.Job
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "jobs.ListByUser", err)
	}
	return out, nil
}

func (r *jobRepo) Apply(dbc dbctx.Context, job *types.Job, ev jobs.Event, updates map[string]interface{}) error {
	if job == nil {
		return apierr.Errorf(apierr.InvalidInput, "jobs.Apply", "nil job")
	}
	from := job.Stage
	to, err := jobs.Transition(from, ev)
	if err != nil {
		return apierr.E(apierr.Conflict, "jobs.Apply", err)
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["stage"] = to
	updates["status"] = to.Status()
	if _, ok := updates["progress"]; !ok {
		if p := to.Progress(); p >= 0 {
			updates["progress"] = p
		}
	}
	if to == jobs.StageFailed {
		if from != jobs.StageFailed {
			updates["failed_stage"] = from
		}
	} else if _, ok := updates["error"]; !ok {
		updates["error"] = ""
	}
	updates["updated_at"] = time.Now()

	res := dbc.DB(r.db).Model(&types.Job{}).Where("id = ?", job.ID).Updates(updates)
	if res.Error != nil {
		return apierr.E(apierr.PersistenceFailure, "jobs.Apply", res.Error)
	}
	if res.RowsAffected == 0 {
		return apierr.Errorf(apierr.NotFound, "jobs.Apply", "job %s not found", job.ID)
	}
	r.log.Debug("Job transition", "job_id", job.ID, "from", from, "event", ev, "to", to)

	job.Stage = to
	job.Status = to.Status()
	if p, ok := updates["progress"].(int); ok {
		job.Progress = p
	}
	if fs, ok := updates["failed_stage"].(jobs.Stage); ok {
		job.FailedStage = fs
	}
	if e, ok := updates["error"].(string); ok {
		job.Error = e
	}
	return nil
}

func (r *jobRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	for _, k := range []string{"stage", "status"} {
		if _, ok := updates[k]; ok {
			return fmt.Errorf("jobs.UpdateFields: %s only moves through Apply", k)
		}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	if err := dbc.DB(r.db).Model(&types.Job{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return apierr.E(apierr.PersistenceFailure, "jobs.UpdateFields", err)
	}
	return nil
}
