package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dietrepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/diet"
	jobrepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/jobs"
	profilerepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/profile"
	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
	"github.com/luisquicidev/easydiet-backend/internal/realtime"
)

// DietJobService is the read/trigger surface over the diet pipeline.
type DietJobService interface {
	CreateJob(dbc dbctx.Context, userID int64) (*types.Job, error)
	GetJob(dbc dbctx.Context, jobID uuid.UUID) (*types.Job, error)
	ListJobs(dbc dbctx.Context, userID int64, limit int) ([]*types.Job, error)
	GetCalculation(dbc dbctx.Context, calculationID uuid.UUID) (*types.Calculation, error)
	GetPlanWithMeals(dbc dbctx.Context, planID uuid.UUID) (*types.Plan, error)
	ListActivePlans(dbc dbctx.Context, userID int64) ([]*types.Plan, error)
	TriggerMealPlanning(dbc dbctx.Context, req MealPlanningRequest) (*types.Job, error)
	TriggerFoodDetailing(dbc dbctx.Context, req FoodDetailingRequest) (*types.Job, error)
	// Retry re-runs the phase whose task failed terminally.
	Retry(dbc dbctx.Context, jobID uuid.UUID) (*types.Job, error)
}

type MealPlanningRequest struct {
	JobID         uuid.UUID `json:"job_id" validate:"required"`
	CalculationID uuid.UUID `json:"calculation_id" validate:"required"`
	MealsPerDay   int       `json:"meals_per_day" validate:"gte=1,lte=10"`
}

type FoodDetailingRequest struct {
	JobID  uuid.UUID `json:"job_id" validate:"required"`
	PlanID uuid.UUID `json:"plan_id" validate:"required"`
	MealID uuid.UUID `json:"meal_id" validate:"required"`
}

type dietJobService struct {
	db       *gorm.DB
	log      *logger.Logger
	validate *validator.Validate

	jobs         jobrepo.JobRepo
	tasks        jobrepo.TaskRepo
	profiles     profilerepo.ProfileRepo
	calculations dietrepo.CalculationRepo
	plans        dietrepo.PlanRepo
	meals        dietrepo.MealRepo
	foods        dietrepo.FoodRepo
	dispatch     queue.Dispatcher
	notify       realtime.JobNotifier
}

func NewDietJobService(
	db *gorm.DB,
	baseLog *logger.Logger,
	jobsRepo jobrepo.JobRepo,
	tasks jobrepo.TaskRepo,
	profiles profilerepo.ProfileRepo,
	calculations dietrepo.CalculationRepo,
	plans dietrepo.PlanRepo,
	meals dietrepo.MealRepo,
	foods dietrepo.FoodRepo,
	dispatch queue.Dispatcher,
	notify realtime.JobNotifier,
) DietJobService {
	return &dietJobService{
		db:           db,
		log:          baseLog.With("service", "DietJobService"),
		validate:     validator.New(),
		jobs:         jobsRepo,
		tasks:        tasks,
		profiles:     profiles,
		calculations: calculations,
		plans:        plans,
		meals:        meals,
		foods:        foods,
		dispatch:     dispatch,
		notify:       notify,
	}
}

// CreateJob snapshots the user's profile into a new job and queues the
// calculation phase. The profile must be complete enough to calculate from.
func (s *dietJobService) CreateJob(dbc dbctx.Context, userID int64) (*types.Job, error) {
	if userID <= 0 {
		return nil, apierr.Errorf(apierr.InvalidInput, "diet.CreateJob", "invalid user id %d", userID)
	}
	prof, err := s.profiles.Get(dbc, userID)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(prof); err != nil {
		return nil, apierr.E(apierr.InvalidInput, "diet.CreateJob", validationError(err))
	}
	snapshot, err := json.Marshal(prof)
	if err != nil {
		return nil, apierr.E(apierr.Unknown, "diet.CreateJob", err)
	}

	job := &types.Job{
		UserID: userID,
		Stage:  jobs.StageCalculationPending,
		Input:  datatypes.JSON(snapshot),
		Result: datatypes.JSON([]byte(`{}`)),
	}
	task := func(j *types.Job) queue.Task {
		return queue.Calculation(queue.CalculationPayload{JobID: j.ID, UserID: userID})
	}
	err = s.inTx(dbc, func(inner dbctx.Context) error {
		if _, err := s.jobs.Create(inner, job); err != nil {
			return err
		}
		if queue.JoinsTx(s.dispatch) {
			return s.dispatch.Dispatch(inner, task(job))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !queue.JoinsTx(s.dispatch) {
		if err := s.dispatch.Dispatch(dbc, task(job)); err != nil {
			return nil, s.failDispatch(dbc, job, err)
		}
	}
	s.log.Info("Diet job created", "job_id", job.ID, "user_id", userID)
	if s.notify != nil {
		s.notify.JobCreated(ctxOf(dbc), job)
	}
	return job, nil
}

func (s *dietJobService) GetJob(dbc dbctx.Context, jobID uuid.UUID) (*types.Job, error) {
	return s.jobs.GetByID(dbc, jobID)
}

func (s *dietJobService) ListJobs(dbc dbctx.Context, userID int64, limit int) ([]*types.Job, error) {
	return s.jobs.ListByUser(dbc, userID, limit)
}

func (s *dietJobService) GetCalculation(dbc dbctx.Context, calculationID uuid.UUID) (*types.Calculation, error) {
	return s.calculations.GetFull(dbc, calculationID)
}

func (s *dietJobService) GetPlanWithMeals(dbc dbctx.Context, planID uuid.UUID) (*types.Plan, error) {
	return s.plans.GetWithMeals(dbc, planID)
}

func (s *dietJobService) ListActivePlans(dbc dbctx.Context, userID int64) ([]*types.Plan, error) {
	return s.plans.ListActiveByUser(dbc, userID)
}

// TriggerMealPlanning queues Phase 2 for a calculated job. Re-planning a job
// whose meals are already planned is allowed.
func (s *dietJobService) TriggerMealPlanning(dbc dbctx.Context, req MealPlanningRequest) (*types.Job, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apierr.E(apierr.InvalidInput, "diet.TriggerMealPlanning", validationError(err))
	}
	job, err := s.jobs.GetByID(dbc, req.JobID)
	if err != nil {
		return nil, err
	}
	calc, err := s.calculations.GetByID(dbc, req.CalculationID)
	if err != nil {
		return nil, err
	}
	if calc.JobID != job.ID {
		return nil, apierr.Errorf(apierr.InvalidInput, "diet.TriggerMealPlanning", "calculation %s does not belong to job %s", calc.ID, job.ID)
	}

	task := queue.MealPlanning(queue.MealPlanningPayload{JobID: job.ID, CalculationID: calc.ID, MealsPerDay: req.MealsPerDay})
	err = s.inTx(dbc, func(inner dbctx.Context) error {
		if err := s.jobs.Apply(inner, job, jobs.EventQueueMealPlanning, nil); err != nil {
			return err
		}
		if queue.JoinsTx(s.dispatch) {
			return s.dispatch.Dispatch(inner, task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !queue.JoinsTx(s.dispatch) {
		if err := s.dispatch.Dispatch(dbc, task); err != nil {
			return nil, s.failDispatch(dbc, job, err)
		}
	}
	realtime.Announce(ctxOf(dbc), s.notify, job)
	return job, nil
}

// TriggerFoodDetailing queues Phase 3 for one meal. The job keeps its stage
// until a worker picks the task up.
func (s *dietJobService) TriggerFoodDetailing(dbc dbctx.Context, req FoodDetailingRequest) (*types.Job, error) {
	const op = "diet.TriggerFoodDetailing"
	if err := s.validate.Struct(req); err != nil {
		return nil, apierr.E(apierr.InvalidInput, op, validationError(err))
	}
	job, err := s.jobs.GetByID(dbc, req.JobID)
	if err != nil {
		return nil, err
	}
	switch job.Stage {
	case jobs.StageMealsPlanned, jobs.StageFoodDetailing, jobs.StageCompleted:
	default:
		return nil, apierr.Errorf(apierr.Conflict, op, "job %s is %s; meals are not planned yet", job.ID, job.Stage)
	}
	plan, err := s.plans.GetByID(dbc, req.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.JobID != job.ID {
		return nil, apierr.Errorf(apierr.InvalidInput, op, "plan %s does not belong to job %s", plan.ID, job.ID)
	}
	meal, err := s.meals.GetByID(dbc, req.MealID)
	if err != nil {
		return nil, err
	}
	if meal.PlanID != plan.ID {
		return nil, apierr.Errorf(apierr.InvalidInput, op, "meal %s does not belong to plan %s", meal.ID, plan.ID)
	}
	n, err := s.foods.CountByMeal(dbc, meal.ID)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, apierr.Errorf(apierr.Conflict, op, "meal %s already has %d foods", meal.ID, n)
	}

	if err := s.dispatch.Dispatch(dbc, queue.FoodDetailing(queue.FoodDetailingPayload{JobID: job.ID, PlanID: plan.ID, MealID: meal.ID})); err != nil {
		return nil, err
	}
	s.log.Info("Food detailing queued", "job_id", job.ID, "plan_id", plan.ID, "meal_id", meal.ID)
	return job, nil
}

func (s *dietJobService) Retry(dbc dbctx.Context, jobID uuid.UUID) (*types.Job, error) {
	const op = "diet.Retry"
	job, err := s.jobs.GetByID(dbc, jobID)
	if err != nil {
		return nil, err
	}
	if job.Stage != jobs.StageFailed {
		return nil, apierr.Errorf(apierr.Conflict, op, "job %s is %s, not failed", job.ID, job.Stage)
	}
	row, err := s.tasks.LatestFailedForJob(dbc, job.ID)
	if err != nil {
		return nil, err
	}

	if queue.JoinsTx(s.dispatch) {
		if err := s.tasks.Requeue(dbc, row.ID, time.Now()); err != nil {
			return nil, err
		}
	} else {
		if err := s.dispatch.Dispatch(dbc, queue.FromRow(row)); err != nil {
			return nil, err
		}
		if err := s.tasks.Complete(dbc, row.ID); err != nil {
			return nil, err
		}
	}
	s.log.Info("Failed phase re-queued", "job_id", job.ID, "task_type", row.TaskType, "failed_stage", job.FailedStage)
	return job, nil
}

// failDispatch marks the job failed when its next phase could not be queued,
// so it does not sit pending forever.
func (s *dietJobService) failDispatch(dbc dbctx.Context, job *types.Job, cause error) error {
	if err := s.jobs.Apply(dbc, job, jobs.EventFail, map[string]interface{}{"error": cause.Error()}); err != nil {
		s.log.Warn("Marking job failed after dispatch error failed", "job_id", job.ID, "error", err)
	}
	realtime.Announce(ctxOf(dbc), s.notify, job)
	return apierr.E(apierr.PersistenceFailure, "diet.dispatch", cause)
}

func (s *dietJobService) inTx(dbc dbctx.Context, fn func(dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	return s.db.WithContext(ctxOf(dbc)).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
	})
}

func ctxOf(dbc dbctx.Context) context.Context {
	if dbc.Ctx == nil {
		return context.Background()
	}
	return dbc.Ctx
}

func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err
	}
	fe := ve[0]
	return &FieldError{Field: fe.Namespace(), Tag: fe.Tag(), Param: fe.Param()}
}
