package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	dietrepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/diet"
	jobrepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/jobs"
	profilerepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/profile"
	"github.com/luisquicidev/easydiet-backend/internal/data/repos/testutil"
	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
)

type recordingNotifier struct{ events []string }

func (n *recordingNotifier) JobCreated(_ context.Context, j *types.Job) {
	n.events = append(n.events, "created:"+string(j.Stage))
}
func (n *recordingNotifier) JobProgress(_ context.Context, j *types.Job) {
	n.events = append(n.events, "progress:"+string(j.Stage))
}
func (n *recordingNotifier) JobFailed(_ context.Context, j *types.Job) {
	n.events = append(n.events, "failed:"+string(j.Stage))
}
func (n *recordingNotifier) JobDone(_ context.Context, j *types.Job) {
	n.events = append(n.events, "done:"+string(j.Stage))
}

// outOfTxDispatcher stands in for a dispatcher that cannot join the
// database transaction.
type outOfTxDispatcher struct {
	tasks []queue.Task
	err   error
}

func (d *outOfTxDispatcher) Dispatch(_ dbctx.Context, t queue.Task) error {
	if d.err != nil {
		return d.err
	}
	d.tasks = append(d.tasks, t)
	return nil
}

type svcHarness struct {
	db     *gorm.DB
	svc    DietJobService
	tasks  jobrepo.TaskRepo
	jobs   jobrepo.JobRepo
	notify *recordingNotifier
	dbc    dbctx.Context
}

func newSvcHarness(t *testing.T, dispatch queue.Dispatcher) *svcHarness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &svcHarness{
		db:     db,
		tasks:  jobrepo.NewTaskRepo(db, log),
		jobs:   jobrepo.NewJobRepo(db, log),
		notify: &recordingNotifier{},
		dbc:    dbctx.Context{Ctx: context.Background()},
	}
	if dispatch == nil {
		dispatch = queue.NewDBDispatcher(h.tasks, 3, log)
	}
	h.svc = NewDietJobService(db, log, h.jobs, h.tasks,
		profilerepo.NewProfileRepo(db, log),
		dietrepo.NewCalculationRepo(db, log),
		dietrepo.NewPlanRepo(db, log),
		dietrepo.NewMealRepo(db, log),
		dietrepo.NewFoodRepo(db, log),
		dispatch, h.notify)
	return h
}

func (h *svcHarness) onlyTask(t *testing.T, jobID uuid.UUID) *types.PhaseTask {
	t.Helper()
	var rows []types.PhaseTask
	require.NoError(t, h.db.Where("job_id = ?", jobID).Find(&rows).Error)
	require.Len(t, rows, 1)
	return &rows[0]
}

func TestCreateJobQueuesCalculation(t *testing.T) {
	h := newSvcHarness(t, nil)
	testutil.SeedProfile(t, h.dbc.Ctx, h.db, 42, 4)

	job, err := h.svc.CreateJob(h.dbc, 42)
	require.NoError(t, err)
	assert.Equal(t, jobs.StageCalculationPending, job.Stage)
	assert.Equal(t, jobs.StatusPending, job.Status)
	assert.Contains(t, string(job.Input), "chicken breast")

	task := h.onlyTask(t, job.ID)
	assert.Equal(t, jobs.TaskCalculation, task.TaskType)
	var p queue.CalculationPayload
	require.NoError(t, queue.Decode(task.Payload, &p))
	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, []string{"created:calculation_pending"}, h.notify.events)
}

func TestCreateJobRequiresProfile(t *testing.T) {
	h := newSvcHarness(t, nil)
	_, err := h.svc.CreateJob(h.dbc, 7)
	assert.Equal(t, apierr.NotFound, apierr.KindOf(err))

	require.NoError(t, h.db.Create(&types.Biometrics{UserID: 8, WeightKg: 70, HeightCm: 170, Age: 40, Gender: "female"}).Error)
	_, err = h.svc.CreateJob(h.dbc, 8)
	assert.Equal(t, apierr.InvalidInput, apierr.KindOf(err))
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Field, "Goal")

	var n int64
	require.NoError(t, h.db.Model(&types.Job{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateJobDispatchesAfterCommitWhenDispatcherCannotJoin(t *testing.T) {
	d := &outOfTxDispatcher{}
	h := newSvcHarness(t, d)
	testutil.SeedProfile(t, h.dbc.Ctx, h.db, 42, 3)

	job, err := h.svc.CreateJob(h.dbc, 42)
	require.NoError(t, err)
	require.Len(t, d.tasks, 1)
	assert.Equal(t, job.ID, d.tasks[0].JobID)

	d.err = errors.New("temporal unavailable")
	_, err = h.svc.CreateJob(h.dbc, 42)
	require.Error(t, err)
	var failed types.Job
	require.NoError(t, h.db.Where("id <> ?", job.ID).First(&failed).Error)
	assert.Equal(t, jobs.StageFailed, failed.Stage)
	assert.Equal(t, jobs.StageCalculationPending, failed.FailedStage)
}

func TestTriggerMealPlanning(t *testing.T) {
	h := newSvcHarness(t, nil)
	job := testutil.SeedJob(t, h.dbc.Ctx, h.db, 1, jobs.StageCalculated)
	calc := testutil.SeedCalculation(t, h.dbc.Ctx, h.db, job, 2500)
	other := testutil.SeedJob(t, h.dbc.Ctx, h.db, 1, jobs.StageCalculated)
	otherCalc := testutil.SeedCalculation(t, h.dbc.Ctx, h.db, other, 2000)

	_, err := h.svc.TriggerMealPlanning(h.dbc, MealPlanningRequest{JobID: job.ID, CalculationID: calc.ID, MealsPerDay: 11})
	assert.Equal(t, apierr.InvalidInput, apierr.KindOf(err))

	_, err = h.svc.TriggerMealPlanning(h.dbc, MealPlanningRequest{JobID: job.ID, CalculationID: otherCalc.ID, MealsPerDay: 4})
	assert.Equal(t, apierr.InvalidInput, apierr.KindOf(err))

	got, err := h.svc.TriggerMealPlanning(h.dbc, MealPlanningRequest{JobID: job.ID, CalculationID: calc.ID, MealsPerDay: 4})
	require.NoError(t, err)
	assert.Equal(t, jobs.StageMealPlanningPending, got.Stage)
	assert.Equal(t, 40, got.Progress)

	task := h.onlyTask(t, job.ID)
	var p queue.MealPlanningPayload
	require.NoError(t, queue.Decode(task.Payload, &p))
	assert.Equal(t, 4, p.MealsPerDay)
	assert.Equal(t, calc.ID, p.CalculationID)
}

func TestTriggerMealPlanningBeforeCalculationConflicts(t *testing.T) {
	h := newSvcHarness(t, nil)
	job := testutil.SeedJob(t, h.dbc.Ctx, h.db, 1, jobs.StageCalculating)
	calc := testutil.SeedCalculation(t, h.dbc.Ctx, h.db, job, 2500)

	_, err := h.svc.TriggerMealPlanning(h.dbc, MealPlanningRequest{JobID: job.ID, CalculationID: calc.ID, MealsPerDay: 3})
	assert.Equal(t, apierr.Conflict, apierr.KindOf(err))

	var n int64
	require.NoError(t, h.db.Model(&types.PhaseTask{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestTriggerFoodDetailing(t *testing.T) {
	h := newSvcHarness(t, nil)
	ctx := h.dbc.Ctx
	job := testutil.SeedJob(t, ctx, h.db, 1, jobs.StageMealsPlanned)
	calc := testutil.SeedCalculation(t, ctx, h.db, job, 2500)
	plan := testutil.SeedPlan(t, ctx, h.db, calc, "standard day", types.Macros{ProteinG: 150, CarbsG: 250, FatG: 80}, true)
	breakfast := testutil.SeedMeal(t, ctx, h.db, plan.ID, "Breakfast", 0, types.Macros{ProteinG: 30, CarbsG: 60, FatG: 15})
	lunch := testutil.SeedMeal(t, ctx, h.db, plan.ID, "Lunch", 1, types.Macros{ProteinG: 50, CarbsG: 80, FatG: 25})
	testutil.SeedFood(t, ctx, h.db, lunch.ID, "rice", 150)

	_, err := h.svc.TriggerFoodDetailing(h.dbc, FoodDetailingRequest{JobID: job.ID, PlanID: plan.ID, MealID: lunch.ID})
	assert.Equal(t, apierr.Conflict, apierr.KindOf(err))

	_, err = h.svc.TriggerFoodDetailing(h.dbc, FoodDetailingRequest{JobID: job.ID, PlanID: plan.ID})
	assert.Equal(t, apierr.InvalidInput, apierr.KindOf(err))

	_, err = h.svc.TriggerFoodDetailing(h.dbc, FoodDetailingRequest{JobID: job.ID, PlanID: plan.ID, MealID: breakfast.ID})
	require.NoError(t, err)
	task := h.onlyTask(t, job.ID)
	assert.Equal(t, jobs.TaskFoodDetailing, task.TaskType)
	assert.Equal(t, queue.PriorityFoodDetailing, task.Priority)

	reloaded, err := h.svc.GetJob(h.dbc, job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StageMealsPlanned, reloaded.Stage)
}

func TestTriggerFoodDetailingRejectsUnplannedJob(t *testing.T) {
	h := newSvcHarness(t, nil)
	job := testutil.SeedJob(t, h.dbc.Ctx, h.db, 1, jobs.StageCalculated)
	_, err := h.svc.TriggerFoodDetailing(h.dbc, FoodDetailingRequest{JobID: job.ID, PlanID: uuid.New(), MealID: uuid.New()})
	assert.Equal(t, apierr.Conflict, apierr.KindOf(err))
}

func TestRetryRequeuesFailedTask(t *testing.T) {
	h := newSvcHarness(t, nil)
	job := testutil.SeedJob(t, h.dbc.Ctx, h.db, 1, jobs.StageCalculationPending)

	_, err := h.svc.Retry(h.dbc, job.ID)
	assert.Equal(t, apierr.Conflict, apierr.KindOf(err))

	row, err := queue.Calculation(queue.CalculationPayload{JobID: job.ID, UserID: 1}).Row(3)
	require.NoError(t, err)
	_, err = h.tasks.Enqueue(h.dbc, row)
	require.NoError(t, err)
	require.NoError(t, h.db.Model(row).Updates(map[string]any{"attempts": 3}).Error)
	require.NoError(t, h.tasks.MarkFailed(h.dbc, row.ID, "provider down"))
	require.NoError(t, h.jobs.Apply(h.dbc, job, jobs.EventFail, map[string]interface{}{"error": "provider down"}))

	got, err := h.svc.Retry(h.dbc, job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StageFailed, got.Stage)

	task := h.onlyTask(t, job.ID)
	assert.Equal(t, jobs.TaskQueued, task.Status)
	assert.Zero(t, task.Attempts)
}

func TestRetryRedispatchesWhenDispatcherCannotJoin(t *testing.T) {
	d := &outOfTxDispatcher{}
	h := newSvcHarness(t, d)
	job := testutil.SeedJob(t, h.dbc.Ctx, h.db, 1, jobs.StageCalculationPending)
	row, err := queue.Calculation(queue.CalculationPayload{JobID: job.ID, UserID: 1}).Row(3)
	require.NoError(t, err)
	_, err = h.tasks.Enqueue(h.dbc, row)
	require.NoError(t, err)
	require.NoError(t, h.tasks.MarkFailed(h.dbc, row.ID, "boom"))
	require.NoError(t, h.jobs.Apply(h.dbc, job, jobs.EventFail, nil))

	_, err = h.svc.Retry(h.dbc, job.ID)
	require.NoError(t, err)
	require.Len(t, d.tasks, 1)
	assert.Equal(t, jobs.TaskCalculation, d.tasks[0].Type)

	n, err := h.tasks.CountByJob(h.dbc, job.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReadOperations(t *testing.T) {
	h := newSvcHarness(t, nil)
	ctx := h.dbc.Ctx
	job := testutil.SeedJob(t, ctx, h.db, 5, jobs.StageMealsPlanned)
	calc := testutil.SeedCalculation(t, ctx, h.db, job, 2200)
	plan := testutil.SeedPlan(t, ctx, h.db, calc, "standard day", types.Macros{ProteinG: 140, CarbsG: 220, FatG: 70}, true)
	testutil.SeedMeal(t, ctx, h.db, plan.ID, "Dinner", 1, types.Macros{})
	testutil.SeedMeal(t, ctx, h.db, plan.ID, "Breakfast", 0, types.Macros{})

	gotCalc, err := h.svc.GetCalculation(h.dbc, calc.ID)
	require.NoError(t, err)
	require.Len(t, gotCalc.Plans, 1)

	gotPlan, err := h.svc.GetPlanWithMeals(h.dbc, plan.ID)
	require.NoError(t, err)
	require.Len(t, gotPlan.Meals, 2)
	assert.Equal(t, "Breakfast", gotPlan.Meals[0].Name)

	active, err := h.svc.ListActivePlans(h.dbc, 5)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	list, err := h.svc.ListJobs(h.dbc, 5, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = h.svc.GetJob(h.dbc, uuid.New())
	assert.Equal(t, apierr.NotFound, apierr.KindOf(err))
}
