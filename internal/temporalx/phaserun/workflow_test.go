package phaserun

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	jobrepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/data/repos/testutil"
	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
	jobrt "github.com/luisquicidev/easydiet-backend/internal/jobs/runtime"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

func testEnvelope(t *testing.T) Envelope {
	t.Helper()
	jobID := uuid.New()
	env, err := NewEnvelope(queue.Calculation(queue.CalculationPayload{JobID: jobID, UserID: 7}), 3)
	require.NoError(t, err)
	return env
}

func TestRetryPolicyMatchesQueueSchedule(t *testing.T) {
	p := RetryPolicy(0)
	assert.Equal(t, int32(3), p.MaximumAttempts)
	assert.Equal(t, InitialInterval, p.InitialInterval)
	assert.Equal(t, 2.0, p.BackoffCoefficient)
	assert.Contains(t, p.NonRetryableErrorTypes, ErrTypeNonRetryable)
}

func TestEnvelopeCarriesTask(t *testing.T) {
	jobID, planID, mealID := uuid.New(), uuid.New(), uuid.New()
	env, err := NewEnvelope(queue.FoodDetailing(queue.FoodDetailingPayload{JobID: jobID, PlanID: planID, MealID: mealID}), 0)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskFoodDetailing, env.TaskType)
	assert.Equal(t, queue.PriorityFoodDetailing, env.Priority)
	assert.Equal(t, queue.DefaultMaxAttempts, env.MaxAttempts)
	assert.Contains(t, env.WorkflowID(), jobID.String())

	other, err := NewEnvelope(queue.FoodDetailing(queue.FoodDetailingPayload{JobID: jobID, PlanID: planID, MealID: mealID}), 0)
	require.NoError(t, err)
	assert.NotEqual(t, env.WorkflowID(), other.WorkflowID())
}

func TestWorkflowRetriesTransientFailures(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})

	calls := 0
	env.RegisterActivityWithOptions(func(ctx context.Context, e Envelope) error {
		calls++
		if calls < 3 {
			return errors.New("provider timeout")
		}
		return nil
	}, activity.RegisterOptions{Name: ActivityRunPhase})

	env.ExecuteWorkflow(WorkflowName, testEnvelope(t))
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, 3, calls)
}

func TestWorkflowGivesUpAfterMaxAttempts(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})

	calls := 0
	env.RegisterActivityWithOptions(func(ctx context.Context, e Envelope) error {
		calls++
		return errors.New("still down")
	}, activity.RegisterOptions{Name: ActivityRunPhase})

	env.ExecuteWorkflow(WorkflowName, testEnvelope(t))
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.Equal(t, 3, calls)
}

func TestWorkflowStopsOnNonRetryable(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})

	calls := 0
	env.RegisterActivityWithOptions(func(ctx context.Context, e Envelope) error {
		calls++
		return temporal.NewNonRetryableApplicationError("profile missing", ErrTypeNonRetryable, nil)
	}, activity.RegisterOptions{Name: ActivityRunPhase})

	env.ExecuteWorkflow(WorkflowName, testEnvelope(t))
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.Equal(t, 1, calls)
}

type activityHarness struct {
	acts  *Activities
	reg   *jobrt.Registry
	tasks jobrepo.TaskRepo
	jobs  jobrepo.JobRepo
	job   *types.Job
}

func newActivityHarness(t *testing.T) *activityHarness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &activityHarness{
		reg:   jobrt.NewRegistry(),
		tasks: jobrepo.NewTaskRepo(db, log),
		jobs:  jobrepo.NewJobRepo(db, log),
	}
	h.acts = &Activities{Log: log, DB: db, Jobs: h.jobs, Tasks: h.tasks, Registry: h.reg}
	h.job = testutil.SeedJob(t, context.Background(), db, 1, jobs.StageCalculationPending)
	return h
}

func (h *activityHarness) run(t *testing.T) (Envelope, error) {
	t.Helper()
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	env.RegisterActivityWithOptions(h.acts.RunPhase, activity.RegisterOptions{Name: ActivityRunPhase})
	e, err := NewEnvelope(queue.Calculation(queue.CalculationPayload{JobID: h.job.ID, UserID: 1}), 1)
	require.NoError(t, err)
	_, runErr := env.ExecuteActivity(ActivityRunPhase, e)
	return e, runErr
}

func TestRunPhaseDecodesPayload(t *testing.T) {
	h := newActivityHarness(t)
	var got queue.CalculationPayload
	require.NoError(t, h.reg.Register(jobrt.HandlerFunc(jobs.TaskCalculation, func(c *jobrt.Context) error {
		return c.Decode(&got)
	})))

	_, err := h.run(t)
	require.NoError(t, err)
	assert.Equal(t, h.job.ID, got.JobID)

	n, err := h.tasks.CountByJob(dbctx.Context{Ctx: context.Background()}, h.job.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunPhaseTerminalFailureLeavesFailedRow(t *testing.T) {
	h := newActivityHarness(t)
	require.NoError(t, h.reg.Register(jobrt.HandlerFunc(jobs.TaskCalculation, func(c *jobrt.Context) error {
		return apierr.Errorf(apierr.NotFound, "profiles.Get", "profile for user 1 not found")
	})))

	e, err := h.run(t)
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.True(t, appErr.NonRetryable())

	row, err := h.tasks.LatestFailedForJob(dbctx.Context{Ctx: context.Background()}, h.job.ID)
	require.NoError(t, err)
	assert.Equal(t, e.TaskID, row.ID)
	assert.Contains(t, row.LastError, "not found")

	job, err := h.jobs.GetByID(dbctx.Context{Ctx: context.Background()}, h.job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StageFailed, job.Stage)
}

func TestDispatcherStartsWorkflow(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	run.On("GetRunID").Return("run-1")
	c.On("ExecuteWorkflow", mock.Anything, mock.MatchedBy(func(o temporalsdkclient.StartWorkflowOptions) bool {
		return o.TaskQueue == "easydiet-phases"
	}), WorkflowName, mock.Anything).Return(run, nil)

	d := NewDispatcher(c, "easydiet-phases", 3, logger.Nop())
	jobID := uuid.New()
	require.NoError(t, d.Dispatch(dbctx.Context{Ctx: context.Background()}, queue.Calculation(queue.CalculationPayload{JobID: jobID, UserID: 1})))
	c.AssertNumberOfCalls(t, "ExecuteWorkflow", 1)
	assert.False(t, queue.JoinsTx(d))
}
