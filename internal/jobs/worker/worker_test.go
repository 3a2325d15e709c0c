package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	jobrepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/data/repos/testutil"
	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/runtime"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
)

type harness struct {
	db    *gorm.DB
	w     *Worker
	tasks jobrepo.TaskRepo
	jobs  jobrepo.JobRepo
	reg   *runtime.Registry
	clock time.Time
	job   *types.Job
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{
		db:    db,
		tasks: jobrepo.NewTaskRepo(db, log),
		jobs:  jobrepo.NewJobRepo(db, log),
		reg:   runtime.NewRegistry(),
		clock: time.Now().Add(time.Second),
	}
	h.w = New(db, log, h.jobs, h.tasks, h.reg, nil, Config{Concurrency: 1, BackoffBase: 2 * time.Second})
	h.w.now = func() time.Time { return h.clock }
	h.job = testutil.SeedJob(t, ctx, db, 1, jobs.StageCalculationPending)

	d := queue.NewDBDispatcher(h.tasks, 3, log)
	require.NoError(t, d.Dispatch(dbctx.Context{Ctx: ctx}, queue.Calculation(queue.CalculationPayload{JobID: h.job.ID, UserID: 1})))
	return h
}

func (h *harness) taskRow(t *testing.T) *types.PhaseTask {
	t.Helper()
	var row types.PhaseTask
	require.NoError(t, h.db.Where("job_id = ?", h.job.ID).First(&row).Error)
	return &row
}

func TestBackoffDoubles(t *testing.T) {
	assert.Equal(t, 2*time.Second, Backoff(2*time.Second, 1))
	assert.Equal(t, 4*time.Second, Backoff(2*time.Second, 2))
	assert.Equal(t, 8*time.Second, Backoff(2*time.Second, 3))
	assert.Equal(t, 2*time.Second, Backoff(2*time.Second, 0))
}

func TestSuccessDeletesTask(t *testing.T) {
	h := newHarness(t)
	var got queue.CalculationPayload
	require.NoError(t, h.reg.Register(runtime.HandlerFunc(jobs.TaskCalculation, func(c *runtime.Context) error {
		return c.Decode(&got)
	})))

	ok, err := h.w.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, h.job.ID, got.JobID)

	n, err := h.tasks.CountByJob(dbctx.Context{Ctx: context.Background()}, h.job.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	ok, err = h.w.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRetriesWithBackoffThenRetainsFailedTask(t *testing.T) {
	h := newHarness(t)
	calls := 0
	require.NoError(t, h.reg.Register(runtime.HandlerFunc(jobs.TaskCalculation, func(c *runtime.Context) error {
		calls++
		return apierr.Errorf(apierr.MalformedAIResponse, "calc", "no json in reply")
	})))
	ctx := context.Background()

	ok, err := h.w.ProcessNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	row := h.taskRow(t)
	assert.Equal(t, jobs.TaskQueued, row.Status)
	assert.WithinDuration(t, h.clock.Add(2*time.Second), row.RunAfter, time.Millisecond)

	// Not runnable before the backoff elapses.
	ok, err = h.w.ProcessNext(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	h.clock = h.clock.Add(2 * time.Second)
	ok, err = h.w.ProcessNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	row = h.taskRow(t)
	assert.WithinDuration(t, h.clock.Add(4*time.Second), row.RunAfter, time.Millisecond)

	h.clock = h.clock.Add(4 * time.Second)
	ok, err = h.w.ProcessNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	row = h.taskRow(t)
	assert.Equal(t, 3, calls)
	assert.Equal(t, jobs.TaskFailed, row.Status)
	assert.Equal(t, 3, row.Attempts)
	assert.Contains(t, row.LastError, "no json in reply")

	job, err := h.jobs.GetByID(dbctx.Context{Ctx: ctx}, h.job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "no json in reply")
}

func TestNonRetryableKindFailsImmediately(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.reg.Register(runtime.HandlerFunc(jobs.TaskCalculation, func(c *runtime.Context) error {
		return apierr.Errorf(apierr.NotFound, "calc", "profile missing")
	})))

	_, err := h.w.ProcessNext(context.Background())
	require.NoError(t, err)
	row := h.taskRow(t)
	assert.Equal(t, jobs.TaskFailed, row.Status)
	assert.Equal(t, 1, row.Attempts)
}

func TestPanicIsRecoveredAndRetried(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.reg.Register(runtime.HandlerFunc(jobs.TaskCalculation, func(c *runtime.Context) error {
		panic("kaboom")
	})))

	ok, err := h.w.ProcessNext(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	row := h.taskRow(t)
	assert.Equal(t, jobs.TaskQueued, row.Status)
	assert.Contains(t, row.LastError, "kaboom")
	assert.True(t, runtime.IsPanic(&runtime.PanicError{Val: "x"}))
	assert.False(t, runtime.IsPanic(errors.New("x")))
}

func TestMissingHandlerFailsTask(t *testing.T) {
	h := newHarness(t)

	_, err := h.w.ProcessNext(context.Background())
	require.NoError(t, err)
	row := h.taskRow(t)
	assert.Equal(t, jobs.TaskFailed, row.Status)
	assert.Contains(t, row.LastError, "no handler registered")
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	done := make(chan struct{})
	require.NoError(t, h.reg.Register(runtime.HandlerFunc(jobs.TaskCalculation, func(c *runtime.Context) error {
		close(done)
		return nil
	})))
	h.w.cfg.PollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.w.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not processed")
	}
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
