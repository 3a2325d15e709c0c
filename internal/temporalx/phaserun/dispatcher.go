package phaserun

import (
	"context"
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

// Dispatcher starts one workflow per phase task. It cannot join a database
// transaction, so callers dispatch after commit.
type Dispatcher struct {
	client      temporalsdkclient.Client
	taskQueue   string
	maxAttempts int
	log         *logger.Logger
}

func NewDispatcher(c temporalsdkclient.Client, taskQueue string, maxAttempts int, baseLog *logger.Logger) *Dispatcher {
	return &Dispatcher{
		client:      c,
		taskQueue:   taskQueue,
		maxAttempts: maxAttempts,
		log:         baseLog.With("component", "TemporalDispatcher"),
	}
}

func (d *Dispatcher) Dispatch(dbc dbctx.Context, t queue.Task) error {
	if d.client == nil {
		return fmt.Errorf("temporal client is not configured")
	}
	env, err := NewEnvelope(t, d.maxAttempts)
	if err != nil {
		return err
	}
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:        env.WorkflowID(),
		TaskQueue: d.taskQueue,
	}
	run, err := d.client.ExecuteWorkflow(ctx, opts, WorkflowName, env)
	if err != nil {
		return fmt.Errorf("start %s workflow: %w", t.Type, err)
	}
	d.log.Debug("Phase workflow started", "workflow_id", opts.ID, "run_id", run.GetRunID(), "job_id", t.JobID, "task_type", t.Type)
	return nil
}
