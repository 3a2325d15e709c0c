package phaserun

import (
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// RetryPolicy is the queue retry schedule expressed for Temporal:
// 2s, 4s, ... up to maxAttempts executions.
func RetryPolicy(maxAttempts int) *temporal.RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &temporal.RetryPolicy{
		InitialInterval:        InitialInterval,
		BackoffCoefficient:     BackoffCoefficient,
		MaximumAttempts:        int32(maxAttempts),
		NonRetryableErrorTypes: []string{ErrTypeNonRetryable},
	}
}

func Workflow(ctx workflow.Context, env Envelope) error {
	if env.TaskType == "" {
		return temporal.NewNonRetryableApplicationError("phaserun: missing task type", ErrTypeNonRetryable, nil)
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: ActivityTimeout,
		RetryPolicy:         RetryPolicy(env.MaxAttempts),
	})
	logger := workflow.GetLogger(ctx)
	logger.Info("Phase workflow started", "task_type", env.TaskType, "job_id", env.JobID.String())

	if err := workflow.ExecuteActivity(ctx, ActivityRunPhase, env).Get(ctx, nil); err != nil {
		return fmt.Errorf("phase %s failed: %w", env.TaskType, err)
	}
	return nil
}
