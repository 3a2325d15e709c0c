package realtime

import (
	"context"
	"strconv"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
)

// JobNotifier announces job lifecycle changes to realtime subscribers.
type JobNotifier interface {
	JobCreated(ctx context.Context, job *types.Job)
	JobProgress(ctx context.Context, job *types.Job)
	JobFailed(ctx context.Context, job *types.Job)
	JobDone(ctx context.Context, job *types.Job)
}

func JobChannel(job *types.Job) string { return "job:" + job.ID.String() }
func UserChannel(userID int64) string  { return "user:" + strconv.FormatInt(userID, 10) }

type jobNotifier struct {
	emit Emitter
}

func NewJobNotifier(emit Emitter) JobNotifier {
	return &jobNotifier{emit: emit}
}

func (n *jobNotifier) send(ctx context.Context, job *types.Job, ev SSEEvent) {
	if n == nil || n.emit == nil || job == nil {
		return
	}
	msg := JobMessage(job, ev)
	n.emit.Emit(ctx, msg)
	msg.Channel = UserChannel(job.UserID)
	n.emit.Emit(ctx, msg)
}

// JobMessage is the job-channel event describing job's current state.
// SnapshotEvent is the event a late subscriber receives for the job's
// current stage.
func SnapshotEvent(job *types.Job) SSEEvent {
	switch job.Stage {
	case jobs.StageCompleted:
		return SSEEventJobDone
	case jobs.StageFailed:
		return SSEEventJobFailed
	default:
		return SSEEventJobProgress
	}
}

func JobMessage(job *types.Job, ev SSEEvent) SSEMessage {
	data := map[string]any{
		"job_id":   job.ID,
		"job_type": job.JobType,
		"status":   job.Status,
		"stage":    job.Stage,
		"progress": job.Progress,
	}
	if job.Error != "" {
		data["error"] = job.Error
	}
	return SSEMessage{Channel: JobChannel(job), Event: ev, Data: data}
}

func (n *jobNotifier) JobCreated(ctx context.Context, job *types.Job) {
	n.send(ctx, job, SSEEventJobCreated)
}
func (n *jobNotifier) JobProgress(ctx context.Context, job *types.Job) {
	n.send(ctx, job, SSEEventJobProgress)
}
func (n *jobNotifier) JobFailed(ctx context.Context, job *types.Job) {
	n.send(ctx, job, SSEEventJobFailed)
}
func (n *jobNotifier) JobDone(ctx context.Context, job *types.Job) { n.send(ctx, job, SSEEventJobDone) }

// Announce picks the event matching the job's current stage.
func Announce(ctx context.Context, n JobNotifier, job *types.Job) {
	if n == nil || job == nil {
		return
	}
	switch {
	case job.Stage == jobs.StageFailed:
		n.JobFailed(ctx, job)
	case job.Stage == jobs.StageCompleted:
		n.JobDone(ctx, job)
	default:
		n.JobProgress(ctx, job)
	}
}
