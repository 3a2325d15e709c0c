package runtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	jobrepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/jobs"
	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
	"github.com/luisquicidev/easydiet-backend/internal/observability"
	"github.com/luisquicidev/easydiet-backend/internal/platform/ctxutil"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
	"github.com/luisquicidev/easydiet-backend/internal/realtime"
)

/*
Context is the execution handle for one claimed phase task.
It wraps:
  - the transaction boundary (InTx),
  - the in-memory Job row, which only moves through Transition,
  - realtime announcements, which are held until the transaction commits.

Executors never write diet_job directly; they go through this object.
*/
type Context struct {
	Ctx    context.Context
	DB     *gorm.DB
	Job    *types.Job
	Task   *types.PhaseTask
	Jobs   jobrepo.JobRepo
	Notify realtime.JobNotifier
	Log    *logger.Logger

	inTx        bool
	pending     []types.Job
	afterCommit []func(ctx context.Context)
}

func NewContext(ctx context.Context, db *gorm.DB, job *types.Job, task *types.PhaseTask, jobsRepo jobrepo.JobRepo, notify realtime.JobNotifier, log *logger.Logger) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = logger.Nop()
	}
	if task != nil && task.ID != uuid.Nil {
		ctx = ctxutil.WithTask(ctx, task.JobID.String(), task.ID.String(), task.TaskType, task.Attempts)
	}
	c := &Context{
		Ctx:    ctx,
		DB:     db,
		Job:    job,
		Task:   task,
		Jobs:   jobsRepo,
		Notify: notify,
		Log:    log,
	}
	if td := ctxutil.GetTraceData(ctx); td != nil && td.TaskID != "" {
		c.Log = log.With(td.Fields()...)
	} else if job != nil {
		c.Log = log.With("job_id", job.ID)
	}
	return c
}

// Decode reads the task payload into out.
func (c *Context) Decode(out any) error {
	if c.Task == nil {
		return queue.Decode(nil, out)
	}
	return queue.Decode(c.Task.Payload, out)
}

// InTx runs fn in one transaction. On rollback the in-memory job is restored
// and queued announcements are dropped; on commit they are sent.
func (c *Context) InTx(fn func(dbc dbctx.Context) error) error {
	var snapshot types.Job
	if c.Job != nil {
		snapshot = *c.Job
	}
	c.inTx = true
	c.pending = nil
	c.afterCommit = nil
	err := c.DB.WithContext(c.Ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: c.Ctx, Tx: tx})
	})
	c.inTx = false
	if err != nil {
		if c.Job != nil {
			*c.Job = snapshot
		}
		c.pending = nil
		c.afterCommit = nil
		return err
	}
	c.flush()
	hooks := c.afterCommit
	c.afterCommit = nil
	for _, fn := range hooks {
		fn(c.Ctx)
	}
	return nil
}

// AfterCommit defers fn until the surrounding InTx commits. Outside a
// transaction fn runs immediately.
func (c *Context) AfterCommit(fn func(ctx context.Context)) {
	if !c.inTx {
		fn(c.Ctx)
		return
	}
	c.afterCommit = append(c.afterCommit, fn)
}

// Transition applies ev to the job. extra holds additional column updates.
func (c *Context) Transition(dbc dbctx.Context, ev jobs.Event, extra map[string]interface{}) error {
	if err := c.Jobs.Apply(dbc, c.Job, ev, extra); err != nil {
		return err
	}
	observability.Current().IncJobTransition(string(c.Job.Stage))
	c.announce()
	return nil
}

// Progress records a progress value without moving the stage.
func (c *Context) Progress(dbc dbctx.Context, pct int) error {
	if err := c.Jobs.UpdateFields(dbc, c.Job.ID, map[string]interface{}{"progress": pct}); err != nil {
		return err
	}
	c.Job.Progress = pct
	c.announce()
	return nil
}

// MergeResult merges fields into the job's result document.
func (c *Context) MergeResult(dbc dbctx.Context, fields map[string]any) error {
	doc := map[string]any{}
	if len(c.Job.Result) > 0 {
		_ = json.Unmarshal(c.Job.Result, &doc)
	}
	for k, v := range fields {
		doc[k] = v
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := c.Jobs.UpdateFields(dbc, c.Job.ID, map[string]interface{}{"result": datatypes.JSON(raw)}); err != nil {
		return err
	}
	c.Job.Result = datatypes.JSON(raw)
	return nil
}

// Fail marks the job failed with err's text. It is best effort: a failure
// while writing the status is logged and swallowed so err stays the one
// reported to the queue.
func (c *Context) Fail(err error) {
	if c == nil || c.Job == nil || err == nil {
		return
	}
	msg := err.Error()
	dbc := dbctx.Context{Ctx: context.WithoutCancel(c.Ctx)}
	if aerr := c.Jobs.Apply(dbc, c.Job, jobs.EventFail, map[string]interface{}{"error": msg}); aerr != nil {
		c.Log.Error("Failed to record job failure", "error", aerr, "cause", msg)
		return
	}
	observability.Current().IncJobTransition(string(c.Job.Stage))
	c.announce()
}

func (c *Context) announce() {
	if c.Job == nil {
		return
	}
	if c.inTx {
		c.pending = append(c.pending, *c.Job)
		return
	}
	realtime.Announce(c.Ctx, c.Notify, c.Job)
}

func (c *Context) flush() {
	pending := c.pending
	c.pending = nil
	for i := range pending {
		realtime.Announce(c.Ctx, c.Notify, &pending[i])
	}
}
