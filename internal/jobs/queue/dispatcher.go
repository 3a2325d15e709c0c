package queue

import (
	"github.com/luisquicidev/easydiet-backend/internal/data/repos/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

// Dispatcher submits phase tasks. Implementations that honor dbc.Tx make the
// enqueue part of the caller's transaction.
type Dispatcher interface {
	Dispatch(dbc dbctx.Context, t Task) error
}

// TxJoiner is implemented by dispatchers whose writes join dbc.Tx.
// Dispatchers without it are called after the caller's commit.
type TxJoiner interface {
	JoinsTx() bool
}

// JoinsTx reports whether d enqueues inside the caller's transaction.
func JoinsTx(d Dispatcher) bool {
	j, ok := d.(TxJoiner)
	return ok && j.JoinsTx()
}

type DBDispatcher struct {
	tasks       jobs.TaskRepo
	maxAttempts int
	log         *logger.Logger
}

func NewDBDispatcher(tasks jobs.TaskRepo, maxAttempts int, baseLog *logger.Logger) *DBDispatcher {
	return &DBDispatcher{
		tasks:       tasks,
		maxAttempts: maxAttempts,
		log:         baseLog.With("component", "TaskDispatcher"),
	}
}

func (d *DBDispatcher) JoinsTx() bool { return true }

func (d *DBDispatcher) Dispatch(dbc dbctx.Context, t Task) error {
	row, err := t.Row(d.maxAttempts)
	if err != nil {
		return err
	}
	if _, err := d.tasks.Enqueue(dbc, row); err != nil {
		return err
	}
	d.log.Debug("Task enqueued", "task_id", row.ID, "job_id", t.JobID, "task_type", t.Type, "priority", t.Priority)
	return nil
}
