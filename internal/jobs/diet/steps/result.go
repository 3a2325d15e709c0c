package steps

import (
	"context"
	"encoding/json"

	"github.com/luisquicidev/easydiet-backend/internal/jobs/queue"
	jobrt "github.com/luisquicidev/easydiet-backend/internal/jobs/runtime"
	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
)

// WithUsage adds u to the job result's per-phase usage totals and returns
// fields with the updated "usage" entry.
func WithUsage(jc *jobrt.Context, fields map[string]any, phase string, u *aigateway.Usage) map[string]any {
	if fields == nil {
		fields = map[string]any{}
	}
	if u == nil {
		return fields
	}
	var doc struct {
		Usage map[string]*aigateway.Usage `json:"usage"`
	}
	if jc.Job != nil && len(jc.Job.Result) > 0 {
		_ = json.Unmarshal(jc.Job.Result, &doc)
	}
	if doc.Usage == nil {
		doc.Usage = map[string]*aigateway.Usage{}
	}
	total := doc.Usage[phase]
	if total == nil {
		total = &aigateway.Usage{}
		doc.Usage[phase] = total
	}
	total.Add(u)
	fields["usage"] = doc.Usage
	return fields
}

// Enqueue submits t in dbc's transaction when the dispatcher can join it,
// otherwise once the transaction has committed.
func Enqueue(jc *jobrt.Context, dbc dbctx.Context, d queue.Dispatcher, t queue.Task) error {
	if d == nil {
		return nil
	}
	if queue.JoinsTx(d) {
		return d.Dispatch(dbc, t)
	}
	jc.AfterCommit(func(ctx context.Context) {
		if err := d.Dispatch(dbctx.Context{Ctx: ctx}, t); err != nil {
			jc.Log.Error("Dispatch after commit failed", "task_type", t.Type, "error", err)
		}
	})
	return nil
}
