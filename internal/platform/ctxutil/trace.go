package ctxutil

import "context"

type traceDataKey struct{}

// TraceData carries correlation ids for one HTTP request or one phase task.
// HTTP requests fill TraceID and RequestID; the worker adds the job and task.
type TraceData struct {
	TraceID   string
	RequestID string
	JobID     string
	TaskID    string
	TaskType  string
	Attempt   int
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// WithTask returns ctx carrying the ids of a claimed phase task. Ids already
// on ctx are kept; the task id doubles as request id when none is set.
func WithTask(ctx context.Context, jobID, taskID, taskType string, attempt int) context.Context {
	td := TraceData{}
	if prev := GetTraceData(ctx); prev != nil {
		td = *prev
	}
	td.JobID, td.TaskID, td.TaskType, td.Attempt = jobID, taskID, taskType, attempt
	if td.RequestID == "" {
		td.RequestID = taskID
	}
	return WithTraceData(ctx, &td)
}

// Fields returns the non-empty ids as logger key/value pairs.
func (td *TraceData) Fields() []interface{} {
	if td == nil {
		return nil
	}
	var out []interface{}
	add := func(k, v string) {
		if v != "" {
			out = append(out, k, v)
		}
	}
	add("trace_id", td.TraceID)
	add("request_id", td.RequestID)
	add("job_id", td.JobID)
	add("task_id", td.TaskID)
	add("task_type", td.TaskType)
	if td.Attempt > 0 {
		out = append(out, "attempt", td.Attempt)
	}
	return out
}
