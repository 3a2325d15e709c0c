package steps

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	jobrt "github.com/luisquicidev/easydiet-backend/internal/jobs/runtime"
)

const tracerName = "github.com/luisquicidev/easydiet-backend/internal/jobs/diet"

// StartSpan opens a span for a phase run and points jc.Ctx at it. The
// returned func ends the span, recording err when non-nil.
func StartSpan(jc *jobrt.Context, name string) func(err error) {
	attrs := []attribute.KeyValue{}
	if jc.Job != nil {
		attrs = append(attrs, attribute.String("job.id", jc.Job.ID.String()), attribute.Int64("user.id", jc.Job.UserID))
	}
	if jc.Task != nil {
		attrs = append(attrs, attribute.String("task.id", jc.Task.ID.String()), attribute.Int("task.attempt", jc.Task.Attempts))
	}
	ctx, span := otel.Tracer(tracerName).Start(jc.Ctx, name, trace.WithAttributes(attrs...))
	parent := jc.Ctx
	jc.Ctx = ctx
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		jc.Ctx = parent
	}
}
