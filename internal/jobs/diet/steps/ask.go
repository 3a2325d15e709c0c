package steps

import (
	"context"

	"github.com/luisquicidev/easydiet-backend/internal/modules/diet/prompts"
	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway"
)

// Ask sends a rendered prompt and returns the first JSON object of the reply.
func Ask(ctx context.Context, ai aigateway.Client, p prompts.Prompt, label string) (*aigateway.Structured[map[string]any], error) {
	return aigateway.CompleteStructured[map[string]any](ctx, ai, aigateway.Request{
		System: p.System,
		Prompt: p.User,
		Label:  label,
	})
}

// Usage returns the reply's token usage, or nil.
func Usage(s *aigateway.Structured[map[string]any]) *aigateway.Usage {
	if s == nil || s.Completion == nil {
		return nil
	}
	return s.Completion.Usage
}
