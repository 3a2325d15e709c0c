// Package aitest provides a scripted aigateway.Provider for tests.
package aitest

import (
	"context"
	"fmt"
	"sync"

	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway"
)

// Step is one scripted reply. Err wins over Text.
type Step struct {
	Text  string
	Err   error
	Usage *aigateway.Usage
}

// Provider replays Steps in order. Respond, when set, answers once the
// script is exhausted.
type Provider struct {
	name  string
	model string

	mu       sync.Mutex
	steps    []Step
	requests []aigateway.Request
	Respond  func(req aigateway.Request) Step
}

func New(name string, steps ...Step) *Provider {
	return &Provider{name: name, model: name + "-test", steps: steps}
}

// Reply is a shorthand for a provider answering texts in order.
func Reply(texts ...string) *Provider {
	steps := make([]Step, 0, len(texts))
	for _, t := range texts {
		steps = append(steps, Step{Text: t, Usage: &aigateway.Usage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30}})
	}
	return New("scripted", steps...)
}

func (p *Provider) Name() string  { return p.name }
func (p *Provider) Model() string { return p.model }

func (p *Provider) Push(steps ...Step) {
	p.mu.Lock()
	p.steps = append(p.steps, steps...)
	p.mu.Unlock()
}

func (p *Provider) Complete(ctx context.Context, req aigateway.Request) (*aigateway.Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.requests = append(p.requests, req)
	var step Step
	switch {
	case len(p.steps) > 0:
		step = p.steps[0]
		p.steps = p.steps[1:]
	case p.Respond != nil:
		respond := p.Respond
		p.mu.Unlock()
		step = respond(req)
		p.mu.Lock()
	default:
		p.mu.Unlock()
		return nil, aigateway.NewFatalError(fmt.Errorf("%s: script exhausted", p.name))
	}
	p.mu.Unlock()

	if step.Err != nil {
		return nil, step.Err
	}
	return &aigateway.Completion{Text: step.Text, Model: p.model, Usage: step.Usage}, nil
}

func (p *Provider) Requests() []aigateway.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]aigateway.Request(nil), p.requests...)
}

func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Gateway wraps providers in a gateway with fallback enabled.
func Gateway(providers ...aigateway.Provider) *aigateway.Gateway {
	g, err := aigateway.New(nil, providers, aigateway.Options{Fallback: true})
	if err != nil {
		panic(err)
	}
	return g
}
