// Package aigateway gives the pipeline one completion interface over the
// configured AI providers, with optional ordered fallback between them.
package aigateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luisquicidev/easydiet-backend/internal/observability"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

var ErrNoProvider = errors.New("no AI provider configured")

type Request struct {
	System string
	Prompt string
	// JSON asks the provider for a JSON-only reply when it supports a JSON mode.
	JSON        bool
	Temperature *float64
	MaxTokens   int
	// Label names the call in logs and metrics, e.g. "calculation".
	Label string
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

func (u *Usage) Add(o *Usage) {
	if u == nil || o == nil {
		return
	}
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
	u.TotalTokens += o.TotalTokens
}

type Completion struct {
	Text     string
	Raw      []byte
	Provider string
	Model    string
	Usage    *Usage
}

// Provider is one text-completion backend.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// Client is what callers depend on. Validate, when non-nil, runs on every
// completion; a MalformedAIResponse from it lets the gateway fall back.
type Client interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	CompleteValidated(ctx context.Context, req Request, validate func(*Completion) error) (*Completion, error)
}

type Options struct {
	// Fallback enables trying the remaining providers in order.
	Fallback bool
}

type Gateway struct {
	providers []Provider
	opts      Options
	log       *logger.Logger
}

// New builds a gateway. providers[0] is the default provider.
func New(log *logger.Logger, providers []Provider, opts Options) (*Gateway, error) {
	var ps []Provider
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	if len(ps) == 0 {
		return nil, ErrNoProvider
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Gateway{providers: ps, opts: opts, log: log.With("component", "AIGateway")}, nil
}

func (g *Gateway) Default() Provider { return g.providers[0] }

// Chain is the provider order the gateway walks.
func (g *Gateway) Chain() []string {
	out := make([]string, 0, len(g.providers))
	for _, p := range g.chain() {
		out = append(out, p.Name())
	}
	return out
}

func (g *Gateway) chain() []Provider {
	if !g.opts.Fallback {
		return g.providers[:1]
	}
	return g.providers
}

func (g *Gateway) Complete(ctx context.Context, req Request) (*Completion, error) {
	return g.CompleteValidated(ctx, req, nil)
}

func (g *Gateway) CompleteValidated(ctx context.Context, req Request, validate func(*Completion) error) (*Completion, error) {
	var errs []error
	chain := g.chain()
	for i, p := range chain {
		start := time.Now()
		comp, err := p.Complete(ctx, req)
		if err == nil && comp != nil {
			comp.Provider = p.Name()
			if comp.Model == "" {
				comp.Model = p.Model()
			}
			if validate != nil {
				err = validate(comp)
			}
		} else if err == nil {
			err = NewTransientError(fmt.Errorf("%s returned no completion", p.Name()))
		}

		observe(p, comp, err, time.Since(start))
		if err == nil {
			return comp, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))

		if ctx.Err() != nil || !canFallback(err) || i == len(chain)-1 {
			break
		}
		g.log.Warn("AI provider failed, falling back",
			"label", req.Label,
			"provider", p.Name(),
			"next", chain[i+1].Name(),
			"error", err.Error(),
		)
	}
	if len(errs) == 1 {
		return nil, errors.Unwrap(errs[0])
	}
	return nil, errors.Join(errs...)
}

func canFallback(err error) bool {
	if IsFatal(err) {
		return false
	}
	return IsTransient(err) || apierr.Is(err, apierr.MalformedAIResponse)
}

func observe(p Provider, comp *Completion, err error, dur time.Duration) {
	m := observability.Current()
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case apierr.Is(err, apierr.MalformedAIResponse):
		outcome = "malformed"
	case IsTransient(err):
		outcome = "transient"
	default:
		outcome = "error"
	}
	in, out := 0, 0
	if comp != nil && comp.Usage != nil {
		in, out = comp.Usage.InputTokens, comp.Usage.OutputTokens
	}
	m.ObserveLLMRequest(p.Name(), p.Model(), outcome, dur, in, out)
}

// Structured is a parsed completion.
type Structured[T any] struct {
	Value      T
	JSON       []byte
	Completion *Completion
}

// CompleteStructured completes req and parses the first balanced JSON object
// in the reply into T. A reply without a parsable object is a MalformedAIResponse.
func CompleteStructured[T any](ctx context.Context, c Client, req Request) (*Structured[T], error) {
	req.JSON = true
	var out Structured[T]
	comp, err := c.CompleteValidated(ctx, req, func(comp *Completion) error {
		raw, perr := DecodeJSON(comp.Text, &out.Value)
		if perr != nil {
			return perr
		}
		out.JSON = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Completion = comp
	return &out, nil
}

// Text trims a completion to its text or returns "" for nil.
func Text(c *Completion) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Text)
}
