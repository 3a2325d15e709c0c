// Package factory builds an aigateway.Gateway from configuration.
package factory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway"
	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway/anthropic"
	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway/gemini"
	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway/openai"
	"github.com/luisquicidev/easydiet-backend/internal/platform/envutil"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

// Order is the default provider preference when AI_PROVIDER is unset.
var Order = []string{openai.Name, anthropic.Name, gemini.Name}

type Config struct {
	Provider string
	Fallback bool
	Timeout  time.Duration

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	AnthropicKey   string
	AnthropicModel string

	GeminiKey   string
	GeminiModel string
}

func ConfigFromEnv() Config {
	return Config{
		Provider:       strings.ToLower(envutil.String("AI_PROVIDER", "")),
		Fallback:       envutil.Bool("AI_FALLBACK", false),
		Timeout:        envutil.Duration("AI_TIMEOUT", 120*time.Second),
		OpenAIKey:      envutil.String("OPENAI_API_KEY", ""),
		OpenAIModel:    envutil.String("OPENAI_MODEL", openai.DefaultModel),
		OpenAIBaseURL:  envutil.String("OPENAI_BASE_URL", openai.DefaultBaseURL),
		AnthropicKey:   envutil.String("ANTHROPIC_API_KEY", ""),
		AnthropicModel: envutil.String("ANTHROPIC_MODEL", anthropic.DefaultModel),
		GeminiKey:      envutil.String("GEMINI_API_KEY", ""),
		GeminiModel:    envutil.String("GEMINI_MODEL", gemini.DefaultModel),
	}
}

// Configured lists providers with a key, in Order.
func (c Config) Configured() []string {
	var out []string
	for _, name := range Order {
		if c.key(name) != "" {
			out = append(out, name)
		}
	}
	return out
}

func (c Config) key(name string) string {
	switch name {
	case openai.Name:
		return strings.TrimSpace(c.OpenAIKey)
	case anthropic.Name:
		return strings.TrimSpace(c.AnthropicKey)
	case gemini.Name:
		return strings.TrimSpace(c.GeminiKey)
	}
	return ""
}

// Chain returns the selected default provider followed by the other
// configured ones.
func (c Config) Chain() ([]string, error) {
	configured := c.Configured()
	if c.Provider == "" {
		if len(configured) == 0 {
			return nil, aigateway.ErrNoProvider
		}
		return configured, nil
	}
	known := false
	for _, name := range Order {
		if name == c.Provider {
			known = true
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", c.Provider)
	}
	if c.key(c.Provider) == "" {
		return nil, fmt.Errorf("AI_PROVIDER %q has no API key", c.Provider)
	}
	out := []string{c.Provider}
	for _, name := range configured {
		if name != c.Provider {
			out = append(out, name)
		}
	}
	return out, nil
}

// Build constructs the gateway. The returned close func releases SDK clients.
func Build(ctx context.Context, log *logger.Logger, cfg Config) (*aigateway.Gateway, func() error, error) {
	chain, err := cfg.Chain()
	if err != nil {
		return nil, nil, err
	}
	var (
		providers []aigateway.Provider
		closers   []func() error
	)
	closeAll := func() error {
		var firstErr error
		for _, c := range closers {
			if err := c(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	for _, name := range chain {
		var (
			p   aigateway.Provider
			err error
		)
		switch name {
		case openai.Name:
			p, err = openai.New(log, openai.Config{
				APIKey:     cfg.OpenAIKey,
				Model:      cfg.OpenAIModel,
				BaseURL:    cfg.OpenAIBaseURL,
				Timeout:    cfg.Timeout,
				MaxRetries: 2,
			})
		case anthropic.Name:
			p, err = anthropic.New(log, anthropic.Config{
				APIKey:  cfg.AnthropicKey,
				Model:   cfg.AnthropicModel,
				Timeout: cfg.Timeout,
			})
		case gemini.Name:
			var gp *gemini.Provider
			gp, err = gemini.New(ctx, log, gemini.Config{APIKey: cfg.GeminiKey, Model: cfg.GeminiModel})
			if err == nil {
				closers = append(closers, gp.Close)
				p = gp
			}
		}
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("init %s provider: %w", name, err)
		}
		providers = append(providers, p)
	}
	gw, err := aigateway.New(log, providers, aigateway.Options{Fallback: cfg.Fallback})
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	if log != nil {
		log.Info("AI gateway ready", "default", chain[0], "chain", strings.Join(gw.Chain(), ","), "fallback", cfg.Fallback)
	}
	return gw, closeAll, nil
}
