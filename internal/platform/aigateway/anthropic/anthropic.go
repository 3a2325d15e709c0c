// Package anthropic is the Anthropic Messages API provider.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/httpx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

const (
	Name             = "anthropic"
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultBaseURL   = "https://api.anthropic.com"
	defaultMaxTokens = 4096
	apiVersion       = "2023-06-01"
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Provider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func New(log *logger.Logger, cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing ANTHROPIC_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Provider{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With("provider", Name),
	}, nil
}

func (p *Provider) Name() string  { return Name }
func (p *Provider) Model() string { return p.model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []message `json:"messages"`
	System      string    `json:"system,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (p *Provider) Complete(ctx context.Context, req aigateway.Request) (*aigateway.Completion, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + "\n\nRespond with a single JSON object and nothing else.")
	}
	body := messagesRequest{
		Model:       p.model,
		MaxTokens:   maxTokens,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
		System:      system,
		Temperature: req.Temperature,
	}
	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": apiVersion,
	}
	raw, err := httpx.PostJSON(ctx, p.httpClient, Name, p.baseURL+"/v1/messages", headers, body)
	if err != nil {
		return nil, aigateway.Classify(err)
	}

	var resp messagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apierr.E(apierr.MalformedAIResponse, "anthropic.Complete", fmt.Errorf("decode: %w", err))
	}
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, apierr.E(apierr.MalformedAIResponse, "anthropic.Complete", errors.New("no text content"))
	}
	if resp.StopReason == "max_tokens" {
		p.log.Warn("Anthropic reply truncated at max_tokens", "label", req.Label, "max_tokens", maxTokens)
	}
	model := resp.Model
	if model == "" {
		model = p.model
	}
	return &aigateway.Completion{
		Text:  text.String(),
		Raw:   raw,
		Model: model,
		Usage: &aigateway.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}
