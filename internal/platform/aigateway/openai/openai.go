// Package openai is the OpenAI Responses API provider.
package openai

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
	Name           = "openai"
	DefaultModel   = "gpt-4o-mini"
	DefaultBaseURL = "https://api.openai.com"
)

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type Provider struct {
	apiKey     string
	model      string
	baseURL    string
	maxRetries int
	httpClient *http.Client
	log        *logger.Logger
}

func New(log *logger.Logger, cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
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
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Provider{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With("provider", Name),
	}, nil
}

func (p *Provider) Name() string  { return Name }
func (p *Provider) Model() string { return p.model }

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
	Text  *struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"max_output_tokens,omitempty"`
}

type responsesResponse struct {
	Model  string `json:"model"`
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func (p *Provider) Complete(ctx context.Context, req aigateway.Request) (*aigateway.Completion, error) {
	body := responsesRequest{
		Model:           p.model,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
	}
	if s := strings.TrimSpace(req.System); s != "" {
		body.Input = append(body.Input, inputMessage{Role: "system", Content: s})
	}
	body.Input = append(body.Input, inputMessage{Role: "user", Content: req.Prompt})
	if req.JSON {
		body.Text = &struct {
			Format map[string]any `json:"format,omitempty"`
		}{Format: map[string]any{"type": "json_object"}}
	}

	raw, err := p.post(ctx, "/v1/responses", body)
	if err != nil {
		return nil, err
	}
	var resp responsesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apierr.E(apierr.MalformedAIResponse, "openai.Complete", fmt.Errorf("decode: %w", err))
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return nil, apierr.E(apierr.MalformedAIResponse, "openai.Complete", errors.New("empty output_text"))
	}
	model := resp.Model
	if model == "" {
		model = p.model
	}
	return &aigateway.Completion{
		Text:  text,
		Raw:   raw,
		Model: model,
		Usage: &aigateway.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *Provider) post(ctx context.Context, path string, body any) ([]byte, error) {
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	backoff := time.Second
	for attempt := 0; ; attempt++ {
		raw, err := httpx.PostJSON(ctx, p.httpClient, Name, p.baseURL+path, headers, body)
		if err == nil {
			return raw, nil
		}
		if !httpx.IsRetryableError(err) || attempt >= p.maxRetries || ctx.Err() != nil {
			return nil, aigateway.Classify(err)
		}
		sleepFor := backoff
		var se *httpx.StatusError
		if errors.As(err, &se) && se.RetryAfter > 0 {
			sleepFor = se.RetryAfter
		}
		sleepFor = httpx.JitterSleep(sleepFor)
		p.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", p.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			return nil, aigateway.Classify(ctx.Err())
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}
