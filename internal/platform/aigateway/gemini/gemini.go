// Package gemini is the Google Gemini provider.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/httpx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

const (
	Name         = "gemini"
	DefaultModel = "gemini-1.5-flash"
)

type Config struct {
	APIKey string
	Model  string
}

type Provider struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(cfg.APIKey)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Provider{client: client, model: cfg.Model, log: log.With("provider", Name)}, nil
}

func (p *Provider) Name() string  { return Name }
func (p *Provider) Model() string { return p.model }

func (p *Provider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func (p *Provider) Complete(ctx context.Context, req aigateway.Request) (*aigateway.Completion, error) {
	model := p.client.GenerativeModel(p.model)
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if s := strings.TrimSpace(req.System); s != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(s)}}
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, classify(err)
	}
	return completion(resp, p.model)
}

func completion(resp *genai.GenerateContentResponse, model string) (*aigateway.Completion, error) {
	text, err := extractText(resp)
	if err != nil {
		return nil, apierr.E(apierr.MalformedAIResponse, "gemini.Complete", err)
	}
	out := &aigateway.Completion{Text: text, Model: model, Usage: &aigateway.Usage{}}
	if u := resp.UsageMetadata; u != nil {
		out.Usage.InputTokens = int(u.PromptTokenCount)
		out.Usage.OutputTokens = int(u.CandidatesTokenCount)
		out.Usage.TotalTokens = int(u.TotalTokenCount)
	}
	return out, nil
}

func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if httpx.IsRetryableHTTPStatus(gerr.Code) {
			return aigateway.NewTransientError(err)
		}
		return aigateway.NewFatalError(err)
	}
	return aigateway.Classify(err)
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
