package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
)

func reply(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestCompletionJoinsTextPartsAndMapsUsage(t *testing.T) {
	resp := reply(genai.Text(`{"a":`), genai.Blob{MIMEType: "image/png"}, genai.Text(`1}`))
	resp.UsageMetadata = &genai.UsageMetadata{PromptTokenCount: 12, CandidatesTokenCount: 5, TotalTokenCount: 17}

	comp, err := completion(resp, "gemini-test")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, comp.Text)
	assert.Equal(t, "gemini-test", comp.Model)
	assert.Equal(t, &aigateway.Usage{InputTokens: 12, OutputTokens: 5, TotalTokens: 17}, comp.Usage)
}

func TestCompletionWithoutUsageMetadata(t *testing.T) {
	comp, err := completion(reply(genai.Text("ok")), DefaultModel)
	require.NoError(t, err)
	require.NotNil(t, comp.Usage)
	assert.Zero(t, comp.Usage.TotalTokens)
}

func TestCompletionEmptyRepliesAreMalformed(t *testing.T) {
	cases := map[string]*genai.GenerateContentResponse{
		"nil":           nil,
		"no candidates": {},
		"no content":    {Candidates: []*genai.Candidate{{}}},
		"no text parts": reply(genai.Blob{MIMEType: "image/png"}),
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := completion(resp, DefaultModel)
			assert.True(t, apierr.Is(err, apierr.MalformedAIResponse), "%v", err)
		})
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
		fatal     bool
	}{
		{"rate limited", &googleapi.Error{Code: http.StatusTooManyRequests}, true, false},
		{"server error", &googleapi.Error{Code: http.StatusServiceUnavailable}, true, false},
		{"bad request", &googleapi.Error{Code: http.StatusBadRequest}, false, true},
		{"unauthorized", fmt.Errorf("generate: %w", &googleapi.Error{Code: http.StatusUnauthorized}), false, true},
		{"deadline", context.DeadlineExceeded, true, false},
		{"unknown", errors.New("boom"), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classify(tc.err)
			assert.Equal(t, tc.transient, aigateway.IsTransient(err))
			assert.Equal(t, tc.fatal, aigateway.IsFatal(err))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), nil, Config{APIKey: "  "})
	assert.Error(t, err)
}
