// Package gemini implements responder.Responder backed by Google's Gemini
// API via github.com/google/generative-ai-go.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/LiamSkop/Chavr/pkg/responder"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash-exp"

const (
	askMaxTokens     = 500
	summaryMaxTokens = 800
)

// Responder answers questions via the Gemini API.
type Responder struct {
	client *genai.Client
	model  string
}

// Compile-time assertion that Responder satisfies responder.Responder.
var _ responder.Responder = (*Responder)(nil)

// New constructs a Responder authenticated with the given API key. Pass an
// empty model to use DefaultModel. The caller must call Close when done.
func New(ctx context.Context, apiKey, model string) (*Responder, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Responder{client: client, model: model}, nil
}

// Name identifies the backend.
func (r *Responder) Name() string { return "gemini" }

// Close releases the underlying API client.
func (r *Responder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Ask answers the question in chavruta style.
func (r *Responder) Ask(ctx context.Context, q responder.Question) (string, error) {
	if strings.TrimSpace(q.Text) == "" {
		return "", responder.ErrEmptyQuestion
	}
	return r.generate(ctx, responder.BuildAskPrompt(q), askMaxTokens)
}

// Summarize produces a summary of a completed study session. Summaries get a
// higher token budget than answers.
func (r *Responder) Summarize(ctx context.Context, s responder.SessionDigest) (string, error) {
	return r.generate(ctx, responder.BuildSummaryPrompt(s), summaryMaxTokens)
}

func (r *Responder) generate(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	model := r.client.GenerativeModel(r.model)
	model.SetTemperature(0.7)
	model.SetTopP(0.9)
	model.SetTopK(40)
	model.SetMaxOutputTokens(maxTokens)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classify(err)
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini: %w", responder.ErrEmptyResponse)
	}
	return text, nil
}

// extractText concatenates all text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

// classify maps API failures onto the responder error taxonomy so callers
// can decide whether to retry.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("gemini: %w: %v", responder.ErrRateLimited, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("gemini: %w: %v", responder.ErrAuth, err)
		}
	}

	// The SDK sometimes surfaces quota failures as plain errors carrying
	// the gRPC status text rather than a googleapi.Error.
	msg := strings.ToUpper(err.Error())
	if strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "429") || strings.Contains(msg, "RATE_LIMIT") || strings.Contains(msg, "QUOTA") {
		return fmt.Errorf("gemini: %w: %v", responder.ErrRateLimited, err)
	}
	if strings.Contains(msg, "API_KEY") {
		return fmt.Errorf("gemini: %w: %v", responder.ErrAuth, err)
	}

	return fmt.Errorf("gemini: generate content: %w", err)
}
