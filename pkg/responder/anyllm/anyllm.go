// Package anyllm implements responder.Responder on top of
// github.com/mozilla-ai/any-llm-go, a unified multi-provider interface that
// supports OpenAI, Anthropic, Gemini, Ollama, DeepSeek, Mistral, Groq, and
// more. It lets the study partner run against any of those backends without
// code changes.
//
// Usage:
//
//	r, err := anyllm.New("openai", "gpt-4o", anyllmlib.WithAPIKey("sk-..."))
//	r, err := anyllm.New("ollama", "llama3.2")
package anyllm

import (
	"context"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/LiamSkop/Chavr/pkg/responder"
)

const (
	askMaxTokens     = 500
	summaryMaxTokens = 800
	temperature      = 0.7
)

// Responder answers questions through an any-llm-go backend.
type Responder struct {
	backend      anyllmlib.Provider
	providerName string
	model        string
}

// Compile-time assertion that Responder satisfies responder.Responder.
var _ responder.Responder = (*Responder)(nil)

// New creates a Responder backed by the given LLM provider name.
//
// providerName is one of: "openai", "anthropic", "gemini", "ollama",
// "deepseek", "mistral", "groq", "llamacpp", "llamafile".
//
// opts are any-llm-go configuration options (e.g. anyllmlib.WithAPIKey,
// anyllmlib.WithBaseURL). Without an API key option the provider falls back
// to its usual environment variable (OPENAI_API_KEY, GEMINI_API_KEY, ...).
func New(providerName, model string, opts ...anyllmlib.Option) (*Responder, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}
	return &Responder{backend: backend, providerName: providerName, model: model}, nil
}

// createBackend creates the underlying any-llm-go provider for the given
// provider name.
func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "llamacpp":
		return llamacpp.New(opts...)
	case "llamafile":
		return llamafile.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: openai, anthropic, gemini, ollama, deepseek, mistral, groq, llamacpp, llamafile", providerName)
	}
}

// Name identifies the backend, e.g. "anyllm/ollama".
func (r *Responder) Name() string { return "anyllm/" + r.providerName }

// Close is a no-op; any-llm-go backends hold no persistent connections.
func (r *Responder) Close() error { return nil }

// Ask answers the student's question in chavruta style.
func (r *Responder) Ask(ctx context.Context, q responder.Question) (string, error) {
	if strings.TrimSpace(q.Text) == "" {
		return "", responder.ErrEmptyQuestion
	}
	return r.complete(ctx, responder.BuildAskPrompt(q), askMaxTokens)
}

// Summarize produces a summary of a completed study session.
func (r *Responder) Summarize(ctx context.Context, s responder.SessionDigest) (string, error) {
	return r.complete(ctx, responder.BuildSummaryPrompt(s), summaryMaxTokens)
}

func (r *Responder) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	temp := temperature
	params := anyllmlib.CompletionParams{
		Model: r.model,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleUser, Content: prompt},
		},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	}

	resp, err := r.backend.Completion(ctx, params)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("anyllm: %w", responder.ErrEmptyResponse)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.ContentString())
	if text == "" {
		return "", fmt.Errorf("anyllm: %w", responder.ErrEmptyResponse)
	}
	return text, nil
}

// classify maps backend failures onto the responder error taxonomy.
// any-llm-go surfaces HTTP status text inside the error string, so matching
// on it is the only portable signal across its providers.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "quota"), strings.Contains(msg, "resource exhausted"):
		return fmt.Errorf("anyllm: %w: %v", responder.ErrRateLimited, err)
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"), strings.Contains(msg, "api key"), strings.Contains(msg, "unauthorized"):
		return fmt.Errorf("anyllm: %w: %v", responder.ErrAuth, err)
	}
	return fmt.Errorf("anyllm: completion: %w", err)
}
