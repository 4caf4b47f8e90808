// Package openai implements asr.Engine against the OpenAI transcription API.
// It serves as the hosted fallback when local whisper.cpp inference is not
// available.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/LiamSkop/Chavr/pkg/asr"
	"github.com/LiamSkop/Chavr/pkg/audio"
)

const (
	defaultModel      = oai.AudioModelWhisper1
	defaultSampleRate = 16000
)

// Engine transcribes utterances via the OpenAI API.
type Engine struct {
	client oai.Client
	model  oai.AudioModel
}

// Compile-time assertion that Engine satisfies asr.Engine.
var _ asr.Engine = (*Engine)(nil)

// config holds optional configuration for the engine.
type config struct {
	baseURL string
	model   oai.AudioModel
	timeout time.Duration
}

// Option is a functional option for Engine.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL, allowing
// OpenAI-compatible endpoints.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithModel overrides the default transcription model (whisper-1).
func WithModel(model string) Option {
	return func(c *config) { c.model = oai.AudioModel(model) }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs an Engine authenticated with the given API key.
func New(apiKey string, opts ...Option) (*Engine, error) {
	if apiKey == "" {
		return nil, errors.New("openai: apiKey must not be empty")
	}

	cfg := &config{model: defaultModel}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &Engine{
		client: oai.NewClient(reqOpts...),
		model:  cfg.model,
	}, nil
}

// Name identifies the engine.
func (e *Engine) Name() string { return "openai" }

// Close is a no-op; the engine holds no persistent connections.
func (e *Engine) Close() error { return nil }

// Transcribe wraps the raw PCM in a WAV container (the API requires a file
// format) and submits it for transcription.
func (e *Engine) Transcribe(ctx context.Context, utt asr.Utterance) (asr.Result, error) {
	if len(utt.PCM) == 0 {
		return asr.Result{}, asr.ErrEmptyUtterance
	}

	rate := utt.SampleRate
	if rate <= 0 {
		rate = defaultSampleRate
	}
	wav, err := audio.EncodeWAV(utt.PCM, rate)
	if err != nil {
		return asr.Result{}, fmt.Errorf("openai: %w", err)
	}

	params := oai.AudioTranscriptionNewParams{
		File:  oai.File(bytes.NewReader(wav), "utterance.wav", "audio/wav"),
		Model: e.model,
	}
	if utt.LanguageHint != "" {
		params.Language = oai.String(utt.LanguageHint)
	}

	resp, err := e.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
				return asr.Result{}, fmt.Errorf("openai: transcription rejected (HTTP %d): %w", apiErr.StatusCode, asr.ErrUnavailable)
			}
		}
		return asr.Result{}, fmt.Errorf("openai: transcription request: %w", err)
	}

	// The API does not echo the detected language in the default response
	// format, so the hint (or English) stands in for it.
	return asr.Result{
		Text:     resp.Text,
		Language: asr.NormalizeLanguage(utt.LanguageHint),
	}, nil
}
