// Package whisper implements asr.Engine on top of the whisper.cpp CGO
// bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.
//
// The model is loaded once at construction and shared across all calls. Each
// Transcribe call creates its own whisper context, so concurrent calls do not
// interfere.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/LiamSkop/Chavr/pkg/asr"
	"github.com/LiamSkop/Chavr/pkg/audio"
)

// Engine runs local whisper.cpp inference.
type Engine struct {
	model whisperlib.Model
}

// Compile-time assertion that Engine satisfies asr.Engine.
var _ asr.Engine = (*Engine)(nil)

// New loads the whisper.cpp model from the given file path. The caller must
// call Close when the engine is no longer needed.
func New(modelPath string) (*Engine, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}
	return &Engine{model: model}, nil
}

// Name identifies the engine.
func (e *Engine) Name() string { return "whisper" }

// Close releases the whisper model.
func (e *Engine) Close() error {
	if e.model != nil {
		return e.model.Close()
	}
	return nil
}

// Transcribe converts the utterance PCM to float32 samples, runs whisper.cpp
// inference on a fresh context, and returns the concatenated segment text
// with the detected language.
func (e *Engine) Transcribe(ctx context.Context, utt asr.Utterance) (asr.Result, error) {
	if len(utt.PCM) == 0 {
		return asr.Result{}, asr.ErrEmptyUtterance
	}
	if err := ctx.Err(); err != nil {
		return asr.Result{}, fmt.Errorf("whisper: context cancelled: %w", err)
	}

	samples := audio.PCMToFloat32(utt.PCM)

	// A whisper context is not thread-safe; the model is. One context per
	// call keeps concurrent Transcribe calls independent.
	wctx, err := e.model.NewContext()
	if err != nil {
		return asr.Result{}, fmt.Errorf("whisper: create context: %w", err)
	}

	lang := utt.LanguageHint
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		slog.Warn("whisper: set language failed, using model default", "language", lang, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return asr.Result{}, fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return asr.Result{}, fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	detected := utt.LanguageHint
	if detected == "" {
		detected = wctx.DetectedLanguage()
	}

	return asr.Result{
		Text:     strings.Join(parts, " "),
		Language: asr.NormalizeLanguage(detected),
	}, nil
}
