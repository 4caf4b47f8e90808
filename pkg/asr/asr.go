// Package asr defines the Engine interface for utterance transcription
// backends.
//
// Unlike a streaming recognizer, an Engine works on complete utterances: the
// segmentation layer hands over a finished chunk of speech audio and receives
// the recognized text plus the detected language in a single call.
//
// Implementations must be safe for concurrent use.
package asr

import (
	"context"
	"errors"
	"strings"
)

// Supported language codes. Anything an engine reports outside this set is
// normalized to LangEnglish.
const (
	LangEnglish = "en"
	LangHebrew  = "he"
)

// ErrEmptyUtterance is returned by Transcribe when the utterance carries no
// audio samples.
var ErrEmptyUtterance = errors.New("asr: empty utterance")

// ErrUnavailable indicates the engine cannot serve requests at all (model
// missing, endpoint unreachable). Callers may fall back to another engine.
var ErrUnavailable = errors.New("asr: engine unavailable")

// Utterance is a complete segment of speech audio to transcribe.
type Utterance struct {
	// PCM is raw 16-bit little-endian signed mono audio.
	PCM []byte

	// SampleRate is the sample rate of PCM in Hz. Zero means 16000.
	SampleRate int

	// LanguageHint is the expected language code ("en", "he"). Empty lets
	// the engine auto-detect.
	LanguageHint string
}

// Result is the outcome of transcribing one utterance.
type Result struct {
	// Text is the recognized text, whitespace-trimmed. May be empty when
	// the audio contained no recognizable speech.
	Text string

	// Language is the normalized detected language code, one of
	// LangEnglish or LangHebrew.
	Language string
}

// Engine is the abstraction over any transcription backend.
type Engine interface {
	// Name identifies the engine for logging and metrics, e.g. "whisper".
	Name() string

	// Transcribe recognizes the text spoken in utt. Implementations
	// normalize the reported language via NormalizeLanguage before
	// returning.
	Transcribe(ctx context.Context, utt Utterance) (Result, error)

	// Close releases any resources held by the engine. Transcribe must
	// not be called after Close.
	Close() error
}

// NormalizeLanguage maps an engine-reported language code onto the supported
// set. The deprecated "iw" code is folded into "he"; any code outside the
// supported set falls back to "en".
func NormalizeLanguage(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "he", "iw":
		return LangHebrew
	case "en":
		return LangEnglish
	default:
		return LangEnglish
	}
}
