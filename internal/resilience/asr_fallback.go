package resilience

import (
	"context"
	"errors"

	"github.com/LiamSkop/Chavr/pkg/asr"
)

// ASRFallback implements [asr.Engine] with automatic failover across
// multiple transcription backends, typically local whisper.cpp first and a
// hosted API second. Each backend has its own circuit breaker.
type ASRFallback struct {
	group *FallbackGroup[asr.Engine]
}

// Compile-time interface assertion.
var _ asr.Engine = (*ASRFallback)(nil)

// NewASRFallback creates an [ASRFallback] with primary as the preferred
// engine.
func NewASRFallback(primary asr.Engine, cfg FallbackConfig) *ASRFallback {
	return &ASRFallback{
		group: NewFallbackGroup(primary, primary.Name(), cfg),
	}
}

// AddFallback registers an additional engine as a fallback.
func (f *ASRFallback) AddFallback(engine asr.Engine) {
	f.group.AddFallback(engine.Name(), engine)
}

// Name identifies the composite engine.
func (f *ASRFallback) Name() string { return "fallback" }

// Transcribe runs the utterance through the first healthy engine. An empty
// utterance is rejected up front rather than burned against the breakers.
func (f *ASRFallback) Transcribe(ctx context.Context, utt asr.Utterance) (asr.Result, error) {
	if len(utt.PCM) == 0 {
		return asr.Result{}, asr.ErrEmptyUtterance
	}
	return ExecuteWithResult(f.group, func(e asr.Engine) (asr.Result, error) {
		return e.Transcribe(ctx, utt)
	})
}

// Close closes every registered engine, joining their errors.
func (f *ASRFallback) Close() error {
	var errs []error
	f.group.Each(func(_ string, e asr.Engine) {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}
