// Package mock provides a test double for the asr.Engine interface.
//
// Use Engine to feed controlled Results (or errors) to the transcription
// worker and inspect which utterances were submitted.
//
// Example:
//
//	eng := &mock.Engine{
//	    Results: []asr.Result{{Text: "hello", Language: "en"}},
//	}
//	res, _ := eng.Transcribe(ctx, utt)
package mock

import (
	"context"
	"sync"

	"github.com/LiamSkop/Chavr/pkg/asr"
)

// TranscribeCall records a single invocation of Engine.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Utterance is the utterance passed to Transcribe, with PCM copied.
	Utterance asr.Utterance
}

// Engine is a mock implementation of asr.Engine. Results are consumed in
// order; when exhausted the last one repeats. Thread-safe.
type Engine struct {
	mu sync.Mutex

	// EngineName is returned by Name. Defaults to "mock".
	EngineName string

	// Results are returned from successive Transcribe calls.
	Results []asr.Result

	// Errs are returned from successive Transcribe calls, parallel to
	// Results. A nil entry (or missing entry) means no error.
	Errs []error

	// TranscribeCalls records every call to Transcribe.
	TranscribeCalls []TranscribeCall

	// Closed reports whether Close has been called.
	Closed bool

	next int
}

// Ensure Engine implements asr.Engine at compile time.
var _ asr.Engine = (*Engine)(nil)

// Name returns EngineName, or "mock" when unset.
func (e *Engine) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.EngineName == "" {
		return "mock"
	}
	return e.EngineName
}

// Transcribe records the call and returns the next scripted Result and error.
func (e *Engine) Transcribe(ctx context.Context, utt asr.Utterance) (asr.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec := utt
	rec.PCM = append([]byte(nil), utt.PCM...)
	e.TranscribeCalls = append(e.TranscribeCalls, TranscribeCall{Ctx: ctx, Utterance: rec})

	i := e.next
	if i >= len(e.Results) && len(e.Results) > 0 {
		i = len(e.Results) - 1
	}
	e.next++

	var err error
	if e.next-1 < len(e.Errs) {
		err = e.Errs[e.next-1]
	}
	var res asr.Result
	if i < len(e.Results) {
		res = e.Results[i]
	}
	return res, err
}

// Close marks the engine closed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Closed = true
	return nil
}

// Reset clears all recorded calls and restarts the script. Thread-safe.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.TranscribeCalls = nil
	e.next = 0
	e.Closed = false
}
