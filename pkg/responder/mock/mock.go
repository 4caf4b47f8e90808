// Package mock provides a test double for the responder.Responder
// interface.
//
// Use Responder to script answers (or errors) for the AI worker and inspect
// the questions and digests it submitted.
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/LiamSkop/Chavr/pkg/responder"
)

// Responder is a mock implementation of responder.Responder. Answers are
// consumed in order; when exhausted the last one repeats. Thread-safe.
type Responder struct {
	mu sync.Mutex

	// Answers are returned from successive Ask calls.
	Answers []string

	// AskErrs are returned from successive Ask calls, parallel to
	// Answers. A nil entry (or missing entry) means no error.
	AskErrs []error

	// Summary is returned from Summarize.
	Summary string

	// SummarizeErr, if non-nil, is returned from Summarize.
	SummarizeErr error

	// AskCalls records every Question passed to Ask.
	AskCalls []responder.Question

	// SummarizeCalls records every SessionDigest passed to Summarize.
	SummarizeCalls []responder.SessionDigest

	// Closed reports whether Close has been called.
	Closed bool

	next int
}

// Ensure Responder implements responder.Responder at compile time.
var _ responder.Responder = (*Responder)(nil)

// Name identifies the mock.
func (r *Responder) Name() string { return "mock" }

// Ask records the call and returns the next scripted answer and error.
func (r *Responder) Ask(_ context.Context, q responder.Question) (string, error) {
	if strings.TrimSpace(q.Text) == "" {
		return "", responder.ErrEmptyQuestion
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.AskCalls = append(r.AskCalls, q)

	i := r.next
	r.next++
	if i < len(r.AskErrs) && r.AskErrs[i] != nil {
		return "", r.AskErrs[i]
	}
	if len(r.Answers) == 0 {
		return "", nil
	}
	if i >= len(r.Answers) {
		i = len(r.Answers) - 1
	}
	return r.Answers[i], nil
}

// Summarize records the call and returns Summary, SummarizeErr.
func (r *Responder) Summarize(_ context.Context, s responder.SessionDigest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SummarizeCalls = append(r.SummarizeCalls, s)
	if r.SummarizeErr != nil {
		return "", r.SummarizeErr
	}
	return r.Summary, nil
}

// Close marks the responder closed.
func (r *Responder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Closed = true
	return nil
}

// Reset clears all recorded calls and restarts the script. Thread-safe.
func (r *Responder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.AskCalls = nil
	r.SummarizeCalls = nil
	r.next = 0
	r.Closed = false
}
