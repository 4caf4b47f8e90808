// Package events defines the typed event channel through which the pipeline
// reports transcripts, AI answers, progress, and failures to its consumer
// (CLI or GUI layer).
//
// Workers publish events; the consumer drains a channel. Publishing never
// blocks: when the consumer falls behind, the oldest undelivered event is
// dropped so the audio pipeline is never throttled by a slow display.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LiamSkop/Chavr/internal/observe"
)

// Kind classifies an event for rendering.
type Kind string

const (
	// KindSpeech is a finalized transcript of the user's speech.
	KindSpeech Kind = "speech"

	// KindAI is an answer (or summary) produced by the AI responder.
	KindAI Kind = "ai"

	// KindProcessing is a progress notification, e.g. "thinking…".
	KindProcessing Kind = "processing"

	// KindError is a user-visible failure report.
	KindError Kind = "error"
)

// Event is a single pipeline notification.
type Event struct {
	// Text is the transcript, answer, or message body.
	Text string

	// Kind classifies the event.
	Kind Kind

	// Language is the detected language code for speech events ("en",
	// "he"). Empty for non-speech events.
	Language string

	// Timestamp is when the underlying result was produced.
	Timestamp time.Time
}

// Sink receives pipeline events. Implementations must not block the caller;
// worker goroutines publish from latency-sensitive loops.
type Sink interface {
	Publish(ev Event)
}

// ChannelSink is a Sink backed by a bounded channel. When the channel is
// full the oldest pending event is evicted to make room, and the eviction is
// logged at debug level.
//
// ChannelSink is safe for concurrent use by multiple publishers.
type ChannelSink struct {
	mu      sync.Mutex
	ch      chan Event
	metrics *observe.Metrics
}

// Compile-time assertion that ChannelSink satisfies Sink.
var _ Sink = (*ChannelSink)(nil)

// NewChannelSink creates a sink buffering up to capacity events.
// A capacity of zero or less defaults to 64.
func NewChannelSink(capacity int) *ChannelSink {
	if capacity <= 0 {
		capacity = 64
	}
	return &ChannelSink{ch: make(chan Event, capacity)}
}

// WithMetrics records evictions on the dropped-events counter. A nil m
// leaves dropping untracked. Returns s for chaining.
func (s *ChannelSink) WithMetrics(m *observe.Metrics) *ChannelSink {
	s.metrics = m
	return s
}

// Publish enqueues ev, evicting the oldest pending event if the buffer is
// full. Never blocks.
func (s *ChannelSink) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		select {
		case s.ch <- ev:
			return
		default:
		}
		select {
		case dropped := <-s.ch:
			if s.metrics != nil {
				s.metrics.EventsDropped.Add(context.Background(), 1)
			}
			slog.Debug("event sink full, dropping oldest event", "kind", dropped.Kind)
		default:
		}
	}
}

// Events returns the receive side of the sink. The channel is never closed;
// consumers should select against their own done signal.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Func adapts a function to the Sink interface. The function must be safe
// for concurrent use and must return quickly.
type Func func(ev Event)

// Publish calls f.
func (f Func) Publish(ev Event) { f(ev) }
