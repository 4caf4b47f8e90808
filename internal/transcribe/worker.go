// Package transcribe runs the transcription worker: the single consumer
// that pulls finished utterances off a bounded queue, runs them through the
// ASR engine, filters recognizer noise, and hands surviving transcripts to
// the pipeline.
//
// Inference may take seconds, which is why the worker lives on its own
// goroutine: the capture loop keeps reading microphone frames while a
// previous utterance is still being transcribed.
package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LiamSkop/Chavr/internal/observe"
	"github.com/LiamSkop/Chavr/pkg/asr"
	"github.com/LiamSkop/Chavr/pkg/audio"
)

// Handler receives each transcript that survives post-processing. It is
// called from the worker goroutine and must not block for long.
type Handler func(text, language string, timestamp time.Time)

// Config tunes a Worker. The zero value applies the defaults noted per
// field.
type Config struct {
	// QueueSize bounds the utterance queue. Default: 32.
	QueueSize int

	// SampleRate is the PCM sample rate of enqueued utterances in Hz.
	// Default: 16000.
	SampleRate int

	// LanguageHint forces the recognition language ("en", "he"). Empty
	// lets the engine auto-detect.
	LanguageHint string

	// NoiseThreshold and MinTextLength tune the post-processing filter;
	// see NewFilter.
	NoiseThreshold float64
	MinTextLength  int

	// Metrics, when set, records per-utterance outcomes and latency.
	Metrics *observe.Metrics
}

// Worker is the transcription consumer. Create with NewWorker, then Start;
// Stop drains the queue and joins the goroutine.
type Worker struct {
	engine  asr.Engine
	handler Handler
	filter  *Filter
	cfg     Config

	queue chan []byte
	stop  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// NewWorker creates a Worker feeding surviving transcripts to handler.
func NewWorker(engine asr.Engine, handler Handler, cfg Config) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	return &Worker{
		engine:  engine,
		handler: handler,
		filter:  NewFilter(cfg.NoiseThreshold, cfg.MinTextLength),
		cfg:     cfg,
		queue:   make(chan []byte, cfg.QueueSize),
		stop:    make(chan struct{}),
	}
}

// Start launches the worker goroutine. Starting twice is a no-op.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	w.wg.Add(1)
	go w.run()
}

// Enqueue offers an utterance to the worker without blocking. Returns false
// when the queue is full; the utterance is dropped and the caller's capture
// loop keeps running.
func (w *Worker) Enqueue(utterance []byte) bool {
	select {
	case w.queue <- utterance:
		return true
	default:
		slog.Warn("transcription queue full, dropping utterance",
			"bytes", len(utterance))
		return false
	}
}

// Stop signals the worker, waits up to timeout for it to drain the queue
// and exit, and returns an error if it had to be abandoned. An utterance
// already dequeued is always transcribed to completion first.
func (w *Worker) Stop(timeout time.Duration) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	select {
	case <-w.stop:
		// Already stopping.
	default:
		close(w.stop)
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("transcribe: worker did not drain within %v", timeout)
	}
}

// run is the consumer loop. On stop it drains whatever is already queued
// before exiting, so spoken audio is never silently discarded.
func (w *Worker) run() {
	defer w.wg.Done()
	for {
		select {
		case utt := <-w.queue:
			w.process(utt)
		case <-w.stop:
			for {
				select {
				case utt := <-w.queue:
					w.process(utt)
				default:
					return
				}
			}
		}
	}
}

// process transcribes one utterance. Engine failures are logged and the
// utterance dropped; the loop is never taken down by a single bad result.
func (w *Worker) process(utterance []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("transcription engine panicked", "panic", r)
		}
	}()

	rms := audio.RMS(utterance)

	start := time.Now()
	res, err := w.engine.Transcribe(context.Background(), asr.Utterance{
		PCM:          utterance,
		SampleRate:   w.cfg.SampleRate,
		LanguageHint: w.cfg.LanguageHint,
	})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		slog.Error("transcription failed", "engine", w.engine.Name(), "error", err)
		w.record("error", elapsed)
		return
	}

	text, ok := w.filter.Apply(res.Text, rms)
	if !ok {
		slog.Debug("transcript filtered out", "text", res.Text, "rms", rms)
		w.record("filtered", elapsed)
		return
	}
	w.record("ok", elapsed)

	w.handler(text, asr.NormalizeLanguage(res.Language), time.Now())
}

func (w *Worker) record(status string, seconds float64) {
	if w.cfg.Metrics != nil {
		w.cfg.Metrics.RecordTranscript(context.Background(), w.engine.Name(), status, seconds)
	}
}
