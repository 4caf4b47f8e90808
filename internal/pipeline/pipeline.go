// Package pipeline wires the stages of a listening session together: the
// capture loop reading microphone frames, the VAD classifier, the endpoint
// segmenter, the transcription worker, the voice-command router, and the AI
// worker.
//
// A Pipeline is single-use: Start begins one session, Stop ends it and
// returns the frozen session. Concurrency is fixed at three goroutines: the
// capture loop (owned by the pipeline), the transcription worker, and the
// lazily started AI worker. Stages communicate only through bounded queues
// and the event sink, so a slow stage never stalls capture.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/LiamSkop/Chavr/internal/command"
	"github.com/LiamSkop/Chavr/internal/events"
	"github.com/LiamSkop/Chavr/internal/observe"
	"github.com/LiamSkop/Chavr/internal/segment"
	"github.com/LiamSkop/Chavr/internal/session"
	"github.com/LiamSkop/Chavr/internal/transcribe"
	"github.com/LiamSkop/Chavr/internal/vad"
	"github.com/LiamSkop/Chavr/pkg/asr"
	"github.com/LiamSkop/Chavr/pkg/audio"
	"github.com/LiamSkop/Chavr/pkg/responder"
)

// Lifecycle errors.
var (
	ErrNotStarted     = errors.New("pipeline: not started")
	ErrAlreadyStarted = errors.New("pipeline: already started")
)

// summarizeTimeout bounds the end-of-session summary call.
const summarizeTimeout = 30 * time.Second

// Config tunes a Pipeline. The zero value applies the defaults noted per
// field.
type Config struct {
	// SampleRate of captured audio in Hz. Default: 16000.
	SampleRate int

	// FrameMs is the capture frame duration in milliseconds. Default: 30.
	FrameMs int

	// VAD tunes the energy classifier.
	VAD vad.EnergyConfig

	// Segmenter tunes endpoint detection.
	Segmenter segment.Config

	// Transcribe tunes the transcription worker. SampleRate is filled in
	// from this config's SampleRate.
	Transcribe transcribe.Config

	// AI tunes the AI worker.
	AI AIWorkerConfig

	// Triggers overrides the voice-command vocabulary. Empty uses
	// command.DefaultTriggers.
	Triggers []string

	// Metrics, when set, is propagated to all stages.
	Metrics *observe.Metrics

	// DumpDir, when set, writes each emitted utterance to a WAV file in
	// that directory so segmentation and engine input can be inspected.
	DumpDir string

	// Stop timeouts per stage, applied in Stop order.
	CaptureStopTimeout    time.Duration // default 2s
	TranscribeStopTimeout time.Duration // default 3s
	AIStopTimeout         time.Duration // default 5s
}

func (c *Config) applyDefaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.FrameMs <= 0 {
		c.FrameMs = 30
	}
	if c.CaptureStopTimeout <= 0 {
		c.CaptureStopTimeout = 2 * time.Second
	}
	if c.TranscribeStopTimeout <= 0 {
		c.TranscribeStopTimeout = 3 * time.Second
	}
	if c.AIStopTimeout <= 0 {
		c.AIStopTimeout = 5 * time.Second
	}
	c.Transcribe.SampleRate = c.SampleRate
	c.Transcribe.Metrics = c.Metrics
	c.AI.Metrics = c.Metrics
}

// Pipeline runs one listening session over an audio source.
type Pipeline struct {
	source audio.Source
	engine asr.Engine
	resp   responder.Responder
	sink   events.Sink
	cfg    Config

	sess   *session.Session
	clf    vad.Classifier
	seg    *segment.Segmenter
	tw     *transcribe.Worker
	ai     *AIWorker
	router *command.Router

	stopCapture chan struct{}
	captureDone chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
}

// New creates a Pipeline over the given source and ASR engine. resp may be
// nil, which disables AI question answering and the end-of-session summary.
func New(source audio.Source, engine asr.Engine, resp responder.Responder, sink events.Sink, cfg Config) *Pipeline {
	cfg.applyDefaults()
	return &Pipeline{
		source:      source,
		engine:      engine,
		resp:        resp,
		sink:        sink,
		cfg:         cfg,
		router:      command.NewRouter(cfg.Triggers...),
		stopCapture: make(chan struct{}),
		captureDone: make(chan struct{}),
	}
}

// Session returns the session this pipeline records into, or nil before
// Start.
func (p *Pipeline) Session() *session.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess
}

// Start creates the session and begins capturing. An empty title gets a
// timestamped default.
func (p *Pipeline) Start(title string) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true

	p.sess = session.New(title)
	p.clf = vad.NewEnergy(p.cfg.VAD)
	p.seg = segment.New(p.cfg.Segmenter)
	p.tw = transcribe.NewWorker(p.engine, p.onTranscript, p.cfg.Transcribe)
	if p.resp != nil {
		p.ai = NewAIWorker(p.resp, p.sess, p.sink, p.cfg.AI)
	}
	p.mu.Unlock()

	if err := p.source.Start(); err != nil {
		return fmt.Errorf("pipeline: start audio source: %w", err)
	}
	p.tw.Start()
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.ActiveSessions.Add(context.Background(), 1)
	}
	go p.capture()

	slog.Info("listening session started",
		"session", p.sess.ID(), "title", p.sess.Title())
	return nil
}

// Stop ends the session: the capture loop is signalled and joined, the
// transcription and AI queues are drained, the session is frozen, and the
// summary is generated when the session qualifies. Returns the frozen
// session together with any shutdown errors. The session is returned even
// when shutdown was not clean.
func (p *Pipeline) Stop() (*session.Session, error) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil, ErrNotStarted
	}
	if p.stopped {
		sess := p.sess
		p.mu.Unlock()
		return sess, nil
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.stopCapture)

	var errs []error
	// Stopping the stream unblocks a capture loop parked in ReadFrame.
	if err := p.source.Stop(); err != nil {
		errs = append(errs, err)
	}
	select {
	case <-p.captureDone:
	case <-time.After(p.cfg.CaptureStopTimeout):
		errs = append(errs, fmt.Errorf("pipeline: capture loop did not stop within %v", p.cfg.CaptureStopTimeout))
	}

	if err := p.tw.Stop(p.cfg.TranscribeStopTimeout); err != nil {
		errs = append(errs, err)
	}
	if p.ai != nil {
		if err := p.ai.Stop(p.cfg.AIStopTimeout); err != nil {
			errs = append(errs, err)
		}
	}

	p.sess.End()
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.ActiveSessions.Add(context.Background(), -1)
	}
	p.summarize()

	slog.Info("listening session ended",
		"session", p.sess.ID(),
		"transcripts", p.sess.TranscriptCount(),
		"interactions", p.sess.InteractionCount(),
		"duration", p.sess.Duration())
	return p.sess, errors.Join(errs...)
}

// ErrNoResponder is returned by Ask when no responder is configured.
var ErrNoResponder = errors.New("pipeline: no responder configured")

// Ask queues a typed question to the AI worker, bypassing voice capture.
func (p *Pipeline) Ask(question string) error {
	p.mu.Lock()
	started, stopped := p.started, p.stopped
	p.mu.Unlock()
	if !started || stopped {
		return ErrNotStarted
	}
	if p.ai == nil {
		return ErrNoResponder
	}
	p.ai.Enqueue(question, time.Now())
	return nil
}

// capture is the frame loop: read, classify, segment, enqueue. A device read
// error ends the loop and surfaces as an error event; the session itself
// stays open so Stop can still drain and freeze it.
func (p *Pipeline) capture() {
	defer close(p.captureDone)
	defer p.seg.Reset()
	defer p.clf.Reset()

	for {
		select {
		case <-p.stopCapture:
			return
		default:
		}

		frame, err := p.source.ReadFrame()
		if err != nil {
			select {
			case <-p.stopCapture:
				// Stop raced with the read; not a device failure.
				return
			default:
			}
			slog.Error("audio capture failed", "error", err)
			p.sink.Publish(events.Event{
				Text:      "audio device error: " + err.Error(),
				Kind:      events.KindError,
				Timestamp: time.Now(),
			})
			return
		}

		utt, ok := p.seg.Process(frame, p.clf.IsSpeech(frame))
		if !ok {
			continue
		}
		if p.cfg.Metrics != nil {
			p.cfg.Metrics.Utterances.Add(context.Background(), 1)
		}
		if p.cfg.DumpDir != "" {
			p.dumpUtterance(utt)
		}
		p.tw.Enqueue(utt)
	}
}

// dumpUtterance writes the utterance PCM to a timestamped WAV file. Dump
// failures are logged, never fatal.
func (p *Pipeline) dumpUtterance(utt asr.Utterance) {
	name := fmt.Sprintf("utterance_%s.wav", time.Now().Format("15-04-05.000"))
	path := filepath.Join(p.cfg.DumpDir, name)
	if err := audio.WriteWAVFile(path, utt.PCM, p.cfg.SampleRate); err != nil {
		slog.Warn("could not dump utterance", "path", path, "error", err)
	}
}

// onTranscript records each surviving transcript, publishes it, and routes
// voice commands to the AI worker. Runs on the transcription worker
// goroutine.
func (p *Pipeline) onTranscript(text, language string, timestamp time.Time) {
	if err := p.sess.AddTranscript(text, language); err != nil {
		slog.Warn("could not record transcript", "error", err)
	}
	p.sink.Publish(events.Event{
		Text:      text,
		Kind:      events.KindSpeech,
		Language:  language,
		Timestamp: timestamp,
	})

	question, ok := p.router.Match(text)
	if !ok {
		return
	}
	if p.ai == nil {
		p.sink.Publish(events.Event{
			Text:      "AI features not available",
			Kind:      events.KindError,
			Timestamp: timestamp,
		})
		return
	}
	p.ai.Enqueue(question, timestamp)
}

// summarize generates the end-of-session summary for a qualifying session.
// Summary failures are reported but never fail Stop.
func (p *Pipeline) summarize() {
	if p.resp == nil || !p.sess.SummaryEligible() {
		return
	}

	digest := responder.SessionDigest{
		Title:     p.sess.Title(),
		Duration:  p.sess.Duration(),
		Languages: p.sess.LanguagesUsed(),
	}
	if st := p.sess.StudyText(); st != nil {
		digest.TextReference = st.Reference
	}
	for _, t := range p.sess.Transcripts() {
		digest.Transcripts = append(digest.Transcripts, responder.TranscriptLine{
			Timestamp: t.Timestamp,
			Text:      t.Text,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), summarizeTimeout)
	defer cancel()
	summary, err := p.resp.Summarize(ctx, digest)
	if err != nil {
		slog.Error("session summary failed", "responder", p.resp.Name(), "error", err)
		p.sink.Publish(events.Event{
			Text:      "summary error: " + err.Error(),
			Kind:      events.KindError,
			Timestamp: time.Now(),
		})
		return
	}
	p.sess.SetSummary(summary)
	p.sink.Publish(events.Event{
		Text:      "Session Summary:\n" + summary,
		Kind:      events.KindAI,
		Timestamp: time.Now(),
	})
}
