package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LiamSkop/Chavr/internal/events"
	"github.com/LiamSkop/Chavr/internal/observe"
	"github.com/LiamSkop/Chavr/internal/resilience"
	"github.com/LiamSkop/Chavr/internal/session"
	"github.com/LiamSkop/Chavr/pkg/responder"
)

// contextWindow is how many recent transcript lines the responder sees.
const contextWindow = 10

// aiRequest is one queued question.
type aiRequest struct {
	question  string
	timestamp time.Time
}

// AIWorkerConfig tunes an AIWorker.
type AIWorkerConfig struct {
	// QueueSize bounds the request queue. Default: 64.
	QueueSize int

	// PollTimeout is how long an idle worker waits for the next request
	// before exiting. A later Enqueue restarts it. Default: 1s.
	PollTimeout time.Duration

	// Retry governs backoff for rate-limited asks.
	Retry resilience.RetryConfig

	// Metrics, when set, records ask counts and latency.
	Metrics *observe.Metrics
}

// AIWorker serializes AI question answering for one session. Requests are
// answered strictly in enqueue order; there is never more than one
// in-flight call to the responder, which keeps conversational context
// coherent.
//
// The worker goroutine starts lazily on the first request and exits when
// the queue stays empty past the poll timeout.
type AIWorker struct {
	resp responder.Responder
	sess *session.Session
	sink events.Sink
	cfg  AIWorkerConfig

	queue chan aiRequest
	stop  chan struct{}

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewAIWorker creates an AIWorker answering against sess and reporting
// through sink.
func NewAIWorker(resp responder.Responder, sess *session.Session, sink events.Sink, cfg AIWorkerConfig) *AIWorker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = time.Second
	}
	return &AIWorker{
		resp:  resp,
		sess:  sess,
		sink:  sink,
		cfg:   cfg,
		queue: make(chan aiRequest, cfg.QueueSize),
		stop:  make(chan struct{}),
	}
}

// Enqueue queues a question without blocking the caller and starts the
// worker goroutine if it is not running. A full queue drops the request and
// reports the drop through the event sink.
func (w *AIWorker) Enqueue(question string, timestamp time.Time) {
	select {
	case w.queue <- aiRequest{question: question, timestamp: timestamp}:
	default:
		slog.Warn("ai request queue full, dropping question", "question", question)
		w.sink.Publish(events.Event{
			Text:      "AI is busy, question dropped: " + question,
			Kind:      events.KindError,
			Timestamp: timestamp,
		})
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		w.running = true
		w.wg.Add(1)
		go w.run()
	}
}

// Stop signals the worker and waits up to timeout for queued requests to be
// answered. A worker that does not finish in time is abandoned with an
// error, never killed mid-write.
func (w *AIWorker) Stop(timeout time.Duration) error {
	select {
	case <-w.stop:
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
		return fmt.Errorf("pipeline: ai worker did not drain within %v", timeout)
	}
}

// run answers requests until the queue stays empty for a full poll timeout
// or Stop is called. On stop it drains what is already queued.
func (w *AIWorker) run() {
	defer w.wg.Done()
	for {
		select {
		case req := <-w.queue:
			w.process(req)

		case <-w.stop:
			for {
				select {
				case req := <-w.queue:
					w.process(req)
				default:
					w.setStopped()
					return
				}
			}

		case <-time.After(w.cfg.PollTimeout):
			w.mu.Lock()
			if len(w.queue) == 0 {
				w.running = false
				w.mu.Unlock()
				return
			}
			w.mu.Unlock()
		}
	}
}

func (w *AIWorker) setStopped() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

// process answers one request: refresh the conversational context, ask with
// rate-limit retries, then record and publish the outcome. Failures surface
// as error events; the pipeline keeps running regardless.
func (w *AIWorker) process(req aiRequest) {
	w.sink.Publish(events.Event{
		Text:      "Thinking about: " + req.question,
		Kind:      events.KindProcessing,
		Timestamp: req.timestamp,
	})

	// Context reflects the conversation up to this moment, not a snapshot
	// taken at enqueue time.
	q := responder.Question{Text: req.question}
	for _, t := range w.sess.RecentTranscripts(contextWindow) {
		q.Recent = append(q.Recent, responder.ContextEntry{Text: t.Text, Language: t.Language})
	}
	if st := w.sess.StudyText(); st != nil {
		q.StudyText = &responder.StudyText{
			Reference: st.Reference,
			Language:  st.Language,
			Content:   st.Content,
		}
	}

	start := time.Now()
	answer, err := resilience.RetryWithResult(context.Background(), w.cfg.Retry,
		func(err error) bool { return errors.Is(err, responder.ErrRateLimited) },
		func() (string, error) { return w.resp.Ask(context.Background(), q) },
	)
	if w.cfg.Metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		w.cfg.Metrics.RecordAIRequest(context.Background(), w.resp.Name(), status, time.Since(start).Seconds())
	}
	if err != nil {
		slog.Error("ai request failed", "responder", w.resp.Name(), "error", err)
		w.sink.Publish(events.Event{
			Text:      "AI error: " + err.Error(),
			Kind:      events.KindError,
			Timestamp: time.Now(),
		})
		return
	}

	if err := w.sess.AddInteraction(req.question, answer); err != nil {
		slog.Warn("could not record ai interaction", "error", err)
	}
	w.sink.Publish(events.Event{
		Text:      answer,
		Kind:      events.KindAI,
		Timestamp: req.timestamp,
	})
}
