// Package segment turns a classified frame stream into discrete utterances.
//
// The Segmenter is a two-state accumulator: IDLE while no speech is buffered,
// ACCUMULATING while speech frames are being collected. When enough trailing
// silence follows a sufficiently long speech span, the buffered frames are
// concatenated and emitted as one utterance and the segmenter returns to IDLE.
//
// The segmenter is owned by the capture goroutine and is not safe for
// concurrent use.
package segment

import "github.com/LiamSkop/Chavr/pkg/audio"

// State is the segmenter's accumulation state.
type State int

const (
	// StateIdle means no speech is buffered.
	StateIdle State = iota

	// StateAccumulating means speech frames are being collected.
	StateAccumulating
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	default:
		return "unknown"
	}
}

// Config holds the segmentation thresholds. Frame counts are derived from the
// frame duration and target seconds via FramesFor.
type Config struct {
	// MinSpeechFrames is the minimum number of buffered speech frames
	// before an utterance may be emitted. Shorter spans are discarded as
	// noise bursts. Default: frames for 0.2 s of 30 ms frames (6).
	MinSpeechFrames int

	// MaxSilenceFrames is the number of consecutive silence frames that
	// closes an utterance. Default: frames for 0.5 s of 30 ms frames (16).
	MaxSilenceFrames int
}

// FramesFor converts a duration in seconds to a frame count for the given
// frame duration in milliseconds, rounding down but never below one frame.
func FramesFor(seconds float64, frameMs int) int {
	n := int(seconds * 1000 / float64(frameMs))
	if n < 1 {
		n = 1
	}
	return n
}

// Segmenter accumulates classified frames into utterances.
type Segmenter struct {
	cfg Config

	buffer        [][]byte
	bufferedBytes int
	silenceRun    int
}

// New creates a Segmenter. Zero-value config fields default to thresholds for
// 0.2 s minimum speech and 0.5 s maximum trailing silence at 30 ms frames.
func New(cfg Config) *Segmenter {
	if cfg.MinSpeechFrames <= 0 {
		cfg.MinSpeechFrames = FramesFor(0.2, 30)
	}
	if cfg.MaxSilenceFrames <= 0 {
		cfg.MaxSilenceFrames = FramesFor(0.5, 30)
	}
	return &Segmenter{cfg: cfg}
}

// Process consumes one classified frame. When a silence run closes a speech
// span of at least MinSpeechFrames, the concatenated utterance is returned
// with ok = true and the segmenter resets to IDLE. In every other case ok is
// false and the returned slice is nil.
func (s *Segmenter) Process(frame audio.Frame, isSpeech bool) (utterance []byte, ok bool) {
	if isSpeech {
		s.buffer = append(s.buffer, frame.Data)
		s.bufferedBytes += len(frame.Data)
		s.silenceRun = 0
		return nil, false
	}

	// Silence frame.
	if len(s.buffer) == 0 {
		return nil, false
	}
	if len(s.buffer) < s.cfg.MinSpeechFrames {
		// Sub-threshold false start: drop it rather than letting noise
		// bursts accumulate into a bogus utterance.
		s.reset()
		return nil, false
	}

	s.silenceRun++
	if s.silenceRun < s.cfg.MaxSilenceFrames {
		return nil, false
	}

	out := make([]byte, 0, s.bufferedBytes)
	for _, chunk := range s.buffer {
		out = append(out, chunk...)
	}
	s.reset()
	return out, true
}

// State reports whether the segmenter currently holds buffered speech.
func (s *Segmenter) State() State {
	if len(s.buffer) == 0 {
		return StateIdle
	}
	return StateAccumulating
}

// BufferedFrames returns the number of speech frames currently buffered.
func (s *Segmenter) BufferedFrames() int {
	return len(s.buffer)
}

// Reset discards any buffered-but-unflushed speech and returns the segmenter
// to IDLE. Called when a capture session stops or aborts: a buffer that was
// never endpointed is not a committed read and must not be delivered.
func (s *Segmenter) Reset() {
	s.reset()
}

func (s *Segmenter) reset() {
	s.buffer = nil
	s.bufferedBytes = 0
	s.silenceRun = 0
}
