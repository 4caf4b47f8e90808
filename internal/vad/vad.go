// Package vad implements per-frame voice activity detection for the capture
// pipeline.
//
// A Classifier labels each fixed-duration PCM frame as speech or silence.
// The default implementation is a pure-Go energy detector with hysteresis:
// two RMS thresholds (enter-speech and exit-speech) prevent flickering
// between states on frames that hover around a single cutoff.
//
// Classifiers are stateful and owned by a single capture goroutine; they are
// not safe for concurrent use.
package vad

import "github.com/LiamSkop/Chavr/pkg/audio"

// Classifier labels audio frames as speech or silence.
type Classifier interface {
	// IsSpeech reports whether the frame contains speech. Called once per
	// captured frame, in order; implementations may keep smoothing state
	// across calls.
	IsSpeech(frame audio.Frame) bool

	// Reset clears any accumulated state. Called when a capture session
	// stops so a later session starts fresh.
	Reset()
}

// EnergyConfig holds the tuning knobs for the energy classifier.
type EnergyConfig struct {
	// SpeechThreshold is the normalised RMS level at or above which a frame
	// counts towards entering the speech state. Default: 0.015.
	SpeechThreshold float64

	// SilenceThreshold is the normalised RMS level below which a frame
	// counts towards leaving the speech state. Must be ≤ SpeechThreshold.
	// Default: 0.008.
	SilenceThreshold float64

	// SpeechFrames is the number of consecutive loud frames required to
	// enter the speech state. Default: 2 (~60 ms at 30 ms frames).
	SpeechFrames int

	// SilenceFrames is the number of consecutive quiet frames required to
	// leave the speech state. Default: 4.
	SilenceFrames int
}

// Energy is an RMS-based Classifier with hysteresis.
type Energy struct {
	cfg EnergyConfig

	inSpeech     bool
	speechCount  int
	silenceCount int
}

// Compile-time assertion that Energy satisfies Classifier.
var _ Classifier = (*Energy)(nil)

// NewEnergy creates an energy classifier. Zero-value config fields are
// replaced with defaults suitable for 16 kHz 30 ms frames.
func NewEnergy(cfg EnergyConfig) *Energy {
	if cfg.SpeechThreshold <= 0 {
		cfg.SpeechThreshold = 0.015
	}
	if cfg.SilenceThreshold <= 0 {
		cfg.SilenceThreshold = 0.008
	}
	if cfg.SilenceThreshold > cfg.SpeechThreshold {
		cfg.SilenceThreshold = cfg.SpeechThreshold
	}
	if cfg.SpeechFrames <= 0 {
		cfg.SpeechFrames = 2
	}
	if cfg.SilenceFrames <= 0 {
		cfg.SilenceFrames = 4
	}
	return &Energy{cfg: cfg}
}

// IsSpeech classifies one frame and updates the hysteresis state.
func (e *Energy) IsSpeech(frame audio.Frame) bool {
	level := audio.RMS(frame.Data)

	if e.inSpeech {
		if level < e.cfg.SilenceThreshold {
			e.silenceCount++
			if e.silenceCount >= e.cfg.SilenceFrames {
				e.inSpeech = false
				e.silenceCount = 0
			}
		} else {
			e.silenceCount = 0
		}
	} else {
		if level >= e.cfg.SpeechThreshold {
			e.speechCount++
			if e.speechCount >= e.cfg.SpeechFrames {
				e.inSpeech = true
				e.speechCount = 0
			}
		} else {
			e.speechCount = 0
		}
	}

	return e.inSpeech
}

// Reset clears the hysteresis state.
func (e *Energy) Reset() {
	e.inSpeech = false
	e.speechCount = 0
	e.silenceCount = 0
}
