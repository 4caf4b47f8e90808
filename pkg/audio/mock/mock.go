// Package mock provides a test double for the audio.Source interface.
//
// Use Source to feed a scripted sequence of frames into the capture loop
// without a real microphone. When the script is exhausted, ReadFrame blocks
// until Stop or Close, mimicking a quiet device.
package mock

import (
	"errors"
	"sync"
	"time"

	"github.com/LiamSkop/Chavr/pkg/audio"
)

// ErrSourceClosed is returned by ReadFrame after Close.
var ErrSourceClosed = errors.New("mock: source closed")

// Source is a mock implementation of audio.Source backed by a frame script.
type Source struct {
	mu sync.Mutex

	// Frames is the script of frames returned by successive ReadFrame calls.
	Frames []audio.Frame

	// ReadErr, if non-nil, is returned once the script is exhausted instead
	// of blocking. Use it to simulate a device failure mid-session.
	ReadErr error

	// StartErr, if non-nil, is returned from Start.
	StartErr error

	next    int
	started bool
	done    chan struct{}
	once    sync.Once
}

// NewSource creates a mock source that will replay the given frames.
func NewSource(frames ...audio.Frame) *Source {
	return &Source{Frames: frames, done: make(chan struct{})}
}

// SpeechFrame builds a frame filled with a loud alternating pattern that
// energy-based classifiers score as speech.
func SpeechFrame(sampleRate, frameMs int) audio.Frame {
	n := audio.FrameSize(sampleRate, frameMs)
	samples := make([]int16, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 12000
		} else {
			samples[i] = -12000
		}
	}
	return audio.Frame{
		Data:       audio.Int16ToPCM(samples),
		SampleRate: sampleRate,
		Duration:   time.Duration(frameMs) * time.Millisecond,
	}
}

// SilenceFrame builds an all-zero frame.
func SilenceFrame(sampleRate, frameMs int) audio.Frame {
	n := audio.FrameSize(sampleRate, frameMs)
	return audio.Frame{
		Data:       make([]byte, n*2),
		SampleRate: sampleRate,
		Duration:   time.Duration(frameMs) * time.Millisecond,
	}
}

// Start marks the source as started.
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StartErr != nil {
		return s.StartErr
	}
	s.started = true
	return nil
}

// ReadFrame returns the next scripted frame. When the script is exhausted it
// returns ReadErr if set, otherwise blocks until Stop or Close.
func (s *Source) ReadFrame() (audio.Frame, error) {
	s.mu.Lock()
	if s.next < len(s.Frames) {
		f := s.Frames[s.next]
		s.next++
		s.mu.Unlock()
		return f, nil
	}
	readErr := s.ReadErr
	s.mu.Unlock()

	if readErr != nil {
		return audio.Frame{}, readErr
	}
	<-s.done
	return audio.Frame{}, ErrSourceClosed
}

// Stop unblocks any pending ReadFrame.
func (s *Source) Stop() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// Close unblocks any pending ReadFrame and marks the source closed.
func (s *Source) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
