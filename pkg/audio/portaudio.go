package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// paInitOnce guards the process-wide PortAudio initialisation.
var (
	paInitOnce sync.Once
	paInitErr  error
)

// initPortAudio initialises the PortAudio runtime once per process.
func initPortAudio() error {
	paInitOnce.Do(func() {
		paInitErr = portaudio.Initialize()
	})
	return paInitErr
}

// Compile-time assertion that MicSource satisfies Source.
var _ Source = (*MicSource)(nil)

// MicSource captures fixed-duration PCM frames from the default input device
// via PortAudio. It is owned by a single capture goroutine and is not safe
// for concurrent use.
type MicSource struct {
	sampleRate int
	frameMs    int

	buf    []int16
	stream *portaudio.Stream
	closed bool
}

// NewMicSource opens the default microphone for sampleRate Hz mono capture
// with frames of frameMs milliseconds.
func NewMicSource(sampleRate, frameMs int) (*MicSource, error) {
	if sampleRate <= 0 {
		return nil, errors.New("audio: sample rate must be positive")
	}
	if frameMs <= 0 {
		return nil, errors.New("audio: frame duration must be positive")
	}
	if err := initPortAudio(); err != nil {
		return nil, fmt.Errorf("audio: initialise portaudio: %w", err)
	}

	buf := make([]int16, FrameSize(sampleRate, frameMs))
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("audio: open input stream: %w", err)
	}

	return &MicSource{
		sampleRate: sampleRate,
		frameMs:    frameMs,
		buf:        buf,
		stream:     stream,
	}, nil
}

// Start begins capturing from the device.
func (m *MicSource) Start() error {
	if m.closed {
		return errors.New("audio: source is closed")
	}
	if err := m.stream.Start(); err != nil {
		return fmt.Errorf("audio: start input stream: %w", err)
	}
	return nil
}

// ReadFrame blocks until the device has filled one frame buffer and returns
// a copy of it as PCM bytes.
func (m *MicSource) ReadFrame() (Frame, error) {
	if m.closed {
		return Frame{}, errors.New("audio: source is closed")
	}
	if err := m.stream.Read(); err != nil {
		return Frame{}, fmt.Errorf("audio: device read: %w", err)
	}
	return Frame{
		Data:       Int16ToPCM(m.buf),
		SampleRate: m.sampleRate,
		Duration:   time.Duration(m.frameMs) * time.Millisecond,
	}, nil
}

// Stop stops the input stream. The source can be started again afterwards.
func (m *MicSource) Stop() error {
	if m.closed {
		return nil
	}
	if err := m.stream.Stop(); err != nil {
		return fmt.Errorf("audio: stop input stream: %w", err)
	}
	return nil
}

// Close releases the device. Safe to call more than once.
func (m *MicSource) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if err := m.stream.Close(); err != nil {
		return fmt.Errorf("audio: close input stream: %w", err)
	}
	return nil
}

// InputDevices returns the names of all available audio input devices.
// Used by the CLI to print the device list at startup.
func InputDevices() ([]string, error) {
	if err := initPortAudio(); err != nil {
		return nil, fmt.Errorf("audio: initialise portaudio: %w", err)
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audio: enumerate devices: %w", err)
	}
	var names []string
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			names = append(names, d.Name)
		}
	}
	return names, nil
}
