// Package audio provides the PCM frame types and helpers shared by the
// capture, segmentation, and transcription stages of the Chavr pipeline.
//
// Audio flows through the pipeline as 16-bit signed little-endian mono PCM.
// Frames are the atomic unit of transport: captured from the microphone,
// classified by VAD, and accumulated into utterances by the segmenter.
package audio

import "time"

// Frame is a single fixed-duration chunk of captured audio. A Frame is
// immutable once produced: the capture loop hands each frame to exactly one
// consumer and never reuses the Data slice.
type Frame struct {
	// Data is raw 16-bit little-endian mono PCM.
	Data []byte

	// SampleRate in Hz (16000 for the Chavr pipeline).
	SampleRate int

	// Duration is the nominal length of the frame (frame size / sample rate).
	Duration time.Duration
}

// FrameSize returns the number of samples per frame for the given sample rate
// and frame duration in milliseconds.
func FrameSize(sampleRate, frameMs int) int {
	return sampleRate * frameMs / 1000
}

// Source pulls fixed-duration PCM frames from an audio input device.
//
// Implementations are not required to be safe for concurrent use; the capture
// loop owns its Source exclusively. Close releases the underlying device and
// must be called when the source is no longer needed.
type Source interface {
	// Start opens the input stream. ReadFrame may only be called between
	// Start and Stop.
	Start() error

	// ReadFrame blocks until a full frame has been captured and returns it.
	// The returned Frame's Data is owned by the caller. A device failure is
	// fatal to the capture loop; callers should stop reading after an error.
	ReadFrame() (Frame, error)

	// Stop stops the input stream without releasing the device, so the
	// source can be started again for a later listening session.
	Stop() error

	// Close releases the device. Calling Close more than once is safe.
	Close() error
}
