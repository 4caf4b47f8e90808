package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// seekBuffer is an in-memory io.WriteSeeker. The wav encoder needs seeking
// to patch chunk sizes into the header after the data is written.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("audio: invalid seek whence %d", whence)
	}
	if pos < 0 {
		return 0, errors.New("audio: seek before start of buffer")
	}
	b.pos = int(pos)
	return pos, nil
}

// pcmIntBuffer converts raw little-endian 16-bit mono PCM into the sample
// buffer the wav encoder consumes.
func pcmIntBuffer(pcm []byte, sampleRate int) *gaudio.IntBuffer {
	n := len(pcm) / 2
	ints := make([]int, n)
	for i := range n {
		ints[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2])))
	}
	return &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           ints,
		SourceBitDepth: 16,
	}
}

// EncodeWAV wraps raw 16-bit mono PCM in an in-memory WAV container. Hosted
// transcription APIs require a file format rather than bare PCM.
func EncodeWAV(pcm []byte, sampleRate int) ([]byte, error) {
	var buf seekBuffer
	enc := wav.NewEncoder(&buf, sampleRate, 16, 1, 1)
	if err := enc.Write(pcmIntBuffer(pcm, sampleRate)); err != nil {
		return nil, fmt.Errorf("audio: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("audio: finalise wav: %w", err)
	}
	return buf.data, nil
}

// WriteWAVFile writes 16-bit mono PCM to path as a WAV file.
func WriteWAVFile(path string, pcm []byte, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %q: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if err := enc.Write(pcmIntBuffer(pcm, sampleRate)); err != nil {
		return fmt.Errorf("audio: write wav %q: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: finalise wav %q: %w", path, err)
	}
	return nil
}

// ReadWAVFile reads a 16-bit mono WAV file and returns its PCM payload and
// sample rate. Stereo or non-16-bit files are rejected rather than silently
// resampled.
func ReadWAVFile(path string) (pcm []byte, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: open %q: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("audio: %q is not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("audio: decode %q: %w", path, err)
	}
	if buf.Format.NumChannels != 1 {
		return nil, 0, errors.New("audio: only mono wav input is supported")
	}
	if dec.BitDepth != 16 {
		return nil, 0, fmt.Errorf("audio: unsupported bit depth %d (want 16)", dec.BitDepth)
	}

	samples := make([]int16, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = int16(s)
	}
	return Int16ToPCM(samples), buf.Format.SampleRate, nil
}
