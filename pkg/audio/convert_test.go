package audio

import (
	"bytes"
	"math"
	"testing"

	"github.com/go-audio/wav"
)

func TestRMS_Silence(t *testing.T) {
	pcm := make([]byte, 640)
	if got := RMS(pcm); got != 0 {
		t.Fatalf("RMS(silence) = %v, want 0", got)
	}
}

func TestRMS_Empty(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Fatalf("RMS(nil) = %v, want 0", got)
	}
}

func TestRMS_FullScale(t *testing.T) {
	samples := make([]int16, 320)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 32767
		} else {
			samples[i] = -32767
		}
	}
	got := RMS(Int16ToPCM(samples))
	if math.Abs(got-1.0) > 0.01 {
		t.Fatalf("RMS(full scale) = %v, want ~1.0", got)
	}
}

func TestPCMToFloat32_RoundTrip(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32768}
	floats := PCMToFloat32(Int16ToPCM(samples))
	if len(floats) != len(samples) {
		t.Fatalf("len = %d, want %d", len(floats), len(samples))
	}
	for i, s := range samples {
		want := float32(s) / 32768.0
		if floats[i] != want {
			t.Errorf("sample %d = %v, want %v", i, floats[i], want)
		}
	}
}

func TestEncodeWAV_RoundTrip(t *testing.T) {
	samples := make([]int16, 320)
	for i := range samples {
		samples[i] = int16(i*7 - 1000)
	}
	pcm := Int16ToPCM(samples)

	data, err := EncodeWAV(pcm, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if !bytes.Equal(data[0:4], []byte("RIFF")) {
		t.Errorf("missing RIFF magic: %q", data[0:4])
	}
	if !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Errorf("missing WAVE magic: %q", data[8:12])
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		t.Fatal("encoded container rejected by decoder")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if buf.Format.SampleRate != 16000 || buf.Format.NumChannels != 1 {
		t.Fatalf("format = %+v, want 16000 Hz mono", buf.Format)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(samples))
	}
	for i, s := range samples {
		if int16(buf.Data[i]) != s {
			t.Fatalf("sample %d = %d, want %d", i, buf.Data[i], s)
		}
	}
}

func TestWAVFile_RoundTrip(t *testing.T) {
	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = int16(i % 128)
	}
	pcm := Int16ToPCM(samples)

	path := t.TempDir() + "/utterance.wav"
	if err := WriteWAVFile(path, pcm, 16000); err != nil {
		t.Fatalf("WriteWAVFile: %v", err)
	}

	got, rate, err := ReadWAVFile(path)
	if err != nil {
		t.Fatalf("ReadWAVFile: %v", err)
	}
	if rate != 16000 {
		t.Fatalf("sample rate = %d, want 16000", rate)
	}
	if !bytes.Equal(got, pcm) {
		t.Fatalf("pcm mismatch: got %d bytes, want %d", len(got), len(pcm))
	}
}

func TestFrameSize(t *testing.T) {
	tests := []struct {
		rate, ms, want int
	}{
		{16000, 30, 480},
		{16000, 20, 320},
		{8000, 30, 240},
	}
	for _, tt := range tests {
		if got := FrameSize(tt.rate, tt.ms); got != tt.want {
			t.Errorf("FrameSize(%d, %d) = %d, want %d", tt.rate, tt.ms, got, tt.want)
		}
	}
}
