package segment

import (
	"testing"
	"time"

	"github.com/LiamSkop/Chavr/pkg/audio"
)

func frame() audio.Frame {
	data := make([]byte, 960) // 30 ms at 16 kHz, 16-bit mono
	for i := range data {
		data[i] = byte(i)
	}
	return audio.Frame{Data: data, SampleRate: 16000, Duration: 30 * time.Millisecond}
}

// feed pushes n frames with the given classification and returns the last
// emission, if any.
func feed(s *Segmenter, f audio.Frame, isSpeech bool, n int) (utterance []byte, ok bool) {
	for range n {
		utterance, ok = s.Process(f, isSpeech)
		if ok {
			return utterance, true
		}
	}
	return utterance, ok
}

func TestSegmenter_EmitsAfterSpeechThenSilence(t *testing.T) {
	s := New(Config{MinSpeechFrames: 3, MaxSilenceFrames: 2})

	if _, ok := feed(s, frame(), true, 5); ok {
		t.Fatal("speech frames alone should not emit")
	}
	if s.State() != StateAccumulating {
		t.Fatalf("state = %v, want accumulating", s.State())
	}

	if _, ok := s.Process(frame(), false); ok {
		t.Fatal("first silence frame should not close the utterance")
	}
	utt, ok := s.Process(frame(), false)
	if !ok {
		t.Fatal("second silence frame should close the utterance")
	}
	if len(utt) != 5*960 {
		t.Fatalf("utterance length = %d, want %d (5 speech frames, no silence)", len(utt), 5*960)
	}
	if s.State() != StateIdle {
		t.Fatalf("state after emit = %v, want idle", s.State())
	}
}

func TestSegmenter_NeverEmitsBelowMinSpeech(t *testing.T) {
	s := New(Config{MinSpeechFrames: 4, MaxSilenceFrames: 2})

	// Only 2 speech frames, then lots of silence.
	feed(s, frame(), true, 2)
	if _, ok := feed(s, frame(), false, 10); ok {
		t.Fatal("sub-threshold speech span must not be emitted")
	}
	if s.State() != StateIdle {
		t.Fatalf("false start should have been discarded, state = %v", s.State())
	}
}

func TestSegmenter_SilenceOnEmptyBufferIsNoop(t *testing.T) {
	s := New(Config{MinSpeechFrames: 3, MaxSilenceFrames: 2})
	if _, ok := feed(s, frame(), false, 20); ok {
		t.Fatal("silence with no buffered speech must never emit")
	}
}

func TestSegmenter_SpeechResetsSilenceRun(t *testing.T) {
	s := New(Config{MinSpeechFrames: 2, MaxSilenceFrames: 3})

	feed(s, frame(), true, 3)
	feed(s, frame(), false, 2) // one short of the threshold
	s.Process(frame(), true)   // speech resumes, run resets

	// Two more silence frames are again short of the threshold.
	if _, ok := feed(s, frame(), false, 2); ok {
		t.Fatal("silence run should have been reset by the speech frame")
	}
	if _, ok := s.Process(frame(), false); !ok {
		t.Fatal("third consecutive silence frame should emit")
	}
}

func TestSegmenter_ResetDiscardsUnflushedBuffer(t *testing.T) {
	s := New(Config{MinSpeechFrames: 2, MaxSilenceFrames: 2})

	// Abrupt stop mid-speech: buffered frames must never be delivered.
	feed(s, frame(), true, 8)
	s.Reset()
	if s.State() != StateIdle || s.BufferedFrames() != 0 {
		t.Fatalf("Reset should clear buffer, state = %v frames = %d", s.State(), s.BufferedFrames())
	}
	if _, ok := feed(s, frame(), false, 10); ok {
		t.Fatal("nothing should be emitted after Reset")
	}
}

func TestSegmenter_ConsecutiveUtterances(t *testing.T) {
	s := New(Config{MinSpeechFrames: 2, MaxSilenceFrames: 2})

	feed(s, frame(), true, 3)
	if _, ok := feed(s, frame(), false, 2); !ok {
		t.Fatal("first utterance should emit")
	}

	feed(s, frame(), true, 4)
	utt, ok := feed(s, frame(), false, 2)
	if !ok {
		t.Fatal("second utterance should emit")
	}
	if len(utt) != 4*960 {
		t.Fatalf("second utterance length = %d, want %d", len(utt), 4*960)
	}
}

func TestSegmenter_EndToEndDefaultThresholds(t *testing.T) {
	// 2.5 s of speech-shaped signal followed by 1.2 s of silence at 30 ms
	// frames yields exactly one utterance containing only the speech part.
	s := New(Config{
		MinSpeechFrames:  FramesFor(0.2, 30),
		MaxSilenceFrames: FramesFor(0.5, 30),
	})

	speechFrames := int(2.5 * 1000 / 30) // 83
	silenceFrames := int(1.2 * 1000 / 30)

	var emissions [][]byte
	for range speechFrames {
		if _, ok := s.Process(frame(), true); ok {
			t.Fatal("emission during speech")
		}
	}
	for range silenceFrames {
		if utt, ok := s.Process(frame(), false); ok {
			emissions = append(emissions, utt)
		}
	}

	if len(emissions) != 1 {
		t.Fatalf("emissions = %d, want exactly 1", len(emissions))
	}
	if len(emissions[0]) != speechFrames*960 {
		t.Fatalf("utterance length = %d, want %d (speech portion only)",
			len(emissions[0]), speechFrames*960)
	}
}

func TestFramesFor(t *testing.T) {
	tests := []struct {
		seconds float64
		frameMs int
		want    int
	}{
		{0.2, 30, 6},
		{0.5, 30, 16},
		{1.0, 20, 50},
		{0.01, 30, 1}, // never below one frame
	}
	for _, tt := range tests {
		if got := FramesFor(tt.seconds, tt.frameMs); got != tt.want {
			t.Errorf("FramesFor(%v, %d) = %d, want %d", tt.seconds, tt.frameMs, got, tt.want)
		}
	}
}
