package vad

import (
	"testing"
	"time"

	"github.com/LiamSkop/Chavr/pkg/audio"
)

func loudFrame() audio.Frame {
	samples := make([]int16, 480)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 8000
		} else {
			samples[i] = -8000
		}
	}
	return audio.Frame{Data: audio.Int16ToPCM(samples), SampleRate: 16000, Duration: 30 * time.Millisecond}
}

func quietFrame() audio.Frame {
	return audio.Frame{Data: make([]byte, 960), SampleRate: 16000, Duration: 30 * time.Millisecond}
}

func TestEnergy_RequiresConsecutiveSpeechFrames(t *testing.T) {
	e := NewEnergy(EnergyConfig{SpeechFrames: 3, SilenceFrames: 2})

	if e.IsSpeech(loudFrame()) {
		t.Fatal("one loud frame should not enter speech state")
	}
	if e.IsSpeech(loudFrame()) {
		t.Fatal("two loud frames should not enter speech state")
	}
	if !e.IsSpeech(loudFrame()) {
		t.Fatal("three loud frames should enter speech state")
	}
}

func TestEnergy_Hysteresis(t *testing.T) {
	e := NewEnergy(EnergyConfig{SpeechFrames: 1, SilenceFrames: 3})

	if !e.IsSpeech(loudFrame()) {
		t.Fatal("loud frame should enter speech state")
	}

	// Two quiet frames are not enough to leave speech.
	if !e.IsSpeech(quietFrame()) {
		t.Fatal("speech state should persist through first quiet frame")
	}
	if !e.IsSpeech(quietFrame()) {
		t.Fatal("speech state should persist through second quiet frame")
	}
	// Third quiet frame exits.
	if e.IsSpeech(quietFrame()) {
		t.Fatal("three quiet frames should exit speech state")
	}
}

func TestEnergy_InterruptedSilenceResetsCounter(t *testing.T) {
	e := NewEnergy(EnergyConfig{SpeechFrames: 1, SilenceFrames: 3})

	e.IsSpeech(loudFrame())
	e.IsSpeech(quietFrame())
	e.IsSpeech(quietFrame())
	// A loud frame in the middle resets the silence run.
	if !e.IsSpeech(loudFrame()) {
		t.Fatal("loud frame should keep speech state")
	}
	if !e.IsSpeech(quietFrame()) {
		t.Fatal("silence counter should have been reset by the loud frame")
	}
}

func TestEnergy_Reset(t *testing.T) {
	e := NewEnergy(EnergyConfig{SpeechFrames: 1, SilenceFrames: 1})
	e.IsSpeech(loudFrame())
	e.Reset()
	if e.inSpeech {
		t.Fatal("Reset should clear the speech state")
	}
}

func TestEnergy_DefaultsApplied(t *testing.T) {
	e := NewEnergy(EnergyConfig{})
	if e.cfg.SpeechThreshold != 0.015 || e.cfg.SilenceThreshold != 0.008 {
		t.Fatalf("default thresholds = %v/%v, want 0.015/0.008",
			e.cfg.SpeechThreshold, e.cfg.SilenceThreshold)
	}
	if e.cfg.SpeechFrames != 2 || e.cfg.SilenceFrames != 4 {
		t.Fatalf("default frame counts = %d/%d, want 2/4", e.cfg.SpeechFrames, e.cfg.SilenceFrames)
	}
}
