package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/LiamSkop/Chavr/pkg/asr"
	asrmock "github.com/LiamSkop/Chavr/pkg/asr/mock"
)

func TestASRFallbackUsesPrimary(t *testing.T) {
	primary := &asrmock.Engine{
		EngineName: "primary",
		Results:    []asr.Result{{Text: "hello", Language: "en"}},
	}
	secondary := &asrmock.Engine{EngineName: "secondary"}

	f := NewASRFallback(primary, FallbackConfig{})
	f.AddFallback(secondary)

	got, err := f.Transcribe(context.Background(), asr.Utterance{PCM: []byte{1, 2}})
	if err != nil {
		t.Fatalf("Transcribe returned %v", err)
	}
	if got.Text != "hello" {
		t.Fatalf("Text = %q, want %q", got.Text, "hello")
	}
	if len(secondary.TranscribeCalls) != 0 {
		t.Fatal("secondary engine was called although the primary succeeded")
	}
}

func TestASRFallbackFailsOver(t *testing.T) {
	primary := &asrmock.Engine{
		EngineName: "primary",
		Errs:       []error{asr.ErrUnavailable},
	}
	secondary := &asrmock.Engine{
		EngineName: "secondary",
		Results:    []asr.Result{{Text: "from fallback", Language: "en"}},
	}

	f := NewASRFallback(primary, FallbackConfig{})
	f.AddFallback(secondary)

	got, err := f.Transcribe(context.Background(), asr.Utterance{PCM: []byte{1, 2}})
	if err != nil {
		t.Fatalf("Transcribe returned %v", err)
	}
	if got.Text != "from fallback" {
		t.Fatalf("Text = %q, want %q", got.Text, "from fallback")
	}
}

func TestASRFallbackAllFail(t *testing.T) {
	primary := &asrmock.Engine{Errs: []error{asr.ErrUnavailable}}

	f := NewASRFallback(primary, FallbackConfig{})
	_, err := f.Transcribe(context.Background(), asr.Utterance{PCM: []byte{1, 2}})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("Transcribe = %v, want ErrAllFailed", err)
	}
}

func TestASRFallbackRejectsEmptyUtterance(t *testing.T) {
	primary := &asrmock.Engine{}
	f := NewASRFallback(primary, FallbackConfig{})

	_, err := f.Transcribe(context.Background(), asr.Utterance{})
	if !errors.Is(err, asr.ErrEmptyUtterance) {
		t.Fatalf("Transcribe = %v, want ErrEmptyUtterance", err)
	}
	if len(primary.TranscribeCalls) != 0 {
		t.Fatal("engine was called for an empty utterance")
	}
}

func TestASRFallbackCloseClosesAll(t *testing.T) {
	primary := &asrmock.Engine{EngineName: "primary"}
	secondary := &asrmock.Engine{EngineName: "secondary"}

	f := NewASRFallback(primary, FallbackConfig{})
	f.AddFallback(secondary)

	if err := f.Close(); err != nil {
		t.Fatalf("Close returned %v", err)
	}
	if !primary.Closed || !secondary.Closed {
		t.Fatal("Close did not reach every engine")
	}
}
