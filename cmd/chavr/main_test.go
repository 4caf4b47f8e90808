package main

import (
	"testing"

	"github.com/LiamSkop/Chavr/internal/config"
)

func TestBuildEngineChainFallsBackPastFailedPrimary(t *testing.T) {
	// Whisper without a model path cannot construct; the secondary must
	// take over instead of aborting startup.
	entries := []config.EngineEntry{
		{Name: config.EngineWhisper, ModelPath: ""},
		{Name: config.EngineMock},
	}

	engine, err := buildEngineChain(entries)
	if err != nil {
		t.Fatalf("buildEngineChain = %v, want fallback to secondary", err)
	}
	defer engine.Close()

	if engine.Name() != "mock" {
		t.Fatalf("engine = %q, want %q", engine.Name(), "mock")
	}
}

func TestBuildEngineChainKeepsSurvivorsInOrder(t *testing.T) {
	entries := []config.EngineEntry{
		{Name: config.EngineMock},
		{Name: config.EngineWhisper, ModelPath: ""},
		{Name: config.EngineMock},
	}

	engine, err := buildEngineChain(entries)
	if err != nil {
		t.Fatalf("buildEngineChain = %v, want chain of survivors", err)
	}
	defer engine.Close()

	// Two mock engines survive, so they are wired into a fallback chain.
	if engine.Name() != "fallback" {
		t.Fatalf("engine = %q, want %q", engine.Name(), "fallback")
	}
}

func TestBuildEngineChainFailsWhenNoEngineConstructs(t *testing.T) {
	entries := []config.EngineEntry{
		{Name: config.EngineWhisper, ModelPath: ""},
	}
	if _, err := buildEngineChain(entries); err == nil {
		t.Fatal("buildEngineChain should fail when no engine constructs")
	}

	if _, err := buildEngineChain(nil); err == nil {
		t.Fatal("buildEngineChain should fail with no engines configured")
	}
}

func TestBuildEngineUnknownName(t *testing.T) {
	if _, err := buildEngine(config.EngineEntry{Name: "kaldi"}); err == nil {
		t.Fatal("buildEngine should reject an unknown engine name")
	}
}
