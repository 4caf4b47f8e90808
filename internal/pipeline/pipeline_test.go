package pipeline

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LiamSkop/Chavr/internal/events"
	"github.com/LiamSkop/Chavr/pkg/asr"
	asrmock "github.com/LiamSkop/Chavr/pkg/asr/mock"
	"github.com/LiamSkop/Chavr/pkg/audio"
	audiomock "github.com/LiamSkop/Chavr/pkg/audio/mock"
	respmock "github.com/LiamSkop/Chavr/pkg/responder/mock"
)

const (
	testRate    = 16000
	testFrameMs = 30
)

// utteranceScript builds a frame sequence of speechSec seconds of loud audio
// followed by silenceSec seconds of silence.
func utteranceScript(speechSec, silenceSec float64) []audio.Frame {
	var frames []audio.Frame
	for i := 0; i < int(speechSec*1000)/testFrameMs; i++ {
		frames = append(frames, audiomock.SpeechFrame(testRate, testFrameMs))
	}
	for i := 0; i < int(silenceSec*1000)/testFrameMs; i++ {
		frames = append(frames, audiomock.SilenceFrame(testRate, testFrameMs))
	}
	return frames
}

func testConfig() Config {
	return Config{
		SampleRate: testRate,
		FrameMs:    testFrameMs,
		AI:         AIWorkerConfig{Retry: fastRetry()},
	}
}

func TestPipelineTranscribesOneUtterance(t *testing.T) {
	source := audiomock.NewSource(utteranceScript(2.5, 1.2)...)
	engine := &asrmock.Engine{
		Results: []asr.Result{{Text: "shalom everyone", Language: "en"}},
	}
	sink := events.NewChannelSink(32)
	p := New(source, engine, nil, sink, testConfig())

	if err := p.Start("morning study"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ev := waitEventKind(t, sink, events.KindSpeech)
	if ev.Text != "shalom everyone" {
		t.Fatalf("transcript = %q, want %q", ev.Text, "shalom everyone")
	}
	if ev.Language != "en" {
		t.Fatalf("language = %q, want %q", ev.Language, "en")
	}

	sess, err := p.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !sess.Ended() {
		t.Fatal("session not frozen after Stop")
	}
	if got := sess.TranscriptCount(); got != 1 {
		t.Fatalf("TranscriptCount = %d, want 1", got)
	}
	if got := len(engine.TranscribeCalls); got != 1 {
		t.Fatalf("engine calls = %d, want exactly one utterance", got)
	}
}

func TestPipelineRoutesVoiceCommand(t *testing.T) {
	source := audiomock.NewSource(utteranceScript(1.0, 1.0)...)
	engine := &asrmock.Engine{
		Results: []asr.Result{{Text: "Hey Chavr, what does this verse mean", Language: "en"}},
	}
	resp := &respmock.Responder{Answers: []string{"it means beginnings"}}
	sink := events.NewChannelSink(32)
	p := New(source, engine, resp, sink, testConfig())

	if err := p.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ev := waitEventKind(t, sink, events.KindAI)
	if ev.Text != "it means beginnings" {
		t.Fatalf("AI answer = %q, want %q", ev.Text, "it means beginnings")
	}

	sess, err := p.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(resp.AskCalls) != 1 {
		t.Fatalf("ask calls = %d, want 1", len(resp.AskCalls))
	}
	if got := resp.AskCalls[0].Text; got != "what does this verse mean" {
		t.Fatalf("routed question = %q, want trigger stripped", got)
	}
	if got := sess.InteractionCount(); got != 1 {
		t.Fatalf("InteractionCount = %d, want 1", got)
	}
}

func TestPipelineWithoutResponderReportsUnavailable(t *testing.T) {
	source := audiomock.NewSource(utteranceScript(1.0, 1.0)...)
	engine := &asrmock.Engine{
		Results: []asr.Result{{Text: "chavr, help me out", Language: "en"}},
	}
	sink := events.NewChannelSink(32)
	p := New(source, engine, nil, sink, testConfig())

	if err := p.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ev := waitEventKind(t, sink, events.KindError)
	if ev.Text != "AI features not available" {
		t.Fatalf("event text = %q", ev.Text)
	}
	if _, err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestPipelineDeviceErrorEndsCapture(t *testing.T) {
	deviceErr := errors.New("device unplugged")
	source := audiomock.NewSource(utteranceScript(1.0, 1.0)...)
	source.ReadErr = deviceErr
	engine := &asrmock.Engine{
		Results: []asr.Result{{Text: "still here", Language: "en"}},
	}
	sink := events.NewChannelSink(32)
	p := New(source, engine, nil, sink, testConfig())

	if err := p.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ev := waitEventKind(t, sink, events.KindError)
	if !strings.Contains(ev.Text, "device unplugged") {
		t.Fatalf("error event = %q, want device error", ev.Text)
	}

	// The session is still open; Stop drains whatever was transcribed and
	// freezes it.
	sess, err := p.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !sess.Ended() {
		t.Fatal("session not frozen after Stop")
	}
	if got := sess.TranscriptCount(); got != 1 {
		t.Fatalf("TranscriptCount = %d, want 1", got)
	}
}

func TestPipelineSummarizesQualifyingSession(t *testing.T) {
	source := audiomock.NewSource()
	engine := &asrmock.Engine{}
	resp := &respmock.Responder{Summary: "a fine session"}
	sink := events.NewChannelSink(32)
	p := New(source, engine, resp, sink, testConfig())

	if err := p.Start("summary test"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sess := p.Session()
	for i := 0; i < 6; i++ {
		if err := sess.AddInteraction("q", "a"); err != nil {
			t.Fatalf("AddInteraction: %v", err)
		}
	}
	if err := sess.AddTranscript("we discussed many things", "en"); err != nil {
		t.Fatalf("AddTranscript: %v", err)
	}

	if _, err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if got := sess.Summary(); got != "a fine session" {
		t.Fatalf("Summary = %q, want %q", got, "a fine session")
	}
	if len(resp.SummarizeCalls) != 1 {
		t.Fatalf("summarize calls = %d, want 1", len(resp.SummarizeCalls))
	}
	digest := resp.SummarizeCalls[0]
	if digest.Title != "summary test" {
		t.Fatalf("digest title = %q", digest.Title)
	}
	if len(digest.Transcripts) != 1 || digest.Transcripts[0].Text != "we discussed many things" {
		t.Fatalf("digest transcripts = %+v", digest.Transcripts)
	}

	ev := waitEventKind(t, sink, events.KindAI)
	if !strings.Contains(ev.Text, "a fine session") {
		t.Fatalf("summary event = %q", ev.Text)
	}
}

func TestPipelineSkipsSummaryBelowThreshold(t *testing.T) {
	source := audiomock.NewSource()
	engine := &asrmock.Engine{}
	resp := &respmock.Responder{Summary: "unused"}
	sink := events.NewChannelSink(32)
	p := New(source, engine, resp, sink, testConfig())

	if err := p.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sess, err := p.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(resp.SummarizeCalls) != 0 {
		t.Fatalf("summarize calls = %d, want 0", len(resp.SummarizeCalls))
	}
	if got := sess.Summary(); got != "" {
		t.Fatalf("Summary = %q, want empty", got)
	}
}

func TestPipelineSummaryFailureDoesNotFailStop(t *testing.T) {
	source := audiomock.NewSource()
	engine := &asrmock.Engine{}
	resp := &respmock.Responder{SummarizeErr: errors.New("quota exceeded")}
	sink := events.NewChannelSink(32)
	p := New(source, engine, resp, sink, testConfig())

	if err := p.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 6; i++ {
		if err := p.Session().AddInteraction("q", "a"); err != nil {
			t.Fatalf("AddInteraction: %v", err)
		}
	}
	sess, err := p.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := sess.Summary(); got != "" {
		t.Fatalf("Summary = %q, want empty after failure", got)
	}
	ev := waitEventKind(t, sink, events.KindError)
	if !strings.Contains(ev.Text, "quota exceeded") {
		t.Fatalf("error event = %q", ev.Text)
	}
}

func TestPipelineLifecycleErrors(t *testing.T) {
	source := audiomock.NewSource()
	engine := &asrmock.Engine{}
	sink := events.NewChannelSink(8)

	p := New(source, engine, nil, sink, testConfig())
	if _, err := p.Stop(); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Stop before Start: err = %v, want ErrNotStarted", err)
	}
	if err := p.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(""); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start: err = %v, want ErrAlreadyStarted", err)
	}

	sess, err := p.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	again, err := p.Stop()
	if err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if again != sess {
		t.Fatal("second Stop returned a different session")
	}
}

func TestPipelineDefaultTitle(t *testing.T) {
	source := audiomock.NewSource()
	engine := &asrmock.Engine{}
	sink := events.NewChannelSink(8)
	p := New(source, engine, nil, sink, testConfig())

	if err := p.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sess, err := p.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !strings.HasPrefix(sess.Title(), "Study Session - ") {
		t.Fatalf("default title = %q", sess.Title())
	}
}

func TestPipelineDumpsUtteranceAudio(t *testing.T) {
	dir := t.TempDir()
	source := audiomock.NewSource(utteranceScript(1.0, 1.0)...)
	engine := &asrmock.Engine{
		Results: []asr.Result{{Text: "dump me", Language: "en"}},
	}
	sink := events.NewChannelSink(32)
	cfg := testConfig()
	cfg.DumpDir = dir
	p := New(source, engine, nil, sink, cfg)

	if err := p.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitEventKind(t, sink, events.KindSpeech)
	if _, err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	dumps, err := filepath.Glob(filepath.Join(dir, "utterance_*.wav"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(dumps) != 1 {
		t.Fatalf("dumped files = %d, want 1", len(dumps))
	}

	pcm, rate, err := audio.ReadWAVFile(dumps[0])
	if err != nil {
		t.Fatalf("ReadWAVFile: %v", err)
	}
	if rate != testRate {
		t.Fatalf("sample rate = %d, want %d", rate, testRate)
	}
	if len(pcm) == 0 {
		t.Fatal("dumped utterance is empty")
	}
}
