package responder

import (
	"strings"
	"testing"
	"time"
)

func TestBuildAskPromptBare(t *testing.T) {
	got := BuildAskPrompt(Question{Text: "What is a Chavruta?"})

	if !strings.HasPrefix(got, SystemPrompt) {
		t.Error("prompt does not start with the system prompt")
	}
	if !strings.Contains(got, "Student's Question: What is a Chavruta?") {
		t.Error("prompt is missing the question")
	}
	if !strings.HasSuffix(got, "Response:") {
		t.Errorf("prompt does not end with %q", "Response:")
	}
	if strings.Contains(got, "Current Text Being Studied") {
		t.Error("prompt mentions a study text when none was set")
	}
	if strings.Contains(got, "Recent Conversation") {
		t.Error("prompt mentions conversation context when none was set")
	}
}

func TestBuildAskPromptWithContext(t *testing.T) {
	q := Question{
		Text: "Why does the verse repeat itself?",
		StudyText: &StudyText{
			Reference: "Genesis 1:1",
			Content:   "In the beginning.",
			Language:  "en",
		},
		Recent: []ContextEntry{
			{Text: "one", Language: "en"},
			{Text: "two", Language: "he"},
		},
	}
	got := BuildAskPrompt(q)

	if !strings.Contains(got, "Reference: Genesis 1:1") {
		t.Error("prompt is missing the study text reference")
	}
	if !strings.Contains(got, "[he] two") {
		t.Error("prompt is missing the recent transcript lines")
	}
}

func TestBuildAskPromptLimitsRecentLines(t *testing.T) {
	q := Question{Text: "q"}
	for i := 0; i < 10; i++ {
		q.Recent = append(q.Recent, ContextEntry{Text: string(rune('a' + i)), Language: "en"})
	}
	got := BuildAskPrompt(q)

	if strings.Contains(got, "[en] a\n") {
		t.Error("prompt includes transcript lines beyond the most recent five")
	}
	for _, want := range []string{"[en] f", "[en] j"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt is missing recent line %q", want)
		}
	}
}

func TestBuildSummaryPrompt(t *testing.T) {
	ts := time.Date(2025, 3, 1, 14, 30, 5, 0, time.UTC)
	s := SessionDigest{
		Title:         "Morning Study",
		Duration:      90 * time.Second,
		Languages:     []string{"en", "he"},
		TextReference: "Genesis 1:1",
		Transcripts: []TranscriptLine{
			{Timestamp: ts, Text: "hello"},
		},
	}
	got := BuildSummaryPrompt(s)

	for _, want := range []string{
		"Study Session: Morning Study",
		"Duration: 90.0 seconds",
		"Languages: en, he",
		"Text Studied: Genesis 1:1",
		"[14:30:05] hello",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary prompt is missing %q", want)
		}
	}
	if !strings.HasSuffix(got, "Summary:") {
		t.Errorf("summary prompt does not end with %q", "Summary:")
	}
}

func TestTruncateAtSentence(t *testing.T) {
	short := "Short text."
	if got := truncateAtSentence(short, 100); got != short {
		t.Errorf("truncateAtSentence(short) = %q, want unchanged", got)
	}

	// Sentence boundary inside the final 30% of the window wins.
	text := strings.Repeat("x", 80) + ". And then some trailing words beyond the limit"
	got := truncateAtSentence(text, 100)
	if !strings.HasSuffix(got, ".") {
		t.Errorf("truncateAtSentence did not cut at the sentence boundary: %q", got)
	}
	if len(got) > 100 {
		t.Errorf("truncated length = %d, want at most 100", len(got))
	}

	// No usable boundary falls back to a hard cut with ellipsis.
	got = truncateAtSentence(strings.Repeat("y", 200), 100)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("hard truncation missing ellipsis: %q", got)
	}
}
