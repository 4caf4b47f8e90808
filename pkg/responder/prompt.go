package responder

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every question in chavruta mode.
const SystemPrompt = `You are a Chavruta (study partner) for Torah and Jewish text study.

Your role is to be a balanced study partner:
- Sometimes ask Socratic questions to deepen understanding
- Sometimes explain concepts clearly and concisely
- Sometimes challenge assumptions to promote critical thinking
- Always reference specific parts of the text when relevant

Guidelines:
- Keep responses concise (2-3 paragraphs maximum)
- Use both Hebrew and English naturally when appropriate
- Be respectful of traditional interpretations while encouraging analysis
- Avoid giving definitive answers to complex questions - guide discovery instead

You are studying with a partner who values thoughtful dialogue over quick answers.`

const summaryInstruction = `Please analyze this study session and provide a concise summary.

Include:
1. Main topics or passages studied
2. Key questions raised
3. Notable insights or interpretations discussed
4. Suggested areas for further exploration

Keep the summary to 3-4 paragraphs maximum.`

const (
	// maxStudyTextChars bounds the studied passage inside a prompt.
	maxStudyTextChars = 2000

	// maxRecentLines bounds how many transcript lines go into an Ask
	// prompt.
	maxRecentLines = 5
)

// BuildAskPrompt assembles the full chavruta prompt for q: system framing,
// the studied passage (truncated), the tail of the recent conversation, and
// the question itself.
func BuildAskPrompt(q Question) string {
	var b strings.Builder
	b.WriteString(SystemPrompt)
	b.WriteString("\n\n")

	if st := q.StudyText; st != nil {
		b.WriteString("Current Text Being Studied:\n")
		fmt.Fprintf(&b, "Reference: %s\n", st.Reference)
		fmt.Fprintf(&b, "Language: %s\n", st.Language)
		fmt.Fprintf(&b, "Text:\n%s\n\n", truncateAtSentence(st.Content, maxStudyTextChars))
	}

	if len(q.Recent) > 0 {
		recent := q.Recent
		if len(recent) > maxRecentLines {
			recent = recent[len(recent)-maxRecentLines:]
		}
		b.WriteString("Recent Conversation:\n")
		for _, entry := range recent {
			fmt.Fprintf(&b, "[%s] %s\n", entry.Language, entry.Text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Student's Question: %s\n\n", q.Text)
	b.WriteString("Response:")
	return b.String()
}

// BuildSummaryPrompt assembles the session-summary prompt for s.
func BuildSummaryPrompt(s SessionDigest) string {
	var b strings.Builder
	b.WriteString(summaryInstruction)
	b.WriteString("\n\n---\n\n")

	fmt.Fprintf(&b, "Study Session: %s\n", s.Title)
	fmt.Fprintf(&b, "Duration: %.1f seconds\n", s.Duration.Seconds())
	fmt.Fprintf(&b, "Languages: %s\n\n", strings.Join(s.Languages, ", "))

	if s.TextReference != "" {
		fmt.Fprintf(&b, "Text Studied: %s\n\n", s.TextReference)
	}

	b.WriteString("Transcript:\n")
	for _, line := range s.Transcripts {
		fmt.Fprintf(&b, "[%s] %s\n", line.Timestamp.Format("15:04:05"), line.Text)
	}

	b.WriteString("\n---\n\nSummary:")
	return b.String()
}

// truncateAtSentence shortens text to at most maxChars, preferring to cut at
// the last sentence boundary when one falls within the final 30% of the
// window.
func truncateAtSentence(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	truncated := text[:maxChars]
	boundary := -1
	for _, punct := range []string{".", "?", "!"} {
		if i := strings.LastIndex(truncated, punct); i > boundary {
			boundary = i
		}
	}
	if boundary >= 0 && float64(boundary) > float64(maxChars)*0.7 {
		return truncated[:boundary+1]
	}
	return truncated + "..."
}
