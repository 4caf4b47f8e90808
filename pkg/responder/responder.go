// Package responder defines the Responder interface for the AI study
// partner.
//
// A Responder answers questions in "chavruta" mode, acting as a study
// partner for Torah and Jewish text study, and summarizes completed study
// sessions. Calls are stateless: all conversational context travels with the
// request, so the caller always controls what the model sees.
//
// Implementations must be safe for concurrent use.
package responder

import (
	"context"
	"errors"
	"time"
)

// ErrRateLimited indicates the backend rejected the request for quota or
// rate-limit reasons. Callers may retry after a backoff; all other errors
// should be treated as final.
var ErrRateLimited = errors.New("responder: rate limited")

// ErrAuth indicates the API key was rejected. Not retryable.
var ErrAuth = errors.New("responder: authentication failed")

// ErrEmptyQuestion is returned by Ask when the question carries no text.
var ErrEmptyQuestion = errors.New("responder: empty question")

// ErrEmptyResponse indicates the backend answered with no usable text.
var ErrEmptyResponse = errors.New("responder: empty response")

// ContextEntry is one recent transcript line supplied as conversation
// context.
type ContextEntry struct {
	// Text is the transcript text.
	Text string

	// Language is the language code of the transcript ("en", "he").
	Language string
}

// StudyText is the source text currently being studied, fetched from a text
// library such as Sefaria.
type StudyText struct {
	// Reference identifies the passage, e.g. "Genesis 1:1".
	Reference string

	// Content is the passage text. Long content is truncated before being
	// sent to the model.
	Content string

	// Language is the language code of Content.
	Language string
}

// Question is a single request to the study partner.
type Question struct {
	// Text is the student's question.
	Text string

	// StudyText is the passage under study, if any.
	StudyText *StudyText

	// Recent holds the most recent transcript lines, oldest first. Only
	// the tail of this slice is included in the prompt.
	Recent []ContextEntry
}

// TranscriptLine is one timestamped line of a session transcript.
type TranscriptLine struct {
	Timestamp time.Time
	Text      string
}

// SessionDigest carries everything a Responder needs to summarize a
// completed study session.
type SessionDigest struct {
	// Title is the session title.
	Title string

	// Duration is the total session length.
	Duration time.Duration

	// Languages lists the language codes spoken during the session.
	Languages []string

	// TextReference identifies the studied passage, empty if none.
	TextReference string

	// Transcripts is the full session transcript in order.
	Transcripts []TranscriptLine
}

// Responder is the abstraction over any AI study partner backend.
type Responder interface {
	// Name identifies the backend for logging, e.g. "gemini".
	Name() string

	// Ask answers the student's question in chavruta style. Returns
	// ErrEmptyQuestion when q.Text is blank and ErrRateLimited when the
	// backend throttled the request.
	Ask(ctx context.Context, q Question) (string, error)

	// Summarize produces a 3-4 paragraph summary of a completed study
	// session.
	Summarize(ctx context.Context, s SessionDigest) (string, error)

	// Close releases backend resources.
	Close() error
}
