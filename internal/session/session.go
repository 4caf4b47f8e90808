// Package session holds the in-memory record of one study session: the
// ordered transcript log, the AI interaction log, and lifecycle metadata.
//
// A Session is created when continuous listening starts and frozen when it
// ends. Appends are rejected after End; callers start a new session instead.
// All methods are safe for concurrent use, though by convention only the
// transcription worker appends transcripts and only the AI worker appends
// interactions.
package session

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrEnded is returned by append operations on a frozen session.
var ErrEnded = errors.New("session: already ended")

// summaryThreshold is the interaction count a session must exceed to be
// worth an end-of-session summary.
const summaryThreshold = 5

// Transcript is one recognized utterance.
type Transcript struct {
	Text      string    `json:"text"`
	Language  string    `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}

// Interaction is one AI question/answer exchange.
type Interaction struct {
	Question  string    `json:"question"`
	Answer    string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// StudyText records the source passage loaded for this session.
type StudyText struct {
	Reference string    `json:"reference"`
	Language  string    `json:"language"`
	Content   string    `json:"content,omitempty"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// Session is the mutable record of one study session.
type Session struct {
	mu           sync.Mutex
	id           string
	title        string
	startTime    time.Time
	endTime      time.Time
	duration     time.Duration
	studyText    *StudyText
	transcripts  []Transcript
	interactions []Interaction
	summary      string
}

// New creates a session with a generated id and the current start time.
// An empty title yields an automatic one derived from the timestamp.
func New(title string) *Session {
	now := time.Now()
	if title == "" {
		title = "Study Session - " + now.Format("2006-01-02 15:04")
	}
	return &Session{
		id:        uuid.NewString(),
		title:     title,
		startTime: now,
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Title returns the session title.
func (s *Session) Title() string { return s.title }

// StartTime returns when the session began.
func (s *Session) StartTime() time.Time { return s.startTime }

// Ended reports whether End has been called.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.endTime.IsZero()
}

// Duration returns the elapsed time for an active session, or the frozen
// duration once the session has ended.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endTime.IsZero() {
		return time.Since(s.startTime)
	}
	return s.duration
}

// End stamps the end time and freezes the session. Calling End again is a
// no-op; the duration does not change.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.endTime.IsZero() {
		return
	}
	s.endTime = time.Now()
	s.duration = s.endTime.Sub(s.startTime)
}

// AddTranscript appends a recognized utterance. Returns ErrEnded on a frozen
// session.
func (s *Session) AddTranscript(text, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.endTime.IsZero() {
		return ErrEnded
	}
	s.transcripts = append(s.transcripts, Transcript{
		Text:      text,
		Language:  language,
		Timestamp: time.Now(),
	})
	return nil
}

// AddInteraction appends an AI exchange. Returns ErrEnded on a frozen
// session.
func (s *Session) AddInteraction(question, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.endTime.IsZero() {
		return ErrEnded
	}
	s.interactions = append(s.interactions, Interaction{
		Question:  question,
		Answer:    answer,
		Timestamp: time.Now(),
	})
	return nil
}

// SetStudyText records the passage under study. Returns ErrEnded on a frozen
// session.
func (s *Session) SetStudyText(reference, language, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.endTime.IsZero() {
		return ErrEnded
	}
	s.studyText = &StudyText{
		Reference: reference,
		Language:  language,
		Content:   content,
		LoadedAt:  time.Now(),
	}
	return nil
}

// StudyText returns the studied passage, or nil if none was set.
func (s *Session) StudyText() *StudyText {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.studyText == nil {
		return nil
	}
	st := *s.studyText
	return &st
}

// SetSummary stores the AI-generated session summary. Unlike the append
// operations this is permitted after End, since the summary is produced
// during finalization.
func (s *Session) SetSummary(summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
}

// Summary returns the stored summary, empty if none was generated.
func (s *Session) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// SummaryEligible reports whether the session has enough interactions to be
// worth summarizing.
func (s *Session) SummaryEligible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.interactions) > summaryThreshold
}

// Transcripts returns a copy of the transcript log in order.
func (s *Session) Transcripts() []Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Transcript(nil), s.transcripts...)
}

// RecentTranscripts returns a copy of the last n transcript entries, oldest
// first.
func (s *Session) RecentTranscripts(n int) []Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || len(s.transcripts) == 0 {
		return nil
	}
	if n > len(s.transcripts) {
		n = len(s.transcripts)
	}
	tail := s.transcripts[len(s.transcripts)-n:]
	return append([]Transcript(nil), tail...)
}

// Interactions returns a copy of the interaction log in order.
func (s *Session) Interactions() []Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Interaction(nil), s.interactions...)
}

// TranscriptCount returns the number of recorded transcripts.
func (s *Session) TranscriptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transcripts)
}

// InteractionCount returns the number of recorded AI exchanges.
func (s *Session) InteractionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.interactions)
}

// LanguagesUsed returns the sorted set of language codes appearing in the
// transcript log.
func (s *Session) LanguagesUsed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	for _, t := range s.transcripts {
		if t.Language != "" {
			seen[t.Language] = true
		}
	}
	langs := make([]string, 0, len(seen))
	for lang := range seen {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// WordCount returns the total number of words across all transcripts.
func (s *Session) WordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, t := range s.transcripts {
		total += len(strings.Fields(t.Text))
	}
	return total
}

// SearchTranscripts returns transcripts whose text contains keyword,
// case-insensitively. An empty keyword matches nothing.
func (s *Session) SearchTranscripts(keyword string) []Transcript {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []Transcript
	for _, t := range s.transcripts {
		if strings.Contains(strings.ToLower(t.Text), keyword) {
			matches = append(matches, t)
		}
	}
	return matches
}
