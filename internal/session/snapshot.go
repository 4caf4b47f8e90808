package session

import "time"

// Snapshot is the serializable form of a Session, used by the storage layer.
// Field names follow the on-disk JSON schema.
type Snapshot struct {
	ID               string        `json:"session_id"`
	Title            string        `json:"title"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          *time.Time    `json:"end_time,omitempty"`
	DurationSeconds  float64       `json:"duration"`
	TextReference    string        `json:"text_reference,omitempty"`
	StudyText        *StudyText    `json:"sefaria_text,omitempty"`
	Transcripts      []Transcript  `json:"transcripts"`
	Interactions     []Interaction `json:"ai_interactions"`
	Summary          string        `json:"ai_summary,omitempty"`
	TranscriptCount  int           `json:"transcript_count"`
	InteractionCount int           `json:"ai_interaction_count"`
	LanguagesUsed    []string      `json:"languages_used"`
	TotalWords       int           `json:"total_words"`
}

// Snapshot captures the current state of the session for persistence.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:               s.id,
		Title:            s.title,
		StartTime:        s.startTime,
		Transcripts:      s.Transcripts(),
		Interactions:     s.Interactions(),
		Summary:          s.Summary(),
		LanguagesUsed:    s.LanguagesUsed(),
		TotalWords:       s.WordCount(),
		StudyText:        s.StudyText(),
		DurationSeconds:  s.Duration().Seconds(),
		TranscriptCount:  s.TranscriptCount(),
		InteractionCount: s.InteractionCount(),
	}
	if snap.StudyText != nil {
		snap.TextReference = snap.StudyText.Reference
	}

	s.mu.Lock()
	if !s.endTime.IsZero() {
		end := s.endTime
		snap.EndTime = &end
	}
	s.mu.Unlock()

	return snap
}

// Restore rebuilds a Session from a stored snapshot. A restored session that
// had ended stays frozen.
func Restore(snap Snapshot) *Session {
	s := &Session{
		id:           snap.ID,
		title:        snap.Title,
		startTime:    snap.StartTime,
		studyText:    snap.StudyText,
		transcripts:  append([]Transcript(nil), snap.Transcripts...),
		interactions: append([]Interaction(nil), snap.Interactions...),
		summary:      snap.Summary,
	}
	if snap.EndTime != nil {
		s.endTime = *snap.EndTime
		s.duration = time.Duration(snap.DurationSeconds * float64(time.Second))
	}
	return s
}
