// Package command detects the wake phrase inside finalized transcripts and
// extracts the question directed at the AI study partner.
//
// Matching is a pure prefix check over a fixed trigger vocabulary. Triggers
// are ordered longest first so that "hey chavr," wins over "chavr"; the
// ordering is part of the contract, not an optimization.
package command

import "strings"

// DefaultTriggers is the built-in wake-phrase vocabulary, longest first.
// "chaver" covers the common recognizer spelling of the Hebrew word.
var DefaultTriggers = []string{
	"hey chavr,",
	"hey chaver,",
	"chavr,",
	"chaver,",
	"hey chavr",
	"hey chaver",
	"chavr",
	"chaver",
}

// Router matches transcripts against a trigger vocabulary.
type Router struct {
	triggers []string
}

// NewRouter creates a Router. With no triggers given, DefaultTriggers is
// used. Custom triggers must already be lower-case and ordered longest
// first.
func NewRouter(triggers ...string) *Router {
	if len(triggers) == 0 {
		triggers = DefaultTriggers
	}
	return &Router{triggers: triggers}
}

// Match reports whether text starts with a wake phrase and, if so, returns
// the question payload with the trigger and any immediately following comma
// or whitespace stripped. An empty payload after stripping yields ok=false:
// the wake phrase alone is not a question.
func (r *Router) Match(text string) (question string, ok bool) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	for _, trigger := range r.triggers {
		if !strings.HasPrefix(lower, trigger) {
			continue
		}
		question = strings.TrimSpace(trimmed[len(trigger):])
		question = strings.TrimSpace(strings.TrimPrefix(question, ","))
		if question == "" {
			return "", false
		}
		return question, true
	}
	return "", false
}
