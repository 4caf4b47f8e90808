package command

import "testing"

func TestMatchTriggers(t *testing.T) {
	r := NewRouter()

	tests := []struct {
		text     string
		wantQ    string
		wantOK   bool
		scenario string
	}{
		{"Chavr, what does this verse mean?", "what does this verse mean?", true, "comma trigger"},
		{"Hey Chavr, explain Rashi here", "explain Rashi here", true, "greeting plus comma"},
		{"hey chaver what is a mishnah", "what is a mishnah", true, "greeting without comma"},
		{"chaver, who wrote this?", "who wrote this?", true, "alternate spelling"},
		{"CHAVR tell me more", "tell me more", true, "case insensitive"},
		{"  chavr,   spaced question  ", "spaced question", true, "surrounding whitespace"},
		{"Chavr , leading comma space", "leading comma space", true, "comma after space stripped"},
		{"I was talking to my chavruta", "", false, "trigger not at start"},
		{"regular transcript with no trigger", "", false, "no trigger"},
		{"Chavr", "", false, "bare wake word"},
		{"Chavr,", "", false, "wake word plus comma only"},
		{"Hey Chavr,   ", "", false, "wake phrase then whitespace"},
		{"", "", false, "empty text"},
	}
	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			q, ok := r.Match(tt.text)
			if ok != tt.wantOK || q != tt.wantQ {
				t.Errorf("Match(%q) = (%q, %v), want (%q, %v)", tt.text, q, ok, tt.wantQ, tt.wantOK)
			}
		})
	}
}

func TestMatchPrefersLongestTrigger(t *testing.T) {
	r := NewRouter()

	// "hey chavr," must win over the bare "chavr" trigger; otherwise the
	// payload would still contain part of the wake phrase.
	q, ok := r.Match("hey chavr, why seven days?")
	if !ok || q != "why seven days?" {
		t.Fatalf("Match = (%q, %v), want longest trigger stripped", q, ok)
	}
}

func TestMatchKeepsOriginalCasePayload(t *testing.T) {
	r := NewRouter()

	q, ok := r.Match("Chavr, What is Bereshit?")
	if !ok || q != "What is Bereshit?" {
		t.Fatalf("Match = (%q, %v), want payload casing preserved", q, ok)
	}
}

func TestCustomTriggers(t *testing.T) {
	r := NewRouter("rabbi,", "rabbi")

	if q, ok := r.Match("Rabbi, a question"); !ok || q != "a question" {
		t.Fatalf("Match = (%q, %v) with custom triggers", q, ok)
	}
	if _, ok := r.Match("chavr, should not match"); ok {
		t.Fatal("default trigger matched although custom vocabulary was set")
	}
}
