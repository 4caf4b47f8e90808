package transcribe

import "strings"

// Default post-processing thresholds.
const (
	// DefaultNoiseThreshold is the normalized RMS level below which audio
	// is considered near-silence.
	DefaultNoiseThreshold = 0.01

	// DefaultMinTextLength is the minimum transcript length (in bytes)
	// accepted from low-energy audio.
	DefaultMinTextLength = 3
)

// defaultHallucinations are filler words the recognizer tends to invent on
// near-silent audio.
var defaultHallucinations = map[string]bool{
	"you":  true,
	"yeah": true,
	"uh":   true,
	"um":   true,
	"ah":   true,
}

// Filter suppresses recognizer output that is more likely noise than
// speech. The zero value is not usable; call NewFilter.
type Filter struct {
	noiseThreshold float64
	minTextLength  int
	hallucinations map[string]bool
}

// NewFilter creates a Filter. Zero-value parameters are replaced with the
// package defaults.
func NewFilter(noiseThreshold float64, minTextLength int) *Filter {
	if noiseThreshold <= 0 {
		noiseThreshold = DefaultNoiseThreshold
	}
	if minTextLength <= 0 {
		minTextLength = DefaultMinTextLength
	}
	return &Filter{
		noiseThreshold: noiseThreshold,
		minTextLength:  minTextLength,
		hallucinations: defaultHallucinations,
	}
}

// Apply decides whether text survives post-processing given the normalized
// RMS of the audio it came from. Returns the text and true to keep it, or
// "" and false to drop it.
//
// Two suppression rules: very short text is dropped unless the audio had
// clear energy, and known filler words are dropped when the audio was near
// silence.
func (f *Filter) Apply(text string, rms float64) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	if len(text) < f.minTextLength && rms < f.noiseThreshold*2 {
		return "", false
	}

	if rms < f.noiseThreshold && f.hallucinations[strings.ToLower(text)] {
		return "", false
	}

	return text, true
}
