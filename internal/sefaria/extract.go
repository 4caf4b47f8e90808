package sefaria

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

var (
	htmlTagRE  = regexp.MustCompile(`<[^>]+>`)
	blankRunRE = regexp.MustCompile(`\n{3,}`)
)

func extractFromRaw(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return ExtractContent(v)
}

// ExtractContent flattens a decoded Sefaria API response into plain text.
// The API nests verse text arbitrarily deep under "text" (translation) and
// "he" (Hebrew) keys; both are collected, HTML stripped, and joined with
// paragraph breaks.
func ExtractContent(v any) string {
	var parts []string
	walkText(v, &parts)
	out := strings.Join(parts, "\n\n")
	return blankRunRE.ReplaceAllString(out, "\n\n")
}

func walkText(v any, parts *[]string) {
	switch val := v.(type) {
	case string:
		clean := strings.TrimSpace(htmlTagRE.ReplaceAllString(val, ""))
		if clean != "" {
			*parts = append(*parts, clean)
		}
	case map[string]any:
		// When the object carries dedicated text keys, everything else is
		// metadata (refs, section names, version info) and is skipped.
		text, hasText := val["text"]
		he, hasHe := val["he"]
		if hasText || hasHe {
			if hasText {
				walkText(text, parts)
			}
			if hasHe {
				walkText(he, parts)
			}
			return
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkText(val[k], parts)
		}
	case []any:
		for _, item := range val {
			walkText(item, parts)
		}
	}
}
