// Package catalog holds the built-in library of Jewish study texts and the
// fuzzy search over it.
//
// Scoring combines exact, prefix, and substring matches with a Jaro-Winkler
// similarity bonus so that misheard or misspelled queries ("bereshit",
// "pirkay avot") still land on the right text. User access history feeds
// back into the ranking: texts the user studies often rank higher.
package catalog

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/antzucaro/matchr"
)

// Entry is one text in the catalog.
type Entry struct {
	Name             string
	HebrewName       string
	Category         string
	Subcategory      string
	Popularity       int // 1 to 5
	Difficulty       string
	Tags             []string
	SampleReferences []string
	Description      string
}

// Match is one search result with its relevance score.
type Match struct {
	Entry Entry
	Score float64
}

// fuzzyThreshold is the minimum Jaro-Winkler similarity that counts as a
// fuzzy name match.
const fuzzyThreshold = 0.85

// maxAccessHistory bounds the recent-access list.
const maxAccessHistory = 50

// minQueryLen is the shortest query that triggers a real search; anything
// shorter falls back to the popular list.
const minQueryLen = 2

type access struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type accessHistory struct {
	Accesses   []access       `json:"accesses"`
	Popularity map[string]int `json:"popularity"`
}

// Catalog is the searchable text library. Safe for concurrent use.
type Catalog struct {
	entries []Entry

	mu          sync.Mutex
	historyPath string
	history     accessHistory
}

// New creates a Catalog backed by the built-in text database. historyPath
// points at the JSON file recording the user's text accesses; an empty path
// disables persistence.
func New(historyPath string) *Catalog {
	c := &Catalog{
		entries:     builtinTexts(),
		historyPath: historyPath,
		history:     accessHistory{Popularity: map[string]int{}},
	}
	c.loadHistory()
	return c
}

// Entries returns a copy of the full catalog.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// RecordAccess notes that the user opened a text, updating the recent list
// and the user popularity counts.
func (c *Catalog) RecordAccess(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history.Accesses = append(c.history.Accesses, access{Text: name, Timestamp: time.Now()})
	if n := len(c.history.Accesses); n > maxAccessHistory {
		c.history.Accesses = c.history.Accesses[n-maxAccessHistory:]
	}
	c.history.Popularity[name]++
	c.saveHistory()
}

// Search ranks catalog entries against the query. Queries shorter than two
// characters return the popular list instead.
func (c *Catalog) Search(query string, limit int) []Match {
	query = strings.TrimSpace(strings.ToLower(query))
	if len(query) < minQueryLen {
		return c.Popular(limit)
	}

	c.mu.Lock()
	userPop := make(map[string]int, len(c.history.Popularity))
	for k, v := range c.history.Popularity {
		userPop[k] = v
	}
	c.mu.Unlock()

	var results []Match
	for _, e := range c.entries {
		if score := scoreEntry(query, e, userPop[e.Name]); score > 0 {
			results = append(results, Match{Entry: e, Score: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// scoreEntry rates one entry against a lowercased query.
func scoreEntry(query string, e Entry, userAccesses int) float64 {
	name := strings.ToLower(e.Name)
	hebrew := strings.ToLower(e.HebrewName)

	var score float64
	if query == name {
		score += 100
	}
	if query == hebrew {
		score += 100
	}
	if strings.Contains(hebrew, query) || strings.Contains(query, hebrew) {
		score += 90
	}
	if strings.HasPrefix(name, query) {
		score += 50
	}
	if strings.HasPrefix(hebrew, query) {
		score += 50
	}
	if strings.Contains(name, query) {
		score += 30
	}
	if strings.Contains(hebrew, query) {
		score += 30
	}
	for _, tag := range e.Tags {
		t := strings.ToLower(tag)
		if strings.Contains(t, query) || strings.Contains(query, t) {
			score += 20
		}
	}
	if strings.Contains(strings.ToLower(e.Description), query) {
		score += 10
	}

	// Fuzzy name match catches transcription slips that exact matching
	// misses.
	sim := matchr.JaroWinkler(query, name, false)
	if s := matchr.JaroWinkler(query, hebrew, false); s > sim {
		sim = s
	}
	if sim >= fuzzyThreshold {
		score += sim * 40
	}

	if score == 0 {
		return 0
	}

	score += float64(e.Popularity) * 5
	score += float64(userAccesses) * 10
	return score
}

// Popular returns the catalog ranked by built-in popularity.
func (c *Catalog) Popular(limit int) []Match {
	results := make([]Match, 0, len(c.entries))
	for _, e := range c.entries {
		results = append(results, Match{Entry: e, Score: float64(e.Popularity)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Recent returns the most recently accessed texts, newest first, one entry
// per text.
func (c *Catalog) Recent(limit int) []Entry {
	c.mu.Lock()
	accesses := append([]access(nil), c.history.Accesses...)
	c.mu.Unlock()

	seen := map[string]bool{}
	var out []Entry
	for i := len(accesses) - 1; i >= 0; i-- {
		name := accesses[i].Text
		if seen[name] {
			continue
		}
		seen[name] = true
		if e, ok := c.ByName(name); ok {
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// ByCategory groups the catalog by category.
func (c *Catalog) ByCategory() map[string][]Entry {
	out := map[string][]Entry{}
	for _, e := range c.entries {
		out[e.Category] = append(out[e.Category], e)
	}
	return out
}

// ByName finds an entry by its English or Hebrew name, falling back to a
// case-insensitive substring match.
func (c *Catalog) ByName(name string) (Entry, bool) {
	for _, e := range c.entries {
		if e.Name == name || e.HebrewName == name {
			return e, true
		}
	}
	lower := strings.ToLower(name)
	for _, e := range c.entries {
		if strings.Contains(strings.ToLower(e.Name), lower) ||
			strings.Contains(strings.ToLower(e.HebrewName), lower) {
			return e, true
		}
	}
	return Entry{}, false
}

// Reference resolves a catalog name to a concrete citation the Sefaria API
// accepts, preferring the entry's first sample reference.
func (c *Catalog) Reference(name string) (string, bool) {
	e, ok := c.ByName(name)
	if !ok {
		return "", false
	}
	if len(e.SampleReferences) > 0 {
		return e.SampleReferences[0], true
	}
	return e.Name, true
}

func (c *Catalog) loadHistory() {
	if c.historyPath == "" {
		return
	}
	data, err := os.ReadFile(c.historyPath)
	if err != nil {
		return
	}
	var h accessHistory
	if err := json.Unmarshal(data, &h); err != nil {
		slog.Warn("could not parse text access history", "path", c.historyPath, "error", err)
		return
	}
	if h.Popularity == nil {
		h.Popularity = map[string]int{}
	}
	c.history = h
}

// saveHistory writes the access history. Called with c.mu held.
func (c *Catalog) saveHistory() {
	if c.historyPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.historyPath), 0o755); err != nil {
		slog.Warn("could not create history directory", "error", err)
		return
	}
	data, err := json.MarshalIndent(c.history, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(c.historyPath, data, 0o644); err != nil {
		slog.Warn("could not save text access history", "path", c.historyPath, "error", err)
	}
}
