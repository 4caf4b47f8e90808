// Package storage persists finished study sessions as JSON files.
//
// Each session is written to <dir>/<start-time>_<id-prefix>.json so that a
// plain directory listing reads chronologically. Overwritten and deleted
// files are moved into a backups subdirectory instead of being destroyed.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/LiamSkop/Chavr/internal/session"
)

// ErrNotFound is returned when no stored session matches the given ID.
var ErrNotFound = errors.New("storage: session not found")

// backupDirName is the subdirectory holding overwritten and deleted files.
const backupDirName = "backups"

// filenameTime is the layout of the timestamp prefix in session filenames.
const filenameTime = "2006-01-02_15-04-05"

// FileStore reads and writes sessions under a single directory. Safe for
// concurrent use by independent callers; concurrent writes to the same
// session ID last-write-win.
type FileStore struct {
	dir       string
	backupDir string
}

// NewFileStore opens (creating if needed) the sessions directory and its
// backups subdirectory.
func NewFileStore(dir string) (*FileStore, error) {
	backupDir := filepath.Join(dir, backupDirName)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create sessions directory: %w", err)
	}
	return &FileStore{dir: dir, backupDir: backupDir}, nil
}

// Dir returns the sessions directory path.
func (s *FileStore) Dir() string { return s.dir }

// Filename returns the on-disk name a session is stored under.
func Filename(snap session.Snapshot) string {
	id := snap.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_%s.json", snap.StartTime.Format(filenameTime), id)
}

// Save writes the session to disk and returns the full file path. An
// existing file for the same session is copied into backups first.
func (s *FileStore) Save(sess *session.Session) (string, error) {
	snap := sess.Snapshot()
	path := filepath.Join(s.dir, Filename(snap))

	if _, err := os.Stat(path); err == nil {
		backup := filepath.Join(s.backupDir,
			time.Now().Format("20060102_150405")+"_"+filepath.Base(path))
		if err := copyFile(path, backup); err != nil {
			slog.Warn("could not back up session file", "path", path, "error", err)
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write session: %w", err)
	}
	return path, nil
}

// Load finds a session by its full ID, scanning every stored file.
func (s *FileStore) Load(sessionID string) (*session.Session, error) {
	_, snap, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Restore(snap), nil
}

// LoadFile loads a session from a specific filename inside the store.
func (s *FileStore) LoadFile(filename string) (*session.Session, error) {
	snap, err := readSnapshot(filepath.Join(s.dir, filepath.Base(filename)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return session.Restore(snap), nil
}

// Metadata describes one stored session file.
type Metadata struct {
	session.Snapshot

	// Filename is the file's base name inside the store.
	Filename string `json:"filename"`

	// FileSize is the file's size in bytes.
	FileSize int64 `json:"file_size"`
}

// List returns stored sessions newest first. limit <= 0 returns all.
// Corrupted files are skipped, not reported.
func (s *FileStore) List(limit int) ([]Metadata, error) {
	names, err := s.sessionFiles()
	if err != nil {
		return nil, err
	}
	// Filenames start with the session timestamp, so reverse-lexical order
	// is newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var out []Metadata
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		snap, err := readSnapshot(path)
		if err != nil {
			slog.Warn("skipping unreadable session file", "file", name, "error", err)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		out = append(out, Metadata{Snapshot: snap, Filename: name, FileSize: info.Size()})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Delete moves the session's file into backups. Returns ErrNotFound when no
// stored session has the given ID.
func (s *FileStore) Delete(sessionID string) error {
	path, _, err := s.find(sessionID)
	if err != nil {
		return err
	}
	backup := filepath.Join(s.backupDir,
		"deleted_"+time.Now().Format("20060102_150405")+"_"+filepath.Base(path))
	if err := os.Rename(path, backup); err != nil {
		return fmt.Errorf("storage: move session to backup: %w", err)
	}
	return nil
}

// SearchOpts filters Search. Zero-value fields are not applied.
type SearchOpts struct {
	// Keyword matches transcript text case-insensitively. Empty matches
	// every session.
	Keyword string

	// After and Before bound the session start time.
	After  time.Time
	Before time.Time

	// MinDuration and MaxDuration bound the session length.
	MinDuration time.Duration
	MaxDuration time.Duration

	// Languages keeps sessions that used at least one of these languages.
	Languages []string
}

// SearchResult is one matching session with its matching transcript lines.
type SearchResult struct {
	Meta    Metadata
	Matches []session.Transcript
}

// Search scans all stored sessions and returns the matches sorted by match
// count, then by start time, newest first.
func (s *FileStore) Search(opts SearchOpts) ([]SearchResult, error) {
	metas, err := s.List(0)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, meta := range metas {
		if !opts.After.IsZero() && meta.StartTime.Before(opts.After) {
			continue
		}
		if !opts.Before.IsZero() && meta.StartTime.After(opts.Before) {
			continue
		}
		dur := time.Duration(meta.DurationSeconds * float64(time.Second))
		if opts.MinDuration > 0 && dur < opts.MinDuration {
			continue
		}
		if opts.MaxDuration > 0 && dur > opts.MaxDuration {
			continue
		}
		if len(opts.Languages) > 0 && !usesAny(meta.LanguagesUsed, opts.Languages) {
			continue
		}

		var matches []session.Transcript
		if kw := strings.TrimSpace(opts.Keyword); kw != "" {
			matches = session.Restore(meta.Snapshot).SearchTranscripts(kw)
			if len(matches) == 0 {
				continue
			}
		}
		results = append(results, SearchResult{Meta: meta, Matches: matches})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if len(results[i].Matches) != len(results[j].Matches) {
			return len(results[i].Matches) > len(results[j].Matches)
		}
		return results[i].Meta.StartTime.After(results[j].Meta.StartTime)
	})
	return results, nil
}

// Stats aggregates counts over every stored session.
type Stats struct {
	TotalSessions    int
	TotalTranscripts int
	TotalWords       int
	TotalDuration    time.Duration
	Languages        []string
	Earliest         time.Time
	Latest           time.Time
}

// Stats computes aggregate statistics across the store.
func (s *FileStore) Stats() (Stats, error) {
	metas, err := s.List(0)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	langs := map[string]bool{}
	for _, meta := range metas {
		st.TotalSessions++
		st.TotalTranscripts += meta.TranscriptCount
		st.TotalWords += meta.TotalWords
		st.TotalDuration += time.Duration(meta.DurationSeconds * float64(time.Second))
		for _, l := range meta.LanguagesUsed {
			langs[l] = true
		}
		if st.Earliest.IsZero() || meta.StartTime.Before(st.Earliest) {
			st.Earliest = meta.StartTime
		}
		if meta.StartTime.After(st.Latest) {
			st.Latest = meta.StartTime
		}
	}
	for l := range langs {
		st.Languages = append(st.Languages, l)
	}
	sort.Strings(st.Languages)
	return st, nil
}

// CleanupBackups deletes backup files older than maxAge and returns how many
// were removed.
func (s *FileStore) CleanupBackups(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return 0, fmt.Errorf("storage: read backups: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.backupDir, e.Name())); err != nil {
				slog.Warn("could not remove old backup", "file", e.Name(), "error", err)
				continue
			}
			deleted++
		}
	}
	return deleted, nil
}

// find locates the file holding the session with the given ID.
func (s *FileStore) find(sessionID string) (string, session.Snapshot, error) {
	names, err := s.sessionFiles()
	if err != nil {
		return "", session.Snapshot{}, err
	}
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		snap, err := readSnapshot(path)
		if err != nil {
			continue
		}
		if snap.ID == sessionID {
			return path, snap, nil
		}
	}
	return "", session.Snapshot{}, ErrNotFound
}

// sessionFiles lists the JSON files directly inside the store, excluding the
// backups subdirectory.
func (s *FileStore) sessionFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: read sessions directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func readSnapshot(path string) (session.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("storage: read session file: %w", err)
	}
	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return session.Snapshot{}, fmt.Errorf("storage: decode session file: %w", err)
	}
	return snap, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func usesAny(have, want []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}
