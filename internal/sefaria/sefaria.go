// Package sefaria fetches study texts from the Sefaria library API and
// caches them on disk.
//
// Every successful fetch is written to the cache directory so that a text,
// once loaded, stays available offline. The last studied reference is
// remembered across runs.
//
// Typical usage:
//
//	c, err := sefaria.NewClient("sefaria_cache",
//	    sefaria.WithTimeout(10*time.Second),
//	    sefaria.WithCatalog(cat),
//	)
//	text, err := c.FetchText(ctx, "Genesis 1:1", "en")
package sefaria

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"log/slog"

	"github.com/LiamSkop/Chavr/internal/catalog"
)

// DefaultBaseURL is the public Sefaria texts API.
const DefaultBaseURL = "https://www.sefaria.org/api/texts"

const (
	defaultTimeout   = 10 * time.Second
	userAgent        = "Chavr/1.0"
	lastTextFilename = "last_text.json"
)

// Errors returned by the client.
var (
	ErrEmptyReference = errors.New("sefaria: empty text reference")
	ErrNotFound       = errors.New("sefaria: text not found")
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 10 s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCatalog attaches a text catalog; successful fetches are recorded as
// accesses so the catalog's ranking learns the user's habits.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *Client) { c.catalog = cat }
}

// Client fetches and caches Sefaria texts. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cacheDir   string
	catalog    *catalog.Catalog
}

// Text is a fetched study text.
type Text struct {
	// Reference is the citation as requested, e.g. "Genesis 1:1".
	Reference string

	// Language is "en" or "he".
	Language string

	// Content is the extracted plain text, HTML stripped.
	Content string

	// FromCache reports whether the text came from the local cache.
	FromCache bool
}

// NewClient creates a Client caching into cacheDir, which is created if
// missing.
func NewClient(cacheDir string, opts ...Option) (*Client, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("sefaria: create cache directory: %w", err)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		cacheDir:   cacheDir,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// cacheEnvelope is the on-disk format of one cached text.
type cacheEnvelope struct {
	Reference string          `json:"reference"`
	Language  string          `json:"language"`
	CachedAt  time.Time       `json:"cached_at"`
	TextData  json.RawMessage `json:"text_data"`
}

// FetchText returns the text for a reference, from cache when available,
// otherwise from the API. Successful API fetches are cached.
func (c *Client) FetchText(ctx context.Context, reference, language string) (*Text, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrEmptyReference
	}
	if language == "" {
		language = "en"
	}

	if env, err := c.readCache(reference, language); err == nil {
		return &Text{
			Reference: reference,
			Language:  language,
			Content:   extractFromRaw(env.TextData),
			FromCache: true,
		}, nil
	}

	raw, err := c.fetchFromAPI(ctx, reference, language)
	if err != nil {
		return nil, err
	}

	c.writeCache(reference, language, raw)
	if c.catalog != nil {
		c.catalog.RecordAccess(reference)
	}
	return &Text{
		Reference: reference,
		Language:  language,
		Content:   extractFromRaw(raw),
	}, nil
}

// fetchFromAPI performs the HTTP request and returns the raw response body.
func (c *Client) fetchFromAPI(ctx context.Context, reference, language string) (json.RawMessage, error) {
	// Sefaria citations use dots instead of colons in URLs.
	ref := url.PathEscape(strings.ReplaceAll(reference, ":", "."))
	reqURL := fmt.Sprintf("%s/%s?lang=%s", c.baseURL, ref, url.QueryEscape(language))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("sefaria: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sefaria: fetch %q: %w", reference, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("sefaria: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, reference)
		}
		return nil, fmt.Errorf("sefaria: API error %d for %q", resp.StatusCode, reference)
	}

	// The API reports unknown references inside a 200 response.
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("sefaria: decode response: %w", err)
	}
	if probe.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, probe.Error)
	}
	return json.RawMessage(body), nil
}

// nonWordRE and separatorRE turn references into filesystem-safe names.
var (
	nonWordRE   = regexp.MustCompile(`[^a-zA-Z0-9_\s-]`)
	separatorRE = regexp.MustCompile(`[-\s]+`)
)

// sanitizeReference converts "Genesis 1:1" into "genesis_11".
func sanitizeReference(ref string) string {
	s := nonWordRE.ReplaceAllString(ref, "")
	s = separatorRE.ReplaceAllString(s, "_")
	return strings.ToLower(s)
}

func (c *Client) cachePath(reference, language string) string {
	return filepath.Join(c.cacheDir, sanitizeReference(reference)+"_"+language+".json")
}

func (c *Client) readCache(reference, language string) (*cacheEnvelope, error) {
	data, err := os.ReadFile(c.cachePath(reference, language))
	if err != nil {
		return nil, err
	}
	var env cacheEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *Client) writeCache(reference, language string, raw json.RawMessage) {
	env := cacheEnvelope{
		Reference: reference,
		Language:  language,
		CachedAt:  time.Now(),
		TextData:  raw,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(c.cachePath(reference, language), data, 0o644); err != nil {
		slog.Warn("could not cache sefaria text", "reference", reference, "error", err)
	}
}

// lastText is the persisted pointer to the most recently studied text.
type lastText struct {
	Reference string    `json:"reference"`
	Language  string    `json:"language"`
	SavedAt   time.Time `json:"saved_at"`
}

// SaveLastText remembers the most recently studied reference.
func (c *Client) SaveLastText(reference, language string) error {
	data, err := json.MarshalIndent(lastText{
		Reference: reference,
		Language:  language,
		SavedAt:   time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("sefaria: encode last text: %w", err)
	}
	path := filepath.Join(c.cacheDir, lastTextFilename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("sefaria: save last text: %w", err)
	}
	return nil
}

// LoadLastText returns the most recently studied reference, or ok = false
// when none was saved.
func (c *Client) LoadLastText() (reference, language string, ok bool) {
	data, err := os.ReadFile(filepath.Join(c.cacheDir, lastTextFilename))
	if err != nil {
		return "", "", false
	}
	var lt lastText
	if err := json.Unmarshal(data, &lt); err != nil || lt.Reference == "" {
		return "", "", false
	}
	return lt.Reference, lt.Language, true
}

// CachedText describes one locally cached text.
type CachedText struct {
	Reference string
	Language  string
	CachedAt  time.Time
}

// CachedTexts lists every cached text, newest first.
func (c *Client) CachedTexts() []CachedText {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return nil
	}
	var out []CachedText
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == lastTextFilename || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.cacheDir, name))
		if err != nil {
			continue
		}
		var env cacheEnvelope
		if err := json.Unmarshal(data, &env); err != nil || env.Reference == "" {
			continue
		}
		out = append(out, CachedText{
			Reference: env.Reference,
			Language:  env.Language,
			CachedAt:  env.CachedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CachedAt.After(out[j].CachedAt) })
	return out
}

// ClearCache deletes every cached text, keeping the last-text pointer.
// Returns how many files were removed.
func (c *Client) ClearCache() (int, error) {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return 0, fmt.Errorf("sefaria: read cache directory: %w", err)
	}
	deleted := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == lastTextFilename || !strings.HasSuffix(name, ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(c.cacheDir, name)); err != nil {
			continue
		}
		deleted++
	}
	return deleted, nil
}
