package narrative

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MissingSummary is substituted when a chapter has no summary.
const MissingSummary = "정보 없음"

// LookupStore is the flat table of precomputed summaries keyed by "global",
// "chapter_{id}" and "event_{id}". It is read-only after loading.
type LookupStore struct {
	entries map[string]string
}

// NewLookupStore wraps an existing table.
func NewLookupStore(entries map[string]string) *LookupStore {
	if entries == nil {
		entries = map[string]string{}
	}
	return &LookupStore{entries: entries}
}

// LoadLookupStore reads the lookup table from a JSON object file.
// A missing file yields an empty store.
func LoadLookupStore(path string, logger *slog.Logger) (*LookupStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("lookup store not found, summaries disabled", "path", path)
			return NewLookupStore(nil), nil
		}
		return nil, fmt.Errorf("failed to read lookup store: %w", err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse lookup store %s: %w", path, err)
	}
	return NewLookupStore(entries), nil
}

// Get returns the value for key or def if absent.
func (s *LookupStore) Get(key, def string) string {
	if v, ok := s.entries[key]; ok {
		return v
	}
	return def
}

// Chapter returns the chapter summary or "" if absent.
func (s *LookupStore) Chapter(id int) string {
	return s.Get(ChapterKey(id), "")
}

// Event returns the event summary or "" if absent.
func (s *LookupStore) Event(id string) string {
	if id == "" {
		return ""
	}
	return s.Get(EventKey(id), "")
}

// Global returns the whole-story synopsis or "" if absent.
func (s *LookupStore) Global() string {
	return s.Get("global", "")
}

// Len reports the number of entries.
func (s *LookupStore) Len() int {
	return len(s.entries)
}

// Save writes the table as indented JSON.
func (s *LookupStore) Save(path string) error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode lookup store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create lookup store dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write lookup store: %w", err)
	}
	return nil
}

// ChapterKey is the lookup key of a chapter summary.
func ChapterKey(id int) string { return "chapter_" + strconv.Itoa(id) }

// EventKey is the lookup key of an event summary.
func EventKey(id string) string { return "event_" + id }

// ChapterEvents maps a chapter id to the event whose episode range contains it.
type ChapterEvents map[int]string

var (
	rangePattern  = regexp.MustCompile(`(\d+)\s*~\s*(\d+)`)
	numberPattern = regexp.MustCompile(`\d+`)
)

// ParseEpisodeRange expands "1~5" into [1 2 3 4 5] and "7화" into [7].
// Unparsable input yields nil.
func ParseEpisodeRange(s string) []int {
	if m := rangePattern.FindStringSubmatch(s); m != nil {
		start, err1 := strconv.Atoi(m[1])
		end, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil || end < start {
			return nil
		}
		out := make([]int, 0, end-start+1)
		for c := start; c <= end; c++ {
			out = append(out, c)
		}
		return out
	}
	if m := numberPattern.FindString(s); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil {
			return nil
		}
		return []int{n}
	}
	return nil
}

type eventFile struct {
	Content      string          `json:"content"`
	EpisodeRange json.RawMessage `json:"episode_range"`
}

type chapterSummaryFile struct {
	Episode json.RawMessage `json:"episode"`
	Summary string          `json:"summary"`
}

// rawString accepts either a JSON string or a JSON number.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// eventID is the file name without extension.
func eventID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func sortedGlob(pattern string) ([]string, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// LoadChapterEvents builds the chapter to event map from eventsDir/*.json.
// Later files win when ranges overlap. A missing directory yields an empty map.
func LoadChapterEvents(eventsDir string, logger *slog.Logger) (ChapterEvents, error) {
	files, err := sortedGlob(filepath.Join(eventsDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	m := ChapterEvents{}
	for _, f := range files {
		var ev eventFile
		if err := readJSON(f, &ev); err != nil {
			logger.Warn("skipping unreadable event file", "path", f, "error", err)
			continue
		}
		id := eventID(f)
		for _, c := range ParseEpisodeRange(rawString(ev.EpisodeRange)) {
			m[c] = id
		}
	}
	logger.Info("chapter event map loaded", "events", len(files), "chapters", len(m))
	return m, nil
}

// BuildLookupStore assembles the lookup table from the data directory layout:
// global_summary.json, events/*.json and chapter_summaries/*.json.
// It also returns the chapter to event map derived from the event ranges.
func BuildLookupStore(dataDir string, logger *slog.Logger) (*LookupStore, ChapterEvents, error) {
	entries := map[string]string{}

	globalPath := filepath.Join(dataDir, "global_summary.json")
	var global struct {
		FullSynopsis string `json:"full_synopsis"`
	}
	if err := readJSON(globalPath, &global); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("failed to read %s: %w", globalPath, err)
		}
		logger.Warn("global summary not found", "path", globalPath)
	} else {
		entries["global"] = global.FullSynopsis
	}

	eventFiles, err := sortedGlob(filepath.Join(dataDir, "events", "*.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list events: %w", err)
	}
	events := ChapterEvents{}
	for _, f := range eventFiles {
		var ev eventFile
		if err := readJSON(f, &ev); err != nil {
			return nil, nil, fmt.Errorf("failed to read event %s: %w", f, err)
		}
		id := eventID(f)
		entries[EventKey(id)] = ev.Content
		for _, c := range ParseEpisodeRange(rawString(ev.EpisodeRange)) {
			events[c] = id
		}
	}

	chapterFiles, err := sortedGlob(filepath.Join(dataDir, "chapter_summaries", "*.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list chapter summaries: %w", err)
	}
	for _, f := range chapterFiles {
		var cs chapterSummaryFile
		if err := readJSON(f, &cs); err != nil {
			return nil, nil, fmt.Errorf("failed to read chapter summary %s: %w", f, err)
		}
		m := numberPattern.FindString(rawString(cs.Episode))
		if m == "" {
			logger.Warn("chapter summary without episode number", "path", f)
			continue
		}
		id, _ := strconv.Atoi(m)
		entries[ChapterKey(id)] = cs.Summary
	}

	logger.Info("lookup store built",
		"events", len(eventFiles),
		"chapters", len(chapterFiles),
		"entries", len(entries),
	)
	return NewLookupStore(entries), events, nil
}
