package narrative

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// CorpusEntry is one record of the lexical corpus file.
type CorpusEntry struct {
	ID      uint64         `json:"id"`
	Text    string         `json:"text"`
	Payload map[string]any `json:"payload"`
}

// LoadCorpus reads the lexical corpus file. A missing file yields no entries
// so retrieval can fall back to vector-only ranking.
func LoadCorpus(path string, logger *slog.Logger) ([]CorpusEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("lexical corpus not found, keyword search disabled", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var entries []CorpusEntry
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse corpus %s: %w", path, err)
	}
	return entries, nil
}

// SaveCorpus writes the lexical corpus file.
func SaveCorpus(path string, entries []CorpusEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create corpus dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write corpus: %w", err)
	}
	return nil
}

// Character is one roster entry. NameCandidates[0] is the canonical name.
type Character struct {
	NameCandidates   []string `json:"name_candidates"`
	AppearanceTraits []string `json:"appearance_traits"`
	BehaviorTraits   []string `json:"behavior_traits"`
}

// Canonical returns the first name variant or "".
func (c Character) Canonical() string {
	if len(c.NameCandidates) == 0 {
		return ""
	}
	return c.NameCandidates[0]
}

// LoadRoster reads the character roster, either {"characters": [...]} or a bare array.
// A missing file yields an empty roster.
func LoadRoster(path string, logger *slog.Logger) ([]Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("character roster not found, query expansion disabled", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var chars []Character
		if err := json.Unmarshal(trimmed, &chars); err != nil {
			return nil, fmt.Errorf("failed to parse roster %s: %w", path, err)
		}
		return chars, nil
	}

	var wrapped struct {
		Characters []Character `json:"characters"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", path, err)
	}
	return wrapped.Characters, nil
}
