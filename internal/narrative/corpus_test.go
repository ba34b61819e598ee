package narrative

import (
	"path/filepath"
	"testing"
)

func TestCorpusRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bm25_corpus.json")
	scene := Scene{ID: "1_1", Text: "A meets B", ChapterID: 1, SceneIdx: 1, ImageFile: "1_1.png", Type: SceneType}

	if err := SaveCorpus(path, []CorpusEntry{{ID: scene.UnitID(), Text: scene.Text, Payload: scene.Payload()}}); err != nil {
		t.Fatalf("SaveCorpus() error = %v", err)
	}

	entries, err := LoadCorpus(path, testLogger)
	if err != nil {
		t.Fatalf("LoadCorpus() error = %v", err)
	}
	if len(entries) != 1 || entries[0].ID != 10001 {
		t.Fatalf("entries = %+v", entries)
	}
	decoded, err := DecodeScene(entries[0].Payload)
	if err != nil {
		t.Fatalf("DecodeScene() error = %v", err)
	}
	if decoded != scene {
		t.Errorf("decoded = %+v, want %+v", decoded, scene)
	}
}

func TestLoadCorpusMissing(t *testing.T) {
	entries, err := LoadCorpus(filepath.Join(t.TempDir(), "none.json"), testLogger)
	if err != nil || entries != nil {
		t.Errorf("LoadCorpus() = %v, %v; want nil, nil", entries, err)
	}
}

func TestLoadRoster(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{
			name:    "wrapped",
			content: `{"characters": [{"name_candidates": ["A", "에이"], "appearance_traits": ["키가 크다"], "behavior_traits": []}]}`,
			want:    1,
		},
		{
			name:    "bare array",
			content: `[{"name_candidates": ["A"]}, {"name_candidates": ["B", "비"]}]`,
			want:    2,
		},
		{name: "malformed", content: `{"characters": [`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "characters.json")
			writeJSON(t, path, tt.content)

			chars, err := LoadRoster(path, testLogger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadRoster() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(chars) != tt.want {
				t.Errorf("len = %d, want %d", len(chars), tt.want)
			}
		})
	}

	t.Run("canonical", func(t *testing.T) {
		c := Character{NameCandidates: []string{"A", "에이"}}
		if c.Canonical() != "A" || (Character{}).Canonical() != "" {
			t.Error("Canonical() mismatch")
		}
	})
}
