package indexer

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"webtoon-rag/internal/narrative"
)

func TestFlattenText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "string", raw: `"A meets B"`, want: "A meets B"},
		{name: "list of strings", raw: `["A", "meets", "B"]`, want: "A meets B"},
		{name: "ocr objects", raw: `["장면 설명", {"ocr": "대사"}, {"ocr": ["둘", "셋"]}]`, want: "장면 설명 ocr: 대사 ocr: 둘 셋"},
		{name: "blank ocr dropped", raw: `["x", {"ocr": "  "}, {"other": 1}]`, want: "x"},
		{name: "null", raw: `null`, want: ""},
		{name: "missing", raw: ``, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flattenText(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("flattenText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("flattenText() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := flattenText(json.RawMessage(`42`)); err == nil {
		t.Error("flattenText(42) expected error")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadScene(t *testing.T) {
	dir := t.TempDir()
	events := narrative.ChapterEvents{3: "1"}

	tests := []struct {
		name       string
		content    string
		want       narrative.Scene
		skipReason string
		wantErr    bool
	}{
		{
			name:    "valid",
			content: `{"image_file": "3_12.png", "full_text": ["A", {"ocr": "B"}]}`,
			want: narrative.Scene{
				ID: "3_12", Text: "A ocr: B", ChapterID: 3, SceneIdx: 12,
				EventID: "1", ImageFile: "3_12.png", Type: narrative.SceneType,
			},
		},
		{name: "no id", content: `{"image_file": "cover.png", "full_text": "x"}`, skipReason: "no_id"},
		{
			name:    "zero index",
			content: `{"image_file": "3_0.png", "full_text": "x"}`,
			want: narrative.Scene{
				ID: "3_0", Text: "x", ChapterID: 3, SceneIdx: 0,
				EventID: "1", ImageFile: "3_0.png", Type: narrative.SceneType,
			},
		},
		{name: "index overflow", content: `{"image_file": "3_10000.png", "full_text": "x"}`, skipReason: "bad_id"},
		{name: "empty text", content: `{"image_file": "3_1.png", "full_text": []}`, skipReason: "empty_text"},
		{name: "invalid json", content: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			writeFile(t, path, tt.content)

			got, err := readScene(path, events)
			var skip *errSkip
			switch {
			case tt.skipReason != "":
				if !errors.As(err, &skip) || skip.reason != tt.skipReason {
					t.Fatalf("readScene() error = %v, want skip %q", err, tt.skipReason)
				}
			case tt.wantErr:
				if err == nil || errors.As(err, &skip) {
					t.Fatalf("readScene() error = %v, want hard error", err)
				}
			default:
				if err != nil {
					t.Fatalf("readScene() error = %v", err)
				}
				if got != tt.want {
					t.Errorf("readScene() = %+v, want %+v", got, tt.want)
				}
			}
		})
	}
}
