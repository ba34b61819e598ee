package vectorstore

import (
	"reflect"
	"testing"

	"github.com/qdrant/go-client/qdrant"

	"webtoon-rag/internal/narrative"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{name: "valid URL", urlStr: "http://localhost:6333", wantHost: "localhost", wantPort: 6334},
		{name: "custom port", urlStr: "http://qdrant:9000", wantHost: "qdrant", wantPort: 9001},
		{name: "invalid URL", urlStr: "://invalid", wantErr: true},
		{name: "no port", urlStr: "http://localhost", wantHost: "localhost", wantPort: 6334},
		{name: "no hostname", urlStr: "http://:6333", wantHost: "localhost", wantPort: 6334},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := parseEndpoint(tt.urlStr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseEndpoint() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("parseEndpoint() = %s:%d, want %s:%d", host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		"text":       "A meets B",
		"chapter_id": int64(3),
		"scene_idx":  int64(12),
		"ratio":      0.5,
		"flag":       true,
		"tags":       []any{"x", int64(1)},
		"nested":     map[string]any{"k": "v"},
	})
	payload["empty"] = nil

	got := convertPayloadToMap(payload)
	want := map[string]any{
		"text":       "A meets B",
		"chapter_id": int64(3),
		"scene_idx":  int64(12),
		"ratio":      0.5,
		"flag":       true,
		"tags":       []any{"x", int64(1)},
		"nested":     map[string]any{"k": "v"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("convertPayloadToMap() = %#v, want %#v", got, want)
	}
}

func TestScenePayloadSurvivesQdrantValues(t *testing.T) {
	scene := narrative.Scene{ID: "3_12", Text: "A meets B", ChapterID: 3, SceneIdx: 12, EventID: "2", ImageFile: "3_12.png", Type: narrative.SceneType}

	meta := convertPayloadToMap(qdrant.NewValueMap(scene.Payload()))
	got, err := narrative.DecodeScene(meta)
	if err != nil {
		t.Fatalf("DecodeScene() error = %v", err)
	}
	if got != scene {
		t.Errorf("got %+v, want %+v", got, scene)
	}
}
