package narrative

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestUnitID(t *testing.T) {
	tests := []struct {
		name    string
		chapter int
		idx     int
		want    uint64
		wantErr bool
	}{
		{name: "first scene", chapter: 1, idx: 1, want: 10001},
		{name: "large chapter", chapter: 123, idx: 45, want: 1230045},
		{name: "last index", chapter: 2, idx: 9999, want: 29999},
		{name: "zero index", chapter: 2, idx: 0, want: 20000},
		{name: "negative index", chapter: 2, idx: -1, wantErr: true},
		{name: "index overflow", chapter: 2, idx: 10000, wantErr: true},
		{name: "negative chapter", chapter: -1, idx: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnitID(tt.chapter, tt.idx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnitID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("UnitID() = %d, want %d", got, tt.want)
			}
			c, i := SplitUnitID(got)
			if c != tt.chapter || i != tt.idx {
				t.Errorf("SplitUnitID(%d) = (%d, %d)", got, c, i)
			}
		})
	}
}

func TestDecodeScene(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    Scene
		wantErr bool
	}{
		{
			name: "qdrant integers",
			payload: map[string]any{
				"id": "3_12", "text": "A meets B", "chapter_id": int64(3), "scene_idx": int64(12),
				"event_id": "2", "image_file": "3_12.png", "type": "scene_group",
			},
			want: Scene{ID: "3_12", Text: "A meets B", ChapterID: 3, SceneIdx: 12, EventID: "2", ImageFile: "3_12.png", Type: "scene_group"},
		},
		{
			name:    "json numbers and defaults",
			payload: map[string]any{"text": "hi", "chapter_id": json.Number("1"), "scene_idx": json.Number("4")},
			want:    Scene{ID: "1_4", Text: "hi", ChapterID: 1, SceneIdx: 4, Type: SceneType},
		},
		{
			name:    "float numbers",
			payload: map[string]any{"text": "hi", "chapter_id": float64(7), "scene_idx": float64(2), "event_id": float64(5)},
			want:    Scene{ID: "7_2", Text: "hi", ChapterID: 7, SceneIdx: 2, EventID: "5", Type: SceneType},
		},
		{name: "nil payload", payload: nil, wantErr: true},
		{name: "missing text", payload: map[string]any{"chapter_id": 1, "scene_idx": 1}, wantErr: true},
		{name: "text wrong type", payload: map[string]any{"text": 3, "chapter_id": 1, "scene_idx": 1}, wantErr: true},
		{name: "missing chapter", payload: map[string]any{"text": "x", "scene_idx": 1}, wantErr: true},
		{name: "fractional index", payload: map[string]any{"text": "x", "chapter_id": 1, "scene_idx": 1.5}, wantErr: true},
		{name: "index out of range", payload: map[string]any{"text": "x", "chapter_id": 1, "scene_idx": 10000}, wantErr: true},
		{name: "unsupported type", payload: map[string]any{"text": "x", "chapter_id": []int{1}, "scene_idx": 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeScene(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeScene() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidScene) {
					t.Errorf("error should wrap ErrInvalidScene, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("DecodeScene() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScenePayloadDecodes(t *testing.T) {
	s := Scene{ID: "2_5", Text: "text", ChapterID: 2, SceneIdx: 5, ImageFile: "2_5.png", Type: SceneType}
	got, err := DecodeScene(s.Payload())
	if err != nil {
		t.Fatalf("DecodeScene() error = %v", err)
	}
	if got != s {
		t.Errorf("got %+v, want %+v", got, s)
	}
	if s.UnitID() != 20005 {
		t.Errorf("UnitID() = %d", s.UnitID())
	}
	if _, ok := s.Payload()["event_id"]; ok {
		t.Error("empty event id should be omitted from payload")
	}
}
