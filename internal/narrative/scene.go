// Package narrative holds the data model of a chaptered, scene-segmented story:
// scene identity, the payload schema stored alongside vectors, summaries and rosters.
package narrative

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// SceneStride is the multiplier that packs a chapter id and a scene index into one key.
const SceneStride = 10000

// SceneType is the payload type written for grouped scene cuts.
const SceneType = "scene_group"

// ErrInvalidScene is returned when a payload does not describe a scene.
var ErrInvalidScene = errors.New("invalid scene payload")

// UnitID packs a chapter id and a scene index into the numeric key used by the vector store.
func UnitID(chapter, idx int) (uint64, error) {
	if chapter < 0 {
		return 0, fmt.Errorf("chapter id must not be negative: %d", chapter)
	}
	if idx < 0 || idx >= SceneStride {
		return 0, fmt.Errorf("scene index %d out of range [0, %d]", idx, SceneStride-1)
	}
	return uint64(chapter)*SceneStride + uint64(idx), nil
}

// SplitUnitID is the inverse of UnitID.
func SplitUnitID(id uint64) (chapter, idx int) {
	return int(id / SceneStride), int(id % SceneStride)
}

// Scene is one narrative unit: a group of cuts with its transcribed text.
type Scene struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ChapterID int    `json:"chapter_id"`
	SceneIdx  int    `json:"scene_idx"`
	EventID   string `json:"event_id,omitempty"`
	ImageFile string `json:"image_file"`
	Type      string `json:"type"`
}

// UnitID returns the packed numeric key of the scene.
func (s Scene) UnitID() uint64 {
	return uint64(s.ChapterID)*SceneStride + uint64(s.SceneIdx)
}

// Payload returns the scene as a generic map for vector store upserts.
func (s Scene) Payload() map[string]any {
	p := map[string]any{
		"id":         s.ID,
		"text":       s.Text,
		"chapter_id": int64(s.ChapterID),
		"scene_idx":  int64(s.SceneIdx),
		"image_file": s.ImageFile,
		"type":       s.Type,
	}
	if s.EventID != "" {
		p["event_id"] = s.EventID
	}
	return p
}

// DecodeScene validates a loosely typed payload and converts it into a Scene.
// Required keys are text, chapter_id and scene_idx; the rest default to empty values.
func DecodeScene(payload map[string]any) (Scene, error) {
	if payload == nil {
		return Scene{}, fmt.Errorf("%w: empty payload", ErrInvalidScene)
	}

	text, ok := payload["text"].(string)
	if !ok {
		return Scene{}, fmt.Errorf("%w: text missing or not a string", ErrInvalidScene)
	}

	chapter, err := intField(payload, "chapter_id")
	if err != nil {
		return Scene{}, err
	}
	idx, err := intField(payload, "scene_idx")
	if err != nil {
		return Scene{}, err
	}
	if chapter < 0 || idx < 0 || idx >= SceneStride {
		return Scene{}, fmt.Errorf("%w: chapter_id=%d scene_idx=%d out of range", ErrInvalidScene, chapter, idx)
	}

	s := Scene{
		Text:      text,
		ChapterID: chapter,
		SceneIdx:  idx,
		ID:        stringField(payload, "id"),
		EventID:   stringField(payload, "event_id"),
		ImageFile: stringField(payload, "image_file"),
		Type:      stringField(payload, "type"),
	}
	if s.ID == "" {
		s.ID = fmt.Sprintf("%d_%d", chapter, idx)
	}
	if s.Type == "" {
		s.Type = SceneType
	}
	return s, nil
}

func intField(payload map[string]any, key string) (int, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return 0, fmt.Errorf("%w: %s missing", ErrInvalidScene, key)
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case int32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %s is not an integer: %v", ErrInvalidScene, key, v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidScene, key, err)
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidScene, key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s has unsupported type %T", ErrInvalidScene, key, raw)
	}
}

// stringField reads an optional string; numbers are formatted so event ids survive
// payloads written by other tools.
func stringField(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
