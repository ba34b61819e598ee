package indexer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"webtoon-rag/internal/narrative"
)

var imageIDPattern = regexp.MustCompile(`(\d+)_(\d+)`)

// sceneFile is the on-disk scene record produced by the segmentation step.
type sceneFile struct {
	ImageFile string          `json:"image_file"`
	FullText  json.RawMessage `json:"full_text"`
}

// errSkip marks a scene file that is well formed but cannot be indexed.
type errSkip struct {
	reason string
}

func (e *errSkip) Error() string { return e.reason }

// readScene parses one scene file. Files without a chapter_scene id in the image
// name or without text return *errSkip.
func readScene(path string, events narrative.ChapterEvents) (narrative.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return narrative.Scene{}, fmt.Errorf("failed to read scene: %w", err)
	}
	var f sceneFile
	if err := json.Unmarshal(data, &f); err != nil {
		return narrative.Scene{}, fmt.Errorf("failed to parse scene: %w", err)
	}

	m := imageIDPattern.FindStringSubmatch(f.ImageFile)
	if m == nil {
		return narrative.Scene{}, &errSkip{reason: "no_id"}
	}
	chapter, _ := strconv.Atoi(m[1])
	idx, _ := strconv.Atoi(m[2])
	if _, err := narrative.UnitID(chapter, idx); err != nil {
		return narrative.Scene{}, &errSkip{reason: "bad_id"}
	}

	text, err := flattenText(f.FullText)
	if err != nil {
		return narrative.Scene{}, fmt.Errorf("failed to read full_text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return narrative.Scene{}, &errSkip{reason: "empty_text"}
	}

	return narrative.Scene{
		ID:        fmt.Sprintf("%d_%d", chapter, idx),
		Text:      text,
		ChapterID: chapter,
		SceneIdx:  idx,
		EventID:   events[chapter],
		ImageFile: f.ImageFile,
		Type:      narrative.SceneType,
	}, nil
}

// flattenText accepts a string, or a list mixing strings and {"ocr": string|[]string}
// objects, and joins the parts with spaces. OCR parts are prefixed with "ocr: ".
func flattenText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return "", err
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		var str string
		if err := json.Unmarshal(item, &str); err == nil {
			parts = append(parts, str)
			continue
		}
		var obj struct {
			OCR json.RawMessage `json:"ocr"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		ocr := ocrText(obj.OCR)
		if strings.TrimSpace(ocr) != "" {
			parts = append(parts, "ocr: "+ocr)
		}
	}
	return strings.Join(parts, " "), nil
}

func ocrText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, " ")
	}
	return ""
}
