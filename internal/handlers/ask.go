package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"webtoon-rag/internal/contextutil"
	"webtoon-rag/internal/rag"
)

// AskHandler handles HTTP requests for story questions.
type AskHandler struct {
	engine rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(engine rag.Engine) *AskHandler {
	return &AskHandler{engine: engine}
}

// AskRequest represents the HTTP request payload.
type AskRequest struct {
	Question   string `json:"question"`
	WindowSize *int   `json:"window_size,omitempty"`
}

// AskResponse represents the HTTP response payload.
type AskResponse struct {
	// The generated answer
	Answer string `json:"answer"`
	// Intent chosen by the router: "search" or "lookup_chapter"
	Intent string `json:"intent"`
	// ChapterID is set on the chapter lookup path
	ChapterID int `json:"chapter_id,omitempty"`
	// Scenes used as evidence, best first
	References []ReferenceResponse `json:"references"`
	// Debug is present when ?debug=true
	Debug *DebugInfo `json:"debug,omitempty"`
}

// ReferenceResponse is one evidence scene.
type ReferenceResponse struct {
	UnitID    uint64  `json:"unit_id"`
	ChapterID int     `json:"chapter_id"`
	SceneIdx  int     `json:"scene_idx"`
	EventID   string  `json:"event_id,omitempty"`
	ImageFile string  `json:"image_file"`
	Score     float64 `json:"score"`
}

// DebugInfo contains retrieval details.
type DebugInfo struct {
	RewrittenQuery string               `json:"rewritten_query,omitempty"`
	Fused          []rag.FusedCandidate `json:"fused"`
	Reranked       []DebugRerankedScene `json:"reranked"`
	LatencyMS      map[string]int64     `json:"latency_ms"`
}

// DebugRerankedScene is a reranked scene with its text.
type DebugRerankedScene struct {
	ReferenceResponse
	Text string `json:"text"`
}

// ServeHTTP handles POST /api/v1/ask. Use ?debug=true (or 1) for retrieval details.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(ctx, w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(ctx, w, http.StatusBadRequest, "Question is required")
		return
	}

	debugParam := strings.ToLower(r.URL.Query().Get("debug"))
	debug := debugParam == "true" || debugParam == "1"

	resp, err := h.engine.Ask(ctx, rag.AskRequest{
		Question:   req.Question,
		WindowSize: req.WindowSize,
		Debug:      debug,
	})
	if err != nil {
		status, msg := statusFor(err)
		logger.ErrorContext(ctx, "ask failed", "status", status, "error", err)
		writeError(ctx, w, status, msg)
		return
	}

	out := AskResponse{
		Answer:     resp.Answer,
		Intent:     string(resp.Intent),
		ChapterID:  resp.ChapterID,
		References: make([]ReferenceResponse, len(resp.References)),
	}
	for i, ref := range resp.References {
		out.References[i] = toReference(ref)
	}

	if resp.Debug != nil {
		reranked := make([]DebugRerankedScene, len(resp.Debug.Reranked))
		for i, ref := range resp.Debug.Reranked {
			reranked[i] = DebugRerankedScene{ReferenceResponse: toReference(ref), Text: ref.Text}
		}
		fused := resp.Debug.Fused
		if fused == nil {
			fused = []rag.FusedCandidate{}
		}
		out.Debug = &DebugInfo{
			RewrittenQuery: resp.Debug.RewrittenQuery,
			Fused:          fused,
			Reranked:       reranked,
			LatencyMS:      resp.Debug.StageLatencyMS,
		}
	}

	if err := writeJSON(w, http.StatusOK, out); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func toReference(ref rag.Reference) ReferenceResponse {
	return ReferenceResponse{
		UnitID:    ref.UnitID,
		ChapterID: ref.ChapterID,
		SceneIdx:  ref.SceneIdx,
		EventID:   ref.EventID,
		ImageFile: ref.ImageFile,
		Score:     ref.Score,
	}
}
