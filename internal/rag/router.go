package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"webtoon-rag/internal/contextutil"
)

var fencePattern = regexp.MustCompile("```json|```")

// Router classifies a question as a chapter lookup or an open search.
type Router struct {
	llm LLM
}

// NewRouter creates a router backed by llm.
func NewRouter(llm LLM) *Router {
	return &Router{llm: llm}
}

type routerOutput struct {
	Intent    Intent `json:"intent"`
	ChapterID *int   `json:"chapter_id"`
}

// Route asks the model for a decision. A reply that cannot be parsed falls back to
// search with no chapter; only the model call itself can fail.
func (r *Router) Route(ctx context.Context, query string) (RouterDecision, error) {
	logger := contextutil.LoggerFromContext(ctx)

	reply, err := r.llm.Ask(ctx, RouterSystemPrompt, "질문: "+query)
	if err != nil {
		return RouterDecision{}, externalError("route", err)
	}

	decision, err := parseDecision(reply)
	if err != nil {
		logger.WarnContext(ctx, "router output unparsable, falling back to search", "raw", reply, "error", err)
		return RouterDecision{Intent: IntentSearch}, nil
	}

	logger.InfoContext(ctx, "query routed", "intent", decision.Intent, "chapter_id", decision.ChapterID)
	return decision, nil
}

func parseDecision(reply string) (RouterDecision, error) {
	clean := strings.TrimSpace(fencePattern.ReplaceAllString(reply, ""))

	dec := json.NewDecoder(strings.NewReader(clean))
	dec.DisallowUnknownFields()

	var out routerOutput
	if err := dec.Decode(&out); err != nil {
		return RouterDecision{}, err
	}
	if dec.More() {
		return RouterDecision{}, fmt.Errorf("trailing data after decision")
	}

	switch out.Intent {
	case IntentSearch:
		return RouterDecision{Intent: IntentSearch}, nil
	case IntentLookupChapter:
		d := RouterDecision{Intent: IntentLookupChapter}
		if out.ChapterID != nil {
			d.ChapterID = *out.ChapterID
		}
		return d, nil
	default:
		return RouterDecision{}, fmt.Errorf("unknown intent %q", out.Intent)
	}
}
