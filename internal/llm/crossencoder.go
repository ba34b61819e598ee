package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CrossEncoderClient scores (query, text) pairs against a rerank server
// exposing POST /rerank (text-embeddings-inference compatible).
type CrossEncoderClient struct {
	BaseURL string
	Model   string
	client  *http.Client
}

// NewCrossEncoderClient creates a new cross-encoder client.
func NewCrossEncoderClient(baseURL, model string) *CrossEncoderClient {
	return &CrossEncoderClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  http.DefaultClient,
	}
}

// RerankRequest is the payload of one batched scoring call.
type RerankRequest struct {
	Query    string   `json:"query"`
	Texts    []string `json:"texts"`
	Model    string   `json:"model,omitempty"`
	RawScore bool     `json:"raw_scores"`
}

// RerankResult is the score of texts[Index].
type RerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Predict scores all pairs and returns one score per pair, in input order.
// Pairs are grouped by query so that each distinct query costs one request.
func (c *CrossEncoderClient) Predict(ctx context.Context, pairs []Pair) ([]float64, error) {
	scores := make([]float64, len(pairs))
	if len(pairs) == 0 {
		return scores, nil
	}

	groups := map[string][]int{}
	var order []string
	for i, p := range pairs {
		if _, ok := groups[p.Query]; !ok {
			order = append(order, p.Query)
		}
		groups[p.Query] = append(groups[p.Query], i)
	}

	for _, q := range order {
		idxs := groups[q]
		texts := make([]string, len(idxs))
		for j, i := range idxs {
			texts[j] = pairs[i].Text
		}

		results, err := c.rerank(ctx, q, texts)
		if err != nil {
			return nil, err
		}
		if len(results) != len(texts) {
			return nil, fmt.Errorf("expected %d scores, got %d", len(texts), len(results))
		}
		for _, r := range results {
			if r.Index < 0 || r.Index >= len(idxs) {
				return nil, fmt.Errorf("score index %d out of range", r.Index)
			}
			scores[idxs[r.Index]] = r.Score
		}
	}
	return scores, nil
}

func (c *CrossEncoderClient) rerank(ctx context.Context, query string, texts []string) ([]RerankResult, error) {
	url := fmt.Sprintf("%s/rerank", c.BaseURL)

	body, err := json.Marshal(RerankRequest{Query: query, Texts: texts, Model: c.Model, RawScore: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var results []RerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return results, nil
}
