package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"id":      "test-id",
		"object":  "chat.completion",
		"created": 0,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/v1", "test-key", "test-model", ChatParams{MaxTokens: 64})
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8080/v1" {
		t.Errorf("NewClient() BaseURL = %v", client.BaseURL)
	}
	if client.Model != "test-model" {
		t.Errorf("NewClient() Model = %v, want test-model", client.Model)
	}
	if client.Params.MaxTokens != 64 {
		t.Errorf("NewClient() MaxTokens = %v, want 64", client.Params.MaxTokens)
	}
}

func TestClient_Ask(t *testing.T) {
	tests := []struct {
		name       string
		serverResp func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantReply  string
		wantErr    bool
	}{
		{
			name: "successful ask",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				if !strings.Contains(r.Header.Get("Authorization"), "Bearer test-key") {
					t.Error("missing Authorization header")
				}

				var body struct {
					Model     string  `json:"model"`
					MaxTokens int     `json:"max_tokens"`
					Temp      float64 `json:"temperature"`
					Messages  []struct {
						Role    string `json:"role"`
						Content string `json:"content"`
					} `json:"messages"`
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode request: %v", err)
				}
				if body.Model != "test-model" || body.MaxTokens != 128 || body.Temp != 0.5 {
					t.Errorf("unexpected params: %+v", body)
				}
				if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Role != "user" {
					t.Fatalf("unexpected messages: %+v", body.Messages)
				}
				if body.Messages[0].Content != "sys" || body.Messages[1].Content != "question" {
					t.Errorf("unexpected message content: %+v", body.Messages)
				}

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(chatCompletion("  Hi there!\n"))
			},
			wantReply: "Hi there!",
		},
		{
			name: "no choices returned",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				resp := chatCompletion("")
				resp["choices"] = []any{}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantErr: true,
		},
		{
			name: "server error",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error": {"message": "internal server error"}}`))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.serverResp(t, w, r)
			}))
			defer server.Close()

			client := NewClient(server.URL+"/v1", "test-key", "test-model", ChatParams{MaxTokens: 128, Temperature: 0.5})
			reply, err := client.Ask(context.Background(), "sys", "question")

			if tt.wantErr {
				if err == nil {
					t.Errorf("Ask() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Ask() unexpected error: %v", err)
			}
			if reply != tt.wantReply {
				t.Errorf("Ask() reply = %q, want %q", reply, tt.wantReply)
			}
		})
	}
}
