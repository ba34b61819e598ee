package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Client is a chat completions client for any OpenAI-compatible server.
type Client struct {
	BaseURL string
	Model   string
	Params  ChatParams
	client  openai.Client
}

// NewClient creates a new LLM client. baseURL includes the API version prefix,
// e.g. "http://localhost:8080/v1". Requests are not retried.
func NewClient(baseURL, apiKey, model string, params ChatParams) *Client {
	return &Client{
		BaseURL: baseURL,
		Model:   model,
		Params:  params,
		client:  openai.NewClient(clientOptions(baseURL, apiKey)...),
	}
}

func clientOptions(baseURL, apiKey string) []option.RequestOption {
	return []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(baseURL, "/") + "/"),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
}

// Ask sends one system and one user message and returns the reply text.
func (c *Client) Ask(ctx context.Context, system, user string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}
	if c.Params.Temperature > 0 {
		params.Temperature = openai.Float(c.Params.Temperature)
	}
	if c.Params.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.Params.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
