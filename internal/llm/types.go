package llm

// ChatParams holds generation parameters applied to every chat completion request.
type ChatParams struct {
	// MaxTokens specifies the maximum number of tokens to generate.
	// If 0, no limit is applied.
	MaxTokens int

	// Temperature controls the randomness of the output.
	// If 0, the server default is used.
	Temperature float64
}

// Pair is one (query, candidate text) input to the cross-encoder.
type Pair struct {
	Query string
	Text  string
}
