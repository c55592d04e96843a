package domain

// ChatMessage is the provider-agnostic chat message shape used by the
// orchestrator and LLM integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest carries one completion call. Zero Temperature and MaxTokens
// leave the provider defaults in place.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// Passage is a retrieved background snippet.
type Passage struct {
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
	Scope      string  `json:"scope"`
	SourceID   string  `json:"source_id"`
	ChunkIndex int     `json:"chunk_index"`
}
