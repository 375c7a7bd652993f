package model

// LLMUsage is the token usage and cost of one provider call
type LLMUsage struct {
	PromptTokens     int
	CompletionTokens int
	USD              float64
}

// IsZero reports whether no usage was recorded
func (u LLMUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.USD == 0
}

// LLMResponse is the raw text output of a reflection provider
type LLMResponse struct {
	Content  string
	Provider string
	Model    string
	Usage    LLMUsage
}

// EmbeddingResult is the output of an embedding provider
type EmbeddingResult struct {
	Vector   Embedding
	Provider string
	Model    string
	Usage    LLMUsage
}

// Prompt is a rendered system and human message pair
type Prompt struct {
	System string
	Human  string
}

// String flattens the prompt into a single transcript-style text
func (p Prompt) String() string {
	return "System: " + p.System + "\nHuman: " + p.Human
}
