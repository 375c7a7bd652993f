package embedding

import (
	"context"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

// Remote generates embeddings with gollem
type Remote struct {
	llmClient gollem.LLMClient
	name      string
	modelName string
	dimension int
	costPer1K float64
}

var _ interfaces.EmbeddingProvider = &Remote{}

// RemoteOption is a functional option for Remote
type RemoteOption func(*Remote)

// WithName sets the provider name recorded in usage rows
func WithName(name string) RemoteOption {
	return func(r *Remote) {
		r.name = name
	}
}

// WithCostPer1K sets the USD rate per 1000 input tokens
func WithCostPer1K(cost float64) RemoteOption {
	return func(r *Remote) {
		r.costPer1K = cost
	}
}

func NewRemote(llmClient gollem.LLMClient, modelName string, dimension int, opts ...RemoteOption) (*Remote, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if dimension <= 0 {
		return nil, goerr.New("embedding dimension must be positive", goerr.V("dimension", dimension))
	}

	r := &Remote{
		llmClient: llmClient,
		name:      "gollem-embedding",
		modelName: modelName,
		dimension: dimension,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Remote) Embed(ctx context.Context, text string) (*model.EmbeddingResult, error) {
	embeddings, err := r.llmClient.GenerateEmbedding(ctx, r.dimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding", goerr.V("model", r.modelName))
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.New("no embedding returned", goerr.V("model", r.modelName))
	}

	vec := make(model.Embedding, len(embeddings[0]))
	copy(vec, embeddings[0])

	promptTokens := max(1, utf8.RuneCountInString(text)/4)
	return &model.EmbeddingResult{
		Vector:   vec,
		Provider: r.name,
		Model:    r.modelName,
		Usage: model.LLMUsage{
			PromptTokens: promptTokens,
			USD:          model.Round8(float64(promptTokens) * r.costPer1K / 1000),
		},
	}, nil
}
