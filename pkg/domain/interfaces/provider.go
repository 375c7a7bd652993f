package interfaces

import (
	"context"
	"io"

	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

// ReflectionProvider turns a rendered prompt and transcript into raw reflection JSON
type ReflectionProvider interface {
	Generate(ctx context.Context, prompt model.Prompt, transcript, modelName string) (*model.LLMResponse, error)
}

// EmbeddingProvider turns text into a vector
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) (*model.EmbeddingResult, error)
}

// AudioInput is an uploaded audio payload
type AudioInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

// TranscriptionProvider turns audio into a transcript
type TranscriptionProvider interface {
	Transcribe(ctx context.Context, audio *AudioInput) (*model.Transcript, error)
}

// AudioStore persists uploaded audio and returns a reference string
type AudioStore interface {
	Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}
