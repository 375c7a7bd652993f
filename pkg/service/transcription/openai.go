package transcription

import (
	"bytes"
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sashabaranov/go-openai"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
)

// AudioTranscriber is the part of the OpenAI client used for transcription
type AudioTranscriber interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// OpenAI transcribes audio with the hosted Whisper API
type OpenAI struct {
	client    AudioTranscriber
	modelName string
}

var _ interfaces.TranscriptionProvider = &OpenAI{}

// NewOpenAIClient builds an API client. baseURL may be empty.
func NewOpenAIClient(apiKey, baseURL string) (*openai.Client, error) {
	if apiKey == "" {
		return nil, goerr.New("missing API key")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg), nil
}

func NewOpenAI(client AudioTranscriber, modelName string) *OpenAI {
	return &OpenAI{client: client, modelName: modelName}
}

func (o *OpenAI) Transcribe(ctx context.Context, audio *interfaces.AudioInput) (*model.Transcript, error) {
	filename := audio.Filename
	if filename == "" {
		filename = "upload.wav"
	}

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.modelName,
		FilePath: filename,
		Reader:   bytes.NewReader(audio.Data),
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "whisper API transcription failed", goerr.V("model", o.modelName))
	}

	transcript := &model.Transcript{
		Text: strings.TrimSpace(resp.Text),
		Metadata: model.TranscriptMetadata{
			Model:  o.modelName,
			Source: types.TranscriptSourceWhisperOpenAIAPI,
		},
	}
	if resp.Language != "" {
		transcript.Metadata.Language = model.Ptr(resp.Language)
	}
	if resp.Duration > 0 {
		transcript.Metadata.DurationSeconds = model.Ptr(resp.Duration)
	}
	return transcript, nil
}
