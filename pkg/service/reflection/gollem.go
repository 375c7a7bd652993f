package reflection

import (
	"context"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

// Remote generates reflections with an LLM through gollem
type Remote struct {
	llmClient           gollem.LLMClient
	modelClients        map[string]gollem.LLMClient
	name                string
	promptCostPer1K     float64
	completionCostPer1K float64
}

var _ interfaces.ReflectionProvider = &Remote{}

// RemoteOption is a functional option for Remote
type RemoteOption func(*Remote)

// WithName sets the provider name recorded in usage rows
func WithName(name string) RemoteOption {
	return func(r *Remote) {
		r.name = name
	}
}

// WithCostPer1K sets the USD rates per 1000 prompt and completion tokens
func WithCostPer1K(prompt, completion float64) RemoteOption {
	return func(r *Remote) {
		r.promptCostPer1K = prompt
		r.completionCostPer1K = completion
	}
}

// WithModelClient routes requests for modelName to client instead of the default client
func WithModelClient(modelName string, client gollem.LLMClient) RemoteOption {
	return func(r *Remote) {
		if client != nil {
			r.modelClients[modelName] = client
		}
	}
}

func NewRemote(llmClient gollem.LLMClient, opts ...RemoteOption) (*Remote, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	r := &Remote{
		llmClient:    llmClient,
		modelClients: make(map[string]gollem.LLMClient),
		name:         "gollem",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Remote) Generate(ctx context.Context, prompt model.Prompt, transcript, modelName string) (*model.LLMResponse, error) {
	client := r.llmClient
	if c, ok := r.modelClients[modelName]; ok {
		client = c
	}

	session, err := client.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(responseSchema()),
		gollem.WithSessionSystemPrompt(prompt.System),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session", goerr.V("model", modelName))
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(prompt.Human)})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate reflection", goerr.V("model", modelName))
	}
	if resp == nil || len(resp.Texts) == 0 {
		return nil, goerr.New("LLM returned no content", goerr.V("model", modelName))
	}
	content := resp.Texts[0]

	promptTokens := resp.InputToken
	completionTokens := resp.OutputToken
	if promptTokens == 0 && completionTokens == 0 {
		promptTokens = max(1, (utf8.RuneCountInString(prompt.String())+utf8.RuneCountInString(transcript))/4)
		completionTokens = max(1, utf8.RuneCountInString(content)/4)
	}

	return &model.LLMResponse{
		Content:  content,
		Provider: r.name,
		Model:    modelName,
		Usage: model.LLMUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			USD: model.Round8((float64(promptTokens)*r.promptCostPer1K +
				float64(completionTokens)*r.completionCostPer1K) / 1000),
		},
	}, nil
}

func responseSchema() *gollem.Parameter {
	list := func(desc string) *gollem.Parameter {
		return &gollem.Parameter{
			Type:        gollem.TypeArray,
			Description: desc,
			Items:       &gollem.Parameter{Type: gollem.TypeString},
			Required:    true,
		}
	}

	return &gollem.Parameter{
		Title:       "Reflection",
		Description: "Reflection grounded only in transcript evidence",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"title": {
				Type:        gollem.TypeString,
				Description: "Short title of the note",
				Required:    true,
			},
			"summary": {
				Type:        gollem.TypeString,
				Description: "One or two sentence summary of what was said",
				Required:    true,
			},
			"themes":        list("Main themes mentioned in the transcript"),
			"questions":     list("Open questions raised by the transcript"),
			"next_thoughts": list("Areas the speaker could expand on"),
			"confidence": {
				Type:        gollem.TypeString,
				Description: "How well the reflection is supported: high, medium or low",
				Enum:        []string{"high", "medium", "low"},
				Required:    true,
			},
		},
	}
}
