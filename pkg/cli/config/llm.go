package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
	"github.com/secmon-lab/echonotes/pkg/service/embedding"
	"github.com/secmon-lab/echonotes/pkg/service/provider"
	"github.com/secmon-lab/echonotes/pkg/service/reflection"
	"github.com/secmon-lab/echonotes/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// LLM holds configuration for reflection and embedding providers
type LLM struct {
	provider            string
	defaultModel        string
	cheapModel          string
	promptCostPer1K     float64
	completionCostPer1K float64

	embeddingProvider  string
	embeddingModel     string
	embeddingCostPer1K float64
	embeddingDimension int
	remoteDimension    int

	openAIAPIKey   string
	openAIBaseURL  string
	geminiProject  string
	geminiLocation string
}

// Flags returns CLI flags for LLM configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "Reflection provider (auto, local, remote)",
			Value:       "auto",
			Category:    "LLM",
			Sources:     cli.EnvVars("ECHO_NOTES_LLM_PROVIDER"),
			Destination: &l.provider,
		},
		&cli.StringFlag{
			Name:        "llm-default-model",
			Usage:       "Model name for the default tier",
			Value:       "echo-default-v1",
			Category:    "LLM",
			Sources:     cli.EnvVars("ECHO_NOTES_LLM_DEFAULT_MODEL"),
			Destination: &l.defaultModel,
		},
		&cli.StringFlag{
			Name:        "llm-cheap-model",
			Usage:       "Model name for the cheap tier",
			Value:       "echo-cheap-v1",
			Category:    "LLM",
			Sources:     cli.EnvVars("ECHO_NOTES_LLM_CHEAP_MODEL"),
			Destination: &l.cheapModel,
		},
		&cli.FloatFlag{
			Name:        "llm-prompt-cost-per-1k",
			Usage:       "USD per 1000 prompt tokens",
			Category:    "LLM",
			Sources:     cli.EnvVars("ECHO_NOTES_LLM_PROMPT_COST_PER_1K"),
			Destination: &l.promptCostPer1K,
		},
		&cli.FloatFlag{
			Name:        "llm-completion-cost-per-1k",
			Usage:       "USD per 1000 completion tokens",
			Category:    "LLM",
			Sources:     cli.EnvVars("ECHO_NOTES_LLM_COMPLETION_COST_PER_1K"),
			Destination: &l.completionCostPer1K,
		},
		&cli.StringFlag{
			Name:        "embedding-provider",
			Usage:       "Embedding provider (auto, local, remote)",
			Value:       "auto",
			Category:    "Embedding",
			Sources:     cli.EnvVars("ECHO_NOTES_EMBEDDING_PROVIDER"),
			Destination: &l.embeddingProvider,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Remote embedding model name",
			Value:       "text-embedding-3-small",
			Category:    "Embedding",
			Sources:     cli.EnvVars("ECHO_NOTES_EMBEDDING_MODEL"),
			Destination: &l.embeddingModel,
		},
		&cli.FloatFlag{
			Name:        "embedding-cost-per-1k",
			Usage:       "USD per 1000 embedding input tokens",
			Category:    "Embedding",
			Sources:     cli.EnvVars("ECHO_NOTES_EMBEDDING_COST_PER_1K"),
			Destination: &l.embeddingCostPer1K,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Dimension of the local hash embedding",
			Value:       embedding.DefaultDimension,
			Category:    "Embedding",
			Sources:     cli.EnvVars("ECHO_NOTES_EMBEDDING_DIMENSION"),
			Destination: &l.embeddingDimension,
		},
		&cli.IntFlag{
			Name:        "remote-embedding-dimension",
			Usage:       "Dimension requested from the remote embedding model",
			Value:       1536,
			Category:    "Embedding",
			Sources:     cli.EnvVars("ECHO_NOTES_REMOTE_EMBEDDING_DIMENSION"),
			Destination: &l.remoteDimension,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("OPENAI_API_KEY"),
			Destination: &l.openAIAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-base-url",
			Usage:       "OpenAI compatible API base URL",
			Category:    "LLM",
			Sources:     cli.EnvVars("OPENAI_BASE_URL"),
			Destination: &l.openAIBaseURL,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API. Takes precedence over OpenAI when set.",
			Category:    "LLM",
			Sources:     cli.EnvVars("ECHO_NOTES_GEMINI_PROJECT"),
			Destination: &l.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Category:    "LLM",
			Sources:     cli.EnvVars("ECHO_NOTES_GEMINI_LOCATION"),
			Destination: &l.geminiLocation,
		},
	}
}

// LogAttrs returns log attributes for the LLM configuration
func (l *LLM) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("llm_provider", l.provider),
		slog.String("default_model", l.defaultModel),
		slog.String("cheap_model", l.cheapModel),
		slog.String("embedding_provider", l.embeddingProvider),
		slog.String("embedding_model", l.embeddingModel),
		slog.Bool("openai_configured", l.openAIAPIKey != ""),
		slog.String("gemini_project", l.geminiProject),
	}
}

// Router returns the model tier router
func (l *LLM) Router() model.ModelRouter {
	return model.ModelRouter{DefaultModel: l.defaultModel, CheapModel: l.cheapModel}
}

// OpenAIAPIKey is shared with remote transcription
func (l *LLM) OpenAIAPIKey() string {
	return l.openAIAPIKey
}

// OpenAIBaseURL is shared with remote transcription
func (l *LLM) OpenAIBaseURL() string {
	return l.openAIBaseURL
}

// remoteName is the provider name recorded in cost rows
func (l *LLM) remoteName() string {
	if l.geminiProject != "" {
		return "gemini"
	}
	return "openai"
}

// newClient returns nil without error when no remote backend is configured
func (l *LLM) newClient(ctx context.Context, modelName string) (gollem.LLMClient, error) {
	switch {
	case l.geminiProject != "":
		client, err := gemini.New(ctx, l.geminiProject, l.geminiLocation, gemini.WithModel(modelName))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client", goerr.V("model", modelName))
		}
		return client, nil

	case l.openAIAPIKey != "":
		opts := []openai.Option{openai.WithModel(modelName), openai.WithEmbeddingModel(l.embeddingModel)}
		if l.openAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(l.openAIBaseURL))
		}
		client, err := openai.New(ctx, l.openAIAPIKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client", goerr.V("model", modelName))
		}
		return client, nil

	default:
		return nil, nil
	}
}

// reflectionClients returns one client per distinct tier model, keyed by model name.
// The map is empty when no remote backend is configured.
func (l *LLM) reflectionClients(ctx context.Context) (map[string]gollem.LLMClient, error) {
	clients := make(map[string]gollem.LLMClient)
	for _, modelName := range []string{l.defaultModel, l.cheapModel} {
		if _, ok := clients[modelName]; ok {
			continue
		}
		client, err := l.newClient(ctx, modelName)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return clients, nil
		}
		clients[modelName] = client
	}
	return clients, nil
}

// ReflectionCascade builds the reflection cascade. A missing API key leaves the
// remote option unavailable rather than failing startup.
func (l *LLM) ReflectionCascade(ctx context.Context) (types.ProviderPreference, *usecase.ReflectionCascade, error) {
	clients, err := l.reflectionClients(ctx)
	if err != nil {
		return "", nil, err
	}

	remote := &provider.Option[interfaces.ReflectionProvider]{
		Name:  l.remoteName(),
		Build: provider.Unavailable[interfaces.ReflectionProvider]("missing API key"),
	}
	if client, ok := clients[l.defaultModel]; ok {
		opts := []reflection.RemoteOption{
			reflection.WithName(l.remoteName()),
			reflection.WithCostPer1K(l.promptCostPer1K, l.completionCostPer1K),
		}
		for modelName, c := range clients {
			if modelName != l.defaultModel {
				opts = append(opts, reflection.WithModelClient(modelName, c))
			}
		}

		p, err := reflection.NewRemote(client, opts...)
		if err != nil {
			return "", nil, err
		}
		remote.Build = provider.Static[interfaces.ReflectionProvider](p)
	}

	return types.ProviderPreference(l.provider), usecase.LocalReflectionCascade(remote), nil
}

// EmbeddingCascade builds the embedding cascade
func (l *LLM) EmbeddingCascade(ctx context.Context) (types.ProviderPreference, *usecase.EmbeddingCascade, error) {
	if l.embeddingDimension <= 0 {
		return "", nil, goerr.Wrap(ErrInvalidConfig, "embedding-dimension must be positive",
			goerr.V("dimension", l.embeddingDimension))
	}

	client, err := l.newClient(ctx, l.defaultModel)
	if err != nil {
		return "", nil, err
	}

	name := l.remoteName() + "-embedding"
	remote := &provider.Option[interfaces.EmbeddingProvider]{
		Name:  name,
		Build: provider.Unavailable[interfaces.EmbeddingProvider]("missing API key"),
	}
	if client != nil {
		p, err := embedding.NewRemote(client, l.embeddingModel, l.remoteDimension,
			embedding.WithName(name),
			embedding.WithCostPer1K(l.embeddingCostPer1K),
		)
		if err != nil {
			return "", nil, err
		}
		remote.Build = provider.Static[interfaces.EmbeddingProvider](p)
	}

	return types.ProviderPreference(l.embeddingProvider), usecase.LocalEmbeddingCascade(l.embeddingDimension, remote), nil
}
