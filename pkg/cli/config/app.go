package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// App gathers the configuration needed to assemble the use cases
type App struct {
	appName       string
	LLM           LLM
	Transcription Transcription
	AudioStore    AudioStore
}

// Flags returns the app name flag followed by every provider flag
func (a *App) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "app-name",
			Usage:       "Application name reported by the root endpoint and stored with notes",
			Value:       usecase.DefaultAppName,
			Sources:     cli.EnvVars("ECHO_NOTES_APP_NAME"),
			Destination: &a.appName,
		},
	}
	flags = append(flags, a.LLM.Flags()...)
	flags = append(flags, a.Transcription.Flags()...)
	flags = append(flags, a.AudioStore.Flags()...)
	return flags
}

// AppName returns the configured application name
func (a *App) AppName() string {
	return a.appName
}

// LogAttrs returns log attributes for the provider configuration
func (a *App) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("app_name", a.appName)}
	attrs = append(attrs, a.LLM.LogAttrs()...)
	attrs = append(attrs, a.Transcription.LogAttrs()...)
	return attrs
}

// Configure builds the use cases over repo. The returned function releases the audio store.
func (a *App) Configure(ctx context.Context, repo interfaces.Repository) (*usecase.UseCases, func(), error) {
	reflectionPref, reflectionCascade, err := a.LLM.ReflectionCascade(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to configure reflection provider")
	}
	embeddingPref, embeddingCascade, err := a.LLM.EmbeddingCascade(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to configure embedding provider")
	}
	transcriptionPref, transcriptionCascade := a.Transcription.Cascade(a.LLM.OpenAIAPIKey(), a.LLM.OpenAIBaseURL())

	store, closeStore, err := a.AudioStore.Configure(ctx)
	if err != nil {
		return nil, nil, err
	}

	uc := usecase.New(repo,
		usecase.WithAppName(a.appName),
		usecase.WithModelRouter(a.LLM.Router()),
		usecase.WithReflection(reflectionPref, reflectionCascade),
		usecase.WithEmbedding(embeddingPref, embeddingCascade),
		usecase.WithTranscription(transcriptionPref, transcriptionCascade),
		usecase.WithAudioStore(store),
	)
	return uc, closeStore, nil
}
