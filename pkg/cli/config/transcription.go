package config

import (
	"log/slog"

	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
	"github.com/secmon-lab/echonotes/pkg/service/provider"
	"github.com/secmon-lab/echonotes/pkg/service/transcription"
	"github.com/secmon-lab/echonotes/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Transcription holds configuration for local and remote speech-to-text
type Transcription struct {
	provider    string
	localModel  string
	localBin    string
	modelDir    string
	openAIModel string
}

// Flags returns CLI flags for transcription configuration
func (t *Transcription) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "transcription-provider",
			Usage:       "Transcription provider (auto, local, remote)",
			Value:       "auto",
			Category:    "Transcription",
			Sources:     cli.EnvVars("ECHO_NOTES_TRANSCRIPTION_PROVIDER"),
			Destination: &t.provider,
		},
		&cli.StringFlag{
			Name:        "whisper-local-model",
			Usage:       "Local Whisper model size; loads ggml-<model>.bin from the model directory",
			Value:       "base",
			Category:    "Transcription",
			Sources:     cli.EnvVars("ECHO_NOTES_WHISPER_LOCAL_MODEL"),
			Destination: &t.localModel,
		},
		&cli.StringFlag{
			Name:        "whisper-local-bin",
			Usage:       "whisper.cpp command",
			Value:       "whisper-cli",
			Category:    "Transcription",
			Sources:     cli.EnvVars("ECHO_NOTES_WHISPER_LOCAL_BIN"),
			Destination: &t.localBin,
		},
		&cli.StringFlag{
			Name:        "whisper-model-dir",
			Usage:       "Directory containing Whisper model files",
			Category:    "Transcription",
			Sources:     cli.EnvVars("ECHO_NOTES_WHISPER_MODEL_DIR"),
			Destination: &t.modelDir,
		},
		&cli.StringFlag{
			Name:        "whisper-openai-model",
			Usage:       "Remote Whisper model name",
			Value:       "whisper-1",
			Category:    "Transcription",
			Sources:     cli.EnvVars("ECHO_NOTES_WHISPER_OPENAI_MODEL"),
			Destination: &t.openAIModel,
		},
	}
}

// LogAttrs returns log attributes for the transcription configuration
func (t *Transcription) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("transcription_provider", t.provider),
		slog.String("whisper_local_model", t.localModel),
		slog.String("whisper_local_bin", t.localBin),
		slog.String("whisper_model_dir", t.modelDir),
		slog.String("whisper_openai_model", t.openAIModel),
	}
}

// Cascade builds the transcription cascade. Availability of the local engine is
// checked on every resolution so that installing a model takes effect without restart.
func (t *Transcription) Cascade(apiKey, baseURL string) (types.ProviderPreference, *usecase.TranscriptionCascade) {
	whisper := transcription.NewWhisper(t.localBin, t.modelDir, t.localModel)
	local := &provider.Option[interfaces.TranscriptionProvider]{
		Name: "local-whisper",
		Build: func() (interfaces.TranscriptionProvider, error) {
			if err := whisper.Check(); err != nil {
				return nil, err
			}
			return whisper, nil
		},
	}

	remote := &provider.Option[interfaces.TranscriptionProvider]{
		Name: "openai-whisper",
		Build: func() (interfaces.TranscriptionProvider, error) {
			client, err := transcription.NewOpenAIClient(apiKey, baseURL)
			if err != nil {
				return nil, err
			}
			return transcription.NewOpenAI(client, t.openAIModel), nil
		},
	}

	return types.ProviderPreference(t.provider), usecase.TranscriptionCascadeOf(local, remote)
}
