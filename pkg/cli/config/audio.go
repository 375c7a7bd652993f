package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/service/audiostore"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// AudioStore holds CLI flags for storing uploaded audio
type AudioStore struct {
	kind   string
	dir    string
	bucket string
	prefix string
}

// Flags returns CLI flags for audio store configuration
func (a *AudioStore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "audio-store",
			Usage:       "Where uploaded audio is kept (none, fs, gcs)",
			Value:       "none",
			Category:    "Audio",
			Sources:     cli.EnvVars("ECHO_NOTES_AUDIO_STORE"),
			Destination: &a.kind,
		},
		&cli.StringFlag{
			Name:        "audio-dir",
			Usage:       "Directory for the fs audio store",
			Value:       "data/audio",
			Category:    "Audio",
			Sources:     cli.EnvVars("ECHO_NOTES_AUDIO_DIR"),
			Destination: &a.dir,
		},
		&cli.StringFlag{
			Name:        "audio-bucket",
			Usage:       "Cloud Storage bucket for the gcs audio store",
			Category:    "Audio",
			Sources:     cli.EnvVars("ECHO_NOTES_AUDIO_BUCKET"),
			Destination: &a.bucket,
		},
		&cli.StringFlag{
			Name:        "audio-prefix",
			Usage:       "Object name prefix for the gcs audio store",
			Category:    "Audio",
			Sources:     cli.EnvVars("ECHO_NOTES_AUDIO_PREFIX"),
			Destination: &a.prefix,
		},
	}
}

// Configure returns the audio store and a function releasing it
func (a *AudioStore) Configure(ctx context.Context) (interfaces.AudioStore, func(), error) {
	switch a.kind {
	case "none", "":
		return audiostore.None{}, func() {}, nil

	case "fs":
		store, err := audiostore.NewFS(a.dir)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize fs audio store")
		}
		logging.Default().Info("Using filesystem audio store", "dir", a.dir)
		return store, func() {}, nil

	case "gcs":
		if a.bucket == "" {
			return nil, nil, goerr.New("audio-bucket is required when using gcs audio store")
		}
		store, err := audiostore.NewGCS(ctx, a.bucket, a.prefix)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize gcs audio store")
		}
		logging.Default().Info("Using Cloud Storage audio store", "bucket", a.bucket, "prefix", a.prefix)
		return store, func() {
			if err := store.Close(); err != nil {
				logging.Default().Error("failed to close gcs audio store", "error", err.Error())
			}
		}, nil

	default:
		return nil, nil, goerr.Wrap(ErrInvalidAudioStore, "unsupported audio store", goerr.V("audio_store", a.kind))
	}
}
