package usecase

import (
	"context"

	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
	"github.com/secmon-lab/echonotes/pkg/service/transcription"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

const (
	warnTranscriptionRetryLocal  = "Primary transcription provider failed; attempting local Whisper fallback."
	warnTranscriptionLocalFailed = "Local Whisper fallback failed."
	warnTranscriptionUnavailable = "Transcription provider unavailable; transcription was not performed."
)

type TranscriptionUseCase struct {
	pref    types.ProviderPreference
	cascade *TranscriptionCascade
}

// Transcribe converts an upload into a transcript. Text uploads pass through
// unchanged. When no provider can transcribe the audio, the transcript is empty.
func (uc *TranscriptionUseCase) Transcribe(ctx context.Context, audio *interfaces.AudioInput) *model.Transcript {
	if transcription.IsText(audio) {
		return transcription.Passthrough(audio)
	}

	res := uc.cascade.Resolve(uc.pref)
	if res.Warning != "" {
		warn(ctx, res.Warning)
	}
	if !res.Available || res.Provider == nil {
		return uc.unavailable(ctx)
	}

	transcript, err := res.Provider.Transcribe(ctx, audio)
	if err == nil {
		return transcript
	}
	logging.From(ctx).Warn("transcription provider failed", "provider", res.Name, "error", err)

	// local Whisper is retried once even when it was the provider that just failed
	warn(ctx, warnTranscriptionRetryLocal)
	local, localName, ok := uc.cascade.LocalProvider()
	if !ok {
		return uc.unavailable(ctx)
	}

	transcript, err = local.Transcribe(ctx, audio)
	if err == nil {
		return transcript
	}
	logging.From(ctx).Warn("local transcription fallback failed", "provider", localName, "error", err)
	warn(ctx, warnTranscriptionLocalFailed)
	return uc.unavailable(ctx)
}

func (uc *TranscriptionUseCase) unavailable(ctx context.Context) *model.Transcript {
	warn(ctx, warnTranscriptionUnavailable)
	return model.UnavailableTranscript()
}
