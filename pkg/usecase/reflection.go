package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
	"github.com/secmon-lab/echonotes/pkg/service/reflection"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

const (
	warnEmptyTranscript      = "Transcript is empty; reflection confidence was set to low."
	warnReflectionCallFailed = "External LLM call failed; local reflection fallback was used."
	warnReflectionMalformed  = "Reflection provider response was malformed; fallback reflection was used."
	warnReflectionAmbiguous  = "Reflection contains ambiguity; confidence is below high."
	warnReflectionEventStore = "Reflection metadata persistence failed for this request."
)

type ReflectionUseCase struct {
	repo    interfaces.Repository
	router  model.ModelRouter
	pref    types.ProviderPreference
	cascade *ReflectionCascade
	tracker *tracker
	now     func() time.Time
}

// Reflect interprets a transcript. It never fails: provider problems degrade to the
// local engine or a canned reflection and are reported as request warnings.
func (uc *ReflectionUseCase) Reflect(ctx context.Context, transcript string) *model.ReflectionResult {
	cleaned := strings.TrimSpace(transcript)
	if cleaned == "" {
		warn(ctx, warnEmptyTranscript)
		return model.EmptyTranscriptReflection()
	}

	modelName := uc.router.Route(types.ModelTierDefault)
	res := uc.cascade.Resolve(uc.pref)
	if res.Warning != "" {
		warn(ctx, res.Warning)
	}

	prompt := reflection.BuildPrompt(cleaned)
	resp, err := uc.generate(ctx, res.Provider, res.Available, prompt, cleaned, modelName)
	if err != nil {
		logging.From(ctx).Warn("reflection provider failed", "provider", res.Name, "error", err)
		warn(ctx, warnReflectionCallFailed)
		resp, err = uc.generateFallback(ctx, prompt, cleaned, modelName)
	}
	if err != nil {
		// unreachable with the local engine
		logging.From(ctx).Error("reflection fallback failed", "error", err)
		resp = &model.LLMResponse{Provider: reflection.LocalProviderName, Model: modelName}
	}
	uc.tracker.track(ctx, resp.Provider, resp.Model, resp.Usage)

	parsed, ok := reflection.Parse(resp.Content)
	if !ok {
		warn(ctx, warnReflectionMalformed)
		parsed = model.FallbackReflection()
	}

	result := &model.ReflectionResult{
		Reflection: *parsed,
		Internal:   model.NewReflectionInternalMetadata(parsed.Confidence),
	}
	if result.Internal.AmbiguityDetected {
		warn(ctx, warnReflectionAmbiguous)
	}

	uc.persistEvent(ctx, cleaned, result)
	return result
}

func (uc *ReflectionUseCase) generate(ctx context.Context, p interfaces.ReflectionProvider, available bool, prompt model.Prompt, transcript, modelName string) (*model.LLMResponse, error) {
	if !available || p == nil {
		return uc.generateFallback(ctx, prompt, transcript, modelName)
	}
	return p.Generate(ctx, prompt, transcript, modelName)
}

func (uc *ReflectionUseCase) generateFallback(ctx context.Context, prompt model.Prompt, transcript, modelName string) (*model.LLMResponse, error) {
	p, _, ok := uc.cascade.FallbackProvider()
	if !ok {
		p = reflection.NewLocal()
	}
	return p.Generate(ctx, prompt, transcript, modelName)
}

func (uc *ReflectionUseCase) persistEvent(ctx context.Context, transcript string, result *model.ReflectionResult) {
	event := &model.ReflectionEvent{
		TranscriptText: transcript,
		Reflection:     result.Reflection,
		Internal:       result.Internal,
		CreatedAt:      uc.now(),
	}
	if err := uc.repo.ReflectionEvent().Put(ctx, event); err != nil {
		logging.From(ctx).Warn("failed to persist reflection event", "error", err)
		warn(ctx, warnReflectionEventStore)
	}
}
