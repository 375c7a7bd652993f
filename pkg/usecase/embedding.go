package usecase

import (
	"context"

	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
	"github.com/secmon-lab/echonotes/pkg/service/embedding"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

const warnEmbeddingCallFailed = "External embedding call failed; local embedding fallback was used."

type EmbeddingUseCase struct {
	pref    types.ProviderPreference
	cascade *EmbeddingCascade
	tracker *tracker
}

// Embed returns the vector of text. Remote failures fall back to the hash embedding.
func (uc *EmbeddingUseCase) Embed(ctx context.Context, text string) model.Embedding {
	res := uc.cascade.Resolve(uc.pref)
	if res.Warning != "" {
		warn(ctx, res.Warning)
	}

	p := res.Provider
	if !res.Available || p == nil {
		p = uc.fallback()
	}

	result, err := p.Embed(ctx, text)
	if err != nil {
		logging.From(ctx).Warn("embedding provider failed", "provider", res.Name, "error", err)
		warn(ctx, warnEmbeddingCallFailed)
		result, err = uc.fallback().Embed(ctx, text)
	}
	if err != nil {
		logging.From(ctx).Error("embedding fallback failed", "error", err)
		return model.Embedding{}
	}

	uc.tracker.track(ctx, result.Provider, result.Model, result.Usage)
	return result.Vector
}

func (uc *EmbeddingUseCase) fallback() interfaces.EmbeddingProvider {
	if p, _, ok := uc.cascade.FallbackProvider(); ok {
		return p
	}
	return embedding.NewLocal(embedding.DefaultDimension)
}
