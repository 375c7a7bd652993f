package usecase

import (
	"context"
	"time"

	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

const warnCostLedgerPersistence = "Cost ledger persistence failed for this request."

// requestMeta returns the ledger of the current request. Calls made outside a
// request record into a detached ledger.
func requestMeta(ctx context.Context) *model.RequestMeta {
	if meta := model.RequestMetaFromContext(ctx); meta != nil {
		return meta
	}
	return model.NewRequestMeta("")
}

func warn(ctx context.Context, msg string) {
	meta := requestMeta(ctx)
	meta.AddWarning(msg)
	logging.From(ctx).Warn("request warning", "request_id", meta.RequestID(), "warning", msg)
}

// tracker records provider usage in the request ledger and the cost ledger
type tracker struct {
	repo    interfaces.Repository
	appName string
	now     func() time.Time
}

func (t *tracker) track(ctx context.Context, providerName, modelName string, usage model.LLMUsage) {
	meta := requestMeta(ctx)
	meta.AddCost(usage.PromptTokens, usage.CompletionTokens, usage.USD)

	entry := &model.CostLedgerEntry{
		App:              t.appName,
		RequestID:        meta.RequestID(),
		Provider:         providerName,
		Model:            modelName,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		USD:              model.Round8(usage.USD),
		CreatedAt:        t.now(),
	}
	if err := t.repo.CostLedger().Put(ctx, entry); err != nil {
		logging.From(ctx).Warn("failed to persist cost ledger row", "error", err, "provider", providerName)
		warn(ctx, warnCostLedgerPersistence)
	}
}
