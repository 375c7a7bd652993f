package model_test

import (
	"context"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

func TestRequestMeta(t *testing.T) {
	t.Run("accumulates cost and warnings", func(t *testing.T) {
		meta := model.NewRequestMeta("req-1")
		meta.AddCost(10, 5, 0.000006)
		meta.AddCost(3, 0, 0.00000006)
		meta.AddWarning("first")
		meta.AddWarning("second")

		snap := meta.Snapshot()
		gt.Value(t, snap.RequestID).Equal("req-1")
		gt.Value(t, snap.Cost.PromptTokens).Equal(13)
		gt.Value(t, snap.Cost.CompletionTokens).Equal(5)
		gt.Value(t, snap.Cost.USD).Equal(0.00000606)
		gt.Array(t, snap.Warnings).Equal([]string{"first", "second"})
	})

	t.Run("new ledger has empty warnings", func(t *testing.T) {
		snap := model.NewRequestMeta("req-2").Snapshot()
		gt.Value(t, snap.Warnings != nil).Equal(true)
		gt.Array(t, snap.Warnings).Length(0)
	})

	t.Run("negative usage is ignored", func(t *testing.T) {
		meta := model.NewRequestMeta("req-3")
		meta.AddCost(5, 5, 0.1)
		meta.AddCost(-5, -5, -0.1)
		gt.Value(t, meta.Cost()).Equal(model.Cost{PromptTokens: 5, CompletionTokens: 5, USD: 0.1})
	})

	t.Run("snapshot is detached", func(t *testing.T) {
		meta := model.NewRequestMeta("req-4")
		meta.AddWarning("a")
		snap := meta.Snapshot()
		meta.AddWarning("b")
		gt.Array(t, snap.Warnings).Length(1)
	})

	t.Run("concurrent updates", func(t *testing.T) {
		meta := model.NewRequestMeta("req-5")
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				meta.AddCost(1, 2, 0)
				meta.AddWarning("w")
			}()
		}
		wg.Wait()

		gt.Value(t, meta.Cost().PromptTokens).Equal(50)
		gt.Value(t, meta.Cost().CompletionTokens).Equal(100)
		gt.Array(t, meta.Warnings()).Length(50)
	})
}

func TestRequestMetaContext(t *testing.T) {
	ctx := context.Background()
	gt.Value(t, model.RequestMetaFromContext(ctx) == nil).Equal(true)

	meta := model.NewRequestMeta("req-ctx")
	ctx = model.ContextWithRequestMeta(ctx, meta)
	gt.Value(t, model.RequestMetaFromContext(ctx)).Equal(meta)
}

func TestRound8(t *testing.T) {
	gt.Value(t, model.Round8(0.123456789)).Equal(0.12345679)
	gt.Value(t, model.Round8(0)).Equal(0.0)
}
