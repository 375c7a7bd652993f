package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

type costLedgerRepository struct {
	m *Memory
}

func (r *costLedgerRepository) Put(ctx context.Context, entry *model.CostLedgerEntry) error {
	if entry == nil {
		return goerr.New("cost ledger entry is required")
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.nextCostID++
	stored := *entry
	stored.ID = r.m.nextCostID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.m.now()
	}
	r.m.costs = append(r.m.costs, &stored)
	entry.ID = stored.ID
	entry.CreatedAt = stored.CreatedAt
	return nil
}

func (r *costLedgerRepository) ListByRequestID(ctx context.Context, requestID string) ([]*model.CostLedgerEntry, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	result := []*model.CostLedgerEntry{}
	for _, e := range r.m.costs {
		if e.RequestID == requestID {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}
