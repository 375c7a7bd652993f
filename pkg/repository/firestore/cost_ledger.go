package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"google.golang.org/api/iterator"
)

type costLedgerRepository struct {
	f *Firestore
}

func (r *costLedgerRepository) Put(ctx context.Context, entry *model.CostLedgerEntry) error {
	if entry == nil {
		return goerr.New("cost ledger entry is required")
	}

	id, err := r.f.nextID(ctx, costLedgerCounterDoc)
	if err != nil {
		return err
	}

	stored := *entry
	stored.ID = id
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.f.now()
	}

	ref := r.f.client.Collection(r.f.collection(costLedgerCollection)).Doc(fmt.Sprintf("%d", id))
	if _, err := ref.Set(ctx, &stored); err != nil {
		return goerr.Wrap(err, "failed to put cost ledger entry", goerr.V("request_id", entry.RequestID))
	}

	entry.ID = stored.ID
	entry.CreatedAt = stored.CreatedAt
	return nil
}

func (r *costLedgerRepository) ListByRequestID(ctx context.Context, requestID string) ([]*model.CostLedgerEntry, error) {
	iter := r.f.client.Collection(r.f.collection(costLedgerCollection)).
		Where("RequestID", "==", requestID).
		OrderBy("ID", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	entries := make([]*model.CostLedgerEntry, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cost ledger", goerr.V("request_id", requestID))
		}

		var e model.CostLedgerEntry
		if err := snap.DataTo(&e); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal cost ledger entry")
		}
		entries = append(entries, &e)
	}
	return entries, nil
}
