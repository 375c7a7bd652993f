package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	notesCollection            = "notes"
	relatedLinksCollection     = "related_links"
	costLedgerCollection       = "cost_ledger"
	reflectionEventsCollection = "reflection_events"
	countersCollection         = "counters"

	noteCounterDoc            = "note_counter"
	costLedgerCounterDoc      = "cost_ledger_counter"
	reflectionEventCounterDoc = "reflection_event_counter"
)

// readCounter reads the current counter value inside tx. A missing counter reads as zero.
func readCounter(tx *firestore.Transaction, ref *firestore.DocumentRef) (int64, error) {
	doc, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, goerr.Wrap(err, "failed to get counter", goerr.V("counter", ref.ID))
	}

	value, err := doc.DataAt("value")
	if err != nil {
		return 0, goerr.Wrap(err, "failed to get counter value", goerr.V("counter", ref.ID))
	}

	current, ok := value.(int64)
	if !ok {
		return 0, goerr.New("counter value is not of type int64", goerr.V("value", value))
	}
	return current, nil
}

// nextID increments a counter in its own transaction
func (f *Firestore) nextID(ctx context.Context, counterDoc string) (int64, error) {
	ref := f.counter(counterDoc)

	var next int64
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current, err := readCounter(tx, ref)
		if err != nil {
			return err
		}
		next = current + 1
		return tx.Set(ref, map[string]any{"value": next})
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next ID", goerr.V("counter", counterDoc))
	}

	return next, nil
}
