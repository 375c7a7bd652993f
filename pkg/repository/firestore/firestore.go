package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
)

type Firestore struct {
	client           *firestore.Client
	collectionPrefix string
	now              func() time.Time
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collectionPrefix = prefix
	}
}

// WithClock replaces the timestamp source
func WithClock(now func() time.Time) Option {
	return func(f *Firestore) {
		f.now = now
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var (
		client *firestore.Client
		err    error
	)
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) collection(name string) string {
	if f.collectionPrefix != "" {
		return f.collectionPrefix + "_" + name
	}
	return name
}

func (f *Firestore) notes() *firestore.CollectionRef {
	return f.client.Collection(f.collection(notesCollection))
}

func (f *Firestore) counter(name string) *firestore.DocumentRef {
	return f.client.Collection(f.collection(countersCollection)).Doc(name)
}

func (f *Firestore) Note() interfaces.NoteRepository {
	return &noteRepository{f: f}
}

func (f *Firestore) CostLedger() interfaces.CostLedgerRepository {
	return &costLedgerRepository{f: f}
}

func (f *Firestore) ReflectionEvent() interfaces.ReflectionEventRepository {
	return &reflectionEventRepository{f: f}
}

// RunInTx runs fn in a Firestore transaction. Firestore itself rejects reads after writes.
func (f *Firestore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.NoteTx) error) error {
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &noteTx{f: f, tx: tx})
	})
	if err != nil {
		return goerr.Wrap(err, "note transaction failed")
	}
	return nil
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
