package interfaces

import (
	"context"

	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

// Repository defines the interface for data persistence
type Repository interface {
	Note() NoteRepository
	CostLedger() CostLedgerRepository
	ReflectionEvent() ReflectionEventRepository

	// RunInTx runs fn as a single unit of work. All writes made through tx are
	// committed when fn returns nil and discarded otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx NoteTx) error) error

	Close() error
}

// NoteTx is the write scope of note creation. Reads must precede writes.
type NoteTx interface {
	// RecentNoteEmbeddings returns up to limit notes ordered by ID descending
	RecentNoteEmbeddings(ctx context.Context, limit int) ([]*model.NoteEmbedding, error)

	// InsertNote stores a note and returns its assigned ID
	InsertNote(ctx context.Context, note *model.NewNote) (model.NoteID, error)

	// UpsertRelatedLink stores a link, replacing any link with the same note pair
	UpsertRelatedLink(ctx context.Context, link model.RelatedNoteLink) error
}

// NoteRepository reads committed notes
type NoteRepository interface {
	// Get retrieves a note with its related links sorted by descending similarity
	Get(ctx context.Context, id model.NoteID) (*model.Note, error)

	// List retrieves up to limit notes, newest first
	List(ctx context.Context, limit int) ([]*model.Note, error)
}

// CostLedgerRepository persists per-call usage rows
type CostLedgerRepository interface {
	Put(ctx context.Context, entry *model.CostLedgerEntry) error
	ListByRequestID(ctx context.Context, requestID string) ([]*model.CostLedgerEntry, error)
}

// ReflectionEventRepository persists reflection audit events
type ReflectionEventRepository interface {
	Put(ctx context.Context, event *model.ReflectionEvent) error
}
