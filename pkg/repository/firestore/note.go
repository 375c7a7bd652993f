package firestore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type noteDoc struct {
	ID             int64                            `firestore:"ID"`
	AudioReference *string                          `firestore:"AudioReference"`
	Transcript     model.Transcript                 `firestore:"Transcript"`
	Reflection     model.Reflection                 `firestore:"Reflection"`
	Internal       model.ReflectionInternalMetadata `firestore:"Internal"`
	Embedding      firestore.Vector64               `firestore:"Embedding,omitempty"`
	CreatedAt      time.Time                        `firestore:"CreatedAt"`
	UpdatedAt      time.Time                        `firestore:"UpdatedAt"`
}

type linkDoc struct {
	NoteID        int64   `firestore:"NoteID"`
	RelatedNoteID int64   `firestore:"RelatedNoteID"`
	Similarity    float64 `firestore:"Similarity"`
}

func noteDocID(id model.NoteID) string {
	return fmt.Sprintf("%d", id)
}

func (d *noteDoc) toModel(links []model.RelatedNoteLink) *model.Note {
	reflection := d.Reflection
	reflection.Normalize()
	if links == nil {
		links = []model.RelatedNoteLink{}
	}
	return &model.Note{
		ID:             model.NoteID(d.ID),
		AudioReference: d.AudioReference,
		Transcript:     d.Transcript,
		Reflection:     reflection,
		RelatedNotes:   links,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type noteTx struct {
	f      *Firestore
	tx     *firestore.Transaction
	nextID int64
}

func (t *noteTx) RecentNoteEmbeddings(ctx context.Context, limit int) ([]*model.NoteEmbedding, error) {
	if limit <= 0 {
		return []*model.NoteEmbedding{}, nil
	}

	iter := t.tx.Documents(t.f.notes().OrderBy("ID", firestore.Desc).Limit(limit))
	defer iter.Stop()

	result := make([]*model.NoteEmbedding, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate recent notes")
		}

		var d noteDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal note", goerr.V("docID", doc.Ref.ID))
		}
		result = append(result, &model.NoteEmbedding{
			ID:        model.NoteID(d.ID),
			Embedding: model.Embedding(d.Embedding),
		})
	}
	return result, nil
}

func (t *noteTx) InsertNote(ctx context.Context, note *model.NewNote) (model.NoteID, error) {
	if note == nil {
		return 0, goerr.New("note is required")
	}
	if t.nextID != 0 {
		return 0, goerr.New("only one note can be inserted per transaction")
	}

	counterRef := t.f.counter(noteCounterDoc)
	current, err := readCounter(t.tx, counterRef)
	if err != nil {
		return 0, err
	}
	t.nextID = current + 1

	created := note.CreatedAt
	if created.IsZero() {
		created = t.f.now()
	}

	doc := &noteDoc{
		ID:             t.nextID,
		AudioReference: note.AudioReference,
		Transcript:     note.Transcript,
		Reflection:     note.Reflection,
		Internal:       note.Internal,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	if len(note.Embedding) > 0 {
		doc.Embedding = firestore.Vector64(note.Embedding)
	}

	if err := t.tx.Set(counterRef, map[string]any{"value": t.nextID}); err != nil {
		return 0, goerr.Wrap(err, "failed to update note counter")
	}
	if err := t.tx.Create(t.f.notes().Doc(noteDocID(model.NoteID(t.nextID))), doc); err != nil {
		return 0, goerr.Wrap(err, "failed to create note", goerr.V("id", t.nextID))
	}

	return model.NoteID(t.nextID), nil
}

func (t *noteTx) UpsertRelatedLink(ctx context.Context, link model.RelatedNoteLink) error {
	ref := t.f.notes().Doc(noteDocID(link.NoteID)).
		Collection(relatedLinksCollection).Doc(noteDocID(link.RelatedNoteID))

	doc := &linkDoc{
		NoteID:        int64(link.NoteID),
		RelatedNoteID: int64(link.RelatedNoteID),
		Similarity:    link.Similarity,
	}
	if err := t.tx.Set(ref, doc); err != nil {
		return goerr.Wrap(err, "failed to upsert related note link",
			goerr.V("note_id", link.NoteID),
			goerr.V("related_note_id", link.RelatedNoteID))
	}
	return nil
}

type noteRepository struct {
	f *Firestore
}

func (r *noteRepository) Get(ctx context.Context, id model.NoteID) (*model.Note, error) {
	snap, err := r.f.notes().Doc(noteDocID(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "note not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get note", goerr.V("id", id))
	}

	var d noteDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal note", goerr.V("id", id))
	}

	links, err := r.links(ctx, snap.Ref)
	if err != nil {
		return nil, err
	}
	return d.toModel(links), nil
}

func (r *noteRepository) List(ctx context.Context, limit int) ([]*model.Note, error) {
	iter := r.f.notes().OrderBy("ID", firestore.Desc).Limit(limit).Documents(ctx)
	defer iter.Stop()

	notes := make([]*model.Note, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate notes")
		}

		var d noteDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal note", goerr.V("docID", snap.Ref.ID))
		}

		links, err := r.links(ctx, snap.Ref)
		if err != nil {
			return nil, err
		}
		notes = append(notes, d.toModel(links))
	}
	return notes, nil
}

func (r *noteRepository) links(ctx context.Context, noteRef *firestore.DocumentRef) ([]model.RelatedNoteLink, error) {
	iter := noteRef.Collection(relatedLinksCollection).Documents(ctx)
	defer iter.Stop()

	links := []model.RelatedNoteLink{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate related note links", goerr.V("note", noteRef.ID))
		}

		var d linkDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal related note link")
		}
		links = append(links, model.RelatedNoteLink{
			NoteID:        model.NoteID(d.NoteID),
			RelatedNoteID: model.NoteID(d.RelatedNoteID),
			Similarity:    d.Similarity,
		})
	}

	sort.Slice(links, func(i, j int) bool {
		if links[i].Similarity != links[j].Similarity {
			return links[i].Similarity > links[j].Similarity
		}
		return links[i].RelatedNoteID > links[j].RelatedNoteID
	})
	return links, nil
}
