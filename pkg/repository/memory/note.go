package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

type noteRepository struct {
	m *Memory
}

func (r *noteRepository) Get(ctx context.Context, id model.NoteID) (*model.Note, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	rec, exists := r.m.notes[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "note not found", goerr.V("id", id))
	}
	return r.m.buildNote(rec), nil
}

func (r *noteRepository) List(ctx context.Context, limit int) ([]*model.Note, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	ids := r.m.sortedNoteIDs()
	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	notes := make([]*model.Note, 0, len(ids))
	for _, id := range ids {
		notes = append(notes, r.m.buildNote(r.m.notes[id]))
	}
	return notes, nil
}

// buildNote returns a deep copy with related links attached. Caller must hold the lock.
func (m *Memory) buildNote(rec *noteRecord) *model.Note {
	return &model.Note{
		ID:             rec.note.ID,
		AudioReference: copyStringPtr(rec.note.AudioReference),
		Transcript:     copyTranscript(rec.note.Transcript),
		Reflection:     copyReflection(rec.note.Reflection),
		RelatedNotes:   m.relatedLinks(rec.note.ID),
		CreatedAt:      rec.note.CreatedAt,
		UpdatedAt:      rec.note.UpdatedAt,
	}
}
