package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

// Memory is an in-process repository. All record sets share one lock so that
// RunInTx can stage writes and apply them atomically.
type Memory struct {
	mu sync.RWMutex

	notes      map[model.NoteID]*noteRecord
	links      map[linkKey]model.RelatedNoteLink
	nextNoteID model.NoteID

	costs      []*model.CostLedgerEntry
	nextCostID int64

	events      []*model.ReflectionEvent
	nextEventID int64

	now func() time.Time
}

type noteRecord struct {
	note      model.Note
	internal  model.ReflectionInternalMetadata
	embedding model.Embedding
}

type linkKey struct {
	noteID    model.NoteID
	relatedID model.NoteID
}

var _ interfaces.Repository = &Memory{}

// Option configures Memory
type Option func(*Memory)

// WithClock replaces the timestamp source
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.now = now
	}
}

func New(opts ...Option) *Memory {
	m := &Memory{
		notes: make(map[model.NoteID]*noteRecord),
		links: make(map[linkKey]model.RelatedNoteLink),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Note() interfaces.NoteRepository {
	return &noteRepository{m: m}
}

func (m *Memory) CostLedger() interfaces.CostLedgerRepository {
	return &costLedgerRepository{m: m}
}

func (m *Memory) ReflectionEvent() interfaces.ReflectionEventRepository {
	return &reflectionEventRepository{m: m}
}

func (m *Memory) Close() error {
	return nil
}

// RunInTx holds the write lock for the whole unit of work. Staged writes become
// visible only when fn succeeds.
func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.NoteTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{m: m, nextID: m.nextNoteID}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	for _, rec := range tx.notes {
		m.notes[rec.note.ID] = rec
	}
	for _, link := range tx.links {
		m.links[linkKey{noteID: link.NoteID, relatedID: link.RelatedNoteID}] = link
	}
	m.nextNoteID = tx.nextID
	return nil
}

type memoryTx struct {
	m      *Memory
	notes  []*noteRecord
	links  []model.RelatedNoteLink
	nextID model.NoteID
	wrote  bool
}

func (tx *memoryTx) RecentNoteEmbeddings(ctx context.Context, limit int) ([]*model.NoteEmbedding, error) {
	if tx.wrote {
		return nil, goerr.New("read after write in note transaction")
	}
	if limit <= 0 {
		return []*model.NoteEmbedding{}, nil
	}

	ids := tx.m.sortedNoteIDs()
	if len(ids) > limit {
		ids = ids[:limit]
	}

	result := make([]*model.NoteEmbedding, 0, len(ids))
	for _, id := range ids {
		rec := tx.m.notes[id]
		result = append(result, &model.NoteEmbedding{
			ID:        id,
			Embedding: copyEmbedding(rec.embedding),
		})
	}
	return result, nil
}

func (tx *memoryTx) InsertNote(ctx context.Context, note *model.NewNote) (model.NoteID, error) {
	if note == nil {
		return 0, goerr.New("note is required")
	}
	tx.wrote = true
	tx.nextID++

	created := note.CreatedAt
	if created.IsZero() {
		created = tx.m.now()
	}

	rec := &noteRecord{
		note: model.Note{
			ID:             tx.nextID,
			AudioReference: copyStringPtr(note.AudioReference),
			Transcript:     copyTranscript(note.Transcript),
			Reflection:     copyReflection(note.Reflection),
			CreatedAt:      created,
			UpdatedAt:      created,
		},
		internal:  note.Internal,
		embedding: copyEmbedding(note.Embedding),
	}
	tx.notes = append(tx.notes, rec)
	return rec.note.ID, nil
}

func (tx *memoryTx) UpsertRelatedLink(ctx context.Context, link model.RelatedNoteLink) error {
	tx.wrote = true
	for i, staged := range tx.links {
		if staged.NoteID == link.NoteID && staged.RelatedNoteID == link.RelatedNoteID {
			tx.links[i] = link
			return nil
		}
	}
	tx.links = append(tx.links, link)
	return nil
}

// sortedNoteIDs returns committed note IDs newest first. Caller must hold the lock.
func (m *Memory) sortedNoteIDs() []model.NoteID {
	ids := make([]model.NoteID, 0, len(m.notes))
	for id := range m.notes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids
}

// relatedLinks returns the links of a note sorted by descending similarity. Caller must hold the lock.
func (m *Memory) relatedLinks(id model.NoteID) []model.RelatedNoteLink {
	links := []model.RelatedNoteLink{}
	for key, link := range m.links {
		if key.noteID == id {
			links = append(links, link)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].Similarity != links[j].Similarity {
			return links[i].Similarity > links[j].Similarity
		}
		return links[i].RelatedNoteID > links[j].RelatedNoteID
	})
	return links
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyFloatPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func copyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func copyEmbedding(e model.Embedding) model.Embedding {
	if e == nil {
		return nil
	}
	out := make(model.Embedding, len(e))
	copy(out, e)
	return out
}

func copyTranscript(t model.Transcript) model.Transcript {
	return model.Transcript{
		Text: t.Text,
		Metadata: model.TranscriptMetadata{
			Model:           t.Metadata.Model,
			Language:        copyStringPtr(t.Metadata.Language),
			DurationSeconds: copyFloatPtr(t.Metadata.DurationSeconds),
			Source:          t.Metadata.Source,
		},
	}
}

func copyReflection(r model.Reflection) model.Reflection {
	return model.Reflection{
		Title:        r.Title,
		Summary:      r.Summary,
		Themes:       copyStrings(r.Themes),
		Questions:    copyStrings(r.Questions),
		NextThoughts: copyStrings(r.NextThoughts),
		Confidence:   r.Confidence,
	}
}
