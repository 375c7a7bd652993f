package model

import "time"

// NoteID is assigned by the store and increases monotonically
type NoteID int64

// Note is a persisted transcript with its reflection and links to related prior notes.
// A note's own related links are fixed at creation.
type Note struct {
	ID             NoteID            `json:"id"`
	AudioReference *string           `json:"audio_reference"`
	Transcript     Transcript        `json:"transcript"`
	Reflection     Reflection        `json:"reflection"`
	RelatedNotes   []RelatedNoteLink `json:"related_notes"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// NewNote is the input of a note insert; the store assigns ID and timestamps
type NewNote struct {
	AudioReference *string
	Transcript     Transcript
	Reflection     Reflection
	Internal       ReflectionInternalMetadata
	Embedding      Embedding
	CreatedAt      time.Time
}

// RelatedNoteLink is a directed similarity edge from a new note to a prior note
type RelatedNoteLink struct {
	NoteID        NoteID  `json:"note_id"`
	RelatedNoteID NoteID  `json:"related_note_id"`
	Similarity    float64 `json:"similarity"`
}

// NoteEmbedding is the minimal projection of a note needed for similarity linking
type NoteEmbedding struct {
	ID        NoteID
	Embedding Embedding
}
