package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

type noteRow struct {
	ID                     int64          `db:"id"`
	AudioReference         sql.NullString `db:"audio_reference"`
	TranscriptText         string         `db:"transcript_text"`
	TranscriptMetadataJSON string         `db:"transcript_metadata_json"`
	ReflectionJSON         string         `db:"reflection_json"`
	CreatedAt              string         `db:"created_at"`
	UpdatedAt              string         `db:"updated_at"`
}

type embeddingRow struct {
	ID            int64  `db:"id"`
	EmbeddingJSON string `db:"embedding_json"`
}

type linkRow struct {
	NoteID        int64   `db:"note_id"`
	RelatedNoteID int64   `db:"related_note_id"`
	Similarity    float64 `db:"similarity"`
}

const noteColumns = "id, audio_reference, transcript_text, transcript_metadata_json, reflection_json, created_at, updated_at"

func (r *noteRow) toModel(links []model.RelatedNoteLink) (*model.Note, error) {
	var meta model.TranscriptMetadata
	if err := json.Unmarshal([]byte(r.TranscriptMetadataJSON), &meta); err != nil {
		return nil, goerr.Wrap(err, "failed to decode transcript metadata", goerr.V("id", r.ID))
	}

	var reflection model.Reflection
	if err := json.Unmarshal([]byte(r.ReflectionJSON), &reflection); err != nil {
		return nil, goerr.Wrap(err, "failed to decode reflection", goerr.V("id", r.ID))
	}
	reflection.Normalize()

	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	note := &model.Note{
		ID: model.NoteID(r.ID),
		Transcript: model.Transcript{
			Text:     r.TranscriptText,
			Metadata: meta,
		},
		Reflection:   reflection,
		RelatedNotes: links,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if r.AudioReference.Valid {
		note.AudioReference = &r.AudioReference.String
	}
	if note.RelatedNotes == nil {
		note.RelatedNotes = []model.RelatedNoteLink{}
	}
	return note, nil
}

type noteTx struct {
	tx    *sqlx.Tx
	now   func() time.Time
	wrote bool
}

func (t *noteTx) RecentNoteEmbeddings(ctx context.Context, limit int) ([]*model.NoteEmbedding, error) {
	if t.wrote {
		return nil, goerr.New("read after write in note transaction")
	}
	if limit <= 0 {
		return []*model.NoteEmbedding{}, nil
	}

	var rows []embeddingRow
	query := t.tx.Rebind("SELECT id, embedding_json FROM notes ORDER BY id DESC LIMIT ?")
	if err := t.tx.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, goerr.Wrap(err, "failed to select recent notes", goerr.V("limit", limit))
	}

	result := make([]*model.NoteEmbedding, 0, len(rows))
	for _, row := range rows {
		var vec model.Embedding
		if err := json.Unmarshal([]byte(row.EmbeddingJSON), &vec); err != nil {
			return nil, goerr.Wrap(err, "failed to decode embedding", goerr.V("id", row.ID))
		}
		result = append(result, &model.NoteEmbedding{ID: model.NoteID(row.ID), Embedding: vec})
	}
	return result, nil
}

func (t *noteTx) InsertNote(ctx context.Context, note *model.NewNote) (model.NoteID, error) {
	if note == nil {
		return 0, goerr.New("note is required")
	}
	t.wrote = true

	metaJSON, err := json.Marshal(note.Transcript.Metadata)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to encode transcript metadata")
	}
	reflectionJSON, err := json.Marshal(note.Reflection)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to encode reflection")
	}
	internalJSON, err := json.Marshal(note.Internal)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to encode reflection internal metadata")
	}
	vec := note.Embedding
	if vec == nil {
		vec = model.Embedding{}
	}
	embeddingJSON, err := json.Marshal(vec)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to encode embedding")
	}

	created := note.CreatedAt
	if created.IsZero() {
		created = t.now()
	}
	ts := formatTime(created)

	var audioRef sql.NullString
	if note.AudioReference != nil {
		audioRef = sql.NullString{String: *note.AudioReference, Valid: true}
	}

	query := t.tx.Rebind(`INSERT INTO notes
		(audio_reference, transcript_text, transcript_metadata_json, reflection_json,
		 reflection_internal_json, embedding_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	if err := t.tx.QueryRowxContext(ctx, query,
		audioRef, note.Transcript.Text, string(metaJSON), string(reflectionJSON),
		string(internalJSON), string(embeddingJSON), ts, ts,
	).Scan(&id); err != nil {
		return 0, goerr.Wrap(err, "failed to insert note")
	}

	return model.NoteID(id), nil
}

func (t *noteTx) UpsertRelatedLink(ctx context.Context, link model.RelatedNoteLink) error {
	t.wrote = true

	query := t.tx.Rebind(`INSERT INTO related_note_links (note_id, related_note_id, similarity)
		VALUES (?, ?, ?)
		ON CONFLICT (note_id, related_note_id) DO UPDATE SET similarity = excluded.similarity`)
	if _, err := t.tx.ExecContext(ctx, query, int64(link.NoteID), int64(link.RelatedNoteID), link.Similarity); err != nil {
		return goerr.Wrap(err, "failed to upsert related note link",
			goerr.V("note_id", link.NoteID),
			goerr.V("related_note_id", link.RelatedNoteID))
	}
	return nil
}

type noteRepository struct {
	d *DB
}

func (r *noteRepository) Get(ctx context.Context, id model.NoteID) (*model.Note, error) {
	var row noteRow
	query := r.d.db.Rebind("SELECT " + noteColumns + " FROM notes WHERE id = ?")
	if err := r.d.db.GetContext(ctx, &row, query, int64(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "note not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get note", goerr.V("id", id))
	}

	links, err := r.links(ctx, []int64{row.ID})
	if err != nil {
		return nil, err
	}

	return row.toModel(links[row.ID])
}

func (r *noteRepository) List(ctx context.Context, limit int) ([]*model.Note, error) {
	var rows []noteRow
	query := r.d.db.Rebind("SELECT " + noteColumns + " FROM notes ORDER BY id DESC LIMIT ?")
	if err := r.d.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, goerr.Wrap(err, "failed to list notes", goerr.V("limit", limit))
	}

	notes := make([]*model.Note, 0, len(rows))
	if len(rows) == 0 {
		return notes, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	links, err := r.links(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		note, err := rows[i].toModel(links[rows[i].ID])
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// links returns related links grouped by source note, each group sorted by descending similarity
func (r *noteRepository) links(ctx context.Context, noteIDs []int64) (map[int64][]model.RelatedNoteLink, error) {
	query, args, err := sqlx.In(`SELECT note_id, related_note_id, similarity
		FROM related_note_links WHERE note_id IN (?)
		ORDER BY note_id, similarity DESC, related_note_id DESC`, noteIDs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build link query")
	}

	var rows []linkRow
	if err := r.d.db.SelectContext(ctx, &rows, r.d.db.Rebind(query), args...); err != nil {
		return nil, goerr.Wrap(err, "failed to select related note links")
	}

	result := make(map[int64][]model.RelatedNoteLink, len(noteIDs))
	for _, row := range rows {
		result[row.NoteID] = append(result[row.NoteID], model.RelatedNoteLink{
			NoteID:        model.NoteID(row.NoteID),
			RelatedNoteID: model.NoteID(row.RelatedNoteID),
			Similarity:    row.Similarity,
		})
	}
	return result, nil
}
