package usecase

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

const (
	// relatedCandidateLimit is how many recent notes are scored for linking
	relatedCandidateLimit = 50
	// relatedLinkLimit is how many links a new note keeps
	relatedLinkLimit = 3

	DefaultListLimit = 50
	MaxListLimit     = 200

	warnAudioStoreFailed = "Audio storage failed; the note was created without an audio reference."
)

// CreateNoteInput is a request to create a note from a transcript
type CreateNoteInput struct {
	Transcript         string
	AudioReference     *string
	TranscriptMetadata *model.TranscriptMetadata
}

type NoteUseCase struct {
	repo          interfaces.Repository
	reflection    *ReflectionUseCase
	embedding     *EmbeddingUseCase
	transcription *TranscriptionUseCase
	audioStore    interfaces.AudioStore
	now           func() time.Time
}

// notePipelineState is carried through every stage of note creation
type notePipelineState struct {
	transcript     string
	audioReference *string
	metadata       model.TranscriptMetadata
	reflection     *model.ReflectionResult
	embedding      model.Embedding
	noteID         model.NoteID
}

type noteStage struct {
	name string
	run  func(ctx context.Context, state *notePipelineState) error
}

// stages returns the note creation stages in execution order
func (uc *NoteUseCase) stages() []noteStage {
	return []noteStage{
		{name: "validate_transcript", run: uc.validateTranscript},
		{name: "reflect", run: uc.reflect},
		{name: "embed", run: uc.embed},
		{name: "persist", run: uc.persist},
	}
}

// CreateNote runs the note pipeline and returns the stored note
func (uc *NoteUseCase) CreateNote(ctx context.Context, input CreateNoteInput) (*model.Note, error) {
	state := &notePipelineState{
		transcript:     input.Transcript,
		audioReference: input.AudioReference,
		metadata:       model.DefaultTranscriptMetadata(),
	}
	if input.TranscriptMetadata != nil {
		state.metadata = *input.TranscriptMetadata
	}

	logger := logging.From(ctx).With("request_id", requestMeta(ctx).RequestID())
	for _, stage := range uc.stages() {
		logger.Debug("running note stage", "stage", stage.name)
		if err := stage.run(ctx, state); err != nil {
			return nil, goerr.Wrap(err, "note pipeline failed", goerr.V(StageKey, stage.name))
		}
	}

	return uc.GetNote(ctx, state.noteID)
}

func (uc *NoteUseCase) validateTranscript(ctx context.Context, state *notePipelineState) error {
	state.transcript = strings.TrimSpace(state.transcript)
	if state.transcript == "" {
		return goerr.Wrap(ErrInvalidInput, "transcript is required")
	}
	return nil
}

func (uc *NoteUseCase) reflect(ctx context.Context, state *notePipelineState) error {
	state.reflection = uc.reflection.Reflect(ctx, state.transcript)
	return nil
}

func (uc *NoteUseCase) embed(ctx context.Context, state *notePipelineState) error {
	state.embedding = uc.embedding.Embed(ctx, state.transcript)
	return nil
}

func (uc *NoteUseCase) persist(ctx context.Context, state *notePipelineState) error {
	err := uc.repo.RunInTx(ctx, func(ctx context.Context, tx interfaces.NoteTx) error {
		recent, err := tx.RecentNoteEmbeddings(ctx, relatedCandidateLimit)
		if err != nil {
			return goerr.Wrap(err, "failed to read recent notes")
		}

		id, err := tx.InsertNote(ctx, &model.NewNote{
			AudioReference: state.audioReference,
			Transcript: model.Transcript{
				Text:     state.transcript,
				Metadata: state.metadata,
			},
			Reflection: state.reflection.Reflection,
			Internal:   state.reflection.Internal,
			Embedding:  state.embedding,
			CreatedAt:  uc.now(),
		})
		if err != nil {
			return goerr.Wrap(err, "failed to insert note")
		}

		for _, link := range rankRelated(id, state.embedding, recent) {
			if err := tx.UpsertRelatedLink(ctx, link); err != nil {
				return goerr.Wrap(err, "failed to store related link",
					goerr.V(NoteIDKey, id), goerr.V("related_note_id", link.RelatedNoteID))
			}
		}

		state.noteID = id
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to persist note")
	}
	return nil
}

// rankRelated scores candidates against vec and keeps the best links. Candidates
// are ordered newest first, and the stable sort keeps newer notes ahead on ties.
func rankRelated(id model.NoteID, vec model.Embedding, candidates []*model.NoteEmbedding) []model.RelatedNoteLink {
	links := make([]model.RelatedNoteLink, 0, len(candidates))
	for _, c := range candidates {
		links = append(links, model.RelatedNoteLink{
			NoteID:        id,
			RelatedNoteID: c.ID,
			Similarity:    model.CosineSimilarity(vec, c.Embedding),
		})
	}

	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Similarity > links[j].Similarity
	})
	if len(links) > relatedLinkLimit {
		links = links[:relatedLinkLimit]
	}
	return links
}

// CreateNoteFromAudio transcribes an upload, keeps the audio in the configured
// store and creates a note from the transcript
func (uc *NoteUseCase) CreateNoteFromAudio(ctx context.Context, audio *interfaces.AudioInput) (*model.Note, error) {
	transcript := uc.transcription.Transcribe(ctx, audio)
	if strings.TrimSpace(transcript.Text) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "upload produced an empty transcript",
			goerr.V("filename", audio.Filename), goerr.V("model", transcript.Metadata.Model))
	}

	var ref *string
	saved, err := uc.audioStore.Save(ctx, audio.Filename, audio.ContentType, bytes.NewReader(audio.Data))
	switch {
	case err != nil:
		logging.From(ctx).Warn("failed to store audio", "error", err, "filename", audio.Filename)
		warn(ctx, warnAudioStoreFailed)
	case saved != "":
		ref = &saved
	}

	return uc.CreateNote(ctx, CreateNoteInput{
		Transcript:         transcript.Text,
		AudioReference:     ref,
		TranscriptMetadata: &transcript.Metadata,
	})
}

// GetNote returns a committed note with its related links
func (uc *NoteUseCase) GetNote(ctx context.Context, id model.NoteID) (*model.Note, error) {
	note, err := uc.repo.Note().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrNoteNotFound, "note not found", goerr.V(NoteIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get note", goerr.V(NoteIDKey, id))
	}
	return note, nil
}

// ListNotes returns up to limit notes, newest first. limit must be within 1 and MaxListLimit.
func (uc *NoteUseCase) ListNotes(ctx context.Context, limit int) ([]*model.Note, error) {
	if limit < 1 || limit > MaxListLimit {
		return nil, goerr.Wrap(ErrInvalidInput, "limit is out of range", goerr.V("limit", limit))
	}

	notes, err := uc.repo.Note().List(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list notes")
	}
	return notes, nil
}
