package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/usecase"
	"github.com/secmon-lab/echonotes/pkg/utils/safe"
)

type rootPayload struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type healthPayload struct {
	Status string `json:"status"`
}

type echoRequest struct {
	Transcript string `json:"transcript"`
}

type createNoteRequest struct {
	Transcript         string                    `json:"transcript"`
	AudioReference     *string                   `json:"audio_reference"`
	TranscriptMetadata *model.TranscriptMetadata `json:"transcript_metadata"`
}

type listNotesResponse struct {
	Notes []*model.Note `json:"notes"`
}

type costsResponse struct {
	Entries []*model.CostLedgerEntry `json:"entries"`
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	respond(w, r, rootPayload{Name: s.appName, Status: "ok"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	respond(w, r, healthPayload{Status: "ok"})
}

// tooLarge reports err as ErrPayloadTooLarge when a body limit was hit
func tooLarge(err error, limit int64) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return goerr.Wrap(ErrPayloadTooLarge, "request body exceeds limit", goerr.V("limit", limit))
	}
	return nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if e := tooLarge(err, s.maxBodyBytes); e != nil {
			return e
		}
		return goerr.Wrap(usecase.ErrInvalidInput, "malformed JSON body", goerr.V("cause", err.Error()))
	}
	return nil
}

func (s *Server) echoHandler(w http.ResponseWriter, r *http.Request) {
	var req echoRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	result := s.uc.Reflection.Reflect(r.Context(), req.Transcript)
	respond(w, r, result.Reflection)
}

// readUpload reads the multipart "file" field
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*interfaces.AudioInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		if e := tooLarge(err, s.maxUploadBytes); e != nil {
			return nil, e
		}
		return nil, goerr.Wrap(usecase.ErrInvalidInput, "multipart field 'file' is required", goerr.V("cause", err.Error()))
	}
	defer safe.Close(r.Context(), file)

	data, err := io.ReadAll(file)
	if err != nil {
		if e := tooLarge(err, s.maxUploadBytes); e != nil {
			return nil, e
		}
		return nil, goerr.Wrap(usecase.ErrInvalidInput, "failed to read upload", goerr.V("cause", err.Error()))
	}

	filename := header.Filename
	if filename == "" {
		filename = "upload.wav"
	}
	return &interfaces.AudioInput{
		Filename:    filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (s *Server) transcribeHandler(w http.ResponseWriter, r *http.Request) {
	audio, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, r, s.uc.Transcription.Transcribe(r.Context(), audio))
}

func (s *Server) createNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.TranscriptMetadata != nil && !req.TranscriptMetadata.Source.IsValid() {
		respondError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "invalid transcript source",
			goerr.V("source", req.TranscriptMetadata.Source)))
		return
	}

	note, err := s.uc.Note.CreateNote(r.Context(), usecase.CreateNoteInput{
		Transcript:         req.Transcript,
		AudioReference:     req.AudioReference,
		TranscriptMetadata: req.TranscriptMetadata,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, note)
}

func (s *Server) createAudioNoteHandler(w http.ResponseWriter, r *http.Request) {
	audio, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	note, err := s.uc.Note.CreateNoteFromAudio(r.Context(), audio)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, note)
}

func (s *Server) listNotesHandler(w http.ResponseWriter, r *http.Request) {
	limit := usecase.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "limit must be an integer", goerr.V("limit", raw)))
			return
		}
		limit = v
	}

	notes, err := s.uc.Note.ListNotes(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if notes == nil {
		notes = []*model.Note{}
	}
	respond(w, r, listNotesResponse{Notes: notes})
}

func (s *Server) getNoteHandler(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "note ID must be an integer", goerr.V("id", raw)))
		return
	}

	note, err := s.uc.Note.GetNote(r.Context(), model.NoteID(id))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, note)
}

func (s *Server) costsHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.uc.Cost.ListByRequest(r.Context(), chi.URLParam(r, "request_id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*model.CostLedgerEntry{}
	}
	respond(w, r, costsResponse{Entries: entries})
}
