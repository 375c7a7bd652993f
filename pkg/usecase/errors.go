package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// ErrInvalidInput is returned before any side effect when a request is unusable
	ErrInvalidInput = errors.New("invalid input")

	ErrNoteNotFound = errors.New("note not found")
)

// Context keys for error values
const (
	NoteIDKey    = "note_id"
	RequestIDKey = "request_id"
	StageKey     = "stage"
)
