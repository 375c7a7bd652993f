package model

import "github.com/secmon-lab/echonotes/pkg/domain/types"

// TranscriptMetadata describes how a transcript was produced
type TranscriptMetadata struct {
	Model           string                 `json:"model"`
	Language        *string                `json:"language"`
	DurationSeconds *float64               `json:"duration_seconds"`
	Source          types.TranscriptSource `json:"source"`
}

// Transcript is the text of a note together with its provenance.
// It is immutable once produced.
type Transcript struct {
	Text     string             `json:"text"`
	Metadata TranscriptMetadata `json:"metadata"`
}

// DefaultTranscriptMetadata is used for transcripts submitted without metadata
func DefaultTranscriptMetadata() TranscriptMetadata {
	return TranscriptMetadata{
		Model:  "external-transcript",
		Source: types.TranscriptSourceManual,
	}
}

// UnavailableTranscript is returned when audio could not be transcribed
func UnavailableTranscript() *Transcript {
	return &Transcript{
		Text: "",
		Metadata: TranscriptMetadata{
			Model:  "whisper-unavailable",
			Source: types.TranscriptSourceAudioUnprocessed,
		},
	}
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
