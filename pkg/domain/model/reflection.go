package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
)

// Reflection is the structured interpretation of a transcript.
// It is produced once per transcript and never mutated afterwards.
type Reflection struct {
	Title        string           `json:"title"`
	Summary      string           `json:"summary"`
	Themes       []string         `json:"themes"`
	Questions    []string         `json:"questions"`
	NextThoughts []string         `json:"next_thoughts"`
	Confidence   types.Confidence `json:"confidence"`
}

// ErrInvalidReflection is returned when a reflection does not have the required shape
var ErrInvalidReflection = goerr.New("invalid reflection")

// Validate checks that the reflection carries every required field
func (r *Reflection) Validate() error {
	if r.Title == "" {
		return goerr.Wrap(ErrInvalidReflection, "title is required")
	}
	if r.Summary == "" {
		return goerr.Wrap(ErrInvalidReflection, "summary is required")
	}
	if !r.Confidence.IsValid() {
		return goerr.Wrap(ErrInvalidReflection, "invalid confidence", goerr.V("confidence", r.Confidence))
	}
	return nil
}

// Normalize replaces nil lists with empty ones so that clients always see arrays
func (r *Reflection) Normalize() {
	if r.Themes == nil {
		r.Themes = []string{}
	}
	if r.Questions == nil {
		r.Questions = []string{}
	}
	if r.NextThoughts == nil {
		r.NextThoughts = []string{}
	}
}

// ReflectionInternalMetadata is derived from a reflection's confidence and stored
// for audit only. It is never returned to API clients.
type ReflectionInternalMetadata struct {
	InterpretationLevel types.InterpretationLevel `json:"interpretation_level"`
	AmbiguityDetected   bool                      `json:"ambiguity_detected"`
}

// NewReflectionInternalMetadata derives internal metadata from the reflection confidence
func NewReflectionInternalMetadata(confidence types.Confidence) ReflectionInternalMetadata {
	ambiguous := confidence != types.ConfidenceHigh
	level := types.InterpretationLevelLow
	if ambiguous {
		level = types.InterpretationLevelMedium
	}
	return ReflectionInternalMetadata{
		InterpretationLevel: level,
		AmbiguityDetected:   ambiguous,
	}
}

// ReflectionResult bundles the public reflection with its internal metadata
type ReflectionResult struct {
	Reflection Reflection
	Internal   ReflectionInternalMetadata
}

// EmptyTranscriptReflection is returned for blank transcripts without calling any provider
func EmptyTranscriptReflection() *ReflectionResult {
	return &ReflectionResult{
		Reflection: Reflection{
			Title:        "Empty transcript",
			Summary:      "No clear transcript content was provided.",
			Themes:       []string{"unclear input"},
			Questions:    []string{"Could you provide more detail in a follow-up note?"},
			NextThoughts: []string{"Possible area to expand: the core topic you intended to capture."},
			Confidence:   types.ConfidenceLow,
		},
		Internal: ReflectionInternalMetadata{
			InterpretationLevel: types.InterpretationLevelLow,
			AmbiguityDetected:   true,
		},
	}
}

// FallbackReflection substitutes for provider output that could not be parsed
func FallbackReflection() *Reflection {
	return &Reflection{
		Title:        "Fallback reflection",
		Summary:      "The transcript was processed, but structured reflection parsing was incomplete.",
		Themes:       []string{"processing fallback"},
		Questions:    []string{"Which part of the transcript should be clarified first?"},
		NextThoughts: []string{"Possible area to expand: the most specific claim in the transcript."},
		Confidence:   types.ConfidenceLow,
	}
}
