package types

import "fmt"

// TranscriptSource identifies how a transcript was produced
type TranscriptSource string

const (
	TranscriptSourceManual           TranscriptSource = "manual"
	TranscriptSourceText             TranscriptSource = "text"
	TranscriptSourceWhisperLocal     TranscriptSource = "whisper_local"
	TranscriptSourceWhisperOpenAIAPI TranscriptSource = "whisper_openai_api"
	TranscriptSourceAudioUnprocessed TranscriptSource = "audio_unprocessed"
)

// AllTranscriptSources returns all valid transcript sources
func AllTranscriptSources() []TranscriptSource {
	return []TranscriptSource{
		TranscriptSourceManual,
		TranscriptSourceText,
		TranscriptSourceWhisperLocal,
		TranscriptSourceWhisperOpenAIAPI,
		TranscriptSourceAudioUnprocessed,
	}
}

// IsValid checks if the transcript source is valid
func (s TranscriptSource) IsValid() bool {
	switch s {
	case TranscriptSourceManual,
		TranscriptSourceText,
		TranscriptSourceWhisperLocal,
		TranscriptSourceWhisperOpenAIAPI,
		TranscriptSourceAudioUnprocessed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the transcript source
func (s TranscriptSource) String() string {
	return string(s)
}

// ParseTranscriptSource parses a string into a TranscriptSource
func ParseTranscriptSource(s string) (TranscriptSource, error) {
	src := TranscriptSource(s)
	if !src.IsValid() {
		return "", fmt.Errorf("invalid transcript source: %s", s)
	}
	return src, nil
}
