package transcription

import (
	"strings"

	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
)

// PassthroughModelName is reported for uploads that are already text
const PassthroughModelName = "text-passthrough-v1"

// IsText reports whether an upload is plain text rather than audio
func IsText(audio *interfaces.AudioInput) bool {
	return strings.HasPrefix(audio.ContentType, "text/") ||
		strings.HasSuffix(strings.ToLower(audio.Filename), ".txt")
}

// Passthrough returns the upload content as a transcript. Invalid UTF-8 is dropped.
func Passthrough(audio *interfaces.AudioInput) *model.Transcript {
	text := strings.TrimSpace(strings.ToValidUTF8(string(audio.Data), ""))
	return &model.Transcript{
		Text: text,
		Metadata: model.TranscriptMetadata{
			Model:    PassthroughModelName,
			Language: model.Ptr("en"),
			Source:   types.TranscriptSourceText,
		},
	}
}
