package reflection

import (
	"strings"

	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

const systemPrompt = "You are Echo Notes. Reflect only what is explicitly supported by transcript evidence. " +
	"Never diagnose, moralize, or provide direct advice unless the user already implied it. " +
	"If uncertain, acknowledge uncertainty. Prefer under-interpretation to over-interpretation. " +
	"Return strict JSON with keys: title, summary, themes, questions, next_thoughts, confidence."

const humanPromptTemplate = "Transcript:\n{transcript}\n\n" +
	"Produce concise reflection JSON. Confidence must be one of high, medium, low."

// BuildPrompt renders the reflection prompt for a cleaned transcript
func BuildPrompt(transcript string) model.Prompt {
	return model.Prompt{
		System: systemPrompt,
		Human:  strings.Replace(humanPromptTemplate, "{transcript}", transcript, 1),
	}
}
