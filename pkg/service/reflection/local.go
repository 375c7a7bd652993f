package reflection

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LocalProviderName identifies the heuristic engine in usage records
const LocalProviderName = "local-heuristic"

var hedgeMarkers = []string{
	"maybe",
	"not sure",
	"kind of",
	"sort of",
	"i guess",
	"unclear",
	"probably",
}

var stopwords = map[string]struct{}{
	"about": {}, "after": {}, "again": {}, "also": {}, "because": {}, "been": {},
	"being": {}, "could": {}, "from": {}, "have": {}, "into": {}, "just": {},
	"like": {}, "really": {}, "that": {}, "their": {}, "them": {}, "then": {},
	"there": {}, "they": {}, "this": {}, "with": {}, "would": {},
}

var themePattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9'-]+`)

// Local is a deterministic reflection engine that needs no external service
type Local struct{}

var _ interfaces.ReflectionProvider = &Local{}

func NewLocal() *Local {
	return &Local{}
}

// Generate builds a reflection from the transcript alone. The prompt only
// contributes to the usage estimate.
func (l *Local) Generate(ctx context.Context, prompt model.Prompt, transcript, modelName string) (*model.LLMResponse, error) {
	payload := l.Reflect(transcript)

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode local reflection")
	}

	promptTokens := max(1, (utf8.RuneCountInString(prompt.String())+utf8.RuneCountInString(transcript))/4)
	completionTokens := max(1, utf8.RuneCount(raw)/4)

	return &model.LLMResponse{
		Content:  string(raw),
		Provider: LocalProviderName,
		Model:    modelName,
		Usage: model.LLMUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			USD:              model.Round8(float64(promptTokens)*0.0000002 + float64(completionTokens)*0.0000008),
		},
	}, nil
}

// Reflect derives a reflection from transcript text
func (l *Local) Reflect(transcript string) *model.Reflection {
	words := strings.Fields(transcript)
	cleaned := strings.Join(words, " ")
	sentences := splitSentences(words)
	themes := extractThemes(cleaned)

	var questions []string
	for _, s := range sentences {
		if strings.HasSuffix(s, "?") {
			questions = append(questions, strings.TrimRight(s, "?")+"?")
			if len(questions) == 3 {
				break
			}
		}
	}
	if len(questions) == 0 {
		focus := "what you shared"
		if len(themes) > 0 {
			focus = themes[0]
		}
		questions = []string{"What feels least resolved about " + focus + "?"}
	}

	var nextThoughts []string
	for i, theme := range themes {
		if i == 3 {
			break
		}
		nextThoughts = append(nextThoughts, "Possible area to expand: "+theme+".")
	}
	if len(nextThoughts) == 0 {
		nextThoughts = []string{"Possible area to expand: the central idea you described."}
	}

	summary := strings.Join(sentences[:min(2, len(sentences))], " ")
	if summary == "" {
		summary = "The transcript is brief, and the core intent is not fully explicit."
	}

	title := "Untitled reflection"
	if len(words) > 0 {
		title = capitalize(strings.Join(words[:min(8, len(words))], " "))
	}

	if len(themes) == 0 {
		themes = []string{"general context"}
	}

	return &model.Reflection{
		Title:        title,
		Summary:      summary,
		Themes:       themes,
		Questions:    questions,
		NextThoughts: nextThoughts,
		Confidence:   Confidence(cleaned),
	}
}

// Confidence rates a transcript by its length and number of hedge markers
func Confidence(transcript string) types.Confidence {
	lowered := strings.ToLower(transcript)
	hits := 0
	for _, marker := range hedgeMarkers {
		if strings.Contains(lowered, marker) {
			hits++
		}
	}

	wordCount := len(strings.Fields(transcript))
	switch {
	case wordCount < 15 || hits >= 2:
		return types.ConfidenceLow
	case wordCount < 40 || hits == 1:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceHigh
	}
}

// splitSentences groups whitespace-separated words into sentences ending at '.', '?' or '!'
func splitSentences(words []string) []string {
	var (
		sentences []string
		current   []string
	)
	for _, w := range words {
		current = append(current, w)
		if strings.HasSuffix(w, ".") || strings.HasSuffix(w, "?") || strings.HasSuffix(w, "!") {
			sentences = append(sentences, strings.Join(current, " "))
			current = current[:0]
		}
	}
	if len(current) > 0 {
		sentences = append(sentences, strings.Join(current, " "))
	}
	return sentences
}

// extractThemes returns up to four frequent content words; ties keep first-seen order
func extractThemes(text string) []string {
	counts := map[string]int{}
	var order []string
	for _, w := range themePattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) <= 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > 4 {
		order = order[:4]
	}
	return order
}

// capitalize upper-cases the first letter and lower-cases the rest.
// Casers carry state, so each call builds its own.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return cases.Upper(language.Und).String(string(r)) + cases.Lower(language.Und).String(s[size:])
}
