package embedding

import (
	"context"
	"crypto/sha256"
	"math/big"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

const (
	// LocalProviderName identifies the hash embedding engine in usage records
	LocalProviderName = "local-hash-embedding"
	// LocalModelName is the model name reported for hash embeddings
	LocalModelName = "hash-emb-v1"
	// DefaultDimension is the vector length of hash embeddings
	DefaultDimension = 64
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9']+`)

// Local is a feature-hashing embedder. It only captures lexical overlap.
type Local struct {
	dimension int
}

var _ interfaces.EmbeddingProvider = &Local{}

// NewLocal creates a hash embedder. A non-positive dimension uses DefaultDimension.
func NewLocal(dimension int) *Local {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Local{dimension: dimension}
}

// Dimension returns the vector length
func (l *Local) Dimension() int {
	return l.dimension
}

func (l *Local) Embed(ctx context.Context, text string) (*model.EmbeddingResult, error) {
	vec := make(model.Embedding, l.dimension)
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)

	result := &model.EmbeddingResult{
		Vector:   vec,
		Provider: LocalProviderName,
		Model:    LocalModelName,
	}
	if len(tokens) == 0 {
		return result, nil
	}

	dim := big.NewInt(int64(l.dimension))
	h := new(big.Int)
	idx := new(big.Int)
	for _, token := range tokens {
		sum := sha256.Sum256([]byte(token))
		h.SetBytes(sum[:])
		idx.Mod(h, dim)

		sign := -1.0
		if h.Bit(8) == 1 {
			sign = 1.0
		}
		vec[idx.Int64()] += sign
	}

	promptTokens := max(1, utf8.RuneCountInString(text)/4)
	result.Vector = vec.Normalize()
	result.Usage = model.LLMUsage{
		PromptTokens: promptTokens,
		USD:          model.Round8(float64(promptTokens) * 0.00000002),
	}
	return result, nil
}
