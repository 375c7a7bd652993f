package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
)

func TestParseTranscriptSource(t *testing.T) {
	for _, s := range types.AllTranscriptSources() {
		t.Run(s.String(), func(t *testing.T) {
			parsed, err := types.ParseTranscriptSource(s.String())
			gt.NoError(t, err).Required()
			gt.Value(t, parsed).Equal(s)
		})
	}

	t.Run("unknown source", func(t *testing.T) {
		_, err := types.ParseTranscriptSource("dictaphone")
		gt.Error(t, err)
	})
}
