package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
)

func TestConfidence_IsValid(t *testing.T) {
	tests := []struct {
		name       string
		confidence types.Confidence
		want       bool
	}{
		{name: "high", confidence: types.ConfidenceHigh, want: true},
		{name: "medium", confidence: types.ConfidenceMedium, want: true},
		{name: "low", confidence: types.ConfidenceLow, want: true},
		{name: "upper case", confidence: types.Confidence("HIGH"), want: false},
		{name: "empty", confidence: types.Confidence(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.confidence.IsValid()).Equal(tt.want)
		})
	}
}

func TestParseConfidence(t *testing.T) {
	c, err := types.ParseConfidence("medium")
	gt.NoError(t, err).Required()
	gt.Value(t, c).Equal(types.ConfidenceMedium)

	_, err = types.ParseConfidence("certain")
	gt.Error(t, err)
}

func TestAllConfidences(t *testing.T) {
	all := types.AllConfidences()
	gt.Array(t, all).Length(3)
	for _, c := range all {
		gt.B(t, c.IsValid()).True()
	}
}
