package types

import "fmt"

// Confidence represents how strongly a reflection is supported by its transcript
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// AllConfidences returns all valid confidence levels
func AllConfidences() []Confidence {
	return []Confidence{
		ConfidenceHigh,
		ConfidenceMedium,
		ConfidenceLow,
	}
}

// IsValid checks if the confidence level is valid
func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceHigh,
		ConfidenceMedium,
		ConfidenceLow:
		return true
	default:
		return false
	}
}

// String returns the string representation of the confidence level
func (c Confidence) String() string {
	return string(c)
}

// ParseConfidence parses a string into a Confidence
func ParseConfidence(s string) (Confidence, error) {
	c := Confidence(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid confidence: %s", s)
	}
	return c, nil
}
