package types

// InterpretationLevel records how far a reflection went beyond the literal transcript.
// It is kept for audit only and never returned to API clients.
type InterpretationLevel string

const (
	InterpretationLevelLow    InterpretationLevel = "low"
	InterpretationLevelMedium InterpretationLevel = "medium"
)

// IsValid checks if the interpretation level is valid
func (l InterpretationLevel) IsValid() bool {
	switch l {
	case InterpretationLevelLow, InterpretationLevelMedium:
		return true
	default:
		return false
	}
}

// String returns the string representation of the interpretation level
func (l InterpretationLevel) String() string {
	return string(l)
}
