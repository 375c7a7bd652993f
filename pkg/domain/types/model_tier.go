package types

// ModelTier selects between the cheap and default model of a capability
type ModelTier string

const (
	ModelTierDefault ModelTier = "default"
	ModelTierCheap   ModelTier = "cheap"
)
