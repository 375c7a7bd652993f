package model

import "github.com/secmon-lab/echonotes/pkg/domain/types"

// ModelRouter maps a model tier to a concrete model name
type ModelRouter struct {
	DefaultModel string
	CheapModel   string
}

// Route returns the model name for the tier. Unknown tiers use the default model.
func (r ModelRouter) Route(tier types.ModelTier) string {
	if tier == types.ModelTierCheap {
		return r.CheapModel
	}
	return r.DefaultModel
}
