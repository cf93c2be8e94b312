package core

import "splitcore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewPercentBoundsRule())
	engine.Register(NewItemOwnershipRule())
	return engine
}
