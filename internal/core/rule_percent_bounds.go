package core

import (
	"context"
	"fmt"

	"splitcore/pkg/domain"
)

// NewPercentBoundsRule returns the default in-transaction rule keeping session
// percentage fields within 0..100.
func NewPercentBoundsRule() domain.Rule {
	return percentBoundsRule{}
}

type percentBoundsRule struct{}

func (percentBoundsRule) Name() string { return "percent_bounds" }

func (percentBoundsRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, session := range view.ListSessions() {
		for _, field := range []struct {
			label string
			value float64
		}{
			{"tax", session.Tax},
			{"service", session.Service},
			{"discount", session.Discount},
		} {
			if field.value < 0 || field.value > 100 {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "percent_bounds",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("session %d: %s must be between 0 and 100, got %v", session.ID, field.label, field.value),
					Entity:   domain.EntitySession,
					EntityID: session.ID,
				})
			}
		}
	}
	return res, nil
}
