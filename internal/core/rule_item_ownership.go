package core

import (
	"context"
	"fmt"

	"splitcore/pkg/domain"
)

// NewItemOwnershipRule returns the default in-transaction rule requiring every
// person to belong to an existing session and every item to an existing person.
func NewItemOwnershipRule() domain.Rule {
	return itemOwnershipRule{}
}

type itemOwnershipRule struct{}

func (itemOwnershipRule) Name() string { return "item_ownership" }

func (itemOwnershipRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, person := range view.ListPeople() {
		if _, ok := view.FindSession(person.SessionID); !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "item_ownership",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("person %d references missing session %d", person.ID, person.SessionID),
				Entity:   domain.EntityPerson,
				EntityID: person.ID,
			})
		}
	}
	for _, item := range view.ListItems() {
		if _, ok := view.FindPerson(item.PersonID); !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "item_ownership",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("item %d references missing person %d", item.ID, item.PersonID),
				Entity:   domain.EntityItem,
				EntityID: item.ID,
			})
		}
	}
	return res, nil
}
