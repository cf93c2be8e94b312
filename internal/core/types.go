// Package core implements the intent engine: envelope validation, per-intent
// normalization, fuzzy target resolution, transactional execution, and batch
// coordination over the expense ledger.
package core

import (
	"splitcore/pkg/domain"
)

// Aliases keep call sites inside the intent engine terse while the canonical
// definitions live in pkg/domain.
type (
	// Session is a shared-expense session.
	Session = domain.Session
	// Person is a participant in a session.
	Person = domain.Person
	// Item is a priced line item owned by a person.
	Item = domain.Item
	// Change records one entity mutation inside a transaction.
	Change = domain.Change
	// RulesEngine evaluates registered rules against pending changes.
	RulesEngine = domain.RulesEngine
	// Transaction is the mutable store handle inside RunInTransaction.
	Transaction = domain.Transaction
	// TransactionView is the read-only store view.
	TransactionView = domain.TransactionView
	// PersistentStore is the storage contract the engine runs on.
	PersistentStore = domain.PersistentStore
	// SessionContext is the people/items tree with computed totals.
	SessionContext = domain.SessionContext
	// NotFoundError marks a missing or out-of-session entity.
	NotFoundError = domain.NotFoundError
)
