package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateSession(Session) (Session, error)
	UpdateSession(id int64, mutator func(*Session) error) (Session, error)
	DeleteSession(id int64) error
	CreatePerson(Person) (Person, error)
	UpdatePerson(id int64, mutator func(*Person) error) (Person, error)
	DeletePerson(id int64) error
	CreateItem(Item) (Item, error)
	UpdateItem(id int64, mutator func(*Item) error) (Item, error)
	DeleteItem(id int64) error
	FindSession(id int64) (Session, bool)
	FindPerson(id int64) (Person, bool)
	FindItem(id int64) (Item, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// resolution.
type TransactionView interface {
	ListSessions() []Session
	ListPeople() []Person
	ListItems() []Item
	FindSession(id int64) (Session, bool)
	FindPerson(id int64) (Person, bool)
	FindItem(id int64) (Item, bool)
	SearchSessionsByTitle(query string) []Session
	PeopleBySession(sessionID int64) []Person
	ItemsByPerson(personID int64) []Item
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetSession(id int64) (Session, bool)
	ListSessions() []Session
	ListPeople() []Person
	ListItems() []Item
}
