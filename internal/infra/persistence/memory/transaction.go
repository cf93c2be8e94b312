package memory

import (
	"fmt"
	"time"

	"splitcore/pkg/domain"
)

var _ domain.Transaction = (*transaction)(nil)

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// Snapshot exposes a read-only view of the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return &view{state: &tx.state}
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// CreateSession stores a new session within the transaction.
func (tx *transaction) CreateSession(s Session) (Session, error) {
	if s.ID == 0 {
		s.ID = tx.store.nextID(domain.EntitySession)
	}
	if _, exists := tx.state.sessions[s.ID]; exists {
		return Session{}, fmt.Errorf("session %d already exists", s.ID)
	}
	s.CreatedAt = tx.now
	s.UpdatedAt = tx.now
	tx.state.sessions[s.ID] = s
	tx.recordChange(Change{Entity: domain.EntitySession, Action: domain.ActionCreate, After: s})
	return s, nil
}

// UpdateSession mutates a session using the provided mutator function.
func (tx *transaction) UpdateSession(id int64, mutator func(*Session) error) (Session, error) {
	current, ok := tx.state.sessions[id]
	if !ok {
		return Session{}, domain.NotFoundError{Entity: domain.EntitySession, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Session{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.sessions[id] = current
	tx.recordChange(Change{Entity: domain.EntitySession, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteSession removes a session and cascades to its people and their items.
func (tx *transaction) DeleteSession(id int64) error {
	current, ok := tx.state.sessions[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntitySession, ID: id}
	}
	for pid, person := range tx.state.people {
		if person.SessionID != id {
			continue
		}
		if err := tx.DeletePerson(pid); err != nil {
			return err
		}
	}
	delete(tx.state.sessions, id)
	tx.recordChange(Change{Entity: domain.EntitySession, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreatePerson stores a new person within the transaction.
func (tx *transaction) CreatePerson(p Person) (Person, error) {
	if p.ID == 0 {
		p.ID = tx.store.nextID(domain.EntityPerson)
	}
	if _, exists := tx.state.people[p.ID]; exists {
		return Person{}, fmt.Errorf("person %d already exists", p.ID)
	}
	tx.state.people[p.ID] = p
	tx.recordChange(Change{Entity: domain.EntityPerson, Action: domain.ActionCreate, After: p})
	return p, nil
}

// UpdatePerson mutates a person using the provided mutator function.
func (tx *transaction) UpdatePerson(id int64, mutator func(*Person) error) (Person, error) {
	current, ok := tx.state.people[id]
	if !ok {
		return Person{}, domain.NotFoundError{Entity: domain.EntityPerson, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Person{}, err
	}
	current.ID = id
	tx.state.people[id] = current
	tx.recordChange(Change{Entity: domain.EntityPerson, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeletePerson removes a person and cascades to their items.
func (tx *transaction) DeletePerson(id int64) error {
	current, ok := tx.state.people[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityPerson, ID: id}
	}
	for iid, item := range tx.state.items {
		if item.PersonID != id {
			continue
		}
		delete(tx.state.items, iid)
		tx.recordChange(Change{Entity: domain.EntityItem, Action: domain.ActionDelete, Before: item})
	}
	delete(tx.state.people, id)
	tx.recordChange(Change{Entity: domain.EntityPerson, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateItem stores a new item within the transaction.
func (tx *transaction) CreateItem(i Item) (Item, error) {
	if i.ID == 0 {
		i.ID = tx.store.nextID(domain.EntityItem)
	}
	if _, exists := tx.state.items[i.ID]; exists {
		return Item{}, fmt.Errorf("item %d already exists", i.ID)
	}
	if i.Quantity == 0 {
		i.Quantity = 1
	}
	tx.state.items[i.ID] = i
	tx.recordChange(Change{Entity: domain.EntityItem, Action: domain.ActionCreate, After: i})
	return i, nil
}

// UpdateItem mutates an item using the provided mutator function.
func (tx *transaction) UpdateItem(id int64, mutator func(*Item) error) (Item, error) {
	current, ok := tx.state.items[id]
	if !ok {
		return Item{}, domain.NotFoundError{Entity: domain.EntityItem, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Item{}, err
	}
	current.ID = id
	tx.state.items[id] = current
	tx.recordChange(Change{Entity: domain.EntityItem, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteItem removes an item from the transaction state.
func (tx *transaction) DeleteItem(id int64) error {
	current, ok := tx.state.items[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityItem, ID: id}
	}
	delete(tx.state.items, id)
	tx.recordChange(Change{Entity: domain.EntityItem, Action: domain.ActionDelete, Before: current})
	return nil
}

func (tx *transaction) FindSession(id int64) (Session, bool) {
	s, ok := tx.state.sessions[id]
	return s, ok
}

func (tx *transaction) FindPerson(id int64) (Person, bool) {
	p, ok := tx.state.people[id]
	return p, ok
}

func (tx *transaction) FindItem(id int64) (Item, bool) {
	i, ok := tx.state.items[id]
	return i, ok
}
