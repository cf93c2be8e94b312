// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"splitcore/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Session aliases domain.Session for in-memory persistence operations.
	Session = domain.Session
	// Person aliases domain.Person.
	Person = domain.Person
	// Item aliases domain.Item.
	Item = domain.Item
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	sessions map[int64]Session
	people   map[int64]Person
	items    map[int64]Item
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Sessions map[int64]Session `json:"sessions"`
	People   map[int64]Person  `json:"people"`
	Items    map[int64]Item    `json:"items"`
}

func newMemoryState() memoryState {
	return memoryState{
		sessions: make(map[int64]Session),
		people:   make(map[int64]Person),
		items:    make(map[int64]Item),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.sessions {
		cloned.sessions[k] = v
	}
	for k, v := range s.people {
		cloned.people[k] = v
	}
	for k, v := range s.items {
		cloned.items[k] = v
	}
	return cloned
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
	seq    map[domain.EntityType]int64
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
		seq:    make(map[domain.EntityType]int64),
	}
}

func (s *Store) nextID(entity domain.EntityType) int64 {
	s.seq[entity]++
	return s.seq[entity]
}

// ExportState returns a deep copy of the current store contents.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.state.clone()
	return Snapshot{Sessions: state.sessions, People: state.people, Items: state.items}
}

// ImportState replaces the store contents with the provided snapshot and
// advances the id sequences past the highest imported ids.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newMemoryState()
	for k, v := range snapshot.Sessions {
		state.sessions[k] = v
	}
	for k, v := range snapshot.People {
		state.people[k] = v
	}
	for k, v := range snapshot.Items {
		state.items[k] = v
	}
	s.state = state
	s.seq = make(map[domain.EntityType]int64)
	for id := range state.sessions {
		if id > s.seq[domain.EntitySession] {
			s.seq[domain.EntitySession] = id
		}
	}
	for id := range state.people {
		if id > s.seq[domain.EntityPerson] {
			s.seq[domain.EntityPerson] = id
		}
	}
	for id := range state.items {
		if id > s.seq[domain.EntityItem] {
			s.seq[domain.EntityItem] = id
		}
	}
}

// RulesEngine returns the engine evaluated on every transaction commit.
func (s *Store) RulesEngine() *RulesEngine {
	return s.engine
}

// NowFunc returns the clock used to stamp created and updated records.
func (s *Store) NowFunc() func() time.Time {
	return s.nowFn
}

// SetNowFunc overrides the store clock, primarily for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The mutated state replaces the live state only when fn succeeds and no
// blocking rule violation is present.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := &view{state: &tx.state}
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(&view{state: &snapshot})
}

// GetSession retrieves a session by id from the live state.
func (s *Store) GetSession(id int64) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.state.sessions[id]
	return session, ok
}

// ListSessions returns all sessions ordered by id.
func (s *Store) ListSessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&view{state: &s.state}).ListSessions()
}

// ListPeople returns all people ordered by id.
func (s *Store) ListPeople() []Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&view{state: &s.state}).ListPeople()
}

// ListItems returns all items ordered by id.
func (s *Store) ListItems() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&view{state: &s.state}).ListItems()
}

type view struct {
	state *memoryState
}

func (v *view) ListSessions() []Session {
	out := make([]Session, 0, len(v.state.sessions))
	for _, s := range v.state.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *view) ListPeople() []Person {
	out := make([]Person, 0, len(v.state.people))
	for _, p := range v.state.people {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *view) ListItems() []Item {
	out := make([]Item, 0, len(v.state.items))
	for _, i := range v.state.items {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *view) FindSession(id int64) (Session, bool) {
	s, ok := v.state.sessions[id]
	return s, ok
}

func (v *view) FindPerson(id int64) (Person, bool) {
	p, ok := v.state.people[id]
	return p, ok
}

func (v *view) FindItem(id int64) (Item, bool) {
	i, ok := v.state.items[id]
	return i, ok
}

// SearchSessionsByTitle returns sessions whose title contains the query
// case-insensitively, most recent first.
func (v *view) SearchSessionsByTitle(query string) []Session {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}
	var out []Session
	for _, s := range v.state.sessions {
		if strings.Contains(strings.ToLower(s.Title), needle) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (v *view) PeopleBySession(sessionID int64) []Person {
	var out []Person
	for _, p := range v.state.people {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *view) ItemsByPerson(personID int64) []Item {
	var out []Item
	for _, i := range v.state.items {
		if i.PersonID == personID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
