package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"splitcore/pkg/domain"
)

func TestStorePersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splitcore.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	var session domain.Session
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		session, err = tx.CreateSession(domain.Session{Title: "Road Trip", Tax: 10})
		if err != nil {
			return err
		}
		person, err := tx.CreatePerson(domain.Person{SessionID: session.ID, Name: "Ava"})
		if err != nil {
			return err
		}
		_, err = tx.CreateItem(domain.Item{PersonID: person.ID, Name: "Fuel", Price: 40, Quantity: 1})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	sessions := reopened.ListSessions()
	if len(sessions) != 1 || sessions[0].Title != "Road Trip" {
		t.Fatalf("unexpected sessions after reload: %+v", sessions)
	}
	if len(reopened.ListPeople()) != 1 {
		t.Fatalf("expected person after reload")
	}
	if len(reopened.ListItems()) != 1 {
		t.Fatalf("expected item after reload")
	}
	if reopened.Path() != path {
		t.Fatalf("unexpected path %q", reopened.Path())
	}

	// ids keep advancing after reload
	if _, err := reopened.RunInTransaction(ctx, func(tx domain.Transaction) error {
		next, err := tx.CreateSession(domain.Session{Title: "Second"})
		if err != nil {
			return err
		}
		if next.ID <= session.ID {
			t.Fatalf("expected id beyond %d, got %d", session.ID, next.ID)
		}
		return nil
	}); err != nil {
		t.Fatalf("second transaction: %v", err)
	}
}

func TestStoreDoesNotPersistFailedTransaction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splitcore.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateSession(domain.Session{Title: "Doomed"}); err != nil {
			return err
		}
		return domain.NotFoundError{Entity: domain.EntitySession, ID: 404}
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if len(reopened.ListSessions()) != 0 {
		t.Fatalf("failed transaction must not persist")
	}
}
