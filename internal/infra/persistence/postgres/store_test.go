package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"splitcore/internal/infra/persistence/memory"
	"splitcore/internal/infra/persistence/postgres/testutil"
	"splitcore/pkg/domain"
)

func newStubStore(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore("postgres://stub/splitcore", nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, conn
}

func TestStoreSnapshotsAfterCommit(t *testing.T) {
	store, conn := newStubStore(t)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		session, err := tx.CreateSession(domain.Session{Title: "Brunch", Service: 10})
		if err != nil {
			return err
		}
		person, err := tx.CreatePerson(domain.Person{SessionID: session.ID, Name: "Noor"})
		if err != nil {
			return err
		}
		_, err = tx.CreateItem(domain.Item{PersonID: person.ID, Name: "Waffles", Price: 12, Quantity: 2})
		return err
	}); err != nil {
		t.Fatalf("run transaction: %v", err)
	}

	var sessions map[int64]domain.Session
	if err := json.Unmarshal(conn.Buckets["sessions"], &sessions); err != nil {
		t.Fatalf("decode sessions bucket: %v", err)
	}
	if len(sessions) != 1 || sessions[1].Title != "Brunch" {
		t.Fatalf("unexpected sessions bucket: %+v", sessions)
	}
	for _, bucket := range []string{"people", "items"} {
		if len(conn.Buckets[bucket]) == 0 {
			t.Fatalf("expected %s bucket to be written", bucket)
		}
	}
}

func TestStoreHydratesFromExistingSnapshot(t *testing.T) {
	seed := memory.NewStore(nil)
	ctx := context.Background()
	if _, err := seed.RunInTransaction(ctx, func(tx domain.Transaction) error {
		session, err := tx.CreateSession(domain.Session{Title: "Carried Over"})
		if err != nil {
			return err
		}
		_, err = tx.CreatePerson(domain.Person{SessionID: session.ID, Name: "Iris"})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	snapshot := seed.ExportState()

	db, conn := testutil.NewStubDB()
	for bucket, payload := range map[string]any{
		"sessions": snapshot.Sessions,
		"people":   snapshot.People,
		"items":    snapshot.Items,
	} {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal %s: %v", bucket, err)
		}
		conn.Buckets[bucket] = data
	}
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	sessions := store.ListSessions()
	if len(sessions) != 1 || sessions[0].Title != "Carried Over" {
		t.Fatalf("unexpected hydrated sessions: %+v", sessions)
	}
	if len(store.ListPeople()) != 1 {
		t.Fatalf("expected hydrated person")
	}
}

func TestStorePropagatesPingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	if _, err := NewStore("", nil); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestStoreSurfacesPersistFailure(t *testing.T) {
	store, conn := newStubStore(t)
	conn.FailBegin = true
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateSession(domain.Session{Title: "Unsaved"})
		return e
	})
	if err == nil {
		t.Fatalf("expected persist failure")
	}
}
