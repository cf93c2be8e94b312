package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"splitcore/internal/blob/core"
)

func TestRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "a/one.json", strings.NewReader(`{"ok":true}`), core.PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "a/one.json", strings.NewReader("dup"), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate put to fail")
	}
	info, rc, err := store.Get(ctx, "a/one.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `{"ok":true}` || info.ContentType != "application/json" {
		t.Fatalf("unexpected blob %q %+v", body, info)
	}
	if _, err := store.Head(ctx, "a/one.json"); err != nil {
		t.Fatalf("head: %v", err)
	}
	if _, _, err := store.Get(ctx, "missing"); err == nil {
		t.Fatalf("expected miss")
	}
}

func TestListAndDelete(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"a/1", "a/2", "b/1"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "a/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "a/1" {
		t.Fatalf("unexpected listing %+v", infos)
	}
	ok, err := store.Delete(ctx, "a/1")
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	ok, err = store.Delete(ctx, "a/1")
	if err != nil || ok {
		t.Fatalf("repeat delete: ok=%v err=%v", ok, err)
	}
}

func TestPresignUnsupported(t *testing.T) {
	store := New()
	if _, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
