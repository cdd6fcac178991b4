package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	e, err := s.Put(ctx, "chat:mira", `[{"role":"user","content":"hi"}]`)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if e.Version != 1 {
		t.Errorf("expected version 1, got %d", e.Version)
	}

	got, err := s.Get(ctx, "chat:mira")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Value != `[{"role":"user","content":"hi"}]` {
		t.Errorf("unexpected value %q", got.Value)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVersioning(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, "memory:mira", "v1")
	e2, _ := s.Put(ctx, "memory:mira", "v2")
	if e2.Version != 2 {
		t.Errorf("expected version 2, got %d", e2.Version)
	}

	got, _ := s.Get(ctx, "memory:mira")
	if got.Value != "v2" {
		t.Errorf("expected latest value v2, got %q", got.Value)
	}

	hist, err := s.History(ctx, "memory:mira")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 || hist[0].Value != "v2" || hist[1].Value != "v1" {
		t.Errorf("unexpected history: %+v", hist)
	}
}

func TestHistoryPruned(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.SetHistoryLimit(2)

	for _, v := range []string{"a", "b", "c", "d"} {
		s.Put(ctx, "k", v)
	}

	hist, _ := s.History(ctx, "k")
	if len(hist) != 2 {
		t.Fatalf("expected 2 retained versions, got %d", len(hist))
	}
	if hist[0].Version != 4 || hist[1].Version != 3 {
		t.Errorf("expected versions 4,3 got %d,%d", hist[0].Version, hist[1].Version)
	}
}

func TestVersionSurvivesDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, "core:mira", "one")
	if err := s.Delete(ctx, "core:mira"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "core:mira"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted key to be missing, got %v", err)
	}

	e, _ := s.Put(ctx, "core:mira", "two")
	if e.Version != 2 {
		t.Errorf("expected version to keep counting after delete, got %d", e.Version)
	}
}

func TestListPrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, "chat:mira", "[]")
	s.Put(ctx, "chat:ollie", "[]")
	s.Put(ctx, "memory:mira", "[]")
	s.Put(ctx, "chat:mira", `[{"role":"user"}]`)

	chats, err := s.List(ctx, "chat:")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("expected 2 chat entries, got %d", len(chats))
	}
	if chats[0].Key != "chat:mira" || chats[0].Version != 2 {
		t.Errorf("expected latest chat:mira first, got %+v", chats[0])
	}

	all, _ := s.List(ctx, "")
	if len(all) != 3 {
		t.Errorf("expected 3 keys, got %d", len(all))
	}
}

func TestCollectStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, "chat:mira", `[{},{},{}]`)
	s.Put(ctx, "memory:mira", `[{}]`)
	s.Put(ctx, "core:ollie", `[{},{}]`)

	st, err := Collect(ctx, s, "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalEntries != 3 {
		t.Errorf("expected 3 entries, got %d", st.TotalEntries)
	}
	if len(st.NPCs) != 2 {
		t.Fatalf("expected 2 npcs, got %d", len(st.NPCs))
	}
	if st.NPCs[0].NPC != "mira" || st.NPCs[0].Messages != 3 || st.NPCs[0].Memories != 1 {
		t.Errorf("unexpected mira stats: %+v", st.NPCs[0])
	}
	if st.NPCs[1].Core != 2 {
		t.Errorf("unexpected ollie stats: %+v", st.NPCs[1])
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	src.Put(ctx, "chat:mira", "[1]")
	src.Put(ctx, "core:mira", "[2]")

	entries, err := ExportAll(ctx, src, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := NewMemStore()
	n, err := Import(ctx, dst, entries)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 imported, got %d", n)
	}
	got, _ := dst.Get(ctx, "core:mira")
	if got.Value != "[2]" {
		t.Errorf("expected imported value, got %q", got.Value)
	}
}
