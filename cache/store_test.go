package cache

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/chazu/bfi/compiler"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorePutGet(t *testing.T) {
	s := openTestStore(t)

	key := Key("+[-]", compiler.ModeTree)
	if _, ok, err := s.Get(key); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v; want miss", ok, err)
	}

	p, err := compiler.Compile("+[-]", compiler.ModeTree)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := s.Put(key, compiler.ModeTree, p); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// Upsert keeps a single row.
	if err := s.Put(key, compiler.ModeTree, p); err != nil {
		t.Fatalf("Put again: %v", err)
	}

	got, ok, err := s.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get = ok %v, err %v; want hit", ok, err)
	}
	if diff := cmp.Diff(p, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("stored program mismatch (-want +got):\n%s", diff)
	}

	if n, err := s.Len(); err != nil || n != 1 {
		t.Errorf("Len() = %d, %v; want 1", n, err)
	}
}

func TestStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p, _ := compiler.Compile("+.", compiler.ModeFlat)
	key := Key("+.", compiler.ModeFlat)
	if err := s.Put(key, compiler.ModeFlat, p); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, ok, err := s.Get(key); err != nil || !ok {
		t.Errorf("Get after reopen = ok %v, err %v; want hit", ok, err)
	}
}

func TestCompileCaches(t *testing.T) {
	s := openTestStore(t)

	first, err := Compile(s, "++[>+<-]", compiler.ModeTree)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	second, err := Compile(s, "++[>+<-]", compiler.ModeTree)
	if err != nil {
		t.Fatalf("Compile (cached): %v", err)
	}
	if diff := cmp.Diff(first, second, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("cached program differs (-first +second):\n%s", diff)
	}
	if n, _ := s.Len(); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}

	if _, err := Compile(s, "++[>+<-]", compiler.ModeFlat); err != nil {
		t.Fatalf("Compile flat: %v", err)
	}
	if n, _ := s.Len(); n != 2 {
		t.Errorf("Len() = %d, want 2 after a second mode", n)
	}
}

func TestCompileDoesNotCacheErrors(t *testing.T) {
	s := openTestStore(t)

	_, err := Compile(s, "[[", compiler.ModeTree)
	if !errors.Is(err, compiler.ErrUnterminatedOpen) {
		t.Fatalf("error = %v, want ErrUnterminatedOpen", err)
	}
	if n, _ := s.Len(); n != 0 {
		t.Errorf("Len() = %d, want 0", n)
	}
}

func TestCompileNilStore(t *testing.T) {
	p, err := Compile(nil, "+", compiler.ModeFlat)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p.Kind() != compiler.ProgramFlat {
		t.Errorf("Kind() = %v, want flat", p.Kind())
	}
}
