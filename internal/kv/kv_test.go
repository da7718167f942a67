package kv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()

	if _, err := m.Get("missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}

	if err := m.Set("k", "v"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := m.Get("k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "v" {
		t.Errorf("expected v, got %q", v)
	}
}

func TestFilePersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "store.json")

	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Set("availableCredits", "12"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Set("other", "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened, err := NewFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := reopened.Get("availableCredits")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "12" {
		t.Errorf("expected 12, got %q", v)
	}

	// No stray temp file left behind.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file should be renamed away: %v", err)
	}
}

func TestFileRejectsCorruptContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewFile(path); err == nil {
		t.Error("corrupt store file should fail to open")
	}
}
