package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveDeletesStoredObject(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	path := filepath.Join(dir, "photos", "list-1.jpg")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := store.Remove(context.Background(), "file:///photos/list-1.jpg"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("object still present after Remove: %v", err)
	}
}

func TestRemoveMissingObjectIsNoop(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if err := store.Remove(context.Background(), "file:///photos/never-uploaded.jpg"); err != nil {
		t.Fatalf("Remove of missing object: %v", err)
	}
	if err := store.Remove(context.Background(), ""); err != nil {
		t.Fatalf("Remove of empty url: %v", err)
	}
}

func TestRemoveRejectsEscapingPath(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if err := store.Remove(context.Background(), "file:///../outside.jpg"); err == nil {
		t.Fatal("expected error for path escaping store root")
	}
}
