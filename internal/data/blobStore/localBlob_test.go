package blobStore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	key := NewKey("my notes.txt")

	if filepath.Ext(key) != ".txt" {
		t.Errorf("key must keep the extension, got %q", key)
	}
	if err := s.Put(ctx, key, strings.NewReader("hello"), 5, "text/plain"); err != nil {
		t.Fatalf("put: %v", err)
	}

	p, cleanup, err := s.Fetch(ctx, key)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	defer cleanup()
	data, _ := os.ReadFile(p)
	if string(data) != "hello" {
		t.Errorf("unexpected content %q", data)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := s.Fetch(ctx, key); err == nil {
		t.Error("fetch after delete should fail")
	}
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	s, _ := NewLocalStore(t.TempDir())
	if err := s.Put(context.Background(), "../outside.txt", strings.NewReader("x"), 1, ""); err == nil {
		t.Error("expected keys outside the root to be rejected")
	}
}
