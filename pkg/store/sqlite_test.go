package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNewSQLite(t *testing.T) {
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")

	s, err := NewSQLite(dataDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	if s.dataDir != dataDir {
		t.Errorf("Expected dataDir %s, got %s", dataDir, s.dataDir)
	}

	// Check if database file was created
	dbFile := filepath.Join(dataDir, "state.db")
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		t.Error("Expected database file to be created")
	}
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	if _, ok, err := s.Load(ctx, ScopeShared, "favorites"); err != nil || ok {
		t.Fatalf("Expected no value before save, got ok=%v err=%v", ok, err)
	}

	if err := s.Save(ctx, ScopeShared, "favorites", []byte(`["file:///a"]`)); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if err := s.Save(ctx, ScopeShared, "favorites", []byte(`["file:///b"]`)); err != nil {
		t.Fatalf("Failed to overwrite: %v", err)
	}

	value, ok, err := s.Load(ctx, ScopeShared, "favorites")
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if !ok {
		t.Fatal("Expected value to be present")
	}
	if string(value) != `["file:///b"]` {
		t.Errorf("Expected last write to win, got %s", value)
	}
}

func TestScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	projA := ProjectScope("/work/a")
	projB := ProjectScope("/work/b")

	if err := Bind(s, projA).Update(ctx, "workspaceBookmark", []byte(`{"x":[]}`)); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	if _, ok, _ := Bind(s, projB).Get(ctx, "workspaceBookmark"); ok {
		t.Error("Expected project B not to see project A's state")
	}
	if _, ok, _ := Bind(s, ScopeShared).Get(ctx, "workspaceBookmark"); ok {
		t.Error("Expected shared scope not to see project state")
	}

	keys, err := s.Keys(ctx, projA)
	if err != nil {
		t.Fatalf("Failed to list keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "workspaceBookmark" {
		t.Errorf("Expected [workspaceBookmark], got %v", keys)
	}
}

func TestReopenKeepsState(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()

	s, err := NewSQLite(dataDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := s.Save(ctx, ScopeShared, "globalBookmark", []byte(`{}`)); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	s.Close()

	reopened, err := NewSQLite(dataDir)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	if _, ok, err := reopened.Load(ctx, ScopeShared, "globalBookmark"); err != nil || !ok {
		t.Errorf("Expected state to survive reopen, got ok=%v err=%v", ok, err)
	}
}
