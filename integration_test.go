//go:build integration

package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/mattsolo1/grove-bookmarks/pkg/bookmark"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
	"github.com/mattsolo1/grove-bookmarks/pkg/service"
	"github.com/mattsolo1/grove-bookmarks/pkg/store"
)

func openService(t *testing.T, dataDir, projectDir string) *service.Service {
	t.Helper()
	backend, err := store.NewSQLite(dataDir)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := service.DefaultConfig()
	cfg.ProjectDir = projectDir
	svc, err := service.New(cfg, backend, afero.NewOsFs(), logger)
	if err != nil {
		backend.Close()
		t.Fatalf("Failed to create service: %v", err)
	}
	return svc
}

func TestIntegration(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=1 to run.")
	}

	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")
	projectA := filepath.Join(tmpDir, "project-a")
	projectB := filepath.Join(tmpDir, "project-b")
	external := filepath.Join(tmpDir, "papers")
	for _, dir := range []string{projectA, projectB, external} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	draft := filepath.Join(external, "draft.md")
	if err := os.WriteFile(draft, []byte("# draft\n"), 0644); err != nil {
		t.Fatal(err)
	}
	draftRef, err := pathref.FromPath(draft)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	t.Run("GlobalGroupsAreShared", func(t *testing.T) {
		a := openService(t, dataDir, projectA)
		if err := a.AddEntries(ctx, &service.AddEntriesRequest{
			Target: a.GroupURI(bookmark.Global, "Papers"),
			Refs:   []pathref.Ref{draftRef},
		}); err != nil {
			t.Fatalf("Failed to add entry: %v", err)
		}
		if _, err := a.NewGroup(ctx, &service.NewGroupRequest{Scope: bookmark.Workspace, Key: "Local"}); err != nil {
			t.Fatalf("Failed to create project group: %v", err)
		}
		a.Close()

		b := openService(t, dataDir, projectB)
		defer b.Close()
		snapshot := b.Export(ctx)
		if got := snapshot.Global["Papers"]; len(got) != 1 || got[0] != draftRef.String() {
			t.Errorf("Expected Papers to hold %s, got %v", draftRef, got)
		}
		if len(snapshot.Workspace) != 0 {
			t.Errorf("Expected no project groups in project-b, got %v", snapshot.Workspace)
		}
	})

	t.Run("RenameOnDiskRewritesEveryList", func(t *testing.T) {
		svc := openService(t, dataDir, projectA)
		defer svc.Close()

		if err := svc.AddFavorite(ctx, draftRef); err != nil {
			t.Fatalf("Failed to add favorite: %v", err)
		}
		if recorded, err := svc.TouchRecent(ctx, draftRef); err != nil || !recorded {
			t.Fatalf("Expected draft to be recorded as recent, got %v, %v", recorded, err)
		}

		next, err := svc.Rename(ctx, &service.RenameRequest{Ref: draftRef, NewName: "final.md"})
		if err != nil {
			t.Fatalf("Failed to rename: %v", err)
		}
		if _, err := os.Stat(next.FsPath()); err != nil {
			t.Fatalf("Renamed file missing: %v", err)
		}

		snapshot := svc.Export(ctx)
		want := next.String()
		if got := snapshot.Global["Papers"]; len(got) != 1 || got[0] != want {
			t.Errorf("Expected Papers to hold %s, got %v", want, got)
		}
		if len(snapshot.Favorites) != 1 || snapshot.Favorites[0] != want {
			t.Errorf("Expected favorites to hold %s, got %v", want, snapshot.Favorites)
		}
		if len(snapshot.Recents) != 1 || snapshot.Recents[0] != want {
			t.Errorf("Expected recents to hold %s, got %v", want, snapshot.Recents)
		}
	})

	t.Run("RemoveOnDiskDropsEverywhere", func(t *testing.T) {
		svc := openService(t, dataDir, projectA)
		defer svc.Close()

		target, err := pathref.FromPath(filepath.Join(external, "final.md"))
		if err != nil {
			t.Fatal(err)
		}
		if err := svc.Remove(ctx, &service.RemoveRequest{Ref: target, Confirmed: true}); err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}

		snapshot := svc.Export(ctx)
		if got := snapshot.Global["Papers"]; len(got) != 0 {
			t.Errorf("Expected Papers to be empty, got %v", got)
		}
		if len(snapshot.Favorites) != 0 || len(snapshot.Recents) != 0 {
			t.Errorf("Expected favorites and recents to be empty, got %v and %v", snapshot.Favorites, snapshot.Recents)
		}
	})
}
