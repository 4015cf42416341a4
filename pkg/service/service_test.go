package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-bookmarks/pkg/bookmark"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
	"github.com/mattsolo1/grove-bookmarks/pkg/store"
	"github.com/mattsolo1/grove-bookmarks/pkg/tree"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestService(t *testing.T) (*Service, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	cfg := DefaultConfig()
	cfg.ProjectDir = "/proj"
	cfg.MaxRecentFiles = 3

	svc, err := New(cfg, store.NewMemory(), fs, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc, fs
}

func mkdir(t *testing.T, fs afero.Fs, path string) pathref.Ref {
	t.Helper()
	require.NoError(t, fs.MkdirAll(path, 0755))
	return pathref.MustParse("file://" + path)
}

func touch(t *testing.T, fs afero.Fs, path string) pathref.Ref {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fs, path, []byte("x"), 0644))
	return pathref.MustParse("file://" + path)
}

// expand reads the top level and every group so group nodes are Populated.
func expand(ctx context.Context, svc *Service) []tree.Node {
	nodes := svc.Synchronizer().Children(ctx, nil)
	for _, n := range nodes {
		svc.Synchronizer().Children(ctx, n)
	}
	return nodes
}

func recordChanges(svc *Service) *[]tree.Change {
	var changes []tree.Change
	svc.Synchronizer().Subscribe(func(c tree.Change) { changes = append(changes, c) })
	return &changes
}

func TestNewGroupValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Global, Key: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.NewGroup(ctx, &NewGroupRequest{Scope: "elsewhere", Key: "Docs"})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, svc.ListGroups(ctx))
}

func TestNewGroup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	changes := recordChanges(svc)

	uri, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Workspace, Key: "  My   Docs "})
	require.NoError(t, err)
	assert.Equal(t, "bm://workspace-bookmark/My%20Docs", uri)
	require.Len(t, *changes, 1)
	assert.True(t, (*changes)[0].All())

	_, err = svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Workspace, Key: "My Docs"})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, uri, conflict.ResourceID)

	groups := svc.ListGroups(ctx)
	require.Len(t, groups, 1)
	assert.Equal(t, Group{Scope: bookmark.Workspace, Key: "My Docs", URI: uri}, groups[0])
}

func TestRenameGroup(t *testing.T) {
	svc, fs := newTestService(t)
	ctx := context.Background()
	ref := touch(t, fs, "/ext/a.txt")

	a, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Global, Key: "A"})
	require.NoError(t, err)
	_, err = svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Global, Key: "B"})
	require.NoError(t, err)
	require.NoError(t, svc.AddEntries(ctx, &AddEntriesRequest{Target: a, Refs: []pathref.Ref{ref}}))

	_, err = svc.RenameGroup(ctx, &RenameGroupRequest{URI: a, NewKey: " B "})
	assert.ErrorIs(t, err, ErrConflict)

	c, err := svc.RenameGroup(ctx, &RenameGroupRequest{URI: a, NewKey: "C"})
	require.NoError(t, err)
	assert.Equal(t, "bm://global-bookmark/C", c)
	assert.Equal(t, []pathref.Ref{ref}, svc.Global.Get(ctx)["C"])
	assert.False(t, svc.Global.HasKey(ctx, "A"))

	same, err := svc.RenameGroup(ctx, &RenameGroupRequest{URI: c, NewKey: "C  "})
	require.NoError(t, err)
	assert.Equal(t, c, same)

	_, err = svc.RenameGroup(ctx, &RenameGroupRequest{URI: "bm://global-bookmark/Missing", NewKey: "D"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.RenameGroup(ctx, &RenameGroupRequest{URI: "bm://favorites/", NewKey: "D"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveGroup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	uri, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Global, Key: "Docs"})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveGroup(ctx, &RemoveGroupRequest{URI: uri}))
	assert.Empty(t, svc.ListGroups(ctx))
	require.NoError(t, svc.RemoveGroup(ctx, &RemoveGroupRequest{URI: uri}))

	assert.ErrorIs(t, svc.RemoveGroup(ctx, &RemoveGroupRequest{}), ErrValidation)
}

func TestAddEntriesInvalidatesOnlyTarget(t *testing.T) {
	svc, fs := newTestService(t)
	ctx := context.Background()
	docs, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Global, Key: "Docs"})
	require.NoError(t, err)
	other, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Global, Key: "Other"})
	require.NoError(t, err)
	expand(ctx, svc)

	b := touch(t, fs, "/ext/b.txt")
	a := touch(t, fs, "/ext/a.txt")
	require.NoError(t, svc.AddEntries(ctx, &AddEntriesRequest{Target: docs, Refs: []pathref.Ref{b, a, b}}))

	assert.Equal(t, []pathref.Ref{a, b}, svc.Global.Get(ctx)["Docs"])
	assert.Equal(t, tree.Stale, svc.Synchronizer().State(tree.NodeID(docs)))
	assert.Equal(t, tree.Populated, svc.Synchronizer().State(tree.NodeID(other)))

	err = svc.AddEntries(ctx, &AddEntriesRequest{Target: docs})
	assert.ErrorIs(t, err, ErrValidation)
	err = svc.AddEntries(ctx, &AddEntriesRequest{Target: other, Refs: []pathref.Ref{a, pathref.MustParse("file:///ext/missing.txt")}})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, svc.Global.Get(ctx)["Other"], "nothing is added when one reference is missing")
	err = svc.AddEntries(ctx, &AddEntriesRequest{Target: docs, Refs: []pathref.Ref{{}}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRemoveEntryOfFailingRefRefreshesAll(t *testing.T) {
	svc, fs := newTestService(t)
	ctx := context.Background()
	docs, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Global, Key: "Docs"})
	require.NoError(t, err)
	gone := touch(t, fs, "/ext/gone.txt")
	here := touch(t, fs, "/ext/here.txt")
	require.NoError(t, svc.AddEntries(ctx, &AddEntriesRequest{Target: docs, Refs: []pathref.Ref{gone, here}}))
	require.NoError(t, fs.Remove("/ext/gone.txt"))
	expand(ctx, svc)
	require.True(t, svc.Synchronizer().Errors().Has(gone))

	changes := recordChanges(svc)
	require.NoError(t, svc.RemoveEntry(ctx, &RemoveEntryRequest{Group: docs, Ref: here}))
	require.NoError(t, svc.RemoveEntry(ctx, &RemoveEntryRequest{Group: docs, Ref: gone}))

	require.Len(t, *changes, 2)
	assert.Equal(t, tree.NodeID(docs), (*changes)[0].Node.ID())
	assert.True(t, (*changes)[1].All())
	assert.False(t, svc.Synchronizer().Errors().Has(gone))
	assert.Empty(t, svc.Global.Get(ctx)["Docs"])
}

func TestFavorites(t *testing.T) {
	svc, fs := newTestService(t)
	ctx := context.Background()
	b := touch(t, fs, "/ext/b.txt")
	a := mkdir(t, fs, "/ext/a")

	require.NoError(t, svc.AddFavorite(ctx, b))
	require.NoError(t, svc.AddFavorite(ctx, a))
	require.NoError(t, svc.AddFavorite(ctx, b))
	assert.Equal(t, []pathref.Ref{a, b}, svc.Favorites().Get(ctx))

	require.NoError(t, svc.RemoveFavorite(ctx, a))
	assert.Equal(t, []pathref.Ref{b}, svc.Favorites().Get(ctx))

	assert.ErrorIs(t, svc.AddFavorite(ctx, pathref.Ref{}), ErrValidation)
}

func TestTouchRecent(t *testing.T) {
	svc, fs := newTestService(t)
	ctx := context.Background()

	inside := touch(t, fs, "/proj/main.go")
	folder := mkdir(t, fs, "/ext/dir")
	missing := pathref.MustParse("file:///ext/missing.txt")
	for _, ref := range []pathref.Ref{inside, folder, missing} {
		ok, err := svc.TouchRecent(ctx, ref)
		require.NoError(t, err)
		assert.False(t, ok, ref.String())
	}
	assert.Empty(t, svc.Recents().Get(ctx))

	var files []pathref.Ref
	for _, name := range []string{"1", "2", "3", "4"} {
		ref := touch(t, fs, "/ext/"+name+".txt")
		files = append(files, ref)
		ok, err := svc.TouchRecent(ctx, ref)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, []pathref.Ref{files[3], files[2], files[1]}, svc.Recents().Get(ctx))

	require.NoError(t, svc.ClearRecents(ctx))
	assert.Empty(t, svc.Recents().Get(ctx))
}

func TestRemoveRequiresConfirmation(t *testing.T) {
	svc, fs := newTestService(t)
	ctx := context.Background()
	ref := touch(t, fs, "/ext/doomed.txt")
	docs, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Global, Key: "Docs"})
	require.NoError(t, err)
	require.NoError(t, svc.AddEntries(ctx, &AddEntriesRequest{Target: docs, Refs: []pathref.Ref{ref}}))
	require.NoError(t, svc.AddFavorite(ctx, ref))
	_, err = svc.TouchRecent(ctx, ref)
	require.NoError(t, err)

	err = svc.Remove(ctx, &RemoveRequest{Ref: ref})
	assert.ErrorIs(t, err, ErrNotConfirmed)
	exists, _ := afero.Exists(fs, "/ext/doomed.txt")
	assert.True(t, exists)
	assert.Equal(t, []pathref.Ref{ref}, svc.Global.Get(ctx)["Docs"])

	require.NoError(t, svc.Remove(ctx, &RemoveRequest{Ref: ref, Confirmed: true}))
	exists, _ = afero.Exists(fs, "/ext/doomed.txt")
	assert.False(t, exists)
	assert.Empty(t, svc.Global.Get(ctx)["Docs"])
	assert.True(t, svc.Global.HasKey(ctx, "Docs"))
	assert.Empty(t, svc.Favorites().Get(ctx))
	assert.Empty(t, svc.Recents().Get(ctx))

	err = svc.Remove(ctx, &RemoveRequest{Ref: ref, Confirmed: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenamePropagatesEverywhere(t *testing.T) {
	svc, fs := newTestService(t)
	ctx := context.Background()
	ref := touch(t, fs, "/ext/old.txt")
	touch(t, fs, "/ext/taken.txt")

	global, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Global, Key: "G"})
	require.NoError(t, err)
	workspace, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Workspace, Key: "W"})
	require.NoError(t, err)
	for _, target := range []string{global, workspace} {
		require.NoError(t, svc.AddEntries(ctx, &AddEntriesRequest{Target: target, Refs: []pathref.Ref{ref}}))
	}
	require.NoError(t, svc.AddFavorite(ctx, ref))
	_, err = svc.TouchRecent(ctx, ref)
	require.NoError(t, err)

	_, err = svc.Rename(ctx, &RenameRequest{Ref: ref, NewName: "taken.txt"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.Rename(ctx, &RenameRequest{Ref: ref, NewName: "../escape.txt"})
	assert.ErrorIs(t, err, ErrValidation)

	next, err := svc.Rename(ctx, &RenameRequest{Ref: ref, NewName: "new.txt"})
	require.NoError(t, err)
	assert.Equal(t, "file:///ext/new.txt", next.String())

	want := []pathref.Ref{next}
	assert.Equal(t, want, svc.Global.Get(ctx)["G"])
	assert.Equal(t, want, svc.Workspace.Get(ctx)["W"])
	assert.Equal(t, want, svc.Favorites().Get(ctx))
	assert.Equal(t, want, svc.Recents().Get(ctx))
}

func TestNewFolderAndFile(t *testing.T) {
	svc, fs := newTestService(t)
	ctx := context.Background()
	dir := mkdir(t, fs, "/ext/A")
	file := touch(t, fs, "/ext/A/readme.md")
	docs, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Global, Key: "Docs"})
	require.NoError(t, err)
	require.NoError(t, svc.AddEntries(ctx, &AddEntriesRequest{Target: docs, Refs: []pathref.Ref{dir}}))
	expand(ctx, svc)

	sub, err := svc.NewFolder(ctx, &CreateRequest{Parent: dir, Name: "sub"})
	require.NoError(t, err)
	assert.Equal(t, "file:///ext/A/sub", sub.String())
	assert.Equal(t, tree.Stale, svc.Synchronizer().State(tree.NodeID(docs)))

	// a file parent means its folder
	created, err := svc.NewFile(ctx, &CreateRequest{Parent: file, Name: "notes.txt"})
	require.NoError(t, err)
	assert.Equal(t, "file:///ext/A/notes.txt", created.String())
	isDir, _ := afero.IsDir(fs, "/ext/A/sub")
	assert.True(t, isDir)

	_, err = svc.NewFile(ctx, &CreateRequest{Parent: dir, Name: "notes.txt"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)

	_, err = svc.NewFolder(ctx, &CreateRequest{Parent: dir, Name: "a/b"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.NewFolder(ctx, &CreateRequest{Parent: pathref.MustParse("file:///nowhere"), Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReveal(t *testing.T) {
	svc, fs := newTestService(t)
	ctx := context.Background()
	file := touch(t, fs, "/ext/A/readme.md")

	dir, err := svc.Reveal(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/ext/A"), dir)

	_, err = svc.Reveal(ctx, pathref.MustParse("file:///nowhere"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDrop(t *testing.T) {
	svc, fs := newTestService(t)
	ctx := context.Background()
	folder := mkdir(t, fs, "/ext/dir")
	file := touch(t, fs, "/ext/file.txt")
	touch(t, fs, "/proj/inside.txt")
	docs, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Global, Key: "Docs"})
	require.NoError(t, err)

	payload := "# dragged from the file manager\r\n" +
		"file:///ext/dir\r\n" +
		"\r\n" +
		"file:///ext/file.txt\r\n" +
		"file:///ext/missing.txt\r\n" +
		"file:///proj/inside.txt\r\n"

	changes := recordChanges(svc)
	added, err := svc.Drop(ctx, &DropRequest{Target: docs, URIList: payload})
	require.NoError(t, err)
	assert.ElementsMatch(t, []pathref.Ref{folder, file}, added)
	assert.Equal(t, []pathref.Ref{folder, file}, svc.Global.Get(ctx)["Docs"])
	require.Len(t, *changes, 1)
	assert.True(t, (*changes)[0].All())

	added, err = svc.Drop(ctx, &DropRequest{Target: svc.Recents().URI(), URIList: payload})
	require.NoError(t, err)
	assert.Equal(t, []pathref.Ref{file}, added)
	assert.Equal(t, []pathref.Ref{file}, svc.Recents().Get(ctx))

	_, err = svc.Drop(ctx, &DropRequest{Target: svc.Favorites().URI(), URIList: "file:///ext/dir"})
	require.NoError(t, err)
	assert.Equal(t, []pathref.Ref{folder}, svc.Favorites().Get(ctx))

	_, err = svc.Drop(ctx, &DropRequest{Target: "bm://elsewhere/", URIList: payload})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseURIList(t *testing.T) {
	refs, rejected := ParseURIList("file:///a\n#comment\n  \nhttp://%zz\n/plain/path\n")
	require.Len(t, refs, 2)
	assert.Equal(t, "file:///a", refs[0].String())
	assert.Equal(t, "file:///plain/path", refs[1].String())
	assert.Equal(t, []string{"http://%zz"}, rejected)
}

func TestApplyConfig(t *testing.T) {
	svc, fs := newTestService(t)
	ctx := context.Background()
	for _, name := range []string{"1", "2", "3"} {
		_, err := svc.TouchRecent(ctx, touch(t, fs, "/ext/"+name+".txt"))
		require.NoError(t, err)
	}
	require.NoError(t, svc.AddFavorite(ctx, touch(t, fs, "/ext/fav.txt")))

	cfg := DefaultConfig()
	cfg.MaxRecentFiles = 1
	cfg.FavoritesScope = ScopeNone
	cfg.RecentsScope = "bogus"
	require.NoError(t, svc.ApplyConfig(ctx, cfg))

	assert.Len(t, svc.Recents().Get(ctx), 1)
	assert.Equal(t, ScopeProject, svc.Config().RecentsScope)
	assert.Equal(t, "/proj", filepath.ToSlash(svc.Config().ProjectDir))

	top := svc.Synchronizer().Children(ctx, nil)
	for _, n := range top {
		assert.NotEqual(t, tree.ContextFavoritesRoot, tree.Describe(n).Context)
	}

	cfg.FavoritesScope = ScopeProject
	require.NoError(t, svc.ApplyConfig(ctx, cfg))
	assert.Empty(t, svc.Favorites().Get(ctx), "project favorites are separate from shared ones")
}

func TestExport(t *testing.T) {
	svc, fs := newTestService(t)
	ctx := context.Background()
	ref := touch(t, fs, "/ext/a.txt")
	docs, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Global, Key: "Docs"})
	require.NoError(t, err)
	require.NoError(t, svc.AddEntries(ctx, &AddEntriesRequest{Target: docs, Refs: []pathref.Ref{ref}}))
	require.NoError(t, svc.AddFavorite(ctx, ref))

	snap := svc.Export(ctx)
	assert.Equal(t, map[string][]string{"Docs": {"file:///ext/a.txt"}}, snap.Global)
	assert.Empty(t, snap.Workspace)
	assert.Equal(t, []string{"file:///ext/a.txt"}, snap.Favorites)
	assert.Empty(t, snap.Recents)
	assert.Equal(t, []string{"favorites", "globalBookmark"}, snap.Stored[string(store.ScopeShared)])
	assert.Empty(t, snap.Stored[string(store.ProjectScope("/proj"))])
}

func TestServiceWithSQLiteStore(t *testing.T) {
	dataDir := t.TempDir()
	fs := afero.NewMemMapFs()
	ctx := context.Background()

	open := func() *Service {
		backend, err := store.NewSQLite(dataDir)
		if err != nil {
			t.Fatalf("Failed to open store: %v", err)
		}
		cfg := DefaultConfig()
		cfg.ProjectDir = "/proj"
		svc, err := New(cfg, backend, fs, quietLogger())
		if err != nil {
			t.Fatalf("Failed to create service: %v", err)
		}
		return svc
	}

	svc := open()
	if _, err := svc.NewGroup(ctx, &NewGroupRequest{Scope: bookmark.Workspace, Key: "Notes"}); err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	svc = open()
	defer svc.Close()
	groups := svc.ListGroups(ctx)
	if len(groups) != 1 || groups[0].Key != "Notes" {
		t.Errorf("Expected the Notes group after reopening, got %+v", groups)
	}
}

func TestErrorTypes(t *testing.T) {
	var err error = &NotFoundError{ResourceType: "path", ResourceID: "file:///x"}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "path not found: file:///x", err.Error())

	err = &ValidationError{Field: "name", Message: "is required"}
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "name: is required", err.Error())
}
