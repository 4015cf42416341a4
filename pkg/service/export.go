package service

import (
	"context"

	"github.com/mattsolo1/grove-bookmarks/pkg/bookmark"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
	"github.com/mattsolo1/grove-bookmarks/pkg/store"
	"github.com/mattsolo1/grove-bookmarks/pkg/tree"
)

// Snapshot is every persisted list in serialized form.
type Snapshot struct {
	Project   string              `json:"project" yaml:"project"`
	Global    map[string][]string `json:"global" yaml:"global"`
	Workspace map[string][]string `json:"workspace" yaml:"workspace"`
	Favorites []string            `json:"favorites" yaml:"favorites"`
	Recents   []string            `json:"recents" yaml:"recents"`
	// Stored lists the persisted state keys per store scope.
	Stored map[string][]string `json:"stored" yaml:"stored"`
}

func serializeAll(refs []pathref.Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	return out
}

func serializeBookmarks(b bookmark.Bookmarks) map[string][]string {
	out := make(map[string][]string, len(b))
	for key, refs := range b {
		out[key] = serializeAll(refs)
	}
	return out
}

func (s *Service) storedKeys(ctx context.Context, projectDir string) map[string][]string {
	out := make(map[string][]string, 2)
	for _, scope := range []store.Scope{store.ScopeShared, store.ProjectScope(projectDir)} {
		keys, err := s.backend.Keys(ctx, scope)
		if err != nil {
			s.logger.WithError(err).WithField("scope", string(scope)).Warn("failed to list stored keys")
			continue
		}
		out[string(scope)] = keys
	}
	return out
}

// Export reads every registry.
func (s *Service) Export(ctx context.Context) Snapshot {
	projectDir := s.Config().ProjectDir
	return Snapshot{
		Project:   projectDir,
		Stored:    s.storedKeys(ctx, projectDir),
		Global:    serializeBookmarks(s.Global.Get(ctx)),
		Workspace: serializeBookmarks(s.Workspace.Get(ctx)),
		Favorites: serializeAll(s.Favorites().Get(ctx)),
		Recents:   serializeAll(s.Recents().Get(ctx)),
	}
}

// Tree expands the display hierarchy depth levels deep.
func (s *Service) Tree(ctx context.Context, depth int) []tree.Snapshot {
	return s.tree.Walk(ctx, depth)
}
