package tree

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-bookmarks/pkg/bookmark"
	"github.com/mattsolo1/grove-bookmarks/pkg/classify"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
)

// State is the freshness of a group node's children.
type State int

const (
	Uninitialized State = iota
	Populated
	Stale
)

func (s State) String() string {
	switch s {
	case Populated:
		return "populated"
	case Stale:
		return "stale"
	default:
		return "uninitialized"
	}
}

// Sources are the registries a tree is derived from.
type Sources struct {
	Global     *bookmark.Registry
	Workspace  *bookmark.Registry
	Favorites  *bookmark.Favorites
	Recents    *bookmark.Recents
	Classifier *classify.Classifier
}

// Options control which top-level groups are shown and how folders are listed.
type Options struct {
	ShowFavorites  bool
	FavoritesScope string
	ShowRecents    bool
	RecentsScope   string
	Hidden         *HiddenMatcher
}

// Change is delivered to subscribers when part of the tree must be re-read.
// A nil Node means the whole tree.
type Change struct {
	Node Node
}

// All reports whether the change covers the whole tree.
func (c Change) All() bool {
	return c.Node == nil
}

// Synchronizer derives the display hierarchy from the registries on demand and
// tracks which parts of it are stale.
type Synchronizer struct {
	logger logrus.FieldLogger
	errors *ErrorSet

	mu        sync.Mutex
	src       Sources
	opts      Options
	favorites *FavoritesRoot
	recents   *RecentsRoot
	groups    map[bookmark.Scope]map[string]BookmarkRoot
	states    map[NodeID]State
	rootState State

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// NewSynchronizer creates a synchronizer over src.
func NewSynchronizer(src Sources, opts Options, logger logrus.FieldLogger) *Synchronizer {
	return &Synchronizer{
		src:    src,
		logger: logger.WithField("component", "tree"),
		errors: NewErrorSet(),
		opts:   opts,
		groups: make(map[bookmark.Scope]map[string]BookmarkRoot),
		states: make(map[NodeID]State),
		subs:   make(map[int]func(Change)),
	}
}

// Errors is the set of references that failed classification.
func (s *Synchronizer) Errors() *ErrorSet {
	return s.errors
}

// SetOptions replaces the display options. Callers follow up with Update(nil).
func (s *Synchronizer) SetOptions(opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = opts
}

// SetSources rebinds the registries, e.g. after a list moved to another scope.
func (s *Synchronizer) SetSources(src Sources) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src = src
}

func (s *Synchronizer) sources() Sources {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src
}

// Subscribe registers fn for change events and returns a function removing it.
func (s *Synchronizer) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Synchronizer) notify(c Change) {
	s.subMu.Lock()
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
}

// Children returns the children of parent; a nil parent means the top level.
func (s *Synchronizer) Children(ctx context.Context, parent Node) []Node {
	src := s.sources()
	switch p := parent.(type) {
	case nil:
		return s.rootChildren(ctx, src)
	case FavoritesRoot:
		entries := src.Favorites.Entries(ctx)
		return s.groupChildren(p.ID(), entries)
	case BookmarkRoot:
		reg := src.Global
		if p.Scope == bookmark.Workspace {
			reg = src.Workspace
		}
		if !s.isMemoized(p) {
			return nil
		}
		entries := reg.Entries(ctx, p.Key)
		return s.groupChildren(p.ID(), entries)
	case FolderNode:
		return s.folderChildren(ctx, src, p)
	case RecentsRoot:
		return s.recentsChildren(ctx, src, p)
	default:
		return nil
	}
}

func (s *Synchronizer) rootChildren(ctx context.Context, src Sources) []Node {
	global := src.Global.Keys(ctx)
	workspace := src.Workspace.Keys(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	var nodes []Node
	if s.opts.ShowFavorites {
		root := FavoritesRoot{URI: src.Favorites.URI(), Scope: s.opts.FavoritesScope}
		s.favorites = &root
		nodes = append(nodes, root)
	} else {
		s.favorites = nil
	}

	s.groups = make(map[bookmark.Scope]map[string]BookmarkRoot)
	for _, part := range []struct {
		reg  *bookmark.Registry
		keys []string
	}{
		{src.Global, global},
		{src.Workspace, workspace},
	} {
		memo := make(map[string]BookmarkRoot, len(part.keys))
		for _, key := range part.keys {
			root := BookmarkRoot{Scope: part.reg.Scope(), Key: key, URI: part.reg.URI(key)}
			memo[key] = root
			nodes = append(nodes, root)
		}
		s.groups[part.reg.Scope()] = memo
	}

	if s.opts.ShowRecents {
		root := RecentsRoot{URI: src.Recents.URI(), Scope: s.opts.RecentsScope}
		s.recents = &root
		nodes = append(nodes, root)
	} else {
		s.recents = nil
	}

	s.rootState = Populated
	return orEmpty(nodes, "")
}

func (s *Synchronizer) groupChildren(parent NodeID, entries classify.Entries) []Node {
	s.errors.Remove(entries.Known()...)
	s.errors.Add(entries.Unknowns...)

	nodes := make([]Node, 0, entries.Len())
	for _, r := range entries.Folders {
		nodes = append(nodes, FolderNode{Ref: r, Parent: parent, Origin: OriginGroup})
	}
	for _, r := range entries.Files {
		nodes = append(nodes, FileNode{Ref: r, Parent: parent, Origin: OriginGroup})
	}
	for _, r := range entries.Unknowns {
		nodes = append(nodes, UnknownNode{Ref: r, Parent: parent})
	}

	s.setState(parent, Populated)
	return orEmpty(nodes, parent)
}

func (s *Synchronizer) folderChildren(ctx context.Context, src Sources, folder FolderNode) []Node {
	folders, files, err := src.Classifier.List(ctx, folder.Ref)
	if err != nil {
		s.logger.WithError(err).WithField("folder", folder.Ref.String()).Debug("cannot list folder")
		return nil
	}

	s.mu.Lock()
	hidden := s.opts.Hidden
	s.mu.Unlock()

	id := folder.ID()
	var nodes []Node
	for _, r := range folders {
		if !hidden.Match(r.Name()) {
			nodes = append(nodes, FolderNode{Ref: r, Parent: id, Origin: OriginFolder})
		}
	}
	for _, r := range files {
		if !hidden.Match(r.Name()) {
			nodes = append(nodes, FileNode{Ref: r, Parent: id, Origin: OriginFolder})
		}
	}
	s.setState(id, Populated)
	return nodes
}

func (s *Synchronizer) recentsChildren(ctx context.Context, src Sources, root RecentsRoot) []Node {
	refs := src.Recents.Get(ctx)
	nodes := make([]Node, 0, len(refs))
	for _, r := range refs {
		nodes = append(nodes, FileNode{Ref: r, Parent: root.ID(), Origin: OriginRecents})
	}
	s.setState(root.ID(), Populated)
	return orEmpty(nodes, root.ID())
}

func orEmpty(nodes []Node, parent NodeID) []Node {
	if len(nodes) > 0 {
		return nodes
	}
	return []Node{EmptyNode{Parent: parent}}
}

func (s *Synchronizer) isMemoized(root BookmarkRoot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.groups[root.Scope][root.Key]
	return ok
}

func (s *Synchronizer) setState(id NodeID, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[id] = st
}

// State reports the freshness of a node; the empty ID is the top level.
func (s *Synchronizer) State(id NodeID) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		return s.rootState
	}
	return s.states[id]
}

// Lookup resolves a memoized top-level node by its ID.
func (s *Synchronizer) Lookup(id NodeID) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.favorites != nil && s.favorites.ID() == id {
		return *s.favorites, true
	}
	if s.recents != nil && s.recents.ID() == id {
		return *s.recents, true
	}
	for _, memo := range s.groups {
		for _, root := range memo {
			if root.ID() == id {
				return root, true
			}
		}
	}
	return nil, false
}

// Update marks n stale and notifies subscribers. A nil n invalidates the whole tree
// and clears the error set.
func (s *Synchronizer) Update(n Node) {
	s.mu.Lock()
	if n == nil {
		for id, st := range s.states {
			if st == Populated {
				s.states[id] = Stale
			}
		}
		if s.rootState == Populated {
			s.rootState = Stale
		}
		s.errors.Clear()
	} else if st := s.states[n.ID()]; st == Populated {
		s.states[n.ID()] = Stale
	}
	s.mu.Unlock()

	if n == nil {
		s.logger.Debug("tree invalidated")
	} else {
		s.logger.WithField("node", n.ID()).Debug("node invalidated")
	}
	s.notify(Change{Node: n})
}

// UpdateFavorites invalidates the favorites group.
func (s *Synchronizer) UpdateFavorites() {
	s.mu.Lock()
	root := s.favorites
	s.mu.Unlock()
	if root == nil {
		s.Update(nil)
		return
	}
	s.Update(*root)
}

// UpdateRecents invalidates the recents group.
func (s *Synchronizer) UpdateRecents() {
	s.mu.Lock()
	root := s.recents
	s.mu.Unlock()
	if root == nil {
		s.Update(nil)
		return
	}
	s.Update(*root)
}

// UpdateBookmark invalidates one bookmark group. A group the top level has not shown
// yet needs the top level re-read, so that case invalidates everything.
func (s *Synchronizer) UpdateBookmark(scope bookmark.Scope, key string) {
	s.mu.Lock()
	root, ok := s.groups[scope][bookmark.RegulateKey(key)]
	s.mu.Unlock()
	if !ok {
		s.Update(nil)
		return
	}
	s.Update(root)
}

// UpdateByRef invalidates every shown group holding ref or one of its ancestors and
// returns their IDs.
func (s *Synchronizer) UpdateByRef(ctx context.Context, ref pathref.Ref) []NodeID {
	type match struct {
		scope bookmark.Scope
		keys  []string
	}
	src := s.sources()
	matches := []match{
		{bookmark.Global, src.Global.Get(ctx).KeysContaining(ref)},
		{bookmark.Workspace, src.Workspace.Get(ctx).KeysContaining(ref)},
	}
	favoriteHit := false
	for _, fav := range src.Favorites.Get(ctx) {
		if fav.Contains(ref) {
			favoriteHit = true
			break
		}
	}

	var targets []Node
	s.mu.Lock()
	for _, m := range matches {
		for _, key := range m.keys {
			if root, ok := s.groups[m.scope][key]; ok {
				targets = append(targets, root)
			}
		}
	}
	if favoriteHit && s.favorites != nil {
		targets = append(targets, *s.favorites)
	}
	s.mu.Unlock()

	ids := make([]NodeID, 0, len(targets))
	for _, n := range targets {
		s.Update(n)
		ids = append(ids, n.ID())
	}
	return ids
}
