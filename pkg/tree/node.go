package tree

import (
	"github.com/mattsolo1/grove-bookmarks/pkg/bookmark"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
)

// NodeID identifies a node for invalidation. Group nodes use their registry URI;
// leaves are scoped by their parent's ID.
type NodeID string

// Node is one of FavoritesRoot, BookmarkRoot, RecentsRoot, FolderNode, FileNode,
// UnknownNode or EmptyNode.
type Node interface {
	ID() NodeID
	ParentID() NodeID
	isNode()
}

// FavoritesRoot is the top-level favorites group.
type FavoritesRoot struct {
	URI   string
	Scope string
}

// BookmarkRoot is a top-level named bookmark group.
type BookmarkRoot struct {
	Scope bookmark.Scope
	Key   string
	URI   string
}

// RecentsRoot is the top-level recently-used group.
type RecentsRoot struct {
	URI   string
	Scope string
}

// Origin records where a leaf was produced.
type Origin int

const (
	// OriginGroup leaves are registry entries shown directly under a group.
	OriginGroup Origin = iota
	// OriginFolder leaves come from listing a real directory.
	OriginFolder
	// OriginRecents leaves are entries of the recents list.
	OriginRecents
)

// FolderNode is an existing directory.
type FolderNode struct {
	Ref    pathref.Ref
	Parent NodeID
	Origin Origin
}

// FileNode is an existing regular file.
type FileNode struct {
	Ref    pathref.Ref
	Parent NodeID
	Origin Origin
}

// UnknownNode is a registry entry that failed classification.
type UnknownNode struct {
	Ref    pathref.Ref
	Parent NodeID
}

// EmptyNode is the placeholder shown by a list with no entries.
type EmptyNode struct {
	Parent NodeID
}

func (n FavoritesRoot) ID() NodeID       { return NodeID(n.URI) }
func (n FavoritesRoot) ParentID() NodeID { return "" }
func (FavoritesRoot) isNode()            {}

func (n BookmarkRoot) ID() NodeID       { return NodeID(n.URI) }
func (n BookmarkRoot) ParentID() NodeID { return "" }
func (BookmarkRoot) isNode()            {}

func (n RecentsRoot) ID() NodeID       { return NodeID(n.URI) }
func (n RecentsRoot) ParentID() NodeID { return "" }
func (RecentsRoot) isNode()            {}

func (n FolderNode) ID() NodeID       { return leafID(n.Parent, n.Ref) }
func (n FolderNode) ParentID() NodeID { return n.Parent }
func (FolderNode) isNode()            {}

func (n FileNode) ID() NodeID       { return leafID(n.Parent, n.Ref) }
func (n FileNode) ParentID() NodeID { return n.Parent }
func (FileNode) isNode()            {}

func (n UnknownNode) ID() NodeID       { return leafID(n.Parent, n.Ref) }
func (n UnknownNode) ParentID() NodeID { return n.Parent }
func (UnknownNode) isNode()            {}

func (n EmptyNode) ID() NodeID       { return n.Parent + "#empty" }
func (n EmptyNode) ParentID() NodeID { return n.Parent }
func (EmptyNode) isNode()            {}

func leafID(parent NodeID, ref pathref.Ref) NodeID {
	return parent + "|" + NodeID(ref.String())
}
