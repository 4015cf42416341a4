package tree

import (
	"github.com/mattsolo1/grove-bookmarks/pkg/bookmark"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
)

// Icon names the glyph a node is drawn with.
type Icon string

const (
	IconStar     Icon = "star"
	IconBookmark Icon = "bookmark"
	IconHistory  Icon = "history"
	IconFolder   Icon = "folder"
	IconFile     Icon = "file"
	IconError    Icon = "error"
	IconInfo     Icon = "info"
)

// Glyph is the terminal rendering of the icon.
func (i Icon) Glyph() string {
	switch i {
	case IconStar:
		return "★"
	case IconBookmark:
		return "◆"
	case IconHistory:
		return "◷"
	case IconFolder:
		return "▸"
	case IconFile:
		return "•"
	case IconError:
		return "!"
	default:
		return "·"
	}
}

// Collapsible mirrors a tree widget's expansion state.
type Collapsible int

const (
	None Collapsible = iota
	Collapsed
	Expanded
)

// Context tags, one per node role.
const (
	ContextFavoritesRoot     = "favoritesRoot"
	ContextGlobalBookmark    = "globalBookmark"
	ContextWorkspaceBookmark = "workspaceBookmark"
	ContextRecentsRoot       = "recentlyUsedExternalFilesRoot"
	ContextRootFolder        = "rootExternalFolder"
	ContextFolder            = "externalFolder"
	ContextRootFile          = "rootExternalFile"
	ContextFile              = "externalFile"
	ContextRecentFile        = "recentlyUsedExternalFile"
	ContextRootUnknown       = "rootExternalUnknown"
	ContextEmpty             = "noFiles"
)

const (
	labelFavorites  = "Favorites"
	labelRecents    = "Recently Used External Files"
	labelEmpty      = "No external files"
	tooltipNoAccess = "Cannot access this file or folder"
)

// Item is what a display layer needs to draw a node.
type Item struct {
	ID          NodeID      `json:"id" yaml:"id"`
	Label       string      `json:"label" yaml:"label"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Tooltip     string      `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	Icon        Icon        `json:"icon" yaml:"icon"`
	Context     string      `json:"context" yaml:"context"`
	Collapsible Collapsible `json:"collapsible" yaml:"collapsible"`
	Ref         string      `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// Describe returns the display attributes of n.
func Describe(n Node) Item {
	item := Item{ID: n.ID()}
	switch v := n.(type) {
	case FavoritesRoot:
		item.Label = labelFavorites
		item.Description = v.Scope
		item.Icon = IconStar
		item.Context = ContextFavoritesRoot
		item.Collapsible = Expanded
		item.Ref = v.URI
	case BookmarkRoot:
		item.Label = v.Key
		item.Description = string(v.Scope)
		item.Icon = IconBookmark
		item.Context = ContextGlobalBookmark
		if v.Scope == bookmark.Workspace {
			item.Context = ContextWorkspaceBookmark
		}
		item.Collapsible = Collapsed
		item.Ref = v.URI
	case RecentsRoot:
		item.Label = labelRecents
		item.Description = v.Scope
		item.Icon = IconHistory
		item.Context = ContextRecentsRoot
		item.Collapsible = Expanded
		item.Ref = v.URI
	case FolderNode:
		describeLeaf(&item, v.Ref, v.Origin != OriginFolder)
		item.Icon = IconFolder
		item.Collapsible = Collapsed
		item.Context = ContextFolder
		if v.Origin == OriginGroup {
			item.Context = ContextRootFolder
		}
	case FileNode:
		describeLeaf(&item, v.Ref, v.Origin != OriginFolder)
		item.Icon = IconFile
		switch v.Origin {
		case OriginGroup:
			item.Context = ContextRootFile
		case OriginRecents:
			item.Context = ContextRecentFile
		default:
			item.Context = ContextFile
		}
	case UnknownNode:
		describeLeaf(&item, v.Ref, true)
		item.Icon = IconError
		item.Tooltip = tooltipNoAccess
		item.Context = ContextRootUnknown
	case EmptyNode:
		item.Label = labelEmpty
		item.Icon = IconInfo
		item.Context = ContextEmpty
	}
	return item
}

func describeLeaf(item *Item, ref pathref.Ref, withDir bool) {
	item.Label = pathref.StripDirectory(ref.FsPath())
	item.Ref = ref.String()
	if withDir {
		item.Description = pathref.StripFileName(ref.FsPath())
	}
}
