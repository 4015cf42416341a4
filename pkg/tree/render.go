package tree

import (
	"context"

	"github.com/disiqueira/gotree/v3"
)

// Snapshot is a described node with its expanded children.
type Snapshot struct {
	Item     `yaml:",inline"`
	Children []Snapshot `json:"children,omitempty" yaml:"children,omitempty"`
}

// Walk expands the tree from the top level down to depth levels. Levels below depth
// are left unexpanded; a depth below one is treated as one.
func (s *Synchronizer) Walk(ctx context.Context, depth int) []Snapshot {
	if depth < 1 {
		depth = 1
	}
	return s.walk(ctx, nil, depth)
}

func (s *Synchronizer) walk(ctx context.Context, parent Node, depth int) []Snapshot {
	if depth == 0 || ctx.Err() != nil {
		return nil
	}
	children := s.Children(ctx, parent)
	out := make([]Snapshot, 0, len(children))
	for _, child := range children {
		snap := Snapshot{Item: Describe(child)}
		if snap.Collapsible != None {
			snap.Children = s.walk(ctx, child, depth-1)
		}
		out = append(out, snap)
	}
	return out
}

// Render draws snapshots as an ASCII tree under rootLabel.
func Render(rootLabel string, snapshots []Snapshot) string {
	root := gotree.New(rootLabel)
	for _, snap := range snapshots {
		addSnapshot(root, snap)
	}
	return root.Print()
}

func addSnapshot(parent gotree.Tree, snap Snapshot) {
	label := snap.Icon.Glyph() + " " + snap.Label
	if snap.Description != "" {
		label += "  (" + snap.Description + ")"
	}
	node := parent.Add(label)
	for _, child := range snap.Children {
		addSnapshot(node, child)
	}
}
