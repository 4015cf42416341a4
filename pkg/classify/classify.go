package classify

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
)

// Kind is what a reference currently resolves to on disk.
type Kind int

const (
	Missing Kind = iota
	Folder
	File
)

func (k Kind) String() string {
	switch k {
	case Folder:
		return "folder"
	case File:
		return "file"
	default:
		return "missing"
	}
}

// maxConcurrentStats bounds the fan-out of ClassifyMany.
const maxConcurrentStats = 16

// Entries partitions references by Kind. Each slice keeps input order.
type Entries struct {
	Folders  []pathref.Ref `json:"folders" yaml:"folders"`
	Files    []pathref.Ref `json:"files" yaml:"files"`
	Unknowns []pathref.Ref `json:"unknowns" yaml:"unknowns"`
}

// Known returns folders followed by files.
func (e Entries) Known() []pathref.Ref {
	out := make([]pathref.Ref, 0, len(e.Folders)+len(e.Files))
	out = append(out, e.Folders...)
	return append(out, e.Files...)
}

// Len is the total number of classified references.
func (e Entries) Len() int {
	return len(e.Folders) + len(e.Files) + len(e.Unknowns)
}

// Classifier resolves references against a filesystem.
type Classifier struct {
	fs     afero.Fs
	logger logrus.FieldLogger
}

// New creates a classifier over fs.
func New(fs afero.Fs, logger logrus.FieldLogger) *Classifier {
	return &Classifier{fs: fs, logger: logger}
}

// Classify stats ref. It never fails: anything that cannot be stat'ed is Missing.
func (c *Classifier) Classify(ctx context.Context, ref pathref.Ref) Kind {
	if !ref.IsFile() || ctx.Err() != nil {
		return Missing
	}
	info, err := c.fs.Stat(ref.FsPath())
	if err != nil {
		return Missing
	}
	switch {
	case info.IsDir():
		return Folder
	case info.Mode().IsRegular():
		return File
	default:
		c.logger.WithField("path", ref.FsPath()).Warnf("unknown file stat: %s", info.Mode().Type())
		return Missing
	}
}

// ClassifyMany classifies refs concurrently and partitions the results.
func (c *Classifier) ClassifyMany(ctx context.Context, refs []pathref.Ref) Entries {
	kinds := make([]Kind, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentStats)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			kinds[i] = c.Classify(gctx, ref)
			return nil
		})
	}
	_ = g.Wait()

	var entries Entries
	for i, ref := range refs {
		switch kinds[i] {
		case Folder:
			entries.Folders = append(entries.Folders, ref)
		case File:
			entries.Files = append(entries.Files, ref)
		default:
			entries.Unknowns = append(entries.Unknowns, ref)
		}
	}
	return entries
}

// FolderPath returns ref when it is a folder, its parent when it is a file.
func (c *Classifier) FolderPath(ctx context.Context, ref pathref.Ref) (pathref.Ref, bool) {
	switch c.Classify(ctx, ref) {
	case Folder:
		return ref, true
	case File:
		return ref.Parent(), true
	default:
		return pathref.Ref{}, false
	}
}

// List returns the sub-folders and files directly inside the folder ref, sorted by name.
// Symbolic links are classified by their target.
func (c *Classifier) List(ctx context.Context, ref pathref.Ref) (folders, files []pathref.Ref, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	infos, err := afero.ReadDir(c.fs, ref.FsPath())
	if err != nil {
		return nil, nil, err
	}
	for _, info := range infos {
		child := ref.Join(info.Name())
		mode := info.Mode()
		if mode&os.ModeSymlink != 0 {
			target, err := c.fs.Stat(child.FsPath())
			if err != nil {
				continue
			}
			mode = target.Mode()
		}
		switch {
		case mode.IsDir():
			folders = append(folders, child)
		case mode.IsRegular():
			files = append(files, child)
		}
	}
	return folders, files, nil
}
