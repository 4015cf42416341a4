package classify

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
)

func newTestClassifier(t *testing.T) (*Classifier, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/ext/docs/sub", 0755))
	require.NoError(t, afero.WriteFile(fs, "/ext/docs/readme.md", []byte("# hi"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/ext/docs/b.txt", nil, 0644))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(fs, logger), fs
}

func TestClassify(t *testing.T) {
	c, _ := newTestClassifier(t)
	ctx := context.Background()

	assert.Equal(t, Folder, c.Classify(ctx, pathref.MustParse("file:///ext/docs")))
	assert.Equal(t, File, c.Classify(ctx, pathref.MustParse("file:///ext/docs/readme.md")))
	assert.Equal(t, Missing, c.Classify(ctx, pathref.MustParse("file:///ext/gone.txt")))
	assert.Equal(t, Missing, c.Classify(ctx, pathref.MustParse("vscode-remote://host/ext/docs")))
}

func TestClassifyManyPartitionsInInputOrder(t *testing.T) {
	c, _ := newTestClassifier(t)

	refs := []pathref.Ref{
		pathref.MustParse("file:///ext/docs/readme.md"),
		pathref.MustParse("file:///ext/deleted"),
		pathref.MustParse("file:///ext/docs"),
		pathref.MustParse("file:///ext/docs/b.txt"),
	}

	entries := c.ClassifyMany(context.Background(), refs)

	assert.Equal(t, []pathref.Ref{refs[2]}, entries.Folders)
	assert.Equal(t, []pathref.Ref{refs[0], refs[3]}, entries.Files)
	assert.Equal(t, []pathref.Ref{refs[1]}, entries.Unknowns)
	assert.Equal(t, 4, entries.Len())
}

func TestClassifyManyEmpty(t *testing.T) {
	c, _ := newTestClassifier(t)
	entries := c.ClassifyMany(context.Background(), nil)
	assert.Equal(t, 0, entries.Len())
}

func TestFolderPath(t *testing.T) {
	c, _ := newTestClassifier(t)
	ctx := context.Background()

	folder, ok := c.FolderPath(ctx, pathref.MustParse("file:///ext/docs/readme.md"))
	require.True(t, ok)
	assert.Equal(t, "file:///ext/docs", folder.String())

	folder, ok = c.FolderPath(ctx, pathref.MustParse("file:///ext/docs"))
	require.True(t, ok)
	assert.Equal(t, "file:///ext/docs", folder.String())

	_, ok = c.FolderPath(ctx, pathref.MustParse("file:///nowhere"))
	assert.False(t, ok)
}

func TestList(t *testing.T) {
	c, _ := newTestClassifier(t)

	folders, files, err := c.List(context.Background(), pathref.MustParse("file:///ext/docs"))
	require.NoError(t, err)

	assert.Equal(t, []pathref.Ref{pathref.MustParse("file:///ext/docs/sub")}, folders)
	assert.Equal(t, []pathref.Ref{
		pathref.MustParse("file:///ext/docs/b.txt"),
		pathref.MustParse("file:///ext/docs/readme.md"),
	}, files)
}

func TestListMissingFolder(t *testing.T) {
	c, _ := newTestClassifier(t)
	_, _, err := c.List(context.Background(), pathref.MustParse("file:///ext/missing"))
	assert.Error(t, err)
}
