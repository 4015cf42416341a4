package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
)

type fakeTarget struct {
	changed bool
	err     error
	calls   int
}

func (f *fakeTarget) OnDidChangeRef(context.Context, pathref.Ref, pathref.Ref) (bool, error) {
	f.calls++
	return f.changed, f.err
}

func TestPropagateCallsEveryTarget(t *testing.T) {
	first := &fakeTarget{changed: true}
	second := &fakeTarget{}
	third := &fakeTarget{changed: true}
	p := NewPropagator(quietLogger(), first, second, third)

	changed, err := p.Propagate(context.Background(), pathref.MustParse("file:///a"), pathref.Removed)

	assert.NoError(t, err)
	assert.True(t, changed)
	for _, target := range []*fakeTarget{first, second, third} {
		assert.Equal(t, 1, target.calls)
	}
}

func TestPropagateJoinsFailures(t *testing.T) {
	diskFull := errors.New("disk full")
	locked := errors.New("database is locked")
	failing := &fakeTarget{err: diskFull}
	ok := &fakeTarget{changed: true}
	alsoFailing := &fakeTarget{err: locked}
	p := NewPropagator(quietLogger(), failing, ok, alsoFailing)

	changed, err := p.Propagate(context.Background(), pathref.MustParse("file:///a"), pathref.MustParse("file:///b"))

	assert.True(t, changed)
	assert.ErrorIs(t, err, diskFull)
	assert.ErrorIs(t, err, locked)
	assert.Equal(t, 1, alsoFailing.calls)
}

func TestPropagateUnchanged(t *testing.T) {
	p := NewPropagator(quietLogger(), &fakeTarget{}, &fakeTarget{})

	changed, err := p.Propagate(context.Background(), pathref.MustParse("file:///a"), pathref.Removed)

	assert.NoError(t, err)
	assert.False(t, changed)
}
