package tree

import (
	"sort"
	"sync"

	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
)

// ErrorSet tracks references that currently fail classification.
type ErrorSet struct {
	mu   sync.RWMutex
	refs map[string]pathref.Ref
}

func NewErrorSet() *ErrorSet {
	return &ErrorSet{refs: make(map[string]pathref.Ref)}
}

func (e *ErrorSet) Has(ref pathref.Ref) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.refs[ref.String()]
	return ok
}

func (e *ErrorSet) Add(refs ...pathref.Ref) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range refs {
		e.refs[r.String()] = r
	}
}

// Remove drops refs and reports whether any was present.
func (e *ErrorSet) Remove(refs ...pathref.Ref) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	removed := false
	for _, r := range refs {
		if _, ok := e.refs[r.String()]; ok {
			delete(e.refs, r.String())
			removed = true
		}
	}
	return removed
}

func (e *ErrorSet) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refs = make(map[string]pathref.Ref)
}

func (e *ErrorSet) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.refs)
}

// Snapshot returns the members sorted by serialized form.
func (e *ErrorSet) Snapshot() []pathref.Ref {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]pathref.Ref, 0, len(e.refs))
	for _, r := range e.refs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
