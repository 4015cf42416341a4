package store

import (
	"context"
	"path/filepath"
)

// Scope names a persistence domain. Shared state survives across projects; project
// state is keyed by the project's absolute directory.
type Scope string

// ScopeShared is visible from every project.
const ScopeShared Scope = "shared"

// ProjectScope returns the scope bound to a project directory.
func ProjectScope(dir string) Scope {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return Scope("project:" + filepath.ToSlash(dir))
}

// Backend persists opaque values by scope and key.
type Backend interface {
	Load(ctx context.Context, scope Scope, key string) ([]byte, bool, error)
	Save(ctx context.Context, scope Scope, key string, value []byte) error
	Keys(ctx context.Context, scope Scope) ([]string, error)
	Close() error
}

// State is a Backend bound to one scope.
type State interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Update(ctx context.Context, key string, value []byte) error
}

type scopedState struct {
	backend Backend
	scope   Scope
}

// Bind returns the State of scope inside backend.
func Bind(backend Backend, scope Scope) State {
	return &scopedState{backend: backend, scope: scope}
}

func (s *scopedState) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.backend.Load(ctx, s.scope, key)
}

func (s *scopedState) Update(ctx context.Context, key string, value []byte) error {
	return s.backend.Save(ctx, s.scope, key, value)
}
