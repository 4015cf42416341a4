package bookmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-bookmarks/internal/keylock"
	"github.com/mattsolo1/grove-bookmarks/pkg/classify"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
	"github.com/mattsolo1/grove-bookmarks/pkg/store"
)

// Scope distinguishes the shared registry from the project one.
type Scope string

const (
	Global    Scope = "global"
	Workspace Scope = "workspace"
)

// StateKey is the persisted key holding the scope's mapping.
func (s Scope) StateKey() string {
	if s == Workspace {
		return "workspaceBookmark"
	}
	return "globalBookmark"
}

func (s Scope) authority() string {
	if s == Workspace {
		return authorityWorkspace
	}
	return authorityGlobal
}

// ErrKeyExists is returned when renaming onto an existing group.
var ErrKeyExists = errors.New("bookmark key already exists")

// Registry is a persisted mapping from group key to references.
type Registry struct {
	scope      Scope
	state      store.State
	classifier *classify.Classifier
	locks      *keylock.Map
	logger     logrus.FieldLogger
}

// NewRegistry creates the registry of scope persisted in state. locks serializes
// read-modify-write cycles and may be shared with other registries.
func NewRegistry(scope Scope, state store.State, classifier *classify.Classifier, locks *keylock.Map, logger logrus.FieldLogger) *Registry {
	if locks == nil {
		locks = &keylock.Map{}
	}
	return &Registry{
		scope:      scope,
		state:      state,
		classifier: classifier,
		locks:      locks,
		logger:     logger.WithField("registry", scope.StateKey()),
	}
}

// Scope reports which registry this is.
func (r *Registry) Scope() Scope {
	return r.scope
}

// Get returns the live mapping. A missing or unreadable state yields an empty mapping.
func (r *Registry) Get(ctx context.Context) Bookmarks {
	data, err := r.load(ctx)
	if err != nil {
		r.logger.WithError(err).Warn("failed to read bookmarks, using empty set")
		return Bookmarks{}
	}
	return data
}

func (r *Registry) load(ctx context.Context) (Bookmarks, error) {
	raw, ok, err := r.state.Get(ctx, r.scope.StateKey())
	if err != nil {
		return nil, err
	}
	data := Bookmarks{}
	if !ok || len(raw) == 0 {
		return data, nil
	}
	var stored map[string][]string
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.scope.StateKey(), err)
	}
	for key, values := range stored {
		refs := make([]pathref.Ref, 0, len(values))
		for _, v := range values {
			ref, err := pathref.Parse(v)
			if err != nil {
				r.logger.WithField("value", v).Warn("dropping unparsable reference")
				continue
			}
			refs = append(refs, ref)
		}
		data[key] = refs
	}
	return data, nil
}

// Set regulates data and persists it. Store errors are returned as-is.
func (r *Registry) Set(ctx context.Context, data Bookmarks) error {
	regulated := data.Regulated()
	stored := make(map[string][]string, len(regulated))
	for key, refs := range regulated {
		values := make([]string, len(refs))
		for i, ref := range refs {
			values[i] = ref.String()
		}
		stored[key] = values
	}
	// encoding/json writes map keys sorted
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.scope.StateKey(), err)
	}
	return r.state.Update(ctx, r.scope.StateKey(), raw)
}

// mutate runs fn on a fresh read and persists the result when fn reports a change.
func (r *Registry) mutate(ctx context.Context, fn func(Bookmarks) bool) (bool, error) {
	unlock := r.locks.Lock(r.scope.StateKey())
	defer unlock()

	data, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	if !fn(data) {
		return false, nil
	}
	if err := r.Set(ctx, data); err != nil {
		return false, err
	}
	return true, nil
}

// Keys lists the group keys sorted.
func (r *Registry) Keys(ctx context.Context) []string {
	return r.Get(ctx).Keys()
}

// HasKey reports whether key names a group.
func (r *Registry) HasKey(ctx context.Context, key string) bool {
	return r.Get(ctx).HasKey(key)
}

// AddKey creates an empty group; an existing group is left untouched.
func (r *Registry) AddKey(ctx context.Context, key string) error {
	_, err := r.mutate(ctx, func(b Bookmarks) bool { return b.AddKey(key) })
	return err
}

// RemoveKey deletes a group; removing an absent group is a no-op.
func (r *Registry) RemoveKey(ctx context.Context, key string) error {
	_, err := r.mutate(ctx, func(b Bookmarks) bool { return b.RemoveKey(key) })
	return err
}

// RenameKey moves a group to a new key.
func (r *Registry) RenameKey(ctx context.Context, oldKey, newKey string) error {
	var conflict bool
	_, err := r.mutate(ctx, func(b Bookmarks) bool {
		if RegulateKey(oldKey) != RegulateKey(newKey) && b.HasKey(newKey) {
			conflict = true
			return false
		}
		return b.RenameKey(oldKey, newKey)
	})
	if err != nil {
		return err
	}
	if conflict {
		return fmt.Errorf("rename %q to %q: %w", oldKey, newKey, ErrKeyExists)
	}
	return nil
}

// AddEntry puts ref at the front of key's list, creating the group if needed.
func (r *Registry) AddEntry(ctx context.Context, key string, ref pathref.Ref) error {
	_, err := r.mutate(ctx, func(b Bookmarks) bool {
		b.AddEntry(key, ref)
		return true
	})
	return err
}

// RemoveEntry drops ref from key; absent key or ref is a no-op.
func (r *Registry) RemoveEntry(ctx context.Context, key string, ref pathref.Ref) error {
	_, err := r.mutate(ctx, func(b Bookmarks) bool { return b.RemoveEntry(key, ref) })
	return err
}

// Entries classifies the references of key.
func (r *Registry) Entries(ctx context.Context, key string) classify.Entries {
	refs := r.Get(ctx)[RegulateKey(key)]
	return r.classifier.ClassifyMany(ctx, refs)
}

// URI returns the addressable identifier of key.
func (r *Registry) URI(key string) string {
	return keyURI(uriPrefix(r.scope.authority()), key)
}

// KeyFromURI is the inverse of URI. ok is false for identifiers of other registries.
func (r *Registry) KeyFromURI(uri string) (string, bool) {
	return keyFromURI(uriPrefix(r.scope.authority()), uri)
}

// OnDidChangeRef replaces oldRef with next in every group, or removes it when next is
// zero. It reports whether anything changed.
func (r *Registry) OnDidChangeRef(ctx context.Context, oldRef, next pathref.Ref) (bool, error) {
	changed, err := r.mutate(ctx, func(b Bookmarks) bool { return b.ReplaceRef(oldRef, next) })
	if changed {
		r.logger.WithFields(logrus.Fields{"old": oldRef.String(), "new": next.String()}).Debug("reference updated")
	}
	return changed, err
}
