package bookmark

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-bookmarks/internal/keylock"
	"github.com/mattsolo1/grove-bookmarks/pkg/classify"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
	"github.com/mattsolo1/grove-bookmarks/pkg/store"
)

const (
	favoritesStateKey = "favorites"
	recentsStateKey   = "recentlyUsedExternalFiles"
)

// list is a persisted single sequence of references. regulate is applied before
// every write.
type list struct {
	stateKey  string
	authority string
	state     store.State
	locks     *keylock.Map
	regulate  func([]pathref.Ref) []pathref.Ref
	logger    logrus.FieldLogger
}

func newList(stateKey, authority string, state store.State, locks *keylock.Map, regulate func([]pathref.Ref) []pathref.Ref, logger logrus.FieldLogger) *list {
	if locks == nil {
		locks = &keylock.Map{}
	}
	return &list{
		stateKey:  stateKey,
		authority: authority,
		state:     state,
		locks:     locks,
		regulate:  regulate,
		logger:    logger.WithField("registry", stateKey),
	}
}

// Get returns the stored references; read failures yield an empty list.
func (l *list) Get(ctx context.Context) []pathref.Ref {
	refs, err := l.load(ctx)
	if err != nil {
		l.logger.WithError(err).Warn("failed to read list, using empty list")
		return []pathref.Ref{}
	}
	return refs
}

func (l *list) load(ctx context.Context) ([]pathref.Ref, error) {
	raw, ok, err := l.state.Get(ctx, l.stateKey)
	if err != nil {
		return nil, err
	}
	refs := []pathref.Ref{}
	if !ok || len(raw) == 0 {
		return refs, nil
	}
	var stored []string
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.stateKey, err)
	}
	for _, v := range stored {
		ref, err := pathref.Parse(v)
		if err != nil {
			l.logger.WithField("value", v).Warn("dropping unparsable reference")
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Set regulates refs and persists them.
func (l *list) Set(ctx context.Context, refs []pathref.Ref) error {
	unlock := l.locks.Lock(l.stateKey)
	defer unlock()
	return l.write(ctx, l.regulate(append([]pathref.Ref(nil), refs...)))
}

// write persists refs as given; callers hold the key lock.
func (l *list) write(ctx context.Context, refs []pathref.Ref) error {
	values := make([]string, len(refs))
	for i, ref := range refs {
		values[i] = ref.String()
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode %s: %w", l.stateKey, err)
	}
	return l.state.Update(ctx, l.stateKey, raw)
}

func (l *list) mutate(ctx context.Context, fn func([]pathref.Ref) ([]pathref.Ref, bool)) (bool, error) {
	unlock := l.locks.Lock(l.stateKey)
	defer unlock()

	current, err := l.load(ctx)
	if err != nil {
		return false, err
	}
	next, changed := fn(current)
	if !changed {
		return false, nil
	}
	if err := l.write(ctx, l.regulate(next)); err != nil {
		return false, err
	}
	return true, nil
}

// Add moves ref to the front, then regulates.
func (l *list) Add(ctx context.Context, ref pathref.Ref) error {
	_, err := l.mutate(ctx, func(current []pathref.Ref) ([]pathref.Ref, bool) {
		return append([]pathref.Ref{ref}, pathref.Without(current, ref)...), true
	})
	return err
}

// Remove drops ref if present.
func (l *list) Remove(ctx context.Context, ref pathref.Ref) error {
	_, err := l.mutate(ctx, func(current []pathref.Ref) ([]pathref.Ref, bool) {
		if pathref.Index(current, ref) < 0 {
			return nil, false
		}
		return pathref.Without(current, ref), true
	})
	return err
}

// Clear empties the list.
func (l *list) Clear(ctx context.Context) error {
	unlock := l.locks.Lock(l.stateKey)
	defer unlock()
	return l.write(ctx, []pathref.Ref{})
}

// Regulate rewrites the stored list in canonical form.
func (l *list) Regulate(ctx context.Context) error {
	_, err := l.mutate(ctx, func(current []pathref.Ref) ([]pathref.Ref, bool) {
		return current, true
	})
	return err
}

// Contains reports whether ref is in the list.
func (l *list) Contains(ctx context.Context, ref pathref.Ref) bool {
	return pathref.Index(l.Get(ctx), ref) >= 0
}

// URI is the addressable identifier of the list.
func (l *list) URI() string {
	return uriPrefix(l.authority)
}

// OnDidChangeRef replaces or (with a zero next) removes oldRef.
func (l *list) OnDidChangeRef(ctx context.Context, oldRef, next pathref.Ref) (bool, error) {
	return l.mutate(ctx, func(current []pathref.Ref) ([]pathref.Ref, bool) {
		i := pathref.Index(current, oldRef)
		if i < 0 {
			return nil, false
		}
		if next.IsZero() {
			return append(current[:i:i], current[i+1:]...), true
		}
		current[i] = next
		return current, true
	})
}

// Favorites is the user's starred references, kept in lexical order.
type Favorites struct {
	*list
	classifier *classify.Classifier
}

// NewFavorites creates the favorites list persisted in state.
func NewFavorites(state store.State, classifier *classify.Classifier, locks *keylock.Map, logger logrus.FieldLogger) *Favorites {
	regulate := func(refs []pathref.Ref) []pathref.Ref {
		refs = pathref.Dedup(refs)
		pathref.Sort(refs)
		return refs
	}
	return &Favorites{
		list:       newList(favoritesStateKey, authorityFavorites, state, locks, regulate, logger),
		classifier: classifier,
	}
}

// Entries classifies every favorite.
func (f *Favorites) Entries(ctx context.Context) classify.Entries {
	return f.classifier.ClassifyMany(ctx, f.Get(ctx))
}

// Recents is the most-recently-used list, newest first, capped in length.
type Recents struct {
	*list
}

// NewRecents creates the recents list persisted in state. limit is read on every write
// so configuration changes take effect without rebuilding the list.
func NewRecents(state store.State, limit func() int, locks *keylock.Map, logger logrus.FieldLogger) *Recents {
	regulate := func(refs []pathref.Ref) []pathref.Ref {
		refs = pathref.Dedup(refs)
		n := limit()
		if n < 0 {
			n = 0
		}
		if len(refs) > n {
			refs = refs[:n]
		}
		return refs
	}
	return &Recents{list: newList(recentsStateKey, authorityRecents, state, locks, regulate, logger)}
}
