package bookmark

import (
	"sort"
	"strings"

	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
)

// Bookmarks maps a group key to its references. Mutating methods keep insertion order;
// Regulated produces the canonical persisted form.
type Bookmarks map[string][]pathref.Ref

// RegulateKey trims key and collapses whitespace runs to a single space.
func RegulateKey(key string) string {
	return strings.Join(strings.Fields(key), " ")
}

// Keys returns the group keys sorted.
func (b Bookmarks) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasKey reports whether key (after regulation) is a group.
func (b Bookmarks) HasKey(key string) bool {
	_, ok := b[RegulateKey(key)]
	return ok
}

// AddKey creates an empty group unless it already exists.
func (b Bookmarks) AddKey(key string) bool {
	key = RegulateKey(key)
	if _, ok := b[key]; ok {
		return false
	}
	b[key] = []pathref.Ref{}
	return true
}

// RemoveKey drops a group and its entries.
func (b Bookmarks) RemoveKey(key string) bool {
	key = RegulateKey(key)
	if _, ok := b[key]; !ok {
		return false
	}
	delete(b, key)
	return true
}

// RenameKey moves the entries of oldKey under newKey. newKey must not exist.
func (b Bookmarks) RenameKey(oldKey, newKey string) bool {
	oldKey, newKey = RegulateKey(oldKey), RegulateKey(newKey)
	entries, ok := b[oldKey]
	if !ok || oldKey == newKey {
		return false
	}
	if _, taken := b[newKey]; taken {
		return false
	}
	delete(b, oldKey)
	b[newKey] = entries
	return true
}

// AddEntry moves ref to the front of key's list, creating the group if needed.
func (b Bookmarks) AddEntry(key string, ref pathref.Ref) {
	key = RegulateKey(key)
	current := pathref.Without(b[key], ref)
	b[key] = append([]pathref.Ref{ref}, current...)
}

// RemoveEntry drops ref from key's list.
func (b Bookmarks) RemoveEntry(key string, ref pathref.Ref) bool {
	key = RegulateKey(key)
	current, ok := b[key]
	if !ok || pathref.Index(current, ref) < 0 {
		return false
	}
	b[key] = pathref.Without(current, ref)
	return true
}

// ReplaceRef swaps oldRef for next in every group; a zero next removes it.
func (b Bookmarks) ReplaceRef(oldRef, next pathref.Ref) bool {
	changed := false
	for key, refs := range b {
		i := pathref.Index(refs, oldRef)
		if i < 0 {
			continue
		}
		updated := append([]pathref.Ref(nil), refs...)
		if next.IsZero() {
			updated = pathref.Without(updated, oldRef)
		} else {
			updated[i] = next
		}
		b[key] = updated
		changed = true
	}
	return changed
}

// KeysContaining returns the sorted keys with an entry that is ref or one of its ancestors.
func (b Bookmarks) KeysContaining(ref pathref.Ref) []string {
	var keys []string
	for _, key := range b.Keys() {
		for _, entry := range b[key] {
			if entry.Contains(ref) {
				keys = append(keys, key)
				break
			}
		}
	}
	return keys
}

// Regulated returns the canonical form: regulated keys (merging collisions), entries
// deduplicated and sorted.
func (b Bookmarks) Regulated() Bookmarks {
	out := make(Bookmarks, len(b))
	for _, key := range b.Keys() {
		rk := RegulateKey(key)
		if rk == "" {
			continue
		}
		out[rk] = append(out[rk], b[key]...)
	}
	for key, refs := range out {
		refs = pathref.Dedup(refs)
		pathref.Sort(refs)
		out[key] = refs
	}
	return out
}
