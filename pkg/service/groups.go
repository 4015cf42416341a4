package service

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mattsolo1/grove-bookmarks/pkg/bookmark"
	"github.com/mattsolo1/grove-bookmarks/pkg/classify"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
)

// Group is one bookmark group as listed by ListGroups.
type Group struct {
	Scope bookmark.Scope `json:"scope" yaml:"scope"`
	Key   string         `json:"key" yaml:"key"`
	URI   string         `json:"uri" yaml:"uri"`
	Size  int            `json:"size" yaml:"size"`
}

func (s *Service) registry(scope bookmark.Scope) *bookmark.Registry {
	if scope == bookmark.Workspace {
		return s.Workspace
	}
	return s.Global
}

// resolveGroup maps a group URI to its registry and key.
func (s *Service) resolveGroup(uri string) (*bookmark.Registry, string, error) {
	for _, reg := range []*bookmark.Registry{s.Global, s.Workspace} {
		if key, ok := reg.KeyFromURI(uri); ok {
			return reg, key, nil
		}
	}
	return nil, "", &NotFoundError{ResourceType: "bookmark group", ResourceID: uri}
}

// GroupURI returns the URI of key in scope without checking that the group exists.
func (s *Service) GroupURI(scope bookmark.Scope, key string) string {
	return s.registry(scope).URI(key)
}

// ListGroups returns global groups followed by project groups, each sorted by key.
func (s *Service) ListGroups(ctx context.Context) []Group {
	var groups []Group
	for _, reg := range []*bookmark.Registry{s.Global, s.Workspace} {
		data := reg.Get(ctx)
		for _, key := range data.Keys() {
			groups = append(groups, Group{
				Scope: reg.Scope(),
				Key:   key,
				URI:   reg.URI(key),
				Size:  len(data[key]),
			})
		}
	}
	return groups
}

// NewGroup creates an empty group and returns its URI.
func (s *Service) NewGroup(ctx context.Context, req *NewGroupRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", invalid(err)
	}
	reg := s.registry(req.Scope)
	key := bookmark.RegulateKey(req.Key)
	if reg.HasKey(ctx, key) {
		return "", &ConflictError{
			Message:      fmt.Sprintf("bookmark %q already exists", key),
			ResourceType: "bookmark group",
			ResourceID:   reg.URI(key),
		}
	}
	if err := reg.AddKey(ctx, key); err != nil {
		return "", fmt.Errorf("add bookmark %q: %w", key, err)
	}
	s.logger.WithFields(logrus.Fields{"scope": req.Scope, "key": key}).Info("bookmark created")
	s.tree.Update(nil)
	return reg.URI(key), nil
}

// RenameGroup moves a group to a new key and returns the new URI.
func (s *Service) RenameGroup(ctx context.Context, req *RenameGroupRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", invalid(err)
	}
	reg, oldKey, err := s.resolveGroup(req.URI)
	if err != nil {
		return "", err
	}
	newKey := bookmark.RegulateKey(req.NewKey)
	if newKey == bookmark.RegulateKey(oldKey) {
		return reg.URI(newKey), nil
	}
	if !reg.HasKey(ctx, oldKey) {
		return "", &NotFoundError{ResourceType: "bookmark group", ResourceID: req.URI}
	}
	if err := reg.RenameKey(ctx, oldKey, newKey); err != nil {
		if errors.Is(err, bookmark.ErrKeyExists) {
			return "", &ConflictError{
				Message:      fmt.Sprintf("bookmark %q already exists", newKey),
				ResourceType: "bookmark group",
				ResourceID:   reg.URI(newKey),
			}
		}
		return "", fmt.Errorf("rename bookmark %q: %w", oldKey, err)
	}
	s.tree.Update(nil)
	return reg.URI(newKey), nil
}

// RemoveGroup deletes a group and everything in it. Removing an absent group is a no-op.
func (s *Service) RemoveGroup(ctx context.Context, req *RemoveGroupRequest) error {
	if err := req.Validate(); err != nil {
		return invalid(err)
	}
	reg, key, err := s.resolveGroup(req.URI)
	if err != nil {
		return err
	}
	if err := reg.RemoveKey(ctx, key); err != nil {
		return fmt.Errorf("remove bookmark %q: %w", key, err)
	}
	s.tree.Update(nil)
	return nil
}

// AddEntries adds every reference to the target group, creating it if needed. Nothing is
// added when any reference does not exist.
func (s *Service) AddEntries(ctx context.Context, req *AddEntriesRequest) error {
	if err := req.Validate(); err != nil {
		return invalid(err)
	}
	reg, key, err := s.resolveGroup(req.Target)
	if err != nil {
		return err
	}

	entries := s.classifier.ClassifyMany(ctx, req.Refs)
	if len(entries.Unknowns) > 0 {
		return notFound(entries.Unknowns[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, ref := range req.Refs {
		ref := ref
		g.Go(func() error {
			return reg.AddEntry(gctx, key, ref)
		})
	}
	err = g.Wait()
	// some entries may have landed before the failure
	s.tree.UpdateBookmark(reg.Scope(), key)
	if err != nil {
		return fmt.Errorf("add to bookmark %q: %w", key, err)
	}
	return nil
}

// RemoveEntry drops one reference from a group. A reference that was failing
// classification leaves the error set, which needs a full refresh.
func (s *Service) RemoveEntry(ctx context.Context, req *RemoveEntryRequest) error {
	if err := req.Validate(); err != nil {
		return invalid(err)
	}
	reg, key, err := s.resolveGroup(req.Group)
	if err != nil {
		return err
	}
	if err := reg.RemoveEntry(ctx, key, req.Ref); err != nil {
		return fmt.Errorf("remove from bookmark %q: %w", key, err)
	}
	if s.tree.Errors().Remove(req.Ref) {
		s.tree.Update(nil)
	} else {
		s.tree.UpdateBookmark(reg.Scope(), key)
	}
	return nil
}

func validateRef(ref pathref.Ref) error {
	return invalid(validation.Validate(ref, refRules...))
}

// AddFavorite stars ref.
func (s *Service) AddFavorite(ctx context.Context, ref pathref.Ref) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	if err := s.Favorites().Add(ctx, ref); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	s.tree.UpdateFavorites()
	return nil
}

// RemoveFavorite unstars ref.
func (s *Service) RemoveFavorite(ctx context.Context, ref pathref.Ref) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	if err := s.Favorites().Remove(ctx, ref); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if s.tree.Errors().Remove(ref) {
		s.tree.Update(nil)
	} else {
		s.tree.UpdateFavorites()
	}
	return nil
}

// TouchRecent records that ref was used. Only existing files outside the project are
// recorded; it reports whether ref was.
func (s *Service) TouchRecent(ctx context.Context, ref pathref.Ref) (bool, error) {
	if err := validateRef(ref); err != nil {
		return false, err
	}
	if !s.isExternal(ref) {
		return false, nil
	}
	if kind := s.classifier.Classify(ctx, ref); kind != classify.File {
		s.logger.WithField("ref", ref.String()).Debugf("not recording %s reference", kind)
		return false, nil
	}
	if err := s.Recents().Add(ctx, ref); err != nil {
		return false, fmt.Errorf("record recent file: %w", err)
	}
	s.tree.UpdateRecents()
	return true, nil
}

// ClearRecents empties the recents list.
func (s *Service) ClearRecents(ctx context.Context) error {
	if err := s.Recents().Clear(ctx); err != nil {
		return fmt.Errorf("clear recent files: %w", err)
	}
	s.tree.UpdateRecents()
	return nil
}
