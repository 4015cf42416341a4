package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mattsolo1/grove-bookmarks/pkg/classify"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
)

// MimeURIList is the only payload type Drop accepts.
const MimeURIList = "text/uri-list"

// ParseURIList reads a text/uri-list payload: one reference per line, blank lines and
// "#" comments skipped. Lines that do not parse are returned in rejected.
func ParseURIList(payload string) (refs []pathref.Ref, rejected []string) {
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ref, err := pathref.Parse(line)
		if err != nil {
			rejected = append(rejected, line)
			continue
		}
		refs = append(refs, ref)
	}
	return refs, rejected
}

// dropTarget adds accepted references to one group or list.
type dropTarget struct {
	accept func(classify.Kind) bool
	add    func(ctx context.Context, refs []pathref.Ref) error
}

func acceptExisting(k classify.Kind) bool { return k != classify.Missing }
func acceptFiles(k classify.Kind) bool    { return k == classify.File }

func (s *Service) dropTarget(uri string) (dropTarget, error) {
	if reg, key, err := s.resolveGroup(uri); err == nil {
		return dropTarget{
			accept: acceptExisting,
			add: func(ctx context.Context, refs []pathref.Ref) error {
				g, gctx := errgroup.WithContext(ctx)
				for _, ref := range refs {
					ref := ref
					g.Go(func() error { return reg.AddEntry(gctx, key, ref) })
				}
				return g.Wait()
			},
		}, nil
	}

	favorites, recents := s.Favorites(), s.Recents()
	switch uri {
	case favorites.URI():
		return dropTarget{
			accept: acceptExisting,
			add: func(ctx context.Context, refs []pathref.Ref) error {
				for _, ref := range refs {
					if err := favorites.Add(ctx, ref); err != nil {
						return err
					}
				}
				return nil
			},
		}, nil
	case recents.URI():
		return dropTarget{
			accept: acceptFiles,
			add: func(ctx context.Context, refs []pathref.Ref) error {
				// added oldest first so the first dropped ends up most recent
				for i := len(refs) - 1; i >= 0; i-- {
					if err := recents.Add(ctx, refs[i]); err != nil {
						return err
					}
				}
				return nil
			},
		}, nil
	}
	return dropTarget{}, &NotFoundError{ResourceType: "drop target", ResourceID: uri}
}

// Drop adds the references of a text/uri-list payload to the group or list addressed
// by req.Target. References inside the project, missing ones and, for recents,
// folders are skipped. It returns the references that were added.
func (s *Service) Drop(ctx context.Context, req *DropRequest) ([]pathref.Ref, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	target, err := s.dropTarget(req.Target)
	if err != nil {
		return nil, err
	}

	refs, rejected := ParseURIList(req.URIList)
	for _, line := range rejected {
		s.logger.WithField("line", line).Warn("skipping unparsable dropped reference")
	}

	external := refs[:0:0]
	for _, ref := range refs {
		if s.isExternal(ref) {
			external = append(external, ref)
		}
	}
	kinds := make([]classify.Kind, len(external))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(16)
	for i, ref := range external {
		i, ref := i, ref
		g.Go(func() error {
			kinds[i] = s.classifier.Classify(gctx, ref)
			return nil
		})
	}
	_ = g.Wait()

	var accepted []pathref.Ref
	for i, ref := range external {
		if target.accept(kinds[i]) {
			accepted = append(accepted, ref)
		}
	}

	defer s.tree.Update(nil)
	if len(accepted) == 0 {
		return nil, nil
	}
	if err := target.add(ctx, accepted); err != nil {
		return nil, fmt.Errorf("drop onto %s: %w", req.Target, err)
	}
	return accepted, nil
}
