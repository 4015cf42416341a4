package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
)

// RefTarget is anything that stores references and must follow a rename or delete.
type RefTarget interface {
	OnDidChangeRef(ctx context.Context, oldRef, next pathref.Ref) (bool, error)
}

// Propagator fans a path identity change out to every registry.
type Propagator struct {
	targets []RefTarget
	logger  logrus.FieldLogger
}

func NewPropagator(logger logrus.FieldLogger, targets ...RefTarget) *Propagator {
	return &Propagator{targets: targets, logger: logger}
}

// Propagate replaces oldRef with next in every target, or removes it when next is
// pathref.Removed. Every target is called even after one reports a change or fails.
func (p *Propagator) Propagate(ctx context.Context, oldRef, next pathref.Ref) (bool, error) {
	var (
		changed bool
		errs    []error
	)
	for _, t := range p.targets {
		ok, err := t.OnDidChangeRef(ctx, oldRef, next)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		changed = changed || ok
	}

	p.logger.WithFields(logrus.Fields{
		"old":     oldRef.String(),
		"new":     next.String(),
		"changed": changed,
	}).Debug("propagated reference change")

	if err := errors.Join(errs...); err != nil {
		return changed, fmt.Errorf("propagate %s: %w", oldRef, err)
	}
	return changed, nil
}
