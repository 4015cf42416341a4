package service

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-bookmarks/pkg/classify"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
)

func notFound(ref pathref.Ref) error {
	return &NotFoundError{ResourceType: "path", ResourceID: ref.String()}
}

// NewFolder creates a directory named req.Name in the parent's folder.
func (s *Service) NewFolder(ctx context.Context, req *CreateRequest) (pathref.Ref, error) {
	if err := req.Validate(); err != nil {
		return pathref.Ref{}, invalid(err)
	}
	folder, ok := s.classifier.FolderPath(ctx, req.Parent)
	if !ok {
		return pathref.Ref{}, notFound(req.Parent)
	}
	target := folder.Join(req.Name)
	if err := s.fs.Mkdir(target.FsPath(), 0755); err != nil {
		return pathref.Ref{}, fmt.Errorf("create folder: %w", err)
	}
	s.tree.UpdateByRef(ctx, req.Parent)
	return target, nil
}

// NewFile creates an empty file named req.Name in the parent's folder. An existing
// file is never truncated.
func (s *Service) NewFile(ctx context.Context, req *CreateRequest) (pathref.Ref, error) {
	if err := req.Validate(); err != nil {
		return pathref.Ref{}, invalid(err)
	}
	folder, ok := s.classifier.FolderPath(ctx, req.Parent)
	if !ok {
		return pathref.Ref{}, notFound(req.Parent)
	}
	target := folder.Join(req.Name)
	f, err := s.fs.OpenFile(target.FsPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return pathref.Ref{}, fmt.Errorf("create file: %w", err)
	}
	if err := f.Close(); err != nil {
		return pathref.Ref{}, fmt.Errorf("create file: %w", err)
	}
	s.tree.UpdateByRef(ctx, req.Parent)
	return target, nil
}

// Rename renames a file or folder within its folder, then rewrites every registry that
// referenced it.
func (s *Service) Rename(ctx context.Context, req *RenameRequest) (pathref.Ref, error) {
	if err := req.Validate(); err != nil {
		return pathref.Ref{}, invalid(err)
	}
	if s.classifier.Classify(ctx, req.Ref) == classify.Missing {
		return pathref.Ref{}, notFound(req.Ref)
	}
	next := req.Ref.Parent().Join(req.NewName)
	if next.Equal(req.Ref) {
		return next, nil
	}
	if _, err := s.fs.Stat(next.FsPath()); err == nil {
		return pathref.Ref{}, &ConflictError{
			Message:      fmt.Sprintf("%s already exists", next.FsPath()),
			ResourceType: "path",
			ResourceID:   next.String(),
		}
	}
	if err := s.fs.Rename(req.Ref.FsPath(), next.FsPath()); err != nil {
		return pathref.Ref{}, fmt.Errorf("rename: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"old": req.Ref.FsPath(), "new": next.FsPath()}).Info("renamed")

	defer s.tree.Update(nil)
	if _, err := s.propagator().Propagate(ctx, req.Ref, next); err != nil {
		return next, err
	}
	return next, nil
}

// Remove deletes a file or folder recursively and drops it from every registry.
// Nothing happens unless req.Confirmed is set.
func (s *Service) Remove(ctx context.Context, req *RemoveRequest) error {
	if err := req.Validate(); err != nil {
		return invalid(err)
	}
	if !req.Confirmed {
		return ErrNotConfirmed
	}
	if s.classifier.Classify(ctx, req.Ref) == classify.Missing {
		return notFound(req.Ref)
	}
	if err := s.fs.RemoveAll(req.Ref.FsPath()); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	s.logger.WithField("path", req.Ref.FsPath()).Info("removed")

	defer s.tree.Update(nil)
	_, err := s.propagator().Propagate(ctx, req.Ref, pathref.Removed)
	return err
}

// Reveal returns the local folder to open for ref: ref itself when it is a folder, the
// containing folder when it is a file.
func (s *Service) Reveal(ctx context.Context, ref pathref.Ref) (string, error) {
	if err := validateRef(ref); err != nil {
		return "", err
	}
	folder, ok := s.classifier.FolderPath(ctx, ref)
	if !ok {
		return "", notFound(ref)
	}
	return folder.FsPath(), nil
}
