package service

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/mattsolo1/grove-bookmarks/internal/keylock"
	"github.com/mattsolo1/grove-bookmarks/pkg/bookmark"
	"github.com/mattsolo1/grove-bookmarks/pkg/classify"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
	"github.com/mattsolo1/grove-bookmarks/pkg/store"
	"github.com/mattsolo1/grove-bookmarks/pkg/tree"
)

// Scope values accepted by FavoritesScope and RecentsScope.
const (
	ScopeNone    = "none"
	ScopeShared  = "shared"
	ScopeProject = "project"
)

// Config holds service configuration
type Config struct {
	ProjectDir     string
	MaxRecentFiles int
	FavoritesScope string
	RecentsScope   string
	HiddenFiles    []string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		MaxRecentFiles: 10,
		FavoritesScope: ScopeShared,
		RecentsScope:   ScopeProject,
		HiddenFiles:    []string{".DS_Store", "Thumbs.db"},
	}
}

// normalized fills defaults and replaces invalid values, logging each replacement.
func (c Config) normalized(logger logrus.FieldLogger) (Config, error) {
	def := DefaultConfig()
	if c.ProjectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return c, fmt.Errorf("get working directory: %w", err)
		}
		c.ProjectDir = wd
	}
	if c.MaxRecentFiles < 0 {
		logger.WithField("max_recent_files", c.MaxRecentFiles).Warn("negative recent files limit, using 0")
		c.MaxRecentFiles = 0
	}
	switch c.FavoritesScope {
	case ScopeNone, ScopeShared, ScopeProject:
	default:
		logger.WithField("favorites_scope", c.FavoritesScope).Warnf("invalid scope, using %s", def.FavoritesScope)
		c.FavoritesScope = def.FavoritesScope
	}
	switch c.RecentsScope {
	case ScopeShared, ScopeProject:
	default:
		logger.WithField("recents_scope", c.RecentsScope).Warnf("invalid scope, using %s", def.RecentsScope)
		c.RecentsScope = def.RecentsScope
	}
	if c.HiddenFiles == nil {
		c.HiddenFiles = def.HiddenFiles
	}
	c.HiddenFiles = append([]string(nil), c.HiddenFiles...)
	return c, nil
}

// Service is the application context. It owns every registry and the tree, and is
// the only place where registry mutations and tree invalidation meet.
type Service struct {
	backend    store.Backend
	fs         afero.Fs
	logger     logrus.FieldLogger
	classifier *classify.Classifier
	locks      *keylock.Map
	shared     store.State
	project    store.State
	projectRef pathref.Ref

	Global    *bookmark.Registry
	Workspace *bookmark.Registry

	mu        sync.RWMutex
	config    Config
	favorites *bookmark.Favorites
	recents   *bookmark.Recents
	tree      *tree.Synchronizer
}

// New creates the service. The backend is owned by the service and closed by Close.
func New(config *Config, backend store.Backend, fs afero.Fs, logger logrus.FieldLogger) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	cfg, err := config.normalized(logger)
	if err != nil {
		return nil, err
	}
	projectRef, err := pathref.FromPath(cfg.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}

	s := &Service{
		backend:    backend,
		fs:         fs,
		logger:     logger,
		classifier: classify.New(fs, logger.WithField("component", "classify")),
		locks:      &keylock.Map{},
		shared:     store.Bind(backend, store.ScopeShared),
		project:    store.Bind(backend, store.ProjectScope(cfg.ProjectDir)),
		projectRef: projectRef,
		config:     cfg,
	}
	s.Global = bookmark.NewRegistry(bookmark.Global, s.shared, s.classifier, s.locks, logger)
	s.Workspace = bookmark.NewRegistry(bookmark.Workspace, s.project, s.classifier, s.locks, logger)
	s.favorites, s.recents = s.bindLists(cfg)
	s.tree = tree.NewSynchronizer(s.sources(), treeOptions(cfg), logger)

	logger.WithFields(logrus.Fields{
		"project":   cfg.ProjectDir,
		"favorites": cfg.FavoritesScope,
		"recents":   cfg.RecentsScope,
	}).Debug("service ready")
	return s, nil
}

// Close releases the store.
func (s *Service) Close() error {
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Config returns a copy of the active configuration.
func (s *Service) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.config
	cfg.HiddenFiles = append([]string(nil), cfg.HiddenFiles...)
	return cfg
}

// Synchronizer exposes the tree for display layers that subscribe to changes.
func (s *Service) Synchronizer() *tree.Synchronizer {
	return s.tree
}

// Favorites returns the favorites list bound to the configured scope.
func (s *Service) Favorites() *bookmark.Favorites {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favorites
}

// Recents returns the recents list bound to the configured scope.
func (s *Service) Recents() *bookmark.Recents {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recents
}

func (s *Service) stateFor(scope string) store.State {
	if scope == ScopeProject {
		return s.project
	}
	return s.shared
}

func (s *Service) bindLists(cfg Config) (*bookmark.Favorites, *bookmark.Recents) {
	favorites := bookmark.NewFavorites(s.stateFor(cfg.FavoritesScope), s.classifier, s.locks, s.logger)
	recents := bookmark.NewRecents(s.stateFor(cfg.RecentsScope), s.recentLimit, s.locks, s.logger)
	return favorites, recents
}

func (s *Service) recentLimit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.MaxRecentFiles
}

func (s *Service) sources() tree.Sources {
	return tree.Sources{
		Global:     s.Global,
		Workspace:  s.Workspace,
		Favorites:  s.favorites,
		Recents:    s.recents,
		Classifier: s.classifier,
	}
}

func treeOptions(cfg Config) tree.Options {
	return tree.Options{
		ShowFavorites:  cfg.FavoritesScope != ScopeNone,
		FavoritesScope: cfg.FavoritesScope,
		ShowRecents:    true,
		RecentsScope:   cfg.RecentsScope,
		Hidden:         tree.NewHiddenMatcher(cfg.HiddenFiles),
	}
}

// ApplyConfig switches to cfg: lists follow their new scopes, the recents cap is
// re-applied and the whole tree is refreshed.
func (s *Service) ApplyConfig(ctx context.Context, config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}
	cfg, err := config.normalized(s.logger)
	if err != nil {
		return err
	}
	// the project scope is fixed for the lifetime of the service
	cfg.ProjectDir = s.Config().ProjectDir

	s.mu.Lock()
	prev := s.config
	s.config = cfg
	if prev.FavoritesScope != cfg.FavoritesScope || prev.RecentsScope != cfg.RecentsScope {
		s.favorites, s.recents = s.bindLists(cfg)
	}
	src := s.sources()
	recents := s.recents
	s.mu.Unlock()

	s.tree.SetSources(src)
	s.tree.SetOptions(treeOptions(cfg))
	defer s.tree.Update(nil)

	if err := recents.Regulate(ctx); err != nil {
		return fmt.Errorf("apply recents limit: %w", err)
	}
	return nil
}

// isExternal reports whether ref lies outside the project directory.
func (s *Service) isExternal(ref pathref.Ref) bool {
	return !s.projectRef.Contains(ref)
}

func (s *Service) propagator() *Propagator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NewPropagator(s.logger.WithField("component", "propagator"),
		s.Global, s.Workspace, s.favorites, s.recents)
}
