package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"folio/internal/access"
	"folio/internal/comic"
	"folio/internal/config"
	"folio/internal/library"
	"folio/internal/logging"
	"folio/internal/progress"
	"folio/internal/services"
	"folio/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

// app bundles the long-lived collaborators a command works with.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	resolver *access.Resolver
	tracker  *progress.Tracker
	importer *library.Importer
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", path, err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// openApp opens the library store and access resolver.
func (c *commandContext) openApp() (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	resolver, err := access.NewResolver(cfg, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		resolver: resolver,
		tracker:  progress.NewTracker(st, logger),
		importer: library.NewImporter(cfg, st, resolver, logger),
	}, nil
}

// withApp runs fn with an open app and closes the store afterwards.
func (c *commandContext) withApp(fn func(*app) error) error {
	a, err := c.openApp()
	if err != nil {
		return err
	}
	defer a.store.Close()
	return fn(a)
}

// findComic resolves an id or a unique id prefix.
func (a *app) findComic(ctx context.Context, idOrPrefix string) (*comic.Comic, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, services.Invalidf("comic id is required")
	}
	c, err := a.store.Get(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	all, err := a.store.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	var matches []*comic.Comic
	for _, candidate := range all {
		if strings.HasPrefix(candidate.ID, idOrPrefix) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return nil, comic.Wrap(comic.ErrNotFound, "lookup", "no comic matches "+idOrPrefix, nil)
	case 1:
		return matches[0], nil
	default:
		return nil, services.Invalidf("id prefix %q matches %d comics; use more characters", idOrPrefix, len(matches))
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
