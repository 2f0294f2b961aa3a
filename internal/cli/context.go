package cli

import (
	"fmt"
	"log/slog"

	"github.com/fractary/forge/internal/config"
	"github.com/fractary/forge/internal/installer"
	"github.com/fractary/forge/internal/lockfile"
	"github.com/fractary/forge/internal/manifest"
	"github.com/fractary/forge/internal/registry"
	"github.com/fractary/forge/internal/update"
	"github.com/fractary/forge/internal/workspace"
)

// appContext wires the full component stack for one command invocation.
// Every command is a thin read-and-format wrapper over these components;
// no resolution or locking logic lives in this package.
type appContext struct {
	ws        *workspace.Workspace
	cfg       *config.Config
	cache     *manifest.Cache
	fetcher   *manifest.Fetcher
	resolver  *registry.Resolver
	installer *installer.Installer
	locks     *lockfile.Manager
	updates   *update.Manager
}

// newAppContext builds the stack rooted at the --project directory.
func newAppContext() (*appContext, error) {
	ws, err := workspace.New(flagProject)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(ws.ProjectConfigPath(), workspace.GlobalConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.Default()
	cache := manifest.NewCache()
	fetcher := manifest.NewFetcher(cache, logger)
	resolver := registry.New(ws, cfg, fetcher, logger)
	locks := lockfile.NewManager(ws, cfg, resolver, fetcher, logger)

	return &appContext{
		ws:        ws,
		cfg:       cfg,
		cache:     cache,
		fetcher:   fetcher,
		resolver:  resolver,
		installer: installer.New(ws, cfg, resolver, fetcher, logger),
		locks:     locks,
		updates:   update.NewManager(ws, cfg, resolver, fetcher, locks, logger),
	}, nil
}

// scopeFromFlag maps the --global flag to an install scope.
func scopeFromFlag(global bool) workspace.Scope {
	if global {
		return workspace.ScopeGlobal
	}
	return workspace.ScopeLocal
}
