package main

import (
	"context"
	"fmt"
	"log/slog"

	"go-jobwatch-automation/internal/config"
	"go-jobwatch-automation/internal/cycle"
	"go-jobwatch-automation/internal/logger"
	"go-jobwatch-automation/internal/notify"
	"go-jobwatch-automation/internal/scraper/symplicity"
	"go-jobwatch-automation/internal/secrets"
	"go-jobwatch-automation/internal/session"
	"go-jobwatch-automation/internal/store"
)

// app holds the collaborators every command shares.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	notifier *notify.Notifier
	provider *session.Provider
}

func loadApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(log)

	if !secrets.ResolvePassword(cfg) && cfg.Session.Username != "" {
		log.Warn("⚠️ No portal password in env or keyring, automatic re-login disabled")
	}

	notifier, err := notify.FromConfig(cfg.Notify, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init notifier: %w", err)
	}

	return &app{
		cfg:      cfg,
		log:      log,
		notifier: notifier,
		provider: session.NewProvider(cfg.Portal, cfg.Session, log),
	}, nil
}

// runner builds a cycle runner over the configured store. The caller closes
// the returned store.
func (a *app) runner(ctx context.Context) (*cycle.Runner, store.SeenStore, error) {
	st, err := store.Open(ctx, a.cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open seen-set store: %w", err)
	}

	loc := a.cfg.Location()
	s := symplicity.NewScraper(a.cfg.Portal, a.provider.Open, loc, a.log)
	r := cycle.NewRunner(s, st, a.notifier, cycle.Options{
		Filters:   s.Filters(),
		OutputCSV: a.cfg.OutputCSV,
		PostSince: a.cfg.PostSince,
		Location:  loc,
	}, a.log)
	return r, st, nil
}

// lock takes the single-instance lock next to the seen-set.
func (a *app) lock() (func() error, error) {
	path := a.cfg.Store.Path
	if a.cfg.Store.Driver == "postgres" || path == "" {
		path = a.cfg.Session.StateFile
	}
	return store.Lock(path)
}
