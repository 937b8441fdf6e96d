package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rclampitt/stratum/internal/config"
	"github.com/rclampitt/stratum/internal/layer"
	"github.com/rclampitt/stratum/internal/mapserv"
	"github.com/rclampitt/stratum/internal/prefs"
	"github.com/rclampitt/stratum/internal/state"
	"github.com/rclampitt/stratum/internal/ui"
)

// Options configure the Stratum application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/stratum/prefs.toml
	PollEvery  int    // seconds; zero uses default
}

// Run boots the Stratum TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	var clientOpts []mapserv.Option
	if cfg.CatalogURL != "" {
		clientOpts = append(clientOpts, mapserv.WithCatalog(cfg.CatalogURL))
	}
	client, err := mapserv.NewClient(cfg.ServiceURL, clientOpts...)
	if err != nil {
		return fmt.Errorf("init map service client: %w", err)
	}

	collab := layer.Collaborators{
		Remote:     client,
		Attributes: client,
		Symbols:    client,
		Counter:    client,
		Identify:   client,
	}
	if cfg.CatalogURL != "" {
		collab.Catalog = client
	}

	rec, err := layer.NewRecord(cfg.LayerConfig(), collab)
	if err != nil {
		return fmt.Errorf("init layer record: %w", err)
	}
	defer rec.Close()

	store := &state.Store{}

	interval := defaultRefreshInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	// Resolve in the background so the UI binds before any data exists.
	// Load reverts the record to its initial state on failure, so retrying
	// until the context dies is safe.
	go func() {
		for {
			err := rec.Load(ctx)
			if err == nil {
				return
			}
			log.Printf("service resolution failed: %v", err)
			store.Update("", false, nil, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
		}
	}()

	StartRefresher(ctx, store, rec, cfg.Scale, interval)

	uiOpts := ui.Options{
		Context:    ctx,
		Record:     rec,
		Store:      store,
		Scale:      cfg.Scale,
		PollTick:   interval,
		ThemeName:  userPrefs.Theme,
		ShowCounts: userPrefs.ShowCounts,
		PrefsPath:  opts.PrefsPath,
	}
	return ui.Run(uiOpts)
}
