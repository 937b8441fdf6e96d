package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/rclampitt/stratum/internal/layer"
)

// Config captures the fields Stratum needs to bind a map service.
type Config struct {
	ServiceURL string
	CatalogURL string
	Name       string
	Complete   bool
	Scale      float64
	Sublayers  []Sublayer
}

// Sublayer is one configured sub-layer entry. Index keys the entry to the
// server's sub-layer id.
type Sublayer struct {
	Index     int
	Name      string
	StateOnly bool
	OutFields []string
	Catalog   string
	State     *SublayerState
}

// SublayerState is the configured display state for a sub-layer.
type SublayerState struct {
	Visible bool
	Opacity float64
	Query   bool
}

const (
	defaultConfigPath = "~/.config/stratum/config.toml"
	defaultScale      = 50000
)

// Load locates and parses the stratum config. A service URL is required, so
// unlike optional preference files a missing config is an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		ServiceURL string  `toml:"service_url"`
		CatalogURL string  `toml:"catalog_url"`
		Name       string  `toml:"name"`
		Complete   bool    `toml:"complete"`
		Scale      float64 `toml:"scale"`
		Sublayers  []struct {
			Index     int      `toml:"index"`
			Name      string   `toml:"name"`
			StateOnly bool     `toml:"state_only"`
			OutFields []string `toml:"outfields"`
			Catalog   string   `toml:"catalog"`
			State     *struct {
				Visible bool    `toml:"visible"`
				Opacity float64 `toml:"opacity"`
				Query   bool    `toml:"query"`
			} `toml:"state"`
		} `toml:"sublayer"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Config{
		ServiceURL: strings.TrimSpace(raw.ServiceURL),
		CatalogURL: strings.TrimSpace(raw.CatalogURL),
		Name:       strings.TrimSpace(raw.Name),
		Complete:   raw.Complete,
		Scale:      raw.Scale,
	}
	if cfg.ServiceURL == "" {
		return Config{}, fmt.Errorf("config %s: service_url is required", resolved)
	}
	if cfg.Scale <= 0 {
		cfg.Scale = defaultScale
	}

	seen := make(map[int]bool, len(raw.Sublayers))
	for _, s := range raw.Sublayers {
		if s.Index < 0 {
			return Config{}, fmt.Errorf("config %s: sublayer index %d is negative", resolved, s.Index)
		}
		if seen[s.Index] {
			return Config{}, fmt.Errorf("config %s: duplicate sublayer index %d", resolved, s.Index)
		}
		seen[s.Index] = true

		sub := Sublayer{
			Index:     s.Index,
			Name:      strings.TrimSpace(s.Name),
			StateOnly: s.StateOnly,
			OutFields: s.OutFields,
			Catalog:   strings.TrimSpace(s.Catalog),
		}
		if s.State != nil {
			sub.State = &SublayerState{
				Visible: s.State.Visible,
				Opacity: s.State.Opacity,
				Query:   s.State.Query,
			}
		}
		cfg.Sublayers = append(cfg.Sublayers, sub)
	}

	return cfg, nil
}

// LayerConfig converts the loaded config into the layer package's form.
func (c Config) LayerConfig() layer.Config {
	lc := layer.Config{
		Name:     c.Name,
		Complete: c.Complete,
	}
	for _, s := range c.Sublayers {
		e := layer.Entry{
			Index:      s.Index,
			Name:       s.Name,
			OutFields:  s.OutFields,
			StateOnly:  s.StateOnly,
			CatalogRef: s.Catalog,
		}
		if s.State != nil {
			e.State = &layer.EntryState{
				Visible: s.State.Visible,
				Opacity: s.State.Opacity,
				Query:   s.State.Query,
			}
		}
		lc.Entries = append(lc.Entries, e)
	}
	return lc
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
