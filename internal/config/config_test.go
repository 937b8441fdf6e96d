package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_ParsesFullConfig(t *testing.T) {
	path := writeConfig(t, `
service_url = "  https://gis.example.com/Hydro/MapServer  "
catalog_url = "https://gis.example.com/catalog"
name = "Hydro"
complete = true
scale = 24000

[[sublayer]]
index = 2
name = "Rivers"
outfields = ["OBJECTID", "RIVER_NAME"]

[sublayer.state]
visible = true
opacity = 0.8
query = true

[[sublayer]]
index = 4
state_only = true
catalog = "radar"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServiceURL != "https://gis.example.com/Hydro/MapServer" {
		t.Fatalf("ServiceURL = %q, want trimmed url", cfg.ServiceURL)
	}
	if cfg.Name != "Hydro" || !cfg.Complete || cfg.Scale != 24000 {
		t.Fatalf("header fields = %#v, want Hydro/complete/24000", cfg)
	}
	if len(cfg.Sublayers) != 2 {
		t.Fatalf("sublayers = %d, want 2", len(cfg.Sublayers))
	}

	rivers := cfg.Sublayers[0]
	if rivers.Index != 2 || rivers.Name != "Rivers" {
		t.Fatalf("rivers = %#v, want index 2 named Rivers", rivers)
	}
	if rivers.State == nil || !rivers.State.Visible || rivers.State.Opacity != 0.8 || !rivers.State.Query {
		t.Fatalf("rivers state = %#v, want visible 0.8 query", rivers.State)
	}

	radar := cfg.Sublayers[1]
	if !radar.StateOnly || radar.Catalog != "radar" || radar.State != nil {
		t.Fatalf("radar = %#v, want state-only catalog entry without state", radar)
	}
}

func TestLoad_RequiresServiceURL(t *testing.T) {
	path := writeConfig(t, `name = "Hydro"`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "service_url is required") {
		t.Fatalf("Load error = %v, want service_url required", err)
	}
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err == nil || !strings.Contains(err.Error(), "open config") {
		t.Fatalf("Load error = %v, want open config error", err)
	}
}

func TestLoad_ScaleDefaultsWhenUnset(t *testing.T) {
	path := writeConfig(t, `service_url = "gis.example.com/MapServer"`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Scale != defaultScale {
		t.Fatalf("Scale = %v, want default %v", cfg.Scale, defaultScale)
	}
}

func TestLoad_RejectsBadSublayerIndexes(t *testing.T) {
	dup := writeConfig(t, `
service_url = "gis.example.com/MapServer"
[[sublayer]]
index = 2
[[sublayer]]
index = 2
`)
	if _, err := Load(dup); err == nil || !strings.Contains(err.Error(), "duplicate sublayer index") {
		t.Fatalf("Load error = %v, want duplicate index error", err)
	}

	neg := writeConfig(t, `
service_url = "gis.example.com/MapServer"
[[sublayer]]
index = -3
`)
	if _, err := Load(neg); err == nil || !strings.Contains(err.Error(), "is negative") {
		t.Fatalf("Load error = %v, want negative index error", err)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := writeConfig(t, `service_url = [`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %v, want parse config error", err)
	}
}

func TestLayerConfig_ConvertsEntries(t *testing.T) {
	cfg := Config{
		Name:     "Hydro",
		Complete: true,
		Sublayers: []Sublayer{
			{Index: 2, Name: "Rivers", OutFields: []string{"OBJECTID"},
				State: &SublayerState{Visible: true, Opacity: 0.5}},
			{Index: 4, StateOnly: true, Catalog: "radar"},
		},
	}

	lc := cfg.LayerConfig()
	if lc.Name != "Hydro" || !lc.Complete {
		t.Fatalf("layer config = %#v, want name/complete carried", lc)
	}
	if len(lc.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(lc.Entries))
	}
	if lc.Entries[0].State == nil || lc.Entries[0].State.Opacity != 0.5 {
		t.Fatalf("entry state = %#v, want opacity 0.5", lc.Entries[0].State)
	}
	if lc.Entries[1].CatalogRef != "radar" || !lc.Entries[1].StateOnly {
		t.Fatalf("catalog entry = %#v, want ref radar state-only", lc.Entries[1])
	}
	if lc.Entries[1].State != nil {
		t.Fatalf("catalog entry state = %#v, want nil for later defaulting", lc.Entries[1].State)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
