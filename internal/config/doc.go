// Package config handles loading and parsing Stratum configuration files.
//
// # Overview
//
// This package reads Stratum's TOML configuration to discover the map
// service endpoint, the optional catalog endpoint, and the per-sublayer
// overrides that seed the layer record before the service has been
// described.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/stratum/config.toml (default)
//
// Unlike preference files, a missing config is an error: there is no
// sensible default for service_url, and nothing works without one.
//
// # TOML Format
//
// Example config.toml:
//
//	service_url = "https://gis.example.com/arcgis/rest/services/Hydro/MapServer"
//	catalog_url = "https://gis.example.com/catalog"
//	name = "Hydro"
//	complete = true
//	scale = 24000
//
//	[[sublayer]]
//	index = 2
//	name = "Rivers"
//	outfields = ["OBJECTID", "RIVER_NAME"]
//
//	[sublayer.state]
//	visible = true
//	opacity = 0.8
//	query = true
//
//	[[sublayer]]
//	index = 4
//	state_only = true
//	catalog = "radar"
//
// # Field Semantics
//
//   - service_url: Map service endpoint (required)
//   - catalog_url: Nested catalog endpoint (optional)
//   - name: Display name override; the server's map name is used when empty
//   - complete: When true, the configured visible set is pushed to the
//     service as soon as the record resolves
//   - scale: Initial map scale for scale-dependent visibility (default 50000)
//
// Each [[sublayer]] entry keys on index, the server's sub-layer id. Fields
// left unset are filled from server data when the record resolves; an entry
// appearing here at all is what distinguishes a configured sub-layer from a
// server-only one. state_only entries contribute display state but are not
// promoted to top-level tree roots. catalog names a catalog entry the
// sub-layer's symbology is served from instead of the service legend.
//
// # Validation
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - Missing or unreadable config files
//   - TOML parsing errors
//   - Missing service_url
//   - Negative or duplicate sublayer indexes
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//		log.Fatalf("failed to load config: %v", err)
//	}
//
//	client, err := mapserv.NewClient(cfg.ServiceURL, mapserv.WithCatalog(cfg.CatalogURL))
//	rec, err := layer.NewRecord(cfg.LayerConfig(), collaborators)
//
// # Design Philosophy
//
// The config package is read-only and stateless. It loads configuration
// once at startup and returns an immutable Config struct; LayerConfig
// converts it into the layer package's form so that package never depends
// on TOML or file paths.
package config
