// Package app provides the orchestration layer for the Stratum application.
//
// # Overview
//
// This package wires together configuration, the map service client, the
// layer record, the snapshot store and the UI to create the complete
// Stratum TUI experience. It serves as the composition root where all
// dependencies are initialized and connected.
//
// # Architecture
//
// The app package follows a simple initialization pattern:
//
//  1. Load configuration from ~/.config/stratum/config.toml
//  2. Load user preferences (theme, display toggles)
//  3. Initialize the HTTP client for the map service
//  4. Create the layer record with the client as every collaborator
//  5. Launch the background loader that resolves the record
//  6. Launch the background refresher that publishes tree snapshots
//  7. Start the TUI and block until user exits or context cancels
//
// # Components
//
//   - app.go: Main Run function and the resolution loader goroutine
//   - poller.go: Background refresher that flattens the tree periodically
//
// # Resolution Before Data
//
// The UI starts immediately; the record resolves in the background. Until
// resolution completes the store stays empty (or carries the loader's last
// error) and the UI renders a resolving indicator. The refresher
// deliberately leaves the store untouched while the record is unresolved so
// resolution errors are not overwritten by empty successes.
//
// The loader retries failed resolutions: Load reverts the record to its
// initial state on error, so calling it again is always legal. Each failure
// increments the store's consecutive-failure count, which both drives the
// UI's offline indicator and feeds the refresher's exponential backoff.
//
// # Shutdown
//
// Run owns the record and closes it on return. Close tears down the
// record's acceptance of late refinement results; in-flight background
// fetches complete against detached one-shot results and are dropped.
//
// # Error Handling Philosophy
//
//   - Configuration errors are fatal (no service URL means nothing works)
//   - Resolution errors are retried and surfaced through the store
//   - Refresh errors keep previous data and mark the snapshot stale
//   - The UI always starts, even when the service is unreachable
package app
