// Package state holds the shared snapshot consumed by the UI.
//
// # Overview
//
// This package implements the data bridge between the layer record and the
// terminal UI. A background refresher flattens the record's sub-layer tree
// into display rows and publishes them through a Store; the UI reads
// snapshots on its own cadence without ever touching the record directly.
//
// # Components
//
// Row: one flattened line of the tree. Group rows carry only a name and
// depth; leaf rows carry everything the tree view renders: visibility,
// query flag, feature count, geometry type, legend entries and the
// off-scale marker for the current map scale. Placeholder leaves appear
// with safe defaults rather than being omitted, which is what lets the UI
// render immediately while resolution is still in flight.
//
// Snapshot: the complete UI-facing state, including the refresh bookkeeping
// (LastUpdated, LastError, ConsecutiveFailures). IsOffline reports two or
// more consecutive failures so the UI can surface connectivity loss without
// flickering on a single blip.
//
// Store: the concurrency boundary. Update and Snapshot are safe to call
// from any goroutine; Snapshot returns defensive copies so callers can
// mutate what they receive. A failed Update keeps the previous rows and
// records the error, so stale-but-real data outlives transient failures.
//
// Collect: the flattening pass. It walks the record's child tree in
// display order, skipping the synthetic root group, and reads every leaf
// through its handle so rows always reflect the current resolution stage.
//
// # Concurrency Model
//
// One writer (the refresher goroutine) and any number of readers. The Store
// uses a sync.RWMutex; there are no channels and no fan-out, because the UI
// polls rather than subscribes.
package state
