// Package ui implements the Stratum terminal interface.
//
// # Overview
//
// This package renders the sub-layer tree of a bound map service and lets
// the user toggle per-layer state while resolution is still in flight. It
// is built on Bubble Tea with Lip Gloss styling and Bubbles components.
//
// # Architecture
//
//   - model.go: Bubble Tea model, Options, Run, key handling
//   - view.go: header, tree rows, footer rendering
//   - helpers.go: pure formatting helpers (tested without a terminal)
//   - keys.go: key bindings
//   - theme.go: themes and pre-built styles
//
// # Data Flow
//
// The UI never reads the layer record for display data. It polls the state
// store on a fixed tick and renders whatever snapshot it gets; the
// background refresher owns the flattening. The record is touched only for
// writes: toggling visibility or the query flag on the selected row goes
// through the row's handle, and visibility changes additionally push the
// aggregate visible set to the service from a background command.
//
// Because handles are identity-stable, the UI can hold row ids across
// resolution stages. A row that is still a placeholder renders with a
// resolving marker and fills in on later ticks without any re-binding.
//
// # Key Bindings
//
//   - up/k, down/j: move the cursor
//   - v or space: toggle visibility of the selected sub-layer
//   - x: toggle the query flag of the selected sub-layer
//   - c: toggle feature counts
//   - t: cycle themes
//   - q, ctrl+c: quit
//
// Theme and count toggles persist to the preferences file best-effort; a
// failed write never interrupts the session.
//
// # Offline Behavior
//
// The header shows a resolving spinner until the record resolves, an
// OFFLINE badge when refreshes have failed repeatedly, and the last error
// truncated to fit. Stale rows stay on screen during failures because the
// store keeps previous data.
package ui
