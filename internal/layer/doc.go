// Package layer manages the client-side lifecycle of a map service layer that
// may expose a tree of sub-layers.
//
// # Overview
//
// At construction time almost nothing is known about a layer: the set of
// sub-layers, their names, whether an index is a group or a leaf, their
// renderers. All of it arrives asynchronously after a remote metadata fetch,
// and different sub-layers refine independently at different times. UI code
// needs to bind to a sub-layer before any of this is known and observe the
// whole resolution without re-binding. This package is the in-memory state
// and coordination core between "a configuration plus a remote service" and
// "a UI-safe handle tree".
//
// # Components
//
//   - Record: the layer-level coordinator. Owns the remote layer handle,
//     drives resolution on load completion, builds the descriptor tree,
//     creates and rebinds handles, answers per-index queries, fans out
//     identify requests.
//   - Handle: the stable, UI-facing proxy for one sub-layer. Identity never
//     changes; the backing source and its dispatch kind are swapped
//     atomically (placeholder, then discovered leaf, then concrete class).
//   - FeatureClass and its variants: one object per resolvable unit.
//     BasicClass draws its legend from the service; AttributedClass adds the
//     attribute schema, geometry type, feature count and row access;
//     CatalogClass resolves symbology through a nested external catalog
//     matched by depth-first search; PlaceholderClass supplies safe defaults
//     before real data exists.
//   - TreeNode: the read-only descriptor tree mirroring the server hierarchy,
//     filtered to configured entries and their descendants.
//   - Entry / Config: caller-supplied per-index configuration, defaulted
//     exactly once when first needed.
//
// # Resolution sequence
//
// A record moves constructed → loading → resolved. On load completion it
// defaults resolved entries on first access, recursively builds the
// descriptor tree (rebinding pre-existing placeholder handles to
// dynamic-leaf along the way), initializes attribute bundles for the ids the
// service reports, constructs a feature class per reported leaf, swaps it
// into the corresponding handle, and starts the per-leaf refinement fetches.
// If the configuration was marked complete, the initial visible-id set is
// pushed to the service in one call, substituting the HideAllLayers sentinel
// for an empty set.
//
// # Concurrency
//
// The record's tables are mutated only during its own resolution step under
// its mutex and treated as read-only afterward. Refinements (symbology,
// layer data, feature count) run as independent goroutines per leaf with no
// ordering between them; they write onto class-owned futures, so a record
// torn down mid-flight receives late completions as no-ops. Nothing is
// cancellable, matching the fire-and-forget fetch model.
//
// # Errors
//
// Sequencing bugs (ChildTree before resolution, attribute operations on a
// placeholder) fail fast with sentinel errors. Configuration gaps are never
// errors; defaults fill them. Unrecognized server-reported sub-layer kinds
// are logged and mapped to TypeUnknown. A non-attributed sub-layer with no
// service endpoint cannot produce a legend; that structural violation
// propagates as ErrNoSymbologySource. Failed refinements are not retried;
// the facet simply stays unresolved and callers see "not yet available".
package layer
