package layer

import "errors"

var (
	// ErrNotResolved is returned by tree and per-index accessors invoked
	// before the record has resolved. This is a caller sequencing bug, not
	// a transient condition.
	ErrNotResolved = errors.New("layer: record not yet resolved")

	// ErrPlaceholder is returned when an operation needs real data and the
	// handle is still backed by a placeholder.
	ErrPlaceholder = errors.New("layer: operation not available on placeholder")

	// ErrNotAttributed is returned for attribute operations on sub-layers
	// without a tabular attribute source.
	ErrNotAttributed = errors.New("layer: sublayer has no attribute table")

	// ErrNoSymbologySource marks the structural violation of a sub-layer
	// with neither a renderer nor a service endpoint to draw a legend from.
	ErrNoSymbologySource = errors.New("layer: sublayer has neither renderer nor service endpoint")

	// ErrClosed is returned when the record was torn down.
	ErrClosed = errors.New("layer: record closed")

	// ErrUnknownIndex is returned for indexes the service never reported.
	ErrUnknownIndex = errors.New("layer: no such sublayer index")

	// ErrNoIdentifier is returned by Identify when no identify collaborator
	// was supplied.
	ErrNoIdentifier = errors.New("layer: no identify collaborator configured")
)

// HideAllLayers is the sentinel visible-layer id meaning "hide every
// sub-layer". A fully-specified configuration with zero visible entries
// applies [HideAllLayers] rather than an empty list, which services interpret
// as "show defaults".
const HideAllLayers = -1
