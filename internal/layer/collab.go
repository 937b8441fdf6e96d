package layer

import (
	"context"
	"encoding/json"
)

// Extent is a bounding box in map units.
type Extent struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// IsZero reports whether the extent carries no geometry.
func (e Extent) IsZero() bool {
	return e == Extent{}
}

// SublayerInfo is one entry of the nested sub-layer metadata a map service
// reports. SublayerIDs is nil for leaves; ParentID is -1 for top-level entries.
type SublayerInfo struct {
	ID          int
	Name        string
	Type        string
	ParentID    int
	SublayerIDs []int
	MinScale    float64
	MaxScale    float64
}

// ServiceInfo is the service-level metadata returned once the remote layer has
// loaded. An empty Sublayers slice means the service exposes a single flat
// layer rather than a tree.
type ServiceInfo struct {
	Name      string
	Extent    Extent
	MinScale  float64
	MaxScale  float64
	Sublayers []SublayerInfo
}

// RemoteLayer is the handle onto the remote map service. Describe performs the
// metadata fetch that drives resolution; SetVisibleLayers applies a visible
// sub-layer id list (the hide-all sentinel included) in a single call; Locator
// returns the resource locator for one sub-layer, or "" when the service has
// no per-sublayer endpoint.
type RemoteLayer interface {
	Describe(ctx context.Context) (ServiceInfo, error)
	SetVisibleLayers(ctx context.Context, ids []int) error
	Locator(index int) string
}

// Field describes one attribute column.
type Field struct {
	Name  string
	Alias string
	Type  string
}

// LayerData is the attribute-level metadata for one sub-layer.
type LayerData struct {
	Fields       []Field
	GeometryType string
	OIDField     string
	DisplayField string
	Renderer     json.RawMessage
}

// AttributeSource yields attribute data for a single sub-layer. Both calls may
// hit the network; the record wraps them in background fetches.
type AttributeSource interface {
	LayerData(ctx context.Context) (LayerData, error)
	Rows(ctx context.Context, outFields []string) ([]map[string]any, error)
}

// AttributeLoader initializes attribute bundles for the sub-layer ids the
// remote service actually reports. Ids without tabular attributes may be
// omitted from the returned map.
type AttributeLoader interface {
	Init(ctx context.Context, remote RemoteLayer, ids []int) (map[int]AttributeSource, error)
}

// SymbolEntry is one legend row: a display name plus an icon reference
// (typically a data URL).
type SymbolEntry struct {
	Name string
	Icon string
}

// SymbologyService converts server legend responses into SymbolEntry lists and
// renders single-feature icons from a renderer definition.
type SymbologyService interface {
	LayerLegend(ctx context.Context, index int) ([]SymbolEntry, error)
	SymbolFor(renderer json.RawMessage, attrs map[string]any) (SymbolEntry, error)
}

// FeatureCounter resolves the feature count behind a resource locator.
type FeatureCounter interface {
	Count(ctx context.Context, locator string) (int, error)
}

// IdentifyOptions describe a point-identify request against attributed
// sub-layers.
type IdentifyOptions struct {
	X         float64
	Y         float64
	Tolerance int
	Extent    Extent
	Scale     float64
}

// Identifier executes an identify request against one sub-layer locator and
// returns raw attribute rows for the hits.
type Identifier interface {
	Identify(ctx context.Context, locator string, opts IdentifyOptions) ([]map[string]any, error)
}

// CatalogNode is one entry of a nested remote catalog. Ref is the external
// identifier catalog-backed sub-layers are configured with.
type CatalogNode struct {
	Title    string
	Ref      string
	Children []CatalogNode
}

// CatalogSource serves the nested catalog and per-entry legends for
// sub-layers whose symbology lives in an external catalog service.
type CatalogSource interface {
	Catalog(ctx context.Context) (CatalogNode, error)
	RefLegend(ctx context.Context, ref string) ([]SymbolEntry, error)
}

// Collaborators bundles the external services a Record drives. Remote,
// Attributes and Symbols are required. Counter, Identify and Catalog are
// optional; without them feature counts stay unresolved, Identify fails, and
// catalog-backed entries fall back to basic symbology.
type Collaborators struct {
	Remote     RemoteLayer
	Attributes AttributeLoader
	Symbols    SymbologyService
	Counter    FeatureCounter
	Identify   Identifier
	Catalog    CatalogSource
}
