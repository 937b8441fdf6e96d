package layer

import (
	"context"
	"fmt"
	"sync"
)

// LayerType categorizes a sub-layer. Unrecognized server-reported kinds map
// to TypeUnknown rather than failing; resolution logs them once.
type LayerType string

const (
	TypeFeature LayerType = "feature"
	TypeRaster  LayerType = "raster"
	TypeGroup   LayerType = "group"
	TypeUnknown LayerType = "unknown"
)

func parseLayerType(s string) LayerType {
	switch s {
	case "Feature Layer":
		return TypeFeature
	case "Raster Layer", "Mosaic Layer", "Image Layer":
		return TypeRaster
	case "Group Layer":
		return TypeGroup
	default:
		return TypeUnknown
	}
}

// FeatureClass is the capability surface shared by every resolvable sub-layer
// unit: scale visibility, symbology, queryability, extent. Variants layer
// attribute access on top. A class is owned by exactly one record and never
// shared.
type FeatureClass interface {
	Index() int
	Name() string
	Type() LayerType
	Queryable() bool
	SetQueryable(bool)
	Extent() Extent
	ScaleSet() ScaleSet
	VisibilityAt(scale float64) ScaleVisibility
	LoadSymbology(ctx context.Context) error
	Symbology() []SymbolEntry
}

// baseClass carries the state common to all concrete variants.
type baseClass struct {
	mu        sync.RWMutex
	index     int
	name      string
	typ       LayerType
	queryable bool
	extent    Extent
	scales    ScaleSet
	symbols   []SymbolEntry

	svc     SymbologyService
	locator string
}

func (b *baseClass) Index() int { return b.index }

func (b *baseClass) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

func (b *baseClass) Type() LayerType { return b.typ }

func (b *baseClass) Queryable() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.queryable
}

func (b *baseClass) SetQueryable(q bool) {
	b.mu.Lock()
	b.queryable = q
	b.mu.Unlock()
}

func (b *baseClass) Extent() Extent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.extent
}

func (b *baseClass) ScaleSet() ScaleSet {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scales
}

func (b *baseClass) VisibilityAt(scale float64) ScaleVisibility {
	return b.ScaleSet().VisibilityAt(scale)
}

func (b *baseClass) Symbology() []SymbolEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]SymbolEntry, len(b.symbols))
	copy(out, b.symbols)
	return out
}

func (b *baseClass) setSymbology(entries []SymbolEntry) {
	b.mu.Lock()
	b.symbols = entries
	b.mu.Unlock()
}

// BasicClass is the plain variant: no attribute table, symbology drawn from
// the service's rendered legend endpoint.
type BasicClass struct {
	baseClass
}

// NewBasicClass builds the plain variant for index using the entry's resolved
// name and the sub-layer's reported scale bounds.
func NewBasicClass(index int, e *resolvedEntry, sl SublayerInfo, extent Extent, svc SymbologyService, locator string) *BasicClass {
	return &BasicClass{baseClass: baseClass{
		index:   index,
		name:    e.Name,
		typ:     parseLayerType(sl.Type),
		extent:  extent,
		scales:  ScaleSet{MinScale: sl.MinScale, MaxScale: sl.MaxScale},
		svc:     svc,
		locator: locator,
	}}
}

// LoadSymbology fetches the server-rendered legend for this sub-layer. A
// basic class without a service endpoint has nowhere to draw a legend from;
// that is a construction-contract violation and propagates as
// ErrNoSymbologySource.
func (c *BasicClass) LoadSymbology(ctx context.Context) error {
	if c.locator == "" {
		return fmt.Errorf("sublayer %d: %w", c.index, ErrNoSymbologySource)
	}
	entries, err := c.svc.LayerLegend(ctx, c.index)
	if err != nil {
		return fmt.Errorf("sublayer %d legend: %w", c.index, err)
	}
	c.setSymbology(entries)
	return nil
}

// leafStub backs a dynamic-leaf handle between tree discovery and feature
// class attachment. It knows the leaf's resolved name and scale bounds and
// answers everything else with safe defaults.
type leafStub struct {
	index  int
	name   string
	typ    LayerType
	scales ScaleSet
}

func (s *leafStub) Index() int                              { return s.index }
func (s *leafStub) Name() string                            { return s.name }
func (s *leafStub) Type() LayerType                         { return s.typ }
func (s *leafStub) Queryable() bool                         { return false }
func (s *leafStub) SetQueryable(bool)                       {}
func (s *leafStub) Extent() Extent                          { return Extent{} }
func (s *leafStub) ScaleSet() ScaleSet                      { return s.scales }
func (s *leafStub) VisibilityAt(sc float64) ScaleVisibility { return s.scales.VisibilityAt(sc) }
func (s *leafStub) LoadSymbology(context.Context) error     { return ErrPlaceholder }
func (s *leafStub) Symbology() []SymbolEntry                { return nil }
