package layer

import "context"

// PlaceholderClass stands in for a sub-layer before any real data exists. It
// supplies safe defaults for every property so dependents bound early never
// observe missing state: no geometry, empty symbology, query disabled,
// always on scale.
type PlaceholderClass struct {
	index int
}

// NewPlaceholderClass returns a placeholder for index.
func NewPlaceholderClass(index int) *PlaceholderClass {
	return &PlaceholderClass{index: index}
}

func (p *PlaceholderClass) Index() int                            { return p.index }
func (p *PlaceholderClass) Name() string                          { return "" }
func (p *PlaceholderClass) Type() LayerType                       { return TypeUnknown }
func (p *PlaceholderClass) Queryable() bool                       { return false }
func (p *PlaceholderClass) SetQueryable(bool)                     {}
func (p *PlaceholderClass) Extent() Extent                        { return Extent{} }
func (p *PlaceholderClass) ScaleSet() ScaleSet                    { return ScaleSet{} }
func (p *PlaceholderClass) VisibilityAt(float64) ScaleVisibility  { return ScaleVisibility{} }
func (p *PlaceholderClass) LoadSymbology(context.Context) error   { return ErrPlaceholder }
func (p *PlaceholderClass) Symbology() []SymbolEntry              { return nil }
