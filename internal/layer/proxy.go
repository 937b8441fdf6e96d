package layer

import (
	"context"
	"sync"
)

// SourceKind tags the backing implementation a Handle currently dispatches to.
type SourceKind int

const (
	// KindPlaceholder backs a handle created before any real data exists.
	KindPlaceholder SourceKind = iota
	// KindSingleLayer backs the lone sub-layer of a flat, non-attributed
	// service.
	KindSingleLayer
	// KindFeatureLayer backs the lone sub-layer of a flat attributed
	// service.
	KindFeatureLayer
	// KindDynamicLeaf backs one leaf of a grouped service's sub-layer tree.
	KindDynamicLeaf
)

func (k SourceKind) String() string {
	switch k {
	case KindPlaceholder:
		return "placeholder"
	case KindSingleLayer:
		return "single-layer"
	case KindFeatureLayer:
		return "feature-layer"
	case KindDynamicLeaf:
		return "dynamic-leaf"
	default:
		return "invalid"
	}
}

// Handle is the stable, UI-facing façade over one sub-layer. Its identity
// never changes for the record's lifetime, but its backing source and kind are
// swapped atomically as resolution progresses: placeholder first, then the
// discovered leaf, then the concrete feature class. Every read goes through
// the current source, so bindings taken before load observe real data without
// re-fetching the handle.
type Handle struct {
	mu    sync.RWMutex
	rec   *Record
	index int

	kind  SourceKind
	class FeatureClass

	visible bool
	opacity float64
}

func newHandle(rec *Record, index int) *Handle {
	return &Handle{
		rec:     rec,
		index:   index,
		kind:    KindPlaceholder,
		class:   NewPlaceholderClass(index),
		opacity: 1,
	}
}

// rebind swaps the backing source and its dispatch tag in one step. There is
// deliberately no way to change one without the other: a handle is never
// half-rebound.
func (h *Handle) rebind(class FeatureClass, kind SourceKind) {
	h.mu.Lock()
	h.class = class
	h.kind = kind
	h.mu.Unlock()
}

// applyState pushes the resolved entry state through the handle once a real
// source is attached.
func (h *Handle) applyState(st *EntryState) {
	h.mu.Lock()
	h.visible = st.Visible
	h.opacity = st.Opacity
	h.class.SetQueryable(st.Query)
	h.mu.Unlock()
}

func (h *Handle) source() (FeatureClass, SourceKind) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.class, h.kind
}

// Index returns the sub-layer index this handle addresses.
func (h *Handle) Index() int { return h.index }

// Kind returns the current dispatch tag.
func (h *Handle) Kind() SourceKind {
	_, kind := h.source()
	return kind
}

// IsPlaceholder reports whether the handle is still backed by a placeholder.
func (h *Handle) IsPlaceholder() bool {
	return h.Kind() == KindPlaceholder
}

// Name returns the sub-layer's display name, "" while unresolved.
func (h *Handle) Name() string {
	class, _ := h.source()
	return class.Name()
}

// LayerType returns the sub-layer's category.
func (h *Handle) LayerType() LayerType {
	class, _ := h.source()
	return class.Type()
}

// Queryable reads the query-enabled flag through the current source.
func (h *Handle) Queryable() bool {
	class, _ := h.source()
	return class.Queryable()
}

// SetQueryable writes the query-enabled flag through the current source.
func (h *Handle) SetQueryable(q bool) {
	class, _ := h.source()
	class.SetQueryable(q)
}

// Visible reports the handle's visibility state.
func (h *Handle) Visible() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.visible
}

// SetVisible updates the handle's visibility state. The record pushes the
// aggregate visible set to the service via ApplyVisibleLayers.
func (h *Handle) SetVisible(v bool) {
	h.mu.Lock()
	h.visible = v
	h.mu.Unlock()
}

// Opacity reports the handle's opacity.
func (h *Handle) Opacity() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.opacity
}

// SetOpacity updates the handle's opacity.
func (h *Handle) SetOpacity(o float64) {
	h.mu.Lock()
	h.opacity = o
	h.mu.Unlock()
}

// Extent returns the sub-layer extent, zero while unresolved.
func (h *Handle) Extent() Extent {
	class, _ := h.source()
	return class.Extent()
}

// ScaleSet returns the sub-layer's scale bounds.
func (h *Handle) ScaleSet() ScaleSet {
	class, _ := h.source()
	return class.ScaleSet()
}

// ScaleVisibility answers the off-scale question for the current map scale.
func (h *Handle) ScaleVisibility(scale float64) ScaleVisibility {
	class, _ := h.source()
	return class.VisibilityAt(scale)
}

// Symbology returns the loaded legend entries, empty while unresolved.
func (h *Handle) Symbology() []SymbolEntry {
	class, _ := h.source()
	return class.Symbology()
}

// attributed resolves the current source to its attributed variant, enforcing
// the kind contract: placeholders fail fast, non-attributed kinds report the
// missing attribute table.
func (h *Handle) attributed() (*AttributedClass, error) {
	class, kind := h.source()
	switch kind {
	case KindPlaceholder:
		return nil, ErrPlaceholder
	case KindFeatureLayer, KindDynamicLeaf:
		if ac, ok := class.(*AttributedClass); ok {
			return ac, nil
		}
		return nil, ErrNotAttributed
	default:
		return nil, ErrNotAttributed
	}
}

// GeometryType reports the resolved geometry type for attributed sources;
// false while unresolved or for sources without geometry.
func (h *Handle) GeometryType() (string, bool) {
	ac, err := h.attributed()
	if err != nil {
		return "", false
	}
	return ac.GeometryType()
}

// FeatureCount reports the resolved feature count; false while unresolved.
func (h *Handle) FeatureCount() (int, bool) {
	ac, err := h.attributed()
	if err != nil {
		return 0, false
	}
	return ac.FeatureCount()
}

// Attributes fetches the attribute rows scoped to the configured output
// fields. Fails fast on placeholders and non-attributed sources.
func (h *Handle) Attributes(ctx context.Context) ([]map[string]any, error) {
	ac, err := h.attributed()
	if err != nil {
		return nil, err
	}
	return ac.Rows(ctx)
}

// Fields returns the attribute schema once the background fetch completes.
func (h *Handle) Fields(ctx context.Context) ([]Field, error) {
	ac, err := h.attributed()
	if err != nil {
		return nil, err
	}
	return ac.Fields(ctx)
}

// FeatureName derives a display name for one attribute row.
func (h *Handle) FeatureName(attrs map[string]any) (string, error) {
	ac, err := h.attributed()
	if err != nil {
		return "", err
	}
	return ac.FeatureName(attrs), nil
}
