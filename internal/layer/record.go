package layer

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rclampitt/stratum/internal/async"
)

type recordState int

const (
	stateConstructed recordState = iota
	stateLoading
	stateResolved
)

// Record coordinates the lifecycle of one map layer: it owns the remote layer
// handle, drives the resolution sequence once the service metadata loads,
// builds the descriptor tree, creates and rebinds proxy handles, and answers
// layer-wide and per-sub-layer queries.
//
// Handles may be requested at any time; before resolution they are backed by
// placeholders and upgraded in place later. Per-leaf refinement fetches run as
// independent goroutines that write onto class-owned state, so they race
// freely against each other and tolerate a record torn down mid-flight.
type Record struct {
	cfg    Config
	collab Collaborators

	mu      sync.RWMutex
	state   recordState
	closed  bool
	info    ServiceInfo
	entries map[int]*resolvedEntry
	tree    *TreeNode
	classes map[int]FeatureClass
	handles map[int]*Handle
}

// NewRecord constructs a record in the un-loaded state. Handles requested
// before Load complete against placeholder sources.
func NewRecord(cfg Config, collab Collaborators) (*Record, error) {
	if collab.Remote == nil {
		return nil, fmt.Errorf("layer: remote layer collaborator is required")
	}
	if collab.Attributes == nil {
		return nil, fmt.Errorf("layer: attribute loader collaborator is required")
	}
	if collab.Symbols == nil {
		return nil, fmt.Errorf("layer: symbology collaborator is required")
	}
	r := &Record{
		cfg:     cfg,
		collab:  collab,
		entries: make(map[int]*resolvedEntry),
		classes: make(map[int]FeatureClass),
		handles: make(map[int]*Handle),
	}
	for _, e := range cfg.Entries {
		entry := e
		r.entries[e.Index] = &resolvedEntry{Entry: entry}
	}
	return r, nil
}

// Name returns the configured layer name, falling back to the service name
// once known.
func (r *Record) Name() string {
	if r.cfg.Name != "" {
		return r.cfg.Name
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.info.Name
}

// Resolved reports whether the resolution sequence has completed. Per-leaf
// refinements may still be in flight.
func (r *Record) Resolved() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == stateResolved
}

// Close marks the record torn down. In-flight fetches are not cancellable;
// their late completions land on leaf-owned state and are ignored.
func (r *Record) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Record) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Handle returns the proxy handle for index, creating a placeholder-backed one
// when none exists yet. It never fails merely because data has not loaded.
func (r *Record) Handle(index int) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[index]
	if !ok {
		h = newHandle(r, index)
		r.handles[index] = h
	}
	return h
}

// ChildTree returns the descriptor tree. Calling it before resolution is a
// sequencing bug and fails with ErrNotResolved.
func (r *Record) ChildTree() (*TreeNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != stateResolved {
		return nil, ErrNotResolved
	}
	return r.tree, nil
}

// Load fetches the service metadata and runs the resolution sequence. On
// return the record is resolved and per-leaf refinements are in flight.
func (r *Record) Load(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.state != stateConstructed {
		r.mu.Unlock()
		return fmt.Errorf("layer: load already started")
	}
	r.state = stateLoading
	r.mu.Unlock()

	info, err := r.collab.Remote.Describe(ctx)
	if err != nil {
		r.mu.Lock()
		r.state = stateConstructed
		r.mu.Unlock()
		return fmt.Errorf("describe service: %w", err)
	}
	return r.resolve(ctx, info)
}

// resolve performs the load-completion sequence: resolved-entry defaulting,
// descriptor tree construction, attribute bundle initialization, feature
// class creation with handle rebinding, refinement kickoff, and the initial
// visibility push for complete configurations.
func (r *Record) resolve(ctx context.Context, info ServiceInfo) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.info = info

	byID := make(map[int]SublayerInfo, len(info.Sublayers))
	reported := make([]int, 0, len(info.Sublayers))
	for _, sl := range info.Sublayers {
		byID[sl.ID] = sl
		reported = append(reported, sl.ID)
		if t := parseLayerType(sl.Type); t == TypeUnknown && sl.Type != "" {
			log.Printf("layer: sublayer %d reports unrecognized kind %q, treating as unknown", sl.ID, sl.Type)
		}
	}
	sort.Ints(reported)

	if len(info.Sublayers) == 0 {
		err := r.resolveFlat(ctx, info)
		r.mu.Unlock()
		return err
	}

	r.tree = &TreeNode{ID: -1, Name: r.cfg.Name, Group: true, Children: r.buildRoots(byID)}

	sources, err := r.collab.Attributes.Init(ctx, r.collab.Remote, reported)
	if err != nil {
		log.Printf("layer: attribute bundle init failed, continuing without attributes: %v", err)
		sources = nil
	}

	for _, id := range reported {
		sl := byID[id]
		if len(sl.SublayerIDs) > 0 {
			continue
		}
		e := r.entryFor(id, sl.Name)
		class := r.buildClass(sl, e, info.Extent, sources[id])
		r.classes[id] = class

		h, ok := r.handles[id]
		if !ok {
			h = newHandle(r, id)
			r.handles[id] = h
		}
		h.rebind(class, KindDynamicLeaf)
		h.applyState(e.State)

		r.beginRefinements(class)
	}

	r.state = stateResolved
	r.mu.Unlock()

	if r.cfg.Complete {
		if err := r.pushInitialVisibility(ctx); err != nil {
			log.Printf("layer: initial visibility push failed: %v", err)
		}
	}
	return nil
}

// resolveFlat handles services without a sub-layer tree: one feature class at
// index 0, proxied as single-layer or feature-layer. Callers hold r.mu.
func (r *Record) resolveFlat(ctx context.Context, info ServiceInfo) error {
	sl := SublayerInfo{ID: 0, Name: info.Name, MinScale: info.MinScale, MaxScale: info.MaxScale}

	sources, err := r.collab.Attributes.Init(ctx, r.collab.Remote, []int{0})
	if err != nil {
		log.Printf("layer: attribute bundle init failed, continuing without attributes: %v", err)
		sources = nil
	}
	source := sources[0]
	if source != nil {
		sl.Type = "Feature Layer"
	} else {
		sl.Type = "Raster Layer"
	}

	e := r.entryFor(0, info.Name)
	class := r.buildClass(sl, e, info.Extent, source)
	r.classes[0] = class
	r.tree = &TreeNode{ID: 0}

	kind := KindSingleLayer
	if _, ok := class.(*AttributedClass); ok {
		kind = KindFeatureLayer
	}
	h, ok := r.handles[0]
	if !ok {
		h = newHandle(r, 0)
		r.handles[0] = h
	}
	h.rebind(class, kind)
	h.applyState(e.State)

	r.beginRefinements(class)
	r.state = stateResolved
	return nil
}

// buildRoots walks the server hierarchy from each top-level configured index
// in configuration order, skipping state-only entries. A configuration with
// no tree entries at all mirrors every top-level sub-layer the server
// reports. Callers hold r.mu.
func (r *Record) buildRoots(byID map[int]SublayerInfo) []*TreeNode {
	var rootIDs []int
	seen := make(map[int]bool)
	for _, e := range r.cfg.Entries {
		if e.StateOnly || seen[e.Index] {
			continue
		}
		seen[e.Index] = true
		rootIDs = append(rootIDs, e.Index)
	}
	if len(rootIDs) == 0 {
		for _, sl := range r.info.Sublayers {
			if sl.ParentID < 0 {
				rootIDs = append(rootIDs, sl.ID)
			}
		}
	}
	children := make([]*TreeNode, 0, len(rootIDs))
	for _, id := range rootIDs {
		children = append(children, r.buildNode(byID, id))
	}
	return children
}

// buildClass selects the variant for one discovered leaf: catalog-backed when
// the entry carries a catalog ref, attributed when the server reports a
// feature layer with an attribute source, basic otherwise.
func (r *Record) buildClass(sl SublayerInfo, e *resolvedEntry, extent Extent, source AttributeSource) FeatureClass {
	locator := r.collab.Remote.Locator(sl.ID)
	if e.CatalogRef != "" && r.collab.Catalog != nil {
		return NewCatalogClass(sl.ID, e, sl, extent, r.collab.Symbols, locator, r.collab.Catalog)
	}
	if source != nil && parseLayerType(sl.Type) == TypeFeature {
		return NewAttributedClass(sl.ID, e, sl, extent, r.collab.Symbols, locator, source)
	}
	return NewBasicClass(sl.ID, e, sl, extent, r.collab.Symbols, locator)
}

// beginRefinements starts the independent per-leaf fetches: symbology for
// every class, layer data and feature count for attributed ones. No ordering
// is guaranteed between leaves or between facets of one leaf.
func (r *Record) beginRefinements(class FeatureClass) {
	go func() {
		if err := class.LoadSymbology(context.Background()); err != nil {
			if r.isClosed() {
				return
			}
			log.Printf("layer: symbology load for sublayer %d failed: %v", class.Index(), err)
		}
	}()
	if ac, ok := class.(*AttributedClass); ok {
		ac.beginRefinements(r.collab.Counter)
	}
}

// pushInitialVisibility computes the visible-index set from resolved entry
// states and applies it to the service in one call, substituting the hide-all
// sentinel for an empty set.
func (r *Record) pushInitialVisibility(ctx context.Context) error {
	r.mu.RLock()
	var visible []int
	for id := range r.classes {
		if e, ok := r.entries[id]; ok && e.defaulted && e.State.Visible {
			visible = append(visible, id)
		}
	}
	r.mu.RUnlock()
	sort.Ints(visible)
	if len(visible) == 0 {
		visible = []int{HideAllLayers}
	}
	return r.collab.Remote.SetVisibleLayers(ctx, visible)
}

// ApplyVisibleLayers pushes the current handle visibility states to the
// service, using the hide-all sentinel when nothing is visible.
func (r *Record) ApplyVisibleLayers(ctx context.Context) error {
	r.mu.RLock()
	if r.state != stateResolved {
		r.mu.RUnlock()
		return ErrNotResolved
	}
	var visible []int
	for id := range r.classes {
		if h, ok := r.handles[id]; ok && h.Visible() {
			visible = append(visible, id)
		}
	}
	r.mu.RUnlock()
	sort.Ints(visible)
	if len(visible) == 0 {
		visible = []int{HideAllLayers}
	}
	return r.collab.Remote.SetVisibleLayers(ctx, visible)
}

// class returns the feature class for index once resolved.
func (r *Record) class(index int) (FeatureClass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != stateResolved {
		return nil, ErrNotResolved
	}
	class, ok := r.classes[index]
	if !ok {
		return nil, fmt.Errorf("sublayer %d: %w", index, ErrUnknownIndex)
	}
	return class, nil
}

// Queryable reports whether the sub-layer at index answers attribute queries.
func (r *Record) Queryable(index int) (bool, error) {
	class, err := r.class(index)
	if err != nil {
		return false, err
	}
	return class.Queryable(), nil
}

// ScaleSet returns the scale bounds for the sub-layer at index.
func (r *Record) ScaleSet(index int) (ScaleSet, error) {
	class, err := r.class(index)
	if err != nil {
		return ScaleSet{}, err
	}
	return class.ScaleSet(), nil
}

// OffScale answers the off-scale question for the sub-layer at index at the
// given map scale.
func (r *Record) OffScale(index int, scale float64) (ScaleVisibility, error) {
	class, err := r.class(index)
	if err != nil {
		return ScaleVisibility{}, err
	}
	return class.VisibilityAt(scale), nil
}

// Symbology returns the loaded legend entries for the sub-layer at index.
func (r *Record) Symbology(index int) ([]SymbolEntry, error) {
	class, err := r.class(index)
	if err != nil {
		return nil, err
	}
	return class.Symbology(), nil
}

// GeometryType reports the resolved geometry type for the sub-layer at index;
// false while unresolved or for sub-layers without geometry.
func (r *Record) GeometryType(index int) (string, bool) {
	class, err := r.class(index)
	if err != nil {
		return "", false
	}
	ac, ok := class.(*AttributedClass)
	if !ok {
		return "", false
	}
	return ac.GeometryType()
}

// FeatureCount reports the resolved feature count for the sub-layer at index;
// false while the count fetch is in flight, failed, or inapplicable.
func (r *Record) FeatureCount(index int) (int, bool) {
	class, err := r.class(index)
	if err != nil {
		return 0, false
	}
	ac, ok := class.(*AttributedClass)
	if !ok {
		return 0, false
	}
	return ac.FeatureCount()
}

// Attributes fetches attribute rows for the sub-layer at index.
func (r *Record) Attributes(ctx context.Context, index int) ([]map[string]any, error) {
	class, err := r.class(index)
	if err != nil {
		return nil, err
	}
	ac, ok := class.(*AttributedClass)
	if !ok {
		return nil, fmt.Errorf("sublayer %d: %w", index, ErrNotAttributed)
	}
	return ac.Rows(ctx)
}

// FeatureName derives a display name for one attribute row of the sub-layer
// at index.
func (r *Record) FeatureName(index int, attrs map[string]any) (string, error) {
	class, err := r.class(index)
	if err != nil {
		return "", err
	}
	ac, ok := class.(*AttributedClass)
	if !ok {
		return "", fmt.Errorf("sublayer %d: %w", index, ErrNotAttributed)
	}
	return ac.FeatureName(attrs), nil
}

// IdentifyOperation tracks one identify request fanned out over attributed
// leaves. Each leaf gets its own result bucket; Wait blocks for overall
// completion.
type IdentifyOperation struct {
	// ID correlates the operation's log lines across leaves.
	ID      string
	buckets map[int]*async.Result[[]map[string]any]
	done    *async.Result[struct{}]
}

// Result returns the bucket for one sub-layer index.
func (op *IdentifyOperation) Result(index int) (*async.Result[[]map[string]any], bool) {
	b, ok := op.buckets[index]
	return b, ok
}

// Indexes returns the sub-layer indexes participating in the operation.
func (op *IdentifyOperation) Indexes() []int {
	ids := make([]int, 0, len(op.buckets))
	for id := range op.buckets {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Wait blocks until every leaf bucket has completed. The first leaf error is
// returned; individual buckets retain their own outcomes.
func (op *IdentifyOperation) Wait(ctx context.Context) error {
	_, err := op.done.Wait(ctx)
	return err
}

// Identify fans a point-identify request out over the queryable, on-scale
// attributed leaves. Results arrive per leaf with no ordering guarantee, and
// one leaf's failure never cancels its siblings; each bucket holds its own
// outcome while Wait reports the first error.
func (r *Record) Identify(ctx context.Context, opts IdentifyOptions) (*IdentifyOperation, error) {
	if r.collab.Identify == nil {
		return nil, ErrNoIdentifier
	}
	r.mu.RLock()
	if r.state != stateResolved {
		r.mu.RUnlock()
		return nil, ErrNotResolved
	}
	targets := make(map[int]*AttributedClass)
	for id, class := range r.classes {
		ac, ok := class.(*AttributedClass)
		if !ok || !ac.Queryable() {
			continue
		}
		if opts.Scale != 0 && ac.VisibilityAt(opts.Scale).OffScale {
			continue
		}
		targets[id] = ac
	}
	r.mu.RUnlock()

	op := &IdentifyOperation{
		ID:      uuid.NewString(),
		buckets: make(map[int]*async.Result[[]map[string]any], len(targets)),
		done:    async.New[struct{}](),
	}
	var g errgroup.Group
	for id, ac := range targets {
		ac := ac
		bucket := async.New[[]map[string]any]()
		op.buckets[id] = bucket
		locator := r.collab.Remote.Locator(id)
		g.Go(func() error {
			hits, err := r.collab.Identify.Identify(ctx, locator, opts)
			if err != nil {
				bucket.Fail(err)
				log.Printf("layer: identify %s sublayer %d failed: %v", op.ID, ac.Index(), err)
				return err
			}
			bucket.Complete(hits)
			return nil
		})
	}
	go func() {
		if err := g.Wait(); err != nil {
			op.done.Fail(err)
			return
		}
		op.done.Complete(struct{}{})
	}()
	return op, nil
}
