package layer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_HandleSurvivesResolution(t *testing.T) {
	t.Parallel()

	collab, _, _, _ := nestedCollaborators()
	rec, err := NewRecord(Config{Entries: []Entry{{Index: 1}}}, collab)
	require.NoError(t, err)
	defer rec.Close()

	// Bind before anything is known.
	h := rec.Handle(2)
	require.True(t, h.IsPlaceholder())
	assert.Equal(t, KindPlaceholder, h.Kind())
	assert.Equal(t, "", h.Name())
	assert.Empty(t, h.Symbology())

	require.NoError(t, rec.Load(context.Background()))

	// Same object, new behavior.
	h2 := rec.Handle(2)
	require.Same(t, h, h2)
	assert.False(t, h.IsPlaceholder())
	assert.Equal(t, KindDynamicLeaf, h.Kind())
	assert.Equal(t, "Rivers", h.Name())
	assert.Equal(t, TypeFeature, h.LayerType())
}

func TestRecord_ChildTreeBeforeResolveFails(t *testing.T) {
	t.Parallel()

	collab, _, _, _ := nestedCollaborators()
	rec, err := NewRecord(Config{Entries: []Entry{{Index: 1}}}, collab)
	require.NoError(t, err)
	defer rec.Close()

	_, err = rec.ChildTree()
	require.ErrorIs(t, err, ErrNotResolved)

	_, err = rec.Queryable(2)
	require.ErrorIs(t, err, ErrNotResolved)
}

func TestRecord_RefinementsResolveIndependently(t *testing.T) {
	t.Parallel()

	collab, _, _, _ := nestedCollaborators()
	rec, err := NewRecord(Config{Entries: []Entry{{Index: 1}}}, collab)
	require.NoError(t, err)
	defer rec.Close()
	require.NoError(t, rec.Load(context.Background()))

	rivers := rec.Handle(2)
	reservoirs := rec.Handle(4)

	assert.Eventually(t, func() bool {
		n, ok := rivers.FeatureCount()
		return ok && n == 1200
	}, waitFor, tick, "rivers count should resolve")

	assert.Eventually(t, func() bool {
		n, ok := reservoirs.FeatureCount()
		return ok && n == 37
	}, waitFor, tick, "reservoirs count should resolve")

	assert.Eventually(t, func() bool {
		g, ok := rivers.GeometryType()
		return ok && g == "polyline"
	}, waitFor, tick, "rivers geometry should resolve")

	assert.Eventually(t, func() bool {
		return len(rivers.Symbology()) == 1
	}, waitFor, tick, "rivers symbology should load")
}

func TestRecord_AttributeOperations(t *testing.T) {
	t.Parallel()

	collab, _, _, _ := nestedCollaborators()
	rec, err := NewRecord(Config{Entries: []Entry{{Index: 1, State: &EntryState{Visible: true, Opacity: 1, Query: true}}}}, collab)
	require.NoError(t, err)
	defer rec.Close()
	require.NoError(t, rec.Load(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rows, err := rec.Attributes(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	name, err := rec.FeatureName(2, rows[0])
	require.NoError(t, err)
	// Display-field value may still be resolving; wait for layer data.
	if name == "" {
		assert.Eventually(t, func() bool {
			name, err = rec.FeatureName(2, rows[0])
			return err == nil && name == "Fraser"
		}, waitFor, tick)
	} else {
		assert.Equal(t, "Fraser", name)
	}

	h := rec.Handle(2)
	fields, err := h.Fields(ctx)
	require.NoError(t, err)
	require.Len(t, fields, 3)

	ac, err := h.attributed()
	require.NoError(t, err)

	alias, err := ac.FieldAlias(ctx, "RIVER_NAME")
	require.NoError(t, err)
	assert.Equal(t, "River Name", alias)

	dates, err := ac.DateFields(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"SURVEYED"}, dates)

	// Non-attributed queries delegate uniformly through the record.
	_, err = rec.Attributes(ctx, 99)
	require.ErrorIs(t, err, ErrUnknownIndex)
}

func TestRecord_CompleteConfigAppliesVisibleSet(t *testing.T) {
	t.Parallel()

	t.Run("visible entries applied in one call", func(t *testing.T) {
		t.Parallel()
		collab, remote, _, _ := nestedCollaborators()
		cfg := Config{
			Complete: true,
			Entries: []Entry{
				{Index: 1},
				{Index: 2, State: &EntryState{Visible: true, Opacity: 1}, StateOnly: true},
				{Index: 4, State: &EntryState{Visible: true, Opacity: 1}, StateOnly: true},
			},
		}
		rec, err := NewRecord(cfg, collab)
		require.NoError(t, err)
		defer rec.Close()
		require.NoError(t, rec.Load(context.Background()))

		calls := remote.calls()
		require.Len(t, calls, 1)
		assert.Equal(t, []int{2, 4}, calls[0])
	})

	t.Run("empty visible set substitutes hide-all sentinel", func(t *testing.T) {
		t.Parallel()
		collab, remote, _, _ := nestedCollaborators()
		cfg := Config{Complete: true, Entries: []Entry{{Index: 1}}}
		rec, err := NewRecord(cfg, collab)
		require.NoError(t, err)
		defer rec.Close()
		require.NoError(t, rec.Load(context.Background()))

		calls := remote.calls()
		require.Len(t, calls, 1)
		assert.Equal(t, []int{HideAllLayers}, calls[0])
	})

	t.Run("incomplete config pushes nothing", func(t *testing.T) {
		t.Parallel()
		collab, remote, _, _ := nestedCollaborators()
		rec, err := NewRecord(Config{Entries: []Entry{{Index: 1}}}, collab)
		require.NoError(t, err)
		defer rec.Close()
		require.NoError(t, rec.Load(context.Background()))

		assert.Empty(t, remote.calls())
	})
}

func TestRecord_ApplyVisibleLayersFollowsHandles(t *testing.T) {
	t.Parallel()

	collab, remote, _, _ := nestedCollaborators()
	rec, err := NewRecord(Config{Entries: []Entry{{Index: 1}}}, collab)
	require.NoError(t, err)
	defer rec.Close()
	require.NoError(t, rec.Load(context.Background()))

	rec.Handle(2).SetVisible(true)
	require.NoError(t, rec.ApplyVisibleLayers(context.Background()))

	rec.Handle(2).SetVisible(false)
	require.NoError(t, rec.ApplyVisibleLayers(context.Background()))

	calls := remote.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []int{2}, calls[0])
	assert.Equal(t, []int{HideAllLayers}, calls[1])
}

func TestRecord_CloseToleratesLateRefinements(t *testing.T) {
	t.Parallel()

	collab, _, _, counter := nestedCollaborators()
	gate := make(chan struct{})
	counter.block = gate

	rec, err := NewRecord(Config{Entries: []Entry{{Index: 1}}}, collab)
	require.NoError(t, err)
	require.NoError(t, rec.Load(context.Background()))

	h := rec.Handle(2)
	_, ok := h.FeatureCount()
	assert.False(t, ok, "count should be unresolved while the fetch is gated")

	rec.Close()
	close(gate)

	// The late completion lands on class-owned state; nothing faults and the
	// handle still answers.
	assert.Eventually(t, func() bool {
		n, ok := h.FeatureCount()
		return ok && n == 1200
	}, waitFor, tick)
}

func TestRecord_Identify(t *testing.T) {
	t.Parallel()

	collab, _, _, _ := nestedCollaborators()
	cfg := Config{Entries: []Entry{
		{Index: 1},
		{Index: 2, State: &EntryState{Visible: true, Opacity: 1, Query: true}, StateOnly: true},
		{Index: 4, State: &EntryState{Visible: true, Opacity: 1, Query: true}, StateOnly: true},
	}}
	rec, err := NewRecord(cfg, collab)
	require.NoError(t, err)
	defer rec.Close()
	require.NoError(t, rec.Load(context.Background()))

	t.Run("fans out over queryable attributed leaves", func(t *testing.T) {
		op, err := rec.Identify(context.Background(), IdentifyOptions{X: -115, Y: 45, Tolerance: 3})
		require.NoError(t, err)
		require.NotEmpty(t, op.ID)
		assert.Equal(t, []int{2, 4}, op.Indexes())

		require.NoError(t, op.Wait(context.Background()))

		bucket, ok := op.Result(2)
		require.True(t, ok)
		hits, err := bucket.Wait(context.Background())
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, 1, hits[0]["OBJECTID"])
	})

	t.Run("skips off-scale leaves", func(t *testing.T) {
		// Rivers has MinScale 10000; a 20000 scale puts it off scale.
		op, err := rec.Identify(context.Background(), IdentifyOptions{Scale: 20000})
		require.NoError(t, err)
		assert.Equal(t, []int{4}, op.Indexes())
		require.NoError(t, op.Wait(context.Background()))
	})
}

func TestRecord_IdentifyLeafFailuresIsolated(t *testing.T) {
	t.Parallel()

	collab, _, _, _ := nestedCollaborators()
	ident := collab.Identify.(*fakeIdentifier)
	ident.errs = map[string]error{"mem://service/2": errors.New("layer offline")}
	ident.delays = map[string]time.Duration{"mem://service/4": 50 * time.Millisecond}

	cfg := Config{Entries: []Entry{
		{Index: 1},
		{Index: 2, State: &EntryState{Visible: true, Opacity: 1, Query: true}, StateOnly: true},
		{Index: 4, State: &EntryState{Visible: true, Opacity: 1, Query: true}, StateOnly: true},
	}}
	rec, err := NewRecord(cfg, collab)
	require.NoError(t, err)
	defer rec.Close()
	require.NoError(t, rec.Load(context.Background()))

	op, err := rec.Identify(context.Background(), IdentifyOptions{X: -115, Y: 45})
	require.NoError(t, err)
	require.Error(t, op.Wait(context.Background()), "first leaf error surfaces on the operation")

	// The failing leaf keeps its own error.
	bucket2, ok := op.Result(2)
	require.True(t, ok)
	_, err = bucket2.Wait(context.Background())
	require.ErrorContains(t, err, "layer offline")

	// The slower sibling is not cancelled and completes with its own hits.
	bucket4, ok := op.Result(4)
	require.True(t, ok)
	hits, err := bucket4.Wait(context.Background())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 9, hits[0]["OBJECTID"])
}

func TestRecord_LoadRevertsOnDescribeError(t *testing.T) {
	t.Parallel()

	collab, remote, _, _ := nestedCollaborators()
	remote.describeErr = errors.New("service unavailable")

	rec, err := NewRecord(Config{Entries: []Entry{{Index: 1}}}, collab)
	require.NoError(t, err)
	defer rec.Close()

	err = rec.Load(context.Background())
	require.ErrorContains(t, err, "service unavailable")
	assert.False(t, rec.Resolved())
	assert.True(t, rec.Handle(2).IsPlaceholder())

	// A failed load reverts to the initial state, so retrying is legal.
	remote.describeErr = nil
	require.NoError(t, rec.Load(context.Background()))
	assert.True(t, rec.Resolved())
	assert.Equal(t, "Rivers", rec.Handle(2).Name())
}

func TestRecord_AttributeInitFailureDegradesToBasic(t *testing.T) {
	t.Parallel()

	collab, _, _, _ := nestedCollaborators()
	collab.Attributes.(*fakeLoader).err = errors.New("attribute endpoint down")

	rec, err := NewRecord(Config{Entries: []Entry{{Index: 1}}}, collab)
	require.NoError(t, err)
	defer rec.Close()
	require.NoError(t, rec.Load(context.Background()))

	// Resolution survives; the leaves just lose their attribute surface.
	h := rec.Handle(2)
	assert.Equal(t, KindDynamicLeaf, h.Kind())
	assert.Equal(t, "Rivers", h.Name())

	_, err = rec.Attributes(context.Background(), 2)
	require.ErrorIs(t, err, ErrNotAttributed)
	_, ok := h.FeatureCount()
	assert.False(t, ok)

	// Server-legend symbology still loads for the basic classes.
	assert.Eventually(t, func() bool {
		return len(h.Symbology()) == 1
	}, waitFor, tick)
}

func TestRecord_RefinementFailuresLeaveFacetsUnresolved(t *testing.T) {
	t.Parallel()

	collab, _, symbols, _ := nestedCollaborators()
	symbols.err = errors.New("legend render failed")
	source := collab.Attributes.(*fakeLoader).sources[2].(*fakeSource)
	source.dataErr = errors.New("layer doc missing")
	source.rowsErr = errors.New("query rejected")

	rec, err := NewRecord(Config{Entries: []Entry{{Index: 1}}}, collab)
	require.NoError(t, err)
	defer rec.Close()
	require.NoError(t, rec.Load(context.Background()))

	h := rec.Handle(2)

	// The count arrives even though the sibling facets failed.
	assert.Eventually(t, func() bool {
		n, ok := h.FeatureCount()
		return ok && n == 1200
	}, waitFor, tick)

	// Failed facets answer with their degraded defaults.
	assert.Empty(t, h.Symbology())
	_, ok := h.GeometryType()
	assert.False(t, ok)
	name, err := rec.FeatureName(2, map[string]any{"OBJECTID": 1})
	require.NoError(t, err)
	assert.Equal(t, "", name)

	_, err = h.Fields(context.Background())
	require.ErrorContains(t, err, "layer doc missing")
	_, err = rec.Attributes(context.Background(), 2)
	require.ErrorContains(t, err, "query rejected")
}

func TestRecord_BlockedLayerDataResolvesIndependently(t *testing.T) {
	t.Parallel()

	collab, _, _, _ := nestedCollaborators()
	gate := make(chan struct{})
	collab.Attributes.(*fakeLoader).sources[2].(*fakeSource).block = gate

	rec, err := NewRecord(Config{Entries: []Entry{{Index: 1}}}, collab)
	require.NoError(t, err)
	defer rec.Close()
	require.NoError(t, rec.Load(context.Background()))

	h := rec.Handle(2)

	// The count facet resolves while layer data is still gated.
	assert.Eventually(t, func() bool {
		n, ok := h.FeatureCount()
		return ok && n == 1200
	}, waitFor, tick)
	_, ok := h.GeometryType()
	assert.False(t, ok)

	close(gate)
	assert.Eventually(t, func() bool {
		g, ok := h.GeometryType()
		return ok && g == "polyline"
	}, waitFor, tick)
}

func TestRecord_NoEndpointFallsBackToRendererSymbology(t *testing.T) {
	t.Parallel()

	collab, remote, symbols, _ := nestedCollaborators()
	remote.noLocators = true

	rec, err := NewRecord(Config{Entries: []Entry{{Index: 1}}}, collab)
	require.NoError(t, err)
	defer rec.Close()
	require.NoError(t, rec.Load(context.Background()))

	h := rec.Handle(2)
	assert.Eventually(t, func() bool {
		s := h.Symbology()
		return len(s) == 1 && s[0].Name == "renderer"
	}, waitFor, tick)

	// Without per-sublayer endpoints the legend endpoint is never hit and
	// counts never start.
	symbols.mu.Lock()
	legendCalls := len(symbols.calls)
	symbols.mu.Unlock()
	assert.Zero(t, legendCalls)
	_, ok := h.FeatureCount()
	assert.False(t, ok)
}

func TestRecord_FlatService(t *testing.T) {
	t.Parallel()

	t.Run("attributed flat service binds a feature-layer handle", func(t *testing.T) {
		t.Parallel()
		remote := &fakeRemote{info: ServiceInfo{Name: "Parcels", MinScale: 50000}}
		loader := &fakeLoader{sources: map[int]AttributeSource{
			0: &fakeSource{data: LayerData{GeometryType: "polygon"}},
		}}
		rec, err := NewRecord(Config{}, Collaborators{
			Remote:     remote,
			Attributes: loader,
			Symbols:    &fakeSymbols{},
			Counter:    &fakeCounter{},
		})
		require.NoError(t, err)
		defer rec.Close()

		h := rec.Handle(0)
		require.NoError(t, rec.Load(context.Background()))

		assert.Equal(t, KindFeatureLayer, h.Kind())
		assert.Equal(t, "Parcels", h.Name())
		assert.Equal(t, ScaleSet{MinScale: 50000}, h.ScaleSet())

		tree, err := rec.ChildTree()
		require.NoError(t, err)
		assert.False(t, tree.Group)
		assert.Equal(t, 0, tree.ID)
	})

	t.Run("plain flat service binds a single-layer handle", func(t *testing.T) {
		t.Parallel()
		remote := &fakeRemote{info: ServiceInfo{Name: "Hillshade"}}
		rec, err := NewRecord(Config{}, Collaborators{
			Remote:     remote,
			Attributes: &fakeLoader{},
			Symbols:    &fakeSymbols{legends: map[int][]SymbolEntry{0: {{Name: "Hillshade"}}}},
		})
		require.NoError(t, err)
		defer rec.Close()
		require.NoError(t, rec.Load(context.Background()))

		h := rec.Handle(0)
		assert.Equal(t, KindSingleLayer, h.Kind())
		assert.Equal(t, TypeRaster, h.LayerType())
		_, err = h.Attributes(context.Background())
		require.ErrorIs(t, err, ErrNotAttributed)
	})
}

func TestRecord_UnknownSublayerKindDegrades(t *testing.T) {
	t.Parallel()

	info := ServiceInfo{
		Name: "Mixed",
		Sublayers: []SublayerInfo{
			{ID: 0, Name: "Mystery", Type: "Hologram Layer", ParentID: -1},
		},
	}
	rec, err := NewRecord(Config{Entries: []Entry{{Index: 0}}}, Collaborators{
		Remote:     &fakeRemote{info: info},
		Attributes: &fakeLoader{},
		Symbols:    &fakeSymbols{},
	})
	require.NoError(t, err)
	defer rec.Close()

	require.NoError(t, rec.Load(context.Background()))
	assert.Equal(t, TypeUnknown, rec.Handle(0).LayerType())
}
