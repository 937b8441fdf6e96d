package layer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Polling bounds for assert.Eventually across the package's tests.
const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

type fakeRemote struct {
	mu           sync.Mutex
	info         ServiceInfo
	describeErr  error
	noLocators   bool
	visibleCalls [][]int
}

func (f *fakeRemote) Describe(context.Context) (ServiceInfo, error) {
	if f.describeErr != nil {
		return ServiceInfo{}, f.describeErr
	}
	return f.info, nil
}

func (f *fakeRemote) SetVisibleLayers(_ context.Context, ids []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	dup := make([]int, len(ids))
	copy(dup, ids)
	f.visibleCalls = append(f.visibleCalls, dup)
	return nil
}

func (f *fakeRemote) Locator(index int) string {
	if f.noLocators {
		return ""
	}
	return fmt.Sprintf("mem://service/%d", index)
}

func (f *fakeRemote) calls() [][]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]int(nil), f.visibleCalls...)
}

type fakeSource struct {
	data    LayerData
	dataErr error
	rows    []map[string]any
	rowsErr error
	block   chan struct{} // when set, LayerData waits for it
}

func (f *fakeSource) LayerData(ctx context.Context) (LayerData, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return LayerData{}, ctx.Err()
		}
	}
	if f.dataErr != nil {
		return LayerData{}, f.dataErr
	}
	return f.data, nil
}

func (f *fakeSource) Rows(context.Context, []string) ([]map[string]any, error) {
	if f.rowsErr != nil {
		return nil, f.rowsErr
	}
	return f.rows, nil
}

type fakeLoader struct {
	sources map[int]AttributeSource
	err     error
	mu      sync.Mutex
	gotIDs  []int
}

func (f *fakeLoader) Init(_ context.Context, _ RemoteLayer, ids []int) (map[int]AttributeSource, error) {
	f.mu.Lock()
	f.gotIDs = append([]int(nil), ids...)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.sources, nil
}

type fakeSymbols struct {
	mu      sync.Mutex
	legends map[int][]SymbolEntry
	err     error
	calls   []int
}

func (f *fakeSymbols) LayerLegend(_ context.Context, index int) ([]SymbolEntry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, index)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.legends[index], nil
}

func (f *fakeSymbols) SymbolFor(json.RawMessage, map[string]any) (SymbolEntry, error) {
	return SymbolEntry{Name: "renderer", Icon: "data:renderer"}, nil
}

type fakeCounter struct {
	counts map[string]int
	err    error
	block  chan struct{}
}

func (f *fakeCounter) Count(ctx context.Context, locator string) (int, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[locator], nil
}

type fakeIdentifier struct {
	mu     sync.Mutex
	hits   map[string][]map[string]any
	errs   map[string]error
	delays map[string]time.Duration
	got    []string
}

func (f *fakeIdentifier) Identify(ctx context.Context, locator string, _ IdentifyOptions) ([]map[string]any, error) {
	f.mu.Lock()
	f.got = append(f.got, locator)
	f.mu.Unlock()
	if d := f.delays[locator]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[locator]; err != nil {
		return nil, err
	}
	return f.hits[locator], nil
}

type fakeCatalog struct {
	root    CatalogNode
	rootErr error
	legends map[string][]SymbolEntry
}

func (f *fakeCatalog) Catalog(context.Context) (CatalogNode, error) {
	if f.rootErr != nil {
		return CatalogNode{}, f.rootErr
	}
	return f.root, nil
}

func (f *fakeCatalog) RefLegend(_ context.Context, ref string) ([]SymbolEntry, error) {
	entries, ok := f.legends[ref]
	if !ok {
		return nil, fmt.Errorf("no legend for %q", ref)
	}
	return entries, nil
}

// nestedService is the four-sublayer hierarchy used across record tests:
// group 1 containing leaf 2 and group 3, which contains leaf 4.
func nestedService() ServiceInfo {
	return ServiceInfo{
		Name:   "Hydrology",
		Extent: Extent{XMin: -120, YMin: 40, XMax: -110, YMax: 50},
		Sublayers: []SublayerInfo{
			{ID: 1, Name: "Watersheds", Type: "Group Layer", ParentID: -1, SublayerIDs: []int{2, 3}},
			{ID: 2, Name: "Rivers", Type: "Feature Layer", ParentID: 1, MinScale: 10000},
			{ID: 3, Name: "Lakes", Type: "Group Layer", ParentID: 1, SublayerIDs: []int{4}},
			{ID: 4, Name: "Reservoirs", Type: "Feature Layer", ParentID: 3, MaxScale: 5000},
		},
	}
}

func nestedCollaborators() (Collaborators, *fakeRemote, *fakeSymbols, *fakeCounter) {
	remote := &fakeRemote{info: nestedService()}
	symbols := &fakeSymbols{legends: map[int][]SymbolEntry{
		2: {{Name: "River", Icon: "data:river"}},
		4: {{Name: "Reservoir", Icon: "data:reservoir"}},
	}}
	counter := &fakeCounter{counts: map[string]int{
		"mem://service/2": 1200,
		"mem://service/4": 37,
	}}
	loader := &fakeLoader{sources: map[int]AttributeSource{
		2: &fakeSource{data: LayerData{
			GeometryType: "polyline",
			OIDField:     "OBJECTID",
			DisplayField: "RIVER_NAME",
			Fields: []Field{
				{Name: "OBJECTID", Type: "oid"},
				{Name: "RIVER_NAME", Alias: "River Name", Type: "string"},
				{Name: "SURVEYED", Type: "date"},
			},
		}, rows: []map[string]any{{"OBJECTID": 1, "RIVER_NAME": "Fraser"}}},
		4: &fakeSource{data: LayerData{GeometryType: "polygon", OIDField: "OBJECTID"}},
	}}
	identifier := &fakeIdentifier{hits: map[string][]map[string]any{
		"mem://service/2": {{"OBJECTID": 1}},
		"mem://service/4": {{"OBJECTID": 9}},
	}}
	return Collaborators{
		Remote:     remote,
		Attributes: loader,
		Symbols:    symbols,
		Counter:    counter,
		Identify:   identifier,
	}, remote, symbols, counter
}
