package layer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rclampitt/stratum/internal/async"
)

// AttributedClass is the variant for sub-layers with a tabular attribute
// source. On top of the base capabilities it exposes the attribute schema,
// geometry type, feature count and row access, all backed by independent
// background fetches the record starts at resolution time.
type AttributedClass struct {
	baseClass

	source    AttributeSource
	outFields []string

	layerData *async.Result[LayerData]
	count     *async.Result[int]
}

// NewAttributedClass builds the attributed variant. The returned class is
// inert until the record begins its refinement fetches.
func NewAttributedClass(index int, e *resolvedEntry, sl SublayerInfo, extent Extent, svc SymbologyService, locator string, source AttributeSource) *AttributedClass {
	return &AttributedClass{
		baseClass: baseClass{
			index:   index,
			name:    e.Name,
			typ:     parseLayerType(sl.Type),
			extent:  extent,
			scales:  ScaleSet{MinScale: sl.MinScale, MaxScale: sl.MaxScale},
			svc:     svc,
			locator: locator,
		},
		source:    source,
		outFields: e.OutFields,
		layerData: async.New[LayerData](),
		count:     async.New[int](),
	}
}

// beginRefinements starts the layer-data and feature-count fetches. Each runs
// on its own goroutine with no ordering between them; a failure simply leaves
// that facet unresolved. Late completions land on class-owned results, so a
// record torn down mid-flight is untouched.
func (c *AttributedClass) beginRefinements(counter FeatureCounter) {
	go func() {
		data, err := c.source.LayerData(context.Background())
		if err != nil {
			c.layerData.Fail(fmt.Errorf("sublayer %d layer data: %w", c.index, err))
			return
		}
		c.layerData.Complete(data)
	}()
	if counter == nil || c.locator == "" {
		return
	}
	go func() {
		n, err := counter.Count(context.Background(), c.locator)
		if err != nil {
			c.count.Fail(fmt.Errorf("sublayer %d count: %w", c.index, err))
			return
		}
		c.count.Complete(n)
	}()
}

// GeometryType reports the resolved geometry type, or false while the
// layer-data fetch is still in flight or failed.
func (c *AttributedClass) GeometryType() (string, bool) {
	data, ok := c.layerData.TryGet()
	if !ok {
		return "", false
	}
	return data.GeometryType, true
}

// FeatureCount reports the resolved feature count, or false while unresolved.
func (c *AttributedClass) FeatureCount() (int, bool) {
	return c.count.TryGet()
}

// Fields blocks until the attribute schema is available.
func (c *AttributedClass) Fields(ctx context.Context) ([]Field, error) {
	data, err := c.layerData.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return data.Fields, nil
}

// FieldAlias resolves the display alias for an attribute field, falling back
// to the raw name when no alias is defined.
func (c *AttributedClass) FieldAlias(ctx context.Context, name string) (string, error) {
	fields, err := c.Fields(ctx)
	if err != nil {
		return "", err
	}
	for _, f := range fields {
		if f.Name == name {
			if f.Alias != "" {
				return f.Alias, nil
			}
			return f.Name, nil
		}
	}
	return name, nil
}

// DateFields returns the names of date-typed attribute fields.
func (c *AttributedClass) DateFields(ctx context.Context) ([]string, error) {
	fields, err := c.Fields(ctx)
	if err != nil {
		return nil, err
	}
	var dates []string
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f.Type), "date") {
			dates = append(dates, f.Name)
		}
	}
	return dates, nil
}

// Rows fetches the attribute rows scoped to the configured output fields.
func (c *AttributedClass) Rows(ctx context.Context) ([]map[string]any, error) {
	return c.source.Rows(ctx, c.outFields)
}

// FeatureName derives a display name for one attribute row: the display
// field's value when the schema declares one, else the object id, else "".
func (c *AttributedClass) FeatureName(attrs map[string]any) string {
	data, ok := c.layerData.TryGet()
	if !ok {
		return ""
	}
	if data.DisplayField != "" {
		if v, ok := attrs[data.DisplayField]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	if data.OIDField != "" {
		if v, ok := attrs[data.OIDField]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return ""
}

// LoadSymbology prefers the server-rendered legend when the sub-layer has an
// endpoint, and otherwise falls back to rendering a single entry from the
// attribute source's renderer definition. Having neither endpoint nor
// renderer is impossible for an attributed class by construction, so this
// never hits the structural-violation path.
func (c *AttributedClass) LoadSymbology(ctx context.Context) error {
	if c.locator != "" {
		entries, err := c.svc.LayerLegend(ctx, c.index)
		if err != nil {
			return fmt.Errorf("sublayer %d legend: %w", c.index, err)
		}
		c.setSymbology(entries)
		return nil
	}
	data, err := c.layerData.Wait(ctx)
	if err != nil {
		return err
	}
	entry, err := c.svc.SymbolFor(data.Renderer, nil)
	if err != nil {
		return fmt.Errorf("sublayer %d renderer symbol: %w", c.index, err)
	}
	c.setSymbology([]SymbolEntry{entry})
	return nil
}
