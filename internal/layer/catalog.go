package layer

import (
	"context"
	"fmt"
)

// CatalogClass is the variant for sub-layers whose symbology lives in an
// external nested catalog. The configured ref is matched against the catalog
// tree by depth-first search; the matched entry also supplies the sub-layer's
// display name when the server reports none.
type CatalogClass struct {
	baseClass

	catalog CatalogSource
	ref     string
	cfgName string
}

// NewCatalogClass builds the catalog-backed variant for index. cfgName is the
// configured name used as the middle rung of the naming fallback chain:
// catalog title, then configured name, then the raw ref.
func NewCatalogClass(index int, e *resolvedEntry, sl SublayerInfo, extent Extent, svc SymbologyService, locator string, catalog CatalogSource) *CatalogClass {
	c := &CatalogClass{
		baseClass: baseClass{
			index:   index,
			name:    e.Name,
			typ:     parseLayerType(sl.Type),
			extent:  extent,
			scales:  ScaleSet{MinScale: sl.MinScale, MaxScale: sl.MaxScale},
			svc:     svc,
			locator: locator,
		},
		catalog: catalog,
		ref:     e.CatalogRef,
		cfgName: e.Name,
	}
	return c
}

// LoadSymbology resolves the catalog entry for the configured ref and loads
// its legend. The display name is updated from the catalog title when one
// exists.
func (c *CatalogClass) LoadSymbology(ctx context.Context) error {
	root, err := c.catalog.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("sublayer %d catalog: %w", c.index, err)
	}

	name := findCatalogTitle(root, c.ref)
	if name == "" {
		name = c.cfgName
	}
	if name == "" {
		name = c.ref
	}
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()

	entries, err := c.catalog.RefLegend(ctx, c.ref)
	if err != nil {
		return fmt.Errorf("sublayer %d catalog legend %q: %w", c.index, c.ref, err)
	}
	c.setSymbology(entries)
	return nil
}

// findCatalogTitle returns the title of the first node matching ref in
// pre-order, short-circuiting on the first hit. The empty string is the
// no-match sentinel.
func findCatalogTitle(node CatalogNode, ref string) string {
	if node.Ref == ref {
		return node.Title
	}
	for _, child := range node.Children {
		if title := findCatalogTitle(child, ref); title != "" {
			return title
		}
	}
	return ""
}
