package mapserv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rclampitt/stratum/internal/layer"
)

// Client talks to an ArcGIS-style map service over HTTP and implements the
// layer package's collaborator interfaces: remote layer handle, attribute
// loader, symbology service, feature counter and identifier. A client with a
// catalog endpoint additionally serves as the catalog source.
type Client struct {
	baseURL    *url.URL
	catalogURL *url.URL
	http       *http.Client
	userAgent  string

	mu      sync.Mutex
	visible []int
}

// Interface checks; the record consumes the client through these.
var (
	_ layer.RemoteLayer      = (*Client)(nil)
	_ layer.AttributeLoader  = (*Client)(nil)
	_ layer.SymbologyService = (*Client)(nil)
	_ layer.FeatureCounter   = (*Client)(nil)
	_ layer.Identifier       = (*Client)(nil)
	_ layer.CatalogSource    = (*Client)(nil)
)

const (
	defaultUserAgent = "stratum/0.1"
	requestTimeout   = 10 * time.Second
)

// Option configures a Client.
type Option func(*Client) error

// WithCatalog points the client at a nested catalog endpoint used for
// catalog-backed sub-layer symbology.
func WithCatalog(catalogURL string) Option {
	return func(c *Client) error {
		if strings.TrimSpace(catalogURL) == "" {
			return nil
		}
		u, err := parseServiceURL(catalogURL)
		if err != nil {
			return fmt.Errorf("parse catalog url: %w", err)
		}
		c.catalogURL = u
		return nil
	}
}

// NewClient builds a Client for the given service URL.
func NewClient(serviceURL string, opts ...Option) (*Client, error) {
	base, err := parseServiceURL(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Describe fetches the service metadata document.
func (c *Client) Describe(ctx context.Context) (layer.ServiceInfo, error) {
	var payload serviceResponse
	if err := c.get(ctx, c.baseURL, "", nil, &payload); err != nil {
		return layer.ServiceInfo{}, fmt.Errorf("describe service: %w", err)
	}
	return payload.toServiceInfo(), nil
}

// SetVisibleLayers records the visible sub-layer id list in one call. The
// list feeds the export parameters a map renderer sends with draw requests.
func (c *Client) SetVisibleLayers(_ context.Context, ids []int) error {
	dup := make([]int, len(ids))
	copy(dup, ids)
	c.mu.Lock()
	c.visible = dup
	c.mu.Unlock()
	return nil
}

// VisibleLayers returns the last applied visible id list.
func (c *Client) VisibleLayers() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.visible...)
}

// LayersParam renders the applied visible set as the export "layers"
// parameter, e.g. "show:2,4". Empty when nothing was ever applied.
func (c *Client) LayersParam() string {
	ids := c.VisibleLayers()
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "show:" + strings.Join(parts, ",")
}

// Locator returns the per-sublayer endpoint URL.
func (c *Client) Locator(index int) string {
	return c.baseURL.JoinPath(strconv.Itoa(index)).String()
}

// Init builds a lazy attribute source per requested sub-layer id. Sources hit
// the network only when the record's background fetches run.
func (c *Client) Init(_ context.Context, _ layer.RemoteLayer, ids []int) (map[int]layer.AttributeSource, error) {
	sources := make(map[int]layer.AttributeSource, len(ids))
	for _, id := range ids {
		sources[id] = &layerSource{c: c, id: id}
	}
	return sources, nil
}

// LayerLegend fetches the service legend and extracts the entries for one
// sub-layer.
func (c *Client) LayerLegend(ctx context.Context, index int) ([]layer.SymbolEntry, error) {
	var payload legendResponse
	if err := c.get(ctx, c.baseURL, "legend", nil, &payload); err != nil {
		return nil, fmt.Errorf("fetch legend: %w", err)
	}
	for _, l := range payload.Layers {
		if l.LayerID != index {
			continue
		}
		entries := make([]layer.SymbolEntry, 0, len(l.Legend))
		for _, item := range l.Legend {
			entries = append(entries, item.toSymbolEntry())
		}
		return entries, nil
	}
	return nil, nil
}

// SymbolFor renders a single symbol entry from a renderer definition,
// matching unique-value renderers against the supplied attributes.
func (c *Client) SymbolFor(renderer json.RawMessage, attrs map[string]any) (layer.SymbolEntry, error) {
	if len(renderer) == 0 {
		return layer.SymbolEntry{}, fmt.Errorf("empty renderer definition")
	}
	var r rendererJSON
	if err := json.Unmarshal(renderer, &r); err != nil {
		return layer.SymbolEntry{}, fmt.Errorf("decode renderer: %w", err)
	}
	switch r.Type {
	case "simple", "":
		return layer.SymbolEntry{Name: r.Label, Icon: dataURL(r.Symbol.ContentType, r.Symbol.ImageData)}, nil
	case "uniqueValue":
		if attrs != nil && r.Field1 != "" {
			key := fmt.Sprint(attrs[r.Field1])
			for _, info := range r.UniqueValueInfos {
				if info.Value == key {
					return layer.SymbolEntry{Name: info.Label, Icon: dataURL(info.Symbol.ContentType, info.Symbol.ImageData)}, nil
				}
			}
		}
		if len(r.UniqueValueInfos) > 0 && attrs == nil {
			first := r.UniqueValueInfos[0]
			return layer.SymbolEntry{Name: first.Label, Icon: dataURL(first.Symbol.ContentType, first.Symbol.ImageData)}, nil
		}
		return layer.SymbolEntry{Name: r.DefaultLabel, Icon: dataURL(r.DefaultSymbol.ContentType, r.DefaultSymbol.ImageData)}, nil
	default:
		return layer.SymbolEntry{}, fmt.Errorf("unsupported renderer type %q", r.Type)
	}
}

// Count runs a count-only query against a sub-layer locator.
func (c *Client) Count(ctx context.Context, locator string) (int, error) {
	loc, err := url.Parse(locator)
	if err != nil {
		return 0, fmt.Errorf("parse locator %q: %w", locator, err)
	}
	values := url.Values{}
	values.Set("where", "1=1")
	values.Set("returnCountOnly", "true")
	var payload countResponse
	if err := c.get(ctx, loc, "query", values, &payload); err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	return payload.Count, nil
}

// Identify runs a point query with a pixel tolerance against one sub-layer
// locator and returns the attribute rows of the hits.
func (c *Client) Identify(ctx context.Context, locator string, opts layer.IdentifyOptions) ([]map[string]any, error) {
	loc, err := url.Parse(locator)
	if err != nil {
		return nil, fmt.Errorf("parse locator %q: %w", locator, err)
	}
	values := url.Values{}
	values.Set("geometry", fmt.Sprintf("%g,%g", opts.X, opts.Y))
	values.Set("geometryType", "esriGeometryPoint")
	values.Set("outFields", "*")
	if opts.Tolerance > 0 {
		values.Set("distance", strconv.Itoa(opts.Tolerance))
	}
	var payload queryResponse
	if err := c.get(ctx, loc, "query", values, &payload); err != nil {
		return nil, fmt.Errorf("identify query: %w", err)
	}
	rows := make([]map[string]any, 0, len(payload.Features))
	for _, f := range payload.Features {
		rows = append(rows, f.Attributes)
	}
	return rows, nil
}

// Catalog fetches and converts the nested catalog document.
func (c *Client) Catalog(ctx context.Context) (layer.CatalogNode, error) {
	if c.catalogURL == nil {
		return layer.CatalogNode{}, fmt.Errorf("no catalog endpoint configured")
	}
	var payload catalogNodeJSON
	if err := c.get(ctx, c.catalogURL, "", nil, &payload); err != nil {
		return layer.CatalogNode{}, fmt.Errorf("fetch catalog: %w", err)
	}
	return payload.toCatalogNode(), nil
}

// RefLegend fetches the legend for one catalog entry.
func (c *Client) RefLegend(ctx context.Context, ref string) ([]layer.SymbolEntry, error) {
	if c.catalogURL == nil {
		return nil, fmt.Errorf("no catalog endpoint configured")
	}
	var payload struct {
		Legend []legendItem `json:"legend"`
	}
	if err := c.get(ctx, c.catalogURL, ref+"/legend", nil, &payload); err != nil {
		return nil, fmt.Errorf("fetch catalog legend %q: %w", ref, err)
	}
	entries := make([]layer.SymbolEntry, 0, len(payload.Legend))
	for _, item := range payload.Legend {
		entries = append(entries, item.toSymbolEntry())
	}
	return entries, nil
}

// layerSource is the lazy attribute source for one sub-layer.
type layerSource struct {
	c  *Client
	id int
}

// LayerData fetches the per-sublayer metadata document.
func (s *layerSource) LayerData(ctx context.Context) (layer.LayerData, error) {
	var payload layerResponse
	if err := s.c.get(ctx, s.c.baseURL, strconv.Itoa(s.id), nil, &payload); err != nil {
		return layer.LayerData{}, fmt.Errorf("fetch sublayer %d: %w", s.id, err)
	}
	return payload.toLayerData(), nil
}

// Rows fetches attribute rows scoped to outFields.
func (s *layerSource) Rows(ctx context.Context, outFields []string) ([]map[string]any, error) {
	values := url.Values{}
	values.Set("where", "1=1")
	if len(outFields) > 0 {
		values.Set("outFields", strings.Join(outFields, ","))
	}
	var payload queryResponse
	if err := s.c.get(ctx, s.c.baseURL, strconv.Itoa(s.id)+"/query", values, &payload); err != nil {
		return nil, fmt.Errorf("query sublayer %d: %w", s.id, err)
	}
	rows := make([]map[string]any, 0, len(payload.Features))
	for _, f := range payload.Features {
		rows = append(rows, f.Attributes)
	}
	return rows, nil
}

// get issues a GET for base/path with f=json appended and decodes the JSON
// response into dest.
func (c *Client) get(ctx context.Context, base *url.URL, path string, values url.Values, dest any) error {
	if values == nil {
		values = url.Values{}
	}
	values.Set("f", "json")
	reqURL := *base
	if path != "" {
		reqURL = *base.JoinPath(path)
	}
	reqURL.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("service %s returned status %d", reqURL.Path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseServiceURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
