// Package mapserv provides an HTTP client for ArcGIS-style map services.
//
// # Overview
//
// This package defines the network client behind the layer package's
// collaborator interfaces. A single Client serves as the remote layer
// handle, the attribute loader, the symbology service, the feature counter,
// the identifier and, when a catalog endpoint is configured, the catalog
// source. The layer package never imports this package; it consumes the
// client through the interfaces declared in layer/collab.go, which keeps
// the state machine testable with in-memory fakes.
//
// # Architecture
//
// The package is split into two files:
//
//   - client.go: HTTP client, collaborator implementations, URL handling
//   - types.go: JSON mirror types and conversions to layer types
//
// # Client Usage
//
// Create a client from the service URL in configuration:
//
//	client, err := mapserv.NewClient("https://gis.example.com/arcgis/rest/services/Hydro/MapServer")
//	if err != nil {
//		log.Fatalf("failed to create client: %v", err)
//	}
//
//	rec, err := layer.NewRecord(cfg, layer.Collaborators{
//		Remote:     client,
//		Attributes: client,
//		Symbols:    client,
//		Counter:    client,
//		Identify:   client,
//	})
//
// A catalog endpoint is optional:
//
//	client, err := mapserv.NewClient(serviceURL, mapserv.WithCatalog(catalogURL))
//
// # Service Endpoints
//
// The client issues read-only GET requests with f=json appended:
//
//   - {service}?f=json: service metadata (mapName, layers, fullExtent)
//   - {service}/{id}?f=json: per-sublayer metadata (fields, renderer)
//   - {service}/{id}/query: attribute rows and count-only queries
//   - {service}/legend?f=json: legend entries for every sub-layer
//   - {catalog}?f=json: nested catalog document
//   - {catalog}/{ref}/legend?f=json: legend for one catalog entry
//
// # Visible Layer Application
//
// SetVisibleLayers stores the applied id list locally rather than issuing a
// request: a map service has no per-session visibility state, so the list
// only matters as the "layers" export parameter of draw requests. LayersParam
// renders the stored set in "show:2,4" form for callers that build export
// URLs.
//
// # Attribute Sources
//
// Init returns a lazy source per requested sub-layer id. Sources carry no
// state beyond the id; the network round trips happen when the layer
// package's background refinements call LayerData and Rows. This matches
// the resolution model, where attribute availability trails structure.
//
// # Symbol Rendering
//
// SymbolFor interprets the drawingInfo renderer of a sub-layer document.
// Simple renderers yield one entry from the renderer's label and symbol.
// Unique-value renderers match the supplied attributes against field1 and
// fall back to the default symbol when nothing matches. Icons are returned
// as data URLs so consumers never make a second image request.
//
// # Error Handling
//
// All errors are wrapped with descriptive context using fmt.Errorf:
//
//   - Client initialization errors: invalid service or catalog URL
//   - Network errors: connection refused, timeout, DNS failure
//   - HTTP errors: 4xx/5xx status codes from the service
//   - Deserialization errors: malformed JSON responses
//
// # Thread Safety
//
// The Client struct is safe for concurrent use. The visible id list is
// guarded by a mutex; everything else is immutable after construction, and
// the underlying http.Client handles connection pooling internally.
//
// # Design Rationale
//
// The package is intentionally minimal:
//   - No caching (the layer package's one-shot results absorb repeat reads)
//   - No retries (callers decide retry policy)
//   - No mutations (the client is read-only)
//   - No geometry decoding (attribute rows are all consumers need)
package mapserv
