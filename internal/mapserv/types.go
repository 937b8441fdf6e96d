package mapserv

import (
	"encoding/json"

	"github.com/rclampitt/stratum/internal/layer"
)

// serviceResponse mirrors the service-level metadata document.
type serviceResponse struct {
	MapName    string         `json:"mapName"`
	Layers     []serviceLayer `json:"layers"`
	FullExtent extentJSON     `json:"fullExtent"`
	MinScale   float64        `json:"minScale"`
	MaxScale   float64        `json:"maxScale"`
}

// serviceLayer is one entry of the service's nested sub-layer table.
// SubLayerIDs is null for leaves; ParentLayerID is -1 at top level.
type serviceLayer struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	ParentLayerID int     `json:"parentLayerId"`
	SubLayerIDs   []int   `json:"subLayerIds"`
	MinScale      float64 `json:"minScale"`
	MaxScale      float64 `json:"maxScale"`
}

type extentJSON struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

func (e extentJSON) toExtent() layer.Extent {
	return layer.Extent{XMin: e.XMin, YMin: e.YMin, XMax: e.XMax, YMax: e.YMax}
}

func (r serviceResponse) toServiceInfo() layer.ServiceInfo {
	info := layer.ServiceInfo{
		Name:     r.MapName,
		Extent:   r.FullExtent.toExtent(),
		MinScale: r.MinScale,
		MaxScale: r.MaxScale,
	}
	for _, l := range r.Layers {
		info.Sublayers = append(info.Sublayers, layer.SublayerInfo{
			ID:          l.ID,
			Name:        l.Name,
			Type:        l.Type,
			ParentID:    l.ParentLayerID,
			SublayerIDs: l.SubLayerIDs,
			MinScale:    l.MinScale,
			MaxScale:    l.MaxScale,
		})
	}
	return info
}

// layerResponse mirrors a per-sublayer metadata document.
type layerResponse struct {
	ID            int         `json:"id"`
	Name          string      `json:"name"`
	Type          string      `json:"type"`
	GeometryType  string      `json:"geometryType"`
	DisplayField  string      `json:"displayField"`
	ObjectIDField string      `json:"objectIdField"`
	Fields        []fieldJSON `json:"fields"`
	DrawingInfo   struct {
		Renderer json.RawMessage `json:"renderer"`
	} `json:"drawingInfo"`
}

type fieldJSON struct {
	Name  string `json:"name"`
	Alias string `json:"alias"`
	Type  string `json:"type"`
}

const oidFieldType = "esriFieldTypeOID"

func (r layerResponse) toLayerData() layer.LayerData {
	data := layer.LayerData{
		GeometryType: r.GeometryType,
		DisplayField: r.DisplayField,
		OIDField:     r.ObjectIDField,
		Renderer:     r.DrawingInfo.Renderer,
	}
	for _, f := range r.Fields {
		data.Fields = append(data.Fields, layer.Field{Name: f.Name, Alias: f.Alias, Type: f.Type})
		if data.OIDField == "" && f.Type == oidFieldType {
			data.OIDField = f.Name
		}
	}
	return data
}

// legendResponse mirrors the service legend document.
type legendResponse struct {
	Layers []legendLayer `json:"layers"`
}

type legendLayer struct {
	LayerID int          `json:"layerId"`
	Legend  []legendItem `json:"legend"`
}

type legendItem struct {
	Label       string `json:"label"`
	ImageData   string `json:"imageData"`
	ContentType string `json:"contentType"`
}

func (i legendItem) toSymbolEntry() layer.SymbolEntry {
	return layer.SymbolEntry{Name: i.Label, Icon: dataURL(i.ContentType, i.ImageData)}
}

func dataURL(contentType, imageData string) string {
	if imageData == "" {
		return ""
	}
	if contentType == "" {
		contentType = "image/png"
	}
	return "data:" + contentType + ";base64," + imageData
}

// countResponse mirrors a returnCountOnly query result.
type countResponse struct {
	Count int `json:"count"`
}

// queryResponse mirrors an attribute query result.
type queryResponse struct {
	Features []struct {
		Attributes map[string]any `json:"attributes"`
	} `json:"features"`
}

// rendererJSON is the subset of a drawing-info renderer the client needs to
// produce symbol entries.
type rendererJSON struct {
	Type             string            `json:"type"`
	Label            string            `json:"label"`
	Field1           string            `json:"field1"`
	Symbol           rendererSymbol    `json:"symbol"`
	DefaultLabel     string            `json:"defaultLabel"`
	DefaultSymbol    rendererSymbol    `json:"defaultSymbol"`
	UniqueValueInfos []uniqueValueInfo `json:"uniqueValueInfos"`
}

type rendererSymbol struct {
	ImageData   string `json:"imageData"`
	ContentType string `json:"contentType"`
}

type uniqueValueInfo struct {
	Value  string         `json:"value"`
	Label  string         `json:"label"`
	Symbol rendererSymbol `json:"symbol"`
}

// catalogNodeJSON mirrors one node of a nested catalog document.
type catalogNodeJSON struct {
	Title    string            `json:"title"`
	ID       string            `json:"id"`
	Children []catalogNodeJSON `json:"children"`
}

func (n catalogNodeJSON) toCatalogNode() layer.CatalogNode {
	node := layer.CatalogNode{Title: n.Title, Ref: n.ID}
	for _, c := range n.Children {
		node.Children = append(node.Children, c.toCatalogNode())
	}
	return node
}
