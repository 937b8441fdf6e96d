package layer

// ScaleSet holds the scale denominators between which a sub-layer renders.
// Zero means "no bound" on that side.
type ScaleSet struct {
	MinScale float64
	MaxScale float64
}

// ZoomDirection says which way to zoom to bring an off-scale sub-layer back
// into its visible range.
type ZoomDirection string

const (
	ZoomNone ZoomDirection = ""
	ZoomIn   ZoomDirection = "in"
	ZoomOut  ZoomDirection = "out"
)

// ScaleVisibility is the answer to "is this sub-layer visible at the current
// scale, and if not, how do I fix it".
type ScaleVisibility struct {
	OffScale bool
	Zoom     ZoomDirection
}

// VisibilityAt evaluates the scale rule for a current scale denominator:
// below a non-zero MaxScale the layer is off scale and zooming in fixes it,
// above a non-zero MinScale it is off scale and zooming out fixes it.
func (s ScaleSet) VisibilityAt(scale float64) ScaleVisibility {
	if s.MaxScale != 0 && scale < s.MaxScale {
		return ScaleVisibility{OffScale: true, Zoom: ZoomIn}
	}
	if s.MinScale != 0 && scale > s.MinScale {
		return ScaleVisibility{OffScale: true, Zoom: ZoomOut}
	}
	return ScaleVisibility{}
}
