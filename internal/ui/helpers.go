package ui

import (
	"strconv"
	"strings"

	"github.com/rclampitt/stratum/internal/layer"
	"github.com/rclampitt/stratum/internal/state"
)

func indent(depth int) string {
	if depth <= 0 {
		return ""
	}
	return strings.Repeat("  ", depth)
}

func visibilityMarker(row state.Row) string {
	if row.Visible {
		return "[x]"
	}
	return "[ ]"
}

// formatCount renders an integer with thousands separators.
func formatCount(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// geometryLabel shortens service geometry type names for the badge.
func geometryLabel(geometry string) string {
	short := strings.TrimPrefix(geometry, "esriGeometry")
	return strings.ToLower(short)
}

func offScaleHint(row state.Row) string {
	switch row.Zoom {
	case layer.ZoomIn:
		return "off-scale (zoom in)"
	case layer.ZoomOut:
		return "off-scale (zoom out)"
	default:
		return "off-scale"
	}
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// rowWindow picks the [start, end) slice of rows to display so the cursor
// stays inside a viewport of the given height.
func rowWindow(total, height, cursor int) (int, int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > total {
		start = total - height
	}
	return start, start + height
}
