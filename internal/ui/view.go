package ui

import (
	"fmt"
	"strings"

	"github.com/rclampitt/stratum/internal/state"
)

func (m Model) View() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(m.renderHeader(styles))
	b.WriteString("\n")
	b.WriteString(m.renderRows(styles))
	b.WriteString(m.renderFooter(styles))
	return b.String()
}

func (m Model) renderHeader(styles Styles) string {
	parts := []string{styles.Logo.Render("stratum")}

	switch {
	case m.snapshot.IsOffline():
		parts = append(parts, styles.DangerText.Render("● OFFLINE"))
	case !m.snapshot.Resolved:
		parts = append(parts, m.spin.View()+styles.WarningText.Render("Resolving service..."))
	default:
		parts = append(parts, styles.SuccessText.Render("● "+m.snapshot.ServiceName))
		parts = append(parts, styles.MutedText.Render(fmt.Sprintf("scale 1:%s", formatCount(int(m.opts.Scale)))))
	}

	if m.snapshot.LastError != nil {
		parts = append(parts, styles.WarningText.Render(truncate(m.snapshot.LastError.Error(), 60)))
	}
	if m.applyErr != nil {
		parts = append(parts, styles.DangerText.Render("apply failed: "+truncate(m.applyErr.Error(), 40)))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderRows(styles Styles) string {
	rows := m.snapshot.Rows
	if len(rows) == 0 {
		if m.snapshot.Resolved {
			return styles.MutedText.Render("  no sub-layers") + "\n"
		}
		return styles.MutedText.Render("  waiting for service...") + "\n"
	}

	// Header and footer take a line each.
	visible := m.height - 2
	if visible < 1 {
		visible = len(rows)
	}
	start, end := rowWindow(len(rows), visible, m.cursor)

	var b strings.Builder
	for i := start; i < end; i++ {
		line := m.renderRow(styles, rows[i])
		if i == m.cursor {
			line = styles.Selected.Width(m.width).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(styles Styles, row state.Row) string {
	pad := indent(row.Depth)

	if row.Group {
		return pad + styles.AccentText.Render("▸ "+row.Name)
	}

	marker := visibilityMarker(row)
	name := row.Name
	if row.Placeholder {
		name = styles.FaintText.Render(name + " (resolving)")
	} else {
		name = styles.Text.Render(name)
	}

	parts := []string{pad + marker + " " + name}

	if row.GeometryType != "" {
		parts = append(parts, styles.GeometryStyle(row.GeometryType).Render(geometryLabel(row.GeometryType)))
	}
	if m.showCounts && row.HasCount {
		parts = append(parts, styles.MutedText.Render(formatCount(row.Count)))
	}
	if row.Queryable {
		parts = append(parts, styles.InfoText.Render("query"))
	}
	if row.OffScale {
		parts = append(parts, styles.WarningText.Render(offScaleHint(row)))
	}
	if len(row.Symbols) > 0 {
		parts = append(parts, styles.FaintText.Render(fmt.Sprintf("%d symbols", len(row.Symbols))))
	}

	return strings.Join(parts, "  ")
}

func (m Model) renderFooter(styles Styles) string {
	help := "↑/↓ move  v visibility  x query  c counts  t theme  q quit"
	return styles.Footer.Width(m.width).Render(help)
}
