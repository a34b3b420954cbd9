package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/ansimon/internal/model"
	"github.com/rileyhilliard/ansimon/internal/probe"
)

// column is one table column: sort key, header label, and width. Cells are
// rendered as plain text first and styled after padding so ANSI escapes
// never skew the layout.
type column struct {
	key   model.SortKey
	label string
	width int
	cell  func(m Model, rec model.HostRecord) (string, lipgloss.Style)
}

var columns = []column{
	{model.SortByStatus, "Status", 6, func(m Model, rec model.HostRecord) (string, lipgloss.Style) {
		return rec.Status.Glyph(), statusStyle(rec.Status)
	}},
	{model.SortByName, "Host", 24, func(m Model, rec model.HostRecord) (string, lipgloss.Style) {
		return rec.Host.Name, lipgloss.NewStyle()
	}},
	{model.SortByGroup, "Group", 14, func(m Model, rec model.HostRecord) (string, lipgloss.Style) {
		return rec.Host.DisplayGroup(), MutedStyle
	}},
	{model.SortByCPU, "CPU", 7, Model.cpuCell},
	{model.SortByMem, "Mem", 11, Model.memCell},
	{model.SortByDisk, "Disk", 6, Model.diskCell},
	{model.SortByIOWait, "IOw", 6, Model.iowaitCell},
	{model.SortBySwap, "Swap", 11, Model.swapCell},
}

func statusStyle(s model.Status) lipgloss.Style {
	switch s {
	case model.StatusUp:
		return StatusUpStyle
	case model.StatusDown:
		return StatusDownStyle
	case model.StatusPolling:
		return StatusPollingStyle
	default:
		return StatusUnknownStyle
	}
}

// renderDashboard renders the header, table (or detail panel), and footer.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.view.DetailOpen {
		b.WriteString(m.renderDetail())
	} else {
		b.WriteString(m.renderTable())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := TitleStyle.Render("ansimon")
	stats := fmt.Sprintf(" | %d/%d up | updated %s", m.table.UpCount(), m.table.Len(), m.lastTickAgo())

	var filter string
	if m.filterMode {
		filter = "  " + m.filterInput.View()
	} else if m.view.FilterText != "" {
		filter = "  " + FilterPromptStyle.Render("/"+m.view.FilterText)
	}

	return HeaderStyle.Render(title+stats) + filter
}

func (m Model) renderTable() string {
	var b strings.Builder

	// Column headers, with the active sort column highlighted.
	var heads []string
	for _, col := range columns {
		style := ColumnHeaderStyle
		if col.key == m.view.SortKey {
			style = SortedColumnStyle
		}
		heads = append(heads, style.Render(pad(col.label, col.width)))
	}
	b.WriteString("  " + strings.Join(heads, " "))
	b.WriteString("\n")

	visible := m.visible()
	if len(visible) == 0 {
		b.WriteString(MutedStyle.Render("  no hosts match"))
		b.WriteString("\n")
		return b.String()
	}

	for i, rec := range visible {
		marker := "  "
		if i == m.view.CursorIndex {
			marker = FilterPromptStyle.Render("> ")
		}

		var cells []string
		for _, col := range columns {
			text, style := col.cell(m, rec)
			cells = append(cells, style.Render(pad(text, col.width)))
		}

		b.WriteString(marker + strings.Join(cells, " "))
		b.WriteString("\n")

		// The selected down host shows its one-line error under the row.
		if rec.Status == model.StatusDown && rec.LastError != "" && i == m.view.CursorIndex {
			b.WriteString("    " + ErrorTextStyle.Render(rec.LastError))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m Model) renderFooter() string {
	bindings := "q quit · j/k move · enter detail · s sort · S reverse · / filter · r refresh · ? help"
	sortLabel := fmt.Sprintf("sort: %s", m.view.SortKey.Label())
	if m.view.SortReversed {
		sortLabel += " (rev)"
	}
	return FooterStyle.Render(bindings + "  |  " + sortLabel)
}

// Cell renderers.

func (m Model) cpuCell(rec model.HostRecord) (string, lipgloss.Style) {
	if rec.LastSample == nil {
		return pendingRate, MutedStyle
	}
	r := deltaRate(rec, func(d *probe.Delta) probe.Rate { return d.CPUPct })
	text := formatPct(r, rec.PrevSample != nil)
	if r.Valid {
		return text, severityStyle(r.Value, m.limits.Warning, m.limits.Critical)
	}
	return text, MutedStyle
}

func (m Model) iowaitCell(rec model.HostRecord) (string, lipgloss.Style) {
	if rec.LastSample == nil {
		return pendingRate, MutedStyle
	}
	r := deltaRate(rec, func(d *probe.Delta) probe.Rate { return d.IOWaitPct })
	text := formatPct(r, rec.PrevSample != nil)
	if r.Valid {
		// IO wait runs hot well before the generic thresholds.
		return text, severityStyle(r.Value, 10, 30)
	}
	return text, MutedStyle
}

func (m Model) memCell(rec model.HostRecord) (string, lipgloss.Style) {
	s := rec.LastSample
	if s == nil || s.MemTotalKB == 0 {
		return pendingRate, MutedStyle
	}
	pct := float64(s.MemUsedKB()) / float64(s.MemTotalKB) * 100
	return formatMemPair(s.MemUsedKB(), s.MemTotalKB), severityStyle(pct, m.limits.Warning, m.limits.Critical)
}

func (m Model) diskCell(rec model.HostRecord) (string, lipgloss.Style) {
	s := rec.LastSample
	if s == nil {
		return pendingRate, MutedStyle
	}
	return fmt.Sprintf("%.0f%%", s.DiskUsedPct), severityStyle(s.DiskUsedPct, m.limits.Warning, m.limits.Critical)
}

func (m Model) swapCell(rec model.HostRecord) (string, lipgloss.Style) {
	s := rec.LastSample
	if s == nil {
		return pendingRate, MutedStyle
	}
	if !s.HasSwap() {
		return unavailable, MutedStyle
	}
	pct := float64(s.SwapUsedKB()) / float64(s.SwapTotalKB) * 100
	return formatMemPair(s.SwapUsedKB(), s.SwapTotalKB), severityStyle(pct, 50, 80)
}

func deltaRate(rec model.HostRecord, pick func(*probe.Delta) probe.Rate) probe.Rate {
	if rec.LastDelta == nil {
		return probe.Rate{}
	}
	return pick(rec.LastDelta)
}

// pad right-pads or truncates plain text to the given width.
func pad(s string, width int) string {
	if len(s) > width {
		if width <= 1 {
			return s[:width]
		}
		return s[:width-1] + "…"
	}
	return s + strings.Repeat(" ", width-len(s))
}

// lastTickAgo reports the freshest successful poll across all hosts.
func (m Model) lastTickAgo() string {
	var latest time.Time
	for _, rec := range m.table.Snapshot() {
		if rec.LastOKAt.After(latest) {
			latest = rec.LastOKAt
		}
	}
	return formatAgo(latest, time.Now())
}
