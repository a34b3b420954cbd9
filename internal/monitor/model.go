// Package monitor is the bubbletea dashboard: a sortable, filterable host
// table with a detail panel, rendered from snapshots of the shared model.
package monitor

import (
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/ansimon/internal/model"
)

// redrawInterval paces UI refreshes between poller updates.
const redrawInterval = time.Second

// Refresher lets the UI request an immediate poll tick. Implemented by the
// poller.
type Refresher interface {
	RefreshNow()
}

// Thresholds are the severity cut-offs used for coloring (percent).
type Thresholds struct {
	Warning  float64
	Critical float64
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	table     *model.Model
	refresher Refresher
	limits    Thresholds

	view       model.ViewState
	filterMode bool
	showHelp   bool
	quitting   bool

	filterInput textinput.Model

	detailViewport viewport.Model
	viewportReady  bool

	width  int
	height int
}

// redrawMsg paces periodic re-rendering; the poller mutates the shared
// model independently of the UI loop.
type redrawMsg time.Time

// New creates the dashboard model over the shared host table.
func New(table *model.Model, refresher Refresher, limits Thresholds) Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter hosts"
	ti.CharLimit = 64

	return Model{
		table:       table,
		refresher:   refresher,
		limits:      limits,
		view:        table.GetView(),
		filterInput: ti,
	}
}

// Init starts the redraw timer.
func (m Model) Init() tea.Cmd {
	return m.redrawCmd()
}

func (m Model) redrawCmd() tea.Cmd {
	return tea.Tick(redrawInterval, func(t time.Time) tea.Msg {
		return redrawMsg(t)
	})
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case redrawMsg:
		m.clampCursor()
		if m.view.DetailOpen {
			m.detailViewport.SetContent(m.detailContent())
		}
		return m, m.redrawCmd()
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderDashboard()
}

// pushView publishes the local view state to the shared model.
func (m *Model) pushView() {
	m.table.SetView(m.view)
}

// visible returns the snapshot filtered and sorted per the view state.
func (m Model) visible() []model.HostRecord {
	records := m.table.Snapshot()

	if filter := strings.ToLower(m.view.FilterText); filter != "" {
		var kept []model.HostRecord
		for _, rec := range records {
			if matchesFilter(rec, filter) {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	sortRecords(records, m.view.SortKey, m.view.SortReversed)
	return records
}

func matchesFilter(rec model.HostRecord, filter string) bool {
	if strings.Contains(strings.ToLower(rec.Host.Name), filter) {
		return true
	}
	for _, g := range rec.Host.Groups {
		if strings.Contains(strings.ToLower(g), filter) {
			return true
		}
	}
	return false
}

// sortRecords orders the visible rows. Hosts without data for the chosen
// metric sink to the bottom; percentage and size sorts default to
// descending (largest first) since that is what an operator scans for.
func sortRecords(records []model.HostRecord, key model.SortKey, reversed bool) {
	less := func(i, j int) bool {
		a, b := records[i], records[j]
		switch key {
		case model.SortByGroup:
			if ga, gb := a.Host.DisplayGroup(), b.Host.DisplayGroup(); ga != gb {
				return ga < gb
			}
			return a.Host.Name < b.Host.Name
		case model.SortByStatus:
			if a.Status != b.Status {
				return a.Status < b.Status
			}
			return a.Host.Name < b.Host.Name
		case model.SortByCPU:
			return metricLess(a.Host.Name, b.Host.Name, cpuMetric(a), cpuMetric(b))
		case model.SortByMem:
			return metricLess(a.Host.Name, b.Host.Name, memMetric(a), memMetric(b))
		case model.SortByDisk:
			return metricLess(a.Host.Name, b.Host.Name, diskMetric(a), diskMetric(b))
		case model.SortByIOWait:
			return metricLess(a.Host.Name, b.Host.Name, iowaitMetric(a), iowaitMetric(b))
		case model.SortBySwap:
			return metricLess(a.Host.Name, b.Host.Name, swapMetric(a), swapMetric(b))
		default:
			return a.Host.Name < b.Host.Name
		}
	}
	if reversed {
		sort.SliceStable(records, func(i, j int) bool { return less(j, i) })
	} else {
		sort.SliceStable(records, less)
	}
}

// metricLess sorts descending by value with missing values (-1) last and
// names as tiebreak.
func metricLess(nameA, nameB string, a, b float64) bool {
	if a != b {
		return a > b
	}
	return nameA < nameB
}

func cpuMetric(rec model.HostRecord) float64 {
	if rec.LastDelta != nil && rec.LastDelta.CPUPct.Valid {
		return rec.LastDelta.CPUPct.Value
	}
	return -1
}

func iowaitMetric(rec model.HostRecord) float64 {
	if rec.LastDelta != nil && rec.LastDelta.IOWaitPct.Valid {
		return rec.LastDelta.IOWaitPct.Value
	}
	return -1
}

func memMetric(rec model.HostRecord) float64 {
	if rec.LastSample == nil || rec.LastSample.MemTotalKB == 0 {
		return -1
	}
	return float64(rec.LastSample.MemUsedKB()) / float64(rec.LastSample.MemTotalKB) * 100
}

func diskMetric(rec model.HostRecord) float64 {
	if rec.LastSample == nil {
		return -1
	}
	return rec.LastSample.DiskUsedPct
}

func swapMetric(rec model.HostRecord) float64 {
	if rec.LastSample == nil || !rec.LastSample.HasSwap() {
		return -1
	}
	return float64(rec.LastSample.SwapUsedKB()) / float64(rec.LastSample.SwapTotalKB) * 100
}

// clampCursor keeps the cursor inside the visible row range as filters and
// sorts change.
func (m *Model) clampCursor() {
	n := len(m.visible())
	if n == 0 {
		m.view.CursorIndex = 0
		return
	}
	if m.view.CursorIndex >= n {
		m.view.CursorIndex = n - 1
	}
	if m.view.CursorIndex < 0 {
		m.view.CursorIndex = 0
	}
}

// selectedRecord returns the record under the cursor.
func (m Model) selectedRecord() (model.HostRecord, bool) {
	visible := m.visible()
	if m.view.CursorIndex < 0 || m.view.CursorIndex >= len(visible) {
		return model.HostRecord{}, false
	}
	return visible[m.view.CursorIndex], true
}

func (m *Model) resizeViewport() {
	headerHeight := 3
	footerHeight := 2
	vpHeight := m.height - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.viewportReady {
		m.detailViewport = viewport.New(m.width, vpHeight)
		m.detailViewport.YPosition = headerHeight
		m.viewportReady = true
	} else {
		m.detailViewport.Width = m.width
		m.detailViewport.Height = vpHeight
	}
}

// pageSize is how many rows ctrl+d/ctrl+u and pgup/pgdn jump.
const pageSize = 10
