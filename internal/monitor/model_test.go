package monitor

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/ansimon/internal/inventory"
	"github.com/rileyhilliard/ansimon/internal/model"
	"github.com/rileyhilliard/ansimon/internal/probe"
)

type fakeRefresher struct{ calls int }

func (f *fakeRefresher) RefreshNow() { f.calls++ }

func testTable(t *testing.T) *model.Model {
	t.Helper()
	content := `
[web]
w1
w2

[db]
d1
`
	inv, err := inventory.ParseINI(content)
	require.NoError(t, err)
	return model.New(inv.AllHosts())
}

func upWithCPU(tbl *model.Model, name string, cpuUser uint64) {
	t0 := time.Now().Add(-2 * time.Second)
	tbl.Apply(name, model.Outcome{
		Sample: &probe.Sample{TakenAt: t0, CPU: probe.CPUJiffies{User: 100, Idle: 100}},
		At:     t0,
	})
	tbl.Apply(name, model.Outcome{
		Sample: &probe.Sample{TakenAt: t0.Add(time.Second), CPU: probe.CPUJiffies{User: 100 + cpuUser, Idle: 200 - cpuUser}},
		At:     t0.Add(time.Second),
	})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		updated, _ := m.Update(key(k))
		m = updated.(Model)
	}
	return m
}

func TestModel_CursorMovement(t *testing.T) {
	m := New(testTable(t), nil, Thresholds{60, 85})

	assert.Equal(t, 0, m.view.CursorIndex)
	m = press(m, "j", "j")
	assert.Equal(t, 2, m.view.CursorIndex)
	m = press(m, "j")
	assert.Equal(t, 2, m.view.CursorIndex, "cursor clamps at the last row")
	m = press(m, "k", "k", "k")
	assert.Equal(t, 0, m.view.CursorIndex)

	m = press(m, "G")
	assert.Equal(t, 2, m.view.CursorIndex)
	m = press(m, "g")
	assert.Equal(t, 0, m.view.CursorIndex)
}

func TestModel_QuitKeys(t *testing.T) {
	m := New(testTable(t), nil, Thresholds{60, 85})

	updated, cmd := m.Update(key("q"))
	assert.True(t, updated.(Model).quitting)
	require.NotNil(t, cmd)

	m = New(testTable(t), nil, Thresholds{60, 85})
	updated, cmd = m.Update(key("ctrl+c"))
	assert.True(t, updated.(Model).quitting)
	require.NotNil(t, cmd)
}

func TestModel_SortCycleAndReverse(t *testing.T) {
	tbl := testTable(t)
	m := New(tbl, nil, Thresholds{60, 85})

	assert.Equal(t, model.SortByName, m.view.SortKey)
	m = press(m, "s")
	assert.NotEqual(t, model.SortByName, m.view.SortKey)
	// The view change is published to the shared model.
	assert.Equal(t, m.view.SortKey, tbl.GetView().SortKey)

	m = press(m, "S")
	assert.True(t, m.view.SortReversed)
	assert.True(t, tbl.GetView().SortReversed)
}

func TestModel_RefreshKeyCallsPoller(t *testing.T) {
	ref := &fakeRefresher{}
	m := New(testTable(t), ref, Thresholds{60, 85})

	press(m, "r")
	assert.Equal(t, 1, ref.calls)
}

func TestModel_FilterFlow(t *testing.T) {
	m := New(testTable(t), nil, Thresholds{60, 85})

	m = press(m, "/")
	assert.True(t, m.filterMode)

	m = press(m, "w")
	assert.Equal(t, "w", m.view.FilterText)
	assert.Len(t, m.visible(), 2, "only web hosts match")

	m = press(m, "enter")
	assert.False(t, m.filterMode)
	assert.Equal(t, "w", m.view.FilterText, "confirmed filter stays applied")

	m = press(m, "esc")
	assert.Empty(t, m.view.FilterText, "esc clears the filter")
	assert.Len(t, m.visible(), 3)
}

func TestModel_FilterEscapeCancels(t *testing.T) {
	m := New(testTable(t), nil, Thresholds{60, 85})

	m = press(m, "/", "w", "esc")
	assert.False(t, m.filterMode)
	assert.Empty(t, m.view.FilterText)
}

func TestModel_FilterMatchesGroups(t *testing.T) {
	m := New(testTable(t), nil, Thresholds{60, 85})

	m = press(m, "/", "d", "b")
	visible := m.visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "d1", visible[0].Host.Name)
}

func TestModel_DetailToggle(t *testing.T) {
	tbl := testTable(t)
	m := New(tbl, nil, Thresholds{60, 85})

	m = press(m, "enter")
	assert.True(t, m.view.DetailOpen)
	assert.True(t, tbl.GetView().DetailOpen)

	m = press(m, "esc")
	assert.False(t, m.view.DetailOpen)
}

func TestModel_HelpOverlay(t *testing.T) {
	m := New(testTable(t), nil, Thresholds{60, 85})

	m = press(m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "ansimon keys")

	m = press(m, "j")
	assert.False(t, m.showHelp, "any key closes help")
	assert.Equal(t, 0, m.view.CursorIndex, "the closing key is swallowed")
}

func TestModel_SortByCPUOrdersDescending(t *testing.T) {
	tbl := testTable(t)
	upWithCPU(tbl, "w1", 20)
	upWithCPU(tbl, "w2", 80)
	upWithCPU(tbl, "d1", 50)

	m := New(tbl, nil, Thresholds{60, 85})
	m.view.SortKey = model.SortByCPU

	visible := m.visible()
	require.Len(t, visible, 3)
	assert.Equal(t, "w2", visible[0].Host.Name)
	assert.Equal(t, "d1", visible[1].Host.Name)
	assert.Equal(t, "w1", visible[2].Host.Name)
}

func TestModel_SortMissingMetricsSinkToBottom(t *testing.T) {
	tbl := testTable(t)
	upWithCPU(tbl, "d1", 50)

	m := New(tbl, nil, Thresholds{60, 85})
	m.view.SortKey = model.SortByCPU

	visible := m.visible()
	require.Len(t, visible, 3)
	assert.Equal(t, "d1", visible[0].Host.Name)
}

func TestModel_ViewRendersStatusGlyphs(t *testing.T) {
	tbl := testTable(t)
	upWithCPU(tbl, "w1", 20)
	tbl.Apply("w2", model.Outcome{
		Err: &probe.Error{Kind: probe.FailConnectTimeout, Detail: "host unreachable"},
		At:  time.Now(),
	})

	m := New(tbl, nil, Thresholds{60, 85})
	out := m.View()
	assert.Contains(t, out, "[UP]")
	assert.Contains(t, out, "[DN]")
	assert.Contains(t, out, "[--]")
}

func TestModel_DetailShowsExtendedFields(t *testing.T) {
	tbl := testTable(t)
	t0 := time.Now().Add(-2 * time.Second)
	tbl.Apply("w1", model.Outcome{
		Sample: &probe.Sample{
			TakenAt:      t0,
			CPU:          probe.CPUJiffies{User: 100, Idle: 100},
			CPUCount:     8,
			MemTotalKB:   8 << 20,
			MemAvailKB:   4 << 20,
			Load1:        0.5, Load5: 0.4, Load15: 0.3,
			ProcsRunning: 2, ProcsTotal: 150,
			TCPInUse:     42,
			SSHLatencyMS: 12,
		},
		At: t0,
	})

	m := New(tbl, nil, Thresholds{60, 85})
	m.view.DetailOpen = true
	// Default sort is by name: d1, w1, w2.
	m.view.CursorIndex = 1

	content := m.detailContent()
	assert.Contains(t, content, "w1")
	assert.Contains(t, content, "Load avg")
	assert.Contains(t, content, "2 running / 150 total")
	assert.Contains(t, content, "TCP conns")
	assert.Contains(t, content, "42")
	assert.Contains(t, content, "12ms")
	assert.Contains(t, content, "CPU count")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "500B", humanBytes(500))
	assert.Equal(t, "1.0K", humanBytes(1024))
	assert.Equal(t, "1.0M", humanBytes(1<<20))
	assert.Equal(t, "1.0G", humanBytes(1<<30))

	assert.Equal(t, "...", formatRate(probe.Rate{}, false))
	assert.Equal(t, "N/A", formatRate(probe.Rate{}, true))
	assert.Equal(t, "1.0K/s", formatRate(probe.Rate{Value: 1024, Valid: true}, true))

	assert.Equal(t, "...", formatPct(probe.Rate{}, false))
	assert.Equal(t, "N/A", formatPct(probe.Rate{}, true))
	assert.Equal(t, "42%", formatPct(probe.Rate{Value: 42.4, Valid: true}, true))

	assert.Equal(t, "1d 2h", formatUptime(26*3600))
	assert.Equal(t, "3h 5m", formatUptime(3*3600+5*60))
	assert.Equal(t, "9m", formatUptime(9*60+30))

	now := time.Now()
	assert.Equal(t, "never", formatAgo(time.Time{}, now))
	assert.Equal(t, "5s ago", formatAgo(now.Add(-5*time.Second), now))
	assert.Equal(t, "2m ago", formatAgo(now.Add(-2*time.Minute), now))
}

func TestPad(t *testing.T) {
	assert.Equal(t, "abc  ", pad("abc", 5))
	assert.Equal(t, "abcd…", pad("abcdefgh", 5))
	assert.Len(t, pad("ab", 4), 4)
}
