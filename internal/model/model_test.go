package model

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/ansimon/internal/inventory"
	"github.com/rileyhilliard/ansimon/internal/probe"
)

func testHosts(names ...string) []*inventory.Host {
	hosts := make([]*inventory.Host, 0, len(names))
	for _, n := range names {
		hosts = append(hosts, inventory.NewHost(n))
	}
	return hosts
}

func goodSample(at time.Time, idle, user uint64) *probe.Sample {
	return &probe.Sample{
		TakenAt: at,
		CPU:     probe.CPUJiffies{User: user, Idle: idle},
	}
}

func TestNew_AllUnknownInOrder(t *testing.T) {
	m := New(testHosts("b", "a", "c"))

	snap := m.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "b", snap[0].Host.Name)
	assert.Equal(t, "a", snap[1].Host.Name)
	assert.Equal(t, "c", snap[2].Host.Name)
	for _, rec := range snap {
		assert.Equal(t, StatusUnknown, rec.Status)
	}
}

func TestLifecycle_UnknownPollingUpDown(t *testing.T) {
	m := New(testHosts("h1"))
	t0 := time.Now()

	m.MarkPolling("h1", t0)
	rec, ok := m.Get("h1")
	require.True(t, ok)
	assert.Equal(t, StatusPolling, rec.Status)
	assert.Equal(t, t0, rec.LastAttemptAt)

	m.Apply("h1", Outcome{Sample: goodSample(t0, 100, 100), At: t0})
	rec, _ = m.Get("h1")
	assert.Equal(t, StatusUp, rec.Status)
	assert.NotNil(t, rec.LastSample)
	assert.Nil(t, rec.PrevSample)
	assert.Nil(t, rec.LastDelta, "no delta until the second sample")
	assert.Empty(t, rec.LastError)
	assert.Equal(t, t0, rec.LastOKAt)

	m.MarkPolling("h1", t0.Add(10*time.Second))
	m.Apply("h1", Outcome{
		Err: &probe.Error{Kind: probe.FailConnectTimeout},
		At:  t0.Add(10 * time.Second),
	})
	rec, _ = m.Get("h1")
	assert.Equal(t, StatusDown, rec.Status)
	assert.NotEmpty(t, rec.LastError)
	assert.NotNil(t, rec.LastSample, "failure keeps the last good sample")
	assert.Equal(t, t0, rec.LastOKAt, "failure does not advance LastOKAt")
}

func TestApply_SecondSampleProducesDelta(t *testing.T) {
	m := New(testHosts("h1"))
	t0 := time.Now()

	m.Apply("h1", Outcome{Sample: goodSample(t0, 100, 900), At: t0})
	m.Apply("h1", Outcome{Sample: goodSample(t0.Add(time.Second), 150, 950), At: t0.Add(time.Second)})

	rec, _ := m.Get("h1")
	require.NotNil(t, rec.PrevSample)
	require.NotNil(t, rec.LastDelta)
	require.True(t, rec.LastDelta.CPUPct.Valid)
	assert.InDelta(t, 50.0, rec.LastDelta.CPUPct.Value, 0.001)
}

func TestApply_DeltaResumesAfterFailedTick(t *testing.T) {
	m := New(testHosts("h1"))
	t0 := time.Now()

	m.Apply("h1", Outcome{Sample: goodSample(t0, 100, 900), At: t0})
	m.Apply("h1", Outcome{Err: &probe.Error{Kind: probe.FailParse, Section: "stat"}, At: t0.Add(time.Second)})
	m.Apply("h1", Outcome{Sample: goodSample(t0.Add(2*time.Second), 150, 950), At: t0.Add(2 * time.Second)})

	rec, _ := m.Get("h1")
	assert.Equal(t, StatusUp, rec.Status)
	assert.Empty(t, rec.LastError, "error clears on recovery")
	require.NotNil(t, rec.LastDelta)
	assert.True(t, rec.LastDelta.CPUPct.Valid, "delta spans the failed tick")
}

func TestApply_UnknownHostIgnored(t *testing.T) {
	m := New(testHosts("h1"))
	m.Apply("ghost", Outcome{Sample: goodSample(time.Now(), 1, 1), At: time.Now()})
	assert.Equal(t, 1, m.Len())
}

func TestSnapshot_IsolatedFromUpdates(t *testing.T) {
	m := New(testHosts("h1"))
	t0 := time.Now()

	snap := m.Snapshot()
	m.Apply("h1", Outcome{Sample: goodSample(t0, 1, 1), At: t0})

	// The earlier snapshot still shows the pre-update state.
	assert.Equal(t, StatusUnknown, snap[0].Status)
}

func TestViewRoundtrip(t *testing.T) {
	m := New(testHosts("h1"))
	v := ViewState{
		SortKey:      SortByCPU,
		SortReversed: true,
		FilterText:   "web",
		CursorIndex:  3,
		DetailOpen:   true,
	}
	m.SetView(v)
	assert.Equal(t, v, m.GetView())
}

func TestUpCount(t *testing.T) {
	m := New(testHosts("a", "b", "c"))
	t0 := time.Now()

	m.Apply("a", Outcome{Sample: goodSample(t0, 1, 1), At: t0})
	m.Apply("b", Outcome{Err: &probe.Error{Kind: probe.FailAuth}, At: t0})

	assert.Equal(t, 1, m.UpCount())
}

func TestStatusGlyphs(t *testing.T) {
	assert.Equal(t, "[UP]", StatusUp.Glyph())
	assert.Equal(t, "[DN]", StatusDown.Glyph())
	assert.Equal(t, "[..]", StatusPolling.Glyph())
	assert.Equal(t, "[--]", StatusUnknown.Glyph())
}

func TestSortKeyCycle(t *testing.T) {
	k := SortByName
	seen := map[SortKey]bool{}
	for i := 0; i < 8; i++ {
		seen[k] = true
		k = k.Next()
	}
	assert.Equal(t, SortByName, k, "cycle returns to the start")
	assert.Len(t, seen, 8)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	m := New(testHosts("a", "b", "c", "d"))
	t0 := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		name := []string{"a", "b", "c", "d"}[i]
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.MarkPolling(name, t0)
				m.Apply(name, Outcome{Sample: goodSample(t0.Add(time.Duration(j)*time.Second), 1, 1), At: t0})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				for _, rec := range m.Snapshot() {
					// A record is either fully old or fully new: an Up
					// status always has a sample.
					if rec.Status == StatusUp {
						assert.NotNil(t, rec.LastSample)
					}
				}
			}
		}()
	}
	wg.Wait()
}
