// Package model holds the live host table shared between the poller and
// the renderer. Each host's record is an immutable value replaced under a
// short lock, so readers never see a torn update and never block a probe
// for long.
package model

import (
	"sync"
	"time"

	"github.com/rileyhilliard/ansimon/internal/inventory"
	"github.com/rileyhilliard/ansimon/internal/probe"
)

// Status is the poll state of one host.
type Status int

const (
	StatusUnknown Status = iota
	StatusPolling
	StatusUp
	StatusDown
)

// Glyph returns the fixed-width status indicator shown in the table.
func (s Status) Glyph() string {
	switch s {
	case StatusUp:
		return "[UP]"
	case StatusDown:
		return "[DN]"
	case StatusPolling:
		return "[..]"
	default:
		return "[--]"
	}
}

// String returns a lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusUp:
		return "up"
	case StatusDown:
		return "down"
	case StatusPolling:
		return "polling"
	default:
		return "unknown"
	}
}

// HostRecord is the live state of one host as surfaced to the UI. Records
// are treated as immutable: every update builds a new value.
type HostRecord struct {
	Host *inventory.Host

	Status Status

	// LastSample is the newest good sample; PrevSample the one before it.
	// Only these two are kept, which bounds memory at O(hosts).
	LastSample *probe.Sample
	PrevSample *probe.Sample

	// LastDelta is derived from the two samples above. It survives failed
	// ticks so the table keeps showing the last known rates' inputs.
	LastDelta *probe.Delta

	// LastError is a single display line, empty while Up.
	LastError string

	LastOKAt      time.Time
	LastAttemptAt time.Time
}

// SortKey selects the table sort column.
type SortKey int

const (
	SortByName SortKey = iota
	SortByGroup
	SortByStatus
	SortByCPU
	SortByMem
	SortByDisk
	SortByIOWait
	SortBySwap
)

// Next cycles to the following sort column.
func (k SortKey) Next() SortKey {
	return SortKey((int(k) + 1) % 8)
}

// Label returns the column header the key sorts by.
func (k SortKey) Label() string {
	switch k {
	case SortByGroup:
		return "Group"
	case SortByStatus:
		return "Status"
	case SortByCPU:
		return "CPU"
	case SortByMem:
		return "Mem"
	case SortByDisk:
		return "Disk"
	case SortByIOWait:
		return "IOw"
	case SortBySwap:
		return "Swap"
	default:
		return "Host"
	}
}

// ViewState is the renderer-owned projection: sort, filter, cursor, and
// detail toggle. It lives in the model so the poller's writes and the UI's
// writes stay behind one lock, but the field sets are disjoint.
type ViewState struct {
	SortKey      SortKey
	SortReversed bool
	FilterText   string
	CursorIndex  int
	DetailOpen   bool
}

// Outcome is one probe completion to fold into the table.
type Outcome struct {
	// Sample is set on success.
	Sample *probe.Sample

	// Err is set on failure.
	Err *probe.Error

	// At is when the outcome was produced.
	At time.Time
}

// Model is the shared host table. All methods are safe for concurrent use.
type Model struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*HostRecord
	view    ViewState
}

// New creates a model with one Unknown record per host, preserving the
// given inventory order.
func New(hosts []*inventory.Host) *Model {
	m := &Model{
		order:   make([]string, 0, len(hosts)),
		records: make(map[string]*HostRecord, len(hosts)),
	}
	for _, h := range hosts {
		m.order = append(m.order, h.Name)
		m.records[h.Name] = &HostRecord{Host: h, Status: StatusUnknown}
	}
	return m
}

// Snapshot returns a copy of every record in inventory order. The copies
// share the immutable Sample and Delta values but not the record itself.
func (m *Model) Snapshot() []HostRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]HostRecord, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, *m.records[name])
	}
	return out
}

// Get returns a copy of one host's record.
func (m *Model) Get(name string) (HostRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[name]
	if !ok {
		return HostRecord{}, false
	}
	return *rec, true
}

// Len returns the number of hosts in the table.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// MarkPolling flags a host as having a probe in flight. Samples, deltas,
// and the previous error are all retained so the table keeps its data while
// the probe runs.
func (m *Model) MarkPolling(name string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.records[name]
	if !ok {
		return
	}
	rec := *old
	rec.Status = StatusPolling
	rec.LastAttemptAt = at
	m.records[name] = &rec
}

// Apply folds a probe outcome into the host's record atomically. On success
// the sample history shifts, a fresh delta is derived, and the error
// clears; on failure the samples and delta are retained so rates resume
// with the next good sample.
func (m *Model) Apply(name string, outcome Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.records[name]
	if !ok {
		return
	}
	rec := *old

	if outcome.Err != nil {
		rec.Status = StatusDown
		rec.LastError = outcome.Err.DisplayString()
		m.records[name] = &rec
		return
	}

	rec.PrevSample = rec.LastSample
	rec.LastSample = outcome.Sample
	rec.LastDelta = probe.ComputeDelta(rec.PrevSample, rec.LastSample, rec.LastDelta)
	rec.Status = StatusUp
	rec.LastError = ""
	rec.LastOKAt = outcome.At
	m.records[name] = &rec
}

// SetView replaces the view state.
func (m *Model) SetView(v ViewState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = v
}

// GetView returns the current view state.
func (m *Model) GetView() ViewState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view
}

// UpCount returns how many hosts are currently Up.
func (m *Model) UpCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, rec := range m.records {
		if rec.Status == StatusUp {
			count++
		}
	}
	return count
}
