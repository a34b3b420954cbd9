// Package probe collects one metrics sample from a remote Linux host over a
// single SSH round trip, parses it, and derives rates between successive
// samples.
package probe

import "time"

// CPUJiffies holds the aggregate "cpu " row of /proc/stat.
type CPUJiffies struct {
	User    uint64
	Nice    uint64
	System  uint64
	Idle    uint64
	IOWait  uint64
	IRQ     uint64
	SoftIRQ uint64
	Steal   uint64
}

// Total returns the sum of all jiffy buckets.
func (c CPUJiffies) Total() uint64 {
	return satAdd(satAdd(satAdd(c.User, c.Nice), satAdd(c.System, c.Idle)),
		satAdd(satAdd(c.IOWait, c.IRQ), satAdd(c.SoftIRQ, c.Steal)))
}

// Sample is one point-in-time raw reading from a host. All counter fields
// are monotonically non-decreasing across successive samples on the same
// boot; a decrease means the counter reset and the affected rate is
// suppressed for that tick.
type Sample struct {
	// TakenAt is the local wall-clock time the probe output was parsed.
	TakenAt time.Time

	CPU      CPUJiffies
	CPUCount int

	MemTotalKB  uint64
	MemAvailKB  uint64
	MemFreeKB   uint64
	BuffersKB   uint64
	CachedKB    uint64
	SwapTotalKB uint64
	SwapFreeKB  uint64

	Load1  float64
	Load5  float64
	Load15 float64

	ProcsRunning int
	ProcsTotal   int

	UptimeSeconds float64

	DiskUsedPct float64
	DiskTotalKB uint64
	DiskUsedKB  uint64

	TCPInUse int

	// RxBytes and TxBytes are summed across non-loopback, non-virtual
	// interfaces.
	RxBytes uint64
	TxBytes uint64

	// ReadSectors and WriteSectors are summed across physical block
	// devices (512-byte sectors).
	ReadSectors  uint64
	WriteSectors uint64

	SSHLatencyMS int64
}

// MemUsedKB returns total minus available memory.
func (s *Sample) MemUsedKB() uint64 {
	if s.MemAvailKB > s.MemTotalKB {
		return 0
	}
	return s.MemTotalKB - s.MemAvailKB
}

// SwapUsedKB returns total minus free swap.
func (s *Sample) SwapUsedKB() uint64 {
	if s.SwapFreeKB > s.SwapTotalKB {
		return 0
	}
	return s.SwapTotalKB - s.SwapFreeKB
}

// HasSwap reports whether the host has any swap configured. Hosts with
// SwapTotal = 0 display swap as N/A.
func (s *Sample) HasSwap() bool {
	return s.SwapTotalKB > 0
}

func satAdd(a, b uint64) uint64 {
	if a+b < a {
		return ^uint64(0)
	}
	return a + b
}
