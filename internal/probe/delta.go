package probe

import "time"

// minElapsed is the shortest sample spacing a delta is computed over.
// Anything shorter carries the prior delta forward instead of amplifying
// timing jitter into nonsense rates.
const minElapsed = 500 * time.Millisecond

// sectorSize converts /proc/diskstats sector counts to bytes.
const sectorSize = 512

// Rate is one derived metric that may be unavailable for a tick (first
// sample, counter reset, or zero jiffy delta).
type Rate struct {
	Value float64
	Valid bool
}

// rate returns a valid Rate.
func rate(v float64) Rate {
	return Rate{Value: v, Valid: true}
}

// Delta holds the rate metrics derived from two successive samples of the
// same host.
type Delta struct {
	// CPUPct and IOWaitPct are percentages of total jiffies, clamped to
	// [0, 100].
	CPUPct    Rate
	IOWaitPct Rate

	// Byte rates are bytes per second.
	NetRxBps     Rate
	NetTxBps     Rate
	DiskReadBps  Rate
	DiskWriteBps Rate

	// Elapsed is the wall-clock spacing the rates were computed over.
	Elapsed time.Duration
}

// ComputeDelta derives rates from prev to curr. If the samples are spaced
// closer than half a second, prior (the previous delta, possibly nil) is
// returned unchanged. A counter that went backwards marks only its own rate
// unavailable; the other rates are unaffected.
func ComputeDelta(prev, curr *Sample, prior *Delta) *Delta {
	if prev == nil || curr == nil {
		return prior
	}

	elapsed := curr.TakenAt.Sub(prev.TakenAt)
	if elapsed < minElapsed {
		return prior
	}

	d := &Delta{Elapsed: elapsed}
	secs := elapsed.Seconds()

	prevTotal, currTotal := prev.CPU.Total(), curr.CPU.Total()
	if currTotal > prevTotal && curr.CPU.Idle >= prev.CPU.Idle && curr.CPU.IOWait >= prev.CPU.IOWait {
		totalDelta := float64(currTotal - prevTotal)
		idleDelta := float64(curr.CPU.Idle - prev.CPU.Idle)
		iowaitDelta := float64(curr.CPU.IOWait - prev.CPU.IOWait)

		d.CPUPct = rate(clampPct((totalDelta - idleDelta) / totalDelta * 100))
		d.IOWaitPct = rate(clampPct(iowaitDelta / totalDelta * 100))
	}

	d.NetRxBps = counterRate(prev.RxBytes, curr.RxBytes, 1, secs)
	d.NetTxBps = counterRate(prev.TxBytes, curr.TxBytes, 1, secs)
	d.DiskReadBps = counterRate(prev.ReadSectors, curr.ReadSectors, sectorSize, secs)
	d.DiskWriteBps = counterRate(prev.WriteSectors, curr.WriteSectors, sectorSize, secs)

	return d
}

// counterRate converts a monotonic counter delta to a per-second rate. A
// backwards counter (wrap or reboot) yields an unavailable rate, never a
// negative one.
func counterRate(prev, curr, unit uint64, secs float64) Rate {
	if curr < prev || secs <= 0 {
		return Rate{}
	}
	return rate(float64(curr-prev) * float64(unit) / secs)
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
