package monitor

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/ansimon/internal/probe"
)

// Placeholder strings for rate columns.
const (
	// pendingRate shows until the second sample exists.
	pendingRate = "..."
	// unavailable shows for suppressed metrics (counter reset, no swap).
	unavailable = "N/A"
)

// humanBytes formats a byte count compactly: "500B", "1.2K", "3.4M", "1.0G".
func humanBytes(n float64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fG", n/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fM", n/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fK", n/(1<<10))
	default:
		return fmt.Sprintf("%.0fB", n)
	}
}

// formatRate renders a bytes/sec rate, or a placeholder when the rate is
// unavailable this tick.
func formatRate(r probe.Rate, havePrev bool) string {
	if !havePrev {
		return pendingRate
	}
	if !r.Valid {
		return unavailable
	}
	return humanBytes(r.Value) + "/s"
}

// formatPct renders a percentage rate, or a placeholder.
func formatPct(r probe.Rate, havePrev bool) string {
	if !havePrev {
		return pendingRate
	}
	if !r.Valid {
		return unavailable
	}
	return fmt.Sprintf("%.0f%%", r.Value)
}

// formatGB renders a kB count in gigabytes with one decimal.
func formatGB(kb uint64) string {
	return fmt.Sprintf("%.1fG", float64(kb)/(1<<20))
}

// formatMemPair renders "used/totalG".
func formatMemPair(usedKB, totalKB uint64) string {
	return fmt.Sprintf("%.1f/%.0fG", float64(usedKB)/(1<<20), float64(totalKB)/(1<<20))
}

// formatUptime renders seconds as "12d 3h", "3h 4m", or "5m".
func formatUptime(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}

// formatAgo renders how long ago a timestamp was, or "never".
func formatAgo(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	s := int(now.Sub(t).Seconds())
	if s < 1 {
		return "just now"
	}
	if s < 60 {
		return fmt.Sprintf("%ds ago", s)
	}
	return fmt.Sprintf("%dm ago", s/60)
}
