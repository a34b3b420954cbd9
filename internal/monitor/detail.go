package monitor

import (
	"fmt"
	"strings"
	"time"
)

// renderDetail renders the detail panel for the selected host inside the
// scrollable viewport.
func (m Model) renderDetail() string {
	if !m.viewportReady {
		return m.detailContent()
	}
	return m.detailViewport.View()
}

// detailContent builds the full detail text for the selected host.
func (m Model) detailContent() string {
	rec, ok := m.selectedRecord()
	if !ok {
		return MutedStyle.Render("no host selected")
	}

	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(fmt.Sprintf("  %-14s %s\n", label, value))
	}

	title := TitleStyle.Render(rec.Host.Name)
	b.WriteString(title + " " + statusStyle(rec.Status).Render(rec.Status.Glyph()) + "\n\n")

	line("Address", fmt.Sprintf("%s:%d", rec.Host.EffectiveAddress(), rec.Host.EffectivePort()))
	if rec.Host.User != "" {
		line("User", rec.Host.User)
	}
	line("Groups", strings.Join(rec.Host.Groups, ", "))
	line("Last attempt", formatAgo(rec.LastAttemptAt, time.Now()))
	line("Last success", formatAgo(rec.LastOKAt, time.Now()))
	if rec.LastError != "" {
		line("Error", ErrorTextStyle.Render(rec.LastError))
	}

	s := rec.LastSample
	if s == nil {
		b.WriteString("\n" + MutedStyle.Render("  no sample yet") + "\n")
		return b.String()
	}

	havePrev := rec.PrevSample != nil
	d := rec.LastDelta

	b.WriteString("\n")
	line("Load avg", fmt.Sprintf("%.2f %.2f %.2f", s.Load1, s.Load5, s.Load15))
	line("Processes", fmt.Sprintf("%d running / %d total", s.ProcsRunning, s.ProcsTotal))
	line("Uptime", formatUptime(s.UptimeSeconds))
	line("CPU count", fmt.Sprintf("%d", s.CPUCount))
	line("Memory", formatMemPair(s.MemUsedKB(), s.MemTotalKB))
	if s.HasSwap() {
		line("Swap", formatMemPair(s.SwapUsedKB(), s.SwapTotalKB))
	} else {
		line("Swap", unavailable)
	}
	line("Disk used", fmt.Sprintf("%.0f%% (%s of %s)", s.DiskUsedPct, formatGB(s.DiskUsedKB), formatGB(s.DiskTotalKB)))

	b.WriteString("\n")
	if d != nil {
		line("CPU", formatPct(d.CPUPct, havePrev))
		line("IO wait", formatPct(d.IOWaitPct, havePrev))
		line("Net RX", formatRate(d.NetRxBps, havePrev))
		line("Net TX", formatRate(d.NetTxBps, havePrev))
		line("Disk read", formatRate(d.DiskReadBps, havePrev))
		line("Disk write", formatRate(d.DiskWriteBps, havePrev))
	} else {
		line("Rates", pendingRate+" (first sample)")
	}

	b.WriteString("\n")
	line("TCP conns", fmt.Sprintf("%d", s.TCPInUse))
	line("SSH latency", fmt.Sprintf("%dms", s.SSHLatencyMS))

	b.WriteString("\n" + MutedStyle.Render("  esc to close · ctrl+d/ctrl+u to scroll") + "\n")
	return b.String()
}
