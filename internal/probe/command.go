package probe

import "strings"

// Section names in the fixed order they appear in the remote command's
// output. Parser stability depends on this order never changing.
const (
	SectionStat      = "stat"
	SectionMeminfo   = "meminfo"
	SectionLoadavg   = "loadavg"
	SectionUptime    = "uptime"
	SectionNetdev    = "netdev"
	SectionSockstat  = "sockstat"
	SectionDiskstats = "diskstats"
	SectionDF        = "df"
	SectionNproc     = "nproc"
)

// sectionOrder is the emission order of the remote command.
var sectionOrder = []string{
	SectionStat,
	SectionMeminfo,
	SectionLoadavg,
	SectionUptime,
	SectionNetdev,
	SectionSockstat,
	SectionDiskstats,
	SectionDF,
	SectionNproc,
}

// sectionSources maps each section to the shell snippet that produces it.
// Everything is an unprivileged read. Remote stderr travels on ssh's own
// stderr, never in stdout, so a missing utility leaves its section empty
// (which fails that section's parse) rather than garbling a neighbor.
var sectionSources = map[string]string{
	SectionStat:      "cat /proc/stat",
	SectionMeminfo:   "cat /proc/meminfo",
	SectionLoadavg:   "cat /proc/loadavg",
	SectionUptime:    "cat /proc/uptime",
	SectionNetdev:    "cat /proc/net/dev",
	SectionSockstat:  "cat /proc/net/sockstat",
	SectionDiskstats: "cat /proc/diskstats",
	SectionDF:        "df -P /",
	SectionNproc:     "nproc",
}

// markerPrefix frames each section. The token is improbable enough that it
// never collides with /proc contents.
const markerPrefix = "@@ANSIMON@@"

func sectionMarker(name string) string {
	return markerPrefix + name + "@@"
}

// Command returns the single shell one-liner a probe runs over SSH. One
// round trip yields every section, each preceded by its marker line.
func Command() string {
	var b strings.Builder
	for i, name := range sectionOrder {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString("echo '" + sectionMarker(name) + "'; ")
		b.WriteString(sectionSources[name])
	}
	return b.String()
}

// SplitSections splits raw command output into a map of section name to
// verbatim content. Unknown markers are ignored; text before the first
// marker (login banners, motd fragments) is discarded.
func SplitSections(output string) map[string]string {
	sections := make(map[string]string)
	current := ""
	var buf strings.Builder

	flush := func() {
		if current != "" {
			sections[current] = strings.TrimRight(buf.String(), "\n")
		}
		buf.Reset()
	}

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, markerPrefix) && strings.HasSuffix(trimmed, "@@") {
			flush()
			current = strings.TrimSuffix(strings.TrimPrefix(trimmed, markerPrefix), "@@")
			continue
		}
		if current != "" {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}
	flush()

	return sections
}
