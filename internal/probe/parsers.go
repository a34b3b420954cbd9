package probe

import (
	"bufio"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// virtualInterfacePrefixes are interface name prefixes excluded from the
// network totals: container bridges, overlay meshes, and VPN endpoints
// would otherwise double-count physical traffic.
var virtualInterfacePrefixes = []string{
	"docker", "veth", "br-", "cni", "flannel", "tailscale", "wg",
}

// virtualDevicePrefixes are block device name prefixes excluded from disk
// totals.
var virtualDevicePrefixes = []string{"loop", "ram", "dm-", "sr"}

// ParseSample converts the raw output of Command() into a typed Sample.
// Every section named by the command must be present; a missing section
// fails the whole tick with a parse error, as does unusable stat, meminfo,
// loadavg, uptime, df, or nproc content. The netdev, sockstat, and
// diskstats parsers skip lines they cannot read and never fail.
func ParseSample(output string, takenAt time.Time) (*Sample, error) {
	sections := SplitSections(output)

	for _, name := range sectionOrder {
		if _, ok := sections[name]; !ok {
			return nil, parseError(name, "section missing from probe output")
		}
	}

	s := &Sample{TakenAt: takenAt}

	if err := parseStat(sections[SectionStat], s); err != nil {
		return nil, err
	}
	if err := parseMeminfo(sections[SectionMeminfo], s); err != nil {
		return nil, err
	}
	if err := parseLoadavg(sections[SectionLoadavg], s); err != nil {
		return nil, err
	}
	if err := parseUptime(sections[SectionUptime], s); err != nil {
		return nil, err
	}
	parseNetDev(sections[SectionNetdev], s)
	parseSockstat(sections[SectionSockstat], s)
	parseDiskstats(sections[SectionDiskstats], s)
	if err := parseDF(sections[SectionDF], s); err != nil {
		return nil, err
	}
	if err := parseNproc(sections[SectionNproc], s); err != nil {
		return nil, err
	}

	return s, nil
}

// parseStat reads the aggregate "cpu " row (not the per-core rows) of
// /proc/stat into jiffy buckets.
func parseStat(content string, s *Sample) error {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return parseError(SectionStat, "cpu line has %d fields", len(fields))
		}
		vals := make([]uint64, 0, 8)
		for _, f := range fields[1:] {
			vals = append(vals, satParseUint(f))
			if len(vals) == 8 {
				break
			}
		}
		// Older kernels omit trailing buckets; absent ones stay zero.
		for len(vals) < 8 {
			vals = append(vals, 0)
		}
		s.CPU = CPUJiffies{
			User: vals[0], Nice: vals[1], System: vals[2], Idle: vals[3],
			IOWait: vals[4], IRQ: vals[5], SoftIRQ: vals[6], Steal: vals[7],
		}
		return nil
	}
	return parseError(SectionStat, "no aggregate cpu line")
}

// parseMeminfo reads the memory and swap keys of /proc/meminfo (values in
// kB). Unknown keys are skipped.
func parseMeminfo(content string, s *Sample) error {
	found := false
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		val := satParseUint(fields[1])
		switch strings.TrimSuffix(fields[0], ":") {
		case "MemTotal":
			s.MemTotalKB = val
			found = true
		case "MemAvailable":
			s.MemAvailKB = val
		case "MemFree":
			s.MemFreeKB = val
		case "Buffers":
			s.BuffersKB = val
		case "Cached":
			s.CachedKB = val
		case "SwapTotal":
			s.SwapTotalKB = val
		case "SwapFree":
			s.SwapFreeKB = val
		}
	}
	if !found {
		return parseError(SectionMeminfo, "MemTotal not found")
	}
	// Pre-3.14 kernels have no MemAvailable; approximate it.
	if s.MemAvailKB == 0 {
		s.MemAvailKB = satAdd(satAdd(s.MemFreeKB, s.BuffersKB), s.CachedKB)
	}
	return nil
}

// parseLoadavg reads "0.50 0.30 0.20 3/120 12345": three load averages and
// the running/total process counts.
func parseLoadavg(content string, s *Sample) error {
	fields := strings.Fields(firstLine(content))
	if len(fields) < 3 {
		return parseError(SectionLoadavg, "expected at least 3 fields, got %d", len(fields))
	}

	var err error
	if s.Load1, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return parseError(SectionLoadavg, "bad load1 %q", fields[0])
	}
	if s.Load5, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return parseError(SectionLoadavg, "bad load5 %q", fields[1])
	}
	if s.Load15, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return parseError(SectionLoadavg, "bad load15 %q", fields[2])
	}

	if len(fields) >= 4 {
		if running, total, ok := strings.Cut(fields[3], "/"); ok {
			s.ProcsRunning, _ = strconv.Atoi(running)
			s.ProcsTotal, _ = strconv.Atoi(total)
		}
	}
	return nil
}

func parseUptime(content string, s *Sample) error {
	fields := strings.Fields(firstLine(content))
	if len(fields) == 0 {
		return parseError(SectionUptime, "empty")
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return parseError(SectionUptime, "bad seconds %q", fields[0])
	}
	s.UptimeSeconds = secs
	return nil
}

// parseNetDev sums RX bytes (column 1) and TX bytes (column 9) across all
// interfaces except loopback and virtual interfaces. Header lines and
// anything unparseable are skipped.
func parseNetDev(content string, s *Sample) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" || strings.Contains(name, "|") || skipInterface(name) {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) < 9 {
			continue
		}
		s.RxBytes = satAdd(s.RxBytes, satParseUint(fields[0]))
		s.TxBytes = satAdd(s.TxBytes, satParseUint(fields[8]))
	}
}

func skipInterface(name string) bool {
	if name == "lo" {
		return true
	}
	for _, prefix := range virtualInterfacePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// parseSockstat reads the in-use TCP socket count from the
// "TCP: inuse N ..." line.
func parseSockstat(content string, s *Sample) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 3 && fields[0] == "TCP:" && fields[1] == "inuse" {
			s.TCPInUse, _ = strconv.Atoi(fields[2])
			return
		}
	}
}

// parseDiskstats sums sectors read (field 5) and written (field 9) across
// physical block devices. Virtual devices are skipped, and partitions are
// skipped when their parent whole-device row is present so totals are not
// double-counted.
func parseDiskstats(content string, s *Sample) {
	type devRow struct {
		name   string
		reads  uint64
		writes uint64
	}

	var rows []devRow
	names := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 14 {
			continue
		}
		name := fields[2]
		if skipDevice(name) {
			continue
		}
		rows = append(rows, devRow{
			name:   name,
			reads:  satParseUint(fields[5]),
			writes: satParseUint(fields[9]),
		})
		names[name] = true
	}

	for _, row := range rows {
		if parent, ok := partitionParent(row.name); ok && names[parent] {
			continue
		}
		s.ReadSectors = satAdd(s.ReadSectors, row.reads)
		s.WriteSectors = satAdd(s.WriteSectors, row.writes)
	}
}

func skipDevice(name string) bool {
	for _, prefix := range virtualDevicePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// partitionParent returns the whole-device name for a partition name:
// "sda1" → "sda", "nvme0n1p2" → "nvme0n1". Names without a trailing
// partition digit return ok=false.
func partitionParent(name string) (string, bool) {
	if name == "" || !isDigit(name[len(name)-1]) {
		return "", false
	}

	// Strip the trailing digit run.
	i := len(name)
	for i > 0 && isDigit(name[i-1]) {
		i--
	}
	stem := name[:i]

	// nvme0n1p2 / mmcblk0p1: the partition digits follow a 'p' that itself
	// follows a digit; the parent is the name before the 'p'.
	if strings.HasSuffix(stem, "p") && len(stem) >= 2 && isDigit(stem[len(stem)-2]) {
		return stem[:len(stem)-1], true
	}

	// sda1 / vdb2: parent is the alphabetic stem. Whole disks whose names
	// end in a digit get a stem too ("nvme0n1" → "nvme0n"); no device by
	// that name exists, so the caller still counts them as whole disks.
	if stem != "" && !isDigit(stem[len(stem)-1]) {
		return stem, true
	}
	return "", false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// parseDF reads "df -P /" output: the data line's column 2 is total and
// column 3 used, both in 1K blocks.
func parseDF(content string, s *Sample) error {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// Data lines carry a percentage in the capacity column; the
		// header does not.
		if len(fields) < 6 || !strings.HasSuffix(fields[4], "%") {
			continue
		}
		s.DiskTotalKB = satParseUint(fields[1])
		s.DiskUsedKB = satParseUint(fields[2])
		if s.DiskTotalKB > 0 {
			s.DiskUsedPct = float64(s.DiskUsedKB) / float64(s.DiskTotalKB) * 100
		}
		return nil
	}
	return parseError(SectionDF, "no data line")
}

func parseNproc(content string, s *Sample) error {
	n, err := strconv.Atoi(strings.TrimSpace(firstLine(content)))
	if err != nil {
		return parseError(SectionNproc, "bad count %q", strings.TrimSpace(firstLine(content)))
	}
	if n <= 0 {
		return parseError(SectionNproc, "cpu count %d", n)
	}
	s.CPUCount = n
	return nil
}

func firstLine(content string) string {
	line, _, _ := strings.Cut(content, "\n")
	return line
}

// satParseUint parses a decimal counter, saturating to the maximum 64-bit
// value on overflow and to zero on garbage.
func satParseUint(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return math.MaxUint64
		}
		return 0
	}
	return v
}
