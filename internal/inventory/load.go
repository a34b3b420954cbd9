package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rileyhilliard/ansimon/internal/errors"
)

// Load reads and parses an inventory file, auto-detecting INI vs YAML.
//
// Detection: extension .yml/.yaml forces YAML and .ini/.cfg forces INI;
// anything else is sniffed from the content (a document starting with "---"
// or "all:", or whose first meaningful line is a bare "key:" mapping, is
// YAML).
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrInventory,
			fmt.Sprintf("Cannot read inventory %s", path),
			"Check that the file exists and is readable.")
	}

	content := string(data)
	if isYAML(path, content) {
		return ParseYAML(content)
	}
	return ParseINI(content)
}

func isYAML(path, content string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	case ".ini", ".cfg":
		return false
	}

	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "---") || strings.HasPrefix(trimmed, "all:") {
		return true
	}

	// Sniff the first non-comment, non-blank line: a bare "key:" with
	// nothing but a mapping after it reads as YAML; INI host and section
	// lines never end in a colon.
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			return false
		}
		if strings.HasSuffix(line, ":") && !strings.ContainsAny(line, " \t=") {
			return true
		}
		return false
	}

	return false
}

// Serialize renders the inventory back to canonical INI. Hosts outside any
// explicit group come first, then, for each group in name order, its host
// lines, :children, and :vars sections. Every host is listed in "all", so
// only hosts placed there directly get a line under [all]. The vars and
// children of "ungrouped" are not emitted; apart from those, re-parsing the
// output yields the same host set and effective variables (comments and
// ordering inside maps are not preserved).
func Serialize(inv *Inventory) string {
	var b strings.Builder

	groupNames := make([]string, 0, len(inv.Groups))
	for name := range inv.Groups {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	// "ungrouped" hosts are emitted without a section header.
	writeHostLines(&b, inv, inv.Groups["ungrouped"])

	for _, name := range groupNames {
		if name == "ungrouped" {
			continue
		}
		g := inv.Groups[name]
		if name == "all" {
			// Every host is listed in "all"; only direct members get a line.
			g = &Group{Children: g.Children, Vars: g.Vars}
			for _, h := range inv.Groups["all"].Hosts {
				if inv.Hosts[h].InGroup("all") {
					g.Hosts = append(g.Hosts, h)
				}
			}
		}
		if len(g.Hosts) > 0 {
			fmt.Fprintf(&b, "[%s]\n", name)
			writeHostLines(&b, inv, g)
			b.WriteString("\n")
		}
		if len(g.Children) > 0 {
			fmt.Fprintf(&b, "[%s:children]\n", name)
			for _, child := range g.Children {
				b.WriteString(child + "\n")
			}
			b.WriteString("\n")
		}
		if len(g.Vars) > 0 {
			fmt.Fprintf(&b, "[%s:vars]\n", name)
			keys := make([]string, 0, len(g.Vars))
			for k := range g.Vars {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, "%s=%s\n", k, g.Vars[k])
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func writeHostLines(b *strings.Builder, inv *Inventory, g *Group) {
	if g == nil {
		return
	}
	for _, name := range g.Hosts {
		h := inv.Hosts[name]
		b.WriteString(name)
		// Only host-level vars belong on the host line; group vars are
		// reproduced by their own sections.
		for _, kv := range h.hostLevelPairs() {
			fmt.Fprintf(b, " %s=%s", kv[0], kv[1])
		}
		b.WriteString("\n")
	}
}

// hostLevelPairs returns the host-level vars as sorted key/value pairs,
// including the recognized connection keys.
func (h *Host) hostLevelPairs() [][2]string {
	keys := make([]string, 0, len(h.hostLevel))
	for k := range h.hostLevel {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([][2]string, 0, len(keys))
	for _, k := range keys {
		var v string
		switch k {
		case keyHost:
			v = h.Address
		case keyPort:
			v = fmt.Sprintf("%d", h.Port)
		case keyUser, keyUserAlt:
			v = h.User
		case keyKeyFile:
			v = h.KeyPath
		default:
			v = h.Vars[k]
		}
		pairs = append(pairs, [2]string{k, v})
	}
	return pairs
}
