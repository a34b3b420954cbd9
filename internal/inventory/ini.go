package inventory

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/ansimon/internal/errors"
)

// iniSection tracks which kind of [section] the parser is inside.
type iniSection struct {
	kind  string // "", "group", "vars", "children"
	group string
}

// ParseINI parses INI-format inventory text.
//
// Lines are one of: comment (# or ;), blank, section header [name],
// [name:vars], [name:children], host line, or key=value inside a :vars
// section. Host lines are a hostname followed by whitespace-separated
// key=value pairs.
func ParseINI(content string) (*Inventory, error) {
	inv := NewInventory()
	section := iniSection{}

	for lineNum, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, malformed(lineNum+1, fmt.Sprintf("unterminated section header: %s", line))
			}
			section = parseSectionHeader(line[1 : len(line)-1])
			// Ensure the group exists even if the section is empty.
			inv.group(section.group)
			continue
		}

		switch section.kind {
		case "", "group":
			groupName := section.group
			if groupName == "" {
				groupName = "ungrouped"
			}
			hostName, vars, err := parseHostLine(line)
			if err != nil {
				return nil, malformed(lineNum+1, err.Error())
			}
			h := inv.host(hostName)
			for _, kv := range vars {
				h.ApplyHostVar(kv[0], kv[1])
			}
			inv.addHostToGroup(hostName, groupName)

		case "vars":
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				return nil, malformed(lineNum+1, fmt.Sprintf("expected key=value in [%s:vars]: %s", section.group, line))
			}
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			inv.group(section.group).Vars[key] = value

		case "children":
			childName := line
			inv.group(section.group).addChild(childName)
			inv.group(childName)
		}
	}

	// Sections may appear in any order (a [g:vars] block can precede the
	// host lines or children it governs), so group vars are applied in one
	// pass at the end. Host-level keys always win; among groups the one
	// nearest the host wins.
	applyGroupVarsTransitive(inv)

	return inv, nil
}

// applyGroupVarsTransitive pushes every group's vars to all its transitive
// member hosts, tagged with the group-to-host distance so nearer scopes win.
func applyGroupVarsTransitive(inv *Inventory) {
	for _, name := range inv.GroupOrder {
		g := inv.Groups[name]
		if len(g.Vars) == 0 {
			continue
		}
		for _, m := range inv.hostsInGroupDepth(name) {
			dist := m.dist
			if name == "all" {
				dist = allScopeDist
			}
			h := inv.Hosts[m.name]
			for k, v := range g.Vars {
				h.ApplyGroupVarAt(k, v, dist)
			}
		}
	}
}

func parseSectionHeader(header string) iniSection {
	if name, ok := strings.CutSuffix(header, ":vars"); ok {
		return iniSection{kind: "vars", group: name}
	}
	if name, ok := strings.CutSuffix(header, ":children"); ok {
		return iniSection{kind: "children", group: name}
	}
	return iniSection{kind: "group", group: header}
}

// parseHostLine splits "hostname key=value key=value" into its parts.
// Returned vars preserve source order.
func parseHostLine(line string) (string, [][2]string, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", nil, fmt.Errorf("empty host line")
	}

	hostName := parts[0]
	if strings.Contains(hostName, "=") {
		return "", nil, fmt.Errorf("host line must start with a hostname: %s", line)
	}

	var vars [][2]string
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return "", nil, fmt.Errorf("expected key=value, got %q", part)
		}
		vars = append(vars, [2]string{key, value})
	}

	return hostName, vars, nil
}

func malformed(line int, reason string) error {
	return errors.New(errors.ErrInventory,
		fmt.Sprintf("Inventory malformed at line %d: %s", line, reason),
		"Check the inventory syntax against the Ansible INI format.")
}
