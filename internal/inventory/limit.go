package inventory

import (
	"path"
	"strings"
)

// ApplyLimit evaluates an Ansible-style --limit expression against the
// inventory and returns the selected host names in inventory order.
//
// The expression is a comma- or colon-separated list of terms. Each term is
// an inclusion by default; a leading "!" or "~" makes it an exclusion and a
// leading "&" an intersection. A term matches a host when it equals a group
// name the host belongs to, equals the host name, or is a glob ("*", "?",
// character classes) matching the host name or any of its group names.
//
// An empty expression selects all hosts. Exclusions always override
// inclusions; intersections are applied last.
func ApplyLimit(inv *Inventory, limit string) []string {
	limit = strings.TrimSpace(limit)
	if limit == "" {
		return append([]string(nil), inv.Order...)
	}

	included := make(map[string]bool)
	excluded := make(map[string]bool)
	var intersections []map[string]bool
	sawInclusion := false

	for _, term := range splitTerms(limit) {
		switch {
		case strings.HasPrefix(term, "!") || strings.HasPrefix(term, "~"):
			for _, h := range resolveTerm(inv, term[1:]) {
				excluded[h] = true
			}
		case strings.HasPrefix(term, "&"):
			set := make(map[string]bool)
			for _, h := range resolveTerm(inv, term[1:]) {
				set[h] = true
			}
			intersections = append(intersections, set)
		default:
			sawInclusion = true
			for _, h := range resolveTerm(inv, term) {
				included[h] = true
			}
		}
	}

	// "!db" alone means "everything except db".
	if !sawInclusion {
		for _, name := range inv.Order {
			included[name] = true
		}
	}

	var result []string
	for _, name := range inv.Order {
		if !included[name] || excluded[name] {
			continue
		}
		keep := true
		for _, set := range intersections {
			if !set[name] {
				keep = false
				break
			}
		}
		if keep {
			result = append(result, name)
		}
	}

	return result
}

// splitTerms splits on commas and colons, dropping empty terms. Colons are
// Ansible's alternate separator; character classes like [a:b] do not occur
// in practice within host patterns that also use colon separation.
func splitTerms(limit string) []string {
	var terms []string
	for _, t := range strings.FieldsFunc(limit, func(r rune) bool {
		return r == ',' || r == ':'
	}) {
		t = strings.TrimSpace(t)
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// resolveTerm expands one pattern into matching host names, in inventory
// order. Group names are checked before host names so a group and host
// sharing a name resolve to the group's membership.
func resolveTerm(inv *Inventory, pattern string) []string {
	if _, ok := inv.Groups[pattern]; ok {
		return orderedSubset(inv, inv.HostsInGroup(pattern))
	}

	if _, ok := inv.Hosts[pattern]; ok {
		return []string{pattern}
	}

	if !isGlob(pattern) {
		return nil
	}

	var matches []string
	for _, name := range inv.Order {
		if globMatch(pattern, name) {
			matches = append(matches, name)
			continue
		}
		for _, g := range inv.Hosts[name].Groups {
			if globMatch(pattern, g) {
				matches = append(matches, name)
				break
			}
		}
	}
	return matches
}

// orderedSubset re-sorts a host name set into inventory order.
func orderedSubset(inv *Inventory, names []string) []string {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	var result []string
	for _, name := range inv.Order {
		if set[name] {
			result = append(result, name)
		}
	}
	return result
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// globMatch wraps path.Match, treating a malformed pattern as no match.
func globMatch(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}
