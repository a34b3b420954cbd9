package inventory

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/ansimon/internal/errors"
)

// ParseYAML parses YAML-format inventory text.
//
// The tree is rooted at "all" (or each top-level key is treated as a group),
// with "hosts:", "children:", and "vars:" mappings at any level. Mapping
// order in the document is preserved, so group membership order is
// first-seen during a depth-first walk. Children are processed before hosts
// and vars last, so vars reach every descendant host discovered under the
// group; host-level vars always win.
func ParseYAML(content string) (*Inventory, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrInventory,
			"Inventory is not valid YAML",
			"Check the inventory syntax against the Ansible YAML format.")
	}

	inv := NewInventory()

	if root.Kind == 0 || len(root.Content) == 0 {
		return inv, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, malformed(doc.Line, "top level of a YAML inventory must be a mapping")
	}

	if all := mappingValue(doc, "all"); all != nil {
		if err := parseGroupNode(inv, "all", all); err != nil {
			return nil, err
		}
		return inv, nil
	}

	// No "all" root: each top-level key is a group.
	for i := 0; i+1 < len(doc.Content); i += 2 {
		name := doc.Content[i].Value
		inv.group(name)
		if err := parseGroupNode(inv, name, doc.Content[i+1]); err != nil {
			return nil, err
		}
	}

	return inv, nil
}

// parseGroupNode handles one group mapping: children first so descendant
// hosts exist, then direct hosts, then vars.
func parseGroupNode(inv *Inventory, groupName string, node *yaml.Node) error {
	if node == nil || node.Kind != yaml.MappingNode {
		// A group with no body ("web:") parses as a null node.
		if node != nil && node.Tag != "!!null" {
			return malformed(node.Line, fmt.Sprintf("group %q must be a mapping", groupName))
		}
		return nil
	}

	if children := mappingValue(node, "children"); children != nil {
		if children.Kind != yaml.MappingNode && children.Tag != "!!null" {
			return malformed(children.Line, fmt.Sprintf("children of %q must be a mapping", groupName))
		}
		for i := 0; i+1 < len(children.Content); i += 2 {
			childName := children.Content[i].Value
			inv.group(childName)
			inv.group(groupName).addChild(childName)
			if err := parseGroupNode(inv, childName, children.Content[i+1]); err != nil {
				return err
			}
		}
	}

	if hosts := mappingValue(node, "hosts"); hosts != nil {
		if hosts.Kind != yaml.MappingNode && hosts.Tag != "!!null" {
			return malformed(hosts.Line, fmt.Sprintf("hosts of %q must be a mapping", groupName))
		}
		for i := 0; i+1 < len(hosts.Content); i += 2 {
			hostName := hosts.Content[i].Value
			hostVars := hosts.Content[i+1]

			h := inv.host(hostName)
			if hostVars.Kind == yaml.MappingNode {
				for j := 0; j+1 < len(hostVars.Content); j += 2 {
					h.ApplyHostVar(hostVars.Content[j].Value, scalarString(hostVars.Content[j+1]))
				}
			}
			inv.addHostToGroup(hostName, groupName)
		}
	}

	if vars := mappingValue(node, "vars"); vars != nil && vars.Kind == yaml.MappingNode {
		members := inv.hostsInGroupDepth(groupName)
		g := inv.group(groupName)
		for i := 0; i+1 < len(vars.Content); i += 2 {
			key := vars.Content[i].Value
			value := scalarString(vars.Content[i+1])
			g.Vars[key] = value
			// Nearer scope wins: a var from this group reaches descendant
			// hosts at their child-hop distance, so a child group's own
			// vars take precedence over this one's. "all" is always the
			// outermost scope regardless of its member list.
			for _, m := range members {
				dist := m.dist
				if groupName == "all" {
					dist = allScopeDist
				}
				inv.Hosts[m.name].ApplyGroupVarAt(key, value, dist)
			}
		}
	}

	return nil
}

// mappingValue returns the value node for a string key of a mapping node,
// or nil if absent.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// scalarString renders a scalar value node as a string. Numbers and bools
// keep their literal text.
func scalarString(node *yaml.Node) string {
	if node == nil {
		return ""
	}
	if node.Kind == yaml.ScalarNode {
		return node.Value
	}
	// Non-scalar var values are preserved verbatim but unused.
	out, err := yaml.Marshal(node)
	if err != nil {
		return ""
	}
	return string(out)
}
