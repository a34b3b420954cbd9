// Package inventory parses Ansible-style inventories (INI and YAML) into a
// normalized host list and evaluates --limit expressions against it.
package inventory

// Recognized connection variable keys. Anything else is preserved in
// Host.Vars but otherwise unused.
const (
	keyHost    = "ansible_host"
	keyPort    = "ansible_port"
	keyUser    = "ansible_user"
	keyUserAlt = "ansible_ssh_user"
	keyKeyFile = "ansible_ssh_private_key_file"
)

// Host is one inventory host with its connection metadata.
type Host struct {
	// Name is the inventory name, unique within an Inventory.
	Name string

	// Address is the connect address (ansible_host), empty if unset.
	Address string

	// Port is the SSH port (ansible_port), 0 if unset.
	Port int

	// User is the SSH user (ansible_user), empty if unset.
	User string

	// KeyPath is the private key path (ansible_ssh_private_key_file).
	KeyPath string

	// Groups lists group memberships in first-seen order. The display
	// group is Groups[0].
	Groups []string

	// Vars holds unrecognized key=value pairs.
	Vars map[string]string

	// hostLevel records keys set directly on the host definition. Group
	// vars never overwrite these.
	hostLevel map[string]bool

	// groupDist records, per key set from a group var, how far that group
	// was from the host (0 = direct membership). Nearer scope wins; equal
	// distance is last-writer-wins.
	groupDist map[string]int
}

// NewHost creates a host with the given inventory name.
func NewHost(name string) *Host {
	return &Host{
		Name:      name,
		Vars:      make(map[string]string),
		hostLevel: make(map[string]bool),
		groupDist: make(map[string]int),
	}
}

// EffectiveAddress returns the connect address: ansible_host if set,
// otherwise the inventory name.
func (h *Host) EffectiveAddress() string {
	if h.Address != "" {
		return h.Address
	}
	return h.Name
}

// EffectivePort returns the SSH port, defaulting to 22.
func (h *Host) EffectivePort() int {
	if h.Port > 0 {
		return h.Port
	}
	return 22
}

// DisplayGroup returns the first group the host was seen in, or "".
func (h *Host) DisplayGroup() string {
	if len(h.Groups) > 0 {
		return h.Groups[0]
	}
	return ""
}

// InGroup reports whether the host is a direct member of the named group.
func (h *Host) InGroup(name string) bool {
	for _, g := range h.Groups {
		if g == name {
			return true
		}
	}
	return false
}

func (h *Host) addGroup(name string) {
	if !h.InGroup(name) {
		h.Groups = append(h.Groups, name)
	}
}

func (h *Host) setVar(key, value string) {
	switch key {
	case keyHost:
		h.Address = value
	case keyPort:
		if p, ok := parsePort(value); ok {
			h.Port = p
		}
	case keyUser, keyUserAlt:
		h.User = value
	case keyKeyFile:
		h.KeyPath = value
	default:
		h.Vars[key] = value
	}
}

// ApplyHostVar applies a var from a host definition. Records it so group
// vars can't overwrite it later.
func (h *Host) ApplyHostVar(key, value string) {
	h.setVar(key, value)
	h.hostLevel[key] = true
}

// ApplyGroupVar applies a var inherited from a group the host is a direct
// member of. Skips keys that were set at host level.
func (h *Host) ApplyGroupVar(key, value string) {
	h.ApplyGroupVarAt(key, value, 0)
}

// ApplyGroupVarAt applies a group var with the distance between group and
// host (0 = direct member, 1 = via one child hop, ...). Host-level keys are
// never touched; among group scopes the nearest wins, and equal distance is
// last-writer-wins.
func (h *Host) ApplyGroupVarAt(key, value string, dist int) {
	if h.hostLevel[key] {
		return
	}
	if prev, ok := h.groupDist[key]; ok && prev < dist {
		return
	}
	h.setVar(key, value)
	h.groupDist[key] = dist
}

func parsePort(s string) (int, bool) {
	p := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		p = p*10 + int(c-'0')
		if p > 65535 {
			return 0, false
		}
	}
	if len(s) == 0 {
		return 0, false
	}
	return p, true
}

// Group is a named set of hosts, possibly with child groups.
type Group struct {
	Name     string
	Hosts    []string
	Children []string
	Vars     map[string]string
}

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	return &Group{
		Name: name,
		Vars: make(map[string]string),
	}
}

func (g *Group) addHost(name string) {
	for _, h := range g.Hosts {
		if h == name {
			return
		}
	}
	g.Hosts = append(g.Hosts, name)
}

func (g *Group) addChild(name string) {
	for _, c := range g.Children {
		if c == name {
			return
		}
	}
	g.Children = append(g.Children, name)
}

// Inventory is the parsed host and group structure. Immutable after load.
type Inventory struct {
	// Hosts by name.
	Hosts map[string]*Host

	// Groups by name. "all" and "ungrouped" always exist.
	Groups map[string]*Group

	// Order is host names in first-seen inventory order. Everything that
	// presents hosts to the user preserves this order.
	Order []string

	// GroupOrder is group names in first-seen order, starting with the
	// implicit "all" and "ungrouped". Var application iterates in this
	// order so later definitions win deterministically at equal scope.
	GroupOrder []string
}

// NewInventory creates an inventory with the implicit "all" and "ungrouped"
// groups.
func NewInventory() *Inventory {
	return &Inventory{
		Hosts: make(map[string]*Host),
		Groups: map[string]*Group{
			"all":       NewGroup("all"),
			"ungrouped": NewGroup("ungrouped"),
		},
		GroupOrder: []string{"all", "ungrouped"},
	}
}

// host returns the named host, creating and registering it on first sight.
func (inv *Inventory) host(name string) *Host {
	h, ok := inv.Hosts[name]
	if !ok {
		h = NewHost(name)
		inv.Hosts[name] = h
		inv.Order = append(inv.Order, name)
	}
	return h
}

// group returns the named group, creating it if needed.
func (inv *Inventory) group(name string) *Group {
	g, ok := inv.Groups[name]
	if !ok {
		g = NewGroup(name)
		inv.Groups[name] = g
		inv.GroupOrder = append(inv.GroupOrder, name)
	}
	return g
}

// AllHosts returns every host in inventory order.
func (inv *Inventory) AllHosts() []*Host {
	hosts := make([]*Host, 0, len(inv.Order))
	for _, name := range inv.Order {
		hosts = append(hosts, inv.Hosts[name])
	}
	return hosts
}

// HostsInGroup returns the names of all hosts in the group, including
// transitive membership through child groups, in first-discovery order.
// Cyclic children relations are tolerated: a group already being visited is
// silently skipped.
func (inv *Inventory) HostsInGroup(name string) []string {
	members := inv.hostsInGroupDepth(name)
	result := make([]string, len(members))
	for i, m := range members {
		result[i] = m.name
	}
	return result
}

// hostMembership pairs a member host with its distance from the queried
// group (0 = direct member).
type hostMembership struct {
	name string
	dist int
}

// allScopeDist is the distance used for "all" group vars. Every host sits
// directly in the "all" member list, but "all" is the outermost scope, so
// its vars must lose to any named group's.
const allScopeDist = 1 << 20

func (inv *Inventory) hostsInGroupDepth(name string) []hostMembership {
	var result []hostMembership
	seen := make(map[string]bool)
	visiting := make(map[string]bool)

	var walk func(string, int)
	walk = func(g string, dist int) {
		if visiting[g] {
			return
		}
		visiting[g] = true
		group, ok := inv.Groups[g]
		if !ok {
			return
		}
		for _, h := range group.Hosts {
			if !seen[h] {
				seen[h] = true
				result = append(result, hostMembership{name: h, dist: dist})
			}
		}
		for _, child := range group.Children {
			walk(child, dist+1)
		}
	}
	walk(name, 0)

	return result
}

// addHostToGroup registers membership on both sides, plus the implicit
// "all" group.
func (inv *Inventory) addHostToGroup(hostName, groupName string) {
	h := inv.host(hostName)
	h.addGroup(groupName)
	inv.group(groupName).addHost(hostName)
	if groupName != "all" {
		inv.group("all").addHost(hostName)
	}
}
