package probe

import (
	"strconv"

	"github.com/kevinburke/ssh_config"

	"github.com/rileyhilliard/ansimon/internal/inventory"
)

// Overrides are connection values from the command line. They replace
// inventory-provided values at resolution time, not at parse time, so the
// inventory stays a faithful model of the file.
type Overrides struct {
	User    string
	KeyPath string
	Port    int
}

// ResolveTarget merges connection settings for one host. Precedence per
// field: CLI override, then inventory var, then the user's ~/.ssh/config
// entry for the address, then none (ssh's own defaults apply).
func ResolveTarget(h *inventory.Host, o Overrides) Target {
	t := Target{
		Name:    h.Name,
		Address: h.EffectiveAddress(),
		Port:    h.EffectivePort(),
		User:    h.User,
		KeyPath: h.KeyPath,
	}

	if o.User != "" {
		t.User = o.User
	}
	if o.KeyPath != "" {
		t.KeyPath = o.KeyPath
	}
	if o.Port > 0 {
		t.Port = o.Port
	}

	// Fill remaining gaps from ssh_config. The port counts as unset only
	// when neither the CLI nor the inventory gave one; t.Port then holds
	// the default 22.
	if t.User == "" {
		if user := ssh_config.Get(t.Address, "User"); user != "" {
			t.User = user
		}
	}
	if t.KeyPath == "" {
		if identity := ssh_config.Get(t.Address, "IdentityFile"); identity != "" && identity != ssh_config.Default("IdentityFile") {
			t.KeyPath = identity
		}
	}
	if o.Port == 0 && h.Port == 0 {
		if port := ssh_config.Get(t.Address, "Port"); port != "" {
			if p, err := strconv.Atoi(port); err == nil && p > 0 {
				t.Port = p
			}
		}
	}

	return t
}
