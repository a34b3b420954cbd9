package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/ansimon/internal/inventory"
)

func inventoryHost(t *testing.T, line string) *inventory.Host {
	t.Helper()
	inv, err := inventory.ParseINI(line + "\n")
	require.NoError(t, err)
	hosts := inv.AllHosts()
	require.Len(t, hosts, 1)
	return hosts[0]
}

func TestResolveTarget_InventoryValues(t *testing.T) {
	h := inventoryHost(t, "w1 ansible_host=10.0.0.1 ansible_port=2201 ansible_user=deploy ansible_ssh_private_key_file=/keys/id")

	tgt := ResolveTarget(h, Overrides{})
	assert.Equal(t, "w1", tgt.Name)
	assert.Equal(t, "10.0.0.1", tgt.Address)
	assert.Equal(t, 2201, tgt.Port)
	assert.Equal(t, "deploy", tgt.User)
	assert.Equal(t, "/keys/id", tgt.KeyPath)
	assert.Equal(t, "deploy@10.0.0.1", tgt.Dest())
}

func TestResolveTarget_CLIOverridesWin(t *testing.T) {
	h := inventoryHost(t, "w1 ansible_host=10.0.0.1 ansible_port=2201 ansible_user=deploy ansible_ssh_private_key_file=/keys/id")

	tgt := ResolveTarget(h, Overrides{User: "root", KeyPath: "/other/key", Port: 22022})
	assert.Equal(t, "root", tgt.User)
	assert.Equal(t, "/other/key", tgt.KeyPath)
	assert.Equal(t, 22022, tgt.Port)
}

func TestResolveTarget_NameAsAddress(t *testing.T) {
	// User/key may come from the developer's ssh_config here, so only the
	// address mapping is asserted.
	h := inventoryHost(t, "web01.example.com")

	tgt := ResolveTarget(h, Overrides{})
	assert.Equal(t, "web01.example.com", tgt.Address)
}

func TestTargetDest(t *testing.T) {
	assert.Equal(t, "10.0.0.1", Target{Address: "10.0.0.1"}.Dest())
	assert.Equal(t, "deploy@10.0.0.1", Target{Address: "10.0.0.1", User: "deploy"}.Dest())
}

func TestSSHArgs(t *testing.T) {
	r := NewRunner(5*time.Second, nil)

	args := r.sshArgs(Target{Name: "w1", Address: "10.0.0.1", Port: 2201, User: "deploy", KeyPath: "/keys/id"})
	assert.Contains(t, args, "BatchMode=yes")
	assert.Contains(t, args, "ConnectTimeout=5")
	assert.Contains(t, args, "StrictHostKeyChecking=accept-new")
	assert.Contains(t, args, "-p")
	assert.Contains(t, args, "2201")
	assert.Contains(t, args, "-i")
	assert.Contains(t, args, "/keys/id")
	assert.Equal(t, "deploy@10.0.0.1", args[len(args)-2])
	assert.Equal(t, r.command, args[len(args)-1])
}

func TestSSHArgs_DefaultPortOmitted(t *testing.T) {
	r := NewRunner(5*time.Second, nil)
	args := r.sshArgs(Target{Name: "w1", Address: "10.0.0.1", Port: 22})
	assert.NotContains(t, args, "-p")
}
