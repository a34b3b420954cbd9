package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYAML_Basic(t *testing.T) {
	content := `
all:
  children:
    web:
      hosts:
        web01:
          ansible_host: 192.168.1.1
        web02:
          ansible_host: 192.168.1.2
      vars:
        ansible_user: deploy
    db:
      hosts:
        db01:
          ansible_host: 192.168.1.10
          ansible_port: 2222
`
	inv, err := ParseYAML(content)
	require.NoError(t, err)

	assert.Len(t, inv.Hosts, 3)
	assert.Equal(t, "192.168.1.1", inv.Hosts["web01"].Address)
	assert.Equal(t, 2222, inv.Hosts["db01"].Port)
	assert.Equal(t, "deploy", inv.Hosts["web01"].User)
	assert.Equal(t, "deploy", inv.Hosts["web02"].User)
	assert.Equal(t, "web", inv.Hosts["web01"].DisplayGroup())
}

func TestParseYAML_HostVarWinsOverGroupVar(t *testing.T) {
	content := `
all:
  children:
    servers:
      vars:
        ansible_ssh_user: ubuntu
      hosts:
        server01:
          ansible_ssh_user: root
        server02:
`
	inv, err := ParseYAML(content)
	require.NoError(t, err)
	assert.Equal(t, "root", inv.Hosts["server01"].User)
	assert.Equal(t, "ubuntu", inv.Hosts["server02"].User)
}

func TestParseYAML_ParentVarsPropagate(t *testing.T) {
	content := `
cloud:
  vars:
    region: us-east
    ansible_ssh_user: root
  children:
    nodes:
      vars:
        role: node
      hosts:
        node01:
          custom_label: primary
`
	inv, err := ParseYAML(content)
	require.NoError(t, err)
	require.Len(t, inv.Hosts, 1)

	host := inv.Hosts["node01"]
	assert.Equal(t, "root", host.User)
	assert.True(t, host.InGroup("nodes"))
	assert.Equal(t, "us-east", host.Vars["region"])
	assert.Equal(t, "node", host.Vars["role"])
	assert.Equal(t, "primary", host.Vars["custom_label"])
}

func TestParseYAML_NearerScopeWins(t *testing.T) {
	content := `
all:
  vars:
    ansible_user: rootuser
  children:
    web:
      vars:
        ansible_user: webuser
      hosts:
        w1:
`
	inv, err := ParseYAML(content)
	require.NoError(t, err)
	assert.Equal(t, "webuser", inv.Hosts["w1"].User)
}

func TestParseYAML_MultiGroupFirstSeenOrder(t *testing.T) {
	content := `
all:
  children:
    web:
      hosts:
        shared:
    db:
      hosts:
        shared:
        d1:
`
	inv, err := ParseYAML(content)
	require.NoError(t, err)

	shared := inv.Hosts["shared"]
	require.NotNil(t, shared)
	assert.Equal(t, []string{"web", "db"}, shared.Groups)
	assert.Equal(t, "web", shared.DisplayGroup())
	// First-seen order across the depth-first walk.
	assert.Equal(t, []string{"shared", "d1"}, inv.Order)
}

func TestParseYAML_HostVarsSurviveSharedGroupName(t *testing.T) {
	// The same group name appearing under two parents must not clobber
	// host-level vars.
	content := `
all:
  children:
    provider_a:
      vars:
        ansible_ssh_user: root
      children:
        prod:
          children:
            rpcs:
              hosts:
                rpc01:
                  ansible_ssh_user: root
                rpc02:
    provider_b:
      vars:
        ansible_ssh_user: ubuntu
      children:
        rpcs:
          hosts:
            rpc03:
`
	inv, err := ParseYAML(content)
	require.NoError(t, err)

	assert.Equal(t, "root", inv.Hosts["rpc01"].User)
	// rpc02 has no host-level override; provider_b is nearer (one child
	// hop through the shared rpcs group vs two through provider_a).
	assert.Equal(t, "ubuntu", inv.Hosts["rpc02"].User)
	assert.Equal(t, "ubuntu", inv.Hosts["rpc03"].User)
}

func TestParseYAML_EmptyGroupBody(t *testing.T) {
	content := `
all:
  children:
    web:
    db:
      hosts:
        d1:
`
	inv, err := ParseYAML(content)
	require.NoError(t, err)
	assert.Contains(t, inv.Groups, "web")
	assert.Len(t, inv.Hosts, 1)
}

func TestParseYAML_Invalid(t *testing.T) {
	_, err := ParseYAML("all: [\n")
	require.Error(t, err)
}
