package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zxhio/delaysim/internal/errcode"
	"github.com/zxhio/delaysim/internal/model"
)

const configData = `
kernel_tweaks:
  net.core.rmem_max: 16777216
  net.ipv4.tcp_congestion_control: htcp
interface_groups:
  lab:
    delay: 20ms
    queue_count: 8
    members:
      eth1:
        tx: 30
        rx: 10
      eth0:
        rx: 30
        tx: 10
  wan:
    queue_count: 2
    members:
      nic0: {tx: 4}
      nic1:
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(configData), WithDefaultDelay("5ms"))
	require.NoError(t, err)

	assert.Equal(t, []model.KernelTweak{
		{Key: "net.core.rmem_max", Value: "16777216"},
		{Key: "net.ipv4.tcp_congestion_control", Value: "htcp"},
	}, cfg.KernelTweaks)

	require.Len(t, cfg.Groups, 2)
	assert.Equal(t, &model.InterfaceGroup{
		Name:    "lab",
		Members: []string{"eth1", "eth0"},
		Cores: []model.CoreAssignment{
			{Interface: "eth1", Role: model.RoleTX, Core: 30},
			{Interface: "eth1", Role: model.RoleRX, Core: 10},
			{Interface: "eth0", Role: model.RoleRX, Core: 30},
			{Interface: "eth0", Role: model.RoleTX, Core: 10},
		},
		Delay:      "20ms",
		QueueCount: 8,
	}, cfg.Groups[0])

	wan := cfg.Groups[1]
	assert.Equal(t, "wan", wan.Name)
	assert.Equal(t, "5ms", wan.Delay)
	assert.Equal(t, []string{"nic0", "nic1"}, wan.Members)
	assert.Equal(t, []model.CoreAssignment{{Interface: "nic0", Role: model.RoleTX, Core: 4}}, wan.Cores)
}

func TestParseJSON(t *testing.T) {
	data := `{"interface_groups": {"g": {"queue_count": 1, "members": {"nic0": {"rx": 2}}}}}`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Len(t, cfg.Groups, 1)
	assert.Equal(t, DefaultDelay, cfg.Groups[0].Delay)
	assert.Equal(t, "nic0-rx", cfg.Groups[0].Cores[0].Key())
}

func TestParseTweakVerbatim(t *testing.T) {
	data := `
kernel_tweaks:
  net.ipv4.tcp_mem: 0.10
  net.core.netdev_max_backlog: 0x10
  net.ipv4.tcp_timestamps: 1e3
  net.ipv4.tcp_sack: yes
interface_groups:
  g:
    queue_count: 1
    members:
      nic0: {rx: 2}
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, []model.KernelTweak{
		{Key: "net.ipv4.tcp_mem", Value: "0.10"},
		{Key: "net.core.netdev_max_backlog", Value: "0x10"},
		{Key: "net.ipv4.tcp_timestamps", Value: "1e3"},
		{Key: "net.ipv4.tcp_sack", Value: "yes"},
	}, cfg.KernelTweaks)
}

func TestParseUnknownRole(t *testing.T) {
	data := `
interface_groups:
  lab:
    queue_count: 1
    members:
      eth0: {tx: 1, both: 2}
`
	_, err := Parse([]byte(data))
	var roleErr *UnknownRoleError
	require.True(t, errors.As(err, &roleErr))
	assert.Equal(t, UnknownRoleError{Group: "lab", Interface: "eth0", Role: "both"}, *roleErr)
}

func TestParseInvalid(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"no groups", "kernel_tweaks: {a.b: 1}"},
		{"zero queues", "interface_groups: {g: {members: {eth0: {tx: 1}}}}"},
		{"no members", "interface_groups: {g: {queue_count: 2}}"},
		{"negative core", "interface_groups: {g: {queue_count: 2, members: {eth0: {tx: -1}}}}"},
		{"string core", "interface_groups: {g: {queue_count: 2, members: {eth0: {tx: one}}}}"},
		{"tweak without value", "kernel_tweaks: {a.b: }\ninterface_groups: {g: {queue_count: 1, members: {eth0: {}}}}"},
		{"not yaml", "interface_groups: [unterminated"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			assert.True(t, errcode.Is(err, errcode.CodeInvalid), "err: %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "delay.yml"))
	assert.True(t, errcode.Is(err, errcode.CodeNotExist))

	path := filepath.Join(t.TempDir(), "delay.yml")
	require.NoError(t, os.WriteFile(path, []byte(configData), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Groups, 2)
}
