package integration

import (
	"testing"
	"time"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/source"
	"github.com/rileyhilliard/pulse/internal/source/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `
[general]
refresh_rate = "2s"

[thresholds.cpu]
warning = 60
critical = 85

[[providers.proxmox]]
name = "homelab"
host = "https://pve.lan:8006"
user = "root@pam"
token_id = "pulse"
token_secret = "secret"

[[providers.ssh]]
name = "lab"
hosts = ["mini", "nas"]

[providers.local]
enabled = true
name = "workstation"
`

func TestConfigToSources(t *testing.T) {
	cfg, path, err := config.LoadFromFlags(writeConfig(t, fullConfig))
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	assert.Equal(t, 2*time.Second, cfg.General.RefreshRate)
	assert.Equal(t, 4*time.Second, cfg.EffectiveFetchTimeout())
	assert.Equal(t, 60, cfg.Thresholds.CPU.Warning)
	assert.Equal(t, 90, cfg.Thresholds.Memory.Critical, "unset thresholds keep defaults")

	sources, err := registry.FromConfig(cfg, logger.NewBufferLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = source.Close(sources) })

	var names []string
	for _, s := range sources {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"homelab", "lab", "workstation"}, names)
}

func TestConfigRejectsDuplicateSourceNames(t *testing.T) {
	_, _, err := config.LoadFromFlags(writeConfig(t, `
[general]
refresh_rate = "2s"

[[providers.ssh]]
name = "lab"
hosts = ["mini"]

[providers.local]
enabled = true
name = "lab"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'lab'")
}

func TestConfigWriteThenLoad(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers.SSH = []config.SSHConfig{{Name: "lab", Hosts: []string{"mini"}}}

	path := writeConfig(t, "")
	require.NoError(t, config.Write(path, cfg))

	loaded, _, err := config.LoadFromFlags(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.General.RefreshRate, loaded.General.RefreshRate)
	assert.Equal(t, []string{"mini"}, loaded.Providers.SSH[0].Hosts)
	assert.False(t, loaded.Providers.SSH[0].InsecureIgnoreHostKey)
}
