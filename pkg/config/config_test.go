package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const minimalConfig = `
nifi_servers:
  - id: prod
    url: https://nifi.example.com/nifi-api
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, DefaultWorkflowMaxActions, cfg.Workflow.MaxActions)

	require.Len(t, cfg.NiFiServers, 1)
	assert.Equal(t, "prod", cfg.NiFiServers[0].Name, "name defaults to id")
	assert.Equal(t, DefaultNiFiRequestTimeout, cfg.NiFiServers[0].RequestTimeout)
	assert.Equal(t, DefaultNiFiPollInterval, cfg.NiFiServers[0].PollInterval)
}

func TestLoad_ParsesDurationStrings(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
shutdown_timeout: 45s
server:
  request_timeout: 3m
nifi_servers:
  - id: prod
    url: https://nifi.example.com/nifi-api
    poll_interval: 250ms
`))
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 3*time.Minute, cfg.Server.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.NiFiServers[0].PollInterval)
}

func TestLoad_MissingServersFailsValidation(t *testing.T) {
	_, err := Load(writeConfig(t, `
logging:
  level: DEBUG
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NiFiServers")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "bad log level",
			yaml: `
logging:
  level: LOUD
nifi_servers:
  - id: prod
    url: https://nifi.example.com/nifi-api
`,
			wantErr: "must be one of",
		},
		{
			name: "bad url",
			yaml: `
nifi_servers:
  - id: prod
    url: not-a-url
`,
			wantErr: "valid URL",
		},
		{
			name: "duplicate server ids",
			yaml: `
nifi_servers:
  - id: prod
    url: https://a.example.com/nifi-api
  - id: prod
    url: https://b.example.com/nifi-api
`,
			wantErr: "duplicate server id",
		},
		{
			name: "username without password",
			yaml: `
nifi_servers:
  - id: prod
    url: https://nifi.example.com/nifi-api
    username: admin
`,
			wantErr: "without password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.NiFiServers[0].Username = "admin"
	cfg.NiFiServers[0].Password = "secret"
	cfg.ExpertHelp = ExpertHelpConfig{Enabled: true, Provider: "openai", Model: "gpt-4o", APIKey: "sk-test"}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.NiFiServers, loaded.NiFiServers)
	assert.Equal(t, cfg.ExpertHelp, loaded.ExpertHelp)
	assert.Equal(t, cfg.ShutdownTimeout, loaded.ShutdownTimeout)
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, Validate(cfg))
	require.Len(t, cfg.NiFiServers, 1)
	assert.Equal(t, "local", cfg.NiFiServers[0].ID)
}

func TestNiFiServerLookup(t *testing.T) {
	cfg := &Config{NiFiServers: []NiFiServerConfig{
		{ID: "a", URL: "https://a/nifi-api"},
		{ID: "b", URL: "https://b/nifi-api"},
	}}

	s, ok := cfg.NiFiServer("")
	require.True(t, ok)
	assert.Equal(t, "a", s.ID, "empty id selects the first entry")

	s, ok = cfg.NiFiServer("b")
	require.True(t, ok)
	assert.Equal(t, "b", s.ID)

	_, ok = cfg.NiFiServer("c")
	assert.False(t, ok)
}
