package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8420", cfg.Server.Addr)
	assert.True(t, cfg.Headless())
	assert.Equal(t, 10, cfg.Browser.MaxSessions)
	assert.NotEmpty(t, cfg.Store.Path)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
browser:
  headless: false
  max_sessions: 3
llm:
  model: gpt-4o-mini
store:
  path: /tmp/test-webops.db
  secret: sealing-secret
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.False(t, cfg.Headless())
	assert.Equal(t, 3, cfg.Browser.MaxSessions)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "/tmp/test-webops.db", cfg.Store.Path)
	assert.Equal(t, "sealing-secret", cfg.Store.Secret)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0o600))

	t.Setenv("WEBOPS_SERVER_ADDR", ":7777")
	t.Setenv("WEBOPS_LLM_MODEL", "gpt-x")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "gpt-x", cfg.LLM.Model)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: a map"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
