package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  driver: memory
session:
  privileged_keys: ["pit-lead"]
  reject_overflow_pick: true
`), 0o644))

	t.Setenv("SCOUT_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port, "env wins over file")
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, []string{"pit-lead"}, cfg.Session.PrivilegedKeys)
	assert.True(t, cfg.Session.RejectOverflowPick)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("SCOUT_DATABASE_DRIVER", "etcd")
	_, err := Load("")
	require.Error(t, err)
}
