package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "data", c.Server.DataDir)
	assert.Equal(t, 800*time.Millisecond, c.Client.Debounce())
	assert.Equal(t, time.Minute, c.Client.VerifyCooldown())
	assert.Equal(t, 10*time.Minute, c.Auth.CodeTTL())
	assert.Equal(t, 5, c.Auth.MaxAttempts)
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9000\"\nclient:\n  debounce_ms: 100\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, 100*time.Millisecond, c.Client.Debounce())
	assert.Equal(t, "data", c.Server.DataDir, "unset fields fall back to defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TODOS_ADDR", ":7777")
	t.Setenv("TODOS_DATA_DIR", "/tmp/todos-test")

	c := Default()
	c.FromEnv()
	assert.Equal(t, ":7777", c.Server.Addr)
	assert.Equal(t, "/tmp/todos-test", c.Server.DataDir)
}
