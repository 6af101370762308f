package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cfoust/tumble/pkg/ingress"
	"github.com/cfoust/tumble/pkg/state"
	"github.com/cfoust/tumble/pkg/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir string, name string, contents string) string {
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte(contents), 0644)
	require.NoError(t, err)
	return path
}

// The embedded file and the package defaults must not drift apart.
func TestDefaultMatchesSettings(t *testing.T) {
	config, err := Process([]string{})
	require.NoError(t, err)

	assert.Equal(t, table.DefaultSettings(), config.Table)
	assert.Equal(t, ingress.DefaultSettings(), config.Ingress)
	assert.Equal(t, state.DefaultSettings(), config.Redis)
	assert.Equal(t, 29999, config.Server.Port)
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()

	// yaml config
	{
		yaml := writeFile(t, dir, "config.yaml", `
server:
  port: 1234
table:
  maxRollDuration: 20s
  physics:
    friction: 0.6
`)
		config, err := Process([]string{yaml})
		require.NoError(t, err)
		assert.Equal(t, 1234, config.Server.Port)
		assert.Equal(t, 20*time.Second, config.Table.MaxRollDuration.Std())
		assert.Equal(t, 0.6, config.Table.Physics.Friction)
		// untouched fields keep their defaults
		assert.Equal(t, 0.3, config.Table.Physics.Restitution)
		assert.Equal(t, 60, config.Table.TickRate)
	}

	// json config
	{
		json := writeFile(t, dir, "config.json", `{
  "server": {
    "port": 1235
  },
  "ingress": {
    "writeTimeout": "1s"
  }
}`)
		config, err := Process([]string{json})
		require.NoError(t, err)
		assert.Equal(t, 1235, config.Server.Port)
		assert.Equal(t, time.Second, config.Ingress.WriteTimeout.Std())
	}

	// multiple files apply in order
	{
		yaml1 := writeFile(t, dir, "config1.yaml", `
server:
  port: 1234
redis:
  enabled: true
`)
		yaml2 := writeFile(t, dir, "config2.yml", `
server:
  port: 4321
`)
		config, err := Process([]string{yaml1, yaml2})
		require.NoError(t, err)
		assert.Equal(t, 4321, config.Server.Port)
		assert.True(t, config.Redis.Enabled)
	}

	// empty files change nothing
	{
		empty := writeFile(t, dir, "empty.yaml", "")
		_, err := Process([]string{empty})
		require.NoError(t, err)
	}
}

func TestProcessErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Process([]string{filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)

	toml := writeFile(t, dir, "config.toml", "port = 1")
	_, err = Process([]string{toml})
	assert.Error(t, err)

	unknown := writeFile(t, dir, "unknown.yaml", `
server:
  colour: blue
`)
	_, err = Process([]string{unknown})
	assert.Error(t, err)

	badDuration := writeFile(t, dir, "duration.json", `{"table": {"maxRollDuration": 5}}`)
	_, err = Process([]string{badDuration})
	assert.Error(t, err)

	invalid := writeFile(t, dir, "invalid.yaml", `
table:
  tickRate: 0
`)
	_, err = Process([]string{invalid})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, table.ErrInvalidSettings)

	port := writeFile(t, dir, "port.yaml", `
server:
  port: 70000
`)
	_, err = Process([]string{port})
	assert.ErrorIs(t, err, ErrInvalid)

	redis := writeFile(t, dir, "redis.yaml", `
redis:
  enabled: true
  address: ""
`)
	_, err = Process([]string{redis})
	assert.ErrorIs(t, err, ErrInvalid)

	interval := writeFile(t, dir, "interval.yaml", `
redis:
  enabled: true
  statusInterval: 0s
`)
	_, err = Process([]string{interval})
	assert.ErrorIs(t, err, ErrInvalid)
}
