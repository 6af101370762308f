package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cfoust/tumble/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeConfigError(t *testing.T) {
	dir := t.TempDir()

	err := serve([]string{filepath.Join(dir, "missing.yaml")})
	assert.ErrorContains(t, err, "failed to load tumble configuration")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("server:\n  port: 0\n"), 0o644))

	err = serve([]string{invalid})
	assert.ErrorIs(t, err, config.ErrInvalid)
}
