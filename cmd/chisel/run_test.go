// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	t.Run("will use defaults", func(t *testing.T) {
		t.Run("if the config file does not exist", func(t *testing.T) {
			cfg, err := readConfig(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)

			assert.Equal(t, uint(8080), cfg.Http.Port)
			assert.Equal(t, ".", cfg.Serve.Dir)
		})
	})

	t.Run("will read the config file", func(t *testing.T) {
		t.Run("if it exists", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "chisel.yaml")
			err := os.WriteFile(path, []byte(`
http:
  port: 9000
serve:
  dir: /var/www
tracing:
  exporter: stdout
  serviceName: chisel
`), 0o600)
			require.NoError(t, err)

			cfg, err := readConfig(path)
			require.NoError(t, err)

			assert.Equal(t, uint(9000), cfg.Http.Port)
			assert.Equal(t, "/var/www", cfg.Serve.Dir)
			assert.Equal(t, "stdout", cfg.Tracing.Exporter)
			assert.Equal(t, "chisel", cfg.Tracing.ServiceName)
		})
	})

	t.Run("will override the port", func(t *testing.T) {
		t.Run("if CHISEL_PORT is set", func(t *testing.T) {
			t.Setenv("CHISEL_PORT", "9999")

			cfg, err := readConfig(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)

			assert.Equal(t, uint(9999), cfg.Http.Port)
		})

		t.Run("will fail if CHISEL_PORT is not a number", func(t *testing.T) {
			t.Setenv("CHISEL_PORT", "not-a-port")

			_, err := readConfig(filepath.Join(t.TempDir(), "missing.yaml"))
			assert.Error(t, err)
		})
	})
}
