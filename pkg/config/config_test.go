package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/bfc/pkg/emit"
	"github.com/stretchr/testify/require"
)

const sampleConfigPath = "../../config/bfc.yml"

func writeConfig(t *testing.T, data string) string {
	p := filepath.Join(t.TempDir(), "bfc.yml")
	require.NoError(t, os.WriteFile(p, []byte(data), 0644))
	return p
}

func TestLoadSample(t *testing.T) {
	cfg, err := LoadFile(sampleConfigPath)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		cfg, err := LoadFile(writeConfig(t, ""))
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})

	t.Run("partial", func(t *testing.T) {
		cfg, err := LoadFile(writeConfig(t, `
CompilerConfiguration:
  DumpUnsigned: true
  TypedPointers: true
`))
		require.NoError(t, err)
		require.Equal(t, "info", cfg.ApplicationConfiguration.LogLevel)
		require.Equal(t, emit.DefaultIndent, cfg.CompilerConfiguration.DumpIndent)
		require.True(t, cfg.CompilerConfiguration.DumpUnsigned)
		require.True(t, cfg.CompilerConfiguration.TypedPointers)
		require.False(t, cfg.CompilerConfiguration.DisablePasses)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, `
CompilerConfiguration:
  Optimize: true
`))
		require.Error(t, err)
	})

	t.Run("bad log level", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, `
ApplicationConfiguration:
  LogLevel: loud
`))
		require.ErrorContains(t, err, "ApplicationConfiguration")
	})

	t.Run("negative indent", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, `
CompilerConfiguration:
  DumpIndent: -1
`))
		require.ErrorContains(t, err, "DumpIndent")
	})
}
