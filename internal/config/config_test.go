package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/hive/internal/errors"
)

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
name: build services
logging:
  level: debug
  format: json
metrics:
  enabled: true
  subsystem: build
`))
	require.NoError(t, err)

	assert.Equal(t, "build services", cfg.Name)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "hive", cfg.Metrics.Namespace)
	assert.Equal(t, "build", cfg.Metrics.Subsystem)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "github.com/xraph/hive", cfg.Tracing.TracerName)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "name: [unclosed"},
		{"empty name", "name: ''"},
		{"bad level", "logging:\n  level: loud"},
		{"bad format", "logging:\n  format: xml"},
		{"tracing without name", "tracing:\n  enabled: true\n  tracer_name: ''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfigErrorSentinel))
		})
	}
}

func TestLoadAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hive.yaml")

	cfg := Default()
	cfg.Name = "settings"
	cfg.Tracing.Enabled = true
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
