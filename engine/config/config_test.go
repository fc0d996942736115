package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "automancy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
update_rate: 30
fps_limit: 144
culling_radius_padding: 4
msaa_sample_count: 8
screenshot_dir: captures
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint(30), cfg.UpdateRate)
	assert.Equal(t, uint(144), cfg.FPSLimit)
	assert.Equal(t, uint(4), cfg.CullingRadiusPadding)
	assert.Equal(t, uint32(8), cfg.MSAASampleCount)
	assert.Equal(t, "captures", cfg.ScreenshotDir)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadPartialFileKeepsOtherDefaults(t *testing.T) {
	path := writeConfig(t, "fps_limit: 60\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint(60), cfg.FPSLimit)
	assert.Equal(t, Default().UpdateRate, cfg.UpdateRate)
	assert.Equal(t, Default().ScreenshotDir, cfg.ScreenshotDir)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "update_rate: [not a number\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"zero update rate", "update_rate: 0\n"},
		{"bad msaa count", "msaa_sample_count: 3\n"},
		{"unknown log level", "log_level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.contents))
			assert.Error(t, err)
		})
	}
}
