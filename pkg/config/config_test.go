package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/ChromaID/pkg/config"
	"github.com/ChrisMcGann/ChromaID/pkg/core"
	"github.com/ChrisMcGann/ChromaID/pkg/peak"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, path, resolved)

	want := config.Default()
	assert.Equal(t, want.Peak, cfg.Peak)
	assert.Equal(t, "console", cfg.Logging.Format)

	pp, err := cfg.PeakParams()
	require.NoError(t, err)
	assert.Equal(t, peak.DefaultParams(), pp)
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chromaid.toml")
	content := `
workers = 2

[logging]
level = " DEBUG "
format = "JSON"

[smoothing]
method = "Savitzky_Golay"
level = 2

[peak]
minimum_amplitude = 250.0

[identification]
retention_type = "RI"
retention_index_tolerance = 15.0
only_top_hit = true

[library]
path = "lib.db"
top_n = 50
mass_range_begin = 35.0
mass_range_end = 500.0
normalize_to = 999.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "savitzky_golay", cfg.Smoothing.Method)
	assert.Equal(t, 2, cfg.Smoothing.Level)
	assert.Equal(t, 250.0, cfg.Peak.MinimumAmplitude)
	assert.Equal(t, 3.0, cfg.Peak.NoiseFactor, "unset keys keep defaults")
	assert.True(t, filepath.IsAbs(cfg.Library.Path))
	assert.Equal(t, 2, cfg.Workers)

	ip, err := cfg.IdentifyParams()
	require.NoError(t, err)
	assert.Equal(t, core.RetentionIndex, ip.RetentionType)
	assert.Equal(t, 15.0, ip.Tolerance())
	assert.True(t, ip.OnlyTopHit)

	lf := cfg.LibraryFilter()
	assert.Equal(t, 50, lf.TopN)
	assert.Equal(t, 35.0, lf.MassRangeBegin)
	assert.Equal(t, 500.0, lf.MassRangeEnd)
	assert.Equal(t, 999.0, lf.NormalizeTo)

	fn, err := cfg.SmoothingFunc()
	require.NoError(t, err)
	assert.NotNil(t, fn)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown smoothing", "[smoothing]\nmethod = \"wavelet\"\n"},
		{"bad retention type", "[identification]\nretention_type = \"drift\"\n"},
		{"zero mz tolerance", "[identification]\nmz_tolerance = 0.0\n"},
		{"zero noise factor", "[peak]\nnoise_factor = 0.0\n"},
		{"bad log level", "[logging]\nlevel = \"loud\"\n"},
		{"bad intensity cutoff", "[library]\nintensity_cutoff = 150.0\n"},
		{"negative mass range", "[library]\nmass_range_begin = -1.0\n"},
		{"inverted mass range", "[library]\nmass_range_begin = 200.0\nmass_range_end = 100.0\n"},
		{"negative normalization", "[library]\nnormalize_to = -5.0\n"},
		{"unknown key", "[peak]\nnoise = 1.0\n"},
		{"malformed", "[peak\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, _, _, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestCreateSampleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded config.Config
	require.NoError(t, toml.Unmarshal(data, &decoded))

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	want := config.Default()
	assert.Equal(t, want.Peak, cfg.Peak)
	assert.Equal(t, want.Identification, cfg.Identification)
	assert.Equal(t, want.Smoothing, cfg.Smoothing)

	assert.Error(t, config.CreateSample(path, false), "existing file is not overwritten")
	assert.NoError(t, config.CreateSample(path, true))
}
