// Package config loads, normalizes, and validates ChromaID configuration.
//
// Settings come from a TOML file layered over repository defaults; command
// line flags override individual values afterwards. Downstream packages take
// their parameter structs from the accessor methods here rather than reading
// the TOML sections directly.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Smoothing selects the smoothing strategy applied before detection.
type Smoothing struct {
	Method         string `toml:"method"`
	Level          int    `toml:"level"`
	BaselineWindow int    `toml:"baseline_window"`
}

// Peak contains the peak detector thresholds.
type Peak struct {
	NoiseFactor        float64 `toml:"noise_factor"`
	AveragePeakWidth   int     `toml:"average_peak_width"`
	AmplitudeNoiseFold float64 `toml:"amplitude_noise_fold"`
	SlopeNoiseFold     float64 `toml:"slope_noise_fold"`
	PeakTopNoiseFold   float64 `toml:"peaktop_noise_fold"`
	MinimumDatapoints  float64 `toml:"minimum_datapoints"`
	MinimumAmplitude   float64 `toml:"minimum_amplitude"`
	HighBaseline       bool    `toml:"high_baseline"`
}

// Identification contains library matching settings.
type Identification struct {
	RetentionType             string  `toml:"retention_type"`
	MZTolerance               float64 `toml:"mz_tolerance"`
	MassRangeBegin            float64 `toml:"mass_range_begin"`
	MassRangeEnd              float64 `toml:"mass_range_end"`
	RetentionTimeTolerance    float64 `toml:"retention_time_tolerance"`
	RetentionIndexTolerance   float64 `toml:"retention_index_tolerance"`
	EISimilarityCutoff        float64 `toml:"ei_similarity_cutoff"`
	IdentificationScoreCutoff float64 `toml:"identification_score_cutoff"`
	UseRetentionForFiltering  bool    `toml:"use_retention_for_filtering"`
	UseRetentionForScoring    bool    `toml:"use_retention_for_scoring"`
	OnlyTopHit                bool    `toml:"only_top_hit"`
	RetentionWeight           float64 `toml:"retention_weight"`
	DotProductWeight          float64 `toml:"dot_product_weight"`
	ReverseDotProductWeight   float64 `toml:"reverse_dot_product_weight"`
	PresenceWeight            float64 `toml:"presence_weight"`
	Workers                   int     `toml:"workers"`
}

// Library contains preprocessing applied to reference spectra on import.
type Library struct {
	Path            string  `toml:"path"`
	IntensityCutoff float64 `toml:"intensity_cutoff"`
	TopN            int     `toml:"top_n"`
	MassRangeBegin  float64 `toml:"mass_range_begin"`
	MassRangeEnd    float64 `toml:"mass_range_end"` // 0 leaves the upper side open
	NormalizeTo     float64 `toml:"normalize_to"`
}

// Alkanes points at the n-alkane ladder used for retention indices.
type Alkanes struct {
	File string `toml:"file"`
}

// Config is the root configuration document.
type Config struct {
	Logging        Logging        `toml:"logging"`
	Smoothing      Smoothing      `toml:"smoothing"`
	Peak           Peak           `toml:"peak"`
	Identification Identification `toml:"identification"`
	Library        Library        `toml:"library"`
	Alkanes        Alkanes        `toml:"alkanes"`
	Workers        int            `toml:"workers"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/chromaid/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. It returns the resolved path and whether it existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("chromaid.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is left untouched unless overwrite is set.
func CreateSample(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
