package config

import (
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateSmoothing(); err != nil {
		return err
	}
	if _, err := c.PeakParams(); err != nil {
		return fmt.Errorf("peak: %w", err)
	}
	if _, err := c.IdentifyParams(); err != nil {
		return fmt.Errorf("identification: %w", err)
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
}

func (c *Config) validateSmoothing() error {
	if _, err := c.SmoothingFunc(); err != nil {
		return fmt.Errorf("smoothing.method: %w", err)
	}
	if c.Smoothing.Level < 0 {
		return fmt.Errorf("smoothing.level must be non-negative")
	}
	if c.Smoothing.BaselineWindow < 0 {
		return fmt.Errorf("smoothing.baseline_window must be non-negative")
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if c.Library.IntensityCutoff < 0 || c.Library.IntensityCutoff >= 100 {
		return fmt.Errorf("library.intensity_cutoff must be within [0,100)")
	}
	if c.Library.TopN < 0 {
		return fmt.Errorf("library.top_n must be non-negative")
	}
	if c.Library.MassRangeBegin < 0 || c.Library.MassRangeEnd < 0 {
		return fmt.Errorf("library.mass_range_begin and library.mass_range_end must be non-negative")
	}
	if c.Library.MassRangeEnd > 0 && c.Library.MassRangeEnd < c.Library.MassRangeBegin {
		return fmt.Errorf("library.mass_range_end must not be below library.mass_range_begin")
	}
	if c.Library.NormalizeTo < 0 {
		return fmt.Errorf("library.normalize_to must be non-negative")
	}
	return nil
}
