package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeLogging()
	c.Smoothing.Method = strings.ToLower(strings.TrimSpace(c.Smoothing.Method))
	c.Identification.RetentionType = strings.ToLower(strings.TrimSpace(c.Identification.RetentionType))
	if c.Identification.RetentionType == "" {
		c.Identification.RetentionType = defaultRetentionType
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.Identification.Workers <= 0 {
		c.Identification.Workers = c.Workers
	}

	var err error
	if c.Library.Path, err = expandPath(c.Library.Path); err != nil {
		return fmt.Errorf("library.path: %w", err)
	}
	if c.Alkanes.File, err = expandPath(c.Alkanes.File); err != nil {
		return fmt.Errorf("alkanes.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console", "text":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
