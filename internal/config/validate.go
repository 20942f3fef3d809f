package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.BaseURL == "" {
		return nil
	}
	parsed, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("catalog.base_url %q is not a valid URL", c.Catalog.BaseURL)
	}
	if c.Catalog.PageSize < 1 || c.Catalog.PageSize > 500 {
		return errors.New("catalog.page_size must be between 1 and 500")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if c.Audit.MaxParallelism < 1 {
		return errors.New("audit.max_parallelism must be at least 1")
	}
	if c.Audit.APIDelayMs < 0 {
		return errors.New("audit.api_delay_ms must not be negative")
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.GateTimeoutSeconds < 1 {
		return errors.New("store.gate_timeout_seconds must be at least 1")
	}
	if c.Store.GateWarnMillis < 1 {
		return errors.New("store.gate_warn_millis must be at least 1")
	}
	if c.Store.StaleThresholdHours < 1 {
		return errors.New("store.stale_threshold_hours must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format %q is not supported (console, json)", c.LogFormat)
	}
	return nil
}
