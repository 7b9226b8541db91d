package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"git.home.luguber.info/inful/sitemigrate/internal/retry"
	"git.home.luguber.info/inful/sitemigrate/internal/version"
	"git.home.luguber.info/inful/sitemigrate/internal/versioning"
)

// ValidateConfig checks a defaulted configuration.
func ValidateConfig(cfg *Config) error {
	if cfg.Version != CurrentVersion {
		return fmt.Errorf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)
	}
	if _, err := cfg.Identity(); err != nil {
		return err
	}
	if cfg.Upgrade.Concurrency < 1 {
		return errors.New("upgrade.concurrency must be at least 1")
	}
	if _, err := time.ParseDuration(cfg.Watch.Debounce); err != nil {
		return fmt.Errorf("invalid watch.debounce %q: %w", cfg.Watch.Debounce, err)
	}
	if cfg.Watch.Workers < 1 {
		return errors.New("watch.workers must be at least 1")
	}
	if cfg.Notify.Enabled && cfg.Notify.NATSURL == "" {
		return errors.New("notify.nats_url is required when notify is enabled")
	}
	if retry.NormalizeMode(cfg.Notify.RetryBackoff) == "" {
		return fmt.Errorf("invalid notify.retry_backoff %q (expected fixed, linear or exponential)", cfg.Notify.RetryBackoff)
	}
	for field, v := range map[string]string{
		"notify.retry_initial_delay": cfg.Notify.RetryInitialDelay,
		"notify.retry_max_delay":     cfg.Notify.RetryMaxDelay,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("invalid %s %q", field, v)
		}
	}
	return nil
}

// RetryPolicy builds the publish retry policy.
func (n NotifyConfig) RetryPolicy() retry.Policy {
	initial, _ := time.ParseDuration(n.RetryInitialDelay)
	maxDelay, _ := time.ParseDuration(n.RetryMaxDelay)
	return retry.NewPolicy(retry.Mode(n.RetryBackoff), initial, maxDelay, n.MaxRetries)
}

// Identity parses the editor section.
func (c *Config) Identity() (version.Identity, error) {
	e := c.Editor
	running, err := versioning.ParseTuple(e.RunningVersion)
	if err != nil {
		return version.Identity{}, fmt.Errorf("invalid editor.running_version: %w", err)
	}
	minimum, err := versioning.ParseTuple(e.MinSupportedVersion)
	if err != nil {
		return version.Identity{}, fmt.Errorf("invalid editor.min_supported_version: %w", err)
	}
	if running.Less(minimum) {
		return version.Identity{}, fmt.Errorf("editor.min_supported_version %s is newer than running_version %s", minimum, running)
	}
	frontEnd, err := versioning.ParseAssetVersion(e.FrontEndVersion)
	if err != nil {
		return version.Identity{}, fmt.Errorf("invalid editor.front_end_version: %w", err)
	}
	u, err := url.Parse(e.RootURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return version.Identity{}, fmt.Errorf("editor.root_url must be an absolute URL: %q", e.RootURL)
	}
	return version.Identity{
		Running:      running,
		MinSupported: minimum,
		FrontEnd:     frontEnd,
		RootURL:      e.RootURL,
	}, nil
}

// DebounceDuration returns the parsed watch debounce.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 2 * time.Second
	}
	return d
}
