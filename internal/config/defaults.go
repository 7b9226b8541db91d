package config

import (
	"git.home.luguber.info/inful/sitemigrate/internal/version"
)

// Defaults for optional settings.
const (
	DefaultDocumentsDir  = "./websites"
	DefaultHistoryDB     = "./sitemigrate-history.db"
	DefaultConcurrency   = 4
	DefaultWatchSchedule = "*/15 * * * *"
	DefaultDebounce      = "2s"
	DefaultWorkers       = 2
	DefaultNATSURL       = "nats://127.0.0.1:4222"
	DefaultSubject       = "sitemigrate.upgrades"
	DefaultKVBucket      = "sitemigrate-documents"
	DefaultRetryBackoff  = "linear"
	DefaultRetryInitial  = "1s"
	DefaultRetryMax      = "30s"
	DefaultMetricsListen = ":9464"
	DefaultMetricsPath   = "/metrics"
)

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}

	e := &cfg.Editor
	if e.RunningVersion == "" {
		e.RunningVersion = version.DefaultRunning
	}
	if e.MinSupportedVersion == "" {
		e.MinSupportedVersion = version.DefaultMinSupported
	}
	if e.FrontEndVersion == "" {
		e.FrontEndVersion = version.DefaultFrontEnd
	}
	if e.RootURL == "" {
		e.RootURL = version.DefaultRootURL
	}

	if cfg.Storage.DocumentsDir == "" {
		cfg.Storage.DocumentsDir = DefaultDocumentsDir
	}
	if cfg.Storage.HistoryDB == "" {
		cfg.Storage.HistoryDB = DefaultHistoryDB
	}
	if cfg.Upgrade.Concurrency <= 0 {
		cfg.Upgrade.Concurrency = DefaultConcurrency
	}

	if cfg.Watch.Schedule == "" {
		cfg.Watch.Schedule = DefaultWatchSchedule
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultDebounce
	}
	if cfg.Watch.Workers <= 0 {
		cfg.Watch.Workers = DefaultWorkers
	}

	if cfg.Notify.NATSURL == "" {
		cfg.Notify.NATSURL = DefaultNATSURL
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultSubject
	}
	if cfg.Notify.KVBucket == "" {
		cfg.Notify.KVBucket = DefaultKVBucket
	}
	if cfg.Notify.MaxRetries < 0 {
		cfg.Notify.MaxRetries = 0
	}
	if cfg.Notify.RetryBackoff == "" {
		cfg.Notify.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Notify.RetryInitialDelay == "" {
		cfg.Notify.RetryInitialDelay = DefaultRetryInitial
	}
	if cfg.Notify.RetryMaxDelay == "" {
		cfg.Notify.RetryMaxDelay = DefaultRetryMax
	}

	if cfg.Monitoring.Metrics.Listen == "" {
		cfg.Monitoring.Metrics.Listen = DefaultMetricsListen
	}
	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = LogLevelInfo
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = LogFormatText
	}
}
