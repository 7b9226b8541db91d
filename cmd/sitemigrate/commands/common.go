package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitemigrate/internal/config"
	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrate/internal/history"
	"git.home.luguber.info/inful/sitemigrate/internal/metrics"
	"git.home.luguber.info/inful/sitemigrate/internal/notify"
	"git.home.luguber.info/inful/sitemigrate/internal/runner"
	"git.home.luguber.info/inful/sitemigrate/internal/storage"
	"git.home.luguber.info/inful/sitemigrate/internal/upgrade"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitemigrate.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Upgrade UpgradeCmd `cmd:"" help:"Upgrade one saved website"`
	Check   CheckCmd   `cmd:"" help:"Show the saved version and classification of websites"`
	Batch   BatchCmd   `cmd:"" help:"Upgrade many saved websites concurrently"`
	Watch   WatchCmd   `cmd:"" help:"Watch the documents directory and upgrade websites as they change"`
	History HistoryCmd `cmd:"" help:"List recorded upgrade runs"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`

	cfg    *config.Config `kong:"-"`
	cfgErr error          `kong:"-"`
}

// AfterApply runs after flag parsing; it loads configuration and sets up
// logging once. A configuration error is reported by the first command that
// needs it.
func (c *CLI) AfterApply(g *Global) error {
	c.cfg, c.cfgErr = config.Load(c.Config)
	lc := config.LoggingConfig{Level: config.LogLevelInfo, Format: config.LogFormatText}
	if c.cfgErr == nil {
		lc = c.cfg.Monitoring.Logging
	}
	logger := config.NewLogger(os.Stderr, lc, c.Verbose)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return nil
}

// LoadedConfig returns the configuration loaded during AfterApply.
func (c *CLI) LoadedConfig() (*config.Config, error) {
	if c.cfg == nil && c.cfgErr == nil {
		c.cfg, c.cfgErr = config.Load(c.Config)
	}
	if c.cfgErr != nil {
		return nil, errors.WrapError(c.cfgErr, errors.CategoryConfig, "could not load configuration").
			WithContext("path", c.Config).Build()
	}
	return c.cfg, nil
}

// env is the set of collaborators a command runs with.
type env struct {
	cfg      *config.Config
	store    *storage.FSStore
	history  *history.SQLiteStore
	notifier *notify.Notifier
	runner   *runner.Runner
	registry *prom.Registry
	logger   *slog.Logger
}

type envOptions struct {
	history bool
	notify  bool
	metrics bool
}

func (c *CLI) newEnv(g *Global, opts envOptions) (*env, error) {
	cfg, err := c.LoadedConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.Default()
	if g != nil && g.Logger != nil {
		logger = g.Logger
	}
	id, err := cfg.Identity()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid editor identity").Build()
	}

	e := &env{cfg: cfg, logger: logger}
	e.store, err = storage.NewFSStore(cfg.Storage.DocumentsDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "could not open documents directory").
			WithContext("dir", cfg.Storage.DocumentsDir).Build()
	}

	upOpts := []upgrade.Option{upgrade.WithLogger(logger)}
	if opts.metrics {
		e.registry = prom.NewRegistry()
		upOpts = append(upOpts, upgrade.WithRecorder(metrics.NewPrometheusRecorder(e.registry)))
	}
	runOpts := []runner.Option{runner.WithLogger(logger)}

	if opts.history {
		e.history, err = history.NewSQLiteStore(cfg.Storage.HistoryDB)
		if err != nil {
			_ = e.close()
			return nil, errors.WrapError(err, errors.CategoryStorage, "could not open run history").
				WithContext("path", cfg.Storage.HistoryDB).Build()
		}
		runOpts = append(runOpts, runner.WithHistory(e.history))
	}

	var pub notify.Publisher = notify.NoopPublisher{}
	if opts.notify && cfg.Notify.Enabled {
		np, err := notify.NewNATSPublisher(&cfg.Notify)
		if err != nil {
			// Events are best effort; upgrades proceed without them.
			logger.Warn("Upgrade events disabled", slog.String("error", err.Error()))
		} else {
			pub = np
		}
	}
	e.notifier = notify.NewNotifier(pub, logger).WithRetry(cfg.Notify.RetryPolicy())
	runOpts = append(runOpts, runner.WithNotifier(e.notifier))

	e.runner = runner.New(e.store, upgrade.New(id, upOpts...), runOpts...)
	return e, nil
}

func (e *env) close() error {
	var first error
	if e.notifier != nil {
		first = e.notifier.Close()
	}
	if e.history != nil {
		if err := e.history.Close(); err != nil && first == nil {
			first = err
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
