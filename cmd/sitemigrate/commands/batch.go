package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
)

// BatchCmd implements the 'batch' command.
type BatchCmd struct {
	Names       []string `arg:"" optional:"" help:"Saved websites to upgrade (default: all)"`
	Concurrency int      `short:"j" help:"Maximum concurrent upgrades (default from config)"`
	DryRun      bool     `help:"Show what would change without saving"`
}

func (b *BatchCmd) Run(g *Global, root *CLI) error {
	e, err := root.newEnv(g, envOptions{history: !b.DryRun, notify: !b.DryRun})
	if err != nil {
		return err
	}
	defer func() { _ = e.close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	names := b.Names
	if len(names) == 0 {
		if names, err = e.store.List(ctx); err != nil {
			return errors.WrapError(err, errors.CategoryStorage, "could not list saved websites").Build()
		}
	}
	concurrency := b.Concurrency
	if concurrency <= 0 {
		concurrency = e.cfg.Upgrade.Concurrency
	}

	failed := 0
	for _, out := range e.runner.Batch(ctx, names, concurrency, b.DryRun) {
		printOutcome(g, out, b.DryRun)
		if out.Err != nil {
			failed++
		}
	}
	printf(g.out(), "%d websites, %d failed\n", len(names), failed)
	if failed > 0 {
		return errors.NewError(errors.CategoryRuntime, fmt.Sprintf("%d of %d websites could not be upgraded", failed, len(names))).Build()
	}
	return nil
}
