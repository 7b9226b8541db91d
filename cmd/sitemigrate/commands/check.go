package commands

import (
	"context"

	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Names []string `arg:"" optional:"" help:"Saved websites to check (default: all)"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	e, err := root.newEnv(g, envOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = e.close() }()

	ctx := context.Background()
	names := c.Names
	if len(names) == 0 {
		if names, err = e.store.List(ctx); err != nil {
			return errors.WrapError(err, errors.CategoryStorage, "could not list saved websites").Build()
		}
	}
	w := g.out()
	var firstErr error
	for _, name := range names {
		saved, class, err := e.runner.Check(ctx, name)
		if err != nil {
			printf(w, "%s\terror\t%v\n", name, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		printf(w, "%s\t%s\t%s\n", name, saved, class)
	}
	return firstErr
}
