package commands

import (
	"context"
	"os"

	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrate/internal/runner"
)

// UpgradeCmd implements the 'upgrade' command.
type UpgradeCmd struct {
	Name   string `arg:"" help:"Name of the saved website (file name without .html)"`
	DryRun bool   `help:"Show what would change without saving"`
	Report string `short:"r" help:"Write the HTML upgrade report to this file"`
}

func (u *UpgradeCmd) Run(g *Global, root *CLI) error {
	e, err := root.newEnv(g, envOptions{history: !u.DryRun, notify: !u.DryRun})
	if err != nil {
		return err
	}
	defer func() { _ = e.close() }()

	out, err := e.runner.Upgrade(context.Background(), u.Name, u.DryRun)
	if err != nil {
		return err
	}
	printOutcome(g, out, u.DryRun)

	if u.Report != "" && out.Result.Report != "" {
		if err := os.WriteFile(u.Report, []byte(out.Result.Report), 0o644); err != nil {
			return errors.WrapError(err, errors.CategoryStorage, "could not write upgrade report").
				WithContext("path", u.Report).Build()
		}
	}
	return nil
}

func printOutcome(g *Global, out *runner.Outcome, dryRun bool) {
	w := g.out()
	if out.Err != nil {
		printf(w, "%s: failed: %v\n", out.Name, out.Err)
		return
	}
	res := out.Result
	state := "unchanged"
	switch {
	case out.Saved:
		state = "saved"
	case dryRun && res.Changed():
		state = "would change"
	}
	printf(w, "%s: %s -> %s (%s), %d steps, %d repairs, %d assets, %s\n",
		out.Name, res.Saved, res.Running, res.Classification,
		len(res.Steps), len(res.Fixups), res.Assets.Rewritten, state)
	if dryRun {
		for _, s := range res.Steps {
			printf(w, "  %s %s\n", s.Target, s.Name)
			for _, a := range s.Actions {
				printf(w, "    - %s\n", a)
			}
		}
		for _, f := range res.Fixups {
			printf(w, "  repair: %s\n", f)
		}
	}
}
