package commands

import (
	"context"
	"encoding/json"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Name  string `arg:"" optional:"" help:"Only show runs for this saved website"`
	Limit int    `short:"n" default:"20" help:"Maximum number of runs to show (0 for all)"`
	JSON  bool   `help:"Print runs as JSON"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	e, err := root.newEnv(g, envOptions{history: true})
	if err != nil {
		return err
	}
	defer func() { _ = e.close() }()

	runs, err := e.history.List(context.Background(), h.Name, h.Limit)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "could not read run history").Build()
	}

	if h.JSON {
		enc := json.NewEncoder(g.out())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	printf(tw, "TIME\tDOCUMENT\tSAVED\tRUNNING\tOUTCOME\tSTEPS\n")
	for _, r := range runs {
		printf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			r.Time.Local().Format(time.DateTime), r.Document, r.Saved, r.Running, r.Outcome, len(r.Steps))
	}
	return tw.Flush()
}
