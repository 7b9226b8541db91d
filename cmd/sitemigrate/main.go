package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitemigrate/cmd/sitemigrate/commands"
	"git.home.luguber.info/inful/sitemigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrate/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Out: os.Stdout}
	parser := kong.Parse(cli,
		kong.Name("sitemigrate"),
		kong.Description("Upgrade saved websites to the current editor format."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
		kong.Bind(global),
	)

	err := parser.Run(cli)
	os.Exit(errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err))
}
