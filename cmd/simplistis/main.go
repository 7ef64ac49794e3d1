package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/simplistis/cmd/simplistis/commands"
	serrors "git.home.luguber.info/inful/simplistis/internal/errors"
	"git.home.luguber.info/inful/simplistis/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("simplistis"),
		kong.Description("Build a static HTML site from a directory of Markdown content and templates."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		commands.Vars(),
	)

	global := &commands.Global{Stdout: os.Stdout, Stderr: os.Stderr}
	if err := ctx.Run(global); err != nil {
		logger := global.Logger
		if logger == nil {
			logger = slog.Default()
		}
		serrors.NewCLIErrorAdapter(cli.Verbose, logger).HandleError(err)
	}
}
