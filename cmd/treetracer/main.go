package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/treetracer/cmd/treetracer/commands"
	"git.home.luguber.info/inful/treetracer/internal/version"

	ferrors "git.home.luguber.info/inful/treetracer/internal/foundation/errors"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("treetracer"),
		kong.Description("Trace the files passing through every stage of a tree build pipeline."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Logger: slog.Default(), Stdout: os.Stdout}
	err := parser.Run(global, cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
