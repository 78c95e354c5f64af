package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/docsite/cmd/docsite/internal/commands"
	"github.com/wolfeidau/docsite/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode."`
		Version kong.VersionFlag
		Build   commands.BuildCmd  `cmd:"" help:"Bundle the demo site into the output directory"`
		Serve   commands.ServeCmd  `cmd:"" help:"Start the development server"`
		Config  commands.ConfigCmd `cmd:"" help:"Print the bundler configuration for a mode"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug, version)

	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
