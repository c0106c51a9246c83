package main

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/miguelinux314/trpx/internal/app"
	"github.com/miguelinux314/trpx/internal/config"
	"github.com/miguelinux314/trpx/internal/logging"
)

var (
	cli     config.Cli
	version = "dev"
	meta    = config.Meta{
		ID:   "trpx",
		Name: "Terse/Prolix",
		Desc: "Lossless compression for integer raster data",
		URL:  "https://github.com/miguelinux314/trpx",
	}
)

func main() {
	meta.Version = version

	ctx := kong.Parse(&cli,
		kong.Name(meta.ID),
		kong.Description(fmt.Sprintf("%s. More info: %s", meta.Desc, meta.URL)),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	// Logging
	logging.Configure(cli)

	var err error
	switch ctx.Command() {
	case "pack <source> <dest>":
		err = app.Pack(cli.Pack)
	case "unpack <source> <dest>":
		err = app.Unpack(cli.Unpack)
	case "info <source>":
		err = app.Info(cli.Info)
	default:
		err = errors.Errorf("unknown command %q", ctx.Command())
	}
	if err != nil {
		log.Fatal().Stack().Err(err).Send()
	}
}
