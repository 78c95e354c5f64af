package commands

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/docsite/internal/assets"
)

type BuildCmd struct {
	Mode     string `help:"Build mode" enum:"development,production" default:"production" env:"NODE_ENV"`
	Settings string `help:"Path to the settings file" default:"docsite.yml" env:"DOCSITE_SETTINGS" type:"path"`
}

func (b *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	started := time.Now()

	mode, s, err := loadSettings(b.Settings, b.Mode)
	if err != nil {
		return err
	}

	pipeline, err := assets.New(assets.NewConfig(mode, s))
	if err != nil {
		return err
	}
	defer pipeline.Close()

	if err := pipeline.Build(ctx); err != nil {
		return err
	}

	log.Info().
		Str("version", globals.Version).
		Dur("duration", time.Since(started)).
		Msg("Build complete")

	return nil
}
