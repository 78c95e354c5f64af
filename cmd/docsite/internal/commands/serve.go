package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/docsite/internal/assets"
	"github.com/wolfeidau/docsite/internal/settings"
)

type ServeCmd struct {
	Settings string `help:"Path to the settings file" default:"docsite.yml" env:"DOCSITE_SETTINGS" type:"path"`
	Port     int    `help:"Override the dev server port"`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	_, cfg, err := loadSettings(s.Settings, settings.Development.String())
	if err != nil {
		return err
	}
	if s.Port != 0 {
		cfg.Development.Port = s.Port
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := assets.New(assets.NewConfig(settings.Development, cfg))
	if err != nil {
		return err
	}
	defer pipeline.Close()

	log.Info().Str("version", globals.Version).Int("port", cfg.Development.Port).Msg("Starting dev server")

	return pipeline.Serve(ctx)
}
