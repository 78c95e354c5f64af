package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/docsite/internal/logger"
	"github.com/wolfeidau/docsite/internal/settings"
)

type Globals struct {
	Debug   bool
	Version string
}

// loadSettings reads and validates the settings file for mode.
func loadSettings(path string, mode string) (settings.Mode, settings.Settings, error) {
	m, err := settings.ParseMode(mode)
	if err != nil {
		return "", settings.Settings{}, err
	}

	s, err := settings.Load(path)
	if err != nil {
		return "", settings.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	if err := s.Validate(m); err != nil {
		return "", settings.Settings{}, err
	}

	log.Logger = logger.WithMode(log.Logger, m.String())
	log.Debug().Str("settings", path).Str("root", s.Project.Root).Msg("Loaded settings")

	return m, s, nil
}
