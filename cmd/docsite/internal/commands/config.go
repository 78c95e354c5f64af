package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/wolfeidau/docsite/internal/bundle"
)

type ConfigCmd struct {
	Mode     string `help:"Build mode" enum:"development,production" default:"development" env:"NODE_ENV"`
	Settings string `help:"Path to the settings file" default:"docsite.yml" env:"DOCSITE_SETTINGS" type:"path"`
}

func (c *ConfigCmd) Run(ctx context.Context, globals *Globals) error {
	return c.print(os.Stdout)
}

func (c *ConfigCmd) print(w io.Writer) error {
	mode, s, err := loadSettings(c.Settings, c.Mode)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(bundle.Build(mode, s))
}
