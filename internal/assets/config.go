package assets

import (
	"github.com/wolfeidau/docsite/internal/bundle"
	"github.com/wolfeidau/docsite/internal/settings"
)

type Config struct {
	// Bundle is the configuration the pipeline executes
	Bundle bundle.Config
	// Path to metafile (relative to the bundle output path)
	Metafile string
	// Whether to write gzip copies of text outputs
	Precompress bool
	// Lint command override, detected when empty
	Lint []string
	// Dart Sass executable, looked up on PATH when empty
	SassBinary string
}

// NewConfig builds the pipeline configuration for mode from settings.
func NewConfig(mode settings.Mode, s settings.Settings) Config {
	return Config{
		Bundle:      bundle.Build(mode, s),
		Metafile:    s.Project.Metafile,
		Precompress: s.Project.Precompress,
		Lint:        s.Project.Lint,
		SassBinary:  s.Project.SassBinary,
	}
}
