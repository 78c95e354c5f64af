package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultFile = "docsite.yml"

// Mode selects the development or production branch of the build.
type Mode string

const (
	Development Mode = "development"
	Production  Mode = "production"
)

// ParseMode converts a mode name into a Mode, an empty name means development.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Development:
		return Development, nil
	case Production:
		return Production, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) String() string {
	return string(m)
}

// Environment holds the options scoped to a single mode.
type Environment struct {
	// Prefix used for every asset URL in the generated output
	StaticPath string `yaml:"static_path"`
	// Whether output file names carry a content hash
	FilenameHash bool `yaml:"filename_hash"`
	// Dev server port
	Port int `yaml:"port"`
	// Source map verbosity, empty disables source maps
	Devtool string `yaml:"devtool"`
	// Output prefix for images and fonts emitted by the file loaders
	ImagesPath string `yaml:"images_path"`
	FontsPath  string `yaml:"fonts_path"`
}

// Project holds the options shared by every mode.
type Project struct {
	Root        string            `yaml:"root"`
	Entry       string            `yaml:"entry"`
	Template    string            `yaml:"template"`
	OutputDir   string            `yaml:"output_dir"`
	ContentBase string            `yaml:"content_base"`
	Aliases     map[string]string `yaml:"aliases"`
	// Framework packages bundled into the vendor chunk, in order
	Vendor []string `yaml:"vendor"`
	// UI utility packages bundled into the common chunk, in order
	Common []string `yaml:"common"`
	// Metafile is written relative to OutputDir
	Metafile    string `yaml:"metafile"`
	Precompress bool   `yaml:"precompress"`
	// Lint overrides the eslint command, e.g. ["npx", "eslint"]
	Lint []string `yaml:"lint"`
	// SassBinary is the Dart Sass executable, looked up on PATH when empty
	SassBinary string `yaml:"sass_binary"`
}

// Settings is the record every build reads its options from.
type Settings struct {
	Project     Project     `yaml:"project"`
	Development Environment `yaml:"development"`
	Production  Environment `yaml:"production"`
}

// For returns the environment options for mode. Any mode other than
// development reads the production options.
func (s Settings) For(mode Mode) Environment {
	if mode == Development {
		return s.Development
	}
	return s.Production
}

// Validate checks the values every build depends on.
func (s Settings) Validate(mode Mode) error {
	var problems []string

	if s.Project.Entry == "" {
		problems = append(problems, "project.entry is required")
	}
	if s.Project.Template == "" {
		problems = append(problems, "project.template is required")
	}
	if s.Project.OutputDir == "" {
		problems = append(problems, "project.output_dir is required")
	}

	if mode == Development {
		if s.Development.Port <= 0 || s.Development.Port > 65535 {
			problems = append(problems, fmt.Sprintf("development.port %d is out of range", s.Development.Port))
		}
		if s.Project.ContentBase == "" {
			problems = append(problems, "project.content_base is required in development")
		}
	} else {
		if len(s.Project.Vendor) == 0 {
			problems = append(problems, "project.vendor must list at least one package")
		}
		if len(s.Project.Common) == 0 {
			problems = append(problems, "project.common must list at least one package")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}

// Load reads settings from a YAML file layered over Defaults.
// If path is empty, it tries DefaultFile. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return Settings{}, err
	}

	return Parse(data)
}

// Parse decodes YAML settings layered over Defaults. Lists and the alias
// map replace their defaults when present.
func Parse(data []byte) (Settings, error) {
	var present struct {
		Project struct {
			Aliases yaml.Node `yaml:"aliases"`
		} `yaml:"project"`
	}
	if err := yaml.Unmarshal(data, &present); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}

	s := Defaults()
	if present.Project.Aliases.Kind != 0 {
		s.Project.Aliases = nil
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

// Defaults returns the settings of the component library demo site.
func Defaults() Settings {
	return Settings{
		Project: Project{
			Root:        ".",
			Entry:       "examples/index.js",
			Template:    "examples/index.html",
			OutputDir:   "../coocssweb.github.io/react",
			ContentBase: "dist",
			Aliases: map[string]string{
				"components": "components",
			},
			Vendor: []string{"react", "react-router-dom", "react-dom"},
			Common: []string{
				"prism-react-renderer",
				"classnames",
				"react-transition-group",
				"styled-components",
				"prop-types",
			},
			Metafile: "meta.json",
		},
		Development: Environment{
			StaticPath: "/",
			Port:       8080,
			Devtool:    "cheap-module-eval-source-map",
			ImagesPath: "images/",
			FontsPath:  "fonts/",
		},
		Production: Environment{
			StaticPath:   "/react/",
			FilenameHash: true,
			ImagesPath:   "images/",
			FontsPath:    "fonts/",
		},
	}
}
