package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Mode
		wantErr  bool
	}{
		{name: "empty defaults to development", input: "", expected: Development},
		{name: "development", input: "development", expected: Development},
		{name: "production", input: "production", expected: Production},
		{name: "mixed case with spaces", input: " Production ", expected: Production},
		{name: "unknown mode", input: "staging", wantErr: true},
		{name: "abbreviation", input: "prod", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, mode)
		})
	}
}

func TestSettings_For(t *testing.T) {
	s := Defaults()

	require.Equal(t, s.Development, s.For(Development))
	require.Equal(t, s.Production, s.For(Production))
	require.Equal(t, s.Production, s.For(Mode("staging")))
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	require.Equal(t, Defaults(), s)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsite.yml")
	data := `
project:
  output_dir: build
  vendor: [react, react-dom]
development:
  port: 3000
production:
  static_path: /docs/
  filename_hash: false
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	s, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "build", s.Project.OutputDir)
	require.Equal(t, []string{"react", "react-dom"}, s.Project.Vendor)
	require.Equal(t, 3000, s.Development.Port)
	require.Equal(t, "/docs/", s.Production.StaticPath)
	require.False(t, s.Production.FilenameHash)

	// untouched values keep their defaults
	require.Equal(t, "examples/index.js", s.Project.Entry)
	require.Equal(t, Defaults().Project.Common, s.Project.Common)
	require.Equal(t, "images/", s.Production.ImagesPath)
}

func TestParse_Aliases(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected map[string]string
	}{
		{
			name:     "defaults kept when absent",
			doc:      "project:\n  entry: src/index.js\n",
			expected: map[string]string{"components": "components"},
		},
		{
			name:     "replaced when present",
			doc:      "project:\n  aliases:\n    ui: src/ui\n",
			expected: map[string]string{"ui": "src/ui"},
		},
		{
			name:     "cleared when null",
			doc:      "project:\n  aliases:\n",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			require.Equal(t, tt.expected, s.Project.Aliases)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("project: [unterminated"))
	require.Error(t, err)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		mutate  func(s *Settings)
		wantErr bool
	}{
		{name: "defaults in development", mode: Development},
		{name: "defaults in production", mode: Production},
		{
			name:    "missing entry",
			mode:    Production,
			mutate:  func(s *Settings) { s.Project.Entry = "" },
			wantErr: true,
		},
		{
			name:    "port out of range in development",
			mode:    Development,
			mutate:  func(s *Settings) { s.Development.Port = 70000 },
			wantErr: true,
		},
		{
			name:   "port ignored in production",
			mode:   Production,
			mutate: func(s *Settings) { s.Development.Port = 0 },
		},
		{
			name:    "empty vendor list in production",
			mode:    Production,
			mutate:  func(s *Settings) { s.Project.Vendor = nil },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			err := s.Validate(tt.mode)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidSettings)
				return
			}
			require.NoError(t, err)
		})
	}
}
