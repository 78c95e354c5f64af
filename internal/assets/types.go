package assets

import (
	"encoding/json"
	"path/filepath"
	"sync"
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	Bytes      int                  `json:"bytes"`
	EntryPoint string               `json:"entryPoint,omitempty"`
	CSSBundle  string               `json:"cssBundle,omitempty"`
	Imports    []ImportInfo         `json:"imports"`
	Inputs     map[string]InputInfo `json:"inputs"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

type InputInfo struct {
	BytesInOutput int `json:"bytesInOutput"`
}

func parseMetadata(metafile string) (*BuildMetadata, error) {
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(metafile), &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// Pipeline executes a bundle configuration with esbuild and tracks the
// outputs of the last build.
type Pipeline struct {
	config   Config
	root     string
	metadata *BuildMetadata
	layout   layout
	sass     *sassCompiler
	addr     string
	mu       sync.RWMutex
}

// New creates a new asset pipeline with the given configuration
func New(config Config) (*Pipeline, error) {
	root, err := filepath.Abs(config.Bundle.Context)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		config: config,
		root:   root,
		sass:   newSassCompiler(config.SassBinary),
	}, nil
}

// Close stops helper processes started by builds.
func (p *Pipeline) Close() error {
	return p.sass.Close()
}
