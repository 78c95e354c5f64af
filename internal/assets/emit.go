package assets

import (
	"cmp"
	"context"
	"maps"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/docsite/internal/bundle"
	"golang.org/x/sync/errgroup"
)

// layout maps metafile keys, which are relative to the working directory,
// to output locations and public URLs.
type layout struct {
	root       string
	outdir     string
	publicPath string
}

// url returns the public URL of the output stored under key.
func (l layout) url(key string) string {
	return l.publicPath + relative(l.outdir, filepath.Join(l.root, filepath.FromSlash(key)))
}

// key returns the metafile key of a path relative to the output directory.
func (l layout) key(name string) string {
	return path.Join(relative(l.root, l.outdir), name)
}

func (l layout) file(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

type assetRule struct {
	test *regexp.Regexp
	name string
}

// emitter moves esbuild outputs to the names the configuration asks for
// and writes them to disk.
type emitter struct {
	layout
	extract     *bundle.ExtractCSSPlugin
	assets      []assetRule
	names       map[string]string
	precompress bool
}

func newEmitter(cfg Config, l layout) (*emitter, error) {
	e := &emitter{
		layout:      l,
		names:       entryKeys(cfg.Bundle, l.root),
		precompress: cfg.Precompress,
	}

	if extract, ok := bundle.Find[bundle.ExtractCSSPlugin](cfg.Bundle.Plugins); ok {
		e.extract = &extract
	}

	for _, rule := range cfg.Bundle.Module.Rules {
		if rule.Kind != bundle.RuleImage && rule.Kind != bundle.RuleFont {
			continue
		}
		name := rule.OutputName()
		if name == "" {
			continue
		}
		test, err := regexp.Compile(rule.Test)
		if err != nil {
			return nil, err
		}
		e.assets = append(e.assets, assetRule{test: test, name: name})
	}

	return e, nil
}

func (e *emitter) collect(outputs []api.OutputFile) map[string][]byte {
	files := make(map[string][]byte, len(outputs))
	for _, out := range outputs {
		files[relative(e.root, out.Path)] = out.Contents
	}
	return files
}

// relocations returns the new key of every output that has to move: CSS
// bundles follow the extraction pattern and file loader outputs follow the
// name of the image or font rule matching their source.
func (e *emitter) relocations(metadata *BuildMetadata, files map[string][]byte) map[string]string {
	moves := map[string]string{}

	for key, info := range metadata.Outputs {
		if info.CSSBundle != "" && e.extract != nil {
			if name, ok := e.names[info.EntryPoint]; ok {
				moves[info.CSSBundle] = e.key(renderName(e.extract.Filename, name, "css", files[info.CSSBundle]))
			}
			continue
		}

		if info.EntryPoint != "" || isCode(key) || len(info.Inputs) != 1 {
			continue
		}
		if e.publicPath == "" {
			log.Debug().Str("file", key).Msg("No public path, leaving asset in place")
			continue
		}

		for input := range info.Inputs {
			for _, rule := range e.assets {
				if !rule.test.MatchString(input) {
					continue
				}
				ext := path.Ext(input)
				base := strings.TrimSuffix(path.Base(input), ext)
				moves[key] = e.key(renderName(rule.name, base, strings.TrimPrefix(ext, "."), files[key]))
				break
			}
		}
	}

	sourceMaps := map[string]string{}
	for old, moved := range moves {
		if _, ok := files[old+".map"]; ok {
			sourceMaps[old+".map"] = moved + ".map"
		}
	}
	for old, moved := range sourceMaps {
		moves[old] = moved
	}

	return moves
}

// relocate applies moves to files and metadata, rewriting references to
// the moved outputs in every script and stylesheet.
func (e *emitter) relocate(moves map[string]string, metadata *BuildMetadata, files map[string][]byte) {
	if len(moves) == 0 {
		return
	}

	// longest first so a URL never matches the prefix of a longer one
	olds := slices.SortedFunc(maps.Keys(moves), func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})

	var pairs []string
	for _, old := range olds {
		moved := moves[old]
		pairs = append(pairs, e.url(old), e.url(moved))
		if strings.HasSuffix(old, ".map") {
			pairs = append(pairs, "sourceMappingURL="+path.Base(old), "sourceMappingURL="+path.Base(moved))
		}
	}
	replacer := strings.NewReplacer(pairs...)

	for key, contents := range files {
		if strings.HasSuffix(key, ".js") || strings.HasSuffix(key, ".css") {
			files[key] = []byte(replacer.Replace(string(contents)))
		}
	}

	for old, moved := range moves {
		if contents, ok := files[old]; ok {
			delete(files, old)
			files[moved] = contents
		}
	}

	rename := func(key string) string {
		if moved, ok := moves[key]; ok {
			return moved
		}
		return key
	}

	outputs := make(map[string]OutputInfo, len(metadata.Outputs))
	for key, info := range metadata.Outputs {
		info.CSSBundle = rename(info.CSSBundle)
		for i := range info.Imports {
			info.Imports[i].Path = rename(info.Imports[i].Path)
		}
		outputs[rename(key)] = info
	}
	metadata.Outputs = outputs
}

// write stores every file below the working directory, adding gzip copies
// of text files when precompression is enabled.
func (e *emitter) write(ctx context.Context, files map[string][]byte) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for key, contents := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			dst := e.file(key)
			if err := writeFile(dst, contents); err != nil {
				return err
			}
			if e.precompress && compressible(key) {
				return writeGzip(dst+".gz", contents)
			}
			return nil
		})
	}

	return g.Wait()
}

func writeFile(dst string, contents []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, contents, 0o644) //nolint:gosec
}

func writeGzip(dst string, contents []byte) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()

	zw, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		return err
	}
	if _, err := zw.Write(contents); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

func isCode(key string) bool {
	switch path.Ext(key) {
	case ".js", ".mjs", ".css", ".map":
		return true
	}
	return false
}

func compressible(key string) bool {
	switch path.Ext(key) {
	case ".js", ".css", ".html", ".svg", ".json", ".map":
		return true
	}
	return false
}
