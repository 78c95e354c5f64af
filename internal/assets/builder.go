package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/docsite/internal/bundle"
)

// Build runs esbuild with the configured settings, writes the outputs and
// generated pages, and loads metadata
func (p *Pipeline) Build(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	opts, err := p.options(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Str("mode", p.config.Bundle.Mode.String()).
		Strs("entrypoints", p.config.Bundle.Chunks()).
		Str("outdir", opts.Outdir).
		Msg("Building assets")

	result := api.Build(opts)
	logMessages(result.Warnings, result.Errors)
	if len(result.Errors) > 0 {
		return ErrBuildFailed
	}

	metadata, err := parseMetadata(result.Metafile)
	if err != nil {
		return fmt.Errorf("failed to parse metafile: %w", err)
	}

	l := layout{root: p.root, outdir: opts.Outdir, publicPath: opts.PublicPath}
	em, err := newEmitter(p.config, l)
	if err != nil {
		return err
	}

	files := em.collect(result.OutputFiles)
	em.relocate(em.relocations(metadata, files), metadata, files)

	pages, err := p.renderPages(metadata, l)
	if err != nil {
		return err
	}
	maps.Copy(files, pages)

	if p.config.Metafile != "" {
		data, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		files[l.key(p.config.Metafile)] = data
	}

	if err := em.write(ctx, files); err != nil {
		return fmt.Errorf("failed to write outputs: %w", err)
	}

	for _, key := range slices.Sorted(maps.Keys(files)) {
		log.Info().Str("file", key).Msg("Built file")
	}

	p.metadata = metadata
	p.layout = l
	return nil
}

// options extends the translated configuration with the plugins that need
// pipeline state.
func (p *Pipeline) options(ctx context.Context) (api.BuildOptions, error) {
	opts, err := Options(p.config.Bundle)
	if err != nil {
		return api.BuildOptions{}, err
	}

	if lint := newLinter(p.config.Bundle, p.root, p.config.Lint); lint != nil {
		opts.Plugins = append(opts.Plugins, lint.plugin(ctx))
	}

	for _, rule := range p.config.Bundle.Module.Rules {
		if rule.Kind == bundle.RuleStylesheet && rule.Uses("sass-loader") {
			opts.Plugins = append(opts.Plugins, p.sass.plugin(p.root, opts.MinifyWhitespace))
			break
		}
	}

	return opts, nil
}

// LoadScripts returns the ordered list of script URLs needed for the given chunk
// and the URL of the chunk's entry script
func (p *Pipeline) LoadScripts(chunk string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, "", ErrNotBuilt
	}

	return p.loadScripts(p.metadata, p.layout, chunk)
}

func (p *Pipeline) loadScripts(metadata *BuildMetadata, l layout, chunk string) ([]string, string, error) {
	keys := entryKeys(p.config.Bundle, p.root)

	// Find the script output for this chunk
	for outputPath, info := range metadata.Outputs {
		if keys[info.EntryPoint] != chunk || !strings.HasSuffix(outputPath, ".js") {
			continue
		}

		entrypoint := l.url(outputPath)
		scripts := []string{entrypoint}
		visited := map[string]bool{outputPath: true}
		addDependencies(metadata, info, l, &scripts, visited)
		return scripts, entrypoint, nil
	}

	return nil, "", fmt.Errorf("%w: %s", ErrNoEntryOutput, chunk)
}

func addDependencies(metadata *BuildMetadata, output OutputInfo, l layout, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.External || imp.Kind != "import-statement" || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true
		*scripts = append(*scripts, l.url(imp.Path))

		if chunkInfo, exists := metadata.Outputs[imp.Path]; exists {
			addDependencies(metadata, chunkInfo, l, scripts, visited)
		}
	}
}

// stylesheet returns the URL of the CSS bundle of a chunk, if any.
func (p *Pipeline) stylesheet(metadata *BuildMetadata, l layout, chunk string) string {
	keys := entryKeys(p.config.Bundle, p.root)
	for _, info := range metadata.Outputs {
		if keys[info.EntryPoint] == chunk && info.CSSBundle != "" {
			return l.url(info.CSSBundle)
		}
	}
	return ""
}

// renderPages renders every HTML plugin of the configuration, keyed by
// output location.
func (p *Pipeline) renderPages(metadata *BuildMetadata, l layout) (map[string][]byte, error) {
	pages := map[string][]byte{}
	buildHash := contentHash([]byte(strings.Join(slices.Sorted(maps.Keys(metadata.Outputs)), "\n")))

	for _, plugin := range p.config.Bundle.Plugins {
		htmlPlugin, ok := plugin.(bundle.HTMLPlugin)
		if !ok {
			continue
		}

		template, err := os.ReadFile(absPath(htmlPlugin.Template))
		if err != nil {
			return nil, fmt.Errorf("failed to read html template: %w", err)
		}

		var pg page
		seen := map[string]bool{}
		for _, chunk := range htmlPlugin.Chunks {
			scripts, entrypoint, err := p.loadScripts(metadata, l, chunk)
			if err != nil {
				return nil, err
			}
			if css := p.stylesheet(metadata, l, chunk); css != "" {
				pg.Styles = append(pg.Styles, css)
			}
			pg.Scripts = append(pg.Scripts, entrypoint)
			seen[entrypoint] = true
			for _, dep := range scripts[1:] {
				if !seen[dep] {
					seen[dep] = true
					pg.Preloads = append(pg.Preloads, dep)
				}
			}
		}

		// a chunk entry listed later in the page must not be preloaded as well
		pg.Preloads = slices.DeleteFunc(pg.Preloads, func(url string) bool {
			return slices.Contains(pg.Scripts, url)
		})

		doc, err := renderHTML(htmlPlugin, template, pg, buildHash[:8])
		if err != nil {
			return nil, err
		}
		pages[l.key(htmlPlugin.Filename)] = doc
	}

	return pages, nil
}

func logMessages(warnings, errors []api.Message) {
	for _, msg := range warnings {
		log.Warn().Str("plugin", msg.PluginName).Str("warning", msg.Text).Str("file", location(msg)).Msg("Build warning")
	}
	for _, msg := range errors {
		log.Error().Str("plugin", msg.PluginName).Str("error", msg.Text).Str("file", location(msg)).Msg("Build error")
	}
}

func location(msg api.Message) string {
	if msg.Location == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", msg.Location.File, msg.Location.Line, msg.Location.Column)
}
