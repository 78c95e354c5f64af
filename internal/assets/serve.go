package assets

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/docsite/internal/bundle"
)

// Serve builds into memory, serves the outputs and the content base on the
// dev server address and rebuilds on every change until ctx is cancelled.
func (p *Pipeline) Serve(ctx context.Context) error {
	server := p.config.Bundle.DevServer
	if server == nil {
		return ErrNoDevServer
	}

	opts, err := p.options(ctx)
	if err != nil {
		return err
	}

	// esbuild only serves in-memory outputs located below the served directory
	contentBase := absPath(server.ContentBase)
	if err := os.MkdirAll(contentBase, 0o755); err != nil {
		return err
	}
	opts.Outdir = contentBase

	l := layout{root: p.root, outdir: contentBase, publicPath: opts.PublicPath}
	opts.Plugins = append(opts.Plugins, p.pagesPlugin(l))

	bctx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		logMessages(nil, ctxErr.Errors)
		return ErrBuildFailed
	}
	defer bctx.Dispose()

	if err := bctx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("failed to watch sources: %w", err)
	}

	serveOpts := api.ServeOptions{
		Host:      server.Host,
		Port:      server.Port,
		Servedir:  contentBase,
		OnRequest: logRequest,
	}
	if server.HistoryAPIFallback {
		serveOpts.Fallback = filepath.Join(contentBase, p.fallbackPage())
	}

	result, err := bctx.Serve(serveOpts)
	if err != nil {
		return fmt.Errorf("failed to start dev server: %w", err)
	}

	p.mu.Lock()
	if len(result.Hosts) > 0 {
		p.addr = net.JoinHostPort(result.Hosts[0], strconv.Itoa(int(result.Port)))
	}
	p.mu.Unlock()

	log.Info().
		Strs("hosts", result.Hosts).
		Int("port", int(result.Port)).
		Str("content_base", contentBase).
		Bool("hot", server.Hot).
		Msg("Serving assets")

	stop, err := watchTemplates(ctx, p.templates(), func() {
		log.Info().Msg("Template changed, rebuilding")
		bctx.Rebuild()
	})
	if err != nil {
		return fmt.Errorf("failed to watch templates: %w", err)
	}
	defer stop() //nolint:errcheck

	<-ctx.Done()
	log.Info().Msg("Stopping dev server")

	p.mu.Lock()
	p.addr = ""
	p.mu.Unlock()
	return nil
}

// Addr returns the host:port the dev server listens on, empty when it is
// not running.
func (p *Pipeline) Addr() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.addr
}

// pagesPlugin regenerates the HTML pages in the content base after each
// successful build.
func (p *Pipeline) pagesPlugin(l layout) api.Plugin {
	return api.Plugin{
		Name: "html-pages",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				logMessages(result.Warnings, result.Errors)
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}

				metadata, err := parseMetadata(result.Metafile)
				if err != nil {
					return api.OnEndResult{}, err
				}

				p.mu.Lock()
				defer p.mu.Unlock()

				pages, err := p.renderPages(metadata, l)
				if err != nil {
					return api.OnEndResult{}, err
				}
				for key, doc := range pages {
					if err := writeFile(l.file(key), doc); err != nil {
						return api.OnEndResult{}, err
					}
				}

				p.metadata = metadata
				p.layout = l

				log.Info().Int("outputs", len(metadata.Outputs)).Msg("Rebuilt assets")
				return api.OnEndResult{}, nil
			})
		},
	}
}

func (p *Pipeline) templates() []string {
	var templates []string
	for _, plugin := range p.config.Bundle.Plugins {
		if htmlPlugin, ok := plugin.(bundle.HTMLPlugin); ok {
			templates = append(templates, absPath(htmlPlugin.Template))
		}
	}
	return templates
}

func (p *Pipeline) fallbackPage() string {
	if htmlPlugin, ok := bundle.Find[bundle.HTMLPlugin](p.config.Bundle.Plugins); ok {
		return htmlPlugin.Filename
	}
	return "index.html"
}

// watchTemplates calls rebuild whenever one of the templates is written.
func watchTemplates(ctx context.Context, templates []string, rebuild func()) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// editors replace files, so watch the directories
	var dirs []string
	for _, template := range templates {
		if dir := filepath.Dir(template); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if slices.Contains(templates, filepath.Clean(event.Name)) {
					rebuild()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("Template watcher error")
			}
		}
	}()

	return watcher.Close, nil
}

func logRequest(args api.ServeOnRequestArgs) {
	event := log.Debug()
	if args.Status >= 400 {
		event = log.Warn()
	}
	event.
		Str("method", args.Method).
		Str("path", args.Path).
		Int("status", args.Status).
		Int("duration_ms", args.TimeInMS).
		Str("remote", args.RemoteAddress).
		Msg("dev server request")
}
