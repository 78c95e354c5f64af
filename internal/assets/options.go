package assets

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/docsite/internal/bundle"
)

const (
	packageNamespace = "entry"
	defaultAssetName = "assets/[name]-[hash]"

	// Same snippet esbuild documents for live reload against its /esbuild event stream
	liveReload = `new EventSource('/esbuild').addEventListener('change', () => location.reload());`
)

// Extensions checked against every rule test
var knownExtensions = []string{
	".js", ".jsx", ".mjs", ".cjs",
	".css", ".scss", ".sass",
	".html", ".ejs",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp",
	".woff", ".woff2", ".eot", ".ttf", ".otf",
}

var kindLoaders = map[bundle.RuleKind]api.Loader{
	bundle.RuleScript:     api.LoaderJSX,
	bundle.RuleStylesheet: api.LoaderCSS,
	bundle.RuleMarkup:     api.LoaderText,
	bundle.RuleTemplate:   api.LoaderText,
	bundle.RuleImage:      api.LoaderFile,
	bundle.RuleFont:       api.LoaderFile,
}

var hashPlaceholder = regexp.MustCompile(`\[(?:chunkhash|contenthash|hash)(?::\d+)?\]`)

// Options translates cfg into esbuild build options. esbuild runs in the
// configuration context and every path is made absolute.
func Options(cfg bundle.Config) (api.BuildOptions, error) {
	root, err := filepath.Abs(cfg.Context)
	if err != nil {
		return api.BuildOptions{}, err
	}

	loaders, err := rulesToLoaders(cfg.Module.Rules, cfg.Resolve.Extensions)
	if err != nil {
		return api.BuildOptions{}, err
	}

	entries, packages := entryPoints(cfg)

	alias := make(map[string]string, len(cfg.Resolve.Alias))
	for name, target := range cfg.Resolve.Alias {
		alias[name] = absPath(target)
	}

	opts := api.BuildOptions{
		AbsWorkingDir:       root,
		EntryPointsAdvanced: entries,
		Bundle:              true,
		Metafile:            true,
		Format:              api.FormatESModule,
		Platform:            api.PlatformBrowser,
		JSX:                 api.JSXAutomatic,
		Outdir:              absPath(cfg.Output.Path),
		PublicPath:          cfg.Output.PublicPath,
		EntryNames:          esbuildPattern(cfg.Output.Filename),
		ChunkNames:          chunkPattern(cfg.Output.ChunkFilename),
		AssetNames:          defaultAssetName,
		Loader:              loaders,
		Alias:               alias,
		ResolveExtensions:   cfg.Resolve.Extensions,
		Sourcemap:           sourceMap(cfg.Devtool),
		LogLevel:            api.LogLevelSilent,
	}

	if len(packages) > 0 {
		opts.Plugins = append(opts.Plugins, packageEntries(root, packages))
	}

	for _, plugin := range cfg.Plugins {
		switch plugin := plugin.(type) {
		case bundle.DefinePlugin:
			opts.Define = plugin.Definitions
		case bundle.HotReloadPlugin:
			opts.Banner = map[string]string{"js": liveReload}
		case bundle.CommonsChunkPlugin:
			opts.Splitting = true
		case bundle.MinifyPlugin:
			opts.MinifyWhitespace = true
			opts.MinifyIdentifiers = true
			opts.MinifySyntax = true
			opts.TreeShaking = cond(plugin.DeadCode, api.TreeShakingTrue, api.TreeShakingDefault)
			if !plugin.Comments {
				opts.LegalComments = api.LegalCommentsNone
			}
			if !plugin.SourceMap {
				opts.Sourcemap = api.SourceMapNone
			}
		}
	}

	return opts, nil
}

// entryPoints maps source entries to files and collects package list
// entries, which are loaded from the package entry namespace.
func entryPoints(cfg bundle.Config) ([]api.EntryPoint, map[string][]string) {
	var (
		entries  []api.EntryPoint
		packages = map[string][]string{}
	)

	for _, name := range cfg.Chunks() {
		entry := cfg.Entry[name]
		if entry.Packages != nil {
			packages[name] = entry.Packages
			entries = append(entries, api.EntryPoint{InputPath: packageNamespace + ":" + name, OutputPath: name})
			continue
		}
		entries = append(entries, api.EntryPoint{InputPath: absPath(entry.Source), OutputPath: name})
	}

	return entries, packages
}

// entryKeys maps the entry point recorded in the metafile to its chunk name.
func entryKeys(cfg bundle.Config, root string) map[string]string {
	keys := make(map[string]string, len(cfg.Entry))
	for name, entry := range cfg.Entry {
		if entry.Packages != nil {
			keys[packageNamespace+":"+name] = name
			continue
		}
		keys[relative(root, absPath(entry.Source))] = name
	}
	return keys
}

func rulesToLoaders(rules []bundle.Rule, extensions []string) (map[string]api.Loader, error) {
	candidates := slices.Clone(knownExtensions)
	for _, ext := range extensions {
		if !slices.Contains(candidates, ext) {
			candidates = append(candidates, ext)
		}
	}

	loaders := map[string]api.Loader{}
	for _, rule := range rules {
		test, err := regexp.Compile(rule.Test)
		if err != nil {
			return nil, fmt.Errorf("invalid test for %s rule: %w", rule.Kind, err)
		}
		if rule.Exclude != "" {
			if _, err := regexp.Compile(rule.Exclude); err != nil {
				return nil, fmt.Errorf("invalid exclude for %s rule: %w", rule.Kind, err)
			}
		}

		loader, ok := kindLoaders[rule.Kind]
		if !ok {
			continue
		}

		for _, ext := range candidates {
			if _, set := loaders[ext]; set {
				continue
			}
			if test.MatchString("file" + ext) {
				loaders[ext] = loader
			}
		}
	}

	return loaders, nil
}

// esbuildPattern converts an output filename such as js/[name].[chunkhash].js
// into esbuild's extensionless form js/[name].[hash].
func esbuildPattern(pattern string) string {
	if pattern == "" {
		return ""
	}
	pattern = strings.TrimSuffix(pattern, path.Ext(pattern))
	return hashPlaceholder.ReplaceAllString(pattern, "[hash]")
}

// chunkPattern is esbuildPattern for shared chunks. esbuild names every
// shared chunk "chunk", so a hash is appended when the pattern has none.
func chunkPattern(pattern string) string {
	pattern = esbuildPattern(pattern)
	if pattern == "" || strings.Contains(pattern, "[hash]") {
		return pattern
	}
	return pattern + "-[hash]"
}

func sourceMap(devtool string) api.SourceMap {
	switch {
	case devtool == "" || devtool == "false" || devtool == "none":
		return api.SourceMapNone
	case strings.Contains(devtool, "eval"), strings.Contains(devtool, "inline"):
		return api.SourceMapInline
	case strings.HasPrefix(devtool, "hidden"):
		return api.SourceMapExternal
	default:
		return api.SourceMapLinked
	}
}

// absPath resolves paths from the bundle configuration, which are already
// joined with the project root.
func absPath(p string) string {
	if p == "" {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

// relative returns p relative to root using forward slashes, matching the
// keys esbuild writes to the metafile.
func relative(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
