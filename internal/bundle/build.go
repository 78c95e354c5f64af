package bundle

import (
	"maps"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/wolfeidau/docsite/internal/settings"
)

const (
	// Chunk names shared by the entries, HTML and chunk plugins
	ChunkIndex  = "index"
	ChunkVendor = "vendor"
	ChunkCommon = "common"

	devServerHost = "127.0.0.1"
	nodeModules   = `node_modules`
)

// Build returns the bundler configuration for mode. An empty mode means
// development and any other mode is built as production.
func Build(mode settings.Mode, s settings.Settings) Config {
	if mode == "" {
		mode = settings.Development
	}

	env := s.For(mode)
	project := s.Project
	dev := mode == settings.Development

	demo := resolve(project.Root, project.Entry)
	page := HTMLPlugin{
		Filename:       "index.html",
		Template:       resolve(project.Root, project.Template),
		Inject:         "body",
		RemoveComments: true,
	}

	define := []Plugin{
		DefinePlugin{Definitions: map[string]string{
			"process.env.NODE_ENV": strconv.Quote(mode.String()),
		}},
	}

	var (
		entry     map[string]Entry
		branch    []Plugin
		finish    []Plugin
		devServer *DevServer
	)

	if dev {
		page.Chunks = []string{ChunkIndex}
		branch = []Plugin{HotReloadPlugin{}, page}
		entry = map[string]Entry{
			ChunkIndex: {Source: demo},
		}
		devServer = &DevServer{
			ContentBase:        resolve(project.Root, project.ContentBase),
			Host:               devServerHost,
			Port:               env.Port,
			Hot:                true,
			DisableHostCheck:   true,
			HistoryAPIFallback: true,
		}
	} else {
		page.Chunks = []string{ChunkVendor, ChunkCommon, ChunkIndex}
		branch = []Plugin{
			ExtractCSSPlugin{
				Filename:  "css/" + hashed(env.FilenameHash, "[name].[contenthash:8]") + ".css",
				AllChunks: true,
			},
			CommonsChunkPlugin{Names: []string{ChunkVendor, ChunkCommon}},
			page,
		}
		entry = map[string]Entry{
			ChunkIndex:  {Source: demo},
			ChunkVendor: {Packages: slices.Clone(project.Vendor)},
			ChunkCommon: {Packages: slices.Clone(project.Common)},
		}
		finish = []Plugin{
			MinifyPlugin{DeadCode: true},
		}
	}

	scripts := "js/" + hashed(env.FilenameHash, "[name].[chunkhash]") + ".js"

	alias := make(map[string]string, len(project.Aliases))
	for name, target := range project.Aliases {
		alias[name] = resolve(project.Root, target)
	}

	return Config{
		Mode:    mode,
		Context: project.Root,
		Entry:   entry,
		Output: Output{
			Path:          resolve(project.Root, project.OutputDir),
			PublicPath:    env.StaticPath,
			Filename:      scripts,
			ChunkFilename: scripts,
		},
		Devtool: env.Devtool,
		Module:  Module{Rules: rules(dev, env)},
		Plugins: slices.Concat(define, branch, finish),
		Resolve: Resolve{
			Alias:      alias,
			Extensions: []string{".js", ".jsx"},
		},
		DevServer: devServer,
	}
}

func rules(dev bool, env settings.Environment) []Rule {
	assetName := hashed(env.FilenameHash, "[name].[hash:8]") + ".[ext]"

	styles := Rule{
		Kind: RuleStylesheet,
		Test: `\.(scss|css)$`,
		Use: []Use{
			{Loader: "style-loader"},
			{Loader: "css-loader"},
			{Loader: "sass-loader"},
			{Loader: "postcss-loader"},
		},
	}
	if !dev {
		styles = Rule{
			Kind:     RuleStylesheet,
			Test:     `\.(scss|css)$`,
			Extract:  true,
			Fallback: "style-loader",
			Use: []Use{
				{Loader: "css-loader", Options: map[string]any{"sourceMap": false, "minimize": true}},
				{Loader: "postcss-loader"},
				{Loader: "sass-loader", Options: map[string]any{"sourceMap": true}},
			},
		}
	}

	return []Rule{
		{
			Kind:    RuleScript,
			Test:    `\.jsx?$`,
			Exclude: nodeModules,
			Use: []Use{{Loader: "babel-loader", Options: map[string]any{
				"cacheDirectory": true,
				"plugins":        []string{"react-hot-loader/babel"},
			}}},
		},
		{
			Kind:    RuleLint,
			Test:    `\.jsx?$`,
			Exclude: nodeModules,
			Enforce: "pre",
			Use: []Use{{Loader: "eslint-loader", Options: map[string]any{
				"formatter": "eslint-friendly-formatter",
			}}},
		},
		{Kind: RuleMarkup, Test: `\.html$`, Use: []Use{{Loader: "html-loader"}}},
		{Kind: RuleTemplate, Test: `\.ejs$`, Use: []Use{{Loader: "ejs-loader"}}},
		{
			Kind: RuleImage,
			Test: `\.(png|jpg|gif|svg)$`,
			Use: []Use{{Loader: "url-loader", Options: map[string]any{
				"limit": 1,
				"name":  env.ImagesPath + assetName,
			}}},
		},
		{
			Kind: RuleFont,
			Test: `\.(woff2?|eot|ttf|otf)(\?.*)?$`,
			Use: []Use{{Loader: "file-loader", Options: map[string]any{
				"name": env.FontsPath + assetName,
			}}},
		},
		styles,
	}
}

func hashed(enabled bool, pattern string) string {
	if enabled {
		return pattern
	}
	return "[name]"
}

func resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// Chunks returns the entry names in a stable order.
func (c Config) Chunks() []string {
	return slices.Sorted(maps.Keys(c.Entry))
}
