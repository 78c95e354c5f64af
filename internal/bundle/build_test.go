package bundle

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/docsite/internal/settings"
)

func TestBuild_Development(t *testing.T) {
	s := settings.Defaults()
	cfg := Build(settings.Development, s)

	require.Equal(t, settings.Development, cfg.Mode)
	require.Equal(t, map[string]Entry{
		ChunkIndex: {Source: "examples/index.js"},
	}, cfg.Entry)

	require.NotNil(t, cfg.DevServer)
	require.Equal(t, s.Development.Port, cfg.DevServer.Port)
	require.Equal(t, "127.0.0.1", cfg.DevServer.Host)
	require.Equal(t, "dist", cfg.DevServer.ContentBase)
	require.True(t, cfg.DevServer.Hot)
	require.True(t, cfg.DevServer.HistoryAPIFallback)

	require.Equal(t, 1, Count[HotReloadPlugin](cfg.Plugins))
	require.Zero(t, Count[ExtractCSSPlugin](cfg.Plugins))
	require.Zero(t, Count[CommonsChunkPlugin](cfg.Plugins))
	require.Zero(t, Count[MinifyPlugin](cfg.Plugins))

	page, ok := Find[HTMLPlugin](cfg.Plugins)
	require.True(t, ok)
	require.Equal(t, []string{ChunkIndex}, page.Chunks)
	require.Equal(t, "examples/index.html", page.Template)
	require.Equal(t, "body", page.Inject)

	require.Equal(t, "cheap-module-eval-source-map", cfg.Devtool)
}

func TestBuild_EmptyModeIsDevelopment(t *testing.T) {
	s := settings.Defaults()
	require.Equal(t, Build(settings.Development, s), Build("", s))
}

func TestBuild_Production(t *testing.T) {
	s := settings.Defaults()

	for _, mode := range []settings.Mode{settings.Production, settings.Mode("staging")} {
		t.Run(mode.String(), func(t *testing.T) {
			cfg := Build(mode, s)

			require.ElementsMatch(t, []string{ChunkIndex, ChunkVendor, ChunkCommon}, cfg.Chunks())
			require.Equal(t, "examples/index.js", cfg.Entry[ChunkIndex].Source)
			require.Equal(t, s.Project.Vendor, cfg.Entry[ChunkVendor].Packages)
			require.Equal(t, s.Project.Common, cfg.Entry[ChunkCommon].Packages)

			require.Nil(t, cfg.DevServer)
			require.Zero(t, Count[HotReloadPlugin](cfg.Plugins))

			require.Equal(t, 1, Count[CommonsChunkPlugin](cfg.Plugins))
			commons, _ := Find[CommonsChunkPlugin](cfg.Plugins)
			require.Equal(t, []string{ChunkVendor, ChunkCommon}, commons.Names)

			require.Equal(t, 1, Count[MinifyPlugin](cfg.Plugins))
			minify, _ := Find[MinifyPlugin](cfg.Plugins)
			require.True(t, minify.DeadCode)
			require.False(t, minify.SourceMap)

			page, ok := Find[HTMLPlugin](cfg.Plugins)
			require.True(t, ok)
			require.Equal(t, []string{ChunkVendor, ChunkCommon, ChunkIndex}, page.Chunks)

			require.Equal(t, 1, Count[ExtractCSSPlugin](cfg.Plugins))
		})
	}
}

func TestBuild_PluginOrder(t *testing.T) {
	s := settings.Defaults()

	names := func(cfg Config) []string {
		out := []string{}
		for _, p := range cfg.Plugins {
			out = append(out, p.Name())
		}
		return out
	}

	require.Equal(t,
		[]string{"define", "hot-module-replacement", "html"},
		names(Build(settings.Development, s)))
	require.Equal(t,
		[]string{"define", "extract-css", "commons-chunk", "html", "minify"},
		names(Build(settings.Production, s)))
}

func TestBuild_DefineStampsMode(t *testing.T) {
	s := settings.Defaults()

	for _, mode := range []settings.Mode{settings.Development, settings.Production} {
		cfg := Build(mode, s)
		define, ok := Find[DefinePlugin](cfg.Plugins)
		require.True(t, ok)
		require.Equal(t, `"`+mode.String()+`"`, define.Definitions["process.env.NODE_ENV"])
		require.Equal(t, "define", cfg.Plugins[0].Name())
	}
}

func TestBuild_Idempotent(t *testing.T) {
	s := settings.Defaults()

	for _, mode := range []settings.Mode{settings.Development, settings.Production} {
		require.Equal(t, Build(mode, s), Build(mode, s))
	}
}

func TestBuild_DoesNotShareSettingsSlices(t *testing.T) {
	s := settings.Defaults()
	cfg := Build(settings.Production, s)

	cfg.Entry[ChunkVendor].Packages[0] = "preact"
	cfg.Resolve.Alias["components"] = "elsewhere"

	require.Equal(t, "react", s.Project.Vendor[0])
	require.Equal(t, "react", Build(settings.Production, s).Entry[ChunkVendor].Packages[0])
	require.Equal(t, "components", s.Project.Aliases["components"])
}

var hashToken = regexp.MustCompile(`\[(chunkhash|contenthash|hash)(:\d+)?\]`)

func TestBuild_FilenamePatterns(t *testing.T) {
	tests := []struct {
		name string
		hash bool
	}{
		{name: "hashed", hash: true},
		{name: "plain", hash: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings.Defaults()
			s.Production.FilenameHash = tt.hash
			cfg := Build(settings.Production, s)

			extract, _ := Find[ExtractCSSPlugin](cfg.Plugins)
			patterns := []string{cfg.Output.Filename, cfg.Output.ChunkFilename, extract.Filename}
			for _, r := range cfg.Module.Rules {
				if name := r.OutputName(); name != "" {
					patterns = append(patterns, name)
				}
			}

			for _, p := range patterns {
				require.Contains(t, p, "[name]")
				require.Equal(t, tt.hash, hashToken.MatchString(p), p)
			}

			if !tt.hash {
				require.Equal(t, "js/[name].js", cfg.Output.Filename)
				require.Equal(t, "css/[name].css", extract.Filename)
			} else {
				require.Equal(t, "js/[name].[chunkhash].js", cfg.Output.Filename)
				require.Equal(t, "css/[name].[contenthash:8].css", extract.Filename)
			}
		})
	}
}

func TestBuild_Rules(t *testing.T) {
	s := settings.Defaults()

	dev := Build(settings.Development, s).Module.Rules
	prod := Build(settings.Production, s).Module.Rules
	require.Len(t, dev, len(prod))

	for i := range dev {
		require.Equal(t, dev[i].Kind, prod[i].Kind)
		require.Equal(t, dev[i].Test, prod[i].Test)
		_, err := regexp.Compile(dev[i].Test)
		require.NoError(t, err)
	}

	matches := func(rules []Rule, kind RuleKind, file string) bool {
		for _, r := range rules {
			if r.Kind == kind && regexp.MustCompile(r.Test).MatchString(file) {
				return true
			}
		}
		return false
	}

	require.True(t, matches(prod, RuleScript, "button.jsx"))
	require.True(t, matches(prod, RuleLint, "button.js"))
	require.True(t, matches(prod, RuleStylesheet, "theme.scss"))
	require.True(t, matches(prod, RuleImage, "logo.svg"))
	require.True(t, matches(prod, RuleFont, "icons.woff2"))
	require.True(t, matches(prod, RuleFont, "icons.ttf?v=4"))
	require.False(t, matches(prod, RuleImage, "icons.woff"))

	var lint []Rule
	for _, r := range prod {
		if r.Kind == RuleLint {
			lint = append(lint, r)
		}
	}
	require.Len(t, lint, 1)
	require.Equal(t, "pre", lint[0].Enforce)
	require.Equal(t, nodeModules, lint[0].Exclude)

	last := prod[len(prod)-1]
	require.True(t, last.Extract)
	require.Equal(t, "style-loader", last.Fallback)
	require.False(t, dev[len(dev)-1].Extract)
	require.True(t, dev[len(dev)-1].Uses("style-loader"))

	images := prod[4]
	require.Equal(t, "images/[name].[hash:8].[ext]", images.OutputName())
}

func TestBuild_Resolve(t *testing.T) {
	s := settings.Defaults()
	s.Project.Root = "/src/site"

	cfg := Build(settings.Production, s)
	require.Equal(t, map[string]string{"components": "/src/site/components"}, cfg.Resolve.Alias)
	require.Equal(t, []string{".js", ".jsx"}, cfg.Resolve.Extensions)
	require.Equal(t, "/src/coocssweb.github.io/react", cfg.Output.Path)
	require.Equal(t, "/react/", cfg.Output.PublicPath)
	require.Equal(t, "/src/site/examples/index.js", cfg.Entry[ChunkIndex].Source)
}

func TestConfig_JSON(t *testing.T) {
	cfg := Build(settings.Production, settings.Defaults())

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	entry := decoded["entry"].(map[string]any)
	require.Equal(t, "examples/index.js", entry["index"])
	require.Equal(t, []any{"react", "react-router-dom", "react-dom"}, entry["vendor"])

	plugins := decoded["plugins"].([]any)
	require.Len(t, plugins, 5)
	first := plugins[0].(map[string]any)
	require.Equal(t, "define", first["name"])

	_, hasDevServer := decoded["devServer"]
	require.False(t, hasDevServer)
	require.True(t, strings.HasPrefix(decoded["output"].(map[string]any)["filename"].(string), "js/"))
}
