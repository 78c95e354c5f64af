package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/bep/godartsass/v2"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/docsite/internal/bundle"
)

// packageEntries turns entry:<name> into a module importing each listed
// package in order, so a package list can be used as an entry point.
func packageEntries(root string, packages map[string][]string) api.Plugin {
	return api.Plugin{
		Name: "package-entries",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^` + packageNamespace + `:`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{
						Path:      strings.TrimPrefix(args.Path, packageNamespace+":"),
						Namespace: packageNamespace,
					}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: packageNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					list, ok := packages[args.Path]
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("no packages listed for entry %q", args.Path)
					}

					var b strings.Builder
					for _, pkg := range list {
						fmt.Fprintf(&b, "import %s;\n", strconv.Quote(pkg))
					}
					contents := b.String()

					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: root,
						Loader:     api.LoaderJS,
					}, nil
				})
		},
	}
}

// linter runs eslint once per build over the source directories.
type linter struct {
	command   []string
	formatter string
	dirs      []string
	root      string
}

// newLinter returns nil when the configuration has no lint rule or no
// eslint command can be found.
func newLinter(cfg bundle.Config, root string, override []string) *linter {
	var rule *bundle.Rule
	for i := range cfg.Module.Rules {
		if cfg.Module.Rules[i].Kind == bundle.RuleLint {
			rule = &cfg.Module.Rules[i]
			break
		}
	}
	if rule == nil {
		return nil
	}

	command := override
	if len(command) == 0 {
		command = findESLint(root)
	}
	if len(command) == 0 {
		log.Debug().Msg("eslint not found, skipping lint")
		return nil
	}

	formatter, _ := rule.Option("formatter")
	name, _ := formatter.(string)

	var dirs []string
	for _, chunk := range cfg.Chunks() {
		if src := cfg.Entry[chunk].Source; src != "" {
			dirs = append(dirs, filepath.Dir(absPath(src)))
		}
	}
	for _, target := range cfg.Resolve.Alias {
		dirs = append(dirs, absPath(target))
	}

	return &linter{
		command:   command,
		formatter: name,
		dirs:      dirs,
		root:      root,
	}
}

func findESLint(root string) []string {
	local := filepath.Join(root, "node_modules", ".bin", "eslint")
	if _, err := os.Stat(local); err == nil {
		return []string{local}
	}
	if path, err := exec.LookPath("eslint"); err == nil {
		return []string{path}
	}
	return nil
}

func (l *linter) args() []string {
	args := append([]string{}, l.command[1:]...)
	if l.formatter != "" {
		args = append(args, "--format", l.formatter)
	}
	args = append(args, "--ext", ".js,.jsx")

	seen := map[string]bool{}
	for _, dir := range l.dirs {
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		args = append(args, dir)
	}
	return args
}

// run reports lint findings as warnings, they never fail the build.
func (l *linter) run(ctx context.Context) []api.Message {
	cmd := exec.CommandContext(ctx, l.command[0], l.args()...) //nolint:gosec
	cmd.Dir = l.root

	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return []api.Message{{PluginName: "eslint", Text: string(bytes.TrimSpace(out))}}
	}

	return []api.Message{{PluginName: "eslint", Text: fmt.Sprintf("eslint failed: %v: %s", err, bytes.TrimSpace(out))}}
}

func (l *linter) plugin(ctx context.Context) api.Plugin {
	return api.Plugin{
		Name: "eslint",
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				return api.OnStartResult{Warnings: l.run(ctx)}, nil
			})
		},
	}
}

var errSassClosed = errors.New("sass compiler closed")

// sassCompiler starts Dart Sass on first use and shares it across builds.
type sassCompiler struct {
	binary     string
	once       sync.Once
	transpiler *godartsass.Transpiler
	err        error
}

func newSassCompiler(binary string) *sassCompiler {
	return &sassCompiler{binary: binary}
}

func (c *sassCompiler) start() (*godartsass.Transpiler, error) {
	c.once.Do(func() {
		binary := c.binary
		if binary == "" {
			path, err := exec.LookPath("sass")
			if err != nil {
				c.err = fmt.Errorf("dart sass not found on PATH: %w", err)
				return
			}
			binary = path
		}

		c.transpiler, c.err = godartsass.Start(godartsass.Options{
			DartSassEmbeddedFilename: binary,
			LogEventHandler: func(event godartsass.LogEvent) {
				log.Warn().Str("sass", event.Message).Msg("Sass warning")
			},
		})
	})
	return c.transpiler, c.err
}

func (c *sassCompiler) compile(path string, nodeModules string, compressed bool) (string, error) {
	transpiler, err := c.start()
	if err != nil {
		return "", err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	syntax := godartsass.SourceSyntaxSCSS
	if filepath.Ext(path) == ".sass" {
		syntax = godartsass.SourceSyntaxSASS
	}

	result, err := transpiler.Execute(godartsass.Args{
		Source:       string(source),
		URL:          "file://" + filepath.ToSlash(path),
		SourceSyntax: syntax,
		OutputStyle:  cond(compressed, godartsass.OutputStyleCompressed, godartsass.OutputStyleExpanded),
		IncludePaths: []string{filepath.Dir(path), nodeModules},
	})
	if err != nil {
		return "", fmt.Errorf("failed to compile %s: %w", path, err)
	}
	return result.CSS, nil
}

// Close waits for a pending start and stops the transpiler. Later
// compiles fail instead of starting a new one.
func (c *sassCompiler) Close() error {
	c.once.Do(func() {
		c.err = errSassClosed
	})
	if c.transpiler == nil {
		return nil
	}
	return c.transpiler.Close()
}

func (c *sassCompiler) plugin(root string, compressed bool) api.Plugin {
	nodeModules := filepath.Join(root, "node_modules")

	return api.Plugin{
		Name: "sass",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.s[ac]ss$`},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					css, err := c.compile(args.Path, nodeModules, compressed)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					return api.OnLoadResult{
						Contents:   &css,
						ResolveDir: filepath.Dir(args.Path),
						Loader:     api.LoaderCSS,
					}, nil
				})
		},
	}
}
