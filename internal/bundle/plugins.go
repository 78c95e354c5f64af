package bundle

import "encoding/json"

// Plugin is a build step applied around module transformation.
type Plugin interface {
	Name() string
}

// DefinePlugin replaces free identifiers with literal expressions.
type DefinePlugin struct {
	Definitions map[string]string `json:"definitions"`
}

func (DefinePlugin) Name() string { return "define" }

// HotReloadPlugin reloads the page whenever the bundle is rebuilt.
type HotReloadPlugin struct{}

func (HotReloadPlugin) Name() string { return "hot-module-replacement" }

// HTMLPlugin renders an HTML page referencing the listed chunks in order.
type HTMLPlugin struct {
	Filename       string   `json:"filename"`
	Template       string   `json:"template"`
	Chunks         []string `json:"chunks"`
	Hash           bool     `json:"hash"`
	Inject         string   `json:"inject"`
	XHTML          bool     `json:"xhtml"`
	RemoveComments bool     `json:"removeComments"`
}

func (HTMLPlugin) Name() string { return "html" }

// ExtractCSSPlugin writes stylesheets into their own files.
type ExtractCSSPlugin struct {
	Filename  string `json:"filename"`
	AllChunks bool   `json:"allChunks"`
}

func (ExtractCSSPlugin) Name() string { return "extract-css" }

// CommonsChunkPlugin factors modules shared between entries into the named chunks.
type CommonsChunkPlugin struct {
	Names []string `json:"names"`
}

func (CommonsChunkPlugin) Name() string { return "commons-chunk" }

// MinifyPlugin compresses the emitted scripts.
type MinifyPlugin struct {
	DeadCode  bool `json:"deadCode"`
	Warnings  bool `json:"warnings"`
	SourceMap bool `json:"sourceMap"`
	Comments  bool `json:"comments"`
}

func (MinifyPlugin) Name() string { return "minify" }

type Plugins []Plugin

func (p Plugins) MarshalJSON() ([]byte, error) {
	type named struct {
		Name    string `json:"name"`
		Options Plugin `json:"options"`
	}

	out := make([]named, 0, len(p))
	for _, plugin := range p {
		out = append(out, named{Name: plugin.Name(), Options: plugin})
	}
	return json.Marshal(out)
}

// Find returns the first plugin of type T.
func Find[T Plugin](plugins Plugins) (T, bool) {
	for _, p := range plugins {
		if v, ok := p.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Count returns how many plugins of type T are registered.
func Count[T Plugin](plugins Plugins) int {
	n := 0
	for _, p := range plugins {
		if _, ok := p.(T); ok {
			n++
		}
	}
	return n
}
