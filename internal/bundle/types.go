package bundle

import (
	"encoding/json"

	"github.com/wolfeidau/docsite/internal/settings"
)

// Config describes a complete bundler run: what to read, how to transform it
// and where to write it.
type Config struct {
	Mode      settings.Mode    `json:"mode"`
	Context   string           `json:"context"`
	Entry     map[string]Entry `json:"entry"`
	Output    Output           `json:"output"`
	Devtool   string           `json:"devtool,omitempty"`
	Module    Module           `json:"module"`
	Plugins   Plugins          `json:"plugins"`
	Resolve   Resolve          `json:"resolve"`
	DevServer *DevServer       `json:"devServer,omitempty"`
}

// Entry is either a single source file or an ordered list of packages.
type Entry struct {
	Source   string
	Packages []string
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Packages != nil {
		return json.Marshal(e.Packages)
	}
	return json.Marshal(e.Source)
}

type Output struct {
	Path          string `json:"path"`
	PublicPath    string `json:"publicPath"`
	Filename      string `json:"filename"`
	ChunkFilename string `json:"chunkFilename"`
}

type Module struct {
	Rules []Rule `json:"rules"`
}

type Resolve struct {
	Alias      map[string]string `json:"alias"`
	Extensions []string          `json:"extensions"`
}

type DevServer struct {
	ContentBase        string `json:"contentBase"`
	Compress           bool   `json:"compress"`
	Host               string `json:"host"`
	Port               int    `json:"port"`
	Hot                bool   `json:"hot"`
	DisableHostCheck   bool   `json:"disableHostCheck"`
	HistoryAPIFallback bool   `json:"historyApiFallback"`
}

// RuleKind identifies which family of files a rule handles.
type RuleKind string

const (
	RuleScript     RuleKind = "script"
	RuleLint       RuleKind = "lint"
	RuleStylesheet RuleKind = "stylesheet"
	RuleMarkup     RuleKind = "markup"
	RuleTemplate   RuleKind = "template"
	RuleImage      RuleKind = "image"
	RuleFont       RuleKind = "font"
)

// Rule matches module file names against Test (a regular expression) and
// lists the loaders applied to them, last loader first.
type Rule struct {
	Kind    RuleKind `json:"kind"`
	Test    string   `json:"test"`
	Exclude string   `json:"exclude,omitempty"`
	// "pre" rules run before the normal rules for the same file
	Enforce string `json:"enforce,omitempty"`
	Use     []Use  `json:"use"`
	// Extract moves the rule's output into standalone files, Fallback is used when it cannot
	Extract  bool   `json:"extract,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

type Use struct {
	Loader  string         `json:"loader"`
	Options map[string]any `json:"options,omitempty"`
}

// Option returns the first value set for key across the rule's loaders.
func (r Rule) Option(key string) (any, bool) {
	for _, u := range r.Use {
		if v, ok := u.Options[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// OutputName returns the file name pattern of emitting loaders.
func (r Rule) OutputName() string {
	v, _ := r.Option("name")
	name, _ := v.(string)
	return name
}

// Uses reports whether the rule runs the named loader.
func (r Rule) Uses(loader string) bool {
	for _, u := range r.Use {
		if u.Loader == loader {
			return true
		}
	}
	return false
}
