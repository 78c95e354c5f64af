package assets

import (
	"fmt"
	"html"
	"strings"

	"github.com/tdewolff/minify/v2"
	minifyhtml "github.com/tdewolff/minify/v2/html"
	"github.com/wolfeidau/docsite/internal/bundle"
)

// page lists the URLs injected into a generated HTML page.
type page struct {
	Styles   []string
	Preloads []string
	Scripts  []string
}

// renderHTML injects the page assets into template. Stylesheets and module
// preloads go before </head>, scripts before </body> unless the plugin
// injects into the head.
func renderHTML(plugin bundle.HTMLPlugin, template []byte, pg page, buildHash string) ([]byte, error) {
	closing := cond(plugin.XHTML, " />", ">")
	query := cond(plugin.Hash && buildHash != "", "?"+buildHash, "")

	var head, scripts strings.Builder
	for _, href := range pg.Styles {
		fmt.Fprintf(&head, `<link href="%s" rel="stylesheet"%s`, html.EscapeString(href+query), closing)
	}
	for _, href := range pg.Preloads {
		fmt.Fprintf(&head, `<link rel="modulepreload" href="%s"%s`, html.EscapeString(href+query), closing)
	}
	for _, src := range pg.Scripts {
		fmt.Fprintf(&scripts, `<script type="module" src="%s"></script>`, html.EscapeString(src+query))
	}

	doc := string(template)
	if plugin.Inject == "head" {
		doc = inject(doc, "</head>", head.String()+scripts.String())
	} else {
		doc = inject(doc, "</head>", head.String())
		doc = inject(doc, "</body>", scripts.String())
	}

	if !plugin.RemoveComments {
		return []byte(doc), nil
	}
	return stripComments([]byte(doc))
}

// inject places snippet before the last marker, or appends it when the
// marker is missing.
func inject(doc, marker, snippet string) string {
	if snippet == "" {
		return doc
	}
	i := strings.LastIndex(strings.ToLower(doc), marker)
	if i < 0 {
		return doc + snippet
	}
	return doc[:i] + snippet + doc[i:]
}

func stripComments(doc []byte) ([]byte, error) {
	m := minify.New()
	m.Add("text/html", &minifyhtml.Minifier{
		KeepDefaultAttrVals: true,
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
		KeepWhitespace:      true,
	})

	out, err := m.Bytes("text/html", doc)
	if err != nil {
		return nil, fmt.Errorf("failed to remove html comments: %w", err)
	}
	return out, nil
}
