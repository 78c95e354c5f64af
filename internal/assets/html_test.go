package assets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/docsite/internal/bundle"
)

const testTemplate = `<!DOCTYPE html>
<html>
<head>
<title>Components</title>
<!-- page comment -->
</head>
<body>
<div id="root"></div>
</body>
</html>
`

func TestRenderHTML_InjectsIntoBody(t *testing.T) {
	plugin := bundle.HTMLPlugin{Filename: "index.html", Inject: "body"}
	pg := page{
		Styles:   []string{"/react/css/index.css"},
		Preloads: []string{"/react/js/chunk.js"},
		Scripts:  []string{"/react/js/vendor.js", "/react/js/index.js"},
	}

	out, err := renderHTML(plugin, []byte(testTemplate), pg, "abcd1234")
	require.NoError(t, err)
	doc := string(out)

	head := strings.Index(doc, "</head>")
	body := strings.Index(doc, "</body>")
	style := strings.Index(doc, `<link href="/react/css/index.css" rel="stylesheet">`)
	preload := strings.Index(doc, `<link rel="modulepreload" href="/react/js/chunk.js">`)
	vendor := strings.Index(doc, `<script type="module" src="/react/js/vendor.js"></script>`)
	index := strings.Index(doc, `<script type="module" src="/react/js/index.js"></script>`)

	require.Greater(t, style, 0)
	require.Less(t, style, head)
	require.Less(t, preload, head)
	require.Greater(t, vendor, head)
	require.Less(t, vendor, index)
	require.Less(t, index, body)
	require.Contains(t, doc, "<!-- page comment -->")
}

func TestRenderHTML_HeadInjectXHTMLAndHash(t *testing.T) {
	plugin := bundle.HTMLPlugin{Inject: "head", XHTML: true, Hash: true}
	pg := page{
		Styles:  []string{"/css/index.css"},
		Scripts: []string{"/js/index.js"},
	}

	out, err := renderHTML(plugin, []byte(testTemplate), pg, "abcd1234")
	require.NoError(t, err)
	doc := string(out)

	head := strings.Index(doc, "</head>")
	require.Less(t, strings.Index(doc, `src="/js/index.js?abcd1234"`), head)
	require.Contains(t, doc, `<link href="/css/index.css?abcd1234" rel="stylesheet" />`)
}

func TestRenderHTML_AppendsWithoutBody(t *testing.T) {
	plugin := bundle.HTMLPlugin{Inject: "body"}
	out, err := renderHTML(plugin, []byte(`<div id="root"></div>`), page{Scripts: []string{"/js/index.js"}}, "")
	require.NoError(t, err)
	require.Equal(t, `<div id="root"></div><script type="module" src="/js/index.js"></script>`, string(out))
}

func TestRenderHTML_RemoveComments(t *testing.T) {
	plugin := bundle.HTMLPlugin{Inject: "body", RemoveComments: true}
	out, err := renderHTML(plugin, []byte(testTemplate), page{Scripts: []string{"/js/index.js"}}, "")
	require.NoError(t, err)

	doc := string(out)
	require.NotContains(t, doc, "page comment")
	require.Contains(t, doc, "/js/index.js")
	require.Contains(t, doc, "<title>Components</title>")
}

func TestInject(t *testing.T) {
	require.Equal(t, "<BODY>x</BODY>", inject("<BODY></BODY>", "</body>", "x"))
	require.Equal(t, "doc", inject("doc", "</body>", ""))
	require.Equal(t, "docx", inject("doc", "</body>", "x"))
}
