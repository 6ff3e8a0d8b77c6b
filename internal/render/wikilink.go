package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var KindWikilink = ast.NewNodeKind("Wikilink")

// Wikilink is an inline [[target|display]] reference. Href and Exists are filled in before rendering.
type Wikilink struct {
	ast.BaseInline
	Target  string
	Display string
	Href    string
	Exists  bool
}

func (n *Wikilink) Kind() ast.NodeKind { return KindWikilink }

func (n *Wikilink) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Target":  n.Target,
		"Display": n.Display,
	}, nil)
}

type wikilinkParser struct{}

func (p *wikilinkParser) Trigger() []byte {
	return []byte{'['}
}

func (p *wikilinkParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 5 || line[0] != '[' || line[1] != '[' {
		return nil
	}
	end := bytes.Index(line[2:], []byte("]]"))
	if end < 0 {
		return nil
	}
	inner := line[2 : 2+end]
	if bytes.ContainsAny(inner, "[]") {
		return nil
	}
	target, display, _ := strings.Cut(string(inner), "|")
	target = strings.TrimSpace(target)
	if target == "" {
		return nil
	}
	block.Advance(end + 4)
	return &Wikilink{Target: target, Display: strings.TrimSpace(display)}
}

type wikilinkRenderer struct{}

func (r *wikilinkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindWikilink, r.render)
}

func (r *wikilinkRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*Wikilink)
	class := "wikilink"
	if !n.Exists {
		class = "wikilink wikilink-new"
	}
	label := n.Display
	if label == "" {
		label = n.Target
	}
	_, _ = w.WriteString(`<a class="` + class + `" href="`)
	_, _ = w.Write(util.EscapeHTML(util.URLEscape([]byte(n.Href), true)))
	_, _ = w.WriteString(`" data-target="`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Target)))
	_, _ = w.WriteString(`">`)
	_, _ = w.Write(util.EscapeHTML([]byte(label)))
	_, _ = w.WriteString(`</a>`)
	return ast.WalkSkipChildren, nil
}

type wikilinkExtension struct{}

func (e wikilinkExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		// Ahead of the standard link parser at 200.
		parser.WithInlineParsers(util.Prioritized(&wikilinkParser{}, 199)),
		parser.WithASTTransformers(util.Prioritized(&refTransformer{}, 100)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(&wikilinkRenderer{}, 199)),
	)
}
