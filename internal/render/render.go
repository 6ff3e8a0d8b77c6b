// Package render turns note Markdown into HTML previews.
package render

import (
	"bytes"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// EmptyPlaceholder is rendered in place of empty content.
const EmptyPlaceholder = "_Nothing to preview_"

// LinkResolver maps a wikilink target to its href and whether the note exists.
type LinkResolver interface {
	ResolveWikilink(target string) (href string, exists bool)
}

type LinkResolverFunc func(target string) (string, bool)

func (f LinkResolverFunc) ResolveWikilink(target string) (string, bool) { return f(target) }

type Options struct {
	Owner string
	Links LinkResolver
}

type Renderer struct {
	md        goldmark.Markdown
	baseURL   string
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

var stateKey = parser.NewContextKey()

type renderState struct {
	baseURL string
	opts    Options
}

func New(baseURL string) *Renderer {
	r := &Renderer{
		baseURL:   strings.TrimRight(baseURL, "/"),
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		style:     styles.Get("github-dark"),
	}
	r.md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			wikilinkExtension{},
			codeExtension{formatter: r.formatter, style: r.style},
		),
	)
	return r
}

func (r *Renderer) BaseURL() string {
	return r.baseURL
}

// Render converts content to an HTML fragment.
func (r *Renderer) Render(content string, opts Options) (string, error) {
	if strings.TrimSpace(content) == "" {
		content = EmptyPlaceholder
	}
	pc := parser.NewContext()
	pc.Set(stateKey, &renderState{baseURL: r.baseURL, opts: opts})
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf, parser.WithContext(pc)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteCSS writes the stylesheet for highlighted code blocks.
func (r *Renderer) WriteCSS(w io.Writer) error {
	return r.formatter.WriteCSS(w, r.style)
}

func (r *Renderer) RewriteImageReferences(content, owner string) string {
	return RewriteImageReferences(content, r.baseURL, owner)
}

type refTransformer struct{}

func (t *refTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	st, _ := pc.Get(stateKey).(*renderState)
	if st == nil {
		return
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *Wikilink:
			if st.opts.Links != nil {
				node.Href, node.Exists = st.opts.Links.ResolveWikilink(node.Target)
			}
		case *ast.Image:
			dest := string(node.Destination)
			if st.opts.Owner != "" && IsLocalImage(dest) {
				node.Destination = []byte(ImageURL(st.baseURL, st.opts.Owner, dest))
			}
		}
		return ast.WalkContinue, nil
	})
}
