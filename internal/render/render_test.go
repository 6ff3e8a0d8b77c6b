package render

import (
	"bytes"
	"strings"
	"testing"
)

func testResolver(known ...string) LinkResolver {
	set := map[string]bool{}
	for _, k := range known {
		set[strings.ToLower(k)] = true
	}
	return LinkResolverFunc(func(target string) (string, bool) {
		if set[strings.ToLower(target)] {
			return "/notes/" + strings.ToLower(target), true
		}
		return "/notes/new?title=" + target, false
	})
}

func TestRenderWikilinks(t *testing.T) {
	r := New("")
	out, err := r.Render("See [[Alpha]] and [[Beta|the beta note]].", Options{Links: testResolver("alpha")})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `<a class="wikilink" href="/notes/alpha" data-target="Alpha">Alpha</a>`) {
		t.Fatalf("expected existing wikilink anchor, got %s", out)
	}
	if !strings.Contains(out, `class="wikilink wikilink-new"`) || !strings.Contains(out, `>the beta note</a>`) {
		t.Fatalf("expected new wikilink with display text, got %s", out)
	}
}

func TestRenderEscapesWikilinkText(t *testing.T) {
	r := New("")
	out, err := r.Render("[[<script>]]", Options{Links: testResolver()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("expected escaped output, got %s", out)
	}
}

func TestRenderLeavesCodeAlone(t *testing.T) {
	r := New("")
	out, err := r.Render("`[[Inline]]`\n\n```\n[[Fenced]]\n```\n", Options{Links: testResolver()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "wikilink") {
		t.Fatalf("expected no wikilinks inside code, got %s", out)
	}
}

func TestRenderHighlightsFencedCode(t *testing.T) {
	r := New("")
	out, err := r.Render("```go\nfunc main() {}\n```\n", Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `class="chroma"`) {
		t.Fatalf("expected chroma markup, got %s", out)
	}
	var css bytes.Buffer
	if err := r.WriteCSS(&css); err != nil {
		t.Fatalf("css: %v", err)
	}
	if !strings.Contains(css.String(), ".chroma") {
		t.Fatalf("expected chroma css, got %s", css.String())
	}
}

func TestRenderEmptyContentPlaceholder(t *testing.T) {
	r := New("")
	out, err := r.Render("  \n ", Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<em>Nothing to preview</em>") {
		t.Fatalf("expected placeholder, got %s", out)
	}
}

func TestRenderRewritesLocalImages(t *testing.T) {
	r := New("https://notes.example")
	src := "![a](attachments/MyPic.png)\n\n![b](https://cdn.example/x.png)"
	out, err := r.Render(src, Options{Owner: "alice"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `src="https://notes.example/storage/images/alice/MyPic.png"`) {
		t.Fatalf("expected rewritten image, got %s", out)
	}
	if !strings.Contains(out, `src="https://cdn.example/x.png"`) {
		t.Fatalf("expected absolute image untouched, got %s", out)
	}
}

func TestRenderDecodesImageDestinations(t *testing.T) {
	r := New("")
	out, err := r.Render("![a](my%20photo.png)\n\n![b](<dir/other pic.png>)", Options{Owner: "bob"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{`src="/storage/images/bob/my%20photo.png"`, `src="/storage/images/bob/other%20pic.png"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestRenderRewritesImageNode(t *testing.T) {
	r := New("")
	out, err := r.Render("![pic](img/photo.png)", Options{Owner: "bob"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `src="/storage/images/bob/photo.png"`) {
		t.Fatalf("expected storage url, got %s", out)
	}
}
