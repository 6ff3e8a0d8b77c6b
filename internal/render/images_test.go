package render

import "testing"

func TestExtractImageReferences(t *testing.T) {
	refs := ExtractImageReferences("![one](a.png) text ![](dir/b.jpg \"title\") ![x](https://h/c.gif)")
	if len(refs) != 3 {
		t.Fatalf("expected 3 refs, got %+v", refs)
	}
	if refs[0].Alt != "one" || refs[0].Dest != "a.png" {
		t.Fatalf("unexpected first ref: %+v", refs[0])
	}
	if refs[1].Dest != "dir/b.jpg" || refs[2].Dest != "https://h/c.gif" {
		t.Fatalf("unexpected refs: %+v", refs)
	}
}

func TestRewriteImageReferences(t *testing.T) {
	in := "![one](pics/a.png) ![two](https://x/y.png) ![three](data:image/png;base64,AAA) ![four](b.jpg \"cap\")"
	got := RewriteImageReferences(in, "", "alice")
	want := "![one](/storage/images/alice/a.png) ![two](https://x/y.png) ![three](data:image/png;base64,AAA) ![four](/storage/images/alice/b.jpg \"cap\")"
	if got != want {
		t.Fatalf("unexpected rewrite:\n got %s\nwant %s", got, want)
	}
	if again := RewriteImageReferences(got, "", "alice"); again != got {
		t.Fatalf("rewrite not stable: %s", again)
	}
}

func TestRewriteImageReferencesFuncSkipsUnmatched(t *testing.T) {
	in := "![a](known.png) ![b](unknown.png)"
	got := RewriteImageReferencesFunc(in, func(dest string) (string, bool) {
		if dest == "known.png" {
			return "/x/known.png", true
		}
		return "", false
	})
	if got != "![a](/x/known.png) ![b](unknown.png)" {
		t.Fatalf("unexpected rewrite: %s", got)
	}
}

func TestIsLocalImage(t *testing.T) {
	cases := map[string]bool{
		"a.png":                  true,
		"../up/a.png":            true,
		"http://h/a.png":         false,
		"HTTPS://h/a.png":        false,
		"//cdn/a.png":            false,
		"data:image/png;base64,": false,
		"/storage/images/a.png":  false,
		"":                       false,
	}
	for in, want := range cases {
		if got := IsLocalImage(in); got != want {
			t.Fatalf("IsLocalImage(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRewriteImageReferencesDecodesDestinations(t *testing.T) {
	in := "![p](my%20photo.png) ![q](<holiday pics/Beach Day.jpg> \"sun\")"
	got := RewriteImageReferences(in, "", "alice")
	want := "![p](/storage/images/alice/my%20photo.png) ![q](/storage/images/alice/Beach%20Day.jpg \"sun\")"
	if got != want {
		t.Fatalf("unexpected rewrite:\n got %s\nwant %s", got, want)
	}
	refs := ExtractImageReferences(in)
	if len(refs) != 2 || refs[1].Dest != "holiday pics/Beach Day.jpg" {
		t.Fatalf("unexpected refs: %+v", refs)
	}
	if ImageKey("alice", "my%20photo.png") != ImageKey("alice", "<my photo.png>") {
		t.Fatalf("encoded and bracketed references should name the same upload")
	}
}
