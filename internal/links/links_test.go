package links

import "testing"

func TestExtractKeepsOrderAndDuplicates(t *testing.T) {
	content := "See [[Alpha]] and [[ Beta ]].\nAgain [[Alpha]] then [[Gamma|the third]]"
	got := Extract(content)
	want := []struct {
		target  string
		display string
		line    int
	}{
		{"Alpha", "", 1},
		{"Beta", "", 1},
		{"Alpha", "", 2},
		{"Gamma", "the third", 2},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d links, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Target != w.target || got[i].Display != w.display || got[i].LineNo != w.line {
			t.Fatalf("link %d: expected %+v, got %+v", i, w, got[i])
		}
	}
}

func TestExtractSkipsFencedCodeAndEmptyTargets(t *testing.T) {
	content := "[[Real]]\n```go\n// [[Not a link]]\n```\n[[   ]]\n~~~\n[[Also not]]\n~~~\n[[After]]"
	got := Targets(content)
	if len(got) != 2 || got[0] != "Real" || got[1] != "After" {
		t.Fatalf("unexpected targets: %#v", got)
	}
}

func TestExtractNestedFences(t *testing.T) {
	content := "````md\n```\n[[Inside]]\n```\n````\n[[Outside]]\n" +
		"~~~\n```\n[[Tilde body]]\n~~~~\n" +
		"    ```\n[[Indented fence is not a fence]]\n" +
		"``` not `info`\n[[Inline code line]]\n"
	got := Targets(content)
	want := []string{"Outside", "Indented fence is not a fence", "Inline code line"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %#v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %#v", want, got)
		}
	}
}

func TestUniqueTargetsFoldsCase(t *testing.T) {
	got := UniqueTargets("[[Project]] [[project]] [[PROJECT]] [[Other]]")
	if len(got) != 2 || got[0] != "Project" || got[1] != "Other" {
		t.Fatalf("unexpected unique targets: %#v", got)
	}
}

func TestTargetsWithRegexCharacters(t *testing.T) {
	got := Targets("link to [[C++ (notes).*]]")
	if len(got) != 1 || got[0] != "C++ (notes).*" {
		t.Fatalf("unexpected targets: %#v", got)
	}
}

func TestContentStats(t *testing.T) {
	cases := []struct {
		in    string
		chars int
		words int
	}{
		{"", 0, 0},
		{"hello world", 11, 2},
		{"  spaced \n\n out\t", 16, 2},
		{"café ☕", 6, 2},
	}
	for _, c := range cases {
		got := ContentStats(c.in)
		if got.Characters != c.chars || got.Words != c.words {
			t.Fatalf("stats %q: expected %d/%d, got %d/%d", c.in, c.chars, c.words, got.Characters, got.Words)
		}
	}
}
