package blob

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in    string
		ok    bool
		clean string
	}{
		{"note.md", true, "note.md"},
		{"alice/dir/note.md", true, "alice/dir/note.md"},
		{"alice\\win\\note.md", true, "alice/win/note.md"},
		{"../note.md", false, ""},
		{"/abs.md", false, ""},
		{"dir/../note.md", true, "note.md"},
		{"..", false, ""},
		{"..hidden/file", true, "..hidden/file"},
		{"a\x00b", false, ""},
	}
	for _, c := range cases {
		got, err := NormalizeKey(c.in)
		if c.ok && err != nil {
			t.Fatalf("expected ok for %q, got %v", c.in, err)
		}
		if !c.ok && !errors.Is(err, ErrUnsafePath) {
			t.Fatalf("expected ErrUnsafePath for %q, got %v", c.in, err)
		}
		if c.ok && got != c.clean {
			t.Fatalf("expected %q -> %q, got %q", c.in, c.clean, got)
		}
	}
}

func TestImageKeyUsesBaseName(t *testing.T) {
	cases := map[string]string{
		"photo.png":                "alice/photo.png",
		"attachments/My Photo.PNG": "alice/My Photo.PNG",
		"../../etc/passwd.gif":     "alice/passwd.gif",
		"a\\b\\shot.jpg":           "alice/shot.jpg",
		"tab\tshot.png":            "alice/tab-shot.png",
	}
	for in, want := range cases {
		if got := ImageKey("alice", in); got != want {
			t.Fatalf("ImageKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestImageKeysKeepCaseVariantsApart(t *testing.T) {
	s := New(t.TempDir(), "")
	first, second := ImageKey("alice", "V/a b.png"), ImageKey("alice", "V/A-B.png")
	if first == second {
		t.Fatalf("expected distinct keys, both %q", first)
	}
	if err := s.Put(BucketImages, first, []byte("FIRST")); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := s.Put(BucketImages, second, []byte("SECOND")); err != nil {
		t.Fatalf("put second: %v", err)
	}
	for key, want := range map[string]string{first: "FIRST", second: "SECOND"} {
		f, _, err := s.Open(BucketImages, key)
		if err != nil {
			t.Fatalf("open %s: %v", key, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil || string(data) != want {
			t.Fatalf("%s: expected %q, got %q (%v)", key, want, data, err)
		}
	}
	if s.PublicURL(BucketImages, first) == s.PublicURL(BucketImages, second) {
		t.Fatalf("expected distinct public urls")
	}
}

func TestPutOpenDeleteRoundTrip(t *testing.T) {
	root := t.TempDir()
	s := New(root, "http://example.test/")

	if err := s.Put(BucketMarkdown, "alice/Vault/plan.md", []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(BucketMarkdown, "alice/Vault/plan.md", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	on := filepath.Join(root, BucketMarkdown, "alice", "Vault", "plan.md")
	if data, err := os.ReadFile(on); err != nil || string(data) != "v2" {
		t.Fatalf("expected v2 on disk, got %q %v", data, err)
	}

	f, info, err := s.Open(BucketMarkdown, "alice/Vault/plan.md")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(f)
	f.Close()
	if string(data) != "v2" || info.Size() != 2 {
		t.Fatalf("unexpected object %q size %d", data, info.Size())
	}

	if err := s.Delete(BucketMarkdown, "alice/Vault/plan.md"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := s.Open(BucketMarkdown, "alice/Vault/plan.md"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
	if err := s.Delete(BucketMarkdown, "alice/Vault/plan.md"); err != nil {
		t.Fatalf("delete of missing key should succeed: %v", err)
	}
}

func TestPutRejectsUnsafeKeysAndBuckets(t *testing.T) {
	s := New(t.TempDir(), "")
	if err := s.Put(BucketImages, "../escape.png", []byte("x")); !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("expected ErrUnsafePath, got %v", err)
	}
	if err := s.Put("secrets", "a.png", []byte("x")); !errors.Is(err, ErrUnknownBucket) {
		t.Fatalf("expected ErrUnknownBucket, got %v", err)
	}
}

func TestPublicURLEscapesSegments(t *testing.T) {
	s := New(t.TempDir(), "https://notes.example/")
	got := s.PublicURL(BucketImages, "alice/my photo.png")
	want := "https://notes.example/storage/images/alice/my%20photo.png"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := PublicURL("", BucketImages, "bob/a.png"); got != "/storage/images/bob/a.png" {
		t.Fatalf("unexpected relative URL %q", got)
	}
}

func TestLockerReleasesKeys(t *testing.T) {
	l := NewLocker()
	unlock := l.Lock("a")
	unlock()
	if len(l.locks) != 0 {
		t.Fatalf("expected lock map to be empty, got %d", len(l.locks))
	}
}
