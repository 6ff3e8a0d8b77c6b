package blob

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gosimple/slug"
)

const (
	BucketImages   = "images"
	BucketMarkdown = "markdown-files"
)

var (
	ErrUnsafePath    = errors.New("unsafe path")
	ErrUnknownBucket = errors.New("unknown bucket")
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

func knownBucket(bucket string) bool {
	return bucket == BucketImages || bucket == BucketMarkdown
}

// NormalizeKey cleans a slash separated key and rejects anything that escapes the bucket.
func NormalizeKey(p string) (string, error) {
	if strings.ContainsRune(p, 0) {
		return "", ErrUnsafePath
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "/") {
		return "", ErrUnsafePath
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrUnsafePath
	}
	return clean, nil
}

// KeyOwner returns the first segment of a key.
func KeyOwner(key string) string {
	owner, _, _ := strings.Cut(key, "/")
	return owner
}

func IsImage(name string) bool {
	return imageExts[strings.ToLower(path.Ext(name))]
}

func IsMarkdown(name string) bool {
	return strings.EqualFold(path.Ext(name), ".md")
}

// ImageKey maps an image file name to its key in the images bucket, owner/basename.
// Only the base name counts, so a reference and an upload of the same file agree.
// Base names that cannot stand as a key segment are slugged.
func ImageKey(owner, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if safeSegment(base) {
		return owner + "/" + base
	}
	ext := path.Ext(base)
	stem := slug.Make(strings.TrimSuffix(base, ext))
	if stem == "" {
		stem = "image"
	}
	if ext = slug.Make(ext); ext != "" {
		stem += "." + ext
	}
	return owner + "/" + stem
}

func safeSegment(name string) bool {
	if name == "" || name == "." || name == ".." || name == "/" || !utf8.ValidString(name) {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func MarkdownKey(owner, rel string) (string, error) {
	clean, err := NormalizeKey(rel)
	if err != nil {
		return "", err
	}
	return owner + "/" + clean, nil
}
