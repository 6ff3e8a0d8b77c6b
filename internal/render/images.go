package render

import (
	"net/url"
	"regexp"
	"strings"

	"gnotes/internal/storage/blob"
)

var (
	imageRefRe = regexp.MustCompile(`!\[([^\]]*)\]\(\s*(<[^<>\n]*>|[^)\s]+)([^)]*)\)`)
	schemeRe   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

type ImageRef struct {
	Alt  string `json:"alt"`
	Dest string `json:"dest"`
}

// ExtractImageReferences returns the ![alt](dest) references of content in order.
func ExtractImageReferences(content string) []ImageRef {
	var out []ImageRef
	for _, m := range imageRefRe.FindAllStringSubmatch(content, -1) {
		out = append(out, ImageRef{Alt: m[1], Dest: unbracket(m[2])})
	}
	return out
}

// IsLocalImage reports whether dest names an uploaded file rather than a URL.
func IsLocalImage(dest string) bool {
	dest = strings.TrimSpace(dest)
	switch {
	case dest == "":
		return false
	case schemeRe.MatchString(dest):
		return false
	case strings.HasPrefix(dest, "//"), strings.HasPrefix(dest, "#"):
		return false
	case strings.HasPrefix(dest, "/storage/"):
		return false
	}
	return true
}

// ImageURL is the public URL an uploaded image reference resolves to.
func ImageURL(baseURL, owner, dest string) string {
	return blob.PublicURL(baseURL, blob.BucketImages, ImageKey(owner, dest))
}

// ImageKey is the images bucket key a reference names. Destinations are percent-decoded,
// so my%20photo.png names the upload "my photo.png".
func ImageKey(owner, dest string) string {
	dest = unbracket(strings.TrimSpace(dest))
	if name, err := url.PathUnescape(dest); err == nil {
		dest = name
	}
	return blob.ImageKey(owner, dest)
}

func unbracket(dest string) string {
	if len(dest) >= 2 && dest[0] == '<' && dest[len(dest)-1] == '>' {
		return dest[1 : len(dest)-1]
	}
	return dest
}

// RewriteImageReferences points every local image reference at the owner's image bucket.
// Already rewritten references are left alone, so the result is stable under repeated calls.
func RewriteImageReferences(content, baseURL, owner string) string {
	return RewriteImageReferencesFunc(content, func(dest string) (string, bool) {
		return ImageURL(baseURL, owner, dest), true
	})
}

// RewriteImageReferencesFunc rewrites local image references for which fn returns true.
func RewriteImageReferencesFunc(content string, fn func(dest string) (string, bool)) string {
	return imageRefRe.ReplaceAllStringFunc(content, func(match string) string {
		m := imageRefRe.FindStringSubmatch(match)
		dest := unbracket(m[2])
		if !IsLocalImage(dest) {
			return match
		}
		target, ok := fn(dest)
		if !ok {
			return match
		}
		return "![" + m[1] + "](" + target + m[3] + ")"
	})
}
