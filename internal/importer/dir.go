package importer

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gnotes/internal/storage/blob"
)

// Importable reports whether the importer does anything with name.
func Importable(name string) bool {
	return blob.IsMarkdown(name) || blob.IsImage(name)
}

// ReadDir collects the importable files under root. Paths are prefixed with the base name
// of root, the way a browser folder upload names them. Hidden entries are skipped.
func ReadDir(root string) ([]File, error) {
	root = filepath.Clean(root)
	var rels []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Importable(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return ReadFiles(root, rels), nil
}

// ReadFiles loads rels, given relative to root, into import files. A file that cannot be
// read keeps its error in ReadErr so the rest of the batch still imports.
func ReadFiles(root string, rels []string) []File {
	base := filepath.Base(filepath.Clean(root))
	files := make([]File, 0, len(rels))
	for _, rel := range rels {
		f := File{Path: path.Join(base, rel)}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			f.ReadErr = fmt.Errorf("read %s: %w", rel, err)
		} else {
			f.Data = data
		}
		files = append(files, f)
	}
	return files
}
