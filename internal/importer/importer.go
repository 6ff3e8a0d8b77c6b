// Package importer turns a batch of uploaded files into folders, notes and stored images.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"gnotes/internal/links"
	"gnotes/internal/render"
	"gnotes/internal/storage/blob"
	"gnotes/internal/store"
)

var ErrNoOwner = errors.New("import requires a signed-in user")

type Outcome string

const (
	OutcomeNote    Outcome = "note"
	OutcomeImage   Outcome = "image"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

const reasonUnsupported = "unsupported file type"

// File is one upload. Path is relative, e.g. "Vault/Projects/plan.md".
// A markdown file with NoteID set replaces that note's content instead of creating a note.
// A file with ReadErr set could not be read and is reported as failed.
type File struct {
	Path    string
	Data    []byte
	NoteID  string
	ReadErr error
}

type FileResult struct {
	Path    string  `json:"path"`
	Outcome Outcome `json:"outcome"`
	NoteID  string  `json:"note_id,omitempty"`
	Title   string  `json:"title,omitempty"`
	URL     string  `json:"url,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

type Report struct {
	Files          []FileResult `json:"files"`
	FoldersCreated []string     `json:"folders_created"`
	Unresolved     []string     `json:"unresolved_links"`
	Notes          int          `json:"notes"`
	Images         int          `json:"images"`
	Skipped        int          `json:"skipped"`
	Failed         int          `json:"failed"`
}

// Notes is the part of the store the importer writes through.
type Notes interface {
	CreateNote(ctx context.Context, owner, title string, folderID *string, content string) (store.Note, error)
	FindOrCreateFolder(ctx context.Context, owner, name string, parentID *string) (store.Folder, bool, error)
	FindNoteByTitle(ctx context.Context, owner, title string) (store.Note, error)
	UpdateNote(ctx context.Context, owner, id string, upd store.NoteUpdate) (store.Note, error)
}

type Blobs interface {
	Put(bucket, key string, data []byte) error
	Delete(bucket, key string) error
	PublicURL(bucket, key string) string
}

type Importer struct {
	notes Notes
	blobs Blobs
}

func New(notes Notes, blobs Blobs) *Importer {
	return &Importer{notes: notes, blobs: blobs}
}

type batch struct {
	owner   string
	folders map[string]*string
	created []string
	images  map[string]bool
	targets []string
	seen    map[string]bool
}

// Import processes files in order. A failing file is reported and the batch continues.
func (im *Importer) Import(ctx context.Context, owner string, files []File) (Report, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return Report{}, ErrNoOwner
	}
	start := time.Now()
	defer func() { importBatchSeconds.Observe(time.Since(start).Seconds()) }()

	b := &batch{
		owner:   owner,
		folders: map[string]*string{"": nil},
		images:  map[string]bool{},
		seen:    map[string]bool{},
	}
	for _, f := range files {
		if f.ReadErr == nil && blob.IsImage(f.Path) {
			b.images[blob.ImageKey(owner, f.Path)] = true
		}
	}

	report := Report{Files: []FileResult{}, FoldersCreated: []string{}, Unresolved: []string{}}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := im.importFile(ctx, b, f)
		importFilesTotal.WithLabelValues(string(res.Outcome)).Inc()
		switch res.Outcome {
		case OutcomeNote:
			report.Notes++
		case OutcomeImage:
			report.Images++
		case OutcomeSkipped:
			report.Skipped++
		case OutcomeFailed:
			report.Failed++
			slog.Warn("import file failed", "owner", owner, "path", f.Path, "reason", res.Reason)
		}
		report.Files = append(report.Files, res)
	}
	report.FoldersCreated = append(report.FoldersCreated, b.created...)

	for _, target := range b.targets {
		_, err := im.notes.FindNoteByTitle(ctx, owner, target)
		if errors.Is(err, store.ErrNotFound) {
			report.Unresolved = append(report.Unresolved, target)
			continue
		}
		if err != nil {
			return report, fmt.Errorf("resolve %q: %w", target, err)
		}
	}
	slog.Info("import finished", "owner", owner, "notes", report.Notes, "images", report.Images,
		"skipped", report.Skipped, "failed", report.Failed, "unresolved", len(report.Unresolved))
	return report, nil
}

func (im *Importer) importFile(ctx context.Context, b *batch, f File) FileResult {
	res := FileResult{Path: f.Path}
	rel, err := blob.NormalizeKey(f.Path)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Reason = err.Error()
		return res
	}
	res.Path = rel
	if f.ReadErr != nil {
		res.Outcome = OutcomeFailed
		res.Reason = f.ReadErr.Error()
		return res
	}

	switch {
	case blob.IsMarkdown(rel):
		return im.importMarkdown(ctx, b, rel, f)
	case blob.IsImage(rel):
		key := blob.ImageKey(b.owner, rel)
		if err := im.blobs.Put(blob.BucketImages, key, f.Data); err != nil {
			res.Outcome = OutcomeFailed
			res.Reason = err.Error()
			return res
		}
		res.Outcome = OutcomeImage
		res.URL = im.blobs.PublicURL(blob.BucketImages, key)
		return res
	default:
		res.Outcome = OutcomeSkipped
		res.Reason = reasonUnsupported
		return res
	}
}

func (im *Importer) importMarkdown(ctx context.Context, b *batch, rel string, f File) FileResult {
	data := f.Data
	res := FileResult{Path: rel}
	fail := func(err error) FileResult {
		res.Outcome = OutcomeFailed
		res.Reason = err.Error()
		return res
	}

	key, err := blob.MarkdownKey(b.owner, rel)
	if err != nil {
		return fail(err)
	}
	folderID, err := im.ensureFolders(ctx, b, path.Dir(rel))
	if err != nil {
		return fail(err)
	}

	content := string(data)
	title := frontmatterTitle(content)
	if title == "" {
		name := path.Base(rel)
		title = strings.TrimSpace(name[:len(name)-len(path.Ext(name))])
	}
	content = render.RewriteImageReferencesFunc(content, func(dest string) (string, bool) {
		k := render.ImageKey(b.owner, dest)
		if !b.images[k] {
			return "", false
		}
		return im.blobs.PublicURL(blob.BucketImages, k), true
	})

	if err := im.blobs.Put(blob.BucketMarkdown, key, data); err != nil {
		return fail(err)
	}
	var n store.Note
	if f.NoteID != "" {
		n, err = im.notes.UpdateNote(ctx, b.owner, f.NoteID, store.NoteUpdate{Title: &title, Content: &content})
	} else {
		n, err = im.notes.CreateNote(ctx, b.owner, title, folderID, content)
	}
	if err != nil {
		// An in-place update keeps the newer source file.
		if f.NoteID == "" {
			if derr := im.blobs.Delete(blob.BucketMarkdown, key); derr != nil {
				slog.Warn("remove markdown source", "key", key, "err", derr)
			}
		}
		return fail(err)
	}
	for _, target := range links.UniqueTargets(content) {
		fold := links.Fold(target)
		if b.seen[fold] {
			continue
		}
		b.seen[fold] = true
		b.targets = append(b.targets, target)
	}
	res.Outcome = OutcomeNote
	res.NoteID = n.ID
	res.Title = n.Title
	return res
}

// ensureFolders walks dir one segment at a time, reusing folders by name under the same parent.
func (im *Importer) ensureFolders(ctx context.Context, b *batch, dir string) (*string, error) {
	if dir == "." || dir == "" {
		return nil, nil
	}
	if id, ok := b.folders[dir]; ok {
		return id, nil
	}
	var parent *string
	sofar := ""
	for _, name := range strings.Split(dir, "/") {
		if sofar == "" {
			sofar = name
		} else {
			sofar += "/" + name
		}
		if id, ok := b.folders[sofar]; ok {
			parent = id
			continue
		}
		f, created, err := im.notes.FindOrCreateFolder(ctx, b.owner, name, parent)
		if err != nil {
			return nil, fmt.Errorf("folder %s: %w", sofar, err)
		}
		if created {
			b.created = append(b.created, sofar)
		}
		id := f.ID
		b.folders[sofar] = &id
		parent = &id
	}
	return parent, nil
}
