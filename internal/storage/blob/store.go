// Package blob stores uploaded files in named buckets on the local disk.
package blob

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Store struct {
	root      string
	publicURL string
	locks     *Locker
	lockWait  time.Duration
}

// New returns a store rooted at root. publicURL prefixes the URLs from PublicURL and may be empty.
func New(root, publicURL string) *Store {
	return &Store{
		root:      root,
		publicURL: strings.TrimRight(publicURL, "/"),
		locks:     NewLocker(),
		lockWait:  10 * time.Second,
	}
}

func (s *Store) filePath(bucket, key string) (string, string, error) {
	if !knownBucket(bucket) {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}
	clean, err := NormalizeKey(key)
	if err != nil {
		return "", "", err
	}
	base := filepath.Join(s.root, bucket)
	full := filepath.Join(base, filepath.FromSlash(clean))
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", ErrUnsafePath
	}
	return full, clean, nil
}

// Put writes data at bucket/key, replacing any previous object.
func (s *Store) Put(bucket, key string, data []byte) error {
	full, clean, err := s.filePath(bucket, key)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(bucket + "/" + clean)
	defer unlock()

	flock, err := AcquireFileLock(filepath.Join(s.root, ".lock"), s.lockWait)
	if err != nil {
		return fmt.Errorf("lock storage: %w", err)
	}
	defer flock.Release()

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	if err := writeFileAtomic(full, data, 0o644); err != nil {
		return fmt.Errorf("write %s/%s: %w", bucket, clean, err)
	}
	slog.Debug("blob stored", "bucket", bucket, "key", clean, "bytes", len(data))
	return nil
}

// Open returns the object and its size. A missing object yields an error matching fs.ErrNotExist.
func (s *Store) Open(bucket, key string) (io.ReadSeekCloser, fs.FileInfo, error) {
	full, _, err := s.filePath(bucket, key)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fs.ErrNotExist
	}
	return f, info, nil
}

func (s *Store) Delete(bucket, key string) error {
	full, clean, err := s.filePath(bucket, key)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(bucket + "/" + clean)
	defer unlock()
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// PublicURL is the address the HTTP layer serves bucket/key from.
func (s *Store) PublicURL(bucket, key string) string {
	return PublicURL(s.publicURL, bucket, key)
}

func PublicURL(base, bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimRight(base, "/") + "/storage/" + bucket + "/" + strings.Join(parts, "/")
}
