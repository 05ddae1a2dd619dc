package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotExist is returned by Backend.Get for keys that were never written.
	ErrNotExist = errors.New("document does not exist")
	// ErrCorrupt matches every *CorruptError.
	ErrCorrupt = errors.New("corrupt document")
)

// CorruptError reports a stored document that does not decode. The document
// is left in place, so every later load of Key fails the same way until it
// is repaired. Backup is set once a copy has been taken.
type CorruptError struct {
	Key    string
	Backup string
	Err    error
}

func (e *CorruptError) Error() string {
	if e.Backup != "" {
		return fmt.Sprintf("corrupt JSON in %s (copy saved as %s): %v", e.Key, e.Backup, e.Err)
	}
	return fmt.Sprintf("corrupt JSON in %s: %v", e.Key, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

func (e *CorruptError) Is(target error) bool { return target == ErrCorrupt }

// backupSuffix is appended to a key, followed by a UTC timestamp, to name a
// backup copy.
const backupSuffix = ".corrupt-"

func backupStamp(now time.Time) string {
	return now.UTC().Format("20060102T150405")
}

// Backend stores JSON documents under slash-separated keys such as
// "shifts/Acme/e1.json".
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	// List returns the keys below prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Backup copies the document at key next to it and returns where the
	// copy went. The original is left untouched. If an existing backup
	// already holds the same bytes, that one is returned instead.
	Backup(ctx context.Context, key string) (string, error)
	Close() error
}

// FileBackend keeps each document as a file below Base.
type FileBackend struct {
	Base string
}

// NewFileBackend returns a backend rooted at base.
func NewFileBackend(base string) *FileBackend {
	return &FileBackend{Base: base}
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.Base, filepath.FromSlash(key))
}

// Get reads the document at key.
func (b *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	path := b.path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	return data, nil
}

// Put atomically writes the document at key.
func (b *FileBackend) Put(_ context.Context, key string, data []byte) error {
	path := b.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// List returns the keys of all .json documents below prefix.
func (b *FileBackend) List(_ context.Context, prefix string) ([]string, error) {
	root := b.path(prefix)
	var keys []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		rel, err := filepath.Rel(b.Base, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage error listing %s: %w", root, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Backup copies the document to the file <name>.corrupt-<timestamp>,
// adding a counter when that name is taken, and returns the file's path.
func (b *FileBackend) Backup(_ context.Context, key string) (string, error) {
	path := b.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("storage error backing up %s: %w", path, err)
	}

	existing, _ := filepath.Glob(path + backupSuffix + "*")
	for _, e := range existing {
		if old, err := os.ReadFile(e); err == nil && bytes.Equal(old, data) {
			return e, nil
		}
	}

	base := path + backupSuffix + backupStamp(time.Now())
	for n := 0; ; n++ {
		name := base
		if n > 0 {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("storage error backing up %s: %w", path, err)
		}
		_, werr := f.Write(data)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			_ = os.Remove(name)
			return "", fmt.Errorf("storage error backing up %s: %w", path, werr)
		}
		return name, nil
	}
}

func (b *FileBackend) Close() error { return nil }
