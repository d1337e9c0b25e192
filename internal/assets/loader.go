// Package assets reads sound definitions and samples from a filesystem and
// watches definition directories for changes.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/zjrosen/partymix/internal/audio/sounddef"
	"github.com/zjrosen/partymix/internal/log"
)

// FileNotFoundError is returned when a requested asset does not exist.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("asset not found: %s", e.Path)
}

// Is lets errors.Is match fs.ErrNotExist.
func (e *FileNotFoundError) Is(target error) bool {
	return target == fs.ErrNotExist
}

// FSLoader reads files from an fs.FS and caches their bytes.
type FSLoader struct {
	fsys  fs.FS
	cache *cache.Cache
}

// NewFSLoader returns a loader over fsys. Cached bytes expire after ttl;
// a non-positive ttl keeps them until invalidated.
func NewFSLoader(fsys fs.FS, ttl time.Duration) *FSLoader {
	expiration := ttl
	cleanup := 2 * ttl
	if ttl <= 0 {
		expiration = cache.NoExpiration
		cleanup = 0
	}
	return &FSLoader{fsys: fsys, cache: cache.New(expiration, cleanup)}
}

// LoadBytes implements bank.ByteLoader.
func (l *FSLoader) LoadBytes(p string) ([]byte, error) {
	p = path.Clean(p)
	if v, ok := l.cache.Get(p); ok {
		return v.([]byte), nil
	}

	data, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileNotFoundError{Path: p}
		}
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}

	l.cache.Set(p, data, cache.DefaultExpiration)
	log.Debug(log.CatAssets, "Cached asset", "path", p, "bytes", len(data))
	return data, nil
}

// Invalidate drops the cached bytes for p.
func (l *FSLoader) Invalidate(p string) {
	l.cache.Delete(path.Clean(p))
}

// InvalidateAll empties the cache.
func (l *FSLoader) InvalidateAll() {
	l.cache.Flush()
}

// Cached returns the number of cached files.
func (l *FSLoader) Cached() int {
	return l.cache.ItemCount()
}

// ListDefinitions returns the definition files directly under dir, sorted.
func ListDefinitions(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileNotFoundError{Path: dir}
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !sounddef.IsDefinitionFile(e.Name()) {
			continue
		}
		paths = append(paths, path.Join(dir, e.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}
