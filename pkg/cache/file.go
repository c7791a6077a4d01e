package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// otherKind holds entries whose key has no known kind.
const otherKind = "other"

// FileCache keeps one JSON file per entry below a directory, split by key
// kind so scenes and artifacts can be counted and cleared separately:
//
//	<dir>/scene/ab/cdef....json
//	<dir>/artifact/12/3456....json
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache opens a cache in dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache root.
func (c *FileCache) Dir() string { return c.dir }

type fileEntry struct {
	Key       string    `json:"key"`
	Kind      string    `json:"kind"`
	Created   time.Time `json:"created"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Data      []byte    `json:"data"`
}

func (e *fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get returns the entry for key. Corrupt or expired files are removed
// and reported as a miss.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	e, err := readEntry(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	case err != nil:
		_ = os.Remove(path)
		return nil, false, nil
	case e.Key != key || e.expired(c.now()):
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set writes data under key. The file is written to a temporary name and
// renamed so a concurrent Get never sees a partial entry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := fileEntry{Key: key, Kind: kindOf(key), Created: c.now(), Data: data}
	if ttl > 0 {
		e.ExpiresAt = e.Created.Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes key if present.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Close is a no-op.
func (c *FileCache) Close() error { return nil }

// FileStats summarizes the entries of a [FileCache].
type FileStats struct {
	// Entries counts live entries per key kind.
	Entries map[string]int
	// Expired counts entries past their TTL that were not yet removed.
	Expired int
	// Bytes is the on-disk size of all entry files.
	Bytes int64
}

// Total returns the number of live entries.
func (s FileStats) Total() int {
	n := 0
	for _, v := range s.Entries {
		n += v
	}
	return n
}

// Stats walks the cache and counts entries per kind.
func (c *FileCache) Stats(ctx context.Context) (FileStats, error) {
	stats := FileStats{Entries: make(map[string]int)}
	now := c.now()
	err := c.walk(ctx, func(path string, info fs.FileInfo) error {
		stats.Bytes += info.Size()
		e, err := readEntry(path)
		if err != nil || e.expired(now) {
			stats.Expired++
			return nil
		}
		stats.Entries[e.Kind]++
		return nil
	})
	return stats, err
}

// Prune removes expired and unreadable entries and returns how many it
// removed.
func (c *FileCache) Prune(ctx context.Context) (int, error) {
	now := c.now()
	n := 0
	err := c.walk(ctx, func(path string, _ fs.FileInfo) error {
		if e, err := readEntry(path); err == nil && !e.expired(now) {
			return nil
		}
		if err := os.Remove(path); err == nil {
			n++
		}
		return nil
	})
	return n, err
}

// Clear removes every entry of the given kind, or all entries when kind
// is empty, and returns how many it removed.
func (c *FileCache) Clear(ctx context.Context, kind string) (int, error) {
	root := c.dir
	if kind != "" {
		root = filepath.Join(c.dir, kind)
	}
	n := 0
	err := walkEntries(ctx, root, func(path string, _ fs.FileInfo) error {
		if err := os.Remove(path); err == nil {
			n++
		}
		return nil
	})
	if err != nil {
		return n, err
	}
	removeEmptyDirs(root, c.dir)
	return n, nil
}

func (c *FileCache) walk(ctx context.Context, fn func(string, fs.FileInfo) error) error {
	return walkEntries(ctx, c.dir, fn)
}

// path shards entries by the first two hex digits of the key digest.
func (c *FileCache) path(key string) string {
	sum := Hash([]byte(key))
	return filepath.Join(c.dir, kindOf(key), sum[:2], sum[2:]+".json")
}

func kindOf(key string) string {
	if k := KeyKind(key); k != "" {
		return k
	}
	return otherKind
}

func readEntry(path string) (*fileEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// walkEntries calls fn for every entry file below root. A missing root
// has no entries.
func walkEntries(ctx context.Context, root string, fn func(string, fs.FileInfo) error) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		return fn(path, info)
	})
	return err
}

// removeEmptyDirs deletes empty shard directories below root, deepest
// first, keeping stop itself.
func removeEmptyDirs(root, stop string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != stop {
			dirs = append(dirs, path)
		}
		return nil
	})
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i])
	}
}

var _ Cache = (*FileCache)(nil)
