package codebase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/LH183523/jedi/python/parser"
)

// cacheVersion guards the on-disk layout. Bump it when the blob or index
// format changes; a mismatch discards the whole cache directory.
const cacheVersion = 1

// Cache keeps parsed files keyed by path and validated by modification
// time. The in-memory layer holds live trees; the optional filesystem layer
// (disabled when dir is empty) persists file content across restarts and
// reparses on load.
type Cache struct {
	mu      sync.Mutex
	dir     string
	entries map[string]*cacheEntry
	index   map[string]int64
}

type cacheEntry struct {
	modTime time.Time
	file    *FileInfo
}

type cacheIndex struct {
	Version int              `json:"version"`
	Index   map[string]int64 `json:"index"`
}

type cacheBlob struct {
	Path    string `json:"path"`
	Content []byte `json:"content"`
}

func NewCache(dir string) *Cache {
	return &Cache{
		dir:     dir,
		entries: make(map[string]*cacheEntry),
	}
}

// Lookup returns the cached parse of path when it is at least as new as
// modTime. A filesystem hit reparses the stored content; that still spares
// the disk read of the original and keeps cache correctness trivial.
func (c *Cache) Lookup(path string, modTime time.Time) *FileInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[path]; ok && !modTime.After(entry.modTime) {
		return entry.file
	}
	if c.dir == "" {
		return nil
	}

	c.loadIndexLocked()
	stored, ok := c.index[path]
	if !ok || stored < modTime.Unix() {
		return nil
	}
	data, err := os.ReadFile(c.blobPath(path))
	if err != nil {
		return nil
	}
	var blob cacheBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil
	}

	res := parser.Parse(blob.Content, parser.WithFile(path))
	file := &FileInfo{Path: path, Content: blob.Content, Tree: res.Module}
	c.entries[path] = &cacheEntry{modTime: modTime, file: file}
	return file
}

func (c *Cache) Store(path string, modTime time.Time, file *FileInfo) {
	if file == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = &cacheEntry{modTime: modTime, file: file}
	if c.dir == "" {
		return
	}

	c.loadIndexLocked()
	blob, err := json.Marshal(cacheBlob{Path: path, Content: file.Content})
	if err != nil {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return
	}
	if err := os.WriteFile(c.blobPath(path), blob, 0o644); err != nil {
		return
	}
	c.index[path] = modTime.Unix()
	c.flushIndexLocked()
}

func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, path)
	if c.dir == "" {
		return
	}
	c.loadIndexLocked()
	if _, ok := c.index[path]; ok {
		os.Remove(c.blobPath(path))
		delete(c.index, path)
		c.flushIndexLocked()
	}
}

// Clear drops both layers.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.index = nil
	if c.dir == "" {
		return nil
	}
	return os.RemoveAll(c.dir)
}

func (c *Cache) loadIndexLocked() {
	if c.index != nil {
		return
	}
	c.index = make(map[string]int64)
	data, err := os.ReadFile(filepath.Join(c.dir, "index.json"))
	if err != nil {
		return
	}
	var idx cacheIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return
	}
	if idx.Version != cacheVersion {
		// stale layout, start over
		os.RemoveAll(c.dir)
		return
	}
	if idx.Index != nil {
		c.index = idx.Index
	}
}

func (c *Cache) flushIndexLocked() {
	data, err := json.Marshal(cacheIndex{Version: cacheVersion, Index: c.index})
	if err != nil {
		return
	}
	os.WriteFile(filepath.Join(c.dir, "index.json"), data, 0o644)
}

func (c *Cache) blobPath(path string) string {
	sum := sha256.Sum256([]byte(path))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}
