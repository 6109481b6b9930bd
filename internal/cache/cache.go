// Package cache provides incremental-compilation caching for the CLI
// driver: a source file whose content hash hasn't changed since the last
// successful compile can skip re-running the pipeline. Adapted from
// gaarutyunov-guix's internal/cache/cache.go, keyed on the compiled
// source path rather than a generated-asset path.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Cache stores content hashes of previously compiled sources, keyed by the
// source path exactly as passed to NeedsRecompile, so unchanged files can
// be skipped.
type Cache struct {
	Hashes map[string]string `json:"hashes"`
	path   string
}

// New creates an empty Cache that will persist to cachePath.
func New(cachePath string) *Cache {
	return &Cache{Hashes: make(map[string]string), path: cachePath}
}

// Load reads a Cache from disk; a missing file yields an empty Cache.
func Load(cachePath string) (*Cache, error) {
	c := New(cachePath)

	data, err := os.ReadFile(cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read compile cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.Hashes); err != nil {
		return nil, fmt.Errorf("parse compile cache: %w", err)
	}
	return c, nil
}

// Save persists the cache to its path, creating parent directories as
// needed.
func (c *Cache) Save() error {
	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create compile cache directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(c.Hashes, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal compile cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("write compile cache: %w", err)
	}
	return nil
}

// NeedsRecompile reports whether srcPath's content hash differs from the
// cached one (or is unseen), and records the current hash either way so a
// subsequent Save reflects this compile attempt.
func (c *Cache) NeedsRecompile(srcPath string) (bool, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return true, err
	}
	hash := sha256.Sum256(data)
	current := hex.EncodeToString(hash[:])

	cached, exists := c.Hashes[srcPath]
	c.Hashes[srcPath] = current
	return !exists || cached != current, nil
}

// Forget drops srcPath's recorded hash, forcing recompilation next time.
func (c *Cache) Forget(srcPath string) {
	delete(c.Hashes, srcPath)
}
