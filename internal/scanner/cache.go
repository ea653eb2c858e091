package scanner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/kaija/agent-skills-runtime/spec"
)

const cacheVersion = 1
const cacheFileName = "skills_index.json"

// cacheEntry is one row of the on-disk metadata cache, keyed by the skill
// directory's absolute path.
type cacheEntry struct {
	Path       string               `json:"path"`
	Hash       string               `json:"hash"`
	MTime      time.Time            `json:"mtime"`
	Descriptor spec.SkillDescriptor `json:"descriptor"`
}

type cacheDocument struct {
	Version int          `json:"version"`
	Entries []cacheEntry `json:"entries"`
}

// cache is an in-memory mirror of the on-disk document, keyed by path for
// O(1) lookup during a scan.
type cache struct {
	dir    string
	byPath map[string]cacheEntry
}

// loadCache reads skills_index.json from dir. A missing file, a version
// mismatch, or a parse error are all treated as an empty cache — never
// fatal, per §4.2.
func loadCache(dir string) *cache {
	c := &cache{dir: dir, byPath: map[string]cacheEntry{}}
	if dir == "" {
		return c
	}
	data, err := os.ReadFile(filepath.Join(dir, cacheFileName))
	if err != nil {
		return c
	}
	var doc cacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return c
	}
	if doc.Version != cacheVersion {
		return c
	}
	for _, e := range doc.Entries {
		c.byPath[e.Path] = e
	}
	return c
}

func (c *cache) lookup(path string, hash string, mtime time.Time) (spec.SkillDescriptor, bool) {
	e, ok := c.byPath[path]
	if !ok {
		return spec.SkillDescriptor{}, false
	}
	if e.Hash != hash || !e.MTime.Equal(mtime) {
		return spec.SkillDescriptor{}, false
	}
	return e.Descriptor, true
}

func (c *cache) put(path, hash string, mtime time.Time, d spec.SkillDescriptor) {
	c.byPath[path] = cacheEntry{Path: path, Hash: hash, MTime: mtime, Descriptor: d}
}

// save serializes the cache back to disk. Callers serialize concurrent
// writes with scanMu; save itself does no locking.
func (c *cache) save() error {
	if c.dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	doc := cacheDocument{Version: cacheVersion}
	for _, e := range c.byPath {
		doc.Entries = append(doc.Entries, e)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(c.dir, cacheFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(c.dir, cacheFileName))
}
