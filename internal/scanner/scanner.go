// Package scanner discovers skill directories under a set of roots, parses
// their SKILL.md frontmatter, and maintains an on-disk metadata cache keyed
// by content hash and mtime.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/kaija/agent-skills-runtime/internal/frontmatter"
	"github.com/kaija/agent-skills-runtime/spec"
)

const skillFile = "SKILL.md"
const maxSkillMDBytes = 2 << 20 // 2 MiB, matching the pack's own cap for a composite metadata+body document.

// Scanner walks a fixed, ordered sequence of root directories and builds
// SkillDescriptors, backed by an on-disk cache.
type Scanner struct {
	roots    []string
	cacheDir string

	// scanMu serializes cache writes across concurrent Refresh calls from
	// one process, per §5 ("concurrent scans from one process must
	// serialize writes").
	scanMu sync.Mutex
}

// New constructs a Scanner over roots, persisting its cache under cacheDir
// (pass "" to disable on-disk caching entirely).
func New(roots []string, cacheDir string) *Scanner {
	return &Scanner{roots: append([]string(nil), roots...), cacheDir: cacheDir}
}

// Result is the outcome of one Refresh: the catalog plus every skipped
// skill, so a caller that wants to know why a skill is missing doesn't have
// to re-derive it from the audit log.
type Result struct {
	Descriptors []spec.SkillDescriptor
	Audit       []spec.AuditEvent
	Skipped     error // *multierror.Error, nil if nothing was skipped
}

// candidate is one immediate subdirectory of a root awaiting processing.
type candidate struct {
	root string
	dir  string
}

// Refresh walks every root one level deep, consults the cache, parses
// frontmatter for anything stale or uncached, and returns the merged
// catalog. Resolution across roots is first-wins on name collision.
func (s *Scanner) Refresh(ctx context.Context) (Result, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	c := loadCache(s.cacheDir)

	var candidates []candidate
	for _, root := range s.roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue // an unreadable root yields no skills from it, not a fatal scan error
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			candidates = append(candidates, candidate{root: root, dir: filepath.Join(root, e.Name())})
		}
	}

	type outcome struct {
		idx        int
		descriptor spec.SkillDescriptor
		cacheKey   string
		cacheHash  string
		cacheMTime time.Time
		auditEvent spec.AuditEvent
		err        error
	}
	outcomes := make([]outcome, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, runtime.GOMAXPROCS(0))) // builtin max (Go 1.21+)

	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, hash, mtime, parsed, err := s.indexOne(c, cand.dir)
			o := outcome{idx: i, cacheKey: cand.dir}
			if err != nil {
				o.err = err
				o.auditEvent = spec.AuditEvent{
					TS: time.Now(), Kind: spec.AuditScan, Path: cand.dir,
					Detail: map[string]any{"parsed": parsed, "error": err.Error()},
				}
				outcomes[i] = o
				return nil // a bad skill never aborts the scan
			}
			o.descriptor = d
			o.cacheHash = hash
			o.cacheMTime = mtime
			o.auditEvent = spec.AuditEvent{
				TS: time.Now(), Kind: spec.AuditScan, Skill: d.Name, Path: cand.dir,
				Detail: map[string]any{"parsed": parsed},
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var (
		descriptors []spec.SkillDescriptor
		auditEvents []spec.AuditEvent
		skipped     *multierror.Error
		seenNames   = map[string]bool{}
	)
	for _, o := range outcomes {
		auditEvents = append(auditEvents, o.auditEvent)
		if o.err != nil {
			skipped = multierror.Append(skipped, errors.Join(errors.New(o.cacheKey), o.err))
			continue
		}
		if seenNames[o.descriptor.Name] {
			skipped = multierror.Append(skipped, spec.NewSkillParseError(o.cacheKey, errors.New("duplicate skill name, first root wins: "+o.descriptor.Name)))
			continue
		}
		seenNames[o.descriptor.Name] = true
		descriptors = append(descriptors, o.descriptor)
		c.put(o.cacheKey, o.cacheHash, o.cacheMTime, o.descriptor)
	}

	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })

	if err := c.save(); err != nil {
		// A cache write failure does not invalidate a successful scan.
		skipped = multierror.Append(skipped, err)
	}

	var skippedErr error
	if skipped != nil {
		skippedErr = skipped
	}
	return Result{Descriptors: descriptors, Audit: auditEvents, Skipped: skippedErr}, nil
}

// indexOne parses one candidate directory. parsed reports whether frontmatter
// was actually re-read (false on a cache hit), for the scan audit event.
func (s *Scanner) indexOne(c *cache, dir string) (d spec.SkillDescriptor, hash string, mtime time.Time, parsed bool, err error) {
	skillMD := filepath.Join(dir, skillFile)

	if lst, lerr := os.Lstat(skillMD); lerr == nil && lst.Mode()&os.ModeSymlink != 0 {
		return spec.SkillDescriptor{}, "", time.Time{}, false, spec.NewSkillParseError(skillMD, errors.New("SKILL.md must not be a symlink"))
	}

	info, err := os.Stat(skillMD)
	if err != nil {
		return spec.SkillDescriptor{}, "", time.Time{}, false, spec.NewSkillParseError(skillMD, err)
	}
	mtime = info.ModTime()

	data, err := readLimited(skillMD)
	if err != nil {
		return spec.SkillDescriptor{}, "", time.Time{}, false, spec.NewSkillParseError(skillMD, err)
	}
	sum := sha256.Sum256(data)
	hash = "sha256:" + hex.EncodeToString(sum[:])

	if cached, ok := c.lookup(dir, hash, mtime); ok {
		return cached, hash, mtime, false, nil
	}

	parsedFM, err := frontmatter.Parse(string(data))
	if err != nil {
		return spec.SkillDescriptor{}, "", time.Time{}, true, spec.NewSkillParseError(skillMD, err)
	}

	name, _ := parsedFM.Metadata["name"].(string)
	description, _ := parsedFM.Metadata["description"].(string)
	if name == "" || description == "" {
		return spec.SkillDescriptor{}, "", time.Time{}, true, spec.NewSkillParseError(skillMD, errors.New("missing frontmatter with non-empty name and description"))
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return spec.SkillDescriptor{}, "", time.Time{}, true, spec.NewSkillParseError(skillMD, err)
	}

	d = spec.SkillDescriptor{
		Name:          name,
		Description:   description,
		Path:          absDir,
		License:       asString(parsedFM.Metadata["license"]),
		Compatibility: asMap(parsedFM.Metadata["compatibility"]),
		Metadata:      metadataOf(parsedFM.Metadata),
		AllowedTools:  asStringSlice(parsedFM.Metadata["allowed_tools"]),
		Hash:          hash,
		MTime:         mtime,
	}
	return d, hash, mtime, true, nil
}

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxSkillMDBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxSkillMDBytes {
		return nil, errors.New("SKILL.md exceeds maximum size")
	}
	return data, nil
}

// metadataOf returns every frontmatter key not already surfaced as its own
// SkillDescriptor field, matching §4.1's "unknown keys preserved verbatim in
// the descriptor's metadata sub-map". A nested "metadata" map, if present,
// is merged in rather than overwriting the catch-all.
func metadataOf(fm map[string]any) map[string]any {
	reserved := map[string]bool{
		"name": true, "description": true, "license": true,
		"compatibility": true, "allowed_tools": true, "metadata": true,
	}
	out := map[string]any{}
	for k, v := range fm {
		if !reserved[k] {
			out[k] = v
		}
	}
	if nested, ok := fm["metadata"].(map[string]any); ok {
		for k, v := range nested {
			out[k] = v
		}
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
