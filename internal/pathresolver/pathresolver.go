// Package pathresolver maps a skill-relative path supplied by a caller to a
// validated absolute path inside a skill directory, rejecting every form of
// traversal.
package pathresolver

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kaija/agent-skills-runtime/spec"
)

const skillFile = "SKILL.md"

var windowsDrivePrefix = regexp.MustCompile(`^[A-Za-z]:`)

// Resolve maps rel to an absolute path inside root. When allowedDirs is
// non-empty, the first path component of rel must be one of them (used by
// the resource reader to pin reads under references/ or assets/, and by the
// script runner to pin execution under scripts/). Normalization happens
// after symlink resolution, never before: a symlink is only trusted once we
// know where it really points.
func Resolve(root, rel string, allowedDirs ...string) (string, error) {
	if rel == "" {
		return "", spec.NewPathTraversalError("empty path")
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, `\`) {
		return "", spec.NewPathTraversalError("path must be relative: " + rel)
	}
	if windowsDrivePrefix.MatchString(rel) {
		return "", spec.NewPathTraversalError("drive-letter paths are not allowed: " + rel)
	}
	if strings.HasPrefix(rel, `\\`) {
		return "", spec.NewPathTraversalError("UNC paths are not allowed: " + rel)
	}

	cleanRel := filepath.Clean(filepath.FromSlash(rel))
	for _, part := range strings.Split(cleanRel, string(os.PathSeparator)) {
		if part == ".." {
			return "", spec.NewPathTraversalError("path escapes skill root: " + rel)
		}
	}

	if len(allowedDirs) > 0 {
		first := strings.Split(cleanRel, string(os.PathSeparator))[0]
		ok := false
		for _, d := range allowedDirs {
			if first == d {
				ok = true
				break
			}
		}
		if !ok {
			return "", spec.NewPolicyViolationError("path must be under one of " + strings.Join(allowedDirs, ", ") + ": " + rel)
		}
	}

	if cleanRel == skillFile || cleanRel == "."+string(os.PathSeparator)+skillFile {
		return "", spec.NewPathTraversalError("SKILL.md is not reachable through this API")
	}

	realRoot, err := canonical(root)
	if err != nil {
		return "", err
	}

	joined := filepath.Join(realRoot, cleanRel)

	// Resolve symlinks on the joined path before the final containment
	// check. EvalSymlinks requires the path to exist; when it (or a parent
	// component) doesn't, walk up to the nearest existing ancestor so a
	// not-yet-created file can still be validated, and re-append the
	// remaining, not-yet-real, suffix.
	real, err := evalSymlinksTolerant(joined)
	if err != nil {
		return "", err
	}

	relToRoot, err := filepath.Rel(realRoot, real)
	if err != nil {
		return "", spec.NewPathTraversalError("cannot relate resolved path to root: " + rel)
	}
	relToRoot = filepath.Clean(relToRoot)
	if relToRoot == ".." || strings.HasPrefix(relToRoot, ".."+string(os.PathSeparator)) {
		return "", spec.NewPathTraversalError("resolved path escapes skill root: " + rel)
	}

	return real, nil
}

// canonical returns the absolute, symlink-resolved form of root itself.
func canonical(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", spec.NewPathTraversalError("cannot resolve skill root: " + err.Error())
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", spec.NewPathTraversalError("cannot resolve skill root: " + err.Error())
	}
	return real, nil
}

// evalSymlinksTolerant behaves like filepath.EvalSymlinks but tolerates a
// path whose final component (or a run of trailing components) does not yet
// exist, by resolving the longest existing prefix and rejoining the rest.
func evalSymlinksTolerant(p string) (string, error) {
	if real, err := filepath.EvalSymlinks(p); err == nil {
		return real, nil
	}

	dir, base := filepath.Split(p)
	dir = filepath.Clean(dir)
	var suffix []string
	for {
		if _, err := os.Lstat(dir); err == nil {
			realDir, err := filepath.EvalSymlinks(dir)
			if err != nil {
				return "", spec.NewPathTraversalError("cannot resolve path: " + err.Error())
			}
			for i, j := 0, len(suffix)-1; i < j; i, j = i+1, j-1 {
				suffix[i], suffix[j] = suffix[j], suffix[i]
			}
			parts := append([]string{base}, suffix...)
			return filepath.Join(append([]string{realDir}, parts...)...), nil
		}
		if dir == string(os.PathSeparator) || dir == "." {
			// Nothing exists at all; fall back to lexical cleaning.
			return p, nil
		}
		suffix = append(suffix, base)
		dir, base = filepath.Split(filepath.Clean(dir))
		dir = filepath.Clean(dir)
	}
}
