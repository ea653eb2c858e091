package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kaija/agent-skills-runtime/spec"
)

func writeSkill(t *testing.T, root, name, frontmatterBody string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "---\n" + frontmatterBody + "\n---\nBody text.\n"
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRefresh_FindsSkillsOneLevelDeep(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSkill(t, root, "alpha", "name: alpha\ndescription: does alpha things")
	writeSkill(t, root, "beta", "name: beta\ndescription: does beta things")

	s := New([]string{root}, "")
	result, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(result.Descriptors) != 2 {
		t.Fatalf("got %d descriptors, want 2", len(result.Descriptors))
	}
	if result.Descriptors[0].Name != "alpha" || result.Descriptors[1].Name != "beta" {
		t.Errorf("descriptors not sorted by name: %+v", result.Descriptors)
	}
}

func TestRefresh_SkipsDirectoryWithoutSkillMD(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSkill(t, root, "alpha", "name: alpha\ndescription: d")
	if err := os.MkdirAll(filepath.Join(root, "not-a-skill"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := New([]string{root}, "")
	result, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(result.Descriptors) != 1 {
		t.Fatalf("got %d descriptors, want 1", len(result.Descriptors))
	}
	if result.Skipped == nil {
		t.Error("expected a skipped-skill error for the SKILL.md-less directory")
	}
}

func TestRefresh_InvalidFrontmatterIsSkippedNotFatal(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSkill(t, root, "good", "name: good\ndescription: d")
	dir := filepath.Join(root, "bad")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("no frontmatter here"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New([]string{root}, "")
	result, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(result.Descriptors) != 1 || result.Descriptors[0].Name != "good" {
		t.Fatalf("got %+v, want only good", result.Descriptors)
	}
	if result.Skipped == nil {
		t.Error("expected a skipped-skill error for the malformed frontmatter")
	}
}

func TestRefresh_FirstRootWinsOnNameCollision(t *testing.T) {
	t.Parallel()
	root1 := t.TempDir()
	root2 := t.TempDir()
	writeSkill(t, root1, "dup", "name: dup\ndescription: from root1")
	writeSkill(t, root2, "dup", "name: dup\ndescription: from root2")

	s := New([]string{root1, root2}, "")
	result, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(result.Descriptors) != 1 {
		t.Fatalf("got %d descriptors, want 1", len(result.Descriptors))
	}
	if result.Descriptors[0].Description != "from root1" {
		t.Errorf("Description = %q, want from root1 (first root wins)", result.Descriptors[0].Description)
	}
	if result.Skipped == nil {
		t.Error("expected the collision to be recorded as a skipped entry")
	}
}

func TestRefresh_SymlinkedSkillMDIsRejected(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	realDir := writeSkill(t, root, "real", "name: real\ndescription: d")

	linkedDir := filepath.Join(root, "linked")
	if err := os.MkdirAll(linkedDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(realDir, "SKILL.md"), filepath.Join(linkedDir, "SKILL.md")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	s := New([]string{root}, "")
	result, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(result.Descriptors) != 1 || result.Descriptors[0].Name != "real" {
		t.Fatalf("got %+v, want only real", result.Descriptors)
	}
	if result.Skipped == nil {
		t.Error("expected the symlinked SKILL.md to be rejected")
	}
}

func TestRefresh_CacheHitSkipsReparse(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	cacheDir := t.TempDir()
	writeSkill(t, root, "alpha", "name: alpha\ndescription: first")

	s := New([]string{root}, cacheDir)
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cacheDir, cacheFileName)); err != nil {
		t.Fatalf("expected cache file to be written: %v", err)
	}

	result, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if len(result.Descriptors) != 1 || result.Descriptors[0].Description != "first" {
		t.Fatalf("got %+v", result.Descriptors)
	}
}

func TestRefresh_UnreadableRootYieldsNoSkillsNotError(t *testing.T) {
	t.Parallel()
	s := New([]string{filepath.Join(t.TempDir(), "does-not-exist")}, "")
	result, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(result.Descriptors) != 0 {
		t.Fatalf("got %d descriptors, want 0", len(result.Descriptors))
	}
}

func TestRefresh_CorruptCacheIsTreatedAsEmpty(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	cacheDir := t.TempDir()
	writeSkill(t, root, "alpha", "name: alpha\ndescription: d")
	if err := os.WriteFile(filepath.Join(cacheDir, cacheFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New([]string{root}, cacheDir)
	result, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(result.Descriptors) != 1 {
		t.Fatalf("got %d descriptors, want 1", len(result.Descriptors))
	}
}

func TestIndexOne_UnknownKeysPreservedInMetadata(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := writeSkill(t, root, "alpha", "name: alpha\ndescription: d\ncustom_field: wow")

	s := New([]string{root}, "")
	c := loadCache("")
	d, _, _, _, err := s.indexOne(c, dir)
	if err != nil {
		t.Fatalf("indexOne: %v", err)
	}
	if d.Metadata["custom_field"] != "wow" {
		t.Errorf("Metadata[custom_field] = %v, want wow", d.Metadata["custom_field"])
	}
}

func TestIndexOne_MissingSkillMDIsSkillParseError(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := filepath.Join(root, "empty")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	s := New([]string{root}, "")
	c := loadCache("")
	_, _, _, _, err := s.indexOne(c, dir)
	if !errors.Is(err, spec.ErrSkillParseError) {
		t.Fatalf("indexOne: got %v, want skill_parse_error", err)
	}
}
