package pathresolver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kaija/agent-skills-runtime/spec"
)

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", path, err)
	}
}

func TestResolve_Basic(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "references"))
	target := filepath.Join(root, "references", "doc.md")
	if err := os.WriteFile(target, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Resolve(root, "references/doc.md", "references")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	wantReal, _ := filepath.EvalSymlinks(target)
	if got != wantReal {
		t.Errorf("Resolve = %q, want %q", got, wantReal)
	}
}

func TestResolve_RejectsAbsolute(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if _, err := Resolve(root, "/etc/passwd"); !errIsPathTraversal(err) {
		t.Fatalf("Resolve: got %v, want path traversal", err)
	}
}

func TestResolve_RejectsDotDot(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "references"))
	if _, err := Resolve(root, "references/../../etc/passwd", "references"); !errIsPathTraversal(err) {
		t.Fatalf("Resolve: got %v, want path traversal", err)
	}
}

func TestResolve_RejectsSkillMD(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if _, err := Resolve(root, "SKILL.md"); !errIsPathTraversal(err) {
		t.Fatalf("Resolve: got %v, want path traversal for SKILL.md", err)
	}
}

func TestResolve_RejectsOutsideAllowedDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "scripts"))
	if _, err := Resolve(root, "scripts/x.py", "references"); err == nil {
		t.Fatal("Resolve: want error when path is outside allowedDirs")
	}
}

func TestResolve_RejectsSymlinkEscape(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("s"), 0o644); err != nil {
		t.Fatal(err)
	}
	mustMkdirAll(t, filepath.Join(root, "references"))
	link := filepath.Join(root, "references", "escape.txt")
	if err := os.Symlink(secret, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if _, err := Resolve(root, "references/escape.txt", "references"); !errIsPathTraversal(err) {
		t.Fatalf("Resolve: got %v, want path traversal for symlink escape", err)
	}
}

func TestResolve_RejectsWindowsDrive(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if _, err := Resolve(root, `C:\Windows\system32`); !errIsPathTraversal(err) {
		t.Fatalf("Resolve: got %v, want path traversal for drive prefix", err)
	}
}

func errIsPathTraversal(err error) bool {
	return err != nil && errors.Is(err, spec.ErrPathTraversal)
}
