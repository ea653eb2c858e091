package agentskills

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kaija/agent-skills-runtime/spec"
)

func TestHandle_InstructionsMemoizedAfterFirstRead(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := writeTestSkill(t, root, "alpha", "handles alpha things")

	repo, err := New([]string{root})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := repo.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	h, err := repo.Open("alpha")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sess := repo.Sessions().Create()

	first, err := h.Instructions(sess)
	if err != nil {
		t.Fatalf("Instructions: %v", err)
	}

	// Mutate the file on disk; a memoized handle should not see the change.
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("---\nname: alpha\ndescription: changed\n---\nCHANGED\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	second, err := h.Instructions(sess)
	if err != nil {
		t.Fatalf("Instructions (second): %v", err)
	}
	if first != second {
		t.Errorf("Instructions not memoized: first=%q second=%q", first, second)
	}
}

func TestHandle_ReadReferenceTextTruncatesAtSessionBudget(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := writeTestSkill(t, root, "alpha", "handles alpha things")
	big := make([]byte, 1000)
	for i := range big {
		big[i] = 'x'
	}
	if err := os.WriteFile(filepath.Join(dir, "references", "big.md"), big, 0o644); err != nil {
		t.Fatal(err)
	}

	policy := spec.DefaultResourcePolicy()
	policy.MaxTotalBytesPerSession = 100
	repo, err := New([]string{root}, WithResourcePolicy(policy))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := repo.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	h, err := repo.Open("alpha")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sess := repo.Sessions().Create()

	content, truncated, err := h.ReadReference(sess, "references/big.md")
	if err != nil {
		t.Fatalf("ReadReference: %v", err)
	}
	if !truncated {
		t.Error("expected truncation against the session budget")
	}
	if len(content) > 100 {
		t.Errorf("content len = %d, want <= 100", len(content))
	}
}

func TestHandle_ReadAssetOutsideAssetsDirIsRejected(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTestSkill(t, root, "alpha", "handles alpha things")

	repo, err := New([]string{root})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := repo.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	h, err := repo.Open("alpha")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sess := repo.Sessions().Create()

	if _, _, err := h.ReadAsset(sess, "references/notes.md"); err == nil {
		t.Fatal("ReadAsset: expected a policy violation for a path outside assets/")
	}
}

func TestHandle_RunScriptHappyPath(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := writeTestSkill(t, root, "alpha", "handles alpha things")
	if err := os.WriteFile(filepath.Join(dir, "scripts", "hello.sh"), []byte("#!/bin/sh\necho hi\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	policy := spec.DefaultExecutionPolicy()
	policy.Enabled = true
	policy.AllowSkills = map[string]bool{"alpha": true}
	policy.AllowScriptsGlob = []string{"scripts/*.sh"}

	repo, err := New([]string{root}, WithExecutionPolicy(policy))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := repo.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	h, err := repo.Open("alpha")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sess := repo.Sessions().Create()

	result, err := h.RunScript(context.Background(), sess, "scripts/hello.sh", nil, nil, nil)
	if err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
}
