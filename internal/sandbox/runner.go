package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kaija/agent-skills-runtime/internal/pathresolver"
	"github.com/kaija/agent-skills-runtime/spec"
)

// Interpreters maps a script extension to the interpreter binary invoked
// ahead of the script path. Extensions not listed here are exec'd directly,
// which requires the host filesystem to mark the file executable.
var Interpreters = map[string]string{
	".py": "python3",
	".sh": "/bin/sh",
}

// Runner enforces ExecutionPolicy and dispatches approved scripts to a
// Sandbox. One Runner is shared across sessions; it carries no per-call
// mutable state.
type Runner struct {
	policy  spec.ExecutionPolicy
	sandbox Sandbox
}

// New constructs a Runner bound to a fixed ExecutionPolicy and Sandbox.
func New(policy spec.ExecutionPolicy, box Sandbox) *Runner {
	return &Runner{policy: policy, sandbox: box}
}

// Run executes scriptRelPath (already prefixed with "scripts/", e.g.
// "scripts/process.py") inside skillRoot, subject to every check in §4.6 of
// the execution policy, in the specified order. A non-nil error means the
// script was never spawned — the caller should render it as an error
// envelope. A nil error always comes with a populated ExecutionResult, even
// when the child timed out or exited non-zero.
func (r *Runner) Run(ctx context.Context, skillRoot, skillName, scriptRelPath string, args []string, stdin []byte, timeoutSOverride *int) (spec.ExecutionResult, error) {
	if !r.policy.Enabled {
		return spec.ExecutionResult{}, spec.NewScriptExecutionDisabledError()
	}

	if !r.policy.AllowSkills["*"] && !r.policy.AllowSkills[skillName] {
		return spec.ExecutionResult{}, spec.NewPolicyViolationError(
			fmt.Sprintf("skill %q is not in the execution allowlist", skillName))
	}

	if !globAllows(r.policy.AllowScriptsGlob, scriptRelPath) {
		return spec.ExecutionResult{}, spec.NewPolicyViolationError(
			fmt.Sprintf("script path %q does not match any allowed glob pattern %v", scriptRelPath, r.policy.AllowScriptsGlob))
	}

	resolved, err := pathresolver.Resolve(skillRoot, scriptRelPath, "scripts")
	if err != nil {
		return spec.ExecutionResult{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return spec.ExecutionResult{}, spec.NewPolicyViolationError("script file does not exist: " + scriptRelPath)
	}
	if !info.Mode().IsRegular() {
		return spec.ExecutionResult{}, spec.NewPolicyViolationError("script path is not a regular file: " + scriptRelPath)
	}

	command, cmdArgs, err := dispatch(resolved, args)
	if err != nil {
		return spec.ExecutionResult{}, err
	}

	env := r.buildEnv(skillRoot, skillName)

	workdir := skillRoot
	var cleanup func()
	if r.policy.WorkdirMode == spec.WorkdirModeTempdir {
		workdir, cleanup, err = stageTempdir(skillRoot)
		if err != nil {
			return spec.ExecutionResult{}, err
		}
	}
	if cleanup != nil {
		defer cleanup()
	}

	timeoutS := r.policy.TimeoutSDefault
	if timeoutSOverride != nil {
		timeoutS = min(*timeoutSOverride, r.policy.TimeoutSDefault)
	}

	result, err := r.sandbox.Spawn(ctx, SpawnRequest{
		Command:  command,
		Args:     cmdArgs,
		Env:      env,
		Dir:      workdir,
		Stdin:    stdin,
		Deadline: time.Duration(timeoutS) * time.Second,
	})
	if err != nil {
		return spec.ExecutionResult{}, fmt.Errorf("%w: %s", spec.ErrInternal, err.Error())
	}

	meta := map[string]any{
		"sandbox":          r.sandbox.Backend(),
		"network_enforced": r.sandbox.NetworkEnforced(),
		"timeout":          result.TimedOut,
	}
	if result.StdoutTruncated {
		meta["stdout_truncated"] = true
	}
	if result.StderrTruncated {
		meta["stderr_truncated"] = true
	}

	return spec.ExecutionResult{
		ExitCode:   result.ExitCode,
		Stdout:     string(result.Stdout),
		Stderr:     string(result.Stderr),
		DurationMS: result.DurationMS,
		Meta:       meta,
	}, nil
}

// globAllows reports whether rel matches at least one pattern, using
// doublestar semantics ("*" within a segment, "**" across segments) as
// required by §4.6. An empty pattern list allows nothing — ExecutionPolicy
// is closed by default.
func globAllows(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// dispatch picks the command and argument vector for a resolved script path
// based on its extension, falling back to direct execution (requiring the
// host to mark the file executable) for anything unrecognized.
func dispatch(resolved string, args []string) (string, []string, error) {
	ext := filepath.Ext(resolved)
	if interpreter, ok := Interpreters[ext]; ok {
		return interpreter, append([]string{resolved}, args...), nil
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", nil, err
	}
	if info.Mode()&0o111 == 0 {
		return "", nil, spec.NewPolicyViolationError("script has no configured interpreter and is not marked executable: " + resolved)
	}
	return resolved, args, nil
}

// buildEnv constructs the child's environment from scratch: only the
// allow-listed variable names, taken from the parent at call time, plus the
// two injected skill-identity variables.
func (r *Runner) buildEnv(skillRoot, skillName string) []string {
	names := make([]string, 0, len(r.policy.EnvAllowlist))
	for name := range r.policy.EnvAllowlist {
		names = append(names, name)
	}
	sort.Strings(names)

	env := make([]string, 0, len(names)+2)
	for _, name := range names {
		if v, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+v)
		}
	}
	env = append(env, "SKILL_ROOT="+skillRoot, "SKILL_NAME="+skillName)
	return env
}

// stageTempdir creates a fresh temporary directory and symlinks (falling
// back to copying when symlinks are unavailable) each of references/,
// assets/, scripts/ into it. The returned cleanup always removes the
// directory, regardless of how the caller's execution turns out.
func stageTempdir(skillRoot string) (dir string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", "agentskills-run-*")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	for _, sub := range []string{"references", "assets", "scripts"} {
		src := filepath.Join(skillRoot, sub)
		if _, statErr := os.Stat(src); statErr != nil {
			continue
		}
		dst := filepath.Join(dir, sub)
		if linkErr := os.Symlink(src, dst); linkErr != nil {
			if copyErr := copyTree(src, dst); copyErr != nil {
				cleanup()
				return "", nil, copyErr
			}
		}
	}
	return dir, cleanup, nil
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode())
	})
}
