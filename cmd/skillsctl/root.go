package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	agentskills "github.com/kaija/agent-skills-runtime"
	"github.com/kaija/agent-skills-runtime/spec"
)

const version = "0.1.0"

var rootsFlag []string
var cacheDirFlag string

var rootCmd = &cobra.Command{
	Use:     "skillsctl",
	Short:   "Inspect and exercise an agent skills directory tree",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&rootsFlag, "roots", nil, "skill root directories (repeatable)")
	rootCmd.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", "", "directory for the scan cache (default: no cache)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
}

// Execute runs the root command and exits with the process code dictated by
// the error taxonomy: 0 success, 1 policy or argument error, 2 I/O error, 3
// execution failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCode wraps an error to force a specific process exit code, used by the
// run subcommand to report a non-zero script exit or a timeout without that
// outcome being an error in the runtime's own sense.
type exitCode struct {
	code int
	err  error
}

func (e *exitCode) Error() string { return e.err.Error() }
func (e *exitCode) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitCode{code: code, err: err}
}

func exitCodeFor(err error) int {
	var ec *exitCode
	if errors.As(err, &ec) {
		return ec.code
	}
	if errors.Is(err, spec.ErrInvalidArgument) {
		return 1
	}
	switch spec.ErrorKindOf(err) {
	case spec.KindPolicyViolation, spec.KindPathTraversal, spec.KindResourceTooLarge, spec.KindScriptExecutionDisabled:
		return 1
	case spec.KindSkillNotFound, spec.KindSkillParseError:
		return 2
	case spec.KindScriptTimeout, spec.KindScriptFailed:
		return 3
	default:
		return 2
	}
}

// newRepository constructs a Repository over rootsFlag but does not scan it;
// callers drive Refresh themselves so they can decide how to treat skipped
// entries (fatal for validate, a warning for list/prompt/run).
func newRepository(opts ...agentskills.Option) (*agentskills.Repository, error) {
	if len(rootsFlag) == 0 {
		return nil, withExitCode(1, fmt.Errorf("%w: at least one --roots value is required", spec.ErrInvalidArgument))
	}
	if cacheDirFlag != "" {
		opts = append(opts, agentskills.WithCacheDir(cacheDirFlag))
	}
	repo, err := agentskills.New(rootsFlag, opts...)
	if err != nil {
		return nil, withExitCode(2, err)
	}
	return repo, nil
}

// openRepository constructs a Repository and scans it, treating a scan that
// reported errors and produced no catalog at all as a fatal I/O error; an
// error-free scan with an empty catalog is not fatal. Skipped individual
// skills are logged as a warning and otherwise ignored by the caller.
func openRepository(opts ...agentskills.Option) (*agentskills.Repository, error) {
	repo, err := newRepository(opts...)
	if err != nil {
		return nil, err
	}
	if _, err := repo.Refresh(context.Background()); err != nil {
		if len(repo.List()) == 0 {
			return nil, withExitCode(2, err)
		}
		fmt.Fprintln(os.Stderr, "warning: some skills were skipped during scan:", err)
	}
	return repo, nil
}
