package agentskills

import (
	"log/slog"
	"time"

	"github.com/kaija/agent-skills-runtime/internal/audit"
	"github.com/kaija/agent-skills-runtime/internal/sandbox"
	"github.com/kaija/agent-skills-runtime/spec"
)

type repositoryOptions struct {
	logger *slog.Logger

	cacheDir string

	resourcePolicy  spec.ResourcePolicy
	executionPolicy spec.ExecutionPolicy
	sandboxBackend  sandbox.Sandbox

	auditSink audit.Sink

	sessionTTL  time.Duration
	maxSessions int
}

// Option configures a Repository at construction time.
type Option func(*repositoryOptions) error

// WithLogger sets the structured logger used for repository-level
// diagnostics (scan failures, cache write errors). Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *repositoryOptions) error {
		o.logger = l
		return nil
	}
}

// WithCacheDir enables the on-disk scan cache under dir. Omitting this
// option disables caching: every Refresh reparses every skill.
func WithCacheDir(dir string) Option {
	return func(o *repositoryOptions) error {
		o.cacheDir = dir
		return nil
	}
}

// WithResourcePolicy overrides the default ResourcePolicy.
func WithResourcePolicy(p spec.ResourcePolicy) Option {
	return func(o *repositoryOptions) error {
		o.resourcePolicy = p
		return nil
	}
}

// WithExecutionPolicy overrides the default ExecutionPolicy. Execution stays
// disabled unless the supplied policy sets Enabled.
func WithExecutionPolicy(p spec.ExecutionPolicy) Option {
	return func(o *repositoryOptions) error {
		o.executionPolicy = p
		return nil
	}
}

// WithSandbox swaps the execution backend. Defaults to
// sandbox.LocalSubprocessSandbox{}.
func WithSandbox(s sandbox.Sandbox) Option {
	return func(o *repositoryOptions) error {
		o.sandboxBackend = s
		return nil
	}
}

// WithAuditSink routes every AuditEvent produced by the repository and its
// handles to sink. Defaults to audit.Discard{}.
func WithAuditSink(sink audit.Sink) Option {
	return func(o *repositoryOptions) error {
		o.auditSink = sink
		return nil
	}
}

// WithSessionTTL bounds how long an idle session survives in the store.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *repositoryOptions) error {
		o.sessionTTL = ttl
		return nil
	}
}

// WithMaxSessions bounds the session store's size, evicting the
// least-recently-used session once exceeded.
func WithMaxSessions(n int) Option {
	return func(o *repositoryOptions) error {
		o.maxSessions = n
		return nil
	}
}
