package agentskills

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kaija/agent-skills-runtime/internal/audit"
	"github.com/kaija/agent-skills-runtime/internal/catalogxml"
	"github.com/kaija/agent-skills-runtime/internal/resource"
	"github.com/kaija/agent-skills-runtime/internal/sandbox"
	"github.com/kaija/agent-skills-runtime/internal/scanner"
	"github.com/kaija/agent-skills-runtime/internal/session"
	"github.com/kaija/agent-skills-runtime/spec"
)

// Repository owns the descriptor table, the policies, the reader, and the
// runner. It is safe for concurrent use: Refresh swaps the descriptor table
// atomically, so concurrent List/Open/Search calls always observe a
// consistent snapshot.
type Repository struct {
	logger *slog.Logger

	scanner *scanner.Scanner
	reader  *resource.Reader
	runner  *sandbox.Runner
	sink    audit.Sink

	sessions *session.Store

	table atomic.Pointer[[]spec.SkillDescriptor]
}

// New constructs a Repository scanning roots. No scan happens until the
// first Refresh call.
func New(roots []string, opts ...Option) (*Repository, error) {
	o := repositoryOptions{
		logger:          slog.Default(),
		resourcePolicy:  spec.DefaultResourcePolicy(),
		executionPolicy: spec.DefaultExecutionPolicy(),
		sandboxBackend:  sandbox.LocalSubprocessSandbox{},
		auditSink:       audit.Discard{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	r := &Repository{
		logger:  o.logger,
		scanner: scanner.New(roots, o.cacheDir),
		reader:  resource.New(o.resourcePolicy),
		runner:  sandbox.New(o.executionPolicy, o.sandboxBackend),
		sink:    o.auditSink,
		sessions: session.New(session.StoreConfig{
			TTL:         o.sessionTTL,
			MaxSessions: o.maxSessions,
		}),
	}
	empty := []spec.SkillDescriptor{}
	r.table.Store(&empty)
	return r, nil
}

// Refresh triggers a scan of every configured root and atomically replaces
// the catalog. When the scan completes, a non-nil returned error is a
// *multierror.Error accumulating every skipped skill, and the catalog is
// still updated with whatever parsed successfully. When the scan itself
// fails (for example ctx is cancelled), that error is returned with a nil
// catalog and the previous catalog is kept.
func (r *Repository) Refresh(ctx context.Context) ([]spec.SkillDescriptor, error) {
	result, err := r.scanner.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	table := append([]spec.SkillDescriptor(nil), result.Descriptors...)
	r.table.Store(&table)
	for _, ev := range result.Audit {
		_ = r.sink.Log(ev)
	}
	if result.Skipped != nil {
		r.logger.Warn("skill scan skipped entries", "error", result.Skipped)
	}
	return table, result.Skipped
}

// List returns the current catalog, sorted by name. It does not trigger a
// scan; call Refresh first.
func (r *Repository) List() []spec.SkillDescriptor {
	table := *r.table.Load()
	_ = r.sink.Log(spec.AuditEvent{TS: time.Now(), Kind: spec.AuditList, Detail: map[string]any{"count": len(table)}})
	return append([]spec.SkillDescriptor(nil), table...)
}

// Open returns a new Handle bound to name, or ErrSkillNotFound.
func (r *Repository) Open(name string) (*Handle, error) {
	table := *r.table.Load()
	for _, d := range table {
		if d.Name == name {
			_ = r.sink.Log(spec.AuditEvent{TS: time.Now(), Kind: spec.AuditOpen, Skill: name})
			return newHandle(d, r.reader, r.runner, r.sink), nil
		}
	}
	err := spec.NewSkillNotFoundError(name)
	_ = r.sink.Log(spec.AuditEvent{TS: time.Now(), Kind: spec.AuditError, Skill: name, Detail: map[string]any{"op": "open", "error": err.Error()}})
	return nil, err
}

// Search performs a case-insensitive substring match over name and
// description, optionally narrowed to a single name.
func (r *Repository) Search(query string, name string) []spec.SkillDescriptor {
	q := strings.ToLower(strings.TrimSpace(query))
	table := *r.table.Load()
	out := make([]spec.SkillDescriptor, 0, len(table))
	for _, d := range table {
		if name != "" && d.Name != name {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(d.Name), q) && !strings.Contains(strings.ToLower(d.Description), q) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// ToPrompt materializes the catalog in a form suitable for embedding in an
// agent system prompt. format is one of catalogxml.FormatClaudeXML or
// catalogxml.FormatJSON.
func (r *Repository) ToPrompt(format catalogxml.Format, includeLocation bool) (string, error) {
	table := *r.table.Load()
	return catalogxml.Render(table, format, catalogxml.Options{IncludeLocation: includeLocation})
}

// Sessions exposes the session store for callers that need to create,
// inspect, or transition sessions directly, outside the tool surface.
func (r *Repository) Sessions() *session.Store { return r.sessions }
