package agentskills

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kaija/agent-skills-runtime/internal/audit"
	"github.com/kaija/agent-skills-runtime/internal/frontmatter"
	"github.com/kaija/agent-skills-runtime/internal/pathresolver"
	"github.com/kaija/agent-skills-runtime/internal/resource"
	"github.com/kaija/agent-skills-runtime/internal/sandbox"
	"github.com/kaija/agent-skills-runtime/spec"
)

// Handle is a transient object bound to one descriptor and the repository's
// policy/reader/runner. It memoizes the SKILL.md body on first access and
// charges every returned byte to the given session. A Handle must not be
// shared across sessions: each Open call returns a fresh one.
type Handle struct {
	descriptor spec.SkillDescriptor
	reader     *resource.Reader
	runner     *sandbox.Runner
	sink       audit.Sink

	bodyOnce sync.Once
	body     string
	bodyErr  error
}

func newHandle(d spec.SkillDescriptor, reader *resource.Reader, runner *sandbox.Runner, sink audit.Sink) *Handle {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &Handle{descriptor: d, reader: reader, runner: runner, sink: sink}
}

// Descriptor returns the immutable metadata this handle was opened against.
func (h *Handle) Descriptor() spec.SkillDescriptor { return h.descriptor }

// Instructions returns the SKILL.md body (everything after the frontmatter
// delimiter), memoized after the first read (a failed first read is
// memoized too, so later calls return the same error), and emits an
// AuditActivate event on that first read. Re-validates against the current
// on-disk hash only on the first call; subsequent calls return the memoized
// value even if the file changed underneath, matching "activate" being a
// one-time, not a polling, operation.
func (h *Handle) Instructions(session *spec.SkillSession) (string, error) {
	h.bodyOnce.Do(func() {
		path := filepath.Join(h.descriptor.Path, "SKILL.md")
		data, err := os.ReadFile(path)
		if err != nil {
			h.bodyErr = spec.NewSkillParseError(path, err)
			_ = h.sink.Log(spec.AuditEvent{TS: time.Now(), Kind: spec.AuditError, Skill: h.descriptor.Name, Detail: map[string]any{"op": "activate", "error": h.bodyErr.Error()}})
			return
		}
		if h.descriptor.Hash != "" && "sha256:"+resource.ComputeSHA256(data) != h.descriptor.Hash {
			h.bodyErr = spec.NewSkillParseError(path, errors.New("SKILL.md changed since last scan"))
			_ = h.sink.Log(spec.AuditEvent{TS: time.Now(), Kind: spec.AuditError, Skill: h.descriptor.Name, Detail: map[string]any{"op": "activate", "error": h.bodyErr.Error()}})
			return
		}
		parsed, err := frontmatter.Parse(string(data))
		if err != nil {
			h.bodyErr = spec.NewSkillParseError(path, err)
			_ = h.sink.Log(spec.AuditEvent{TS: time.Now(), Kind: spec.AuditError, Skill: h.descriptor.Name, Detail: map[string]any{"op": "activate", "error": h.bodyErr.Error()}})
			return
		}
		h.body = parsed.Body
		if session != nil {
			session.BytesConsumed += int64(len(h.body))
		}
		_ = h.sink.Log(spec.AuditEvent{
			TS: time.Now(), Kind: spec.AuditActivate, Skill: h.descriptor.Name, Path: "SKILL.md",
			Bytes: int64(len(h.body)), SHA256: resource.ComputeSHA256([]byte(h.body)),
		})
	})
	return h.body, h.bodyErr
}

// ReadReference reads a text file under references/, applying the resource
// policy and charging session.BytesConsumed for exactly what is returned.
func (h *Handle) ReadReference(session *spec.SkillSession, relPath string) (content string, truncated bool, err error) {
	return h.readText(session, relPath, "references")
}

// ReadAsset reads a binary file under assets/. Unlike ReadReference it never
// truncates: content that doesn't fit the remaining budget fails outright.
func (h *Handle) ReadAsset(session *spec.SkillSession, relPath string) (content []byte, truncated bool, err error) {
	resolved, rerr := pathresolver.Resolve(h.descriptor.Path, relPath, "assets")
	if rerr != nil {
		h.logRead(relPath, nil, rerr)
		return nil, false, rerr
	}
	content, truncated, err = h.reader.ReadBinary(session, resolved)
	h.logRead(relPath, content, err)
	return content, truncated, err
}

func (h *Handle) readText(session *spec.SkillSession, relPath, allowedDir string) (string, bool, error) {
	resolved, err := pathresolver.Resolve(h.descriptor.Path, relPath, allowedDir)
	if err != nil {
		h.logRead(relPath, nil, err)
		return "", false, err
	}
	content, truncated, err := h.reader.ReadText(session, resolved)
	h.logRead(relPath, []byte(content), err)
	return content, truncated, err
}

// logRead emits the read audit event, carrying the SHA-256 of exactly the
// bytes returned to the caller.
func (h *Handle) logRead(relPath string, content []byte, err error) {
	if err != nil {
		_ = h.sink.Log(spec.AuditEvent{
			TS: time.Now(), Kind: spec.AuditError, Skill: h.descriptor.Name, Path: relPath,
			Detail: map[string]any{"op": "read", "error": err.Error()},
		})
		return
	}
	_ = h.sink.Log(spec.AuditEvent{
		TS: time.Now(), Kind: spec.AuditRead, Skill: h.descriptor.Name, Path: relPath,
		Bytes: int64(len(content)), SHA256: resource.ComputeSHA256(content),
	})
}

// RunScript executes a script under scripts/, subject to the execution
// policy. A nil error always carries a populated ExecutionResult, even for a
// non-zero exit or a timeout; a non-nil error means the child was never
// spawned (a policy rejection, or a failure to start the process).
func (h *Handle) RunScript(ctx context.Context, session *spec.SkillSession, relPath string, args []string, stdin []byte, timeoutS *int) (spec.ExecutionResult, error) {
	if h.runner == nil {
		return spec.ExecutionResult{}, spec.NewScriptExecutionDisabledError()
	}
	result, err := h.runner.Run(ctx, h.descriptor.Path, h.descriptor.Name, relPath, args, stdin, timeoutS)
	if err != nil {
		kind := spec.ErrorKindOf(err)
		eventKind := spec.AuditError
		if kind == spec.KindPolicyViolation || kind == spec.KindPathTraversal || kind == spec.KindScriptExecutionDisabled {
			eventKind = spec.AuditPolicyViolation
		}
		_ = h.sink.Log(spec.AuditEvent{
			TS: time.Now(), Kind: eventKind, Skill: h.descriptor.Name, Path: relPath,
			Detail: map[string]any{"op": "run", "error": err.Error()},
		})
		return spec.ExecutionResult{}, err
	}
	_ = h.sink.Log(spec.AuditEvent{
		TS: time.Now(), Kind: spec.AuditExecute, Skill: h.descriptor.Name, Path: relPath,
		Detail: map[string]any{"exit_code": result.ExitCode, "duration_ms": result.DurationMS},
	})
	return result, nil
}
