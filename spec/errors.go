// Package spec defines the wire-level and policy value types shared across
// the agent skills runtime: descriptors, sessions, execution results, the
// tool envelope, and the error taxonomy that every operation is classified
// into at the outward boundary.
package spec

import (
	"errors"
	"fmt"
)

// ErrorKind is one of the fixed taxonomy tags carried in an error ToolResponse.
// It is a classification, not a Go type: several distinct sentinel errors can
// map to the same kind (path_traversal and resource_too_large are both
// policy_violation subtypes, for instance).
type ErrorKind string

const (
	KindSkillNotFound           ErrorKind = "skill_not_found"
	KindSkillParseError         ErrorKind = "skill_parse_error"
	KindPolicyViolation         ErrorKind = "policy_violation"
	KindPathTraversal           ErrorKind = "path_traversal"
	KindResourceTooLarge        ErrorKind = "resource_too_large"
	KindScriptExecutionDisabled ErrorKind = "script_execution_disabled"
	KindScriptTimeout           ErrorKind = "script_timeout"
	KindScriptFailed            ErrorKind = "script_failed"
	KindInternal                ErrorKind = "internal_error"
)

// Sentinel errors. Compare with errors.Is, never by string or type switch.
//
// Some sentinels form a hierarchy the way the Python original's exception
// classes do (PathTraversalError is-a PolicyViolationError): here that is
// expressed by wrapping both sentinels into one error with fmt.Errorf's
// multi-%w support, not by struct embedding.
var (
	ErrSkillNotFound           = errors.New("skill not found")
	ErrSkillAlreadyExists      = errors.New("skill already exists")
	ErrSkillParseError         = errors.New("skill parse error")
	ErrPolicyViolation         = errors.New("policy violation")
	ErrPathTraversal           = errors.New("path traversal")
	ErrResourceTooLarge        = errors.New("resource too large")
	ErrScriptExecutionDisabled = errors.New("script execution disabled")
	ErrScriptTimeout           = errors.New("script timeout")
	ErrScriptFailed            = errors.New("script failed")
	ErrSessionNotFound         = errors.New("session not found")
	ErrSessionClosed           = errors.New("session closed")
	ErrInvalidTransition       = errors.New("invalid session state transition")
	ErrInvalidArgument         = errors.New("invalid argument")
	ErrInternal                = errors.New("internal error")
)

// NewSkillNotFoundError reports a lookup miss, naming the skill that was
// requested so callers can echo it back to the agent.
func NewSkillNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrSkillNotFound, name)
}

// NewSkillParseError wraps a frontmatter or body parse failure for one path.
func NewSkillParseError(path string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrSkillParseError, path)
	}
	return fmt.Errorf("%w: %s: %w", ErrSkillParseError, path, cause)
}

// NewPathTraversalError reports a resolved path escaping its skill root, or
// any other rejected form (absolute input, "..", drive/UNC prefix, SKILL.md
// itself). It satisfies errors.Is against both ErrPathTraversal and the
// broader ErrPolicyViolation.
func NewPathTraversalError(msg string) error {
	return fmt.Errorf("%w: %w: %s", ErrPolicyViolation, ErrPathTraversal, msg)
}

// NewResourceTooLargeError reports a read that could not be satisfied even
// with truncation (binary content, or a session budget too small for any
// UTF-8-safe prefix).
func NewResourceTooLargeError(msg string) error {
	return fmt.Errorf("%w: %w: %s", ErrPolicyViolation, ErrResourceTooLarge, msg)
}

// NewScriptExecutionDisabledError reports ExecutionPolicy.Enabled == false.
func NewScriptExecutionDisabledError() error {
	return fmt.Errorf("%w: %w", ErrPolicyViolation, ErrScriptExecutionDisabled)
}

// NewPolicyViolationError reports a generic policy rejection (skill not in
// allow_skills, script glob not matched, unreadable/non-regular script file).
func NewPolicyViolationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrPolicyViolation, msg)
}

// ErrorKindOf classifies err into one of the fixed taxonomy tags for use in
// audit events and CLI exit-code selection. Order matters: the more specific
// sentinels are checked before the generic ErrPolicyViolation they wrap.
func ErrorKindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPathTraversal):
		return KindPathTraversal
	case errors.Is(err, ErrResourceTooLarge):
		return KindResourceTooLarge
	case errors.Is(err, ErrScriptExecutionDisabled):
		return KindScriptExecutionDisabled
	case errors.Is(err, ErrPolicyViolation):
		return KindPolicyViolation
	case errors.Is(err, ErrSkillNotFound):
		return KindSkillNotFound
	case errors.Is(err, ErrSkillParseError):
		return KindSkillParseError
	case errors.Is(err, ErrScriptTimeout):
		return KindScriptTimeout
	case errors.Is(err, ErrScriptFailed):
		return KindScriptFailed
	default:
		return KindInternal
	}
}

// ErrorClassNameOf maps err to the exception-class-style name the error
// envelope carries in content and meta.error_type — the Go equivalent of
// Python's type(error).__name__ against the original's exception hierarchy
// (PathTraversalError is-a PolicyViolationError, etc). This is distinct from
// ErrorKindOf: the kind is a lowercase classification tag for audit events
// and exit codes, this is the class name a caller matches against.
func ErrorClassNameOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPathTraversal):
		return "PathTraversalError"
	case errors.Is(err, ErrResourceTooLarge):
		return "ResourceTooLargeError"
	case errors.Is(err, ErrScriptExecutionDisabled):
		return "ScriptExecutionDisabledError"
	case errors.Is(err, ErrPolicyViolation):
		return "PolicyViolationError"
	case errors.Is(err, ErrSkillNotFound):
		return "SkillNotFoundError"
	case errors.Is(err, ErrSkillParseError):
		return "SkillParseError"
	case errors.Is(err, ErrScriptTimeout):
		return "ScriptTimeoutError"
	case errors.Is(err, ErrScriptFailed):
		return "ScriptFailedError"
	case errors.Is(err, ErrSessionNotFound):
		return "SessionNotFoundError"
	case errors.Is(err, ErrSessionClosed):
		return "SessionClosedError"
	case errors.Is(err, ErrInvalidTransition):
		return "InvalidTransitionError"
	case errors.Is(err, ErrInvalidArgument):
		return "InvalidArgumentError"
	default:
		return "InternalError"
	}
}
