package spec

import "time"

// SkillDescriptor is the immutable metadata record produced by the scanner
// for one skill directory. It is owned by the repository; handles borrow it.
type SkillDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// Path is the absolute skill directory (not the SKILL.md file itself).
	Path string `json:"path"`

	License       string         `json:"license,omitempty"`
	Compatibility map[string]any `json:"compatibility,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	AllowedTools  []string       `json:"allowed_tools,omitempty"`

	// Hash is "sha256:<hex>" over the raw SKILL.md bytes at last scan.
	Hash string `json:"hash"`

	MTime time.Time `json:"mtime"`
}

// ResourcePolicy bounds what the resource reader will hand back.
type ResourcePolicy struct {
	MaxFileBytes            int64
	MaxTotalBytesPerSession int64
	AllowExtensionsText     map[string]bool
	AllowBinaryAssets       bool
	BinaryMaxBytes          int64
}

// DefaultResourcePolicy matches the defaults fixed by the data model.
func DefaultResourcePolicy() ResourcePolicy {
	return ResourcePolicy{
		MaxFileBytes:            200_000,
		MaxTotalBytesPerSession: 1_000_000,
		AllowExtensionsText: map[string]bool{
			".md": true, ".txt": true, ".json": true, ".yaml": true,
			".yml": true, ".csv": true, ".tsv": true, ".rst": true,
		},
		AllowBinaryAssets: true,
		BinaryMaxBytes:    2_000_000,
	}
}

// WorkdirMode selects how the script runner stages a child process's cwd.
type WorkdirMode string

const (
	WorkdirModeSkillRoot WorkdirMode = "skill_root"
	WorkdirModeTempdir   WorkdirMode = "tempdir"
)

// ExecutionPolicy is closed by default: no scripts run until explicitly
// enabled and allow-listed.
type ExecutionPolicy struct {
	Enabled          bool
	AllowSkills      map[string]bool
	AllowScriptsGlob []string
	TimeoutSDefault  int
	NetworkAccess    bool
	EnvAllowlist     map[string]bool
	WorkdirMode      WorkdirMode
}

// DefaultExecutionPolicy matches the defaults fixed by the data model.
func DefaultExecutionPolicy() ExecutionPolicy {
	return ExecutionPolicy{
		Enabled:          false,
		AllowSkills:      map[string]bool{},
		AllowScriptsGlob: nil,
		TimeoutSDefault:  60,
		NetworkAccess:    false,
		EnvAllowlist: map[string]bool{
			"PATH": true, "HOME": true, "LANG": true, "LC_ALL": true,
		},
		WorkdirMode: WorkdirModeSkillRoot,
	}
}

// ExecutionResult is produced by the script runner. ExitCode -1 is reserved
// for a deadline that expired before the child exited on its own.
type ExecutionResult struct {
	ExitCode   int            `json:"exit_code"`
	Stdout     string         `json:"stdout"`
	Stderr     string         `json:"stderr"`
	DurationMS int64          `json:"duration_ms"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// AuditEventKind enumerates the fixed set of audit event kinds.
type AuditEventKind string

const (
	AuditScan            AuditEventKind = "scan"
	AuditList            AuditEventKind = "list"
	AuditOpen            AuditEventKind = "open"
	AuditActivate        AuditEventKind = "activate"
	AuditRead            AuditEventKind = "read"
	AuditExecute         AuditEventKind = "execute"
	AuditPolicyViolation AuditEventKind = "policy_violation"
	AuditError           AuditEventKind = "error"
)

// AuditEvent is one append-only record in a session's (or the scanner's)
// audit trail.
type AuditEvent struct {
	TS     time.Time      `json:"ts"`
	Kind   AuditEventKind `json:"kind"`
	Skill  string         `json:"skill,omitempty"`
	Path   string         `json:"path,omitempty"`
	Bytes  int64          `json:"bytes,omitempty"`
	SHA256 string         `json:"sha256,omitempty"`
	Detail map[string]any `json:"detail,omitempty"`
}
