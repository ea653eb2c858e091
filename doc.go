// Package agentskills implements a runtime for agent skills: directories
// containing a SKILL.md (YAML frontmatter plus a Markdown body) and optional
// references/, assets/, and scripts/ subtrees. A Repository scans one or
// more root directories into a catalog of SkillDescriptors, hands out
// per-call Handles for progressive disclosure (metadata at scan time, body
// on activation, files on read, scripts on run), and enforces the resource
// and execution policies that bound what a handle can do.
//
// The package is stateless with respect to per-conversation state: callers
// track SkillSessions returned by the session store between turns.
package agentskills
