// Package skilltool exposes the repository's operations as the five tool
// functions an external agent framework wires up as callable tools:
// skills.list, skills.activate, skills.read, skills.run, skills.search.
// Every function returns a *spec.ToolResponse and never lets a typed error
// or panic cross its boundary — each is wrapped in spec.SafeCall.
package skilltool

import (
	"context"

	agentskills "github.com/kaija/agent-skills-runtime"
	"github.com/kaija/agent-skills-runtime/internal/catalogxml"
	"github.com/kaija/agent-skills-runtime/spec"
)

// ListArgs has no fields today; it exists so the tool surface can grow
// filtering options without changing the function signature.
type ListArgs struct{}

// List returns the full current catalog as a metadata response.
func List(_ context.Context, repo *agentskills.Repository, _ ListArgs) *spec.ToolResponse {
	return spec.SafeCall("", "", func() (*spec.ToolResponse, error) {
		return spec.NewMetadataResponse("", repo.List()), nil
	})
}

// ActivateArgs names the skill whose instructions should be loaded into the
// given session.
type ActivateArgs struct {
	SessionID string
	Skill     string
}

// Activate opens the named skill and returns its SKILL.md body, transitioning
// the session to INSTRUCTIONS_LOADED on success.
func Activate(_ context.Context, repo *agentskills.Repository, args ActivateArgs) *spec.ToolResponse {
	return spec.SafeCall(args.Skill, "", func() (*spec.ToolResponse, error) {
		sess, ok := repo.Sessions().Get(args.SessionID)
		if !ok {
			return nil, spec.ErrSessionNotFound
		}
		handle, err := repo.Open(args.Skill)
		if err != nil {
			return nil, err
		}
		body, err := handle.Instructions(sess)
		if err != nil {
			return nil, err
		}
		if err := repo.Sessions().Mutate(args.SessionID, func(s *spec.SkillSession) error {
			s.SkillName = args.Skill
			return nil
		}); err != nil {
			return nil, err
		}
		if sess.State != spec.StateInstructionsLoaded {
			if sess.State == spec.StateDiscovered {
				if _, err := repo.Sessions().Transition(args.SessionID, spec.StateSelected); err != nil {
					return nil, err
				}
			}
			if _, err := repo.Sessions().Transition(args.SessionID, spec.StateInstructionsLoaded); err != nil {
				return nil, err
			}
		}
		return spec.NewInstructionsResponse(args.Skill, body), nil
	})
}

// ReadArgs identifies a file to read relative to a skill's directory.
// Encoding selects "text" (default) or "binary".
type ReadArgs struct {
	SessionID string
	Skill     string
	Path      string
	Encoding  string
}

// Read serves a reference (text) or asset (binary) file under the named
// skill, subject to the resource policy.
func Read(_ context.Context, repo *agentskills.Repository, args ReadArgs) *spec.ToolResponse {
	return spec.SafeCall(args.Skill, args.Path, func() (*spec.ToolResponse, error) {
		sess, ok := repo.Sessions().Get(args.SessionID)
		if !ok {
			return nil, spec.ErrSessionNotFound
		}
		handle, err := repo.Open(args.Skill)
		if err != nil {
			return nil, err
		}
		if args.Encoding == "binary" {
			content, truncated, err := handle.ReadAsset(sess, args.Path)
			if err != nil {
				return nil, err
			}
			return spec.NewAssetResponse(args.Skill, args.Path, content, truncated), nil
		}
		content, truncated, err := handle.ReadReference(sess, args.Path)
		if err != nil {
			return nil, err
		}
		return spec.NewReferenceResponse(args.Skill, args.Path, content, truncated), nil
	})
}

// RunArgs identifies a script to execute under a skill's scripts/ directory.
type RunArgs struct {
	SessionID string
	Skill     string
	Path      string
	Args      []string
	Stdin     []byte
	TimeoutS  *int
}

// Run executes a script through the sandboxed runner and reports its
// ExecutionResult, including non-zero exits and timeouts, as a successful
// envelope; an error envelope means the script was never spawned (unknown
// session or skill, a policy rejection, or a failure to start the process).
func Run(ctx context.Context, repo *agentskills.Repository, args RunArgs) *spec.ToolResponse {
	return spec.SafeCall(args.Skill, args.Path, func() (*spec.ToolResponse, error) {
		sess, ok := repo.Sessions().Get(args.SessionID)
		if !ok {
			return nil, spec.ErrSessionNotFound
		}
		handle, err := repo.Open(args.Skill)
		if err != nil {
			return nil, err
		}
		result, err := handle.RunScript(ctx, sess, args.Path, args.Args, args.Stdin, args.TimeoutS)
		if err != nil {
			return nil, err
		}
		return spec.NewExecutionResultResponse(args.Skill, args.Path, result), nil
	})
}

// SearchArgs narrows the catalog by a case-insensitive substring query,
// optionally restricted to one skill name.
type SearchArgs struct {
	Query string
	Name  string
}

// Search performs a case-insensitive substring match over the catalog.
func Search(_ context.Context, repo *agentskills.Repository, args SearchArgs) *spec.ToolResponse {
	return spec.SafeCall(args.Name, "", func() (*spec.ToolResponse, error) {
		return spec.NewSearchResultsResponse(repo.Search(args.Query, args.Name)), nil
	})
}

// Prompt renders the catalog for embedding into an agent system prompt.
// format is "claude_xml" or "json"; anything else falls back to json.
func Prompt(_ context.Context, repo *agentskills.Repository, format string, includeLocation bool) *spec.ToolResponse {
	return spec.SafeCall("", "", func() (*spec.ToolResponse, error) {
		out, err := repo.ToPrompt(catalogxml.Format(format), includeLocation)
		if err != nil {
			return nil, err
		}
		return spec.NewMetadataResponse("", out), nil
	})
}
