// Package catalogxml renders a skill catalog into the two prompt-embeddable
// forms a repository's to_prompt operation exposes: claude_xml and json.
package catalogxml

import (
	"encoding/json"
	"encoding/xml"

	"github.com/kaija/agent-skills-runtime/spec"
)

// Format selects the rendering produced by Render.
type Format string

const (
	FormatClaudeXML Format = "claude_xml"
	FormatJSON      Format = "json"
)

// xmlCatalog is the root element for claude_xml rendering.
type xmlCatalog struct {
	XMLName xml.Name   `xml:"skills"`
	Skills  []xmlSkill `xml:"skill"`
}

type xmlSkill struct {
	Name         string   `xml:"name,attr"`
	Description  string   `xml:"description"`
	Path         string   `xml:"path,omitempty"`
	AllowedTools []string `xml:"allowed_tools>tool,omitempty"`
}

// jsonDescriptor is the compact per-skill object for the json format. It
// omits path unless the caller asked for it, matching the CLI's
// --include-location flag.
type jsonDescriptor struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Path         string   `json:"path,omitempty"`
	AllowedTools []string `json:"allowed_tools,omitempty"`
}

// Options controls rendering detail shared by both formats.
type Options struct {
	// IncludeLocation adds each skill's absolute directory path to the
	// output. Off by default so a prompt embedding the catalog doesn't leak
	// host filesystem layout unless the caller opts in.
	IncludeLocation bool
}

// Render produces the requested format over descriptors, already sorted by
// the repository. An unrecognized format is treated as FormatJSON.
func Render(descriptors []spec.SkillDescriptor, format Format, opts Options) (string, error) {
	if format == FormatClaudeXML {
		return renderClaudeXML(descriptors, opts)
	}
	return renderJSON(descriptors, opts)
}

func renderClaudeXML(descriptors []spec.SkillDescriptor, opts Options) (string, error) {
	cat := xmlCatalog{Skills: make([]xmlSkill, 0, len(descriptors))}
	for _, d := range descriptors {
		s := xmlSkill{
			Name:         d.Name,
			Description:  d.Description,
			AllowedTools: d.AllowedTools,
		}
		if opts.IncludeLocation {
			s.Path = d.Path
		}
		cat.Skills = append(cat.Skills, s)
	}
	out, err := xml.MarshalIndent(cat, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}

func renderJSON(descriptors []spec.SkillDescriptor, opts Options) (string, error) {
	out := make([]jsonDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		jd := jsonDescriptor{
			Name:         d.Name,
			Description:  d.Description,
			AllowedTools: d.AllowedTools,
		}
		if opts.IncludeLocation {
			jd.Path = d.Path
		}
		out = append(out, jd)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
