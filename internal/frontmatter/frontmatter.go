// Package frontmatter splits a SKILL.md document into its YAML frontmatter
// block and residual body text.
package frontmatter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Parsed is the result of splitting and decoding one SKILL.md document.
type Parsed struct {
	// Metadata is the full decoded frontmatter map, including name and
	// description alongside every unrecognized key.
	Metadata map[string]any
	// Body is everything after the closing delimiter line, with at most
	// one leading newline trimmed.
	Body string
}

// Parse splits text into frontmatter and body, decoding the frontmatter as
// YAML. If no leading "---" delimiter is present, Parse returns an empty
// Metadata map and the entire text as Body — this is not an error.
//
// Parse fails when the opening delimiter is present but the closing one is
// missing, when the block does not parse as YAML, or when the decoded
// frontmatter is missing a non-empty "name" or "description".
func Parse(text string) (Parsed, error) {
	raw, body, hasFrontmatter, err := split(text)
	if err != nil {
		return Parsed{}, err
	}
	if !hasFrontmatter {
		return Parsed{Metadata: map[string]any{}, Body: text}, nil
	}

	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		return Parsed{}, fmt.Errorf("invalid frontmatter YAML: %w", err)
	}

	name, _ := meta["name"].(string)
	desc, _ := meta["description"].(string)
	if strings.TrimSpace(name) == "" {
		return Parsed{}, errors.New("frontmatter is missing required key \"name\"")
	}
	if strings.TrimSpace(desc) == "" {
		return Parsed{}, errors.New("frontmatter is missing required key \"description\"")
	}

	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\r\n")
	return Parsed{Metadata: meta, Body: body}, nil
}

// split locates the frontmatter block by scanning line-by-line for the
// opening and closing "---" delimiters, the way a streaming reader would,
// rather than by a regular expression over the whole document.
func split(text string) (frontmatterText, body string, hasFrontmatter bool, err error) {
	r := bufio.NewReader(strings.NewReader(text))

	first, ferr := r.ReadString('\n')
	if ferr != nil && !errors.Is(ferr, io.EOF) {
		return "", "", false, ferr
	}
	if strings.TrimSpace(strings.TrimRight(first, "\r\n")) != delimiter {
		return "", text, false, nil
	}

	var lines []string
	closed := false
	for {
		line, lerr := r.ReadString('\n')
		if lerr != nil && !errors.Is(lerr, io.EOF) {
			return "", "", false, lerr
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(trimmed) == delimiter {
			closed = true
			break
		}
		lines = append(lines, trimmed)
		if errors.Is(lerr, io.EOF) {
			break
		}
	}
	if !closed {
		return "", "", false, errors.New("unterminated frontmatter: missing closing \"---\"")
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		return "", "", false, err
	}
	return strings.Join(lines, "\n"), string(rest), true, nil
}
