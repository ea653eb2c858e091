package frontmatter

import (
	"strings"
	"testing"
)

func TestParse_ValidFrontmatter(t *testing.T) {
	t.Parallel()

	doc := "---\nname: demo\ndescription: a demo skill\nlicense: MIT\n---\n# Demo\n\nBody text.\n"
	got, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Metadata["name"] != "demo" {
		t.Errorf("name = %v, want demo", got.Metadata["name"])
	}
	if got.Metadata["description"] != "a demo skill" {
		t.Errorf("description = %v", got.Metadata["description"])
	}
	if got.Metadata["license"] != "MIT" {
		t.Errorf("license = %v", got.Metadata["license"])
	}
	wantBody := "# Demo\n\nBody text.\n"
	if got.Body != wantBody {
		t.Errorf("body = %q, want %q", got.Body, wantBody)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	t.Parallel()

	doc := "# Just a heading\n\nNo frontmatter here.\n"
	got, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got.Metadata) != 0 {
		t.Errorf("metadata = %v, want empty", got.Metadata)
	}
	if got.Body != doc {
		t.Errorf("body = %q, want unchanged input", got.Body)
	}
}

func TestParse_UnterminatedFrontmatter(t *testing.T) {
	t.Parallel()

	doc := "---\nname: demo\ndescription: d\n"
	_, err := Parse(doc)
	if err == nil || !strings.Contains(err.Error(), "unterminated") {
		t.Fatalf("Parse: got %v, want unterminated frontmatter error", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	t.Parallel()

	doc := "---\nname: [unterminated\ndescription: d\n---\nbody\n"
	_, err := Parse(doc)
	if err == nil {
		t.Fatal("Parse: want error for invalid YAML, got nil")
	}
}

func TestParse_MissingRequiredKeys(t *testing.T) {
	t.Parallel()

	cases := []string{
		"---\ndescription: d\n---\nbody\n",
		"---\nname: demo\n---\nbody\n",
		"---\nname: \"\"\ndescription: d\n---\nbody\n",
	}
	for _, doc := range cases {
		if _, err := Parse(doc); err == nil {
			t.Errorf("Parse(%q): want error, got nil", doc)
		}
	}
}

func TestParse_EmptyBody(t *testing.T) {
	t.Parallel()

	doc := "---\nname: demo\ndescription: d\n---\n"
	got, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Body != "" {
		t.Errorf("body = %q, want empty", got.Body)
	}
}

func TestParse_UnknownKeysPreserved(t *testing.T) {
	t.Parallel()

	doc := "---\nname: demo\ndescription: d\nauthor: jane\nversion: 2\n---\nbody\n"
	got, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Metadata["author"] != "jane" {
		t.Errorf("author = %v", got.Metadata["author"])
	}
}
