package spec

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// ResponseType is the fixed set of ToolResponse.Type tags.
type ResponseType string

const (
	TypeMetadata        ResponseType = "metadata"
	TypeInstructions    ResponseType = "instructions"
	TypeReference       ResponseType = "reference"
	TypeAsset           ResponseType = "asset"
	TypeExecutionResult ResponseType = "execution_result"
	TypeSearchResults   ResponseType = "search_results"
	TypeError           ResponseType = "error"
)

// ToolResponse is the single uniform shape every outward-facing operation
// returns. Content is one of: a UTF-8 string, base64 text (binary asset),
// or a structured map/slice (metadata, search results, execution result).
type ToolResponse struct {
	OK        bool           `json:"ok"`
	Type      ResponseType   `json:"type"`
	Skill     string         `json:"skill,omitempty"`
	Path      string         `json:"path,omitempty"`
	Content   any            `json:"content,omitempty"`
	Bytes     int64          `json:"bytes,omitempty"`
	SHA256    string         `json:"sha256,omitempty"`
	Truncated bool           `json:"truncated,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

func digestHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// NewMetadataResponse wraps a catalog listing or search result payload.
func NewMetadataResponse(skill string, content any) *ToolResponse {
	return &ToolResponse{OK: true, Type: TypeMetadata, Skill: skill, Content: content}
}

// NewSearchResultsResponse wraps a search() result payload.
func NewSearchResultsResponse(content any) *ToolResponse {
	return &ToolResponse{OK: true, Type: TypeSearchResults, Content: content}
}

// NewInstructionsResponse wraps a skill's SKILL.md body, computing bytes and
// sha256 from the exact string returned.
func NewInstructionsResponse(skill, body string) *ToolResponse {
	b := []byte(body)
	return &ToolResponse{
		OK: true, Type: TypeInstructions, Skill: skill, Path: "SKILL.md",
		Content: body, Bytes: int64(len(b)), SHA256: digestHex(b),
	}
}

// NewReferenceResponse wraps a text reference file read.
func NewReferenceResponse(skill, path, content string, truncated bool) *ToolResponse {
	b := []byte(content)
	return &ToolResponse{
		OK: true, Type: TypeReference, Skill: skill, Path: path,
		Content: content, Bytes: int64(len(b)), SHA256: digestHex(b), Truncated: truncated,
	}
}

// NewAssetResponse wraps a binary asset read, base64-encoding the content.
func NewAssetResponse(skill, path string, content []byte, truncated bool) *ToolResponse {
	return &ToolResponse{
		OK: true, Type: TypeAsset, Skill: skill, Path: path,
		Content: base64.StdEncoding.EncodeToString(content),
		Bytes:   int64(len(content)), SHA256: digestHex(content), Truncated: truncated,
	}
}

// NewExecutionResultResponse wraps a run_script outcome. Non-zero and timeout
// exits are both OK=true envelopes; only pre-execution policy failures are
// OK=false.
func NewExecutionResultResponse(skill, path string, result ExecutionResult) *ToolResponse {
	return &ToolResponse{
		OK: true, Type: TypeExecutionResult, Skill: skill, Path: path,
		Content: result, Meta: result.Meta,
	}
}

// NewErrorResponse maps any error into the uniform error envelope, tagging it
// with its exception-class-style name (PathTraversalError, SkillNotFoundError,
// …) and the offending skill/path when known. This mirrors the original's
// type(error).__name__ convention; ErrorKindOf's lowercase taxonomy tag is
// used for audit events and CLI exit codes, not for this envelope.
func NewErrorResponse(skill, path string, err error) *ToolResponse {
	className := ErrorClassNameOf(err)
	return &ToolResponse{
		OK: false, Type: TypeError, Skill: skill, Path: path,
		Content: fmt.Sprintf("%s: %s", className, err.Error()),
		Meta:    map[string]any{"error_type": className},
	}
}

// SafeCall runs fn and guarantees the returned *ToolResponse is non-nil and
// that no panic escapes the boundary: a panicking fn is converted into an
// internal_error envelope, matching the "no exception escapes" contract of
// the original safe_call wrapper.
func SafeCall(skill, path string, fn func() (*ToolResponse, error)) (resp *ToolResponse) {
	defer func() {
		if r := recover(); r != nil {
			resp = NewErrorResponse(skill, path, fmt.Errorf("%w: panic: %v", ErrInternal, r))
		}
	}()
	out, err := fn()
	if err != nil {
		return NewErrorResponse(skill, path, err)
	}
	if out == nil {
		return NewErrorResponse(skill, path, fmt.Errorf("%w: nil response from handler", ErrInternal))
	}
	return out
}
