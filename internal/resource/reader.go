// Package resource implements bounded, budget-aware reads of skill
// reference and asset files.
package resource

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kaija/agent-skills-runtime/spec"
)

// Reader performs policy-bounded reads against already-resolved absolute
// paths. It does not resolve paths itself — callers run pathresolver.Resolve
// first — and it does not know about skills, only bytes and budgets.
type Reader struct {
	policy spec.ResourcePolicy
}

// New constructs a Reader bound to a fixed ResourcePolicy.
func New(policy spec.ResourcePolicy) *Reader {
	return &Reader{policy: policy}
}

// ReadText reads a text reference file. The file's extension (as
// filepath.Ext returns it, lower-cased) must be in AllowExtensionsText.
// session.BytesConsumed is debited by exactly the number of bytes returned.
func (r *Reader) ReadText(session *spec.SkillSession, resolvedPath string) (content string, truncated bool, err error) {
	ext := strings.ToLower(filepath.Ext(resolvedPath))
	if !r.policy.AllowExtensionsText[ext] {
		return "", false, spec.NewPolicyViolationError("extension not allowed for text reads: " + ext)
	}

	data, truncated, err := r.readBounded(session, resolvedPath, r.policy.MaxFileBytes, true)
	if err != nil {
		return "", false, err
	}
	return string(data), truncated, nil
}

// ReadBinary reads a binary asset file. It never truncates: if the file
// exceeds BinaryMaxBytes or the remaining session budget, it fails with
// ResourceTooLargeError instead.
func (r *Reader) ReadBinary(session *spec.SkillSession, resolvedPath string) (content []byte, truncated bool, err error) {
	if !r.policy.AllowBinaryAssets {
		return nil, false, spec.NewPolicyViolationError("binary asset access is disabled")
	}
	return r.readBounded(session, resolvedPath, r.policy.BinaryMaxBytes, false)
}

func (r *Reader) readBounded(session *spec.SkillSession, path string, perFileMax int64, isText bool) ([]byte, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, err
	}
	if info.IsDir() {
		return nil, false, spec.NewPolicyViolationError("path is not a file: " + path)
	}

	size := info.Size()
	fileCapped := size > perFileMax
	readSize := size
	if fileCapped {
		readSize = perFileMax
	}

	remaining := r.policy.MaxTotalBytesPerSession - session.BytesConsumed
	if remaining <= 0 {
		return nil, false, spec.NewResourceTooLargeError("session byte budget exhausted")
	}
	sessionCapped := readSize > remaining
	finalSize := readSize
	if sessionCapped {
		finalSize = remaining
	}
	truncated := fileCapped || sessionCapped

	if truncated && !isText {
		return nil, false, spec.NewResourceTooLargeError("binary content exceeds available budget and cannot be truncated")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, finalSize))
	if err != nil {
		return nil, false, err
	}

	if truncated && isText {
		safe := utf8SafeCut(buf, len(buf))
		buf = buf[:safe]
		if len(buf) == 0 {
			return nil, false, spec.NewResourceTooLargeError("byte budget too small for any UTF-8-safe prefix")
		}
	}

	session.BytesConsumed += int64(len(buf))
	return buf, truncated, nil
}

// utf8SafeCut returns the largest n' <= n such that b[:n'] does not end in
// the middle of a multi-byte UTF-8 sequence, by trimming back one byte at a
// time while the last rune of the candidate slice fails to decode.
func utf8SafeCut(b []byte, n int) int {
	if n > len(b) {
		n = len(b)
	}
	if n <= 0 {
		return 0
	}
	for n > 0 {
		r, size := utf8.DecodeLastRune(b[:n])
		if r != utf8.RuneError || size != 1 {
			break
		}
		n--
	}
	return n
}

// ComputeSHA256 hex-digests content, matching the "sha256:<hex>"-less form
// used directly in ToolResponse.SHA256 (the "sha256:" prefix convention is
// reserved for descriptor hashes, per §3).
func ComputeSHA256(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
