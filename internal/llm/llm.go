// Package llm wraps the external classification oracle behind a narrow
// capability interface so the pipeline never depends on a provider SDK
// directly.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// CallLimits bounds a single oracle call.
type CallLimits struct {
	MaxTokens   int64
	Temperature float64
}

// Client sends a system instruction plus a user payload to a text-generation
// capability and returns its raw text output.
type Client interface {
	Classify(ctx context.Context, instructions, payload string, limits CallLimits) (string, error)
}

// OracleError covers transport failures, provider errors, and empty output.
// Recoverable per call.
type OracleError struct {
	Op  string
	Err error
}

func (e *OracleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oracle %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("oracle %s", e.Op)
}

func (e *OracleError) Unwrap() error { return e.Err }

const malformedPreviewLen = 200

// MalformedOutputError means the oracle produced text that does not contain
// parseable JSON. Carries a truncated preview for diagnostics.
type MalformedOutputError struct {
	Output string
	Err    error
}

func (e *MalformedOutputError) Error() string {
	preview := e.Output
	if len(preview) > malformedPreviewLen {
		preview = preview[:malformedPreviewLen]
	}
	return fmt.Sprintf("malformed oracle output: %v (output: %s)", e.Err, preview)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\n?(.*?)\n?```")

// ExtractJSON returns the JSON text inside an oracle response. Output wrapped
// in a fenced code block and bare output with the same JSON yield the same
// string.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}
