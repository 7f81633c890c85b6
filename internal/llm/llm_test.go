package llm

import (
	"strings"
	"testing"
)

func TestExtractJSONFenced(t *testing.T) {
	want := `[{"title": "Export is slow"}]`
	cases := []string{
		"```json\n" + want + "\n```",
		"```\n" + want + "\n```",
		"Here is the result:\n```json\n" + want + "\n```\nLet me know if you need anything else.",
		want,
		"  " + want + "\n",
	}
	for _, in := range cases {
		if got := ExtractJSON(in); got != want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractJSONNoJSON(t *testing.T) {
	in := "I could not find any feedback."
	if got := ExtractJSON(in); got != in {
		t.Errorf("ExtractJSON(%q) = %q, want input unchanged", in, got)
	}
}

func TestMalformedOutputErrorPreview(t *testing.T) {
	long := strings.Repeat("x", 500)
	err := &MalformedOutputError{Output: long}
	msg := err.Error()
	if strings.Contains(msg, strings.Repeat("x", 201)) {
		t.Errorf("error message carries more than the preview: %d chars", len(msg))
	}
	if !strings.Contains(msg, strings.Repeat("x", 200)) {
		t.Error("error message should carry the 200-char preview")
	}
}

func TestOracleErrorUnwrap(t *testing.T) {
	inner := &MalformedOutputError{Output: "oops"}
	err := &OracleError{Op: "classify", Err: inner}
	if err.Unwrap() != inner {
		t.Error("OracleError should unwrap to inner error")
	}
	if !strings.Contains(err.Error(), "classify") {
		t.Errorf("error message should name the operation: %q", err.Error())
	}
}
