// Package notes parses meeting note documents: an optional leading metadata
// block delimited by --- markers, followed by a free-text body.
package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Note is one parsed document.
type Note struct {
	Frontmatter map[string]any
	Body        string
}

// Metadata is the meeting context stamped onto every item extracted from a
// note.
type Metadata struct {
	MeetingType string
	MeetingDate string
	Title       string
	Attendees   []string
	SourceURL   string
}

var (
	frontmatterRe = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n(.*)`)
	datePatternRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// Parse splits a note into frontmatter and body. A document without a
// frontmatter block is all body. Malformed frontmatter YAML is treated as
// absent rather than failing the note.
func Parse(text string) Note {
	m := frontmatterRe.FindStringSubmatch(text)
	if m == nil {
		return Note{Frontmatter: map[string]any{}, Body: text}
	}
	fm := map[string]any{}
	if err := yaml.Unmarshal([]byte(m[1]), &fm); err != nil {
		fm = map[string]any{}
	}
	return Note{Frontmatter: fm, Body: m[2]}
}

// ParseFile reads and parses a note document from disk.
func ParseFile(path string) (Note, Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Note{}, Metadata{}, fmt.Errorf("read note: %w", err)
	}
	note := Parse(string(data))
	return note, ExtractMetadata(note, filepath.Base(path)), nil
}

// ExtractMetadata derives meeting metadata from a parsed note. Date priority:
// frontmatter date, frontmatter created, a YYYY-MM-DD pattern in the file
// name, today.
func ExtractMetadata(note Note, fileName string) Metadata {
	fm := note.Frontmatter

	date := ""
	if v, ok := fm["date"]; ok {
		date = asDateString(v)
	} else if v, ok := fm["created"]; ok {
		date = asDateString(v)
	} else if fileName != "" {
		date = datePatternRe.FindString(fileName)
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	title := asString(fm["title"])
	if title == "" {
		title = strings.TrimSuffix(fileName, ".md")
	}
	if title == "" {
		title = "Untitled Meeting"
	}

	meetingType := asString(fm["meeting_type"])
	if meetingType == "" {
		meetingType = "Call"
	}

	sourceURL := asString(fm["url"])
	if sourceURL == "" {
		sourceURL = asString(fm["source_url"])
	}

	return Metadata{
		MeetingType: meetingType,
		MeetingDate: date,
		Title:       title,
		Attendees:   parseAttendees(fm["attendees"]),
		SourceURL:   sourceURL,
	}
}

// parseAttendees accepts either a YAML list or a comma-separated string.
// Entries are trimmed and empties dropped.
func parseAttendees(v any) []string {
	var raw []string
	switch a := v.(type) {
	case string:
		raw = strings.Split(a, ",")
	case []any:
		for _, e := range a {
			raw = append(raw, asString(e))
		}
	case []string:
		raw = a
	}
	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// asDateString keeps only the date part of a frontmatter value: YAML may have
// parsed it into a time.Time already.
func asDateString(v any) string {
	switch d := v.(type) {
	case string:
		return strings.TrimSpace(d)
	case time.Time:
		return d.Format("2006-01-02")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", d)
	}
}
