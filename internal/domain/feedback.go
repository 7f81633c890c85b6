package domain

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Sentinel values a classification field may carry instead of a taxonomy member.
const (
	SentinelOther     = "Other"
	SentinelUncertain = "Uncertain"
)

const (
	MaxTitleLen = 100
	MaxTags     = 10
)

// FeedbackItem is one structured, classified observation extracted from a
// source note. JSON field names are the on-disk batch interchange format.
type FeedbackItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Product     string `json:"product"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`

	// Set by enrichment; empty until enriched.
	Segment              string   `json:"segment,omitempty"`
	Department           string   `json:"department,omitempty"`
	SegmentConfidence    float64  `json:"segment_confidence,omitempty"`
	DepartmentConfidence float64  `json:"department_confidence,omitempty"`
	Reasoning            string   `json:"reasoning,omitempty"`
	Tags                 []string `json:"tags,omitempty"`

	UseCase    string `json:"use_case"`
	Impact     string `json:"impact"`
	RawContext string `json:"raw_context"`
	Quote      string `json:"quote,omitempty"`

	Source      string   `json:"source"`
	SourceURL   string   `json:"source_url,omitempty"`
	MeetingType string   `json:"meeting_type,omitempty"`
	MeetingDate string   `json:"meeting_date,omitempty"`
	Attendees   []string `json:"attendees,omitempty"`
	CreatedDate string   `json:"created_date"`
	UpdatedDate string   `json:"updated_date"`
	Status      string   `json:"status"`
	Internal    bool     `json:"internal"`
}

// ClassificationResult is the transient value returned by the enrichment
// oracle. It is never persisted on its own; Apply folds it into an item.
type ClassificationResult struct {
	Segment              string   `json:"segment"`
	Department           string   `json:"department"`
	EnrichedTags         []string `json:"enriched_tags"`
	SegmentConfidence    float64  `json:"segment_confidence"`
	DepartmentConfidence float64  `json:"department_confidence"`
	Reasoning            string   `json:"reasoning"`
}

// ValidationError reports a required field that is missing or carries a value
// outside the taxonomy. Recoverable per note or per item, never fatal.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: field %q %s", e.Field, e.Reason)
}

var idEntropy = rand.New(rand.NewSource(time.Now().UnixNano()))

// NewID returns a stable opaque item ID. Assigned once at extraction and
// never reassigned.
func NewID() string {
	return "FB-" + ulid.MustNew(ulid.Timestamp(time.Now()), idEntropy).String()
}

// NormalizeTitle is the canonical form used for duplicate detection.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Validate checks the fields every extracted item must carry.
func (f *FeedbackItem) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is empty"}
	}
	required := map[string]string{
		"product":     f.Product,
		"category":    f.Category,
		"priority":    f.Priority,
		"description": f.Description,
		"use_case":    f.UseCase,
		"impact":      f.Impact,
		"raw_context": f.RawContext,
	}
	for name, val := range required {
		if val == "" {
			return &ValidationError{Field: name, Reason: "is missing"}
		}
	}
	switch f.Priority {
	case "P0", "P1", "P2", "P3":
	default:
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("has invalid value %q", f.Priority)}
	}
	return nil
}

// LoadItems reads a batch file: a JSON array of feedback items.
func LoadItems(path string) ([]FeedbackItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	var items []FeedbackItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse batch %s: %w", path, err)
	}
	return items, nil
}

// SaveItems writes a batch file readable by LoadItems.
func SaveItems(path string, items []FeedbackItem) error {
	if items == nil {
		items = []FeedbackItem{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
