package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"feedbackpipe/internal/config"
	"feedbackpipe/internal/domain"
	"feedbackpipe/internal/llm"
)

// stageOracle answers extraction calls with items and enrichment calls with
// a classification, telling them apart by the instruction text.
type stageOracle struct {
	extractJSON string
	enrichJSON  string
}

func (s *stageOracle) Classify(_ context.Context, instructions, _ string, _ llm.CallLimits) (string, error) {
	if strings.Contains(instructions, "extraction specialist") {
		return s.extractJSON, nil
	}
	return s.enrichJSON, nil
}

type memStore struct {
	rows [][]string
}

func (m *memStore) ColumnValues(_ context.Context, column int) ([]string, error) {
	var vals []string
	for _, r := range m.rows {
		vals = append(vals, r[column-1])
	}
	return vals, nil
}

func (m *memStore) AppendRows(_ context.Context, rows [][]string) error {
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *memStore) RowCount(_ context.Context, _ int) (int, error) { return len(m.rows) + 1, nil }
func (m *memStore) Location() string                               { return "mem://" }

const pipelineYAML = `
segments:
  - name: "Health Systems"
    keywords: ["hospital"]
departments:
  - name: "Clinical"
    keywords: ["physician"]
products:
  - name: "Analytics"
categories:
  - name: "Bug"
priorities:
  - name: "P1"
    description: "High"
llm:
  model: "claude-sonnet-4-20250514"
  extraction:
    max_tokens: 4000
  enrichment:
    max_tokens: 1000
processing:
  deduplicate: true
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	if err := os.WriteFile(path, []byte(pipelineYAML), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

const extractResponse = `[{
  "title": "Export is slow",
  "product": "Analytics",
  "category": "Bug",
  "priority": "P1",
  "description": "Exports take minutes",
  "use_case": "Monthly reporting",
  "impact": "Blocks workflow",
  "raw_context": "The export took forever",
  "quote": "The export took forever"
}]`

const enrichResponse = `{
  "segment": "Health Systems",
  "department": "Clinical",
  "enriched_tags": ["export"],
  "segment_confidence": 0.9,
  "department_confidence": 0.8,
  "reasoning": "company match"
}`

func writeNotes(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	note := `---
title: Review
date: 2024-03-01
attendees: Dr. Smith (Mercy Health)
---
Export performance discussion.`
	if err := os.WriteFile(filepath.Join(dir, "2024-03-01-review.md"), []byte(note), 0644); err != nil {
		t.Fatalf("write note: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a note"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return dir
}

func TestRunFullPipeline(t *testing.T) {
	cfg := testConfig(t)
	oracle := &stageOracle{extractJSON: extractResponse, enrichJSON: enrichResponse}
	p := New(cfg, oracle)
	store := &memStore{}

	items, result, err := p.Run(context.Background(), writeNotes(t), store, true)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Segment != "Health Systems" {
		t.Errorf("segment = %q, not enriched", items[0].Segment)
	}
	if items[0].MeetingDate != "2024-03-01" {
		t.Errorf("meeting date = %q", items[0].MeetingDate)
	}
	if result.Synced != 1 {
		t.Errorf("synced = %d", result.Synced)
	}
	if len(store.rows) != 1 {
		t.Errorf("store rows = %d", len(store.rows))
	}
}

func TestExtractPathSkipsFailedNote(t *testing.T) {
	cfg := testConfig(t)
	// Malformed extraction output fails the note but not the run.
	oracle := &stageOracle{extractJSON: "not json", enrichJSON: enrichResponse}
	p := New(cfg, oracle)

	items, err := p.ExtractPath(context.Background(), writeNotes(t))
	if err != nil {
		t.Fatalf("ExtractPath should not fail: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items from a failed note", len(items))
	}
}

func TestExtractPathMissing(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, &stageOracle{})
	if _, err := p.ExtractPath(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("missing path accepted")
	}
}

func TestDryRunEnrich(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, &stageOracle{})

	items := []domain.FeedbackItem{{Title: "x"}}
	items = p.DryRunEnrich(items, false)
	if items[0].Segment != domain.SentinelOther {
		t.Errorf("segment = %q", items[0].Segment)
	}
	if len(items[0].Tags) != 1 || items[0].Tags[0] != "dry-run" {
		t.Errorf("tags = %v", items[0].Tags)
	}
}
