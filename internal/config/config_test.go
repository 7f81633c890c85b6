package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
segments:
  - name: "Health Systems"
    description: "Hospitals and provider networks"
    keywords: ["hospital", "clinic", "provider"]
  - name: "Pharma"
    description: "Pharmaceutical companies"
    keywords: ["pharma", "trial"]
departments:
  - name: "Clinical"
    description: "Clinical teams"
    keywords: ["physician", "nurse"]
products:
  - name: "Analytics"
    description: "Analytics platform"
    keywords: ["dashboard", "report", "chart", "export", "filter", "extra"]
categories:
  - name: "Feature Request"
    description: "New capability"
  - name: "Bug"
    description: "Defect"
priorities:
  - name: "P0"
    description: "Critical"
  - name: "P1"
    description: "High"
llm:
  model: "claude-sonnet-4-20250514"
  extraction:
    max_tokens: 4000
    temperature: 0.3
  enrichment:
    max_tokens: 1000
    temperature: 0.2
processing:
  deduplicate: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Taxonomy.Segments) != 2 {
		t.Errorf("got %d segments, want 2", len(cfg.Taxonomy.Segments))
	}
	if cfg.LLM.Model != "claude-sonnet-4-20250514" {
		t.Errorf("unexpected model %q", cfg.LLM.Model)
	}
	if cfg.LLM.Extraction.MaxTokens != 4000 {
		t.Errorf("extraction max_tokens = %d, want 4000", cfg.LLM.Extraction.MaxTokens)
	}
	if !cfg.Processing.Deduplicate {
		t.Error("deduplicate should be true")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Processing.SimilarityThreshold != 1.0 {
		t.Errorf("similarity threshold default = %v, want 1.0", cfg.Processing.SimilarityThreshold)
	}
	if cfg.Processing.BatchSize != 100 {
		t.Errorf("batch size default = %d, want 100", cfg.Processing.BatchSize)
	}
	if cfg.SQLite.DBPath == "" {
		t.Error("sqlite db_path default not set")
	}
}

func TestLoadMissingSection(t *testing.T) {
	bad := `
segments:
  - name: "Health Systems"
departments:
  - name: "Clinical"
products:
  - name: "Analytics"
categories:
  - name: "Bug"
llm:
  model: "claude-sonnet-4-20250514"
  extraction:
    max_tokens: 4000
  enrichment:
    max_tokens: 1000
`
	_, err := Load(writeConfig(t, bad))
	if err == nil {
		t.Fatal("expected error for missing priorities section")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for missing file, got %T: %v", err, err)
	}
}

func TestLoadInvalidThreshold(t *testing.T) {
	_, err := Load(writeConfig(t, validYAML+"  similarity_threshold: 1.5\n"))
	if err == nil {
		t.Fatal("expected error for similarity_threshold > 1")
	}
}

func TestEnvOverrideAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test-123")
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.APIKey != "sk-test-123" {
		t.Errorf("api key = %q, want env value", cfg.LLM.APIKey)
	}
}

func TestTaxonomyContains(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Taxonomy.Contains(KindSegment, "Pharma") {
		t.Error("Pharma should be a known segment")
	}
	if cfg.Taxonomy.Contains(KindSegment, "pharma") {
		t.Error("membership must be case-sensitive")
	}
	if cfg.Taxonomy.Contains(KindDepartment, "Pharma") {
		t.Error("Pharma is not a department")
	}
	if !cfg.Taxonomy.Contains(KindPriority, "P0") {
		t.Error("P0 should be a known priority")
	}
}

func TestDefinitionsOrder(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defs := cfg.Taxonomy.Definitions(KindCategory)
	if len(defs) != 2 || defs[0].Name != "Feature Request" || defs[1].Name != "Bug" {
		t.Errorf("category order not preserved: %+v", defs)
	}
}
