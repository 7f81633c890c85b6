package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Kind identifies one of the closed set of controlled vocabularies. Taxonomy
// lookups go through Kind rather than free-form section names.
type Kind int

const (
	KindSegment Kind = iota
	KindDepartment
	KindProduct
	KindCategory
	KindPriority
)

func (k Kind) String() string {
	switch k {
	case KindSegment:
		return "segment"
	case KindDepartment:
		return "department"
	case KindProduct:
		return "product"
	case KindCategory:
		return "category"
	case KindPriority:
		return "priority"
	}
	return "unknown"
}

// Definition is one taxonomy entry: a name, a descriptive label, and an
// ordered list of matching keywords.
type Definition struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}

// Taxonomy holds the controlled vocabularies loaded at process start.
// Immutable for the duration of a run; reload requires a new Load.
type Taxonomy struct {
	Segments    []Definition `yaml:"segments"`
	Departments []Definition `yaml:"departments"`
	Products    []Definition `yaml:"products"`
	Categories  []Definition `yaml:"categories"`
	Priorities  []Definition `yaml:"priorities"`

	members map[Kind]map[string]struct{}
}

// Contains reports exact, case-sensitive membership of value in the kind's
// vocabulary.
func (t *Taxonomy) Contains(kind Kind, value string) bool {
	_, ok := t.members[kind][value]
	return ok
}

// Definitions returns the ordered entries for a kind.
func (t *Taxonomy) Definitions(kind Kind) []Definition {
	switch kind {
	case KindSegment:
		return t.Segments
	case KindDepartment:
		return t.Departments
	case KindProduct:
		return t.Products
	case KindCategory:
		return t.Categories
	case KindPriority:
		return t.Priorities
	}
	return nil
}

// OracleCall bounds one oracle task.
type OracleCall struct {
	MaxTokens   int64   `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// OracleConfig configures the classification oracle.
type OracleConfig struct {
	Model      string     `yaml:"model"`
	APIKey     string     `yaml:"api_key"`
	Extraction OracleCall `yaml:"extraction"`
	Enrichment OracleCall `yaml:"enrichment"`
}

// ProcessingConfig controls pipeline behavior.
type ProcessingConfig struct {
	Deduplicate bool `yaml:"deduplicate"`
	// SimilarityThreshold below 1.0 enables word-overlap duplicate matching
	// in addition to exact normalized-title equality.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	BatchSize           int     `yaml:"batch_size"`
}

// SheetsConfig addresses the Google Sheets tabular store.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	WorksheetName   string `yaml:"worksheet_name"`
	CredentialsPath string `yaml:"credentials_path"`
}

// SQLiteConfig addresses the local tabular store.
type SQLiteConfig struct {
	DBPath string `yaml:"db_path"`
}

// SlackConfig configures summary posting.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

type Config struct {
	Taxonomy   Taxonomy         `yaml:",inline"`
	LLM        OracleConfig     `yaml:"llm"`
	Processing ProcessingConfig `yaml:"processing"`
	Sheets     SheetsConfig     `yaml:"sheets"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	Slack      SlackConfig      `yaml:"slack"`
}

// ConfigError means the run cannot proceed: the taxonomy source is unreadable
// or missing a required section.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load reads and validates the taxonomy configuration. Env vars override
// secrets so they need not live in the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Reason: "unreadable", Err: err}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Path: path, Reason: "invalid yaml", Err: err}
	}

	envOverride(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.LLM.Model, "LLM_MODEL")
	envOverride(&cfg.Sheets.CredentialsPath, "SHEETS_CREDENTIALS_PATH")
	envOverride(&cfg.Slack.BotToken, "SLACK_BOT_TOKEN")

	if cfg.Processing.SimilarityThreshold == 0 {
		cfg.Processing.SimilarityThreshold = 1.0
	}
	if cfg.Processing.BatchSize == 0 {
		cfg.Processing.BatchSize = 100
	}
	if cfg.SQLite.DBPath == "" {
		cfg.SQLite.DBPath = "./feedback.db"
	}

	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.Taxonomy.members = buildMembers(&cfg.Taxonomy)
	return &cfg, nil
}

func (c *Config) validate(path string) error {
	sections := []struct {
		name string
		defs []Definition
	}{
		{"segments", c.Taxonomy.Segments},
		{"departments", c.Taxonomy.Departments},
		{"products", c.Taxonomy.Products},
		{"categories", c.Taxonomy.Categories},
		{"priorities", c.Taxonomy.Priorities},
	}
	for _, s := range sections {
		if len(s.defs) == 0 {
			return &ConfigError{Path: path, Reason: fmt.Sprintf("missing required section %q", s.name)}
		}
		for _, d := range s.defs {
			if d.Name == "" {
				return &ConfigError{Path: path, Reason: fmt.Sprintf("section %q has an entry without a name", s.name)}
			}
		}
	}
	if c.LLM.Model == "" {
		return &ConfigError{Path: path, Reason: `missing required section "llm" (model is not set)`}
	}
	if c.LLM.Extraction.MaxTokens <= 0 || c.LLM.Enrichment.MaxTokens <= 0 {
		return &ConfigError{Path: path, Reason: "llm extraction/enrichment max_tokens must be set"}
	}
	if t := c.Processing.SimilarityThreshold; t < 0 || t > 1 {
		return &ConfigError{Path: path, Reason: fmt.Sprintf("invalid similarity_threshold %.2f: must be between 0 and 1", t)}
	}
	if c.Processing.BatchSize < 1 {
		return &ConfigError{Path: path, Reason: fmt.Sprintf("invalid batch_size %d: must be >= 1", c.Processing.BatchSize)}
	}
	return nil
}

func buildMembers(t *Taxonomy) map[Kind]map[string]struct{} {
	members := make(map[Kind]map[string]struct{})
	for _, kind := range []Kind{KindSegment, KindDepartment, KindProduct, KindCategory, KindPriority} {
		set := make(map[string]struct{}, len(t.Definitions(kind)))
		for _, d := range t.Definitions(kind) {
			set[d.Name] = struct{}{}
		}
		members[kind] = set
	}
	return members
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
