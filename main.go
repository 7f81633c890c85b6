package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"feedbackpipe/internal/config"
	"feedbackpipe/internal/llm"
	"feedbackpipe/internal/pipeline"
	"feedbackpipe/internal/storage"
	"feedbackpipe/internal/storage/sheets"
	"feedbackpipe/internal/storage/sqlite"
)

var version = "0.3.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "feedbackpipe",
		Short: "Turn meeting notes into structured, deduplicated feedback items",
		Long: `feedbackpipe extracts actionable feedback from meeting notes using an
LLM classification oracle, enriches items with segment and department
metadata, deduplicates them, and syncs batches to a tabular store.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to taxonomy config (default config/taxonomy.yaml, or FEEDBACK_CONFIG_PATH)")

	rootCmd.AddCommand(
		newExtractCmd(),
		newEnrichCmd(),
		newSummarizeCmd(),
		newSyncCmd(),
		newWatchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("FEEDBACK_CONFIG_PATH")
	}
	if path == "" {
		path = "config/taxonomy.yaml"
	}
	return config.Load(path)
}

func newPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set (env var or llm.api_key)")
	}
	oracle := llm.NewAnthropicClient(cfg.LLM.APIKey, cfg.LLM.Model)
	return pipeline.New(cfg, oracle), nil
}

func openStore(cmd *cobra.Command, cfg *config.Config) (storage.TabularStore, error) {
	kind, _ := cmd.Flags().GetString("store")
	switch kind {
	case "sheets":
		if cfg.Sheets.CredentialsPath == "" || cfg.Sheets.SpreadsheetID == "" {
			return nil, fmt.Errorf("sheets store needs spreadsheet_id and credentials (SHEETS_CREDENTIALS_PATH)")
		}
		return sheets.Open(cmd.Context(), cfg.Sheets.CredentialsPath, cfg.Sheets.SpreadsheetID, cfg.Sheets.WorksheetName)
	case "sqlite":
		return sqlite.Open(cfg.SQLite.DBPath)
	default:
		return nil, fmt.Errorf("unknown store %q: must be 'sheets' or 'sqlite'", kind)
	}
}
