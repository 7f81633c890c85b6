package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"feedbackpipe/internal/dedup"
	"feedbackpipe/internal/domain"
	"feedbackpipe/internal/storage/sheets"
	feedsync "feedbackpipe/internal/sync"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync feedback items to the tabular store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			input, _ := cmd.Flags().GetString("input")
			items, err := domain.LoadItems(input)
			if err != nil {
				return err
			}
			fmt.Printf("Loaded %d feedback items\n", len(items))

			dryRun, _ := cmd.Flags().GetBool("dry-run")
			if dryRun {
				for _, item := range items {
					row := feedsync.FormatRow(item)
					fmt.Printf("  %s | %s | %s\n", row[0], row[1], row[5])
				}
				fmt.Printf("Dry run: %d items would be synced\n", len(items))
				return nil
			}

			store, err := openStore(cmd, cfg)
			if err != nil {
				return err
			}

			batchSize, _ := cmd.Flags().GetInt("batch-size")
			if batchSize <= 0 {
				batchSize = cfg.Processing.BatchSize
			}

			deduper := dedup.New(cfg.Processing.SimilarityThreshold)
			syncer := feedsync.New(store, deduper, feedsync.DefaultRetry)
			result, err := syncer.Sync(cmd.Context(), items, batchSize)
			if err != nil {
				return err
			}

			fmt.Printf("Synced %d items (%d duplicates skipped)\n", result.Synced, result.Skipped)
			if result.Synced > 0 {
				location := store.Location()
				if ss, ok := store.(*sheets.Store); ok {
					location = ss.RangeURL(result.FirstRow, result.LastRow)
				}
				fmt.Printf("Rows %d-%d at %s\n", result.FirstRow, result.LastRow, location)
			}
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "Path to feedback JSON file (required)")
	cmd.Flags().Bool("dry-run", false, "Print rows without uploading")
	cmd.Flags().Int("batch-size", 0, "Rows per append request (default from config)")
	cmd.Flags().String("store", "sheets", "Tabular store backend: sheets or sqlite")
	cmd.MarkFlagRequired("input")
	return cmd
}
