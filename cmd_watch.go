package main

import (
	"github.com/spf13/cobra"

	"feedbackpipe/internal/watch"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the full pipeline on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			p, err := newPipeline(cfg)
			if err != nil {
				return err
			}
			store, err := openStore(cmd, cfg)
			if err != nil {
				return err
			}

			schedule, _ := cmd.Flags().GetString("schedule")
			notesDir, _ := cmd.Flags().GetString("notes")
			return watch.Start(cmd.Context(), cfg, p, store, schedule, notesDir)
		},
	}

	cmd.Flags().String("schedule", "0 9 * * 1-5", "Cron schedule for pipeline runs")
	cmd.Flags().String("notes", "notes", "Directory of meeting notes to process")
	cmd.Flags().String("store", "sheets", "Tabular store backend: sheets or sqlite")
	return cmd
}
