package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"feedbackpipe/internal/domain"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract structured feedback from a note file or directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			p, err := newPipeline(cfg)
			if err != nil {
				return err
			}

			input, _ := cmd.Flags().GetString("input")
			items, err := p.ExtractPath(cmd.Context(), input)
			if err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			if output != "" {
				if err := domain.SaveItems(output, items); err != nil {
					return err
				}
				fmt.Printf("Saved %d feedback items to %s\n", len(items), output)
				return nil
			}
			if items == nil {
				items = []domain.FeedbackItem{}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		},
	}

	cmd.Flags().StringP("input", "i", "", "Path to note file or directory (required)")
	cmd.Flags().StringP("output", "o", "", "Path to save JSON output (default: stdout)")
	cmd.MarkFlagRequired("input")
	return cmd
}
