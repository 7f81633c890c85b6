package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"feedbackpipe/internal/domain"
)

func newEnrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich feedback items with segment and department classifications",
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
			floor, _ := cmd.Flags().GetBool("confidence-floor")

			p, err := newPipeline(cfg)
			if err != nil {
				return err
			}
			if dryRun {
				items = p.DryRunEnrich(items, floor)
			} else {
				items = p.EnrichAll(cmd.Context(), items, floor)
			}

			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = input
			}
			if err := domain.SaveItems(output, items); err != nil {
				return err
			}
			fmt.Printf("Saved %d enriched items to %s\n", len(items), output)

			printDistribution("Segment", items, func(i domain.FeedbackItem) string { return i.Segment })
			printDistribution("Department", items, func(i domain.FeedbackItem) string { return i.Department })
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "Path to feedback JSON file (required)")
	cmd.Flags().StringP("output", "o", "", "Path to save enriched output (default: overwrites input)")
	cmd.Flags().Bool("dry-run", false, "Skip oracle calls (for testing)")
	cmd.Flags().Bool("confidence-floor", false, "Mark classifications below 0.5 confidence as 'Uncertain'")
	cmd.MarkFlagRequired("input")
	return cmd
}

func printDistribution(label string, items []domain.FeedbackItem, key func(domain.FeedbackItem) string) {
	counts := make(map[string]int)
	for _, item := range items {
		k := key(item)
		if k == "" {
			k = "Unknown"
		}
		counts[k]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	fmt.Printf("\n%s distribution:\n", label)
	for _, name := range names {
		fmt.Printf("  %s: %d\n", name, counts[name])
	}
}
