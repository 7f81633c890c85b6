package main

import (
	"fmt"
	"time"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"feedbackpipe/internal/domain"
	"feedbackpipe/internal/report"
)

func newSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Generate a human-readable summary of a feedback batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			items, err := domain.LoadItems(input)
			if err != nil {
				return err
			}

			storeURL, _ := cmd.Flags().GetString("url")
			noQuotes, _ := cmd.Flags().GetBool("no-quotes")
			noActions, _ := cmd.Flags().GetBool("no-actions")
			opts := report.Options{
				IncludeQuotes:  !noQuotes,
				IncludeActions: !noActions,
			}

			message := report.Format(items, storeURL, opts)
			fmt.Println(message)

			outputDir, _ := cmd.Flags().GetString("output-dir")
			if outputDir != "" {
				path, err := report.WriteFile(message, outputDir, time.Now())
				if err != nil {
					return err
				}
				fmt.Printf("\nSaved summary to %s\n", path)
			}

			channel, _ := cmd.Flags().GetString("channel")
			if channel != "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				if cfg.Slack.BotToken == "" {
					return fmt.Errorf("slack bot token not configured, set SLACK_BOT_TOKEN")
				}
				api := slack.New(cfg.Slack.BotToken)
				if err := report.Post(api, channel, message); err != nil {
					return err
				}
				fmt.Printf("Posted summary to %s\n", channel)
			}
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "Path to feedback JSON file (required)")
	cmd.Flags().String("url", "", "Link to the feedback database to embed in the summary")
	cmd.Flags().StringP("output-dir", "o", "", "Directory to save the summary file")
	cmd.Flags().Bool("no-quotes", false, "Omit the notable quotes section")
	cmd.Flags().Bool("no-actions", false, "Omit the suggested actions section")
	cmd.Flags().String("channel", "", "Slack channel ID to post the summary to")
	cmd.MarkFlagRequired("input")
	return cmd
}
