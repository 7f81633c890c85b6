// Package watch runs the pipeline on a cron schedule over a notes
// directory, posting the summary after each run.
package watch

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"

	"feedbackpipe/internal/config"
	"feedbackpipe/internal/pipeline"
	"feedbackpipe/internal/report"
	"feedbackpipe/internal/storage"
)

// Start blocks, running the pipeline at each cron tick until ctx is
// canceled. The schedule is a standard 5-field cron expression
// (minute hour day-of-month month day-of-week).
// Examples: "0 9 * * *" (daily 9am), "0 9 * * 1-5" (weekdays 9am).
func Start(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, store storage.TabularStore, schedule, notesDir string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(strings.TrimSpace(schedule))
	if err != nil {
		return err
	}

	var api *slack.Client
	if cfg.Slack.BotToken != "" && cfg.Slack.ChannelID != "" {
		api = slack.New(cfg.Slack.BotToken)
	}

	log.Printf("watch scheduled (cron: %s) notes=%s", schedule, notesDir)
	for {
		now := time.Now()
		next := sched.Next(now)
		log.Printf("watch next run at %s (in %s)", next.Format("Mon Jan 2 15:04"), next.Sub(now).Round(time.Minute))

		select {
		case <-time.After(next.Sub(now)):
		case <-ctx.Done():
			return ctx.Err()
		}

		items, result, err := p.Run(ctx, notesDir, store, true)
		if err != nil {
			log.Printf("watch run error: %v", err)
			continue
		}
		log.Printf("watch run complete items=%d synced=%d skipped=%d", len(items), result.Synced, result.Skipped)

		if api != nil && len(items) > 0 {
			msg := report.Format(items, store.Location(), report.Options{IncludeQuotes: true, IncludeActions: true})
			if err := report.Post(api, cfg.Slack.ChannelID, msg); err != nil {
				log.Printf("watch post error: %v", err)
			}
		}
	}
}
