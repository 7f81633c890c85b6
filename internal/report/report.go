// Package report formats processed feedback batches into a human-readable
// summary message and delivers it to stdout, a file, or a Slack channel.
package report

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"feedbackpipe/internal/domain"
)

const maxQuotes = 3

// Options toggles message sections.
type Options struct {
	IncludeQuotes  bool
	IncludeActions bool
}

// Summary generates the 2-3 sentence executive summary.
func Summary(items []domain.FeedbackItem) string {
	if len(items) == 0 {
		return "No feedback items to summarize."
	}

	highPriority := 0
	for _, item := range items {
		if item.Priority == "P0" || item.Priority == "P1" {
			highPriority++
		}
	}

	topProducts := topCounts(items, func(i domain.FeedbackItem) string { return i.Product }, 3)
	var productParts []string
	for _, c := range topProducts {
		productParts = append(productParts, fmt.Sprintf("%s (%d)", c.name, c.count))
	}

	topCategories := topCounts(items, func(i domain.FeedbackItem) string { return i.Category }, 3)
	var themeParts []string
	for _, c := range topCategories {
		themeParts = append(themeParts, strings.ToLower(c.name))
	}

	meetingInfo := ""
	if items[0].MeetingType != "" && items[0].MeetingDate != "" {
		meetingInfo = fmt.Sprintf(" from %s on %s", items[0].MeetingType, items[0].MeetingDate)
	}

	summary := fmt.Sprintf("Processed %d feedback items%s. Key themes: %s. Products affected: %s. ",
		len(items), meetingInfo, strings.Join(themeParts, ", "), strings.Join(productParts, ", "))
	if highPriority > 0 {
		summary += fmt.Sprintf("%d high priority items require attention.", highPriority)
	}
	return strings.TrimSpace(summary)
}

// SelectQuotes picks up to three of the most impactful quotes: high priority
// first, then longer quotes.
func SelectQuotes(items []domain.FeedbackItem) []domain.FeedbackItem {
	var withQuotes []domain.FeedbackItem
	for _, item := range items {
		if strings.TrimSpace(item.Quote) != "" {
			withQuotes = append(withQuotes, item)
		}
	}
	sort.SliceStable(withQuotes, func(i, j int) bool {
		return quoteScore(withQuotes[i]) > quoteScore(withQuotes[j])
	})
	if len(withQuotes) > maxQuotes {
		withQuotes = withQuotes[:maxQuotes]
	}
	return withQuotes
}

func quoteScore(item domain.FeedbackItem) int {
	priorityScore := map[string]int{"P0": 1000, "P1": 100, "P2": 10, "P3": 1}[item.Priority]
	return priorityScore + len(item.Quote)
}

// ActionItems returns the P0/P1 items, P0 first.
func ActionItems(items []domain.FeedbackItem) []domain.FeedbackItem {
	var actions []domain.FeedbackItem
	for _, item := range items {
		if item.Priority == "P0" || item.Priority == "P1" {
			actions = append(actions, item)
		}
	}
	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Priority < actions[j].Priority
	})
	return actions
}

// Format builds the complete summary message with a link to the store.
func Format(items []domain.FeedbackItem, storeURL string, opts Options) string {
	if len(items) == 0 {
		return "No feedback items to format."
	}

	meetingInfo := ""
	if items[0].MeetingType != "" && items[0].MeetingDate != "" {
		meetingInfo = fmt.Sprintf(" - %s (%s)", items[0].MeetingType, items[0].MeetingDate)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Feedback Summary%s*\n\n", meetingInfo)
	b.WriteString("*Executive Summary*\n")
	b.WriteString(Summary(items))
	b.WriteString("\n\n")

	if opts.IncludeQuotes {
		if quotes := SelectQuotes(items); len(quotes) > 0 {
			b.WriteString("*Notable Quotes*\n")
			for _, item := range quotes {
				title := item.Title
				if len(title) > 40 {
					title = title[:40]
				}
				fmt.Fprintf(&b, "• %q - Re: %s: %s\n", item.Quote, item.Product, title)
			}
			b.WriteString("\n")
		}
	}

	if opts.IncludeActions {
		if actions := ActionItems(items); len(actions) > 0 {
			b.WriteString("*Action Items*\n")
			for _, item := range actions {
				line := fmt.Sprintf("• [%s] %s: %s", item.Priority, item.Product, item.Title)
				if item.Impact != "" {
					line += " - " + item.Impact
				}
				b.WriteString(line + "\n")
			}
			b.WriteString("\n")
		}
	}

	if storeURL != "" {
		fmt.Fprintf(&b, "<%s|View in Feedback Database>\n", storeURL)
	}
	return b.String()
}

// WriteFile saves a summary message beside other run artifacts.
func WriteFile(content, outputDir string, date time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, fmt.Sprintf("feedback_summary_%s.md", date.Format("20060102")))
	return path, os.WriteFile(path, []byte(content), 0644)
}

// Post sends the summary to a Slack channel.
func Post(api *slack.Client, channelID, message string) error {
	_, _, err := api.PostMessage(channelID, slack.MsgOptionText(message, false))
	if err != nil {
		return fmt.Errorf("posting summary: %w", err)
	}
	log.Printf("report posted channel=%s size=%d", channelID, len(message))
	return nil
}

type nameCount struct {
	name  string
	count int
}

func topCounts(items []domain.FeedbackItem, key func(domain.FeedbackItem) string, n int) []nameCount {
	counts := make(map[string]int)
	for _, item := range items {
		k := key(item)
		if k == "" {
			k = domain.SentinelOther
		}
		counts[k]++
	}
	out := make([]nameCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, nameCount{name, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
