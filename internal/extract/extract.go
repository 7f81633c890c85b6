// Package extract turns one note's body into zero or more validated feedback
// items using the classification oracle.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"feedbackpipe/internal/config"
	"feedbackpipe/internal/domain"
	"feedbackpipe/internal/llm"
	"feedbackpipe/internal/notes"
)

const keywordsPerProduct = 5

// Extractor holds the run-scoped extraction state: the taxonomy-grounded
// instruction string is built once and reused for every note.
type Extractor struct {
	oracle       llm.Client
	limits       llm.CallLimits
	instructions string
}

func New(taxonomy *config.Taxonomy, oracle llm.Client, limits llm.CallLimits) *Extractor {
	return &Extractor{
		oracle:       oracle,
		limits:       limits,
		instructions: buildInstructions(taxonomy),
	}
}

// rawItem is the shape the oracle must return for each feedback element.
type rawItem struct {
	Title       string `json:"title"`
	Product     string `json:"product"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	UseCase     string `json:"use_case"`
	Impact      string `json:"impact"`
	RawContext  string `json:"raw_context"`
	Quote       string `json:"quote"`
}

// Extract invokes the oracle on one note body and returns the validated,
// metadata-stamped items. An empty result is valid: it means the note held no
// actionable feedback. A single invalid element discards the whole note.
func (e *Extractor) Extract(ctx context.Context, body string, meta notes.Metadata) ([]domain.FeedbackItem, error) {
	payload := buildPayload(body, meta)

	text, err := e.oracle.Classify(ctx, e.instructions, payload, e.limits)
	if err != nil {
		return nil, err
	}

	jsonText := llm.ExtractJSON(text)
	var raw []rawItem
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, &llm.MalformedOutputError{Output: text, Err: err}
	}

	today := time.Now().Format("2006-01-02")
	items := make([]domain.FeedbackItem, 0, len(raw))
	for _, r := range raw {
		item := domain.FeedbackItem{
			ID:          domain.NewID(),
			Title:       r.Title,
			Description: r.Description,
			Product:     r.Product,
			Category:    r.Category,
			Priority:    r.Priority,
			UseCase:     r.UseCase,
			Impact:      r.Impact,
			RawContext:  r.RawContext,
			Quote:       r.Quote,
			Source:      "Manual",
			SourceURL:   meta.SourceURL,
			MeetingType: meta.MeetingType,
			MeetingDate: meta.MeetingDate,
			Attendees:   meta.Attendees,
			CreatedDate: today,
			UpdatedDate: today,
			Status:      "New",
			Internal:    false,
		}
		// The unit of atomicity is the note: one bad element invalidates the
		// whole extraction rather than producing a partial result.
		if err := item.Validate(); err != nil {
			log.Printf("extract discarding note meeting=%q: %v", meta.Title, err)
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func buildInstructions(taxonomy *config.Taxonomy) string {
	var products strings.Builder
	for _, p := range taxonomy.Products {
		kw := p.Keywords
		if len(kw) > keywordsPerProduct {
			kw = kw[:keywordsPerProduct]
		}
		products.WriteString(fmt.Sprintf("- %s: %s\n", p.Name, strings.Join(kw, ", ")))
	}

	var categories strings.Builder
	for _, c := range taxonomy.Categories {
		categories.WriteString(fmt.Sprintf("- %s: %s\n", c.Name, c.Description))
	}

	var priorities strings.Builder
	for _, p := range taxonomy.Priorities {
		priorities.WriteString(fmt.Sprintf("- %s: %s\n", p.Name, p.Description))
	}

	return fmt.Sprintf(`You are a feedback extraction specialist for product development.

Your task is to analyze meeting notes and extract ONLY actionable feedback items.

**Actionable Feedback includes:**
- Feature requests (explicit or implied needs)
- Bug reports and technical issues
- Performance complaints
- Workflow improvements or UX suggestions
- Data quality concerns
- Missing capabilities or gaps
- Blockers preventing user success
- Questions revealing product gaps
- Competitive intelligence
- Strategic opportunities

**NOT Actionable:**
- Status updates
- Scheduling discussions
- Pure informational sharing
- Acknowledgments without substance

**Product Taxonomy:**
%s
**Categories:**
%s
**Priority:**
%s
**Output Format:**
Return a JSON array of feedback items. Each item must have:
{
  "title": "One-sentence summary (max 100 chars)",
  "product": "[Product name from taxonomy]",
  "category": "[Category name from taxonomy]",
  "priority": "P0 | P1 | P2 | P3",
  "description": "Detailed context with user quote",
  "use_case": "What they're trying to accomplish",
  "impact": "How this affects user workflow",
  "raw_context": "Full relevant quote from notes",
  "quote": "Most impactful user quote (if available)"
}

If no actionable feedback found, return empty array: []

Extract feedback systematically. Preserve exact user quotes when possible.
Classify feedback using the taxonomy above. Default to "Other" product/category if unclear.`,
		products.String(), categories.String(), priorities.String())
}

func buildPayload(body string, meta notes.Metadata) string {
	return fmt.Sprintf(`Meeting Type: %s
Meeting Title: %s
Meeting Date: %s
Attendees: %s

Meeting Notes:
%s

Extract all actionable feedback items from these meeting notes. Return only valid JSON array.
`, meta.MeetingType, meta.Title, meta.MeetingDate, strings.Join(meta.Attendees, ", "), body)
}
