// Package enrich augments feedback items with segment and department
// classification. Enrichment is best-effort metadata: it never propagates a
// failure, substituting a deterministic low-confidence fallback instead, so
// a bad oracle call can never block persistence of the underlying feedback.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"feedbackpipe/internal/config"
	"feedbackpipe/internal/domain"
	"feedbackpipe/internal/llm"
)

// Payload truncation limits: the oracle sees at most this much of each field.
const (
	descriptionLimit = 300
	useCaseLimit     = 200
	rawContextLimit  = 200
)

const keywordsPerEntry = 5

// ConfidenceFloor is the threshold below which a classified value is replaced
// with the Uncertain sentinel when the caller enables the floor.
const ConfidenceFloor = 0.5

type Enricher struct {
	taxonomy     *config.Taxonomy
	oracle       llm.Client
	limits       llm.CallLimits
	instructions string
}

func New(taxonomy *config.Taxonomy, oracle llm.Client, limits llm.CallLimits) *Enricher {
	return &Enricher{
		taxonomy:     taxonomy,
		oracle:       oracle,
		limits:       limits,
		instructions: buildInstructions(taxonomy),
	}
}

// Enrich classifies one item. On any failure in the chain (transport, parse,
// validation) it returns the fallback result with a reasoning string naming
// the failure kind.
func (e *Enricher) Enrich(ctx context.Context, item domain.FeedbackItem) domain.ClassificationResult {
	payload := buildPayload(item)

	text, err := e.oracle.Classify(ctx, e.instructions, payload, e.limits)
	if err != nil {
		log.Printf("enrich oracle error item=%s: %v", item.ID, err)
		return fallback(fmt.Sprintf("oracle error: %v", err))
	}

	result, err := parseResult(text)
	if err != nil {
		log.Printf("enrich parse error item=%s: %v", item.ID, err)
		return fallback(fmt.Sprintf("parse error: %v", err))
	}

	// Post-validation: a classification outside the taxonomy is forced to
	// Other with zero confidence rather than persisted as-is.
	if !e.taxonomy.Contains(config.KindSegment, result.Segment) {
		log.Printf("enrich invalid segment %q item=%s, defaulting to Other", result.Segment, item.ID)
		result.Segment = domain.SentinelOther
		result.SegmentConfidence = 0.0
	}
	if !e.taxonomy.Contains(config.KindDepartment, result.Department) {
		log.Printf("enrich invalid department %q item=%s, defaulting to Other", result.Department, item.ID)
		result.Department = domain.SentinelOther
		result.DepartmentConfidence = 0.0
	}
	return result
}

// Apply folds a classification result into the item. With the confidence
// floor enabled, a confidence below 0.5 overwrites the classified value with
// the Uncertain sentinel. Tags become the union of existing and enriched
// tags, case-sensitive as given, capped at MaxTags.
func Apply(item *domain.FeedbackItem, result domain.ClassificationResult, confidenceFloor bool) {
	item.Segment = result.Segment
	item.Department = result.Department
	item.SegmentConfidence = result.SegmentConfidence
	item.DepartmentConfidence = result.DepartmentConfidence
	item.Reasoning = result.Reasoning

	if confidenceFloor {
		if result.SegmentConfidence < ConfidenceFloor {
			item.Segment = domain.SentinelUncertain
		}
		if result.DepartmentConfidence < ConfidenceFloor {
			item.Department = domain.SentinelUncertain
		}
	}

	item.Tags = mergeTags(item.Tags, result.EnrichedTags)
}

func mergeTags(existing, enriched []string) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, t := range append(append([]string{}, existing...), enriched...) {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		merged = append(merged, t)
	}
	if len(merged) > domain.MaxTags {
		merged = merged[:domain.MaxTags]
	}
	return merged
}

func fallback(reason string) domain.ClassificationResult {
	return domain.ClassificationResult{
		Segment:              domain.SentinelOther,
		Department:           domain.SentinelOther,
		EnrichedTags:         []string{},
		SegmentConfidence:    0.0,
		DepartmentConfidence: 0.0,
		Reasoning:            reason,
	}
}

var requiredFields = []string{"segment", "department", "enriched_tags", "segment_confidence", "department_confidence"}

// parseResult parses a single JSON object (not an array) and checks every
// required field is present.
func parseResult(text string) (domain.ClassificationResult, error) {
	jsonText := llm.ExtractJSON(text)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonText), &fields); err != nil {
		return domain.ClassificationResult{}, &llm.MalformedOutputError{Output: text, Err: err}
	}
	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			return domain.ClassificationResult{}, &domain.ValidationError{Field: f, Reason: "is missing"}
		}
	}

	var result domain.ClassificationResult
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return domain.ClassificationResult{}, &llm.MalformedOutputError{Output: text, Err: err}
	}
	return result, nil
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

func orPlaceholder(s string) string {
	if s == "" {
		return "(not provided)"
	}
	return s
}

func buildPayload(item domain.FeedbackItem) string {
	attendees := strings.Join(item.Attendees, ", ")
	return fmt.Sprintf(`Analyze this feedback item and return enrichment JSON:

**Attendees:** %s
**Description:** %s
**Use Case:** %s
**Raw Context:** %s

Return only valid JSON with segment, department, enriched_tags, segment_confidence, department_confidence, and reasoning.
`,
		orPlaceholder(attendees),
		orPlaceholder(truncate(strings.TrimSpace(item.Description), descriptionLimit)),
		orPlaceholder(truncate(strings.TrimSpace(item.UseCase), useCaseLimit)),
		orPlaceholder(truncate(strings.TrimSpace(item.RawContext), rawContextLimit)))
}

func buildInstructions(taxonomy *config.Taxonomy) string {
	var segments strings.Builder
	for _, s := range taxonomy.Segments {
		kw := s.Keywords
		if len(kw) > keywordsPerEntry {
			kw = kw[:keywordsPerEntry]
		}
		if len(kw) == 0 {
			continue
		}
		segments.WriteString(fmt.Sprintf("- **%s**: %s\n", s.Name, strings.Join(kw, ", ")))
	}

	var departments strings.Builder
	for _, d := range taxonomy.Departments {
		kw := d.Keywords
		if len(kw) > keywordsPerEntry {
			kw = kw[:keywordsPerEntry]
		}
		if len(kw) == 0 {
			continue
		}
		departments.WriteString(fmt.Sprintf("- **%s**: %s\n", d.Name, strings.Join(kw, ", ")))
	}

	return fmt.Sprintf(`You are a feedback classification specialist.

Your task is to analyze customer feedback and enrich it with structured metadata to enable better product insights and use case development.

# INPUT FIELDS

You will receive feedback items with these fields:
- **attendees**: Meeting attendees (may include company/role info)
- **description**: Detailed feedback description
- **use_case**: What user is trying to accomplish
- **raw_context**: Full original context

# OUTPUT REQUIRED

Return a JSON object with:
{
  "segment": "<segment from taxonomy>",
  "department": "<department from taxonomy>",
  "enriched_tags": ["<tag1>", "<tag2>", ...],
  "segment_confidence": 0.0-1.0,
  "department_confidence": 0.0-1.0,
  "reasoning": "Brief explanation of classification"
}

# SEGMENT TAXONOMY

%s- **Other**: Use when none of the above fit

# DEPARTMENT TAXONOMY

%s- **Other**: Use when none of the above fit

# ENRICHMENT RULES

**Segment Classification:**
1. Analyze attendees for company names and industry keywords
2. If company matches segment keywords, assign that segment (high confidence)
3. If company unclear, use description + use_case context
4. Default to "Other" if uncertain (low confidence)

**Department Classification:**
1. Analyze attendees for department/role keywords
2. Analyze use_case and description for department keywords
3. Match to most relevant department taxonomy
4. Default to "Other" if uncertain (low confidence)

**Tag Enrichment:**
1. Preserve concept from existing feedback
2. Add use-case specific tags
3. Keep tags concise and hyphenated (e.g., "safety-monitoring")
4. Maximum 10 total tags (prioritize most relevant)

**Confidence Scoring:**
- **1.0**: Exact keyword match in attendees/company
- **0.8-0.9**: Strong contextual evidence
- **0.6-0.7**: Moderate inference from description
- **0.4-0.5**: Weak inference, could be multiple categories
- **< 0.4**: Very uncertain, defaulting to "Other"

# IMPORTANT

- Always return valid JSON
- Use exact taxonomy values (case-sensitive)
- Provide confidence scores for transparency
- Default to "Other" when uncertain
- Brief reasoning helps human review`, segments.String(), departments.String())
}
