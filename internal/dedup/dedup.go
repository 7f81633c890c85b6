// Package dedup filters feedback items whose normalized titles match earlier
// items in the batch or titles already present in the persisted store. It
// never mutates item content, only drops.
package dedup

import (
	"log"
	"strings"

	"feedbackpipe/internal/domain"
)

// ExactThreshold disables word-overlap matching: only exact normalized-title
// equality counts as a duplicate.
const ExactThreshold = 1.0

// Deduper carries the duplicate matching policy.
type Deduper struct {
	// SimilarityThreshold in (0,1) additionally treats titles whose Jaccard
	// word-overlap similarity with a seen title meets the threshold as
	// duplicates. 1.0 keeps exact-match semantics.
	SimilarityThreshold float64
}

func New(similarityThreshold float64) *Deduper {
	if similarityThreshold <= 0 || similarityThreshold > 1 {
		similarityThreshold = ExactThreshold
	}
	return &Deduper{SimilarityThreshold: similarityThreshold}
}

// Dedupe processes candidates in input order: the first occurrence of a
// normalized title wins, every later match (within the batch or against
// knownTitles) is dropped and logged. The seen set grows as it proceeds, so
// batch-internal duplicates are caught as well as store-level ones. Relative
// order of survivors is preserved.
func (d *Deduper) Dedupe(candidates []domain.FeedbackItem, knownTitles map[string]struct{}) []domain.FeedbackItem {
	seen := make(map[string]struct{}, len(knownTitles)+len(candidates))
	for t := range knownTitles {
		seen[domain.NormalizeTitle(t)] = struct{}{}
	}

	unique := make([]domain.FeedbackItem, 0, len(candidates))
	for _, item := range candidates {
		normalized := domain.NormalizeTitle(item.Title)
		if d.isDuplicate(normalized, seen) {
			log.Printf("dedup dropped duplicate title=%q", item.Title)
			continue
		}
		seen[normalized] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}

func (d *Deduper) isDuplicate(normalized string, seen map[string]struct{}) bool {
	if _, ok := seen[normalized]; ok {
		return true
	}
	if d.SimilarityThreshold >= ExactThreshold {
		return false
	}
	for existing := range seen {
		if jaccardSimilarity(normalized, existing) >= d.SimilarityThreshold {
			return true
		}
	}
	return false
}

// jaccardSimilarity is word-overlap similarity between two normalized titles:
// |intersection| / |union| of their word sets.
func jaccardSimilarity(a, b string) float64 {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 1.0
	}
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(wordsA))
	for _, w := range wordsA {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(wordsB))
	for _, w := range wordsB {
		setB[w] = struct{}{}
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}
