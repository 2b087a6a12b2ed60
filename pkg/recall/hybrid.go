package recall

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pensieveco/pensieve/pkg/corpus"
)

// RecallHybrid merges memory recall with corpus search. Corpus similarities
// get a keyword bonus for exact query terms and are filtered against the
// similarity floor before the corpus weight scales them, so the floor judges
// relevance rather than the merge discount. A failing corpus degrades to the
// memory results alone.
func (e *Engine) RecallHybrid(ctx context.Context, query string, opts Options) ([]Result, error) {
	opts = opts.withDefaults()

	memories, err := e.Recall(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	if e.corpus == nil {
		return memories, nil
	}

	hits, err := e.corpus.Search(ctx, query, opts.MaxResults)
	if err != nil {
		e.logger.Warn("corpus search failed, returning memory results only", "error", err)
		return memories, nil
	}

	terms := queryTerms(query)
	var chunks []Result
	for _, hit := range hits {
		similarity := keywordRerank(distanceToSimilarity(hit.Distance), hit.Content, terms)
		if !opts.IncludeLowConfidence && similarity < opts.MinSimilarity {
			continue
		}

		// Chunks have no reinforcement record, so the reranked similarity
		// stands in for salience.
		chunks = append(chunks, Result{
			ID:         chunkResultID(hit),
			Summary:    hit.Content,
			Similarity: similarity * e.corpusWeight,
			Salience:   similarity,
			Type:       ResultTypeMarkdownChunk,
			Source:     hit.Source,
			Heading:    hit.Heading,
		})
	}

	merged := append(memories, chunks...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})

	merged = dedupe(merged)
	if len(merged) > opts.MaxResults {
		merged = merged[:opts.MaxResults]
	}

	e.logger.Debug("hybrid recall complete",
		"memories", len(memories), "chunks", len(chunks), "results", len(merged))

	return merged, nil
}

// queryTerms extracts lowercase terms longer than two characters.
func queryTerms(query string) []string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) > 2 {
			terms = append(terms, word)
		}
	}
	return terms
}

// keywordRerank adds a bonus proportional to the fraction of query terms
// appearing verbatim in the content, capped at a perfect score.
func keywordRerank(similarity float64, content string, terms []string) float64 {
	if len(terms) == 0 {
		return similarity
	}

	lower := strings.ToLower(content)
	hits := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			hits++
		}
	}

	bonus := keywordWeight * float64(hits) / float64(len(terms))
	return min(1.0, similarity+bonus)
}

// chunkResultID builds the synthetic corpus result ID from the source file
// stem and the chunk's starting line.
func chunkResultID(hit corpus.Hit) string {
	base := filepath.Base(hit.Source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("md:%s#L%d", stem, hit.StartLine)
}

// dedupe drops results whose summary prefix matches an earlier result, so a
// memory and the chunk it was encoded from never both surface. Results with
// an empty summary are never deduplicated.
func dedupe(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	kept := results[:0]
	for _, r := range results {
		key := r.Summary
		if len(key) > dedupPrefixLen {
			key = key[:dedupPrefixLen]
		}
		key = strings.TrimSpace(strings.ToLower(key))
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		kept = append(kept, r)
	}
	return kept
}
