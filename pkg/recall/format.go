package recall

import (
	"fmt"
	"strings"
)

// Confidence labels for formatted results.
const (
	confidenceHigh     = "high"
	confidenceModerate = "moderate"
	confidenceLow      = "low"
)

// confidenceLabel buckets a similarity score for display.
func confidenceLabel(similarity float64) string {
	switch {
	case similarity > 0.5:
		return confidenceHigh
	case similarity > 0.4:
		return confidenceModerate
	default:
		return confidenceLow
	}
}

// FormatForContext renders results as a markdown block ready for prompt
// injection. The perspective gist is preferred over the raw summary when one
// matched; verbose mode adds frames, tags, and corpus locations.
func FormatForContext(results []Result, verbose bool) string {
	if len(results) == 0 {
		return "No relevant memories found."
	}

	var b strings.Builder
	b.WriteString("## Relevant memories\n")
	for _, r := range results {
		text := r.Summary
		if r.Perspective != nil && r.Perspective.Gist != "" {
			text = r.Perspective.Gist
		}

		fmt.Fprintf(&b, "\n- %s\n", text)
		fmt.Fprintf(&b, "  (confidence: %s, salience: %.2f)\n",
			confidenceLabel(r.Similarity), r.Salience)

		if !verbose {
			continue
		}
		if len(r.Frames) > 0 {
			fmt.Fprintf(&b, "  frames: %s\n", strings.Join(r.Frames, ", "))
		}
		if len(r.Tags) > 0 {
			fmt.Fprintf(&b, "  tags: %s\n", strings.Join(r.Tags, ", "))
		}
		if r.Type == ResultTypeMarkdownChunk && r.Source != "" {
			fmt.Fprintf(&b, "  source: %s\n", r.Source)
		}
	}

	return b.String()
}
