package usecase

import (
	"fmt"
	"strings"
)

// BuildMarkdown renders confirmed-relevant results as a markdown link list
// with their matched topics, suitable for download or archiving.
func BuildMarkdown(results []Result) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Verified News Links\n\n")
	for _, r := range results {
		fmt.Fprintf(&b, "- [%s](%s)\n", r.Item.Title, r.Item.URL)
		for _, match := range r.Verdict.RelevantMatches() {
			fmt.Fprintf(&b, "  - Matched Topic: %s (similarity: %.2f)\n", match.Topic.Raw, match.Similarity)
		}
	}
	return b.String()
}
