package notify

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// maxGroups bounds how many groups a message lists.
const maxGroups = 10

// FormatGroups renders digest groups one per line.
// Example: "1. `Go` 12 repos, median 1,200 stars (top_count, top_stars)"
func FormatGroups(groups []DigestGroup) string {
	if len(groups) == 0 {
		return "None"
	}
	n := min(len(groups), maxGroups)
	lines := make([]string, 0, n+1)
	for i, g := range groups[:n] {
		lines = append(lines, fmt.Sprintf("%d. `%s` %s, median %s stars (%s)",
			i+1, g.Label, repoCount(g.Repos), humanize.CommafWithDigits(g.StarsMedian, 1), g.Rankings))
	}
	if rest := len(groups) - n; rest > 0 {
		lines = append(lines, fmt.Sprintf("... and %d more", rest))
	}
	return strings.Join(lines, "\n")
}

// FormatSummary is the one line overview of a digest.
func FormatSummary(d Digest) string {
	return fmt.Sprintf("%s records across %d rankings (%s)",
		humanize.Comma(int64(d.Records)), len(d.Criteria), strings.Join(d.Criteria, ", "))
}

func repoCount(n int) string {
	if n == 1 {
		return "1 repo"
	}
	return humanize.Comma(int64(n)) + " repos"
}
