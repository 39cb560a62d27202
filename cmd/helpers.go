package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jacklau/trendbot/internal/analysis"
	"github.com/jacklau/trendbot/internal/record"
)

// parseRepoRef validates an "owner/repo" argument.
func parseRepoRef(ref string) (string, error) {
	parts := strings.SplitN(ref, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.Contains(parts[1], "/") {
		return "", fmt.Errorf("invalid repo format: expected owner/repo, got %q", ref)
	}
	return ref, nil
}

// labelFunc resolves the --by flag.
func labelFunc(by string) (analysis.Label, error) {
	switch by {
	case "language":
		return analysis.ByLanguage, nil
	case "source", "criterion":
		return analysis.BySource, nil
	default:
		return nil, fmt.Errorf("unsupported grouping %q: expected language or source", by)
	}
}

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

func formatFloat(f float64) string {
	return humanize.CommafWithDigits(f, 1)
}

func formatRate(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatTimeAgo renders t relative to now, or "never" when t is missing.
func formatTimeAgo(t record.Time, now time.Time) string {
	if !t.Valid() {
		return "never"
	}
	return humanize.RelTime(t.Time(), now, "ago", "from now")
}

// orDash substitutes "-" for empty table cells.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// writeJSONLines encodes each row as one JSON object per line.
func writeJSONLines[T any](w io.Writer, rows []T) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
