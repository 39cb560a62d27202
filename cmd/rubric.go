package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacklau/trendbot/internal/chart"
	"github.com/jacklau/trendbot/internal/github"
	"github.com/jacklau/trendbot/internal/score"
)

var rubricJSON bool

var rubricCmd = &cobra.Command{
	Use:   "rubric <owner/repo>...",
	Short: "Score repositories against the fixed quality rubric",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRubric,
}

func init() {
	rubricCmd.Flags().BoolVar(&rubricJSON, "json", false, "print one JSON object per repository instead of a table")
	rootCmd.AddCommand(rubricCmd)
}

// rubricRow is one scored repository.
type rubricRow struct {
	score.Rubric
	RecentlyPushed bool `json:"recent_push_90d"`
}

func runRubric(cmd *cobra.Command, args []string) error {
	for _, a := range args {
		if _, err := parseRepoRef(a); err != nil {
			return err
		}
	}

	_, client, _, err := setup()
	if err != nil {
		return err
	}

	rows, err := scoreRepos(cmd.Context(), client, args, nowFunc())
	if err != nil {
		return err
	}
	if rubricJSON {
		return writeJSONLines(cmd.OutOrStdout(), rows)
	}
	return writeRubrics(cmd.OutOrStdout(), rows)
}

func scoreRepos(ctx context.Context, client *github.Client, repos []string, now time.Time) ([]rubricRow, error) {
	rows := make([]rubricRow, 0, len(repos))
	for _, repo := range repos {
		raw, err := client.Repository(ctx, repo)
		if err != nil {
			return nil, err
		}
		name := raw.FullName
		if name == "" {
			name = repo
		}
		rows = append(rows, rubricRow{
			Rubric:         score.RubricFor(name, raw.Description),
			RecentlyPushed: score.RecentlyPushed(raw.PushedAt, now),
		})
	}
	return rows, nil
}

func writeRubrics(w io.Writer, rows []rubricRow) error {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			r.Repo,
			strconv.Itoa(r.Readme),
			strconv.Itoa(r.Tests),
			strconv.Itoa(r.Docs),
			strconv.Itoa(r.Contributors),
			strconv.Itoa(r.Activity),
			strconv.Itoa(r.License),
			strconv.Itoa(r.CI),
			strconv.Itoa(r.Total()),
			fmt.Sprintf("%t", r.RecentlyPushed),
		}
	}
	headers := []string{"REPOSITORY", "README", "TESTS", "DOCS", "CONTRIBUTORS", "ACTIVITY", "LICENSE", "CI", "TOTAL", "PUSHED <90D"}
	return chart.Table(w, headers, out)
}
