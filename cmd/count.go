package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jacklau/trendbot/internal/chart"
	"github.com/jacklau/trendbot/internal/github"
	"github.com/jacklau/trendbot/internal/score"
)

var (
	countPages   int
	countWorkers int
)

var countCmd = &cobra.Command{
	Use:   "count <owner/repo>...",
	Short: "Count open and closed issues and pull requests",
	Long: `Count walks the issue and pull request listings of each repository
(a bounded number of pages of 100), then prints open counts, the merge rate
of closed pull requests and an activity score normalized across the given
repositories.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCount,
}

func init() {
	countCmd.Flags().IntVar(&countPages, "pages", 0, "maximum pages of 100 per listing (default from config)")
	countCmd.Flags().IntVar(&countWorkers, "workers", 0, "repositories counted concurrently (default from config)")
	rootCmd.AddCommand(countCmd)
}

// repoCounts holds the listing counts of one repository.
type repoCounts struct {
	Repo         string
	OpenIssues   int
	OpenPulls    int
	ClosedIssues int
	ClosedPulls  int
	MergedPulls  int
}

func runCount(cmd *cobra.Command, args []string) error {
	repos := make([]string, len(args))
	for i, a := range args {
		ref, err := parseRepoRef(a)
		if err != nil {
			return err
		}
		repos[i] = ref
	}

	cfg, client, _, err := setup()
	if err != nil {
		return err
	}

	pages := cfg.Defaults.CountPages
	if countPages > 0 {
		pages = countPages
	}
	workers := cfg.Defaults.Workers
	if countWorkers > 0 {
		workers = countWorkers
	}

	counts, err := countRepos(cmd.Context(), client, repos, pages, workers)
	if err != nil {
		return err
	}
	return writeCounts(cmd.OutOrStdout(), counts)
}

// countRepos counts every repository, at most workers at a time. Results keep
// argument order.
func countRepos(ctx context.Context, client *github.Client, repos []string, pages, workers int) ([]repoCounts, error) {
	out := make([]repoCounts, len(repos))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, repo := range repos {
		g.Go(func() error {
			c, err := countRepo(ctx, client, repo, pages)
			if err != nil {
				return fmt.Errorf("counting %s: %w", repo, err)
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func countRepo(ctx context.Context, client *github.Client, repo string, pages int) (repoCounts, error) {
	c := repoCounts{Repo: repo}
	open := url.Values{"state": {"open"}}

	var err error
	if c.OpenIssues, err = client.CountPaged(ctx, github.IssuesPath(repo), open, pages); err != nil {
		return c, err
	}
	if c.OpenPulls, err = client.CountPaged(ctx, github.PullsPath(repo), open, pages); err != nil {
		return c, err
	}
	if c.ClosedIssues, _, err = client.CountClosedAndMerged(ctx, github.IssuesPath(repo), nil, false); err != nil {
		return c, err
	}
	if c.ClosedPulls, c.MergedPulls, err = client.CountClosedAndMerged(ctx, github.PullsPath(repo), nil, true); err != nil {
		return c, err
	}
	return c, nil
}

func writeCounts(w io.Writer, counts []repoCounts) error {
	merged := make([]float64, len(counts))
	closed := make([]float64, len(counts))
	open := make([]float64, len(counts))
	for i, c := range counts {
		merged[i] = float64(c.MergedPulls)
		closed[i] = float64(c.ClosedPulls)
		open[i] = float64(c.OpenIssues + c.OpenPulls)
	}
	mergeRate := score.SafeRate(merged, closed)
	activity := score.Normalize(open)

	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{
			c.Repo,
			formatCount(c.OpenIssues),
			formatCount(c.OpenPulls),
			formatCount(c.ClosedIssues),
			formatCount(c.ClosedPulls),
			formatCount(c.MergedPulls),
			formatRate(mergeRate[i]),
			formatRate(activity[i]),
		}
	}
	headers := []string{"REPOSITORY", "OPEN ISSUES", "OPEN PRS", "CLOSED ISSUES", "CLOSED PRS", "MERGED", "MERGE RATE", "ACTIVITY"}
	return chart.Table(w, headers, rows)
}
