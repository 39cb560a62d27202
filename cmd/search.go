package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacklau/trendbot/internal/chart"
	"github.com/jacklau/trendbot/internal/config"
	"github.com/jacklau/trendbot/internal/github"
	"github.com/jacklau/trendbot/internal/record"
)

var (
	searchPages   int
	searchPerPage int
	searchSort    string
	searchOrder   string
	searchSource  string
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run one repository search and list the records",
	Long: `Search runs a GitHub repository search query, walking result pages
until a short page or the page limit, and prints one row per repository.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchPages, "pages", 0, "maximum result pages (default from config)")
	searchCmd.Flags().IntVar(&searchPerPage, "per-page", 0, "results per page, at most 100 (default from config)")
	searchCmd.Flags().StringVar(&searchSort, "sort", "", "sort field: stars, forks, updated (default from config)")
	searchCmd.Flags().StringVar(&searchOrder, "order", "", "sort order: asc or desc (default from config)")
	searchCmd.Flags().StringVar(&searchSource, "source", "search", "label recorded as the source of every result")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print one JSON record per line instead of a table")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, client, logger, err := setup()
	if err != nil {
		return err
	}

	opts := searchOptions(cfg.Defaults, args[0])
	if searchPages > 0 {
		opts.Pages = searchPages
	}
	if searchPerPage > 0 {
		opts.PerPage = searchPerPage
	}
	if searchSort != "" {
		opts.Sort = searchSort
	}
	if searchOrder != "" {
		opts.Order = searchOrder
	}

	repos, err := searchRepos(cmd.Context(), client, opts, searchSource)
	if err != nil {
		return err
	}
	logger.Debug("search complete", "query", opts.Query, "records", len(repos))

	if searchJSON {
		return writeJSONLines(cmd.OutOrStdout(), repos)
	}
	return writeRepos(cmd.OutOrStdout(), repos, nowFunc())
}

// searchOptions builds search options for query from configured defaults.
func searchOptions(d config.DefaultsConfig, query string) github.SearchOptions {
	return github.SearchOptions{
		Query:   query,
		Sort:    d.Sort,
		Order:   d.Order,
		PerPage: d.PerPage,
		Pages:   d.Pages,
	}
}

// searchRepos runs a search and shapes the results under source.
func searchRepos(ctx context.Context, client *github.Client, opts github.SearchOptions, source string) ([]record.Repo, error) {
	raws, err := client.Search(ctx, opts)
	if err != nil {
		return nil, err
	}
	return record.FromRaws(raws, source), nil
}

func writeRepos(w io.Writer, repos []record.Repo, now time.Time) error {
	if len(repos) == 0 {
		_, err := fmt.Fprintln(w, "No repositories found.")
		return err
	}

	rows := make([][]string, 0, len(repos))
	for _, r := range repos {
		rows = append(rows, []string{
			r.FullName,
			formatCount(r.Stars),
			formatCount(r.Forks),
			orDash(r.Language),
			formatTimeAgo(record.LastActive(r), now),
			orDash(r.Topics),
		})
	}
	return chart.Table(w, []string{"REPOSITORY", "STARS", "FORKS", "LANGUAGE", "LAST ACTIVE", "TOPICS"}, rows)
}
