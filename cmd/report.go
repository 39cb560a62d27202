package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jacklau/trendbot/internal/analysis"
	"github.com/jacklau/trendbot/internal/chart"
	"github.com/jacklau/trendbot/internal/config"
	"github.com/jacklau/trendbot/internal/github"
	"github.com/jacklau/trendbot/internal/notify"
	"github.com/jacklau/trendbot/internal/record"
	"github.com/jacklau/trendbot/internal/score"
)

const otherLabel = "other"

var (
	reportBy      string
	reportTopK    int
	reportMin     int
	reportWorkers int
	reportWindow  int
	reportNotify  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Search every configured criterion and summarize the results",
	Long: `Report runs the search of every configured criterion, then prints label
counts, the labels that rank in several rankings (top by repo count, top by
total stars and top per recency window), the similarity between those
rankings and a bar chart of median stars in the most recent window.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportBy, "by", "source", "group records by: source (criterion name) or language")
	reportCmd.Flags().IntVar(&reportTopK, "top", 0, "size of every ranking (default from config)")
	reportCmd.Flags().IntVar(&reportMin, "min-criteria", 0, "rankings a label must appear in to be summarized (default from config)")
	reportCmd.Flags().IntVar(&reportWorkers, "workers", 0, "concurrent criterion searches (default from config)")
	reportCmd.Flags().IntVar(&reportWindow, "chart-window", 0, "days covered by the chart (default from config)")
	reportCmd.Flags().StringVar(&reportNotify, "notify", "", "post the summary to: slack, discord, or both (default from configured webhooks)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, client, logger, err := setup()
	if err != nil {
		return err
	}
	if len(cfg.Criteria) == 0 {
		return fmt.Errorf("no criteria configured: add a criteria section to the config file")
	}

	label, err := labelFunc(reportBy)
	if err != nil {
		return err
	}
	notifier, err := createNotifier(cfg, reportNotify, logger)
	if err != nil {
		return fmt.Errorf("creating notifier: %w", err)
	}

	d := cfg.Defaults
	if reportTopK > 0 {
		d.TopK = reportTopK
	}
	if reportMin > 0 {
		d.MinCriteria = reportMin
	}
	if reportWorkers > 0 {
		d.Workers = reportWorkers
	}
	if reportWindow > 0 {
		d.ChartWindow = reportWindow
	}

	repos, err := collectCriteria(cmd.Context(), client, cfg.Criteria, d, cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}

	now := nowFunc()
	if err := writeReport(cmd.OutOrStdout(), repos, label, d, now); err != nil {
		return err
	}

	if notifier != nil {
		ranks, summaries := overlapSummary(repos, label, d, now)
		if err := notifier.Notify(cmd.Context(), buildDigest(repos, ranks, summaries)); err != nil {
			return fmt.Errorf("sending notification: %w", err)
		}
		logger.Info("report digest sent", "groups", len(summaries))
	}
	return nil
}

// createNotifier builds a Notifier from config and flag override. It returns
// nil when no webhook is configured and no flag is given.
func createNotifier(cfg *config.Config, notifyFlag string, logger *slog.Logger) (notify.Notifier, error) {
	notifyType := notifyFlag
	if notifyType == "" {
		hasSlack := cfg.Notify.SlackWebhook != ""
		hasDiscord := cfg.Notify.DiscordWebhook != ""
		switch {
		case hasSlack && hasDiscord:
			notifyType = "both"
		case hasSlack:
			notifyType = "slack"
		case hasDiscord:
			notifyType = "discord"
		default:
			return nil, nil
		}
	}
	return notify.NewNotifier(notifyType, cfg.Notify.SlackWebhook, cfg.Notify.DiscordWebhook, logger)
}

// buildDigest converts the overlap summary into a notification digest.
func buildDigest(repos []record.Repo, ranks []analysis.Criterion, summaries []analysis.GroupSummary) notify.Digest {
	d := notify.Digest{
		Title:   "trendbot report",
		Records: len(repos),
	}
	for _, r := range ranks {
		d.Criteria = append(d.Criteria, r.Name)
	}
	for _, s := range summaries {
		d.Groups = append(d.Groups, notify.DigestGroup{
			Label:       orDash(s.Label),
			Repos:       s.Repos,
			StarsMedian: s.StarsMedian,
			Rankings:    s.IncludedCriteria,
		})
	}
	return d
}

// collectCriteria runs every criterion search, at most d.Workers at a time,
// and returns the records in criteria order, each labelled with its
// criterion name.
func collectCriteria(ctx context.Context, client *github.Client, criteria []config.CriterionConfig, d config.DefaultsConfig, progress io.Writer, logger *slog.Logger) ([]record.Repo, error) {
	results := make([][]record.Repo, len(criteria))
	bar := newProgressBar(len(criteria), "Searching", progress)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(d.Workers, 1))
	for i, c := range criteria {
		g.Go(func() error {
			repos, err := searchRepos(ctx, client, searchOptions(d, c.Query), c.Name)
			if err != nil {
				return fmt.Errorf("criterion %s: %w", c.Name, err)
			}
			results[i] = repos
			logger.Debug("criterion collected", "criterion", c.Name, "records", len(repos))
			bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	bar.Finish()

	var all []record.Repo
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// rankings builds the named label rankings that overlap is measured across.
func rankings(repos []record.Repo, label analysis.Label, d config.DefaultsConfig, now time.Time) []analysis.Criterion {
	out := []analysis.Criterion{
		{Name: "top_count", Keys: analysis.TopGroups(repos, label, d.TopK)},
		{Name: "top_stars", Keys: analysis.TopGroupsByTotalStars(repos, label, d.TopK)},
	}
	byWindow := analysis.TopGroupsByWindow(repos, label, d.Windows, d.TopK, now)
	for _, days := range d.Windows {
		out = append(out, analysis.Criterion{
			Name: fmt.Sprintf("recent_%dd", days),
			Keys: byWindow[days],
		})
	}
	return out
}

// overlapSummary summarizes the labels that appear in at least
// d.MinCriteria rankings.
func overlapSummary(repos []record.Repo, label analysis.Label, d config.DefaultsConfig, now time.Time) ([]analysis.Criterion, []analysis.GroupSummary) {
	ranks := rankings(repos, label, d, now)
	names := make([]string, len(ranks))
	for i, r := range ranks {
		names[i] = r.Name
	}
	matrix := analysis.BuildOverlapMatrix(ranks)
	candidates := analysis.SelectOverlapCandidates(matrix, d.MinCriteria)
	summaries := analysis.Summarize(repos, candidates, label, analysis.SummaryOptions{
		Matrix:   matrix,
		Criteria: names,
	})
	return ranks, summaries
}

func writeReport(w io.Writer, repos []record.Repo, label analysis.Label, d config.DefaultsConfig, now time.Time) error {
	fmt.Fprintf(w, "%s records\n\n", formatCount(len(repos)))
	if len(repos) == 0 {
		return nil
	}

	// Label counts
	var rows [][]string
	for _, c := range analysis.TopWithOther(repos, label, d.TopK, otherLabel) {
		rows = append(rows, []string{orDash(c.Label), formatCount(c.N)})
	}
	if err := chart.Table(w, []string{"LABEL", "REPOS"}, rows); err != nil {
		return err
	}
	fmt.Fprintln(w)

	// Overlap summary
	ranks, summaries := overlapSummary(repos, label, d, now)
	if len(summaries) == 0 {
		fmt.Fprintf(w, "No label appears in %d or more rankings.\n\n", d.MinCriteria)
	} else {
		rows = rows[:0]
		for _, s := range summaries {
			rows = append(rows, []string{
				orDash(s.Label),
				formatCount(s.Repos),
				formatCount(s.StarsSum),
				formatFloat(s.StarsMedian),
				formatFloat(s.StarsMean),
				strconv.Itoa(s.Languages),
				formatTimeAgo(s.LastActive, now),
				strconv.Itoa(s.OverlapCount),
				s.IncludedCriteria,
			})
		}
		headers := []string{"LABEL", "REPOS", "STARS", "MEDIAN", "MEAN", "LANGS", "LAST ACTIVE", "OVERLAP", "RANKINGS"}
		if err := chart.Table(w, headers, rows); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	// Ranking similarity
	rows = rows[:0]
	for i := range ranks {
		for j := i + 1; j < len(ranks); j++ {
			rows = append(rows, []string{
				ranks[i].Name,
				ranks[j].Name,
				formatRate(score.Jaccard(ranks[i].Keys, ranks[j].Keys)),
			})
		}
	}
	if len(rows) > 0 {
		if err := chart.Table(w, []string{"RANKING", "RANKING", "JACCARD"}, rows); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	return writeWindowChart(w, repos, label, d, now)
}

// writeWindowChart draws median stars of the most frequent labels among
// records active in the chart window.
func writeWindowChart(w io.Writer, repos []record.Repo, label analysis.Label, d config.DefaultsConfig, now time.Time) error {
	report, ok := analysis.RecentWindow(repos, label, d.ChartWindow, d.TopK, now)
	if !ok {
		_, err := fmt.Fprintf(w, "No repositories active in the last %d days.\n", d.ChartWindow)
		return err
	}

	groups := report.ByMedian()
	bars := make([]chart.Bar, len(groups))
	for i, g := range groups {
		bars[i] = chart.Bar{Label: orDash(g.Label), Value: g.StarsMedian}
	}
	title := fmt.Sprintf("Median stars of the top %d labels, last %d days", report.TopK, report.Days)
	return chart.Bars(w, title, "median stars", bars)
}
