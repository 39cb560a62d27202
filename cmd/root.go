package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacklau/trendbot/internal/config"
	"github.com/jacklau/trendbot/internal/github"
	"github.com/jacklau/trendbot/internal/retry"
)

var (
	cfgFile string
	verbose bool
)

// nowFunc is the clock used for recency windows.
var nowFunc = time.Now

var rootCmd = &cobra.Command{
	Use:   "trendbot",
	Short: "Search GitHub repositories and summarize what is trending",
	Long: `Trendbot queries the GitHub REST API with rate limit aware retries,
shapes the results into flat repository records and prints rankings,
recency windows and overlap summaries across several search criteria.`,
	SilenceUsage: true,
}

// Execute runs the root command. An interrupt cancels in-flight requests and
// retry waits.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default %s)", defaultConfigPath()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trendbot/config.yaml"
	}
	return home + "/.trendbot/config.yaml"
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// loadConfig reads --config, or the default path. A missing default file is
// not an error: built-in defaults and GITHUB_TOKEN are used instead.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	cfg, err := config.Load(defaultConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default()
	}
	return cfg, err
}

// backoffFor maps the configured backoff name to a retry.Backoff.
func backoffFor(name string, delay time.Duration) (retry.Backoff, error) {
	switch name {
	case "", "linear":
		return retry.Linear(delay), nil
	case "exponential":
		return retry.Exponential(delay), nil
	default:
		return nil, fmt.Errorf("unsupported backoff: %q", name)
	}
}

// newClient creates a GitHub client from config.
func newClient(cfg *config.Config, logger *slog.Logger) (*github.Client, error) {
	timeout, err := cfg.Defaults.RequestTimeout()
	if err != nil {
		return nil, fmt.Errorf("parsing request_timeout: %w", err)
	}
	delay, err := cfg.Defaults.RetryDelay()
	if err != nil {
		return nil, fmt.Errorf("parsing retry_delay: %w", err)
	}
	backoff, err := backoffFor(cfg.Defaults.Backoff, delay)
	if err != nil {
		return nil, err
	}

	opts := []github.Option{
		github.WithBaseURL(cfg.GitHub.BaseURL),
		github.WithTimeout(timeout),
		github.WithRetry(cfg.Defaults.MaxAttempts, backoff),
		github.WithLogger(logger),
	}
	if cfg.GitHub.UserAgent != "" {
		opts = append(opts, github.WithUserAgent(cfg.GitHub.UserAgent))
	}

	switch cfg.GitHub.Auth {
	case "app":
		appID, err := strconv.ParseInt(cfg.GitHub.AppID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing app_id: %w", err)
		}
		installID, err := strconv.ParseInt(cfg.GitHub.InstallationID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing installation_id: %w", err)
		}
		transport, err := github.NewAppTransport(appID, installID, []byte(cfg.GitHub.PrivateKey), cfg.GitHub.PrivateKeyPath, cfg.GitHub.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("creating GitHub app transport: %w", err)
		}
		opts = append(opts, github.WithTransport(transport))
	case "", "token":
		if cfg.GitHub.Token == "" {
			logger.Warn("no GitHub token configured, using unauthenticated rate limits")
		}
		opts = append(opts, github.WithToken(cfg.GitHub.Token))
	default:
		return nil, fmt.Errorf("unsupported github auth: %q", cfg.GitHub.Auth)
	}

	return github.NewClient(opts...)
}

// setup loads config and builds the client shared by subcommands.
func setup() (*config.Config, *github.Client, *slog.Logger, error) {
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating GitHub client: %w", err)
	}
	return cfg, client, logger, nil
}
