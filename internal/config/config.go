package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	GitHub   GitHubConfig      `yaml:"github"`
	Defaults DefaultsConfig    `yaml:"defaults"`
	Criteria []CriterionConfig `yaml:"criteria"`
	Notify   NotifyConfig      `yaml:"notify"`
}

// GitHubConfig holds GitHub API access settings.
type GitHubConfig struct {
	// Auth is "token" (default) or "app".
	Auth           string `yaml:"auth"`
	Token          string `yaml:"token"`
	AppID          string `yaml:"app_id"`
	InstallationID string `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
	PrivateKey     string `yaml:"private_key"`
	BaseURL        string `yaml:"base_url"`
	UserAgent      string `yaml:"user_agent"`
}

// DefaultsConfig holds default operational parameters.
type DefaultsConfig struct {
	RequestTimeoutRaw string `yaml:"request_timeout"`
	MaxAttempts       int    `yaml:"max_attempts"`
	RetryDelayRaw     string `yaml:"retry_delay"`
	Backoff           string `yaml:"backoff"`

	Sort       string `yaml:"sort"`
	Order      string `yaml:"order"`
	PerPage    int    `yaml:"per_page"`
	Pages      int    `yaml:"pages"`
	CountPages int    `yaml:"count_pages"`

	TopK        int   `yaml:"top_k"`
	Windows     []int `yaml:"windows"`
	ChartWindow int   `yaml:"chart_window"`
	MinCriteria int   `yaml:"min_criteria"`
	Workers     int   `yaml:"workers"`
}

// CriterionConfig is a named repository search. Records returned by the
// search are labelled with Name.
type CriterionConfig struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
}

// NotifyConfig holds webhook URLs for report digests.
type NotifyConfig struct {
	SlackWebhook   string `yaml:"slack_webhook"`
	DiscordWebhook string `yaml:"discord_webhook"`
}

// RequestTimeout returns the parsed per-request timeout.
func (d DefaultsConfig) RequestTimeout() (time.Duration, error) {
	if d.RequestTimeoutRaw == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(d.RequestTimeoutRaw)
}

// RetryDelay returns the parsed delay between failed attempts.
func (d DefaultsConfig) RetryDelay() (time.Duration, error) {
	if d.RetryDelayRaw == "" {
		return time.Second, nil
	}
	return time.ParseDuration(d.RetryDelayRaw)
}

// envVarPattern matches ${VAR} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} placeholders with environment variable values.
// Full-line YAML comments are left untouched. Returns an error if any
// referenced variable is not set.
func expandEnvVars(data []byte) ([]byte, error) {
	var missing []string

	lines := bytes.SplitAfter(data, []byte("\n"))
	for i, line := range lines {
		if bytes.HasPrefix(bytes.TrimSpace(line), []byte("#")) {
			continue
		}
		lines[i] = envVarPattern.ReplaceAllFunc(line, func(match []byte) []byte {
			varName := envVarPattern.FindSubmatch(match)[1]
			val, ok := os.LookupEnv(string(varName))
			if !ok {
				missing = append(missing, string(varName))
				return match
			}
			return []byte(val)
		})
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return bytes.Join(lines, nil), nil
}

// Load reads and parses a config file from the given path. A .env file in
// the working directory, if any, is loaded into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Default returns the configuration used when no config file exists, after
// loading a .env file if present.
func Default() (*Config, error) {
	_ = godotenv.Load()
	return Parse(nil)
}

// Parse parses config from raw YAML bytes, expanding env vars and validating.
func Parse(data []byte) (*Config, error) {
	expanded, err := expandEnvVars(data)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.GitHub.Auth == "" {
		cfg.GitHub.Auth = "token"
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.GitHub.UserAgent == "" {
		cfg.GitHub.UserAgent = "trendbot-utils/1.0"
	}
	if cfg.Defaults.RequestTimeoutRaw == "" {
		cfg.Defaults.RequestTimeoutRaw = "30s"
	}
	if cfg.Defaults.MaxAttempts == 0 {
		cfg.Defaults.MaxAttempts = 3
	}
	if cfg.Defaults.RetryDelayRaw == "" {
		cfg.Defaults.RetryDelayRaw = "1s"
	}
	if cfg.Defaults.Backoff == "" {
		cfg.Defaults.Backoff = "linear"
	}
	if cfg.Defaults.Sort == "" {
		cfg.Defaults.Sort = "stars"
	}
	if cfg.Defaults.Order == "" {
		cfg.Defaults.Order = "desc"
	}
	if cfg.Defaults.PerPage == 0 {
		cfg.Defaults.PerPage = 50
	}
	if cfg.Defaults.Pages == 0 {
		cfg.Defaults.Pages = 1
	}
	if cfg.Defaults.CountPages == 0 {
		cfg.Defaults.CountPages = 5
	}
	if cfg.Defaults.TopK == 0 {
		cfg.Defaults.TopK = 20
	}
	if len(cfg.Defaults.Windows) == 0 {
		cfg.Defaults.Windows = []int{7, 30, 90}
	}
	if cfg.Defaults.ChartWindow == 0 {
		cfg.Defaults.ChartWindow = 30
	}
	if cfg.Defaults.MinCriteria == 0 {
		cfg.Defaults.MinCriteria = 2
	}
	if cfg.Defaults.Workers == 0 {
		cfg.Defaults.Workers = 1
	}
}

func validate(cfg *Config) error {
	switch cfg.GitHub.Auth {
	case "token":
	case "app":
		if cfg.GitHub.AppID == "" || cfg.GitHub.InstallationID == "" {
			return fmt.Errorf("github auth app requires app_id and installation_id")
		}
		if cfg.GitHub.PrivateKey == "" && cfg.GitHub.PrivateKeyPath == "" {
			return fmt.Errorf("github auth app requires private_key or private_key_path")
		}
	default:
		return fmt.Errorf("unsupported github auth: %q", cfg.GitHub.Auth)
	}

	// Validate durations parse correctly
	if _, err := time.ParseDuration(cfg.Defaults.RequestTimeoutRaw); err != nil {
		return fmt.Errorf("invalid request_timeout %q: %w", cfg.Defaults.RequestTimeoutRaw, err)
	}
	if _, err := time.ParseDuration(cfg.Defaults.RetryDelayRaw); err != nil {
		return fmt.Errorf("invalid retry_delay %q: %w", cfg.Defaults.RetryDelayRaw, err)
	}

	if cfg.Defaults.Backoff != "linear" && cfg.Defaults.Backoff != "exponential" {
		return fmt.Errorf("backoff must be linear or exponential, got %q", cfg.Defaults.Backoff)
	}
	if cfg.Defaults.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", cfg.Defaults.MaxAttempts)
	}
	if cfg.Defaults.PerPage < 1 || cfg.Defaults.PerPage > 100 {
		return fmt.Errorf("per_page must be between 1 and 100, got %d", cfg.Defaults.PerPage)
	}
	if cfg.Defaults.Pages < 1 || cfg.Defaults.CountPages < 1 {
		return fmt.Errorf("pages and count_pages must be at least 1")
	}
	if cfg.Defaults.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1, got %d", cfg.Defaults.TopK)
	}
	for _, w := range append([]int{cfg.Defaults.ChartWindow}, cfg.Defaults.Windows...) {
		if w < 1 {
			return fmt.Errorf("windows must be positive day counts, got %d", w)
		}
	}
	if cfg.Defaults.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", cfg.Defaults.Workers)
	}

	seen := make(map[string]bool, len(cfg.Criteria))
	for i, c := range cfg.Criteria {
		if c.Name == "" || c.Query == "" {
			return fmt.Errorf("criteria[%d]: name and query are required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("criteria[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true
	}

	return nil
}
