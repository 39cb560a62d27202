package github

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v60/github"

	"github.com/jacklau/trendbot/internal/retry"
)

const (
	// DefaultUserAgent identifies trendbot to the API.
	DefaultUserAgent = "trendbot-utils/1.0"

	// DefaultTimeout bounds every single request.
	DefaultTimeout = 30 * time.Second

	acceptHeader = "application/vnd.github+json"
)

// Client issues rate-limit aware GET requests against the GitHub REST API.
// All methods block until the request sequence completes; the client holds no
// mutable state and is safe to share.
type Client struct {
	gh     *gogithub.Client
	http   *http.Client
	token  string
	policy retry.Policy
	now    func() time.Time
	logger *slog.Logger
}

type clientConfig struct {
	token     string
	baseURL   string
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper
	policy    retry.Policy
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*clientConfig)

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *clientConfig) { c.token = token }
}

// WithBaseURL points the client at a different API root, such as a GitHub
// Enterprise server or a test server.
func WithBaseURL(u string) Option {
	return func(c *clientConfig) { c.baseURL = u }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) { c.userAgent = ua }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithTransport sets the underlying round tripper, e.g. an app installation
// transport from NewAppTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *clientConfig) { c.transport = rt }
}

// WithRetry sets the attempt budget and backoff for non rate-limit failures.
func WithRetry(maxAttempts int, backoff retry.Backoff) Option {
	return func(c *clientConfig) {
		c.policy.MaxAttempts = maxAttempts
		c.policy.Backoff = backoff
	}
}

// WithSleeper replaces the blocking sleep used for backoff and rate limit
// waits.
func WithSleeper(s retry.Sleeper) Option {
	return func(c *clientConfig) { c.policy.Sleep = s }
}

// WithClock replaces time.Now when computing rate limit waits.
func WithClock(now func() time.Time) Option {
	return func(c *clientConfig) { c.now = now }
}

// WithLogger sets the logger used for retry and rate limit messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// NewClient builds a Client from options.
func NewClient(opts ...Option) (*Client, error) {
	cfg := clientConfig{
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		policy: retry.Policy{
			MaxAttempts: retry.DefaultMaxAttempts,
			Backoff:     retry.Linear(retry.DefaultDelay),
		},
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	httpClient := &http.Client{Timeout: cfg.timeout, Transport: cfg.transport}
	gh := gogithub.NewClient(httpClient)
	gh.UserAgent = cfg.userAgent

	if cfg.baseURL != "" {
		base := cfg.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL %q: %w", cfg.baseURL, err)
		}
		gh.BaseURL = u
	}

	return &Client{
		gh:     gh,
		http:   httpClient,
		token:  cfg.token,
		policy: cfg.policy,
		now:    cfg.now,
		logger: cfg.logger,
	}, nil
}

// NewAppTransport returns a transport authenticated as a GitHub App
// installation. It uses ghinstallation for automatic JWT and installation
// token management. baseURL is only needed for GitHub Enterprise.
//
// privateKey can be either:
//   - Raw PEM bytes (begins with "-----BEGIN")
//   - Base64-encoded PEM bytes
//
// If privateKey is empty and privateKeyPath is provided, the key is read from
// that file path.
func NewAppTransport(appID, installationID int64, privateKey []byte, privateKeyPath, baseURL string) (http.RoundTripper, error) {
	key, err := resolvePrivateKey(privateKey, privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("resolving private key: %w", err)
	}

	transport, err := ghinstallation.New(http.DefaultTransport, appID, installationID, key)
	if err != nil {
		return nil, fmt.Errorf("creating installation transport: %w", err)
	}
	if baseURL != "" {
		transport.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return transport, nil
}

// resolvePrivateKey returns PEM-encoded private key bytes from either the
// provided raw/base64-encoded key or by reading from a file path.
func resolvePrivateKey(key []byte, keyPath string) ([]byte, error) {
	if len(key) > 0 {
		s := strings.TrimSpace(string(key))
		if strings.HasPrefix(s, "-----BEGIN") {
			return []byte(s), nil
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			decoded, err = base64.URLEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("private key is neither PEM nor valid base64: %w", err)
			}
		}
		return decoded, nil
	}

	if keyPath != "" {
		data, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("reading private key file %s: %w", keyPath, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("no private key provided: set private_key or private_key_path")
}
