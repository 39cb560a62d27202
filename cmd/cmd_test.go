package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jacklau/trendbot/internal/github"
)

var testNow = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

// newTestClient creates a client for handler that never sleeps between
// attempts.
func newTestClient(t *testing.T, handler http.Handler) *github.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := github.NewClient(
		github.WithBaseURL(srv.URL),
		github.WithRetry(1, nil),
		github.WithSleeper(func(ctx context.Context, d time.Duration) error { return ctx.Err() }),
	)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return client
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func repoJSON(name, language string, stars int, pushed string) map[string]any {
	return map[string]any{
		"full_name":        name,
		"language":         language,
		"stargazers_count": stars,
		"pushed_at":        pushed,
	}
}
