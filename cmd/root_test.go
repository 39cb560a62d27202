package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jacklau/trendbot/internal/config"
)

func TestBackoffFor(t *testing.T) {
	t.Run("linear is constant", func(t *testing.T) {
		for _, name := range []string{"", "linear"} {
			b, err := backoffFor(name, time.Second)
			if err != nil {
				t.Fatalf("backoffFor(%q): %v", name, err)
			}
			if b(1) != time.Second || b(3) != time.Second {
				t.Errorf("backoffFor(%q) = %v, %v; want 1s each", name, b(1), b(3))
			}
		}
	})

	t.Run("exponential doubles", func(t *testing.T) {
		b, err := backoffFor("exponential", time.Second)
		if err != nil {
			t.Fatalf("backoffFor: %v", err)
		}
		if got := b(2); got < 4*time.Second || got >= 5*time.Second {
			t.Errorf("backoff(2) = %v, want 4s plus at most 25%% jitter", got)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := backoffFor("fibonacci", time.Second); err == nil {
			t.Error("expected error")
		}
	})
}

func TestNewClient(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("token auth", func(t *testing.T) {
		cfg, err := config.Parse([]byte("github:\n  token: ghp_x\n  base_url: http://127.0.0.1:1/api/v3\n"))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if _, err := newClient(cfg, logger); err != nil {
			t.Errorf("newClient failed: %v", err)
		}
	})

	t.Run("app auth with bad app_id", func(t *testing.T) {
		cfg := &config.Config{GitHub: config.GitHubConfig{Auth: "app", AppID: "abc", InstallationID: "1", PrivateKeyPath: "k.pem"}}
		_, err := newClient(cfg, logger)
		if err == nil || !strings.Contains(err.Error(), "app_id") {
			t.Errorf("expected app_id error, got %v", err)
		}
	})

	t.Run("app auth with missing key file", func(t *testing.T) {
		cfg := &config.Config{GitHub: config.GitHubConfig{
			Auth:           "app",
			AppID:          "1",
			InstallationID: "2",
			PrivateKeyPath: filepath.Join(t.TempDir(), "missing.pem"),
		}}
		_, err := newClient(cfg, logger)
		if err == nil || !strings.Contains(err.Error(), "private key") {
			t.Errorf("expected private key error, got %v", err)
		}
	})

	t.Run("unknown auth", func(t *testing.T) {
		cfg := &config.Config{GitHub: config.GitHubConfig{Auth: "oauth"}}
		if _, err := newClient(cfg, logger); err == nil {
			t.Error("expected error for unknown auth")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	old := cfgFile
	defer func() { cfgFile = old }()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("defaults:\n  workers: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfgFile = path
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Defaults.Workers != 3 {
		t.Errorf("expected workers 3, got %d", cfg.Defaults.Workers)
	}

	cfgFile = filepath.Join(dir, "missing.yaml")
	if _, err := loadConfig(); err == nil {
		t.Error("an explicit --config that does not exist should fail")
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"search", "report", "count", "rubric", "init", "version"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered on rootCmd", name)
		}
	}
}
