package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup for trendbot configuration",
	Long: `Creates a configuration file with guided prompts: GitHub authentication
and the named search criteria used by the report command.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// initAnswers are the values gathered by the init prompts.
type initAnswers struct {
	Auth           string
	AppID          string
	InstallationID string
	KeyPath        string
	Criteria       [][2]string
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Welcome to trendbot setup!")
	fmt.Fprintln(out, "This will create a configuration file for you.")
	fmt.Fprintln(out)

	configPath := cfgFile
	if configPath == "" {
		configPath = defaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(out, "Config file already exists at %s\n", configPath)
		answer := prompt(reader, out, "Overwrite? [y/N]: ")
		answer = strings.ToLower(answer)
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	answers, err := askInit(reader, out)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(buildConfigYAML(answers)), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", configPath)
	fmt.Fprintln(out, "Run 'trendbot report' to summarize your criteria.")
	return nil
}

func prompt(r *bufio.Reader, w io.Writer, question string) string {
	fmt.Fprint(w, question)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

func askInit(r *bufio.Reader, w io.Writer) (initAnswers, error) {
	var a initAnswers

	a.Auth = prompt(r, w, "GitHub auth (token/app) [token]: ")
	switch a.Auth {
	case "":
		a.Auth = "token"
	case "token":
	case "app":
		a.AppID = prompt(r, w, "GitHub App ID: ")
		a.InstallationID = prompt(r, w, "Installation ID: ")
		a.KeyPath = prompt(r, w, "Private key path: ")
	default:
		return a, fmt.Errorf("unsupported github auth: %q", a.Auth)
	}

	fmt.Fprintln(w, "Search criteria, one per line as name=query (empty line to finish):")
	for {
		line := prompt(r, w, "> ")
		if line == "" {
			break
		}
		name, query, ok := strings.Cut(line, "=")
		name, query = strings.TrimSpace(name), strings.TrimSpace(query)
		if !ok || name == "" || query == "" {
			fmt.Fprintf(w, "Skipping %q: expected name=query\n", line)
			continue
		}
		a.Criteria = append(a.Criteria, [2]string{name, query})
	}
	return a, nil
}

func buildConfigYAML(a initAnswers) string {
	var b strings.Builder

	b.WriteString("# trendbot configuration\n")
	b.WriteString("# Values like $GITHUB_TOKEN wrapped in braces are read from the environment\n")
	b.WriteString("# or a .env file.\n\n")

	b.WriteString("github:\n")
	if a.Auth == "app" {
		b.WriteString("  auth: app\n")
		fmt.Fprintf(&b, "  app_id: %q\n", a.AppID)
		fmt.Fprintf(&b, "  installation_id: %q\n", a.InstallationID)
		fmt.Fprintf(&b, "  private_key_path: %q\n", a.KeyPath)
	} else {
		b.WriteString("  auth: token\n")
		b.WriteString("  token: ${GITHUB_TOKEN}\n")
	}
	b.WriteString("  # base_url: https://github.example.com/api/v3\n")
	b.WriteString("\n")

	b.WriteString("defaults:\n")
	b.WriteString("  request_timeout: 30s\n")
	b.WriteString("  max_attempts: 3\n")
	b.WriteString("  retry_delay: 1s\n")
	b.WriteString("  backoff: linear\n")
	b.WriteString("  per_page: 50\n")
	b.WriteString("  pages: 1\n")
	b.WriteString("  count_pages: 5\n")
	b.WriteString("  top_k: 20\n")
	b.WriteString("  windows: [7, 30, 90]\n")
	b.WriteString("  chart_window: 30\n")
	b.WriteString("  min_criteria: 2\n")
	b.WriteString("  workers: 1\n")
	b.WriteString("\n")

	if len(a.Criteria) == 0 {
		b.WriteString("criteria: []\n")
		b.WriteString("# criteria:\n")
		b.WriteString("#   - name: agents\n")
		b.WriteString("#     query: \"topic:ai-agents stars:>50\"\n")
		return b.String()
	}

	b.WriteString("criteria:\n")
	for _, c := range a.Criteria {
		fmt.Fprintf(&b, "  - name: %q\n", c[0])
		fmt.Fprintf(&b, "    query: %q\n", c[1])
	}
	return b.String()
}
