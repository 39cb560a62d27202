package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jacklau/trendbot/internal/retry"
)

// SlackNotifier posts digests to a Slack webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	policy     retry.Policy
}

// NewSlackNotifier creates a SlackNotifier with the given webhook URL.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		policy: retry.Policy{MaxAttempts: 2},
	}
}

// slackBlock represents a Slack Block Kit block.
type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

// slackText represents a text object in Slack Block Kit.
type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// slackPayload is the top-level Slack message payload.
type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

// BuildSlackPayload creates the Slack Block Kit message for a digest.
func BuildSlackPayload(d Digest) slackPayload {
	return slackPayload{Blocks: []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: d.Title},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: FormatSummary(d)},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Top groups:*\n%s", FormatGroups(d.Groups))},
		},
	}}
}

// Notify posts the digest, retrying once on failure.
func (s *SlackNotifier) Notify(ctx context.Context, d Digest) error {
	body, err := json.Marshal(BuildSlackPayload(d))
	if err != nil {
		return fmt.Errorf("marshaling slack payload: %w", err)
	}

	if err := retry.Do(ctx, s.policy, func() error { return s.post(ctx, body) }); err != nil {
		return fmt.Errorf("slack notify failed after retry: %w", err)
	}
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
