package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	// Build issue lines.
	var lines []string
	limit := 5
	if len(n.Issues) < limit {
		limit = len(n.Issues)
	}
	for _, iss := range n.Issues[:limit] {
		lines = append(lines, fmt.Sprintf("• %s [%s, %d mentions]", iss.Title, iss.Severity, iss.Mentions))
	}

	embed := map[string]any{
		"title":       fmt.Sprintf("⚠️ %s", n.Title),
		"description": fmt.Sprintf("**%s** | **Score:** %d (%s)\n\n%s\n\n%s", n.Product.Name, n.Score, n.Grade, n.Body, strings.Join(lines, "\n")),
		"color":       0xCC0000,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}

	payload := map[string]any{
		"embeds": []map[string]any{embed},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook status %d", resp.StatusCode)
	}

	return nil
}
