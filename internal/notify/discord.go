package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

// Discord rejects content longer than this.
const discordMaxContent = 2000

// DiscordChannel posts to a Discord-compatible incoming webhook.
type DiscordChannel struct {
	name       string
	webhookURL string
	httpClient *http.Client
}

func NewDiscordChannel(name, webhookURL string, timeout time.Duration) *DiscordChannel {
	return &DiscordChannel{
		name:       name,
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *DiscordChannel) Name() string { return c.name }

type discordPayload struct {
	Content         string          `json:"content"`
	AllowedMentions allowedMentions `json:"allowed_mentions"`
}

// allowedMentions with an empty Parse list keeps @everyone and role names in
// posting titles from pinging the channel.
type allowedMentions struct {
	Parse []string `json:"parse"`
}

func (c *DiscordChannel) Send(ctx context.Context, msg Message) error {
	content := RenderPlain(msg)
	if utf8.RuneCountInString(content) > discordMaxContent {
		content = string([]rune(content)[:discordMaxContent-1]) + "…"
	}

	body, err := json.Marshal(discordPayload{Content: content, AllowedMentions: allowedMentions{Parse: []string{}}})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(preview))
	}
	return nil
}
