package notifier

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// priceDropColor is the embed accent color used for alerts.
const priceDropColor = 3066993

// discordPayload is the webhook body Discord expects.
type discordPayload struct {
	Username string         `json:"username"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

// DiscordNotifier posts alert messages to a Discord webhook. It is
// strictly best-effort: every failure is logged and swallowed, a dead
// webhook must never stall or fail the extraction pipeline. An empty
// webhook URL disables it entirely.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a notifier for the given webhook URL.
func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled returns true when a webhook is configured.
func (n *DiscordNotifier) Enabled() bool {
	return n.webhookURL != ""
}

// Notify posts one embed with the given title and body. Failures are
// swallowed after a log line.
func (n *DiscordNotifier) Notify(title, body string) {
	if !n.Enabled() {
		return
	}

	payload := discordPayload{
		Username: "Price Tracker",
		Embeds: []discordEmbed{{
			Title:       title,
			Description: body,
			Color:       priceDropColor,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️  Failed to encode webhook payload: %v", err)
		return
	}

	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(data))
	if err != nil {
		log.Printf("⚠️  Failed to post webhook: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("⚠️  Webhook returned status %d", resp.StatusCode)
	}
}
