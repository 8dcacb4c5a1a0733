package notifier

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestNotify_PostsEmbed(t *testing.T) {
	var payload discordPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(srv.URL)
	n.Notify("📉 Price drop detected", "Before: **100.00** → Now: **90.00**")

	if payload.Username != "Price Tracker" {
		t.Errorf("Expected Price Tracker username, got %q", payload.Username)
	}
	if len(payload.Embeds) != 1 {
		t.Fatalf("Expected one embed, got %d", len(payload.Embeds))
	}
	embed := payload.Embeds[0]
	if embed.Title != "📉 Price drop detected" {
		t.Errorf("Unexpected embed title %q", embed.Title)
	}
	if embed.Color != priceDropColor {
		t.Errorf("Expected color %d, got %d", priceDropColor, embed.Color)
	}
	if embed.Timestamp == "" {
		t.Error("Expected a timestamp on the embed")
	}
}

func TestNotify_DisabledWithoutWebhook(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	n := NewDiscordNotifier("")
	if n.Enabled() {
		t.Error("Expected notifier to be disabled")
	}
	n.Notify("title", "body")

	if calls.Load() != 0 {
		t.Error("Expected no webhook call without a configured URL")
	}
}

func TestNotify_SwallowsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Must not panic or propagate anything.
	NewDiscordNotifier(srv.URL).Notify("title", "body")
}

func TestNotify_SwallowsConnectionErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	NewDiscordNotifier(url).Notify("title", "body")
}
