package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pricewatch/config"
	"pricewatch/notifier"
	"pricewatch/repository"
	"pricewatch/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// productServer serves a product page whose price can be changed
// between checks.
type productServer struct {
	mu    sync.Mutex
	price string
	srv   *httptest.Server
}

func newProductServer(price string) *productServer {
	ps := &productServer{price: price}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		defer ps.mu.Unlock()
		fmt.Fprintf(w, `<html><head>
			<meta itemprop="price" content="%s">
		</head><body><h1>Widget Deluxe</h1></body></html>`, ps.price)
	}))
	return ps
}

func (ps *productServer) setPrice(price string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.price = price
}

// webhookRecorder captures Discord webhook payloads.
type webhookRecorder struct {
	mu       sync.Mutex
	payloads []string
	srv      *httptest.Server
}

func newWebhookRecorder() *webhookRecorder {
	wr := &webhookRecorder{}
	wr.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		wr.mu.Lock()
		wr.payloads = append(wr.payloads, string(body))
		wr.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	return wr
}

func (wr *webhookRecorder) descriptions(t *testing.T) []string {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	var out []string
	for _, raw := range wr.payloads {
		var payload struct {
			Embeds []struct {
				Description string `json:"description"`
			} `json:"embeds"`
		}
		require.NoError(t, json.Unmarshal([]byte(raw), &payload))
		require.Len(t, payload.Embeds, 1)
		out = append(out, payload.Embeds[0].Description)
	}
	return out
}

func newTestChecker(t *testing.T, urls []string, webhookURL string) (*PriceChecker, *repository.HistoryRepository) {
	dir := t.TempDir()

	urlsFile := filepath.Join(dir, "urls.txt")
	content := ""
	for _, u := range urls {
		content += u + "\n"
	}
	require.NoError(t, os.WriteFile(urlsFile, []byte(content), 0o644))

	catalog, err := config.LoadSelectorCatalog("")
	require.NoError(t, err)

	history := repository.NewHistoryRepository(dir)
	checker := NewPriceChecker(
		repository.NewURLRepository(urlsFile),
		history,
		scraper.NewFetcher(5*time.Second),
		scraper.NewPageExtractor(catalog),
		notifier.NewDiscordNotifier(webhookURL),
		0,
	)
	return checker, history
}

func TestCheckAll_PriceDropTriggersNotification(t *testing.T) {
	product := newProductServer("100.00 €")
	defer product.srv.Close()
	webhook := newWebhookRecorder()
	defer webhook.srv.Close()

	checker, history := newTestChecker(t, []string{product.srv.URL}, webhook.srv.URL)

	// First pass records the baseline, no alert yet.
	assert.Equal(t, 1, checker.CheckAll())
	assert.Empty(t, webhook.descriptions(t))

	// Price drops by 10 before the second pass.
	product.setPrice("90.00 €")
	assert.Equal(t, 1, checker.CheckAll())

	descriptions := webhook.descriptions(t)
	require.Len(t, descriptions, 1)
	assert.Contains(t, descriptions[0], "Before: **100.00**")
	assert.Contains(t, descriptions[0], "Now: **90.00**")
	assert.Contains(t, descriptions[0], "-10.00")
	assert.Contains(t, descriptions[0], "Widget Deluxe")

	last, err := history.LastPrice(product.srv.URL)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 90.0, *last)
}

func TestCheckAll_PriceIncreaseStaysQuiet(t *testing.T) {
	product := newProductServer("100.00 €")
	defer product.srv.Close()
	webhook := newWebhookRecorder()
	defer webhook.srv.Close()

	checker, _ := newTestChecker(t, []string{product.srv.URL}, webhook.srv.URL)

	checker.CheckAll()
	product.setPrice("110.00 €")
	checker.CheckAll()

	assert.Empty(t, webhook.descriptions(t), "increases must not alert")
}

func TestCheckAll_FetchFailureIsolatedPerURL(t *testing.T) {
	product := newProductServer("50.00 €")
	defer product.srv.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	checker, history := newTestChecker(t, []string{deadURL, product.srv.URL}, "")

	// The dead URL fails, the healthy one is still processed.
	assert.Equal(t, 1, checker.CheckAll())

	last, err := history.LastPrice(product.srv.URL)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 50.0, *last)

	entries, err := history.History(deadURL, 0)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed fetches append nothing")
}

func TestCheckAll_MissingPriceStillRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>Widget</h1></body></html>`)
	}))
	defer srv.Close()

	checker, history := newTestChecker(t, []string{srv.URL}, "")
	assert.Equal(t, 1, checker.CheckAll())

	entries, err := history.History(srv.URL, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Price)
	assert.Equal(t, "Widget", entries[0].Title)
}

func TestCheckAll_EmptyURLList(t *testing.T) {
	checker, _ := newTestChecker(t, nil, "")
	assert.Equal(t, 0, checker.CheckAll())
}
