package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// userAgents is the rotation pool for outgoing requests. Shops throttle
// repeat clients less aggressively when the agent varies between runs.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// FetchError reports a failed page fetch. It is the only error the
// pipeline surfaces per URL; everything downstream of a successful
// fetch degrades instead of failing.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s: status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves raw page markup over HTTP with a per-request
// timeout, a rotating User-Agent and a single retry after a short
// backoff when the shop answers with a throttling status (429/503).
// One Fetcher instance is shared by concurrent check passes, so it
// holds no mutable state; randomness comes from the lock-protected
// top-level math/rand source.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewFetcher creates a fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Fetcher{
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Fetch retrieves the page at url and returns its raw markup.
func (f *Fetcher) Fetch(url string) (string, error) {
	return f.FetchContext(context.Background(), url)
}

// FetchContext retrieves the page at url, honoring ctx for
// cancellation on top of the fetcher's own per-request timeout.
func (f *Fetcher) FetchContext(ctx context.Context, url string) (string, error) {
	body, status, err := f.tryOnce(ctx, url)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
		// Throttled: back off briefly and try one more time.
		backoff := 2*time.Second + time.Duration(rand.Int63n(int64(time.Second)))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", &FetchError{URL: url, Err: ctx.Err()}
		}
		body, status, err = f.tryOnce(ctx, url)
		if err != nil {
			return "", &FetchError{URL: url, Err: err}
		}
	}

	if status < 200 || status > 299 {
		return "", &FetchError{URL: url, StatusCode: status}
	}
	return body, nil
}

func (f *Fetcher) tryOnce(ctx context.Context, url string) (string, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept-Language", "fr,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), resp.StatusCode, nil
}
