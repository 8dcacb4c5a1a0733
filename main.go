package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pricewatch/config"
	"pricewatch/handlers"
	"pricewatch/middleware"
	"pricewatch/notifier"
	"pricewatch/repository"
	"pricewatch/scheduler"
	"pricewatch/scraper"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	flag.StringVar(&cfg.URLsFile, "urls", cfg.URLsFile, "file with one product URL per line (created on first run)")
	flag.StringVar(&cfg.SelectorsFile, "selectors", cfg.SelectorsFile, "per-origin selector overrides, JSON or YAML")
	flag.StringVar(&cfg.OutDir, "outdir", cfg.OutDir, "output directory (history.csv inside)")
	flag.StringVar(&cfg.WebhookURL, "webhook", cfg.WebhookURL, "Discord webhook for price drop alerts")
	flag.DurationVar(&cfg.Interval, "interval", cfg.Interval, "repeat every interval, e.g. 30m (0 = single pass)")
	flag.StringVar(&cfg.Listen, "listen", cfg.Listen, "HTTP API listen address, e.g. :8080 (empty = disabled)")
	flag.BoolVar(&cfg.NoPrompt, "no-prompt", cfg.NoPrompt, "skip interactive setup questions (CI)")
	flag.Parse()

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// First-run scaffolding for the URL list
	urlRepo := repository.NewURLRepository(cfg.URLsFile)
	if err := urlRepo.EnsureFile(!cfg.NoPrompt, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("Failed to prepare urls file: %v", err)
	}

	webhook := ensureWebhook(cfg, os.Stdin, os.Stdout)

	// Selector rule catalog: built-in defaults plus optional overrides
	catalog, err := config.LoadSelectorCatalog(cfg.SelectorsFile)
	if err != nil {
		log.Fatalf("Failed to load selector catalog: %v", err)
	}

	historyRepo := repository.NewHistoryRepository(cfg.OutDir)
	fetcher := scraper.NewFetcher(cfg.FetchTimeout)
	extractor := scraper.NewPageExtractor(catalog)
	notify := notifier.NewDiscordNotifier(webhook)
	if !notify.Enabled() {
		log.Println("ℹ️  No webhook configured, price drop alerts are disabled")
	}

	checker := scheduler.NewPriceChecker(urlRepo, historyRepo, fetcher, extractor, notify, cfg.Interval)

	if cfg.Interval > 0 {
		checker.Start()
		defer checker.Stop()
	} else {
		checker.CheckAll()
	}

	if cfg.Listen != "" {
		serveAPI(cfg, urlRepo, historyRepo, checker)
		return
	}

	if cfg.Interval > 0 {
		log.Printf("⏱️  Monitoring every %s. CTRL+C to quit.", cfg.Interval)
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("👋 Stop.")
	}
}

// ensureWebhook resolves the alert webhook: the CLI/env value wins and
// is persisted, otherwise the stored file is used, otherwise the user
// is asked once and the answer saved (empty disables alerts).
func ensureWebhook(cfg *config.AppConfig, in io.Reader, out io.Writer) string {
	if cfg.WebhookURL != "" {
		wh := strings.TrimSpace(cfg.WebhookURL)
		if err := os.WriteFile(cfg.WebhookFile, []byte(wh), 0o644); err != nil {
			log.Printf("⚠️  Failed to save webhook file: %v", err)
		}
		return wh
	}

	if content, err := os.ReadFile(cfg.WebhookFile); err == nil {
		if wh := strings.TrimSpace(string(content)); wh != "" {
			return wh
		}
	}

	if cfg.NoPrompt {
		return ""
	}

	fmt.Fprintln(out, "🔔 (Optional) Discord webhook for price drop alerts.")
	fmt.Fprint(out, "→ Paste your webhook (or leave empty to disable): ")
	scanner := bufio.NewScanner(in)
	wh := ""
	if scanner.Scan() {
		wh = strings.TrimSpace(scanner.Text())
	}
	if err := os.WriteFile(cfg.WebhookFile, []byte(wh), 0o644); err != nil {
		log.Printf("⚠️  Failed to save webhook file: %v", err)
	}
	if wh != "" {
		fmt.Fprintf(out, "✅ Webhook saved to %s\n", cfg.WebhookFile)
	} else {
		fmt.Fprintln(out, "ℹ️  No webhook: alerts disabled.")
	}
	return wh
}

// serveAPI exposes the tracked URLs, history and manual checks over
// HTTP and blocks until the server exits.
func serveAPI(cfg *config.AppConfig, urlRepo *repository.URLRepository, historyRepo *repository.HistoryRepository, checker *scheduler.PriceChecker) {
	h := handlers.NewHandlers(urlRepo, historyRepo, checker)

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimit))
	r.Use(middleware.APIKeyMiddleware(cfg.APIKey))

	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/status", getStatus(urlRepo, historyRepo)).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/urls", h.GetTrackedURLs).Methods("GET")
	apiV1.HandleFunc("/urls", h.AddURLToTrack).Methods("POST")
	apiV1.HandleFunc("/urls/history", h.GetPriceHistory).Methods("GET")
	apiV1.HandleFunc("/check", h.CheckNow).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	})

	log.Printf("🌐 API listening on %s", cfg.Listen)
	log.Printf("   GET  /health - Health check")
	log.Printf("   GET  /status - Tracker status")
	log.Printf("   GET  /api/v1/urls - Tracked URLs with last prices")
	log.Printf("   POST /api/v1/urls - Track a new URL")
	log.Printf("   GET  /api/v1/urls/history - Price history")
	log.Printf("   POST /api/v1/check - Check all prices now")
	log.Fatal(http.ListenAndServe(cfg.Listen, c.Handler(r)))
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":   "pricewatch",
		"status":    "healthy",
		"timestamp": time.Now(),
		"endpoints": map[string]string{
			"health":  "/health",
			"status":  "/status",
			"urls":    "/api/v1/urls",
			"history": "/api/v1/urls/history",
			"check":   "/api/v1/check",
		},
	})
}

func getStatus(urlRepo *repository.URLRepository, historyRepo *repository.HistoryRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		urls, err := urlRepo.List()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read tracked URLs"})
			return
		}

		withPrices := 0
		for _, u := range urls {
			if last, err := historyRepo.LastPrice(u); err == nil && last != nil {
				withPrices++
			}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"timestamp":        time.Now(),
			"total_urls":       len(urls),
			"urls_with_prices": withPrices,
			"history_file":     historyRepo.Path(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
