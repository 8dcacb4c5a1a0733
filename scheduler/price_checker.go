package scheduler

import (
	"fmt"
	"log"
	"math"
	"time"

	"pricewatch/notifier"
	"pricewatch/repository"
	"pricewatch/scraper"

	"github.com/robfig/cron/v3"
)

// PriceChecker runs the fetch → extract → record → alert pass over all
// tracked URLs, either once or on a fixed interval via cron.
type PriceChecker struct {
	cron      *cron.Cron
	urls      *repository.URLRepository
	history   *repository.HistoryRepository
	fetcher   *scraper.Fetcher
	extractor *scraper.PageExtractor
	notifier  *notifier.DiscordNotifier
	interval  time.Duration
}

// NewPriceChecker wires the checker from its collaborators. An
// interval of zero means the checker only runs on demand (CheckAll /
// CheckNow); Start then schedules nothing.
func NewPriceChecker(
	urls *repository.URLRepository,
	history *repository.HistoryRepository,
	fetcher *scraper.Fetcher,
	extractor *scraper.PageExtractor,
	notify *notifier.DiscordNotifier,
	interval time.Duration,
) *PriceChecker {
	return &PriceChecker{
		cron:      cron.New(),
		urls:      urls,
		history:   history,
		fetcher:   fetcher,
		extractor: extractor,
		notifier:  notify,
		interval:  interval,
	}
}

// Start schedules the recurring check and runs one pass immediately.
func (pc *PriceChecker) Start() {
	if pc.interval <= 0 {
		return
	}

	_, err := pc.cron.AddFunc(fmt.Sprintf("@every %s", pc.interval), func() { pc.CheckAll() })
	if err != nil {
		log.Printf("Failed to schedule price checker: %v", err)
		return
	}

	// Also run immediately on startup.
	go pc.CheckAll()

	pc.cron.Start()
	log.Printf("⏱️  Price checker scheduled every %s", pc.interval)
}

// Stop stops the scheduled checking.
func (pc *PriceChecker) Stop() {
	if pc.cron != nil {
		pc.cron.Stop()
	}
}

// CheckNow triggers an asynchronous pass, used by the HTTP API.
func (pc *PriceChecker) CheckNow() {
	log.Println("Manual price check triggered")
	go pc.CheckAll()
}

// CheckAll checks every tracked URL sequentially and returns how many
// succeeded. A fetch failure is logged and isolated to its URL; nothing
// in a pass is fatal to the run.
func (pc *PriceChecker) CheckAll() int {
	urls, err := pc.urls.List()
	if err != nil {
		log.Printf("Failed to read tracked URLs: %v", err)
		return 0
	}
	if len(urls) == 0 {
		log.Printf("⚠️  %s is empty, add some URLs", pc.urls.Path())
		return 0
	}

	log.Printf("Checking prices for %d URLs", len(urls))

	ok := 0
	for _, url := range urls {
		if err := pc.checkURL(url); err != nil {
			log.Printf("⚠️  %s -> %v", url, err)
			continue
		}
		ok++
	}
	return ok
}

// checkURL runs the pipeline for a single URL. The previous price is
// read before the new record is appended so a drop is detected against
// the freshest prior value.
func (pc *PriceChecker) checkURL(url string) error {
	markup, err := pc.fetcher.Fetch(url)
	if err != nil {
		return err
	}

	doc := scraper.ParseDocument(markup)
	record := pc.extractor.Extract(url, doc)

	previous, err := pc.history.LastPrice(url)
	if err != nil {
		return err
	}

	if err := pc.history.Append(record, time.Now()); err != nil {
		return err
	}

	log.Printf("✅ %s: %s", record.Origin, record.Summary())

	if previous != nil && record.Price != nil && *record.Price < *previous {
		delta := math.Round((*previous-*record.Price)*100) / 100
		log.Printf("📉 Price DROPPED for %s: %.2f → %.2f (-%.2f)", url, *previous, *record.Price, delta)
		pc.notifier.Notify(
			"📉 Price drop detected",
			fmt.Sprintf("[%s](%s)\nBefore: **%.2f** → Now: **%.2f** (%s)\nDiff: **-%.2f**",
				record.Title, record.URL, *previous, *record.Price, record.Currency, delta),
		)
	}
	return nil
}
