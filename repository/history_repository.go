package repository

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"pricewatch/models"
)

// historyTimeLayout matches the capture instants written to the log:
// UTC, second precision, no zone suffix.
const historyTimeLayout = "2006-01-02T15:04:05"

// historyHeader is the fixed header row of the history log.
var historyHeader = []string{"timestamp", "domain", "url", "title", "price", "currency"}

// HistoryRepository persists extraction records to an append-only CSV
// log. Rows are never rewritten or deleted; the latest matching row
// wins for lookups. A mutex serializes writers within the process, the
// file itself stays human-readable and greppable.
type HistoryRepository struct {
	path string
	mu   sync.Mutex
}

// NewHistoryRepository creates a repository writing to
// <outDir>/history.csv.
func NewHistoryRepository(outDir string) *HistoryRepository {
	return &HistoryRepository{path: filepath.Join(outDir, "history.csv")}
}

// Path returns the location of the underlying log file.
func (r *HistoryRepository) Path() string {
	return r.path
}

// Append writes one record to the end of the log, creating the file
// and its header on first use. An absent price serializes as an empty
// field.
func (r *HistoryRepository) Append(record models.ExtractionRecord, capturedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	_, statErr := os.Stat(r.path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(historyHeader); err != nil {
			return fmt.Errorf("failed to write history header: %w", err)
		}
	}

	price := ""
	if record.Price != nil {
		price = strconv.FormatFloat(*record.Price, 'f', -1, 64)
	}

	row := []string{
		capturedAt.UTC().Format(historyTimeLayout),
		record.Origin,
		record.URL,
		record.Title,
		price,
		record.Currency,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to append history row: %w", err)
	}

	w.Flush()
	return w.Error()
}

// LastPrice returns the most recently appended non-empty price for the
// given URL, or nil when the log has none. Later rows win, so repeated
// captures of the same URL always compare against the freshest value.
func (r *HistoryRepository) LastPrice(url string) (*float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var last *float64
	err := r.scan(func(entry models.HistoryEntry) {
		if entry.URL == url && entry.Price != nil {
			last = entry.Price
		}
	})
	if err != nil {
		return nil, err
	}
	return last, nil
}

// History returns entries for the given URL, newest last, capped at
// limit when limit is positive. An empty URL returns all entries.
func (r *HistoryRepository) History(url string, limit int) ([]models.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []models.HistoryEntry
	err := r.scan(func(entry models.HistoryEntry) {
		if url == "" || entry.URL == url {
			entries = append(entries, entry)
		}
	})
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// scan streams the log through fn in file order. A missing log file is
// an empty history, not an error. Short or malformed rows are skipped;
// the log is append-only, so one bad row must not hide the rest.
func (r *HistoryRepository) scan(fn func(models.HistoryEntry)) error {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read history log: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(row) < len(historyHeader) {
			continue
		}

		entry := models.HistoryEntry{
			Origin:   row[1],
			URL:      row[2],
			Title:    row[3],
			Currency: row[5],
		}
		if ts, err := time.Parse(historyTimeLayout, row[0]); err == nil {
			entry.Timestamp = ts.UTC()
		}
		if row[4] != "" {
			if price, err := strconv.ParseFloat(row[4], 64); err == nil {
				entry.Price = &price
			}
		}
		fn(entry)
	}
}
