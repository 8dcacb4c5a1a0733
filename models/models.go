package models

import (
	"fmt"
	"strings"
	"time"
)

// GenericOrigin is the rule catalog key used when no origin-specific
// selector rule set exists for a page's host.
const GenericOrigin = "generic"

// FieldRule describes how to extract one field from a parsed document:
// a CSS selector (possibly a comma-separated union of alternatives) plus
// an optional attribute name. An empty Attr means "use the element's
// visible text"; a non-empty Attr means "use that attribute's value".
type FieldRule struct {
	Selector string `json:"css" yaml:"css"`
	Attr     string `json:"attr,omitempty" yaml:"attr,omitempty"`
}

// IsText returns true if the rule extracts the element's text content.
func (r FieldRule) IsText() bool {
	return r.Attr == ""
}

// IsEmpty returns true if the rule has no selector to evaluate.
func (r FieldRule) IsEmpty() bool {
	return strings.TrimSpace(r.Selector) == ""
}

// RuleSet holds the three field rules applicable to a single origin.
type RuleSet struct {
	Title    FieldRule `json:"title" yaml:"title"`
	Price    FieldRule `json:"price" yaml:"price"`
	Currency FieldRule `json:"currency" yaml:"currency"`
}

// ExtractionRecord is the normalized result of extracting one product
// page at one point in time. Price and Currency are absent (nil/empty)
// when the page did not yield them; a partially broken layout still
// produces a record.
type ExtractionRecord struct {
	URL      string   `json:"url"`
	Origin   string   `json:"domain"`
	Title    string   `json:"title"`
	Price    *float64 `json:"price"`
	Currency string   `json:"currency,omitempty"`
}

// HasPrice returns true if the record carries a numeric price.
func (r *ExtractionRecord) HasPrice() bool {
	return r.Price != nil
}

// GetPrice returns the price as float64, or 0 if absent.
func (r *ExtractionRecord) GetPrice() float64 {
	if r.Price != nil {
		return *r.Price
	}
	return 0.0
}

// Summary returns a short human-readable line for logging, with the
// title truncated the way the check log expects it.
func (r *ExtractionRecord) Summary() string {
	title := r.Title
	// Truncate on rune boundaries; titles carry accented characters
	// and a byte slice could cut one in half.
	if runes := []rune(title); len(runes) > 80 {
		title = string(runes[:80])
	}
	price := "n/a"
	if r.Price != nil {
		price = fmt.Sprintf("%.2f", *r.Price)
	}
	return strings.TrimSpace(fmt.Sprintf("%s — %s %s", title, price, r.Currency))
}

// HistoryEntry is one timestamped, persisted snapshot of an extraction
// record in the append-only history log. Entries are never mutated.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Origin    string    `json:"domain"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Price     *float64  `json:"price"`
	Currency  string    `json:"currency,omitempty"`
}

// TrackedURL is the API view of one monitored URL together with the
// most recent price recorded for it, if any.
type TrackedURL struct {
	URL       string   `json:"url"`
	LastPrice *float64 `json:"last_price"`
}

// AddURLRequest represents the request to add a new URL to track.
type AddURLRequest struct {
	URL string `json:"url"`
}
