package scraper

import (
	"net/url"
	"strings"

	"pricewatch/config"
	"pricewatch/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/currency"
)

// PageExtractor composes rule resolution, field extraction and price
// parsing into one best-effort pass over a parsed product page. It
// holds no mutable state and is safe for concurrent use as long as
// callers do not share document instances.
type PageExtractor struct {
	catalog *config.SelectorCatalog
	parser  *PriceParser
}

// NewPageExtractor creates a page extractor backed by the given
// selector catalog.
func NewPageExtractor(catalog *config.SelectorCatalog) *PageExtractor {
	return &PageExtractor{
		catalog: catalog,
		parser:  NewPriceParser(),
	}
}

// Extract produces the extraction record for one page. It never fails:
// missing or malformed fields degrade to absent values so a partially
// broken layout still yields a usable record.
//
// The currency is reconciled from two competing signals: a sign or
// token inside the price text wins over a separately extracted
// currency field, since the price text is co-located with the actual
// number. A currency field value only survives if it is a real ISO 4217
// code after upper-casing.
func (pe *PageExtractor) Extract(pageURL string, doc *goquery.Document) models.ExtractionRecord {
	origin := OriginOf(pageURL)
	rules := pe.catalog.Resolve(origin)

	title, _ := ExtractField(doc, rules.Title)
	priceRaw, _ := ExtractField(doc, rules.Price)

	currencyRaw := ""
	currencyFound := false
	if !rules.Currency.IsEmpty() {
		currencyRaw, currencyFound = ExtractField(doc, rules.Currency)
	}

	price, hint := pe.parser.Parse(priceRaw)

	code := hint
	if code == "" && currencyFound {
		candidate := strings.ToUpper(strings.TrimSpace(currencyRaw))
		if _, err := currency.ParseISO(candidate); err == nil {
			code = candidate
		}
	}

	return models.ExtractionRecord{
		URL:      pageURL,
		Origin:   origin,
		Title:    title,
		Price:    price,
		Currency: code,
	}
}

// OriginOf returns the lowercase host of a URL, the key used for rule
// catalog lookups. An unparseable URL yields an empty origin, which
// resolves to the generic rule set.
func OriginOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
