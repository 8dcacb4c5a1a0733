package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

// CurrencySign maps a symbol or token found inside price text to its
// ISO 4217 code.
type CurrencySign struct {
	Sign string
	Code string
}

// currencySigns is scanned in order; the first sign contained in the
// raw text wins. Order matters: it is a fixed priority list, not a map.
var currencySigns = []CurrencySign{
	{Sign: "€", Code: "EUR"},
	{Sign: "$", Code: "USD"},
	{Sign: "£", Code: "GBP"},
	{Sign: "CHF", Code: "CHF"},
}

// nonNumeric matches every character that plays no role in the numeric
// value: everything except digits, comma, period and minus.
var nonNumeric = regexp.MustCompile(`[^\d,.\-]`)

// PriceParser turns raw, locale-ambiguous price text into a numeric
// value and a currency hint. Product pages mix conventions like
// "1.234,56 €" and "$1,234.56" without declaring a locale, so the
// parser uses the rightmost-separator-wins heuristic: when both comma
// and period are present, whichever appears last is the decimal
// separator and the other one is a thousands separator.
type PriceParser struct{}

// NewPriceParser creates a new price parser.
func NewPriceParser() *PriceParser {
	return &PriceParser{}
}

// Parse extracts a numeric price and a currency hint from raw text.
// The returned price is nil when no number could be parsed; the hint is
// empty when no known currency sign appears in the text. A hint can be
// returned even when the number cannot.
func (p *PriceParser) Parse(raw string) (*float64, string) {
	txt := strings.TrimSpace(raw)
	if txt == "" {
		return nil, ""
	}

	hint := ""
	for _, sign := range currencySigns {
		if strings.Contains(txt, sign.Sign) {
			hint = sign.Code
			break
		}
	}

	cleaned := nonNumeric.ReplaceAllString(txt, "")
	cleaned = normalizeSeparators(cleaned)

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, hint
	}
	return &value, hint
}

// normalizeSeparators rewrites a digits string with ambiguous comma and
// period usage into canonical decimal form using the
// rightmost-separator-wins rule: a comma to the right of every period
// is the decimal separator ("1.234,56" -> "1234.56"), otherwise periods
// win and commas group thousands ("1,234.56" -> "1234.56"). With three
// or more period-separated segments, all but the last group thousands.
// A single separator is read as decimal, a deliberate, possibly lossy
// default for inherently ambiguous inputs like "1.234".
func normalizeSeparators(digits string) string {
	lastComma := strings.LastIndex(digits, ",")
	lastPeriod := strings.LastIndex(digits, ".")

	if lastComma >= 0 && lastComma > lastPeriod {
		// European style: periods group thousands, the comma is decimal.
		digits = strings.ReplaceAll(digits, ".", "")
		return strings.ReplaceAll(digits, ",", ".")
	}

	parts := strings.Split(digits, ".")
	if len(parts) > 2 {
		// Every period but the last groups thousands: "1.234.567.89" -> "1234567.89".
		head := strings.ReplaceAll(strings.Join(parts[:len(parts)-1], ""), ",", "")
		return head + "." + parts[len(parts)-1]
	}
	return strings.ReplaceAll(digits, ",", "")
}
