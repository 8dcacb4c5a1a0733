package scraper

import (
	"strings"

	"pricewatch/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ParseDocument builds a queryable document from raw page markup. It
// never fails: goquery is the primary parser, and if it rejects the
// input the markup is re-parsed with the lenient x/net/html parser,
// which accepts arbitrarily malformed HTML. The worst case is an empty
// document where every selector misses.
func ParseDocument(markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err == nil {
		return doc
	}

	node, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		node = &html.Node{Type: html.DocumentNode}
	}
	return goquery.NewDocumentFromNode(node)
}

// ExtractField evaluates a field rule against a parsed document and
// returns the matched value, or ok=false when the field is absent.
//
// The rule's selector may be a comma-separated union of alternatives;
// alternatives are tried left to right and the first one with any match
// wins, taking its first matching node in document order. For an
// attribute rule the attribute's trimmed value is returned, and a node
// without the attribute yields absence rather than falling back to
// text. For a text rule the node's text is whitespace-collapsed and
// trimmed. An empty result after trimming counts as absent.
func ExtractField(doc *goquery.Document, rule models.FieldRule) (string, bool) {
	if rule.IsEmpty() {
		return "", false
	}

	for _, alt := range splitSelectorList(rule.Selector) {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}

		sel := doc.Find(alt).First()
		if sel.Length() == 0 {
			continue
		}

		if !rule.IsText() {
			value, ok := sel.Attr(rule.Attr)
			if !ok {
				return "", false
			}
			value = strings.TrimSpace(value)
			return value, value != ""
		}

		text := collapseWhitespace(sel.Text())
		return text, text != ""
	}

	return "", false
}

// splitSelectorList splits a selector union on its top-level commas.
// Commas inside quoted attribute values or bracketed/parenthesized
// groups belong to a single alternative and are left alone, so
// override files may use selectors like [data-label='a,b'].
func splitSelectorList(selector string) []string {
	var (
		parts []string
		start int
		depth int
		quote byte
	)
	for i := 0; i < len(selector); i++ {
		c := selector[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			parts = append(parts, selector[start:i])
			start = i + 1
		}
	}
	return append(parts, selector[start:])
}

// collapseWhitespace folds every run of whitespace, newlines included,
// into a single space and trims the ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
