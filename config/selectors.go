package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pricewatch/models"

	"gopkg.in/yaml.v3"
)

// SelectorCatalog maps an origin (lowercase host) to the selector rule
// set used to extract title, price and currency from that origin's
// pages. The catalog is built once at startup and is read-only after
// that; the "generic" entry is always present.
type SelectorCatalog struct {
	rules map[string]models.RuleSet
}

// DefaultSelectors returns the built-in rule sets. The generic entry
// leans on schema.org/OpenGraph markup that most shops carry; the named
// origins use site-specific selectors where the generic markup is
// missing or misleading.
func DefaultSelectors() map[string]models.RuleSet {
	return map[string]models.RuleSet{
		models.GenericOrigin: {
			Title: models.FieldRule{Selector: "meta[property='og:title'], h1"},
			Price: models.FieldRule{
				Selector: "[itemprop='price'], meta[property='product:price:amount'], .price, .product-price, [data-price]",
				Attr:     "content",
			},
			Currency: models.FieldRule{
				Selector: "meta[property='product:price:currency'], [itemprop='priceCurrency']",
				Attr:     "content",
			},
		},
		"www.fnac.com": {
			Title: models.FieldRule{Selector: "h1"},
			Price: models.FieldRule{Selector: "[data-test='price'] .f-priceBox-price, .f-priceBox-price"},
			// No dedicated currency marker; the sign inside the price text carries it.
			Currency: models.FieldRule{},
		},
		"www.cdiscount.com": {
			Title:    models.FieldRule{Selector: "h1"},
			Price:    models.FieldRule{Selector: ".fpPrice.price, .jsMainPrice"},
			Currency: models.FieldRule{},
		},
	}
}

// NewSelectorCatalog builds a catalog from the built-in defaults
// overlaid with the given overrides. Override entries fully replace the
// default entry for the same origin; origins missing from the overlay
// keep their defaults, so the generic entry can never be lost.
func NewSelectorCatalog(overrides map[string]models.RuleSet) *SelectorCatalog {
	rules := DefaultSelectors()
	for origin, set := range overrides {
		rules[strings.ToLower(origin)] = set
	}
	return &SelectorCatalog{rules: rules}
}

// LoadSelectorCatalog builds the catalog, reading overrides from path
// when it is non-empty. JSON and YAML files are both accepted, decided
// by extension. A missing override file is not an error; a present but
// unreadable one is.
func LoadSelectorCatalog(path string) (*SelectorCatalog, error) {
	if path == "" {
		return NewSelectorCatalog(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSelectorCatalog(nil), nil
		}
		return nil, fmt.Errorf("failed to read selectors file: %w", err)
	}

	overrides := make(map[string]models.RuleSet)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("failed to parse selectors file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("failed to parse selectors file %s: %w", path, err)
		}
	}

	return NewSelectorCatalog(overrides), nil
}

// Resolve returns the rule set for the given origin, falling back to
// the generic entry when no origin-specific one exists. It never fails:
// the generic entry is guaranteed by construction.
func (c *SelectorCatalog) Resolve(origin string) models.RuleSet {
	if set, ok := c.rules[strings.ToLower(origin)]; ok {
		return set
	}
	return c.rules[models.GenericOrigin]
}

// Origins returns the origins the catalog has dedicated rules for,
// including the generic entry.
func (c *SelectorCatalog) Origins() []string {
	origins := make([]string, 0, len(c.rules))
	for origin := range c.rules {
		origins = append(origins, origin)
	}
	return origins
}
