package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mailforge/mailforge/models"
)

// fieldFunc is one pure extraction heuristic: document in, optional value out.
// Cascades are ordered slices of these combined with firstMatch, so each
// heuristic stays independently testable.
type fieldFunc func(doc *goquery.Document) (string, bool)

// firstMatch runs the cascade in order and returns the first hit.
func firstMatch(doc *goquery.Document, fns ...fieldFunc) (string, bool) {
	for _, fn := range fns {
		if v, ok := fn(doc); ok {
			return v, true
		}
	}
	return "", false
}

// selectorText extracts the trimmed text of the first element matching sel.
func selectorText(sel string) fieldFunc {
	return func(doc *goquery.Document) (string, bool) {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		return text, text != ""
	}
}

// metaContent extracts the content attribute of the first element matching sel.
func metaContent(sel string) fieldFunc {
	return func(doc *goquery.Document) (string, bool) {
		content := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", ""))
		return content, content != ""
	}
}

// titleCascade: semantic product-title selectors, then generic h1, then
// social meta tags, then the document title.
var titleCascade = []fieldFunc{
	selectorText("h1.product-title"),
	selectorText("h1[data-product-title]"),
	selectorText(".product-title h1"),
	selectorText("h1"),
	metaContent(`meta[property="og:title"]`),
	metaContent(`meta[name="twitter:title"]`),
	selectorText("title"),
}

var priceSelectors = []string{
	".price",
	".product-price",
	"[data-price]",
	".price-current",
	".sale-price",
	`[itemprop="price"]`,
	".cost",
	".amount",
}

// extractPrice tries each price selector; element text wins, with the
// data-price and content attributes as secondary sources. The result keeps
// only digits, commas, and periods.
func extractPrice(doc *goquery.Document) string {
	for _, sel := range priceSelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		raw := strings.TrimSpace(el.Text())
		if raw == "" {
			raw = el.AttrOr("data-price", "")
		}
		if raw == "" {
			raw = el.AttrOr("content", "")
		}
		if cleaned := cleanPrice(raw); cleaned != "" {
			return cleaned
		}
	}
	return ""
}

// cleanPrice strips everything except digits, commas, and periods.
func cleanPrice(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			return r
		}
		return -1
	}, raw)
	return strings.Trim(cleaned, ",.")
}

var descriptionSelectors = []string{
	".product-description",
	".description",
	"[data-product-description]",
	".product-details",
	".product-info",
	`[itemprop="description"]`,
}

var descriptionMetaSelectors = []string{
	`meta[property="og:description"]`,
	`meta[name="description"]`,
}

// minDescriptionLength rejects trivially short selector matches (e.g. a bare
// "Description" heading) so the meta fallback gets a chance.
const minDescriptionLength = 20

func extractDescription(doc *goquery.Document) string {
	for _, sel := range descriptionSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if len(text) > minDescriptionLength {
			return truncateDescription(text)
		}
	}
	for _, sel := range descriptionMetaSelectors {
		if content := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); content != "" {
			return truncateDescription(content)
		}
	}
	return ""
}

func truncateDescription(s string) string {
	if len(s) > models.DescriptionLimit {
		return s[:models.DescriptionLimit] + "..."
	}
	return s
}

var featureSelectors = []string{
	".product-features li",
	".features li",
	"[data-product-features] li",
	`[itemprop="description"] li`,
	".product-details li",
	".product-info li",
}

const (
	maxFeatures      = 10
	maxFeatureLength = 200
)

// extractFeatures collects bullet-point feature text. The first selector
// with any usable items wins; mixing lists from different page regions
// produces incoherent records.
func extractFeatures(doc *goquery.Document) []string {
	for _, sel := range featureSelectors {
		var features []string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.Join(strings.Fields(s.Text()), " ")
			if text == "" || len(text) > maxFeatureLength {
				return true
			}
			features = append(features, text)
			return len(features) < maxFeatures
		})
		if len(features) > 0 {
			return features
		}
	}
	return nil
}

// logoSelectors are biased toward header/nav regions and logo-flagged
// filenames or alt text; resolved first match wins.
var logoSelectors = []string{
	`header img[src*="logo"]`,
	`nav img[src*="logo"]`,
	"header .logo img",
	"img.logo",
	".logo img",
	`img[alt*="logo"]`,
	`img[src*="logo"]`,
}

func extractLogo(doc *goquery.Document, base *url.URL) string {
	for _, sel := range logoSelectors {
		src := doc.Find(sel).First().AttrOr("src", "")
		if abs, ok := resolveURL(base, src); ok {
			return abs
		}
	}
	// Favicon as the last resort.
	href := doc.Find(`link[rel~="icon"]`).First().AttrOr("href", "")
	if abs, ok := resolveURL(base, href); ok {
		return abs
	}
	return ""
}
