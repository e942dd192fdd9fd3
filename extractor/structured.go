package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mailforge/mailforge/models"
)

// extractStructuredData parses every <script type="application/ld+json">
// block and returns the first JSON-LD node whose @type includes "Product".
// This stage is best-effort: parse failures skip the block silently.
func extractStructuredData(doc *goquery.Document) (*models.StructuredProduct, bool) {
	var result *models.StructuredProduct

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var node any
		if err := json.Unmarshal([]byte(s.Text()), &node); err != nil {
			return true // continue
		}
		if product, ok := findProductNode(node); ok {
			result = product
			return false // stop
		}
		return true
	})

	return result, result != nil
}

// findProductNode walks a decoded JSON-LD value: a single object, a
// top-level array, or an object with a @graph array.
func findProductNode(node any) (*models.StructuredProduct, bool) {
	switch v := node.(type) {
	case map[string]any:
		if isProductType(v["@type"]) {
			return parseProductNode(v), true
		}
		if graph, ok := v["@graph"].([]any); ok {
			return findProductNode(graph)
		}
	case []any:
		for _, item := range v {
			if p, ok := findProductNode(item); ok {
				return p, true
			}
		}
	}
	return nil, false
}

// isProductType accepts "@type": "Product" as a string or inside an array.
func isProductType(t any) bool {
	switch v := t.(type) {
	case string:
		return strings.Contains(v, "Product")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.Contains(s, "Product") {
				return true
			}
		}
	}
	return false
}

func parseProductNode(node map[string]any) *models.StructuredProduct {
	sp := &models.StructuredProduct{
		Name:        stringField(node["name"]),
		Description: stringField(node["description"]),
		Images:      imageList(node["image"]),
	}

	switch brand := node["brand"].(type) {
	case string:
		sp.Brand = brand
	case map[string]any:
		sp.Brand = stringField(brand["name"])
	}

	// Offers may be a single object or an array; take the first with a price.
	offers := node["offers"]
	if arr, ok := offers.([]any); ok && len(arr) > 0 {
		offers = arr[0]
	}
	if offer, ok := offers.(map[string]any); ok {
		sp.Price = stringField(offer["price"])
		sp.Currency = stringField(offer["priceCurrency"])
	}
	if sp.Price == "" {
		sp.Price = stringField(node["price"])
	}

	return sp
}

// stringField renders a JSON-LD scalar as a string; numbers lose no precision
// because they arrive as float64 from encoding/json.
func stringField(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%.2f", s)
	}
	return ""
}

func imageList(v any) []string {
	switch img := v.(type) {
	case string:
		if img != "" {
			return []string{img}
		}
	case []any:
		urls := make([]string, 0, len(img))
		for _, item := range img {
			switch u := item.(type) {
			case string:
				urls = append(urls, u)
			case map[string]any:
				if s := stringField(u["url"]); s != "" {
					urls = append(urls, s)
				}
			}
		}
		return urls
	case map[string]any:
		if s := stringField(img["url"]); s != "" {
			return []string{s}
		}
	}
	return nil
}

// platformImageCap bounds how many gallery images platform JSON contributes.
const platformImageCap = 5

// extractPlatformProduct scans inline <script> bodies for embedded product
// JSON: the `var meta = {...}` assignment pattern, a generic
// `"product":{..."variants":...}` fragment, and JSON script tags flagged as
// product data. Best-effort; any parse failure skips that script.
func extractPlatformProduct(doc *goquery.Document) (*models.StructuredProduct, bool) {
	var result *models.StructuredProduct

	// JSON script tags explicitly flagged as product data.
	doc.Find(`script[type="application/json"][data-product-json], script[type="application/json"][id*="Product"]`).
		EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if sp, ok := parsePlatformJSON(s.Text()); ok {
				result = sp
				return false
			}
			return true
		})
	if result != nil {
		return result, true
	}

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		body := s.Text()

		if idx := strings.Index(body, "var meta ="); idx >= 0 {
			if obj, ok := balancedObject(body, idx); ok {
				if sp, ok := parsePlatformJSON(obj); ok {
					result = sp
					return false
				}
			}
		}

		if idx := strings.Index(body, `"product":`); idx >= 0 {
			if obj, ok := balancedObject(body, idx); ok && strings.Contains(obj, `"variants"`) {
				if sp, ok := parsePlatformJSON(obj); ok {
					result = sp
					return false
				}
			}
		}

		return true
	})

	return result, result != nil
}

// platformProduct mirrors the embedded JSON shapes the two platform patterns
// produce. Only the fields the extractor consumes are declared.
type platformProduct struct {
	Product *platformProduct `json:"product"`

	Title         string   `json:"title"`
	Vendor        string   `json:"vendor"`
	FeaturedImage string   `json:"featured_image"`
	Images        []string `json:"images"`
}

// parsePlatformJSON decodes an embedded product object, accepting both the
// bare product shape and a wrapper with a "product" key. Returns false on
// any decode failure: this stage never propagates errors.
func parsePlatformJSON(raw string) (*models.StructuredProduct, bool) {
	var pp platformProduct
	if err := json.Unmarshal([]byte(raw), &pp); err != nil {
		return nil, false
	}
	if pp.Product != nil {
		pp = *pp.Product
	}

	images := make([]string, 0, platformImageCap+1)
	if pp.FeaturedImage != "" {
		images = append(images, pp.FeaturedImage)
	}
	for _, img := range pp.Images {
		if len(images) >= platformImageCap+1 {
			break
		}
		if img != "" && img != pp.FeaturedImage {
			images = append(images, img)
		}
	}

	if pp.Title == "" && len(images) == 0 {
		return nil, false
	}

	return &models.StructuredProduct{
		Name:   pp.Title,
		Brand:  pp.Vendor,
		Images: images,
	}, true
}

// balancedObject returns the first balanced {...} span at or after start,
// respecting JSON string literals and escapes.
func balancedObject(s string, start int) (string, bool) {
	open := strings.Index(s[start:], "{")
	if open < 0 {
		return "", false
	}
	open += start

	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[open : i+1], true
			}
		}
	}
	return "", false
}
