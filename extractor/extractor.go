// Package extractor turns raw product-page HTML into a structured
// models.Product using cascades of CSS selectors, a prioritized image
// scorer, and best-effort embedded-JSON parsers. It is fully synchronous
// and never fails: malformed or missing fields produce partial records.
package extractor

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mailforge/mailforge/models"
)

// DefaultDenylist contains substrings that mark an image as non-product
// (matched against src, alt, and class, lower-cased).
var DefaultDenylist = []string{
	"logo", "icon", "avatar", "thumbnail", "badge", "flag",
	"pixel", "tracking", "spacer",
}

// Options tunes one extraction pass.
type Options struct {
	// ImageCap limits the returned image candidates. <= 0 means 15.
	ImageCap int

	// Denylist overrides DefaultDenylist when non-nil.
	Denylist []string
}

func (o Options) imageCap() int {
	if o.ImageCap <= 0 {
		return 15
	}
	return o.ImageCap
}

func (o Options) denylist() []string {
	if o.Denylist != nil {
		return o.Denylist
	}
	return DefaultDenylist
}

// Extract parses rawHTML fetched from sourceURL into a Product.
//
// All image and logo URLs are resolved to absolute URLs against sourceURL
// before being handed downstream. The function never returns an error;
// fields that cannot be extracted stay empty.
func Extract(rawHTML, sourceURL string, opts Options) *models.Product {
	product := &models.Product{URL: sourceURL, Images: []models.ImageCandidate{}}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return product
	}

	base, err := url.Parse(sourceURL)
	if err != nil {
		base = nil
	}

	product.Title, _ = firstMatch(doc, titleCascade...)
	product.Price = extractPrice(doc)
	product.Description = extractDescription(doc)
	product.Features = extractFeatures(doc)
	product.Logo = extractLogo(doc, base)
	product.Images = extractImages(doc, rawHTML, base, opts)

	// Structured data fills whatever the selector cascades missed, and its
	// images rank ahead of anything found in markup.
	if sd, ok := extractStructuredData(doc); ok {
		product.Structured = sd
		mergeStructured(product, sd, base, opts)
	}
	if pj, ok := extractPlatformProduct(doc); ok {
		if product.Structured == nil {
			product.Structured = pj
		}
		mergeStructured(product, pj, base, opts)
	}

	return product
}

// mergeStructured copies structured-data fields into still-empty Product
// fields and injects structured images as tier-1 candidates.
func mergeStructured(p *models.Product, sd *models.StructuredProduct, base *url.URL, opts Options) {
	if p.Title == "" {
		p.Title = sd.Name
	}
	if p.Description == "" && sd.Description != "" {
		p.Description = truncateDescription(sd.Description)
	}
	if p.Price == "" {
		p.Price = cleanPrice(sd.Price)
	}

	if len(sd.Images) == 0 {
		return
	}

	seen := make(map[string]struct{}, len(p.Images))
	for _, img := range p.Images {
		seen[img.URL] = struct{}{}
	}

	injected := make([]models.ImageCandidate, 0, len(sd.Images))
	for _, raw := range sd.Images {
		abs, ok := resolveURL(base, raw)
		if !ok {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		injected = append(injected, models.ImageCandidate{
			URL:      abs,
			Priority: models.ImagePriorityHero,
			Context:  "structured-data",
			Position: -1, // sorts ahead of any markup position
		})
	}

	p.Images = append(injected, p.Images...)
	sortCandidates(p.Images)
	if cap := opts.imageCap(); len(p.Images) > cap {
		p.Images = p.Images[:cap]
	}
}

// sortCandidates orders by priority ascending, then position ascending.
// The sort is stable so equal candidates keep their discovery order.
func sortCandidates(images []models.ImageCandidate) {
	sort.SliceStable(images, func(i, j int) bool {
		if images[i].Priority != images[j].Priority {
			return images[i].Priority < images[j].Priority
		}
		return images[i].Position < images[j].Position
	})
}

// resolveURL resolves raw against base, returning an absolute http(s) URL.
// Protocol-relative URLs get https. Returns false for unusable inputs.
func resolveURL(base *url.URL, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	if base == nil {
		if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
			return raw, true
		}
		return "", false
	}
	resolved, err := base.Parse(raw)
	if err != nil {
		return "", false
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}
