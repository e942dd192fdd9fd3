package extractor

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mailforge/mailforge/models"
)

// imageSelector ties a CSS selector to its priority tier and a context tag
// recorded on every candidate it produces.
type imageSelector struct {
	selector string
	priority int
	context  string
}

// Tier 1: hero/main-image selectors, including Shopify and WooCommerce
// platform patterns.
var heroImageSelectors = []imageSelector{
	{".hero img", models.ImagePriorityHero, "hero-section"},
	{".product-hero img", models.ImagePriorityHero, "product-hero"},
	{".main-image", models.ImagePriorityHero, "main-image"},
	{"img[data-main-image]", models.ImagePriorityHero, "data-main-image"},
	{`img[data-product-image="main"]`, models.ImagePriorityHero, "main-product-image"},
	{".product__media img:first-child", models.ImagePriorityHero, "shopify-main"},
	{".product-single__media img:first-child", models.ImagePriorityHero, "shopify-main"},
	{".woocommerce-product-gallery img:first-child", models.ImagePriorityHero, "woocommerce-main"},
}

// Tier 2: generic product-image selectors.
var productImageSelectors = []imageSelector{
	{"img.product-image", models.ImagePriorityProduct, "product-image-class"},
	{"img[data-product-image]", models.ImagePriorityProduct, "data-product-image"},
	{".product-images img", models.ImagePriorityProduct, "product-images"},
	{".product-gallery img", models.ImagePriorityProduct, "product-gallery"},
	{`img[src*="product"]`, models.ImagePriorityProduct, "product-url"},
	{`img[alt*="product"]`, models.ImagePriorityProduct, "product-alt"},
	{"img.main-image", models.ImagePriorityProduct, "main-image-class"},
	{"img.primary-image", models.ImagePriorityProduct, "primary-image"},
	{".product__media img", models.ImagePriorityProduct, "shopify-media"},
	{".product-single__media img", models.ImagePriorityProduct, "shopify-single"},
}

// lazySrcAttrs are the src attribute fallbacks for lazy-loaded images.
var lazySrcAttrs = []string{"src", "data-src", "data-lazy-src", "data-original"}

const heroAncestors = ".hero, .product-hero, .banner, .hero-section"
const productAncestors = ".product, .product-details, .product-info, [data-product]"

// extractImages runs the three-tier cascade. The bare-<img> fallback only
// runs when tiers 1-2 produced nothing. Candidates are deduplicated by
// resolved absolute URL, sorted (priority asc, position asc), and capped.
func extractImages(doc *goquery.Document, rawHTML string, base *url.URL, opts Options) []models.ImageCandidate {
	var candidates []models.ImageCandidate
	seen := make(map[string]struct{})
	denylist := opts.denylist()

	collect := func(sel imageSelector) {
		doc.Find(sel.selector).Each(func(_ int, s *goquery.Selection) {
			src := firstAttr(s, lazySrcAttrs)
			if src == "" {
				return
			}
			abs, ok := resolveURL(base, src)
			if !ok {
				return
			}
			if _, dup := seen[abs]; dup {
				return
			}
			if deniedImage(s, src, denylist) {
				return
			}

			position := strings.Index(rawHTML, src)
			candidates = append(candidates, models.ImageCandidate{
				URL:              abs,
				Priority:         sel.priority,
				Context:          sel.context,
				Width:            attrInt(s, "width", "data-width"),
				Height:           attrInt(s, "height", "data-height"),
				InHero:           s.Closest(heroAncestors).Length() > 0,
				InProductSection: s.Closest(productAncestors).Length() > 0,
				EarlyInPage:      position >= 0 && position < len(rawHTML)*3/10,
				Position:         position,
			})
			seen[abs] = struct{}{}
		})
	}

	for _, sel := range heroImageSelectors {
		collect(sel)
	}
	for _, sel := range productImageSelectors {
		collect(sel)
	}

	// Tier 3 fallback: bare <img>, absolute URLs only.
	if len(candidates) == 0 {
		doc.Find("img").Each(func(_ int, s *goquery.Selection) {
			src := firstAttr(s, []string{"src", "data-src"})
			if src == "" || !strings.HasPrefix(src, "http") {
				return
			}
			if _, dup := seen[src]; dup {
				return
			}
			if deniedImage(s, src, denylist) {
				return
			}
			candidates = append(candidates, models.ImageCandidate{
				URL:      src,
				Priority: models.ImagePriorityGeneral,
				Context:  "general-fallback",
				Position: strings.Index(rawHTML, src),
			})
			seen[src] = struct{}{}
		})
	}

	sortCandidates(candidates)
	if cap := opts.imageCap(); len(candidates) > cap {
		candidates = candidates[:cap]
	}
	if candidates == nil {
		candidates = []models.ImageCandidate{}
	}
	return candidates
}

// deniedImage reports whether the image's src, alt, or class text contains
// any denylist term.
func deniedImage(s *goquery.Selection, src string, denylist []string) bool {
	srcLower := strings.ToLower(src)
	altLower := strings.ToLower(s.AttrOr("alt", ""))
	classLower := strings.ToLower(s.AttrOr("class", ""))
	for _, term := range denylist {
		if strings.Contains(srcLower, term) ||
			strings.Contains(altLower, term) ||
			strings.Contains(classLower, term) {
			return true
		}
	}
	return false
}

func firstAttr(s *goquery.Selection, attrs []string) string {
	for _, attr := range attrs {
		if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}

func attrInt(s *goquery.Selection, attrs ...string) int {
	for _, attr := range attrs {
		if v := s.AttrOr(attr, ""); v != "" {
			if n, err := strconv.Atoi(strings.TrimSuffix(v, "px")); err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}
