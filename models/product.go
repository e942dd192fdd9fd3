package models

// DescriptionLimit is the character budget for extracted product
// descriptions. Longer text is cut and suffixed with "...".
const DescriptionLimit = 500

// Image priority tiers. Lower sorts first.
const (
	ImagePriorityHero    = 1 // hero/main-image selectors, structured data
	ImagePriorityProduct = 2 // generic product-image selectors
	ImagePriorityGeneral = 3 // bare <img> fallback
)

// Product is the structured record extracted from a product page.
// All fields are best-effort; absent data leaves the zero value.
// Image and logo URLs are always absolute.
type Product struct {
	Title       string             `json:"title,omitempty"`
	Price       string             `json:"price,omitempty"`
	Description string             `json:"description,omitempty"`
	Features    []string           `json:"features,omitempty"`
	Logo        string             `json:"logo,omitempty"`
	Images      []ImageCandidate   `json:"images"`
	Structured  *StructuredProduct `json:"structured_data,omitempty"`
	URL         string             `json:"url"`
}

// ImageURLs returns just the image URLs, in candidate order.
func (p *Product) ImageURLs() []string {
	urls := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		urls = append(urls, img.URL)
	}
	return urls
}

// ImageCandidate is one scored product-image candidate.
//
// Ordering invariant: within an extraction pass candidates sort ascending by
// Priority, then ascending by Position (byte offset in the source HTML).
type ImageCandidate struct {
	URL              string `json:"url"`
	Priority         int    `json:"priority"`
	Context          string `json:"context"`
	Width            int    `json:"width,omitempty"`
	Height           int    `json:"height,omitempty"`
	InHero           bool   `json:"is_in_hero"`
	InProductSection bool   `json:"is_in_product_section"`
	EarlyInPage      bool   `json:"is_early_in_page"`
	Position         int    `json:"position"`
}

// StructuredProduct holds machine-readable product metadata extracted from
// JSON-LD blocks or platform-specific embedded JSON.
type StructuredProduct struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Images      []string `json:"images,omitempty"`
}
