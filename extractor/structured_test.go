package extractor

import (
	"testing"
)

func TestExtractPlatformProductFlaggedScript(t *testing.T) {
	html := `<html><head>
<script type="application/json" data-product-json>
{"title":"Platform Widget","vendor":"Acme","featured_image":"https://cdn.example.com/feat.jpg","images":["https://cdn.example.com/feat.jpg","https://cdn.example.com/alt1.jpg"]}
</script>
</head><body></body></html>`

	p := Extract(html, "https://shop.example.com/p/w", Options{})
	if p.Structured == nil {
		t.Fatal("Structured = nil")
	}
	if p.Structured.Name != "Platform Widget" {
		t.Errorf("Name = %q", p.Structured.Name)
	}
	if p.Structured.Brand != "Acme" {
		t.Errorf("Brand = %q", p.Structured.Brand)
	}
	// Featured image first, duplicate removed.
	if len(p.Structured.Images) != 2 {
		t.Fatalf("len(Images) = %d, want 2: %v", len(p.Structured.Images), p.Structured.Images)
	}
	if p.Structured.Images[0] != "https://cdn.example.com/feat.jpg" {
		t.Errorf("Images[0] = %q, want featured image", p.Structured.Images[0])
	}
}

func TestExtractPlatformProductVarMeta(t *testing.T) {
	html := `<html><body>
<script>
var meta = {"product":{"title":"Meta Widget","vendor":"MetaCo","images":["https://cdn.example.com/m1.jpg"]}};
var other = 1;
</script>
</body></html>`

	p := Extract(html, "https://shop.example.com/p/m", Options{})
	if p.Structured == nil {
		t.Fatal("Structured = nil")
	}
	if p.Structured.Name != "Meta Widget" {
		t.Errorf("Name = %q", p.Structured.Name)
	}
	if p.Title != "Meta Widget" {
		t.Errorf("Title = %q, want filled from platform JSON", p.Title)
	}
}

func TestExtractPlatformProductIgnoresBrokenJSON(t *testing.T) {
	html := `<html><body>
<script>var meta = {"product": {broken;</script>
</body></html>`

	p := Extract(html, "https://example.com", Options{})
	if p.Structured != nil {
		t.Errorf("Structured = %+v, want nil for broken JSON", p.Structured)
	}
}

func TestBalancedObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		start int
		want  string
		ok    bool
	}{
		{"simple", `x = {"a":1};`, 0, `{"a":1}`, true},
		{"nested", `{"a":{"b":2}}`, 0, `{"a":{"b":2}}`, true},
		{"brace inside string", `{"a":"}"}`, 0, `{"a":"}"}`, true},
		{"escaped quote", `{"a":"\"}"}`, 0, `{"a":"\"}"}`, true},
		{"unterminated", `{"a":1`, 0, "", false},
		{"no object", `nothing here`, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := balancedObject(tt.input, tt.start)
			if ok != tt.ok || got != tt.want {
				t.Errorf("balancedObject(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestStringField(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "  hello  ", "hello"},
		{"integer float", float64(20), "20"},
		{"fractional float", 19.99, "19.99"},
		{"nil", nil, ""},
		{"bool", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stringField(tt.in); got != tt.want {
				t.Errorf("stringField(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
