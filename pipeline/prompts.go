package pipeline

import (
	"fmt"
	"strings"

	"github.com/mailforge/mailforge/models"
)

const outputContract = "\n\nReturn ONLY the complete HTML starting with <!DOCTYPE html> and ending with </html>. No markdown, no code blocks, no explanations."

// buildGeneratePrompt is the prompt for the template-free endpoint.
func buildGeneratePrompt(productURL, customPrompt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a beautiful promotional ecommerce email for this product: %s", productURL)
	if custom := strings.TrimSpace(customPrompt); custom != "" {
		fmt.Fprintf(&b, "\n\nAdditional instructions: %s", custom)
	}
	b.WriteString(outputContract)
	return b.String()
}

// buildTemplatePrompt merges the product URL and HTML template into one
// generation prompt, shared by every single-model strategy.
func buildTemplatePrompt(productURL, emailTemplate, customPrompt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create an ecommerce promotional email for this product: %s using the following email template as inspiration and structure:\n\n%s",
		strings.TrimSpace(productURL), strings.TrimSpace(emailTemplate))
	if custom := strings.TrimSpace(customPrompt); custom != "" {
		fmt.Fprintf(&b, "\n\nAdditional instructions: %s", custom)
	}
	b.WriteString(outputContract)
	return b.String()
}

// buildExtractionPrompt asks a model to fetch the page and return a JSON
// product record.
func buildExtractionPrompt(productURL string) string {
	return fmt.Sprintf(`Extract product information from this URL: %s

Please fetch the page and extract the following information in JSON format:
{
  "title": "Product title",
  "price": "Product price",
  "description": "Product description",
  "images": ["image_url_1", "image_url_2", ...],
  "features": ["feature1", "feature2", ...],
  "url": "%s"
}

IMPORTANT:
- Convert all image URLs to absolute URLs (full https:// URLs)
- Extract the main product image first
- Include all relevant product images
- Return ONLY valid JSON, no markdown, no code blocks`, productURL, productURL)
}

// buildRefinementPrompt asks a cheap model to clean a heuristically
// extracted record, using per-image context hints to pick the hero image.
func buildRefinementPrompt(raw *models.Product, productURL string) string {
	var images strings.Builder
	for i, img := range raw.Images {
		if i > 0 {
			images.WriteString("\n\n")
		}
		fmt.Fprintf(&images, "[%d] %s\n     Context: %s", i, img.URL, imageContext(img))
	}

	desc := raw.Description
	if len(desc) > 200 {
		desc = desc[:200] + "..."
	}

	features := "none found"
	if len(raw.Features) > 0 {
		features = strings.Join(raw.Features, "; ")
	}

	return fmt.Sprintf(`Review and refine this extracted product data from %s:

Product Data:
- Title: %s
- Price: %s
- Description: %s
- Features: %s

Images Found (%d total):
%s

CRITICAL INSTRUCTIONS FOR IMAGE PRIORITIZATION:
1. The MAIN HERO/PRODUCT IMAGE should be FIRST in the images array
2. Prioritize images with:
   - HIGH PRIORITY (priority 1) - these were found using hero/main selectors
   - "in hero section" - these are in the hero area
   - "appears early in page" - main images appear before description
   - Large width (>500px) - main product images are typically large
   - Context containing "hero", "main", "primary", "shopify-main", "woocommerce-main"
3. EXCLUDE images that are:
   - Thumbnails (small width, <300px)
   - Logos or icons
   - Not product-related
4. Keep only the TOP 5 images (main hero + 4 best product images)
5. Convert any remaining relative URLs to absolute URLs (base: %s)

Please:
1. Validate all fields are present and reasonable
2. Prioritize main product hero image FIRST (use context clues above)
3. Clean price formatting (ensure it's a valid price format like "$XX.XX")
4. Improve description if it's too short or unclear (keep under 500 chars)
5. Ensure title is clean and readable

Return ONLY valid JSON in this exact format:
{
  "title": "Product title",
  "price": "Product price",
  "description": "Product description",
  "images": ["main_hero_image_url", "product_image_2", "product_image_3", "product_image_4", "product_image_5"],
  "url": "%s"
}

No markdown, no code blocks, no explanations.`,
		productURL, raw.Title, raw.Price, desc, features, len(raw.Images), images.String(), productURL, productURL)
}

// imageContext renders one candidate's hints for the refinement model.
func imageContext(img models.ImageCandidate) string {
	var hints []string
	if img.Priority == models.ImagePriorityHero {
		hints = append(hints, "HIGH PRIORITY (hero/main selector)")
	}
	if img.InHero {
		hints = append(hints, "in hero section")
	}
	if img.InProductSection {
		hints = append(hints, "in product section")
	}
	if img.EarlyInPage {
		hints = append(hints, "appears early in page")
	}
	if img.Width > 500 {
		hints = append(hints, fmt.Sprintf("large (%dpx wide)", img.Width))
	}
	if img.Context != "" {
		hints = append(hints, "found via: "+img.Context)
	}
	if len(hints) == 0 {
		return "general image"
	}
	return strings.Join(hints, ", ")
}

// buildGenerationPrompt fills the template from an already-extracted record.
// productJSON is the pretty-printed product data.
func buildGenerationPrompt(emailTemplate, productJSON, customPrompt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Create an ecommerce promotional email using the following email template structure and the provided product data.

Email Template:
%s

Product Data:
%s`, emailTemplate, productJSON)
	if custom := strings.TrimSpace(customPrompt); custom != "" {
		fmt.Fprintf(&b, "\n\nAdditional Instructions: %s", custom)
	}
	b.WriteString(`

Return ONLY the complete HTML starting with <!DOCTYPE html> and ending with </html>.
- Use the product data to fill in the template
- Replace product titles, prices, images, and descriptions with the extracted data
- Preserve the template's structure and styling
- No markdown, no code blocks, no explanations`)
	return b.String()
}

const textEmailFormat = `Generate a complete plain text email including the Subject line at the top.
Format the output exactly like this:
Subject: [Your subject line here]

[Email body here]

The email should be ready to copy and paste directly into an email client.`

// buildTextEmailInput flattens all documents into one responses-API input.
func buildTextEmailInput(businessInfo, guidelines, systemPrompt, userPrompt string) string {
	var b strings.Builder
	if sys := strings.TrimSpace(systemPrompt); sys != "" {
		fmt.Fprintf(&b, "## Instructions\n%s\n\n", sys)
	}
	fmt.Fprintf(&b, "## Business Context (RAG Data)\n%s\n\n", strings.TrimSpace(businessInfo))
	fmt.Fprintf(&b, "## Email Guidelines & Templates\n%s\n\n", strings.TrimSpace(guidelines))
	fmt.Fprintf(&b, "## Your Task\n%s\n\n", strings.TrimSpace(userPrompt))
	b.WriteString(textEmailFormat)
	return b.String()
}

// buildTextEmailMessages splits the documents into a system/user pair for
// chat-completions backends.
func buildTextEmailMessages(businessInfo, guidelines, systemPrompt, userPrompt string) (system, user string) {
	var b strings.Builder
	b.WriteString("You are an expert email copywriter. Your task is to generate high-quality, personalized emails.\n\n")
	if sys := strings.TrimSpace(systemPrompt); sys != "" {
		fmt.Fprintf(&b, "## Additional Instructions\n%s\n\n", sys)
	}
	fmt.Fprintf(&b, "## Business Context (RAG Data)\n%s\n\n", strings.TrimSpace(businessInfo))
	fmt.Fprintf(&b, "## Email Guidelines & Templates\n%s\n\n", strings.TrimSpace(guidelines))
	b.WriteString(textEmailFormat)
	return b.String(), strings.TrimSpace(userPrompt)
}
