// Package cleaner shrinks and converts HTML before it reaches a model:
// readability-based main-content reduction for tool results, HTML-to-Markdown
// conversion for uploaded guideline documents, and CSS-selector scoping for
// extraction requests.
package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum extracted text length (in characters) for
// readability output to be considered valid. Below this threshold we assume
// the algorithm failed to locate the main content.
const minContentLength = 50

// Cleaner holds the reusable Markdown converter (goroutine-safe).
type Cleaner struct {
	mdConverter *converter.Converter
}

// New initialises a Cleaner with a pre-configured Markdown converter.
func New() *Cleaner {
	return &Cleaner{mdConverter: newMarkdownConverter()}
}

// newMarkdownConverter builds a converter tuned for LLM input: the base
// plugin strips script/style/head noise, commonmark renders standard
// Markdown, and the table plugin keeps tabular structure with minimal cell
// padding to save tokens.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// Reduce runs the Mozilla Readability algorithm on rawHTML and returns the
// main-content HTML. ok is false when readability failed or extracted too
// little text; callers then fall back to the raw HTML.
func (c *Cleaner) Reduce(rawHTML, sourceURL string) (string, bool) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("cleaner: invalid source URL, skipping reduction",
			"url", sourceURL, "error", err,
		)
		return rawHTML, false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("cleaner: readability failed, skipping reduction",
			"url", sourceURL, "error", err,
		)
		return rawHTML, false
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		slog.Warn("cleaner: extracted content too short, skipping reduction",
			"url", sourceURL, "length", len(article.TextContent),
		)
		return rawHTML, false
	}

	return article.Content, true
}

// ToMarkdown converts an HTML document to Markdown. Used when a caller
// uploads HTML business/guideline documents instead of Markdown.
func (c *Cleaner) ToMarkdown(htmlContent string) (string, error) {
	return c.mdConverter.ConvertString(htmlContent)
}

// EstimateTokens provides a fast token count estimate without a tokenizer
// dependency. Heuristic: utf8 rune count / 3, a middle ground between
// English (~4 chars/token) and CJK (~1.5 chars/token) that slightly
// over-estimates.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := n / 3
	if est < 1 {
		return 1
	}
	return est
}
