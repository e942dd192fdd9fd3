package fetcher

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// extractTitle pulls the <title> content from raw HTML bytes with a
// streaming tokenizer, so diagnostics carry a page title without a full
// document parse.
func extractTitle(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				if tokenizer.Next() == html.TextToken {
					return strings.TrimSpace(string(tokenizer.Text()))
				}
				return ""
			}
		}
	}
}
