// Package sanitize extracts clean HTML documents from model output.
// Models wrap generated emails in markdown fences or surround them with
// commentary; these helpers recover the document itself.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlFenceRe  = regexp.MustCompile("(?is)```html\\s*(.*?)```")
	plainFenceRe = regexp.MustCompile("(?is)```\\s*(.*?)```")
	docSpanRe    = regexp.MustCompile(`(?is)<!DOCTYPE\s+html.*</html>`)
)

// ExtractHTML strips fences and commentary from model output, preferring
// in order: an ```html fence, the document span inside a plain fence,
// a bare DOCTYPE..</html> span, and finally the trimmed input.
func ExtractHTML(raw string) string {
	if m := htmlFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := plainFenceRe.FindStringSubmatch(raw); m != nil {
		// Commentary inside the fence is dropped; only the document survives.
		if span := docSpanRe.FindString(m[1]); span != "" {
			return strings.TrimSpace(span)
		}
	}
	if span := docSpanRe.FindString(raw); span != "" {
		return strings.TrimSpace(span)
	}
	return strings.TrimSpace(raw)
}

var (
	anyTagRe    = regexp.MustCompile(`(?is)<[a-z][\s\S]*>`)
	docStructRe = regexp.MustCompile(`(?i)<!DOCTYPE\s+html|<html`)
)

// ValidTemplate reports whether s is usable as an email template: it must
// contain HTML tags plus either a DOCTYPE declaration or an <html> root.
func ValidTemplate(s string) bool {
	return anyTagRe.MatchString(s) && docStructRe.MatchString(s)
}

// LooksLikeHTML reports whether content plausibly contains an HTML
// document or fragment.
func LooksLikeHTML(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "<!doctype html") ||
		strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<body") ||
		strings.Contains(lower, "<table")
}
