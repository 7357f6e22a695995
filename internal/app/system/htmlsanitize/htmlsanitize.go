// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the shared sanitization policy for author-supplied HTML
// (event bodies, sponsor blurbs). Built once at init; bluemonday
// policies are safe for concurrent use.
var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	// UGCPolicy already covers text formatting, lists, headings, links
	// (with rel="nofollow"), images with http/https sources, and code
	// blocks. Extend it for table layouts used in event descriptions.
	p.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption")
	p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("style").OnElements("table", "tr", "th", "td")
	p.AllowElements("u", "s", "sub", "sup", "mark", "hr")

	return p
}

// Sanitize strips unsafe markup from HTML, keeping a rich-text subset.
func Sanitize(input string) string {
	if input == "" {
		return ""
	}
	return policy.Sanitize(input)
}

// IsPlainText reports whether s contains no HTML tags.
func IsPlainText(s string) bool {
	lt := strings.IndexByte(s, '<')
	if lt == -1 {
		return true
	}
	return strings.IndexByte(s[lt:], '>') == -1
}

// PlainTextToHTML escapes plain text and wraps it in a paragraph, with
// newlines converted to <br>. Used when rendering capture-form messages
// inside HTML email bodies.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}
