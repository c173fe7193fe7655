package main

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	stripPolicy = bluemonday.StrictPolicy()

	bodyPolicy = bluemonday.NewPolicy().AllowElements(
		"p", "br", "ul", "ol", "li", "strong", "b", "i", "em",
		"h1", "h2", "h3", "h4", "h5", "h6",
	)
)

// stripHTML removes every tag and attribute from s and returns plain text.
// Entities are decoded because templates escape on output; decoding can
// expose markup that was entity-encoded, so stripping repeats until the text
// is stable and stripHTML(stripHTML(s)) == stripHTML(s).
func stripHTML(s string) string {
	for {
		next := html.UnescapeString(stripPolicy.Sanitize(s))
		if next == s {
			return s
		}
		s = next
	}
}

// renderMarkdown converts a post body to HTML limited to basic formatting
// elements.
func renderMarkdown(s string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(strings.TrimSpace(bodyPolicy.Sanitize(buf.String())))
}
