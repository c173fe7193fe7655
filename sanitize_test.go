package main

import (
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello", "hello"},
		{"tags removed", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"attributes removed", `<img src="x" onerror="alert(1)">caption`, "caption"},
		{"script dropped with content", "a<script>alert(1)</script>b", "ab"},
		{"style dropped with content", "<style>p{}</style>text", "text"},
		{"entities decoded", "Tom &amp; Jerry", "Tom & Jerry"},
		{"bare angle bracket kept", "1 < 2", "1 < 2"},
		{"quotes kept", `say "hi" it's`, `say "hi" it's`},
		{"empty", "", ""},
		{"encoded tags", "&lt;b&gt;Hi&lt;/b&gt;", "Hi"},
		{"encoded script", "&lt;script&gt;alert(1)&lt;/script&gt;", ""},
		{"double encoded script", "&amp;lt;script&amp;gt;", ""},
		{"bare angle bracket before a letter starts a tag", "x<y", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripHTML(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, stripHTML(got), "stripping must be stable")
		})
	}
}

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  template.HTML
	}{
		{"single paragraph", "Hello world", "<p>Hello world</p>"},
		{"two paragraphs", "First paragraph\n\nSecond paragraph", "<p>First paragraph</p>\n<p>Second paragraph</p>"},
		{"italics", "This is *italic* text", "<p>This is <em>italic</em> text</p>"},
		{"bold", "This is **bold** text", "<p>This is <strong>bold</strong> text</p>"},
		{"heading", "# Title", "<h1>Title</h1>"},
		{"list", "- one\n- two", "<ul>\n<li>one</li>\n<li>two</li>\n</ul>"},
		{"links lose the anchor", "[site](http://example.com)", "<p>site</p>"},
		{"images removed", "![alt](http://example.com/x.png)", "<p></p>"},
		{"unmatched asterisk preserved", "This has a * single asterisk", "<p>This has a * single asterisk</p>"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderMarkdown(tt.input))
		})
	}
}

func TestRenderMarkdown_NoActiveContent(t *testing.T) {
	inputs := []string{
		"<script>alert('xss')</script>",
		`<a href="javascript:alert(1)">x</a>`,
		"[x](javascript:alert(1))",
		`<div onclick="alert(1)">x</div>`,
	}
	for _, in := range inputs {
		got := string(renderMarkdown(in))
		assert.NotContains(t, got, "<script", in)
		assert.NotContains(t, got, "javascript:", in)
		assert.NotContains(t, got, "onclick", in)
		assert.NotContains(t, got, "<a ", in)
	}
}
