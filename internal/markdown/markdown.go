package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var md goldmark.Markdown

func init() {
	md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
}

// Render converts markdown to HTML. Raw HTML in the input is not passed
// through, so user-supplied names cannot inject markup.
func Render(content string) string {
	if content == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return ""
	}
	return buf.String()
}

// Inline renders a single line and drops the wrapping paragraph, for
// status text shown inside an existing element.
func Inline(content string) string {
	out := strings.TrimSpace(Render(content))
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = out[len("<p>") : len(out)-len("</p>")]
	}
	return out
}

// Escape backslash-escapes markdown punctuation so s renders literally.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune("\\`*_{}[]()<>#+-.!|~\"'&", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Bold escapes s and wraps it in strong emphasis.
func Bold(s string) string {
	if s == "" {
		return ""
	}
	return "**" + Escape(s) + "**"
}
