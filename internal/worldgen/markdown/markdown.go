// Package markdown converts the constrained markdown subset the narrator
// emits into sanitized structural markup safe for direct display.
//
// Raw HTML in the input is escaped before any markdown syntax is
// interpreted, so narrator output can never inject executable markup. The
// only tags that survive are the ones this renderer itself produces, which
// keeps a second pass over rendered output behaviorally equivalent to the
// first.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// Pre-compiled patterns for the sanitizing pre-pass and list post-pass.
var (
	// structuralTagRegex matches exactly the markup vocabulary this
	// renderer emits; everything else gets escaped.
	structuralTagRegex = regexp.MustCompile(`</?(?:h[1-6]|p|em|strong|ul|ol|li)>|<br ?/?>`)

	// entityRegex matches character references that must not be
	// double-escaped on repeated runs.
	entityRegex = regexp.MustCompile(`&(?:[a-zA-Z][a-zA-Z0-9]{1,31}|#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6});`)

	siblingULRegex = regexp.MustCompile(`</ul>\s*<ul>`)
	siblingOLRegex = regexp.MustCompile(`</ol>\s*<ol>`)
)

// Renderer converts narrator markdown into sanitized structural markup.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a renderer for the supported markdown subset.
func NewRenderer() *Renderer {
	return &Renderer{
		// WithUnsafe is sound here: every tag reaching the parser has
		// survived the structural whitelist in escapeRawHTML.
		md: goldmark.New(
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render converts input to sanitized markup. Conversion failures fall back
// to the escaped input so no raw text path skips sanitization.
func (r *Renderer) Render(input string) string {
	escaped := escapeRawHTML(input)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(escaped), &buf); err != nil {
		return escaped
	}

	out := buf.String()
	out = mergeSiblingLists(out)
	return strings.TrimSpace(out)
}

// escapeRawHTML escapes HTML in the input while letting the renderer's own
// structural vocabulary pass through. Ampersands that already start a
// character reference are left alone so repeated escaping is a no-op.
func escapeRawHTML(input string) string {
	var protected []string
	input = structuralTagRegex.ReplaceAllStringFunc(input, func(tag string) string {
		index := len(protected)
		protected = append(protected, tag)
		return fmt.Sprintf("\x00tag%d\x00", index)
	})

	input = entityRegex.ReplaceAllStringFunc(input, func(entity string) string {
		index := len(protected)
		protected = append(protected, entity)
		return fmt.Sprintf("\x00tag%d\x00", index)
	})

	input = strings.ReplaceAll(input, "&", "&amp;")
	input = strings.ReplaceAll(input, "<", "&lt;")
	input = strings.ReplaceAll(input, ">", "&gt;")

	for index, value := range protected {
		input = strings.ReplaceAll(input, fmt.Sprintf("\x00tag%d\x00", index), value)
	}
	return input
}

// mergeSiblingLists joins adjacent lists of the same kind. Some narrator
// output emits a run of single-item sibling lists instead of one proper
// list; display treats the run as one list.
func mergeSiblingLists(markup string) string {
	markup = siblingULRegex.ReplaceAllString(markup, "")
	markup = siblingOLRegex.ReplaceAllString(markup, "")
	return markup
}
