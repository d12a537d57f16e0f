// Package render turns message text into display forms: HTML markup and highlighted terminal output.
package render

import (
	"html"
	"regexp"
	"strings"
)

// CypherLanguage is the fence tag that marks a query block
const CypherLanguage = "cypher"

var (
	fencedBlockPattern = regexp.MustCompile("```(" + CypherLanguage + ")?\n([\\s\\S]*?)\n```")
	inlineCodePattern  = regexp.MustCompile("`([^`]+)`")
)

// Markup escapes content and converts fenced blocks, inline code and newlines to HTML.
// Escaping happens before any pattern matching, so markup in content is never interpreted.
// Newlines inside fenced blocks are kept as-is; elsewhere they become <br>.
func Markup(content string) string {
	escaped := html.EscapeString(content)

	var b strings.Builder
	last := 0
	for _, m := range fencedBlockPattern.FindAllStringSubmatchIndex(escaped, -1) {
		b.WriteString(markupText(escaped[last:m[0]]))

		code := escaped[m[4]:m[5]]
		if m[2] >= 0 {
			writeCodeBlock(&b, CypherLanguage, code)
		} else {
			writeCodeBlock(&b, "", code)
		}
		last = m[1]
	}
	b.WriteString(markupText(escaped[last:]))

	return b.String()
}

func markupText(s string) string {
	s = inlineCodePattern.ReplaceAllString(s, "<code>$1</code>")
	return strings.ReplaceAll(s, "\n", "<br>")
}

// writeCodeBlock emits a code block with a copy action. code must already be escaped.
func writeCodeBlock(b *strings.Builder, language, code string) {
	if language != "" {
		b.WriteString(`<div class="code-block ` + language + `">`)
		b.WriteString(`<div class="code-label">` + strings.ToUpper(language) + `</div>`)
		b.WriteString(`<pre><code class="language-` + language + `">` + code + `</code></pre>`)
	} else {
		b.WriteString(`<div class="code-block">`)
		b.WriteString(`<pre><code>` + code + `</code></pre>`)
	}
	b.WriteString(`<button class="copy-btn" data-copy="` + code + `">Copy</button>`)
	b.WriteString(`</div>`)
}
