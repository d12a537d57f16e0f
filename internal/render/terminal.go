package render

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fatih/color"
)

// Terminal renders message text for an ANSI terminal with highlighted code blocks.
type Terminal struct {
	// StyleName is the chroma style, e.g. "monokai"
	StyleName string
	// Colors disables all escape codes when false
	Colors bool

	inline *color.Color
	label  *color.Color
	gutter *color.Color
}

// NewTerminal creates a terminal renderer using the named chroma style.
func NewTerminal(styleName string, colors bool) *Terminal {
	t := &Terminal{
		StyleName: styleName,
		Colors:    colors,
		inline:    color.New(color.FgCyan),
		label:     color.New(color.FgHiBlack, color.Bold),
		gutter:    color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{t.inline, t.label, t.gutter} {
		if colors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

// Rendered is terminal output plus the code blocks that can be copied from it.
type Rendered struct {
	Text       string
	CodeBlocks []CodeBlock
}

// Render formats content. Code blocks are numbered from 1 in the order they appear.
func (t *Terminal) Render(content string) Rendered {
	content = Sanitize(content)

	var out Rendered
	var b strings.Builder

	for _, seg := range Split(content) {
		if !seg.IsCode {
			b.WriteString(t.prose(seg.Text))
			continue
		}

		out.CodeBlocks = append(out.CodeBlocks, CodeBlock{Language: seg.Language, Code: seg.Text})
		if s := b.String(); s != "" && !strings.HasSuffix(s, "\n") {
			b.WriteString("\n")
		}
		b.WriteString(t.codeBlock(len(out.CodeBlocks), seg.Language, seg.Text))
	}

	out.Text = strings.TrimRight(b.String(), "\n")
	return out
}

func (t *Terminal) prose(s string) string {
	return inlineCodePattern.ReplaceAllStringFunc(s, func(m string) string {
		return t.inline.Sprint(m[1 : len(m)-1])
	})
}

func (t *Terminal) codeBlock(n int, language, code string) string {
	title := fmt.Sprintf("[%d]", n)
	if language != "" {
		title += " " + language
	}
	title += "  (/copy " + fmt.Sprint(n) + ")"

	var b strings.Builder
	b.WriteString(t.label.Sprint(title))
	b.WriteString("\n")

	lines := strings.Split(t.highlight(code, language), "\n")
	for i, line := range lines {
		b.WriteString(t.gutter.Sprintf("%4d │ ", i+1))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// highlight returns code with ANSI syntax colors, or unchanged when highlighting fails
func (t *Terminal) highlight(code, language string) string {
	if !t.Colors {
		return code
	}

	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(t.StyleName)
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}

	return strings.TrimRight(buf.String(), "\n")
}
