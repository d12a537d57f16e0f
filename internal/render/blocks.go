package render

import (
	"strings"
)

// Segment is a run of message text, either prose or a fenced code block.
type Segment struct {
	Text     string
	IsCode   bool
	Language string
}

// CodeBlock is a fenced block extracted from a message.
type CodeBlock struct {
	Language string
	Code     string
}

// Split breaks raw content into prose and fenced code segments, in order.
// Fence matching follows the same rules as Markup.
func Split(content string) []Segment {
	var segments []Segment
	last := 0
	for _, m := range fencedBlockPattern.FindAllStringSubmatchIndex(content, -1) {
		if m[0] > last {
			segments = append(segments, Segment{Text: content[last:m[0]]})
		}
		seg := Segment{Text: content[m[4]:m[5]], IsCode: true}
		if m[2] >= 0 {
			seg.Language = CypherLanguage
		}
		segments = append(segments, seg)
		last = m[1]
	}
	if last < len(content) {
		segments = append(segments, Segment{Text: content[last:]})
	}
	return segments
}

// CodeBlocks returns the fenced blocks of content in order.
func CodeBlocks(content string) []CodeBlock {
	var blocks []CodeBlock
	for _, seg := range Split(content) {
		if seg.IsCode {
			blocks = append(blocks, CodeBlock{Language: seg.Language, Code: seg.Text})
		}
	}
	return blocks
}

// Sanitize neutralizes terminal escape sequences embedded in remote content
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == 0x1b:
			return '␛'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}
