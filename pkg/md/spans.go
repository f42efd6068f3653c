package md

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Types of the built-in span recognizers.
const (
	EscapeType            = "Escape"
	CodeSpanType          = "CodeSpan"
	AutoLinkType          = "AutoLink"
	FootnoteReferenceType = "FootnoteReference"
	ImageType             = "Image"
	LinkType              = "Link"
	StrikethroughType     = "Strikethrough"
	EmphasisType          = "Emphasis"
	LineBreakType         = "LineBreak"
	RawTextType           = "RawText"
	HTMLSpanType          = "HTMLSpan"
)

// DefaultSpanRecognizers returns the default span registry, in order. The
// escape recognizer is always first.
func DefaultSpanRecognizers() []*SpanRecognizer {
	return []*SpanRecognizer{
		EscapeRecognizer,
		CodeSpanRecognizer,
		AutoLinkRecognizer,
		FootnoteReferenceRecognizer,
		ImageRecognizer,
		LinkRecognizer,
		StrikethroughRecognizer,
		EmphasisRecognizer,
		LineBreakRecognizer,
	}
}

// DefaultFallback returns the default fallback recognizer, which turns text
// claimed by no other recognizer into RawText.
func DefaultFallback() *SpanRecognizer { return RawTextRecognizer }

// RawTextRecognizer is the default fallback.
var RawTextRecognizer = &SpanRecognizer{
	Type: RawTextType,
	Build: func(_ *SpanContext, m Match) Span {
		return &RawText{Content: m.Source()}
	},
}

// EscapeRecognizer recognizes a backslash followed by an ASCII punctuation
// character.
var EscapeRecognizer = &SpanRecognizer{
	Type: EscapeType,
	Find: func(text string, pos int) (Match, bool) {
		if text[pos] == '\\' && pos+1 < len(text) && isASCIIPunct(text[pos+1]) {
			return Match{End: pos + 2}, true
		}
		return Match{}, false
	},
	Build: func(_ *SpanContext, m Match) Span {
		return &Escape{Char: m.Text[m.Start+1]}
	},
}

// CodeSpanRecognizer recognizes code spans. A backquote run without a
// matching closer is claimed as raw text, so that a shorter run inside it
// cannot start a code span.
var CodeSpanRecognizer = &SpanRecognizer{
	Type: CodeSpanType,
	Find: func(text string, pos int) (Match, bool) {
		if text[pos] != '`' {
			return Match{}, false
		}
		end := pos
		for end < len(text) && text[end] == '`' {
			end++
		}
		run := text[pos:end]
		closer := findBacktickRun(text, run, end)
		if closer == -1 {
			return Match{End: end}, true
		}
		return Match{End: closer + len(run), Data: len(run)}, true
	},
	Build: func(_ *SpanContext, m Match) Span {
		n, ok := m.Data.(int)
		if !ok {
			return &RawText{Content: m.Source()}
		}
		src := m.Source()
		return &CodeSpan{Delimiter: src[:n], Raw: src[n : len(src)-n]}
	},
}

var (
	autoLinkRegexp = regexp.MustCompile(`^<` +
		`[a-zA-Z][a-zA-Z0-9+.-]{1,31}` + // scheme
		`:[^\x00-\x20<>]*` +
		`>`)
	emailAutoLinkRegexp = regexp.MustCompile(fmt.Sprintf(`^<[a-zA-Z0-9.!#$%%&'*+/=?^_%s{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*>`, "`"))
)

// AutoLinkRecognizer recognizes URIs and email addresses in angle brackets.
var AutoLinkRecognizer = &SpanRecognizer{
	Type: AutoLinkType,
	Find: func(text string, pos int) (Match, bool) {
		if text[pos] != '<' {
			return Match{}, false
		}
		if n := len(autoLinkRegexp.FindString(text[pos:])); n > 0 {
			return Match{End: pos + n}, true
		}
		if n := len(emailAutoLinkRegexp.FindString(text[pos:])); n > 0 {
			return Match{End: pos + n, Data: true}, true
		}
		return Match{}, false
	},
	Build: func(_ *SpanContext, m Match) Span {
		src := m.Source()
		return &AutoLink{Text: src[1 : len(src)-1], Email: m.Data == true}
	},
}

var footnoteReferenceRegexp = regexp.MustCompile(`^\[\^([^\]\s]+)\]`)

// FootnoteReferenceRecognizer recognizes footnote references like "[^1]".
// References are resolved by readers of the finished Document.
var FootnoteReferenceRecognizer = &SpanRecognizer{
	Type: FootnoteReferenceType,
	Find: func(text string, pos int) (Match, bool) {
		if text[pos] != '[' {
			return Match{}, false
		}
		if n := len(footnoteReferenceRegexp.FindString(text[pos:])); n > 0 {
			return Match{End: pos + n}, true
		}
		return Match{}, false
	},
	Build: func(_ *SpanContext, m Match) Span {
		src := m.Source()
		return &FootnoteReference{Label: src[2 : len(src)-1]}
	},
}

type linkMatch struct {
	// Index of the closing bracket of the link text.
	rbracket int
	form     LinkForm
	target   string
	title    string
	label    string
}

// Finds a link starting with the opening bracket at text[pos].
func findLink(text string, pos int) (Match, bool) {
	if text[pos] != '[' {
		return Match{}, false
	}
	rbracket := matchBracket(text, pos)
	if rbracket == -1 {
		return Match{}, false
	}
	lm := linkMatch{rbracket: rbracket}
	tail := text[rbracket+1:]
	switch {
	case strings.HasPrefix(tail, "("):
		if n, dest, title := parseLinkTail(tail); n != -1 {
			lm.form, lm.target, lm.title = InlineLink, dest, title
			return Match{End: rbracket + 1 + n, Data: lm}, true
		}
	case strings.HasPrefix(tail, "["):
		if j := strings.IndexAny(tail[1:], "[]"); j != -1 && tail[1+j] == ']' && j <= 999 {
			label := tail[1 : 1+j]
			if label == "" {
				lm.form, lm.label = CollapsedReference, text[pos+1:rbracket]
			} else {
				lm.form, lm.label = FullReference, label
			}
			if !IsBlank(lm.label) {
				return Match{End: rbracket + 2 + j + 1, Data: lm}, true
			}
		}
	}
	lm.form, lm.label = ShortcutReference, text[pos+1:rbracket]
	if IsBlank(lm.label) {
		return Match{}, false
	}
	return Match{End: rbracket + 1, Data: lm}, true
}

// Finds the bracket closing the one at text[pos], skipping escapes, code
// spans and autolinks. Returns -1 if there is none.
func matchBracket(text string, pos int) int {
	depth := 0
	for i := pos; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '`':
			end := i
			for end < len(text) && text[end] == '`' {
				end++
			}
			if closer := findBacktickRun(text, text[i:end], end); closer != -1 {
				i = closer + (end - i) - 1
			} else {
				i = end - 1
			}
		case '<':
			if n := len(autoLinkRegexp.FindString(text[i:])); n > 0 {
				i += n - 1
			}
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// LinkRecognizer recognizes inline links and the three forms of reference
// links. Reference links are resolved by readers of the finished Document.
var LinkRecognizer = &SpanRecognizer{
	Type: LinkType,
	Find: findLink,
	Build: func(ctx *SpanContext, m Match) Span {
		lm := m.Data.(linkMatch)
		return &Link{
			Content: ctx.Tokenize(m.Text[m.Start+1 : lm.rbracket]),
			Form:    lm.form,
			Target:  lm.target,
			Title:   lm.title,
			Label:   lm.label,
			Tail:    m.Text[lm.rbracket+1 : m.End],
		}
	},
}

// ImageRecognizer recognizes images, which are links preceded by "!".
var ImageRecognizer = &SpanRecognizer{
	Type: ImageType,
	Find: func(text string, pos int) (Match, bool) {
		if text[pos] != '!' || pos+1 == len(text) {
			return Match{}, false
		}
		return findLink(text, pos+1)
	},
	Build: func(ctx *SpanContext, m Match) Span {
		lm := m.Data.(linkMatch)
		return &Image{
			Content: ctx.Tokenize(m.Text[m.Start+2 : lm.rbracket]),
			Form:    lm.form,
			Target:  lm.target,
			Title:   lm.title,
			Label:   lm.label,
			Tail:    m.Text[lm.rbracket+1 : m.End],
		}
	},
}

// StrikethroughRecognizer recognizes text enclosed in "~~".
var StrikethroughRecognizer = &SpanRecognizer{
	Type: StrikethroughType,
	Find: func(text string, pos int) (Match, bool) {
		if !strings.HasPrefix(text[pos:], "~~") {
			return Match{}, false
		}
		if j := strings.Index(text[pos+2:], "~~"); j > 0 {
			return Match{End: pos + 2 + j + 2}, true
		}
		return Match{}, false
	},
	Build: func(ctx *SpanContext, m Match) Span {
		src := m.Source()
		return &Strikethrough{Content: ctx.Tokenize(src[2 : len(src)-2])}
	},
}

// EmphasisRecognizer recognizes runs of "*" and "_". The runs are paired up
// into Emphasis and Strong nodes after the whole text has been scanned;
// runs left unpaired become raw text.
var EmphasisRecognizer = &SpanRecognizer{
	Type: EmphasisType,
	Find: func(text string, pos int) (Match, bool) {
		c := text[pos]
		if c != '*' && c != '_' {
			return Match{}, false
		}
		end := pos
		for end < len(text) && text[end] == c {
			end++
		}
		return Match{End: end, Data: runFlanking(text, pos, end)}, true
	},
	Build: func(_ *SpanContext, m Match) Span {
		f := m.Data.(flanking)
		n := m.End - m.Start
		return &delimiterRun{
			char: m.Text[m.Start], n: n, orig: n,
			canOpen: f.canOpen, canClose: f.canClose,
		}
	},
}

// LineBreakRecognizer recognizes line endings. A line ending preceded by two
// or more spaces or by a backslash is a hard break.
var LineBreakRecognizer = &SpanRecognizer{
	Type: LineBreakType,
	Find: func(text string, pos int) (Match, bool) {
		i := pos
		switch text[i] {
		case ' ':
			for i < len(text) && text[i] == ' ' {
				i++
			}
		case '\\':
			i++
		}
		if i == len(text) || text[i] != '\n' {
			return Match{}, false
		}
		i++
		for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
			i++
		}
		return Match{End: i}, true
	},
	Build: func(_ *SpanContext, m Match) Span {
		src := m.Source()
		nl := strings.IndexByte(src, '\n')
		marker := src[:nl]
		return &LineBreak{
			Hard:   marker == `\` || len(marker) >= 2,
			Marker: marker,
			Indent: src[nl+1:],
		}
	},
}

var (
	openTagRegexp    = regexp.MustCompile(`^` + openTag)
	closingTagRegexp = regexp.MustCompile(`^` + closingTag)
)

// HTMLSpanRecognizer recognizes inline raw HTML: tags, comments,
// processing instructions, declarations and CDATA sections. It is not
// registered by default.
var HTMLSpanRecognizer = &SpanRecognizer{
	Type: HTMLSpanType,
	Find: func(text string, pos int) (Match, bool) {
		if text[pos] != '<' {
			return Match{}, false
		}
		rest := text[pos:]
		withCloser := func(opener, closer string) (Match, bool) {
			if !strings.HasPrefix(rest, opener) {
				return Match{}, false
			}
			i := strings.Index(rest[len(opener):], closer)
			if i == -1 {
				return Match{}, false
			}
			return Match{End: pos + len(opener) + i + len(closer)}, true
		}
		for _, pair := range [][2]string{
			{"<!--", "-->"}, {"<?", "?>"}, {"<![CDATA[", "]]>"},
		} {
			if m, ok := withCloser(pair[0], pair[1]); ok {
				return m, true
			}
		}
		if len(rest) > 2 && rest[1] == '!' && isASCIILetter(rest[2]) {
			return withCloser("<!", ">")
		}
		for _, re := range []*regexp.Regexp{openTagRegexp, closingTagRegexp} {
			if n := len(re.FindString(rest)); n > 0 {
				return Match{End: pos + n}, true
			}
		}
		return Match{}, false
	},
	Build: func(_ *SpanContext, m Match) Span {
		return &HTMLSpan{Content: m.Source()}
	},
}

func isASCIILetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

type linkTailParser struct {
	text string
	pos  int
}

// Parses the "(dest title)" part of an inline link. Returns the number of
// bytes consumed, or -1 if text doesn't start with a valid link tail.
func parseLinkTail(text string) (n int, dest, title string) {
	p := linkTailParser{text, 0}
	return p.parse()
}

func (p *linkTailParser) parse() (n int, dest, title string) {
	if len(p.text) < 2 || p.text[0] != '(' {
		return -1, "", ""
	}

	p.pos = 1
	p.skipWhitespaces()
	var destBuilder strings.Builder
	if p.pos < len(p.text) && p.text[p.pos] == '<' {
		p.pos++
		closed := false
	angleDest:
		for p.pos < len(p.text) {
			switch p.text[p.pos] {
			case '>':
				p.pos++
				closed = true
				break angleDest
			case '\n', '<':
				return -1, "", ""
			case '\\':
				destBuilder.WriteByte(p.parseBackslash())
			default:
				destBuilder.WriteByte(p.text[p.pos])
				p.pos++
			}
		}
		if !closed {
			return -1, "", ""
		}
	} else {
		parenBalance := 0
	bareDest:
		for p.pos < len(p.text) {
			if isASCIIControl(p.text[p.pos]) || p.text[p.pos] == ' ' {
				break
			}
			switch p.text[p.pos] {
			case '(':
				parenBalance++
				destBuilder.WriteByte('(')
				p.pos++
			case ')':
				if parenBalance == 0 {
					break bareDest
				}
				parenBalance--
				destBuilder.WriteByte(')')
				p.pos++
			case '\\':
				destBuilder.WriteByte(p.parseBackslash())
			default:
				destBuilder.WriteByte(p.text[p.pos])
				p.pos++
			}
		}
		if parenBalance != 0 {
			return -1, "", ""
		}
	}
	beforeTitle := p.pos
	p.skipWhitespaces()

	var titleBuilder strings.Builder
	if p.pos > beforeTitle && p.pos < len(p.text) && strings.ContainsRune("'\"(", rune(p.text[p.pos])) {
		opener := p.text[p.pos]
		closer := opener
		if closer == '(' {
			closer = ')'
		}
		p.pos++
		closed := false
	title:
		for p.pos < len(p.text) {
			switch p.text[p.pos] {
			case closer:
				p.pos++
				closed = true
				break title
			case opener:
				return -1, "", ""
			case '\\':
				titleBuilder.WriteByte(p.parseBackslash())
			default:
				titleBuilder.WriteByte(p.text[p.pos])
				p.pos++
			}
		}
		if !closed {
			return -1, "", ""
		}
	}

	p.skipWhitespaces()

	if p.pos == len(p.text) || p.text[p.pos] != ')' {
		return -1, "", ""
	}
	return p.pos + 1, html.UnescapeString(destBuilder.String()), html.UnescapeString(titleBuilder.String())
}

func (p *linkTailParser) skipWhitespaces() {
	for p.pos < len(p.text) && isWhitespace(p.text[p.pos]) {
		p.pos++
	}
}

func (p *linkTailParser) parseBackslash() byte {
	if p.pos+1 < len(p.text) && isASCIIPunct(p.text[p.pos+1]) {
		b := p.text[p.pos+1]
		p.pos += 2
		return b
	}
	p.pos++
	return '\\'
}
