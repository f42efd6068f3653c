package md

import (
	"strings"
	"unicode/utf8"
)

// SpanRecognizer describes an inline construct.
type SpanRecognizer struct {
	// Type names the construct. It identifies the recognizer in a registry.
	Type string
	// Find reports whether the construct starts at text[pos:]. A match must
	// start at pos and end after it. Find may be nil for a fallback.
	Find func(text string, pos int) (Match, bool)
	// Build turns a match into a node. It may return nil to drop the
	// matched text.
	Build func(ctx *SpanContext, m Match) Span
}

// Match is a range of text claimed by a span recognizer.
type Match struct {
	Text       string
	Start, End int
	// Data carries information from Find to Build.
	Data any
}

// Source returns the matched text.
func (m Match) Source() string { return m.Text[m.Start:m.End] }

// SpanContext is passed to Build.
type SpanContext struct {
	Session *Session
	// Document is the Document being parsed, or nil when tokenizing inline
	// text outside of Parse.
	Document *Document
}

// Tokenize runs the span tokenizer on text. Constructs with nested inline
// content use this to tokenize it.
func (ctx *SpanContext) Tokenize(text string) []Span {
	return ctx.Session.tokenizeSpans(text)
}

func (s *Session) tokenizeSpans(text string) []Span {
	ctx := &SpanContext{Session: s, Document: s.doc}
	recognizers := s.spans
	fallback := s.Fallback()

	spans := newSpanList()
	delims := newDelimiterStack()
	// Start of text not claimed by any recognizer.
	unclaimed := 0
	flush := func(end int) {
		if end > unclaimed {
			if sp := fallback.Build(ctx, Match{Text: text, Start: unclaimed, End: end}); sp != nil {
				spans.push(sp)
			}
		}
	}

	for pos := 0; pos < len(text); {
		rec, m, ok := findSpan(recognizers, text, pos)
		if !ok {
			_, n := utf8.DecodeRuneInString(text[pos:])
			pos += n
			continue
		}
		flush(pos)
		if sp := rec.Build(ctx, m); sp != nil {
			node := spans.push(sp)
			if d, ok := sp.(*delimiterRun); ok {
				d.node = node
				delims.push(d)
			}
		}
		pos = m.End
		unclaimed = pos
	}
	flush(len(text))

	processEmphasis(delims)
	return finishSpans(spans.slice())
}

// Returns the first recognizer in registry order that matches at pos.
func findSpan(recognizers []*SpanRecognizer, text string, pos int) (*SpanRecognizer, Match, bool) {
	for _, rec := range recognizers {
		if rec.Find == nil {
			continue
		}
		if m, ok := rec.Find(text, pos); ok && m.End > pos && m.End <= len(text) {
			m.Text, m.Start = text, pos
			return rec, m, true
		}
	}
	return nil, Match{}, false
}

// Turns leftover delimiter runs into raw text and merges adjacent raw text.
func finishSpans(in []Span) []Span {
	var out []Span
	for _, sp := range in {
		if d, ok := sp.(*delimiterRun); ok {
			if d.n == 0 {
				continue
			}
			sp = &RawText{Content: strings.Repeat(string(d.char), d.n)}
		}
		if t, ok := sp.(*RawText); ok && len(out) > 0 {
			if last, ok := out[len(out)-1].(*RawText); ok {
				out[len(out)-1] = &RawText{Content: last.Content + t.Content}
				continue
			}
		}
		out = append(out, sp)
	}
	return out
}

// A doubly linked list of spans with sentinels, used while resolving
// emphasis.
type spanList struct {
	head, tail spanNode
}

type spanNode struct {
	span       Span
	prev, next *spanNode
}

func newSpanList() *spanList {
	l := &spanList{}
	l.head.next = &l.tail
	l.tail.prev = &l.head
	return l
}

func (l *spanList) push(sp Span) *spanNode {
	n := &spanNode{span: sp, prev: l.tail.prev, next: &l.tail}
	l.tail.prev.next = n
	l.tail.prev = n
	return n
}

func (l *spanList) slice() []Span {
	var spans []Span
	for n := l.head.next; n != &l.tail; n = n.next {
		spans = append(spans, n.span)
	}
	return spans
}

func (n *spanNode) insertAfter(sp Span) {
	m := &spanNode{span: sp, prev: n, next: n.next}
	n.next.prev = m
	n.next = m
}

func (n *spanNode) unlink() {
	n.prev.next = n.next
	n.next.prev = n.prev
}

const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func isASCIIPunct(b byte) bool { return strings.IndexByte(asciiPunct, b) >= 0 }

func isWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n':
		return true
	default:
		return false
	}
}

func isASCIIControl(b byte) bool { return b < 0x20 }

// Finds the next backquote run equal to run, starting from i. Returns -1 if
// there is none.
func findBacktickRun(s, run string, i int) int {
	for i < len(s) {
		j := strings.Index(s[i:], run)
		if j == -1 {
			return -1
		}
		j += i
		if j+len(run) == len(s) || s[j+len(run)] != '`' {
			return j
		}
		for j < len(s) && s[j] == '`' {
			j++
		}
		i = j
	}
	return -1
}

var lineEndingToSpace = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func normalizeCodeSpanContent(s string) string {
	s = lineEndingToSpace.Replace(s)
	if len(s) > 1 && s[0] == ' ' && s[len(s)-1] == ' ' && strings.Trim(s, " ") != "" {
		return s[1 : len(s)-1]
	}
	return s
}
