package md

import (
	"unicode"
	"unicode/utf8"
)

// A run of '*' or '_' found by the emphasis recognizer. Runs only exist
// while a span sequence is being tokenized: they are either consumed by
// Emphasis and Strong nodes or turned into raw text.
type delimiterRun struct {
	SpanBase
	char byte
	// Number of delimiters left, and the length of the original run.
	n, orig           int
	canOpen, canClose bool

	node       *spanNode
	prev, next *delimiterRun
}

func (*delimiterRun) Children() []Node { return nil }

// The delimiter "stack" is a doubly linked list, with sentinels as bottom
// and top, the bottom being the head of the list.
type delimiterStack struct {
	bottom, top *delimiterRun
}

func newDelimiterStack() delimiterStack {
	bottom := &delimiterRun{}
	top := &delimiterRun{prev: bottom}
	bottom.next = top
	return delimiterStack{bottom, top}
}

func (s delimiterStack) push(d *delimiterRun) {
	d.prev = s.top.prev
	d.next = s.top
	s.top.prev.next = d
	s.top.prev = d
}

func (d *delimiterRun) remove() {
	d.prev.next = d.next
	d.next.prev = d.prev
}

type flanking struct{ canOpen, canClose bool }

// Determines whether the run text[begin:end] can open or close emphasis.
func runFlanking(text string, begin, end int) flanking {
	char := text[begin]
	next, lNext := utf8.DecodeRuneInString(text[end:])
	prev, lPrev := utf8.DecodeLastRuneInString(text[:begin])
	leftFlanking := lNext > 0 && !unicode.IsSpace(next) &&
		(!isPunct(next) ||
			(lPrev == 0 || unicode.IsSpace(prev) || isPunct(prev)))
	rightFlanking := lPrev > 0 && !unicode.IsSpace(prev) &&
		(!isPunct(prev) ||
			(lNext == 0 || unicode.IsSpace(next) || isPunct(next)))
	f := flanking{leftFlanking, rightFlanking}
	if char == '_' {
		f.canOpen = leftFlanking && (!rightFlanking || (lPrev > 0 && isPunct(prev)))
		f.canClose = rightFlanking && (!leftFlanking || (lNext > 0 && isPunct(next)))
	}
	return f
}

func isPunct(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) }

// Resolves the delimiter runs in s into Emphasis and Strong nodes, following
// the "process emphasis" procedure of CommonMark.
func processEmphasis(s delimiterStack) {
	var openersBottom [2][3][2]*delimiterRun
	for closer := s.bottom.next; closer != s.top; {
		if !closer.canClose {
			closer = closer.next
			continue
		}
		openerBottom := &openersBottom[b2i(closer.char == '_')][closer.orig%3][b2i(closer.canOpen)]
		if *openerBottom == nil {
			*openerBottom = s.bottom
		}
		var opener *delimiterRun
		for p := closer.prev; p != *openerBottom && p != s.bottom; p = p.prev {
			if p.canOpen && p.char == closer.char &&
				((!p.canClose && !closer.canOpen) ||
					(p.orig+closer.orig)%3 != 0 || (p.orig%3 == 0 && closer.orig%3 == 0)) {
				opener = p
				break
			}
		}
		if opener == nil {
			*openerBottom = closer.prev
			next := closer.next
			if !closer.canOpen {
				closer.remove()
			}
			closer = next
			continue
		}

		strong := opener.n >= 2 && closer.n >= 2
		use := 1 + b2i(strong)
		opener.n -= use
		closer.n -= use
		wrap(opener, closer, strong)

		// Delimiters between the opener and the closer can no longer match.
		opener.next = closer
		closer.prev = opener
		if opener.n == 0 {
			opener.node.unlink()
			opener.remove()
		}
		if closer.n == 0 {
			next := closer.next
			closer.node.unlink()
			closer.remove()
			closer = next
		}
	}
}

// Replaces the spans between opener and closer with an Emphasis or Strong
// node containing them.
func wrap(opener, closer *delimiterRun, strong bool) {
	var content []Span
	for n := opener.node.next; n != closer.node; n = n.next {
		content = append(content, n.span)
	}
	opener.node.next = closer.node
	closer.node.prev = opener.node
	content = finishSpans(content)
	if strong {
		opener.node.insertAfter(&Strong{Delimiter: opener.char, Content: content})
	} else {
		opener.node.insertAfter(&Emphasis{Delimiter: opener.char, Content: content})
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
