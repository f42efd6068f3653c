package md

import "strings"

// Walk calls f for n and its descendants in preorder. If f returns false, the
// children of the node are skipped. The header of a Table is visited before
// its rows.
func Walk(n Node, f func(Node) bool) {
	if !f(n) {
		return
	}
	if t, ok := n.(*Table); ok && t.Header != nil {
		Walk(t.Header, f)
	}
	for _, c := range n.Children() {
		Walk(c, f)
	}
}

// PlainText returns the text content of spans, without any markup. Soft line
// breaks become spaces.
func PlainText(spans []Span) string {
	var sb strings.Builder
	for _, sp := range spans {
		writePlainText(&sb, sp)
	}
	return sb.String()
}

func writePlainText(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *RawText:
		sb.WriteString(n.Content)
	case *Escape:
		sb.WriteByte(n.Char)
	case *CodeSpan:
		sb.WriteString(n.Code())
	case *AutoLink:
		sb.WriteString(n.Text)
	case *LineBreak:
		if n.Hard {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	case *FootnoteReference, *HTMLSpan:
	default:
		for _, c := range n.Children() {
			writePlainText(sb, c)
		}
	}
}
