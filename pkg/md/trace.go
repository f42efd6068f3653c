package md

import (
	"fmt"
	"strings"
)

// TraceInfo can be implemented by nodes defined outside this package to add
// attributes to the output of Trace.
type TraceInfo interface {
	TraceInfo() string
}

// Trace returns a textual dump of the tree rooted at n, one node per line,
// with children indented by two spaces.
func Trace(n Node) string {
	var sb strings.Builder
	trace(&sb, n, 0)
	return sb.String()
}

func trace(sb *strings.Builder, n Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(nodeName(n))
	if b, ok := n.(Block); ok {
		fmt.Fprintf(sb, " line=%d", b.Line())
	}
	if info := traceInfo(n); info != "" {
		sb.WriteByte(' ')
		sb.WriteString(info)
	}
	sb.WriteByte('\n')
	if t, ok := n.(*Table); ok && t.Header != nil {
		trace(sb, t.Header, depth+1)
	}
	for _, c := range n.Children() {
		trace(sb, c, depth+1)
	}
}

func nodeName(n Node) string {
	name := strings.TrimPrefix(fmt.Sprintf("%T", n), "*")
	return strings.TrimPrefix(name, "md.")
}

func traceInfo(n Node) string {
	switch n := n.(type) {
	case *Heading:
		if n.Setext {
			return fmt.Sprintf("Level=%d Setext", n.Level)
		}
		return fmt.Sprintf("Level=%d", n.Level)
	case *CodeBlock:
		return fmt.Sprintf("Code=%q", n.Code())
	case *CodeFence:
		s := fmt.Sprintf("Info=%q Code=%q", n.Info, n.Code())
		if !n.Closed {
			s += " MissingCloser"
		}
		return s
	case *List:
		s := fmt.Sprintf("Delimiter=%q", n.Delimiter)
		if n.Ordered {
			s += fmt.Sprintf(" Start=%d", n.Start)
		}
		if n.Loose {
			s += " Loose"
		}
		return s
	case *ListItem:
		return fmt.Sprintf("Marker=%q", n.Marker)
	case *Table:
		return fmt.Sprintf("Columns=%d", len(n.Aligns))
	case *TableCell:
		if n.Align != AlignNone {
			return fmt.Sprintf("Align=%d", n.Align)
		}
	case *FootnoteDefinition:
		return fmt.Sprintf("Label=%q", n.Label)
	case *LinkDefinition:
		return fmt.Sprintf("Label=%q Target=%q", n.Label, n.Target)
	case *RawText:
		return fmt.Sprintf("%q", n.Content)
	case *Escape:
		return fmt.Sprintf("%q", n.Char)
	case *CodeSpan:
		return fmt.Sprintf("%q", n.Code())
	case *AutoLink:
		return fmt.Sprintf("Target=%q", n.Target())
	case *FootnoteReference:
		return fmt.Sprintf("Label=%q", n.Label)
	case *Link:
		return linkInfo(n.Form, n.Target, n.Title, n.Label)
	case *Image:
		return linkInfo(n.Form, n.Target, n.Title, n.Label)
	case *LineBreak:
		if n.Hard {
			return "Hard"
		}
	case *HTMLSpan:
		return fmt.Sprintf("%q", n.Content)
	case TraceInfo:
		return n.TraceInfo()
	}
	return ""
}

func linkInfo(form LinkForm, target, title, label string) string {
	if form == InlineLink {
		if title != "" {
			return fmt.Sprintf("Target=%q Title=%q", target, title)
		}
		return fmt.Sprintf("Target=%q", target)
	}
	return fmt.Sprintf("Label=%q", label)
}
