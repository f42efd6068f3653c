// Package wiki adds wiki-style links, written as "[[text | target]]", to a
// Markdown session.
package wiki

import (
	"fmt"
	"regexp"
	"strings"

	"src.mdtree.dev/pkg/md"
	"src.mdtree.dev/pkg/md/mdfmt"
	"src.mdtree.dev/pkg/md/mdhtml"
)

// LinkType is the type of the span recognizer for wiki links.
const LinkType = "WikiLink"

// Link is a wiki link. Content is the tokenized link text.
type Link struct {
	md.SpanBase
	Content []md.Span
	Target  string
	// Raw is the source text, including the brackets.
	Raw string
}

func (l *Link) Children() []md.Node {
	nodes := make([]md.Node, len(l.Content))
	for i, sp := range l.Content {
		nodes[i] = sp
	}
	return nodes
}

// TraceInfo implements md.TraceInfo.
func (l *Link) TraceInfo() string { return fmt.Sprintf("Target=%q", l.Target) }

var linkRegexp = regexp.MustCompile(`^\[\[ *(.+?) *\| *(.+?) *\]\]`)

// Recognizer recognizes wiki links.
var Recognizer = &md.SpanRecognizer{
	Type: LinkType,
	Find: func(text string, pos int) (md.Match, bool) {
		if !strings.HasPrefix(text[pos:], "[[") {
			return md.Match{}, false
		}
		m := linkRegexp.FindStringSubmatch(text[pos:])
		if m == nil {
			return md.Match{}, false
		}
		return md.Match{End: pos + len(m[0]), Data: m[1:]}, true
	},
	Build: func(ctx *md.SpanContext, m md.Match) md.Span {
		groups := m.Data.([]string)
		return &Link{
			Content: ctx.Tokenize(groups[0]),
			Target:  groups[1],
			Raw:     m.Source(),
		}
	},
}

// Extension adds Recognizer to a session.
var Extension = md.Extension{Name: "wiki", Spans: []*md.SpanRecognizer{Recognizer}}

// HTML is an mdhtml hook that renders wiki links as plain anchors.
func HTML(r *mdhtml.Renderer, sp md.Span) (string, bool) {
	l, ok := sp.(*Link)
	if !ok {
		return "", false
	}
	var sb strings.Builder
	sb.WriteString(`<a href="`)
	sb.WriteString(escapeAttr(l.Target))
	sb.WriteString(`">`)
	sb.WriteString(r.Spans(l.Content))
	sb.WriteString("</a>")
	return sb.String(), true
}

var escapeAttr = strings.NewReplacer(
	"&", "&amp;", `"`, "&quot;", "<", "&lt;", ">", "&gt;").Replace

// Markdown is an mdfmt hook that reproduces wiki links.
func Markdown(_ *mdfmt.Renderer, sp md.Span) (string, bool) {
	if l, ok := sp.(*Link); ok {
		return l.Raw, true
	}
	return "", false
}
