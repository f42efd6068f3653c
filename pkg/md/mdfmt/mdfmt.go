// Package mdfmt renders a parsed Markdown document back to Markdown.
//
// The output reproduces the source the document was parsed from: every node
// keeps the markers, indentation and whitespace that were around its
// content, and the recognizers in Extension keep blank lines and definitions
// in the tree. Parsing with Extension active and rendering gives back the
// input byte for byte, as long as the input ends with a newline and uses
// "\n" line endings.
package mdfmt

import (
	"errors"
	"fmt"
	"strings"

	"src.mdtree.dev/pkg/md"
)

// Extension makes a Session keep the nodes needed for a faithful round trip.
var Extension = md.Extension{
	Name: "mdfmt",
	Blocks: []*md.BlockRecognizer{
		md.BlankLineRecognizer,
		md.FootnoteBlockRecognizer,
		md.LinkDefinitionBlockRecognizer,
	},
}

// ErrUnsupportedNode is returned when the tree contains a node that neither
// the Renderer nor its hooks know how to render.
var ErrUnsupportedNode = errors.New("unsupported node")

// Renderer renders nodes to Markdown. The zero value renders all the node
// types defined in package md.
type Renderer struct {
	// RenderBlock, if not nil, is tried on every block before the built-in
	// rules. It returns the source of the block, with each line ending in
	// "\n", and whether it handled the block.
	RenderBlock func(r *Renderer, b md.Block) (string, bool)
	// RenderSpan is like RenderBlock, but for spans.
	RenderSpan func(r *Renderer, sp md.Span) (string, bool)

	err error
}

// Render parses text with Extension added to s and renders it back.
func Render(s *md.Session, text string) (string, error) {
	return new(Renderer).RenderText(s, text)
}

// RenderText is like Render, but uses the hooks of r.
func (r *Renderer) RenderText(s *md.Session, text string) (string, error) {
	var out string
	err := s.With(Extension, func() error {
		var err error
		out, err = r.Render(s.Parse(text))
		return err
	})
	return out, err
}

// Render renders doc. The error wraps ErrUnsupportedNode if some node could
// not be rendered; the output is still returned, without that node.
func (r *Renderer) Render(doc *md.Document) (string, error) {
	r.err = nil
	out := r.Blocks(doc.Content)
	return out, r.err
}

// Blocks renders a sequence of blocks.
func (r *Renderer) Blocks(blocks []md.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(r.block(b))
	}
	return sb.String()
}

func (r *Renderer) block(b md.Block) string {
	if r.RenderBlock != nil {
		if s, ok := r.RenderBlock(r, b); ok {
			return s
		}
	}
	switch b := b.(type) {
	case *md.Paragraph:
		return b.Indent + r.Spans(b.Content) + b.Trailing + "\n"
	case *md.Heading:
		if b.Setext {
			return b.Indent + r.Spans(b.Content) + b.Closing + "\n" + b.Underline + "\n"
		}
		return b.Indent + strings.Repeat("#", b.Level) + b.Separator +
			r.Spans(b.Content) + b.Closing + "\n"
	case *md.ThematicBreak:
		return b.Raw + "\n"
	case *md.BlankLine:
		return b.Raw + "\n"
	case *md.CodeBlock:
		return strings.Join(b.Lines, "")
	case *md.CodeFence:
		var sb strings.Builder
		sb.WriteString(b.Indent + b.Fence + b.Info + "\n")
		for _, line := range b.Lines {
			sb.WriteString(line)
		}
		if b.Closed {
			sb.WriteString(b.Closing + "\n")
		}
		return sb.String()
	case *md.HTMLBlock:
		return strings.Join(b.Lines, "")
	case *md.LinkDefinition:
		return strings.Join(b.Lines, "")
	case *md.Quote:
		return prefixLines(b.Prefixes, r.Blocks(b.Content))
	case *md.List:
		var sb strings.Builder
		for _, item := range b.Items {
			sb.WriteString(prefixLines(item.Prefixes, r.Blocks(item.Content)))
		}
		return sb.String()
	case *md.FootnoteDefinition:
		return prefixLines(b.Prefixes, r.Blocks(b.Content))
	case *md.Table:
		var sb strings.Builder
		sb.WriteString(r.row(b.Header))
		sb.WriteString(b.Delimiter + "\n")
		for _, row := range b.Rows {
			sb.WriteString(r.row(row))
		}
		return sb.String()
	}
	r.unsupported(b)
	return ""
}

func (r *Renderer) row(row *md.TableRow) string {
	var sb strings.Builder
	sb.WriteString(row.Indent)
	if row.LeadingPipe {
		sb.WriteByte('|')
	}
	for i, cell := range row.Cells {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(cell.Pre + r.Spans(cell.Content) + cell.Post)
	}
	if row.TrailingPipe {
		sb.WriteString("|" + row.Trailing)
	}
	sb.WriteByte('\n')
	return sb.String()
}

// Puts the container prefixes back in front of the lines of content.
func prefixLines(prefixes []string, content string) string {
	var sb strings.Builder
	for i, line := range md.SplitLines(content) {
		if i < len(prefixes) {
			sb.WriteString(prefixes[i])
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// Spans renders a sequence of spans.
func (r *Renderer) Spans(spans []md.Span) string {
	var sb strings.Builder
	for _, sp := range spans {
		sb.WriteString(r.span(sp))
	}
	return sb.String()
}

func (r *Renderer) span(sp md.Span) string {
	if r.RenderSpan != nil {
		if s, ok := r.RenderSpan(r, sp); ok {
			return s
		}
	}
	switch sp := sp.(type) {
	case *md.RawText:
		return sp.Content
	case *md.Escape:
		return `\` + string(sp.Char)
	case *md.CodeSpan:
		return sp.Delimiter + sp.Raw + sp.Delimiter
	case *md.AutoLink:
		return "<" + sp.Text + ">"
	case *md.FootnoteReference:
		return "[^" + sp.Label + "]"
	case *md.HTMLSpan:
		return sp.Content
	case *md.Link:
		return "[" + r.Spans(sp.Content) + "]" + sp.Tail
	case *md.Image:
		return "![" + r.Spans(sp.Content) + "]" + sp.Tail
	case *md.Emphasis:
		d := string(sp.Delimiter)
		return d + r.Spans(sp.Content) + d
	case *md.Strong:
		d := strings.Repeat(string(sp.Delimiter), 2)
		return d + r.Spans(sp.Content) + d
	case *md.Strikethrough:
		return "~~" + r.Spans(sp.Content) + "~~"
	case *md.LineBreak:
		return sp.Marker + "\n" + sp.Indent
	}
	r.unsupported(sp)
	return ""
}

func (r *Renderer) unsupported(n md.Node) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %T", ErrUnsupportedNode, n)
	}
}
