// Package mdhtml renders a parsed Markdown document to HTML.
package mdhtml

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"src.mdtree.dev/pkg/logutil"
	"src.mdtree.dev/pkg/md"
)

var logger = logutil.GetLogger("[mdhtml] ")

// There are different ways to escape HTML and URLs; attributes in the output
// always use double quotes, so single quotes are left alone.
var (
	escapeHTML = strings.NewReplacer(
		"&", "&amp;", `"`, "&quot;", "<", "&lt;", ">", "&gt;").Replace
	escapeURL = strings.NewReplacer(
		`"`, "%22", `\`, "%5C", " ", "%20", "`", "%60",
		"[", "%5B", "]", "%5D", "<", "%3C", ">", "%3E").Replace
)

// Renderer converts a Document to HTML.
//
// A Renderer may be reused, but not concurrently.
type Renderer struct {
	// HeadingIDs adds an id attribute derived from the text to every heading.
	HeadingIDs bool
	// RenderBlock, if not nil, is tried on every block before the built-in
	// rules. It returns the HTML of the block and whether it handled it.
	RenderBlock func(r *Renderer, b md.Block) (string, bool)
	// RenderSpan is like RenderBlock, but for spans.
	RenderSpan func(r *Renderer, sp md.Span) (string, bool)

	sb  strings.Builder
	doc *md.Document
	// Labels of referenced footnotes, in order of first reference.
	footnotes []string
	footnoteN map[string]int
	ids       map[string]int
}

// Render renders doc. Footnotes that are referenced from the document are
// collected into a section at the end.
func (r *Renderer) Render(doc *md.Document) string {
	r.sb.Reset()
	r.doc = doc
	r.footnotes, r.footnoteN, r.ids = nil, map[string]int{}, map[string]int{}
	defer func() { r.doc = nil }()

	r.blocks(doc.Content)
	r.renderFootnotes()
	return r.sb.String()
}

// Render is a shorthand for rendering doc with a zero Renderer.
func Render(doc *md.Document) string { return new(Renderer).Render(doc) }

// Document returns the Document being rendered, for use by hooks.
func (r *Renderer) Document() *md.Document { return r.doc }

func (r *Renderer) blocks(blocks []md.Block) {
	for _, b := range blocks {
		r.block(b)
	}
}

func (r *Renderer) block(b md.Block) {
	if r.RenderBlock != nil {
		if s, ok := r.RenderBlock(r, b); ok {
			r.sb.WriteString(s)
			return
		}
	}
	switch b := b.(type) {
	case *md.Paragraph:
		fmt.Fprintf(&r.sb, "<p>%s</p>\n", r.Spans(b.Content))
	case *md.Heading:
		var attrs attrBuilder
		if r.HeadingIDs {
			attrs.set("id", r.headingID(md.PlainText(b.Content)))
		}
		fmt.Fprintf(&r.sb, "<h%d%s>%s</h%d>\n", b.Level, &attrs, r.Spans(b.Content), b.Level)
	case *md.ThematicBreak:
		r.sb.WriteString("<hr />\n")
	case *md.CodeBlock:
		r.code("", b.Code())
	case *md.CodeFence:
		r.code(b.Language(), b.Code())
	case *md.HTMLBlock:
		r.sb.WriteString(strings.Join(b.Lines, ""))
	case *md.Quote:
		r.sb.WriteString("<blockquote>\n")
		r.blocks(b.Content)
		r.sb.WriteString("</blockquote>\n")
	case *md.List:
		r.list(b)
	case *md.Table:
		r.table(b)
	case *md.BlankLine, *md.LinkDefinition, *md.FootnoteDefinition:
		// Definitions are rendered where they are referenced.
	default:
		logger.Printf("line %d: no HTML for block %T", b.Line(), b)
	}
}

func (r *Renderer) code(language, code string) {
	var attrs attrBuilder
	if language != "" {
		attrs.set("class", "language-"+language)
	}
	fmt.Fprintf(&r.sb, "<pre><code%s>%s</code></pre>\n", &attrs, escapeHTML(code))
}

func (r *Renderer) list(l *md.List) {
	tag := "ul"
	var attrs attrBuilder
	if l.Ordered {
		tag = "ol"
		if l.Start != 1 {
			attrs.set("start", strconv.Itoa(l.Start))
		}
	}
	fmt.Fprintf(&r.sb, "<%s%s>\n", tag, &attrs)
	for _, item := range l.Items {
		r.sb.WriteString("<li>")
		if l.Loose {
			r.sb.WriteByte('\n')
			r.blocks(item.Content)
		} else {
			r.tightItem(item.Content)
		}
		r.sb.WriteString("</li>\n")
	}
	fmt.Fprintf(&r.sb, "</%s>\n", tag)
}

// Paragraphs in tight list items are rendered without <p>.
func (r *Renderer) tightItem(blocks []md.Block) {
	for i, b := range blocks {
		p, ok := b.(*md.Paragraph)
		if !ok {
			if i == 0 {
				r.sb.WriteByte('\n')
			}
			r.block(b)
			continue
		}
		r.sb.WriteString(r.Spans(p.Content))
		if i < len(blocks)-1 {
			r.sb.WriteByte('\n')
		}
	}
}

var alignAttrs = []string{
	md.AlignLeft: "left", md.AlignCenter: "center", md.AlignRight: "right",
}

func (r *Renderer) table(t *md.Table) {
	r.sb.WriteString("<table>\n<thead>\n")
	r.row(t.Header, "th")
	r.sb.WriteString("</thead>\n")
	if len(t.Rows) > 0 {
		r.sb.WriteString("<tbody>\n")
		for _, row := range t.Rows {
			r.row(row, "td")
		}
		r.sb.WriteString("</tbody>\n")
	}
	r.sb.WriteString("</table>\n")
}

func (r *Renderer) row(row *md.TableRow, tag string) {
	r.sb.WriteString("<tr>\n")
	for _, cell := range row.Cells {
		var attrs attrBuilder
		if cell.Align != md.AlignNone {
			attrs.set("align", alignAttrs[cell.Align])
		}
		fmt.Fprintf(&r.sb, "<%s%s>%s</%s>\n", tag, &attrs, r.Spans(cell.Content), tag)
	}
	r.sb.WriteString("</tr>\n")
}

// Spans renders a sequence of spans and returns the HTML.
func (r *Renderer) Spans(spans []md.Span) string {
	var sb strings.Builder
	for _, sp := range spans {
		r.span(&sb, sp)
	}
	return sb.String()
}

func (r *Renderer) span(sb *strings.Builder, sp md.Span) {
	if r.RenderSpan != nil {
		if s, ok := r.RenderSpan(r, sp); ok {
			sb.WriteString(s)
			return
		}
	}
	switch sp := sp.(type) {
	case *md.RawText:
		sb.WriteString(escapeHTML(sp.Content))
	case *md.Escape:
		sb.WriteString(escapeHTML(string(sp.Char)))
	case *md.CodeSpan:
		fmt.Fprintf(sb, "<code>%s</code>", escapeHTML(sp.Code()))
	case *md.HTMLSpan:
		sb.WriteString(sp.Content)
	case *md.AutoLink:
		var attrs attrBuilder
		attrs.set("href", escapeURL(sp.Target()))
		fmt.Fprintf(sb, "<a%s>%s</a>", &attrs, escapeHTML(sp.Text))
	case *md.Emphasis:
		fmt.Fprintf(sb, "<em>%s</em>", r.Spans(sp.Content))
	case *md.Strong:
		fmt.Fprintf(sb, "<strong>%s</strong>", r.Spans(sp.Content))
	case *md.Strikethrough:
		fmt.Fprintf(sb, "<del>%s</del>", r.Spans(sp.Content))
	case *md.LineBreak:
		if sp.Hard {
			sb.WriteString("<br />")
		}
		sb.WriteByte('\n')
	case *md.Link:
		target, title, ok := r.resolveLink(sp)
		if !ok {
			fmt.Fprintf(sb, "[%s]%s", r.Spans(sp.Content), escapeHTML(sp.Tail))
			return
		}
		var attrs attrBuilder
		attrs.set("href", escapeURL(target))
		if title != "" {
			attrs.set("title", title)
		}
		fmt.Fprintf(sb, "<a%s>%s</a>", &attrs, r.Spans(sp.Content))
	case *md.Image:
		target, title, ok := r.resolveImage(sp)
		if !ok {
			fmt.Fprintf(sb, "![%s]%s", r.Spans(sp.Content), escapeHTML(sp.Tail))
			return
		}
		var attrs attrBuilder
		attrs.set("src", escapeURL(target))
		attrs.set("alt", md.PlainText(sp.Content))
		if title != "" {
			attrs.set("title", title)
		}
		fmt.Fprintf(sb, "<img%s />", &attrs)
	case *md.FootnoteReference:
		n, ok := r.footnoteNumber(sp.Label)
		if !ok {
			sb.WriteString(escapeHTML("[^" + sp.Label + "]"))
			return
		}
		id := footnoteID(sp.Label)
		fmt.Fprintf(sb, `<sup class="footnote-ref"><a href="#fn-%s" id="fnref-%s">%d</a></sup>`, id, id, n)
	default:
		for _, c := range sp.Children() {
			if c, ok := c.(md.Span); ok {
				r.span(sb, c)
			}
		}
	}
}

func (r *Renderer) resolveLink(l *md.Link) (string, string, bool) {
	if l.Form == md.InlineLink {
		return l.Target, l.Title, true
	}
	if r.doc == nil {
		return "", "", false
	}
	return r.doc.ResolveLink(l)
}

func (r *Renderer) resolveImage(i *md.Image) (string, string, bool) {
	if i.Form == md.InlineLink {
		return i.Target, i.Title, true
	}
	if r.doc == nil {
		return "", "", false
	}
	return r.doc.ResolveImage(i)
}

// Returns the number of a footnote, assigning one on first reference.
func (r *Renderer) footnoteNumber(label string) (int, bool) {
	if r.doc == nil {
		return 0, false
	}
	if _, ok := r.doc.ResolveFootnote(label); !ok {
		return 0, false
	}
	key := md.NormalizeLabel(label)
	if n, ok := r.footnoteN[key]; ok {
		return n, true
	}
	r.footnotes = append(r.footnotes, label)
	r.footnoteN[key] = len(r.footnotes)
	return len(r.footnotes), true
}

func (r *Renderer) renderFootnotes() {
	if len(r.footnotes) == 0 {
		return
	}
	r.sb.WriteString("<section class=\"footnotes\">\n<ol>\n")
	// Footnotes may reference further footnotes, which get appended.
	for i := 0; i < len(r.footnotes); i++ {
		label := r.footnotes[i]
		def, _ := r.doc.ResolveFootnote(label)
		id := footnoteID(label)
		fmt.Fprintf(&r.sb, "<li id=\"fn-%s\">\n", id)
		r.blocks(def.Content)
		fmt.Fprintf(&r.sb, "<a href=\"#fnref-%s\" class=\"footnote-backref\">↩</a>\n</li>\n", id)
	}
	r.sb.WriteString("</ol>\n</section>\n")
}

func footnoteID(label string) string {
	return escapeURL(escapeHTML(md.NormalizeLabel(label)))
}

// Derives a unique id from the text of a heading.
func (r *Renderer) headingID(text string) string {
	var sb strings.Builder
	dash := false
	for _, c := range strings.ToLower(text) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(c)
			dash = false
		} else {
			dash = true
		}
	}
	id := sb.String()
	if id == "" {
		id = "section"
	}
	n := r.ids[id]
	r.ids[id] = n + 1
	if n > 0 {
		id += "-" + strconv.Itoa(n)
	}
	return id
}

type attrBuilder struct{ strings.Builder }

func (a *attrBuilder) set(k, v string) { fmt.Fprintf(a, ` %s="%s"`, k, escapeHTML(v)) }
