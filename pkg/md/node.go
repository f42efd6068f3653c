package md

// Node is a node in the tree built by a Session.
type Node interface {
	// Children returns the ordered child nodes. Leaves return nil.
	Children() []Node
}

// Block is a block-level node. Every Block records the line on which it
// starts.
type Block interface {
	Node
	// Line returns the 1-based number of the first source line the block
	// was read from, or 0 if the block was never attributed to a line.
	Line() int
	blockBase() *BlockBase
}

// Span is an inline node.
type Span interface {
	Node
	isSpan()
}

// BlockBase implements the line bookkeeping of Block. Types defined outside
// this package implement Block by embedding it.
type BlockBase struct{ line int }

func (b *BlockBase) Line() int             { return b.line }
func (b *BlockBase) blockBase() *BlockBase { return b }

// SpanBase implements the marker method of Span. Types defined outside this
// package implement Span by embedding it.
type SpanBase struct{}

func (SpanBase) isSpan() {}

// Line numbers are assigned once; later calls are no-ops.
func stamp(b Block, line int) {
	if bb := b.blockBase(); bb.line == 0 {
		bb.line = line
	}
}

// Inline holds the inline content of a leaf block. Source is filled in when
// the block is read; Content is filled in by the second phase of parsing,
// after all blocks of the document have been read.
type Inline struct {
	Source  string
	Content []Span

	tokenized bool
}

func (in *Inline) inline() *Inline { return in }

type inlineHolder interface {
	inline() *Inline
}

func blockNodes(bs []Block) []Node {
	if len(bs) == 0 {
		return nil
	}
	nodes := make([]Node, len(bs))
	for i, b := range bs {
		nodes[i] = b
	}
	return nodes
}

func spanNodes(ss []Span) []Node {
	if len(ss) == 0 {
		return nil
	}
	nodes := make([]Node, len(ss))
	for i, s := range ss {
		nodes[i] = s
	}
	return nodes
}

// Block nodes.

// Heading is an ATX heading ("# Title") or a setext heading (a paragraph
// underlined with "=" or "-").
type Heading struct {
	BlockBase
	Inline
	Level  int
	Setext bool
	// Indent is the indentation before the opening hashes (ATX) or the
	// first content line (setext).
	Indent string
	// Separator is the whitespace between the opening hashes and the
	// content. Empty for setext headings.
	Separator string
	// Closing is everything after the content on the last content line:
	// trailing whitespace and the optional closing hash sequence.
	Closing string
	// Underline is the raw underline of a setext heading.
	Underline string
}

func (h *Heading) Children() []Node { return spanNodes(h.Content) }

// Paragraph is a run of non-blank lines not claimed by other recognizers.
type Paragraph struct {
	BlockBase
	Inline
	Indent   string
	Trailing string
}

func (p *Paragraph) Children() []Node { return spanNodes(p.Content) }

// Quote is a block quote. Prefixes holds, for each source line of the quote,
// the text that was stripped before the rest of the line was handed to the
// nested block tokenizer; a lazy continuation line has an empty prefix.
type Quote struct {
	BlockBase
	Content  []Block
	Prefixes []string
}

func (q *Quote) Children() []Node { return blockNodes(q.Content) }

// CodeBlock is an indented code block.
type CodeBlock struct {
	BlockBase
	// Lines are the raw source lines, each ending with "\n".
	Lines []string
}

func (c *CodeBlock) Children() []Node { return nil }

// Code returns the content with the indentation removed.
func (c *CodeBlock) Code() string {
	var sb []byte
	for _, line := range c.Lines {
		sb = append(sb, stripIndent(line, 4)...)
	}
	return string(sb)
}

// CodeFence is a fenced code block.
type CodeFence struct {
	BlockBase
	Indent string
	// Fence is the opening run of backquotes or tildes.
	Fence string
	// Info is the raw rest of the opening line.
	Info string
	// Lines are the raw content lines, each ending with "\n".
	Lines []string
	// Closing is the raw closing fence line; empty when the block was closed
	// by the end of its container.
	Closing string
	Closed  bool
}

func (c *CodeFence) Children() []Node { return nil }

// Language returns the first word of the info string.
func (c *CodeFence) Language() string {
	info := trimSpace(c.Info)
	for i := 0; i < len(info); i++ {
		if info[i] == ' ' || info[i] == '\t' {
			return info[:i]
		}
	}
	return info
}

// Code returns the content with the fence indentation removed.
func (c *CodeFence) Code() string {
	var sb []byte
	for _, line := range c.Lines {
		sb = append(sb, stripIndent(line, len(c.Indent))...)
	}
	return string(sb)
}

// ThematicBreak is a horizontal rule.
type ThematicBreak struct {
	BlockBase
	Raw string
}

func (t *ThematicBreak) Children() []Node { return nil }

// List is a bullet or ordered list.
type List struct {
	BlockBase
	Items   []*ListItem
	Ordered bool
	// Start is the number of the first item of an ordered list.
	Start int
	// Delimiter is the bullet character of a bullet list, or the '.' or ')'
	// following the number of an ordered list.
	Delimiter byte
	// Loose reports whether items are separated by blank lines.
	Loose bool
}

func (l *List) Children() []Node {
	nodes := make([]Node, len(l.Items))
	for i, item := range l.Items {
		nodes[i] = item
	}
	return nodes
}

// ListItem is an item of a List. Prefixes has the same meaning as in Quote;
// the first prefix contains the list marker.
type ListItem struct {
	BlockBase
	Content  []Block
	Marker   string
	Number   int
	Prefixes []string
}

func (li *ListItem) Children() []Node { return blockNodes(li.Content) }

// Align is the alignment of a table column.
type Align uint8

const (
	AlignNone Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Table is a pipe table. The header row is kept in its own slot and is not
// part of Children.
type Table struct {
	BlockBase
	Header *TableRow
	Rows   []*TableRow
	Aligns []Align
	// Delimiter is the raw delimiter row.
	Delimiter string
}

func (t *Table) Children() []Node {
	nodes := make([]Node, len(t.Rows))
	for i, row := range t.Rows {
		nodes[i] = row
	}
	return nodes
}

// TableRow is a row of a Table.
type TableRow struct {
	BlockBase
	Cells        []*TableCell
	Indent       string
	LeadingPipe  bool
	TrailingPipe bool
	// Trailing is the whitespace after the last pipe.
	Trailing string
}

func (r *TableRow) Children() []Node {
	nodes := make([]Node, len(r.Cells))
	for i, c := range r.Cells {
		nodes[i] = c
	}
	return nodes
}

// TableCell is a cell of a TableRow. Pre and Post are the whitespace around
// the content.
type TableCell struct {
	BlockBase
	Inline
	Pre, Post string
	Align     Align
}

func (c *TableCell) Children() []Node { return spanNodes(c.Content) }

// FootnoteDefinition defines the content a FootnoteReference points to.
type FootnoteDefinition struct {
	BlockBase
	Label    string
	Content  []Block
	Prefixes []string
}

func (f *FootnoteDefinition) Children() []Node { return blockNodes(f.Content) }

// LinkDefinition is a link reference definition. It only appears in the tree
// when the LinkDefinitionBlock recognizer is active.
type LinkDefinition struct {
	BlockBase
	Label  string
	Target string
	Title  string
	// Lines are the raw source lines.
	Lines []string
}

func (l *LinkDefinition) Children() []Node { return nil }

// BlankLine is a blank line. It only appears in the tree when the BlankLine
// recognizer is active.
type BlankLine struct {
	BlockBase
	Raw string
}

func (b *BlankLine) Children() []Node { return nil }

// HTMLBlock is a block of raw HTML.
type HTMLBlock struct {
	BlockBase
	Lines []string
}

func (h *HTMLBlock) Children() []Node { return nil }

// Span nodes.

// RawText is literal text.
type RawText struct {
	SpanBase
	Content string
}

func (*RawText) Children() []Node { return nil }

// Escape is a backslash escape of an ASCII punctuation character.
type Escape struct {
	SpanBase
	Char byte
}

func (*Escape) Children() []Node { return nil }

// CodeSpan is inline code. Delimiter is the backquote run used on both sides
// and Raw the content between them, before normalization.
type CodeSpan struct {
	SpanBase
	Delimiter string
	Raw       string
}

func (*CodeSpan) Children() []Node { return nil }

// Code returns the normalized content: line endings become spaces and one
// space is stripped from both ends when both ends have one.
func (c *CodeSpan) Code() string { return normalizeCodeSpanContent(c.Raw) }

// AutoLink is a URI or email address in angle brackets.
type AutoLink struct {
	SpanBase
	Text  string
	Email bool
}

func (*AutoLink) Children() []Node { return nil }

// Target returns the link destination.
func (a *AutoLink) Target() string {
	if a.Email {
		return "mailto:" + a.Text
	}
	return a.Text
}

// FootnoteReference is a reference like "[^1]".
type FootnoteReference struct {
	SpanBase
	Label string
}

func (*FootnoteReference) Children() []Node { return nil }

// LinkForm is the syntactic form of a link or image.
type LinkForm uint8

const (
	// [text](target "title")
	InlineLink LinkForm = iota
	// [text][label]
	FullReference
	// [text][]
	CollapsedReference
	// [text]
	ShortcutReference
)

// Link is a link. Inline links carry Target and Title; reference links carry
// Label and are resolved through the Document.
type Link struct {
	SpanBase
	Content []Span
	Form    LinkForm
	Target  string
	Title   string
	Label   string
	// Tail is the raw source after the closing bracket of the link text.
	Tail string
}

func (l *Link) Children() []Node { return spanNodes(l.Content) }

// Image is like Link, but with a leading "!"; Content is the alt text.
type Image struct {
	SpanBase
	Content []Span
	Form    LinkForm
	Target  string
	Title   string
	Label   string
	Tail    string
}

func (i *Image) Children() []Node { return spanNodes(i.Content) }

// Emphasis is emphasized text.
type Emphasis struct {
	SpanBase
	Delimiter byte
	Content   []Span
}

func (e *Emphasis) Children() []Node { return spanNodes(e.Content) }

// Strong is strongly emphasized text.
type Strong struct {
	SpanBase
	Delimiter byte
	Content   []Span
}

func (s *Strong) Children() []Node { return spanNodes(s.Content) }

// Strikethrough is text enclosed in "~~".
type Strikethrough struct {
	SpanBase
	Content []Span
}

func (s *Strikethrough) Children() []Node { return spanNodes(s.Content) }

// LineBreak is a line ending inside a paragraph. Marker is the raw text
// before the newline (trailing spaces or a backslash); Indent is the
// whitespace at the start of the following line.
type LineBreak struct {
	SpanBase
	Hard   bool
	Marker string
	Indent string
}

func (*LineBreak) Children() []Node { return nil }

// HTMLSpan is inline raw HTML.
type HTMLSpan struct {
	SpanBase
	Content string
}

func (*HTMLSpan) Children() []Node { return nil }
