package md

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Types of the built-in block recognizers.
const (
	CodeBlockType           = "CodeBlock"
	HeadingType             = "Heading"
	QuoteType               = "Quote"
	CodeFenceType           = "CodeFence"
	ThematicBreakType       = "ThematicBreak"
	ListType                = "List"
	TableType               = "Table"
	FootnoteType            = "Footnote"
	LinkDefinitionType      = "LinkDefinition"
	ParagraphType           = "Paragraph"
	BlankLineType           = "BlankLine"
	FootnoteBlockType       = "FootnoteBlock"
	LinkDefinitionBlockType = "LinkDefinitionBlock"
	HTMLBlockType           = "HTMLBlock"
)

// DefaultBlockRecognizers returns the default block registry, in order.
func DefaultBlockRecognizers() []*BlockRecognizer {
	return []*BlockRecognizer{
		CodeBlockRecognizer,
		HeadingRecognizer,
		QuoteRecognizer,
		CodeFenceRecognizer,
		ThematicBreakRecognizer,
		ListRecognizer,
		TableRecognizer,
		FootnoteRecognizer,
		LinkDefinitionRecognizer,
		ParagraphRecognizer,
	}
}

var (
	thematicBreakRegexp = regexp.MustCompile(
		`^ {0,3}((?:-[ \t]*){3,}|(?:_[ \t]*){3,}|(?:\*[ \t]*){3,})$`)

	atxHeadingRegexp       = regexp.MustCompile(`^( {0,3})(#{1,6})(?:[ \t]|$)`)
	atxHeadingCloserRegexp = regexp.MustCompile(`(?:^|[ \t])#+[ \t]*$`)

	setextUnderlineRegexp = regexp.MustCompile(`^ {0,3}(=+|-+)[ \t]*$`)

	codeFenceRegexp       = regexp.MustCompile("^( {0,3})(?:(`{3,})([^`]*)|(~{3,})(.*))$")
	codeFenceCloserRegexp = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})[ \t]*$")

	quoteMarkerRegexp = regexp.MustCompile(`^ {0,3}> ?`)

	listMarkerRegexp = regexp.MustCompile(`^( {0,3})([-+*]|[0-9]{1,9}[.)])([ \t]+|$)`)

	tableDelimiterRegexp = regexp.MustCompile(
		`^ {0,3}\|?[ \t]*:?-+:?[ \t]*(?:\|[ \t]*:?-+:?[ \t]*)*\|?[ \t]*$`)

	footnoteDefRegexp = regexp.MustCompile(`^ {0,3}\[\^([^\]\s]+)\]:[ \t]*`)

	linkDefRegexp = regexp.MustCompile(`^ {0,3}\[((?:[^\\\[\]]|\\.)+)\]:` +
		`[ \t]*\n?[ \t]*` +
		// destination
		`(<(?:[^<>\n\\]|\\.)*>|[^ \t\n<][^ \t\n]*)` +
		// optional title
		`(?:(?:[ \t]+|[ \t]*\n[ \t]*)("(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'|\((?:[^()\\]|\\.)*\)))?` +
		`[ \t]*\n`)
)

// Markdown code blocks.

// CodeBlockRecognizer recognizes indented code blocks.
var CodeBlockRecognizer = &BlockRecognizer{
	Type:  CodeBlockType,
	Start: func(line string) bool { return leadingSpaces(line) >= 4 && !IsBlank(line) },
	Read:  readCodeBlock,
}

func readCodeBlock(_ *BlockContext, r *LineReader) (Block, bool) {
	var lines []string
	trailingBlank := 0
	for r.More() {
		line := r.Peek()
		if IsBlank(line) {
			trailingBlank++
		} else if leadingSpaces(line) >= 4 {
			trailingBlank = 0
		} else {
			break
		}
		lines = append(lines, r.Next())
	}
	for ; trailingBlank > 0; trailingBlank-- {
		r.Backup()
		lines = lines[:len(lines)-1]
	}
	return &CodeBlock{Lines: lines}, true
}

// CodeFenceRecognizer recognizes fenced code blocks.
var CodeFenceRecognizer = &BlockRecognizer{
	Type:       CodeFenceType,
	Start:      isCodeFenceStart,
	Interrupts: isCodeFenceStart,
	Read:       readCodeFence,
}

func isCodeFenceStart(line string) bool { return codeFenceRegexp.MatchString(chomp(line)) }

// Follows the code fences in the lines a container collects, so that a line
// inside fenced code is never taken as a lazy continuation.
type fenceState struct {
	// The opening fence while a fence is open.
	fence string
}

func (f *fenceState) feed(line string) {
	text := chomp(line)
	if f.fence == "" {
		if m := codeFenceRegexp.FindStringSubmatch(text); m != nil {
			f.fence = m[2] + m[4]
		}
		return
	}
	if m := codeFenceCloserRegexp.FindStringSubmatch(text); m != nil &&
		m[1][0] == f.fence[0] && len(m[1]) >= len(f.fence) {
		f.fence = ""
	}
}

func (f *fenceState) open() bool { return f.fence != "" }

func readCodeFence(_ *BlockContext, r *LineReader) (Block, bool) {
	m := codeFenceRegexp.FindStringSubmatch(chomp(r.Next()))
	cf := &CodeFence{Indent: m[1], Fence: m[2], Info: m[3]}
	if cf.Fence == "" {
		cf.Fence, cf.Info = m[4], m[5]
	}
	for r.More() {
		line := r.Next()
		if m := codeFenceCloserRegexp.FindStringSubmatch(chomp(line)); m != nil &&
			m[1][0] == cf.Fence[0] && len(m[1]) >= len(cf.Fence) {
			cf.Closing = chomp(line)
			cf.Closed = true
			break
		}
		cf.Lines = append(cf.Lines, line)
	}
	return cf, true
}

// Headings and thematic breaks.

// HeadingRecognizer recognizes ATX headings. Setext headings are recognized
// by the paragraph recognizer, since they are only known to be headings once
// the underline is seen.
var HeadingRecognizer = &BlockRecognizer{
	Type:       HeadingType,
	Start:      isHeadingStart,
	Interrupts: isHeadingStart,
	Read:       readHeading,
}

func isHeadingStart(line string) bool { return atxHeadingRegexp.MatchString(chomp(line)) }

func readHeading(_ *BlockContext, r *LineReader) (Block, bool) {
	line := chomp(r.Next())
	m := atxHeadingRegexp.FindStringSubmatchIndex(line)
	indent, hashes := line[m[2]:m[3]], line[m[4]:m[5]]
	rest := line[m[5]:]
	body := strings.TrimLeft(rest, " \t")
	content := body
	if loc := atxHeadingCloserRegexp.FindStringIndex(body); loc != nil {
		content = body[:loc[0]]
	}
	content = strings.TrimRight(content, " \t")
	return &Heading{
		Inline:    Inline{Source: content},
		Level:     len(hashes),
		Indent:    indent,
		Separator: rest[:len(rest)-len(body)],
		Closing:   body[len(content):],
	}, true
}

// ThematicBreakRecognizer recognizes thematic breaks.
var ThematicBreakRecognizer = &BlockRecognizer{
	Type:       ThematicBreakType,
	Start:      isThematicBreak,
	Interrupts: isThematicBreak,
	Read: func(_ *BlockContext, r *LineReader) (Block, bool) {
		return &ThematicBreak{Raw: chomp(r.Next())}, true
	},
}

func isThematicBreak(line string) bool { return thematicBreakRegexp.MatchString(chomp(line)) }

// Paragraphs and blank lines.

// ParagraphRecognizer recognizes paragraphs and setext headings. The block
// tokenizer also uses it for any non-blank line that no registered
// recognizer claims.
var ParagraphRecognizer = &BlockRecognizer{
	Type:  ParagraphType,
	Start: func(line string) bool { return !IsBlank(line) },
	Read:  readParagraph,
}

func readParagraph(ctx *BlockContext, r *LineReader) (Block, bool) {
	indent, first := splitIndent(r.Next(), 3)
	lines := []string{first}
	for r.More() {
		line := r.Peek()
		if IsBlank(line) {
			break
		}
		if m := setextUnderlineRegexp.FindStringSubmatch(chomp(line)); m != nil {
			r.Next()
			source, closing := splitTrailing(strings.Join(lines, ""))
			level := 1
			if m[1][0] == '-' {
				level = 2
			}
			return &Heading{
				Inline:    Inline{Source: source},
				Level:     level,
				Setext:    true,
				Indent:    indent,
				Closing:   closing,
				Underline: chomp(line),
			}, true
		}
		if ctx.Interrupts(line) {
			break
		}
		lines = append(lines, r.Next())
	}
	source, trailing := splitTrailing(strings.Join(lines, ""))
	return &Paragraph{Inline: Inline{Source: source}, Indent: indent, Trailing: trailing}, true
}

// Splits the final newline and the whitespace before it off s.
func splitTrailing(s string) (string, string) {
	s = chomp(s)
	t := strings.TrimRight(s, " \t")
	return t, s[len(t):]
}

// BlankLineRecognizer turns each blank line into a BlankLine node. It is not
// registered by default; renderers that reproduce the source insert it.
var BlankLineRecognizer = &BlockRecognizer{
	Type:  BlankLineType,
	Start: IsBlank,
	Read: func(_ *BlockContext, r *LineReader) (Block, bool) {
		return &BlankLine{Raw: chomp(r.Next())}, true
	},
}

// Container blocks.

// QuoteRecognizer recognizes block quotes.
var QuoteRecognizer = &BlockRecognizer{
	Type:       QuoteType,
	Start:      isQuoteStart,
	Interrupts: isQuoteStart,
	Read:       readQuote,
}

func isQuoteStart(line string) bool { return quoteMarkerRegexp.MatchString(line) }

func readQuote(ctx *BlockContext, r *LineReader) (Block, bool) {
	first := r.LineNumber()
	var prefixes, lines []string
	var fence fenceState
	for r.More() {
		line := r.Peek()
		if m := quoteMarkerRegexp.FindString(line); m != "" {
			prefixes = append(prefixes, m)
			lines = append(lines, line[len(m):])
			fence.feed(stripQuoteMarkers(line[len(m):]))
			r.Next()
			continue
		}
		if len(lines) > 0 && !fence.open() &&
			ctx.ContinuesParagraph(stripQuoteMarkers(lines[len(lines)-1]), line) {
			prefixes = append(prefixes, "")
			lines = append(lines, line)
			fence.feed(line)
			r.Next()
			continue
		}
		break
	}
	return &Quote{Content: ctx.Tokenize(lines, first), Prefixes: prefixes}, true
}

// Strips the markers of nested quotes, so that lazy continuation applies to
// the innermost paragraph.
func stripQuoteMarkers(line string) string {
	for {
		m := quoteMarkerRegexp.FindString(line)
		if m == "" {
			return line
		}
		line = line[len(m):]
	}
}

type listMarker struct {
	leading, marker, spacing string
	ordered                  bool
	number                   int
	delim                    byte
	// Indentation of the item content.
	width int
	// Whether the marker is followed by nothing.
	empty bool
}

func parseListMarker(line string) (listMarker, bool) {
	text := chomp(line)
	m := listMarkerRegexp.FindStringSubmatch(text)
	if m == nil {
		return listMarker{}, false
	}
	lm := listMarker{leading: m[1], marker: m[2], spacing: m[3]}
	lm.empty = IsBlank(text[len(m[0]):])
	if lm.empty || len(lm.spacing) > 4 {
		// Content starts one column after the marker; anything further
		// belongs to the content, so that it can be an indented code block.
		lm.spacing = lm.spacing[:min(len(lm.spacing), 1)]
	}
	lm.width = len(lm.leading) + len(lm.marker) + max(len(lm.spacing), 1)
	if c := lm.marker[len(lm.marker)-1]; c == '.' || c == ')' {
		lm.ordered = true
		lm.delim = c
		lm.number, _ = strconv.Atoi(lm.marker[:len(lm.marker)-1])
	} else {
		lm.delim = c
	}
	return lm, true
}

func (lm listMarker) sameList(other listMarker) bool {
	return lm.ordered == other.ordered && lm.delim == other.delim
}

// Whether a list item can start at line; thematic breaks like "- - -" take
// precedence.
func listItemAt(line string) (listMarker, bool) {
	if isThematicBreak(line) {
		return listMarker{}, false
	}
	return parseListMarker(line)
}

// ListRecognizer recognizes bullet and ordered lists.
var ListRecognizer = &BlockRecognizer{
	Type:  ListType,
	Start: func(line string) bool { _, ok := listItemAt(line); return ok },
	Interrupts: func(line string) bool {
		lm, ok := listItemAt(line)
		return ok && !lm.empty && (!lm.ordered || lm.number == 1)
	},
	Read: readList,
}

type itemLines struct {
	line     int
	prefixes []string
	lines    []string
	fence    fenceState
}

func (it *itemLines) add(prefix, line string) {
	it.prefixes = append(it.prefixes, prefix)
	it.lines = append(it.lines, line)
	it.fence.feed(line)
}

// Whether line can join the item as a lazy continuation line.
func (it *itemLines) lazy(ctx *BlockContext, line string) bool {
	return !it.fence.open() && ctx.ContinuesParagraph(it.lines[len(it.lines)-1], line)
}

func (it *itemLines) trailingBlanks() int {
	n := 0
	for i := len(it.lines) - 1; i > 0 && IsBlank(it.lines[i]); i-- {
		n++
	}
	return n
}

func (it *itemLines) drop(n int) {
	it.prefixes = it.prefixes[:len(it.prefixes)-n]
	it.lines = it.lines[:len(it.lines)-n]
}

// Whether a blank line separates two parts of the item.
func (it *itemLines) hasInnerBlank() bool {
	end := len(it.lines) - it.trailingBlanks()
	for i := 1; i < end; i++ {
		if IsBlank(it.lines[i]) {
			return true
		}
	}
	return false
}

func readList(ctx *BlockContext, r *LineReader) (Block, bool) {
	first, _ := listItemAt(r.Peek())
	list := &List{Ordered: first.ordered, Start: first.number, Delimiter: first.delim}
	for r.More() {
		lm, ok := listItemAt(r.Peek())
		if !ok || !first.sameList(lm) {
			break
		}
		it := readItemLines(ctx, r, lm)
		if it.hasInnerBlank() {
			list.Loose = true
		}
		if n := it.trailingBlanks(); n > 0 {
			if next, ok := listItemAt(r.Peek()); r.More() && ok && first.sameList(next) {
				list.Loose = true
			} else {
				for i := 0; i < n; i++ {
					r.Backup()
				}
				it.drop(n)
			}
		}
		item := &ListItem{
			Content:  ctx.Tokenize(it.lines, it.line),
			Marker:   lm.marker,
			Number:   lm.number,
			Prefixes: it.prefixes,
		}
		stamp(item, it.line)
		list.Items = append(list.Items, item)
	}
	return list, len(list.Items) > 0
}

func readItemLines(ctx *BlockContext, r *LineReader, lm listMarker) *itemLines {
	it := &itemLines{line: r.LineNumber()}
	line := r.Next()
	n := min(len(lm.leading)+len(lm.marker)+len(lm.spacing), len(chomp(line)))
	it.add(line[:n], line[n:])
	for r.More() {
		line := r.Peek()
		switch {
		case IsBlank(line):
			if lm.empty && len(it.lines) == 1 {
				// An item can begin with at most one blank line.
				return it
			}
			it.add(splitIndent(line, lm.width))
		case leadingSpaces(line) >= lm.width:
			it.add(line[:lm.width], line[lm.width:])
		default:
			if _, isItem := parseListMarker(line); isItem || !it.lazy(ctx, line) {
				return it
			}
			it.add("", line)
		}
		r.Next()
	}
	return it
}

// Tables.

// TableRecognizer recognizes pipe tables: a header row, a delimiter row with
// the same number of cells, and body rows up to the first blank line.
var TableRecognizer = &BlockRecognizer{
	Type:  TableType,
	Start: func(line string) bool { return strings.Contains(line, "|") },
	Read:  readTable,
}

func readTable(ctx *BlockContext, r *LineReader) (Block, bool) {
	first := r.LineNumber()
	head := r.Lookahead(2)
	if len(head) < 2 || !tableDelimiterRegexp.MatchString(chomp(head[1])) {
		return nil, false
	}
	aligns := parseAligns(chomp(head[1]))
	header := parseTableRow(head[0], aligns)
	if len(header.Cells) != len(aligns) {
		return nil, false
	}
	stampRow(header, first)
	r.Skip(2)
	t := &Table{Header: header, Aligns: aligns, Delimiter: chomp(head[1])}
	for r.More() {
		line := r.Peek()
		if IsBlank(line) || !strings.Contains(line, "|") || ctx.Interrupts(line) {
			break
		}
		row := parseTableRow(line, aligns)
		stampRow(row, r.LineNumber())
		t.Rows = append(t.Rows, row)
		r.Next()
	}
	return t, true
}

func stampRow(row *TableRow, line int) {
	stamp(row, line)
	for _, c := range row.Cells {
		stamp(c, line)
	}
}

func parseAligns(delim string) []Align {
	segs := splitPipes(trimSpace(delim))
	if len(segs) > 1 && IsBlank(segs[len(segs)-1]) {
		segs = segs[:len(segs)-1]
	}
	if len(segs) > 1 && IsBlank(segs[0]) {
		segs = segs[1:]
	}
	aligns := make([]Align, len(segs))
	for i, seg := range segs {
		seg = trimSpace(seg)
		left, right := strings.HasPrefix(seg, ":"), strings.HasSuffix(seg, ":")
		switch {
		case left && right:
			aligns[i] = AlignCenter
		case left:
			aligns[i] = AlignLeft
		case right:
			aligns[i] = AlignRight
		}
	}
	return aligns
}

func parseTableRow(line string, aligns []Align) *TableRow {
	text := chomp(line)
	n := len(text) - len(strings.TrimLeft(text, " \t"))
	row := &TableRow{Indent: text[:n]}
	body := text[n:]
	segs := splitPipes(body)
	leading := strings.HasPrefix(body, "|")
	// A lone pipe is a leading pipe, not a trailing one as well.
	if len(segs) > 1+b2i(leading) && IsBlank(segs[len(segs)-1]) {
		row.TrailingPipe = true
		row.Trailing = segs[len(segs)-1]
		segs = segs[:len(segs)-1]
	}
	if leading {
		row.LeadingPipe = true
		segs = segs[1:]
	}
	for i, seg := range segs {
		content := trimSpace(seg)
		pre := seg[:len(seg)-len(strings.TrimLeft(seg, " \t"))]
		cell := &TableCell{
			Inline: Inline{Source: content},
			Pre:    pre,
			Post:   seg[len(pre)+len(content):],
		}
		if i < len(aligns) {
			cell.Align = aligns[i]
		}
		row.Cells = append(row.Cells, cell)
	}
	return row
}

// Splits s on pipes that are not escaped with a backslash.
func splitPipes(s string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '|':
			segs = append(segs, s[start:i])
			start = i + 1
		}
	}
	return append(segs, s[start:])
}

// Definitions.

// FootnoteRecognizer recognizes footnote definitions and records them in the
// Document without adding a node to the tree.
var FootnoteRecognizer = &BlockRecognizer{
	Type:  FootnoteType,
	Start: isFootnoteStart,
	Read:  footnoteReader(false),
}

// FootnoteBlockRecognizer is like FootnoteRecognizer, but keeps the
// definition in the tree as well. It is not registered by default.
var FootnoteBlockRecognizer = &BlockRecognizer{
	Type:  FootnoteBlockType,
	Start: isFootnoteStart,
	Read:  footnoteReader(true),
}

func isFootnoteStart(line string) bool { return footnoteDefRegexp.MatchString(line) }

func footnoteReader(keep bool) func(*BlockContext, *LineReader) (Block, bool) {
	return func(ctx *BlockContext, r *LineReader) (Block, bool) {
		first := r.LineNumber()
		line := r.Next()
		m := footnoteDefRegexp.FindStringSubmatch(line)
		it := &itemLines{line: first}
		it.add(m[0], line[len(m[0]):])
	lines:
		for r.More() {
			line := r.Peek()
			switch {
			case IsBlank(line):
				it.add(splitIndent(line, 4))
			case leadingSpaces(line) >= 4:
				it.add(line[:4], line[4:])
			case !isFootnoteStart(line) && !linkDefRegexp.MatchString(line) &&
				it.lazy(ctx, line):
				it.add("", line)
			default:
				break lines
			}
			r.Next()
		}
		if n := it.trailingBlanks(); n > 0 {
			for i := 0; i < n; i++ {
				r.Backup()
			}
			it.drop(n)
		}
		def := &FootnoteDefinition{
			Label:    m[1],
			Content:  ctx.Tokenize(it.lines, first),
			Prefixes: it.prefixes,
		}
		stamp(def, first)
		if !ctx.Document.RegisterFootnote(def.Label, def) {
			logger.Printf("line %d: footnote %q already defined", first, def.Label)
		}
		if keep {
			return def, true
		}
		return nil, true
	}
}

// LinkDefinitionRecognizer recognizes link reference definitions and records
// them in the Document without adding a node to the tree.
var LinkDefinitionRecognizer = &BlockRecognizer{
	Type:  LinkDefinitionType,
	Start: isLinkDefinitionStart,
	Read:  linkDefinitionReader(false),
}

// LinkDefinitionBlockRecognizer is like LinkDefinitionRecognizer, but keeps
// the definition in the tree as well. It is not registered by default.
var LinkDefinitionBlockRecognizer = &BlockRecognizer{
	Type:  LinkDefinitionBlockType,
	Start: isLinkDefinitionStart,
	Read:  linkDefinitionReader(true),
}

func isLinkDefinitionStart(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " "), "[") && leadingSpaces(line) < 4
}

// Definitions may span up to this many lines: label, destination and title
// each on their own line.
const linkDefMaxLines = 3

func linkDefinitionReader(keep bool) func(*BlockContext, *LineReader) (Block, bool) {
	return func(ctx *BlockContext, r *LineReader) (Block, bool) {
		first := r.LineNumber()
		m := linkDefRegexp.FindStringSubmatch(strings.Join(r.Lookahead(linkDefMaxLines), ""))
		// Labels starting with "^" belong to footnote definitions.
		if m == nil || len(m[1]) > 999 || IsBlank(m[1]) || m[1][0] == '^' {
			return nil, false
		}
		n := strings.Count(m[0], "\n")
		lines := append([]string(nil), r.Lookahead(n)...)
		r.Skip(n)
		def := &LinkDefinition{
			Label:  m[1],
			Target: unescapeDestination(m[2]),
			Title:  unescapeTitle(m[3]),
			Lines:  lines,
		}
		if !ctx.Document.RegisterLinkReference(def.Label, def.Target, def.Title, first) {
			logger.Printf("line %d: link reference %q already defined", first, def.Label)
		}
		if keep {
			return def, true
		}
		return nil, true
	}
}

func unescapeDestination(s string) string {
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		s = s[1 : len(s)-1]
	}
	return unescape(s)
}

func unescapeTitle(s string) string {
	if len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	return unescape(s)
}

// Resolves backslash escapes and entity references.
func unescape(s string) string {
	if !strings.ContainsAny(s, `\&`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isASCIIPunct(s[i+1]) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return html.UnescapeString(sb.String())
}

// Raw HTML.

type htmlBlockKind struct {
	start *regexp.Regexp
	// Matches the line that ends the block; nil means the block ends before a
	// blank line.
	closer *regexp.Regexp
	// Whether the block can interrupt a paragraph.
	interrupts bool
}

const (
	openTag = `<` +
		`[a-zA-Z][a-zA-Z0-9-]*` + // tag name
		(`(?:` +
			`[ \t\n]+` + // whitespace
			`[a-zA-Z_:][a-zA-Z0-9_\.:-]*` + // attribute name
			`(?:[ \t\n]*=[ \t\n]*(?:[^ \t\n"'=<>` + "`" + `]+|'[^']*'|"[^"]*"))?` + // attribute value
			`)*`) +
		`[ \t\n]*` +
		`/?>`
	closingTag = `</[a-zA-Z][a-zA-Z0-9-]*[ \t\n]*>`
)

var htmlBlockKinds = []htmlBlockKind{
	{regexp.MustCompile(`^ {0,3}<(?i:pre|script|style|textarea)(?:[ \t>]|$)`),
		regexp.MustCompile(`</(?i:pre|script|style|textarea)>`), true},
	{regexp.MustCompile(`^ {0,3}<!--`), regexp.MustCompile(`-->`), true},
	{regexp.MustCompile(`^ {0,3}<\?`), regexp.MustCompile(`\?>`), true},
	{regexp.MustCompile(`^ {0,3}<![a-zA-Z]`), regexp.MustCompile(`>`), true},
	{regexp.MustCompile(`^ {0,3}<!\[CDATA\[`), regexp.MustCompile(`\]\]>`), true},
	{regexp.MustCompile(`^ {0,3}</?(?i:address|article|aside|base|basefont|blockquote|body|caption|center|col|colgroup|dd|details|dialog|dir|div|dl|dt|fieldset|figcaption|figure|footer|form|frame|frameset|h1|h2|h3|h4|h5|h6|head|header|hr|html|iframe|legend|li|link|main|menu|menuitem|nav|noframes|ol|optgroup|option|p|param|section|source|summary|table|tbody|td|tfoot|th|thead|title|tr|track|ul)(?:[ \t>]|$|/>)`),
		nil, true},
	{regexp.MustCompile(fmt.Sprintf(`^ {0,3}(?:%s|%s)[ \t]*$`, openTag, closingTag)),
		nil, false},
}

func findHTMLBlockKind(line string) *htmlBlockKind {
	line = chomp(line)
	for i := range htmlBlockKinds {
		if htmlBlockKinds[i].start.MatchString(line) {
			return &htmlBlockKinds[i]
		}
	}
	return nil
}

// HTMLBlockRecognizer recognizes blocks of raw HTML. It is not registered by
// default.
var HTMLBlockRecognizer = &BlockRecognizer{
	Type:  HTMLBlockType,
	Start: func(line string) bool { return findHTMLBlockKind(line) != nil },
	Interrupts: func(line string) bool {
		k := findHTMLBlockKind(line)
		return k != nil && k.interrupts
	},
	Read: readHTMLBlock,
}

func readHTMLBlock(_ *BlockContext, r *LineReader) (Block, bool) {
	kind := findHTMLBlockKind(r.Peek())
	b := &HTMLBlock{}
	for r.More() {
		line := r.Peek()
		if kind.closer == nil && IsBlank(line) {
			break
		}
		b.Lines = append(b.Lines, r.Next())
		if kind.closer != nil && kind.closer.MatchString(line) {
			break
		}
	}
	return b, true
}
