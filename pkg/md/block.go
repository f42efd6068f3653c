package md

// BlockRecognizer describes a block-level construct.
type BlockRecognizer struct {
	// Type names the construct. It identifies the recognizer in a registry.
	Type string
	// Start reports whether the construct may start at line.
	Start func(line string) bool
	// Interrupts reports whether the construct starting at line ends a
	// paragraph without an intervening blank line. Nil means it never does.
	Interrupts func(line string) bool
	// Read consumes the construct from r, whose next line is the one Start
	// accepted. It returns false to decline, in which case r is rewound and
	// the next recognizer is tried. It may return true and a nil Block to
	// consume lines without producing a node.
	Read func(ctx *BlockContext, r *LineReader) (Block, bool)
}

// BlockContext is passed to block recognizers. It gives access to the
// session, for recursive tokenization, and to the Document being built.
type BlockContext struct {
	Session  *Session
	Document *Document
	// Depth is the number of containers enclosing the lines being read; it
	// is 0 for the top-level blocks of a document.
	Depth int
}

// Tokenize runs the block tokenizer on lines whose first line has the given
// 1-based line number. Containers use this to tokenize their content with the
// same recognizers as the top level.
func (ctx *BlockContext) Tokenize(lines []string, firstLine int) []Block {
	inner := *ctx
	inner.Depth++
	return ctx.Session.tokenizeBlocks(&inner, lines, firstLine)
}

// Interrupts reports whether any registered recognizer can start at line
// and interrupt a paragraph.
func (ctx *BlockContext) Interrupts(line string) bool {
	for _, r := range ctx.Session.blocks {
		if r.Interrupts != nil && r.Interrupts(line) {
			return true
		}
	}
	return false
}

// ContinuesParagraph reports whether line, following prev, is a lazy
// continuation line: both are non-blank, prev looks like paragraph text and
// line does not interrupt it. Containers use this to accept lines that lack
// their continuation markers. It only looks at prev, so containers also
// refuse lazy lines while a code fence among their lines is open.
func (ctx *BlockContext) ContinuesParagraph(prev, line string) bool {
	return !IsBlank(prev) && !IsBlank(line) && leadingSpaces(prev) < 4 &&
		!ctx.Interrupts(prev) && !ctx.Interrupts(line)
}

func (s *Session) tokenizeBlocks(ctx *BlockContext, lines []string, firstLine int) []Block {
	r := NewLineReader(lines, firstLine)
	recognizers := s.blocks
	var blocks []Block
	for r.More() {
		line := r.Peek()
		matched := false
		for _, rec := range recognizers {
			if !rec.Start(line) {
				continue
			}
			if b, ok := readBlock(ctx, rec, r); ok {
				if b != nil {
					blocks = append(blocks, b)
				}
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if IsBlank(line) {
			r.Next()
			continue
		}
		// Text no registered recognizer wants becomes a paragraph, even when
		// the paragraph recognizer itself has been removed.
		if b, ok := readBlock(ctx, ParagraphRecognizer, r); ok && b != nil {
			blocks = append(blocks, b)
		} else {
			r.Next()
		}
	}
	return blocks
}

// Runs one recognizer, rewinding the reader if it declines or fails to make
// progress, and stamping the node with the line it starts on.
func readBlock(ctx *BlockContext, rec *BlockRecognizer, r *LineReader) (Block, bool) {
	start := r.pos
	line := r.LineNumber()
	b, ok := rec.Read(ctx, r)
	if !ok || r.pos <= start {
		r.pos = start
		return nil, false
	}
	if b != nil {
		stamp(b, line)
	}
	return b, true
}
