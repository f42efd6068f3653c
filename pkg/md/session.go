// Package md implements an extensible Markdown tokenizer.
//
// A Session holds ordered lists of block and span recognizers. Parsing runs
// in two phases: the block tokenizer first reads the line structure of the
// whole document, recording footnote and link reference definitions in the
// Document as it finds them; then the span tokenizer turns the inline source
// of every leaf block into span nodes. Renderers read the finished tree.
//
// Recognizers are tried in registry order and the first match wins.
// Extensions insert their own recognizers, usually through a Scope, ahead of
// the built-in ones.
//
// A Session is not safe for concurrent use. Sessions are cheap to create, so
// concurrent parses should each use their own.
package md

import (
	"errors"
	"fmt"
	"slices"

	"src.mdtree.dev/pkg/logutil"
)

var logger = logutil.GetLogger("[md] ")

// Errors returned when mutating the recognizer registries.
var (
	ErrRecognizerNotFound  = errors.New("recognizer not registered")
	ErrDuplicateRecognizer = errors.New("recognizer already registered")
	ErrReservedPosition    = errors.New("span position 0 is reserved for escapes")
)

// Session is a parsing session. The zero value is not usable; use NewSession.
type Session struct {
	blocks   []*BlockRecognizer
	spans    []*SpanRecognizer
	fallback *SpanRecognizer
	// Fallbacks installed by open scopes; the last one is in effect.
	scopedFallbacks []scopedFallback
	// Document being parsed; only non-nil during Parse.
	doc *Document
}

// NewSession creates a Session with the default recognizers.
func NewSession() *Session {
	s := &Session{}
	s.Reset()
	return s
}

// Parse parses a Markdown text using a new Session with the default
// recognizers.
func Parse(text string) *Document { return NewSession().Parse(text) }

// TokenizeInner tokenizes inline text using a new Session with the default
// recognizers.
func TokenizeInner(text string) []Span { return NewSession().TokenizeInner(text) }

// Reset discards all registrations and restores the default recognizers and
// the default fallback.
func (s *Session) Reset() {
	s.blocks = DefaultBlockRecognizers()
	s.spans = DefaultSpanRecognizers()
	s.fallback = DefaultFallback()
	s.scopedFallbacks = nil
}

// Parse parses text into a Document.
func (s *Session) Parse(text string) *Document {
	return s.parse(SplitLines(text))
}

// ParseLines parses text that has already been split into lines. Lines
// without a trailing newline get one.
func (s *Session) ParseLines(lines []string) *Document {
	return s.parse(normalizeLines(lines))
}

func (s *Session) parse(lines []string) *Document {
	doc := NewDocument()
	s.doc = doc
	defer func() { s.doc = nil }()

	ctx := &BlockContext{Session: s, Document: doc}
	doc.Content = s.tokenizeBlocks(ctx, lines, 1)
	if len(lines) > 0 {
		stamp(doc, 1)
	}
	s.tokenizeInlines(doc, doc)
	return doc
}

// Document returns the Document being parsed. It returns nil outside of
// Parse and ParseLines.
func (s *Session) Document() *Document { return s.doc }

// TokenizeBlocks tokenizes lines into blocks, including their inline
// content. Definitions found in the lines are recorded in a scratch Document
// that is then discarded.
func (s *Session) TokenizeBlocks(lines []string) []Block {
	doc := NewDocument()
	ctx := &BlockContext{Session: s, Document: doc}
	blocks := s.tokenizeBlocks(ctx, normalizeLines(lines), 1)
	for _, b := range blocks {
		s.tokenizeInlines(b, doc)
	}
	return blocks
}

// TokenizeInner tokenizes a run of inline text.
func (s *Session) TokenizeInner(text string) []Span {
	return s.tokenizeSpans(text)
}

// Runs the second phase of parsing on all leaf blocks under n, and on
// footnote definitions that are not part of the tree.
func (s *Session) tokenizeInlines(n Node, doc *Document) {
	visit := func(n Node) bool {
		if h, ok := n.(inlineHolder); ok {
			in := h.inline()
			if !in.tokenized {
				in.Content = s.tokenizeSpans(in.Source)
				in.tokenized = true
			}
		}
		return true
	}
	Walk(n, visit)
	for _, def := range doc.Footnotes {
		Walk(def, visit)
	}
}

// BlockTypes returns the types of the registered block recognizers, in order.
func (s *Session) BlockTypes() []string {
	types := make([]string, len(s.blocks))
	for i, r := range s.blocks {
		types[i] = r.Type
	}
	return types
}

// SpanTypes returns the types of the registered span recognizers, in order.
func (s *Session) SpanTypes() []string {
	types := make([]string, len(s.spans))
	for i, r := range s.spans {
		types[i] = r.Type
	}
	return types
}

// Fallback returns the fallback span recognizer in effect.
func (s *Session) Fallback() *SpanRecognizer {
	if n := len(s.scopedFallbacks); n > 0 {
		return s.scopedFallbacks[n-1].rec
	}
	return s.fallback
}

// SetFallback replaces the fallback span recognizer and returns the old one.
// A fallback installed by an open Scope stays in effect until the Scope is
// closed.
func (s *Session) SetFallback(r *SpanRecognizer) *SpanRecognizer {
	if r == nil {
		panic("md: nil fallback recognizer")
	}
	old := s.fallback
	s.fallback = r
	return old
}

// AddBlockRecognizer inserts a block recognizer at the front, so that it takes
// precedence over all registered ones.
func (s *Session) AddBlockRecognizer(r *BlockRecognizer) error {
	return s.InsertBlockRecognizer(r, 0)
}

// InsertBlockRecognizer inserts a block recognizer at the given position.
// Positions out of range are clamped.
func (s *Session) InsertBlockRecognizer(r *BlockRecognizer, pos int) error {
	if indexOf(s.blocks, r.Type) != -1 {
		return fmt.Errorf("%w: block %s", ErrDuplicateRecognizer, r.Type)
	}
	pos = clamp(pos, 0, len(s.blocks))
	s.blocks = slices.Insert(s.blocks, pos, r)
	logger.Printf("block recognizer %s inserted at %d", r.Type, pos)
	return nil
}

// RemoveBlockRecognizer removes the block recognizer with the given type.
func (s *Session) RemoveBlockRecognizer(typ string) error {
	i := indexOf(s.blocks, typ)
	if i == -1 {
		return fmt.Errorf("%w: block %s", ErrRecognizerNotFound, typ)
	}
	s.blocks = slices.Delete(s.blocks, i, i+1)
	logger.Printf("block recognizer %s removed", typ)
	return nil
}

// AddSpanRecognizer inserts a span recognizer at position 1, right after the
// escape recognizer, so that it takes precedence over all other registered
// ones.
func (s *Session) AddSpanRecognizer(r *SpanRecognizer) error {
	return s.InsertSpanRecognizer(r, 1)
}

// InsertSpanRecognizer inserts a span recognizer at the given position.
// Position 0 is reserved for escapes and is rejected with
// ErrReservedPosition; positions past the end are clamped.
func (s *Session) InsertSpanRecognizer(r *SpanRecognizer, pos int) error {
	if pos <= 0 {
		return fmt.Errorf("%w: span %s", ErrReservedPosition, r.Type)
	}
	if indexOf(s.spans, r.Type) != -1 {
		return fmt.Errorf("%w: span %s", ErrDuplicateRecognizer, r.Type)
	}
	pos = clamp(pos, 0, len(s.spans))
	s.spans = slices.Insert(s.spans, pos, r)
	logger.Printf("span recognizer %s inserted at %d", r.Type, pos)
	return nil
}

// RemoveSpanRecognizer removes the span recognizer with the given type.
func (s *Session) RemoveSpanRecognizer(typ string) error {
	i := indexOf(s.spans, typ)
	if i == -1 {
		return fmt.Errorf("%w: span %s", ErrRecognizerNotFound, typ)
	}
	s.spans = slices.Delete(s.spans, i, i+1)
	logger.Printf("span recognizer %s removed", typ)
	return nil
}

type typed interface {
	*BlockRecognizer | *SpanRecognizer
}

func indexOf[T typed](rs []T, typ string) int {
	return slices.IndexFunc(rs, func(r T) bool { return typeOf(r) == typ })
}

func typeOf[T typed](r T) string {
	switch r := any(r).(type) {
	case *BlockRecognizer:
		return r.Type
	case *SpanRecognizer:
		return r.Type
	}
	panic("unreachable")
}

func clamp(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}
