package md

import "strings"

// Document is the root of a parsed tree. Besides its top-level blocks, it
// stores the footnote and link reference definitions found anywhere in the
// source, so that references resolve regardless of where the definition
// appears.
//
// The definition maps are only written while the document is being parsed.
// A Document returned by Session.Parse is never mutated again and may be read
// from multiple goroutines.
//
// When a label is defined more than once, the first definition wins.
type Document struct {
	BlockBase
	Content []Block
	// Footnotes maps normalized labels to footnote definitions.
	Footnotes map[string]*FootnoteDefinition
	// LinkReferences maps normalized labels to link reference definitions.
	LinkReferences map[string]LinkReference
	// Meta holds document metadata contributed by extensions, such as front
	// matter.
	Meta map[string]any
}

// LinkReference is the target of a link reference definition.
type LinkReference struct {
	Target string
	Title  string
	// Line is the line where the definition starts.
	Line int
}

// NewDocument returns an empty Document.
func NewDocument() *Document {
	return &Document{
		Footnotes:      make(map[string]*FootnoteDefinition),
		LinkReferences: make(map[string]LinkReference),
		Meta:           make(map[string]any),
	}
}

func (d *Document) Children() []Node { return blockNodes(d.Content) }

// RegisterFootnote records a footnote definition. It returns false if the
// label was already defined, in which case the earlier definition is kept.
func (d *Document) RegisterFootnote(label string, def *FootnoteDefinition) bool {
	key := NormalizeLabel(label)
	if _, ok := d.Footnotes[key]; ok {
		return false
	}
	d.Footnotes[key] = def
	return true
}

// RegisterLinkReference records a link reference definition. It returns false
// if the label was already defined, in which case the earlier definition is
// kept.
func (d *Document) RegisterLinkReference(label, target, title string, line int) bool {
	key := NormalizeLabel(label)
	if _, ok := d.LinkReferences[key]; ok {
		return false
	}
	d.LinkReferences[key] = LinkReference{target, title, line}
	return true
}

// ResolveFootnote looks up a footnote definition. A missing definition is not
// an error; it is up to the caller to decide how to display the reference.
func (d *Document) ResolveFootnote(label string) (*FootnoteDefinition, bool) {
	def, ok := d.Footnotes[NormalizeLabel(label)]
	return def, ok
}

// ResolveLinkReference looks up a link reference definition. A missing
// definition is not an error; it is up to the caller to decide how to display
// the reference.
func (d *Document) ResolveLinkReference(label string) (LinkReference, bool) {
	ref, ok := d.LinkReferences[NormalizeLabel(label)]
	return ref, ok
}

// ResolveLink returns the destination of a Link, resolving reference forms
// through the document.
func (d *Document) ResolveLink(l *Link) (target, title string, ok bool) {
	if l.Form == InlineLink {
		return l.Target, l.Title, true
	}
	ref, ok := d.ResolveLinkReference(l.Label)
	return ref.Target, ref.Title, ok
}

// ResolveImage is like ResolveLink, but for images.
func (d *Document) ResolveImage(i *Image) (target, title string, ok bool) {
	if i.Form == InlineLink {
		return i.Target, i.Title, true
	}
	ref, ok := d.ResolveLinkReference(i.Label)
	return ref.Target, ref.Title, ok
}

// NormalizeLabel normalizes a link or footnote label for matching: runs of
// whitespace become a single space, leading and trailing whitespace is
// removed, and case is folded.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.ToUpper(strings.Join(strings.Fields(label), " ")))
}
