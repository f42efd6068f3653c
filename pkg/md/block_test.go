package md_test

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "src.mdtree.dev/pkg/md"
	"src.mdtree.dev/pkg/testutil"
)

var parseTraceTests = []struct {
	name     string
	markdown string
	trace    string
}{
	{
		name:     "heading and paragraph",
		markdown: "# Title\n\nSome *emphasis* and **strong**.\n",
		trace: `
			Document line=1
			  Heading line=1 Level=1
			    RawText "Title"
			  Paragraph line=3
			    RawText "Some "
			    Emphasis
			      RawText "emphasis"
			    RawText " and "
			    Strong
			      RawText "strong"
			    RawText "."
			`,
	},
	{
		name: "nested containers and a table",
		markdown: "# Title\n" +
			"\n" +
			"> quoted\n" +
			"> > nested\n" +
			"\n" +
			"- one\n" +
			"- two\n" +
			"  - inner\n" +
			"\n" +
			"| a | b |\n" +
			"| - | - |\n" +
			"| 1 | 2 |\n",
		trace: `
			Document line=1
			  Heading line=1 Level=1
			    RawText "Title"
			  Quote line=3
			    Paragraph line=3
			      RawText "quoted"
			    Quote line=4
			      Paragraph line=4
			        RawText "nested"
			  List line=6 Delimiter='-'
			    ListItem line=6 Marker="-"
			      Paragraph line=6
			        RawText "one"
			    ListItem line=7 Marker="-"
			      Paragraph line=7
			        RawText "two"
			      List line=8 Delimiter='-'
			        ListItem line=8 Marker="-"
			          Paragraph line=8
			            RawText "inner"
			  Table line=10 Columns=2
			    TableRow line=10
			      TableCell line=10
			        RawText "a"
			      TableCell line=10
			        RawText "b"
			    TableRow line=12
			      TableCell line=12
			        RawText "1"
			      TableCell line=12
			        RawText "2"
			`,
	},
	{
		name: "setext heading, code and thematic break",
		markdown: "Title\n" +
			"=====\n" +
			"\n" +
			"```go\n" +
			"code\n" +
			"```\n" +
			"\n" +
			"    indented\n" +
			"\n" +
			"***\n",
		trace: `
			Document line=1
			  Heading line=1 Level=1 Setext
			    RawText "Title"
			  CodeFence line=4 Info="go" Code="code\n"
			  CodeBlock line=8 Code="indented\n"
			  ThematicBreak line=10
			`,
	},
	{
		name:     "unclosed code fence runs to the end",
		markdown: "~~~\na\n",
		trace: `
			Document line=1
			  CodeFence line=1 Info="" Code="a\n" MissingCloser
			`,
	},
	{
		name:     "loose ordered list",
		markdown: "1. a\n\n2. b\n",
		trace: `
			Document line=1
			  List line=1 Delimiter='.' Start=1 Loose
			    ListItem line=1 Marker="1."
			      Paragraph line=1
			        RawText "a"
			    ListItem line=3 Marker="2."
			      Paragraph line=3
			        RawText "b"
			`,
	},
	{
		name:     "lazy continuation in a quote",
		markdown: "> a\nb\n",
		trace: `
			Document line=1
			  Quote line=1
			    Paragraph line=1
			      RawText "a"
			      LineBreak
			      RawText "b"
			`,
	},
	{
		name:     "no lazy continuation inside a fence in a quote",
		markdown: "> ```\n> x\ny\n",
		trace: `
			Document line=1
			  Quote line=1
			    CodeFence line=1 Info="" Code="x\n" MissingCloser
			  Paragraph line=3
			    RawText "y"
			`,
	},
	{
		name:     "no lazy continuation inside a fence in a list item",
		markdown: "- ```\n  foo\nbar\n  ```\n",
		trace: `
			Document line=1
			  List line=1 Delimiter='-'
			    ListItem line=1 Marker="-"
			      CodeFence line=1 Info="" Code="foo\n" MissingCloser
			  Paragraph line=3
			    RawText "bar"
			  CodeFence line=4 Info="" Code="" MissingCloser
			`,
	},
	{
		name:     "lazy continuation after a closed fence in a quote",
		markdown: "> ```\n> x\n> ```\n> a\nb\n",
		trace: `
			Document line=1
			  Quote line=1
			    CodeFence line=1 Info="" Code="x\n"
			    Paragraph line=4
			      RawText "a"
			      LineBreak
			      RawText "b"
			`,
	},
	{
		name:     "a table without a delimiter row is a paragraph",
		markdown: "a | b\nc | d\n",
		trace: `
			Document line=1
			  Paragraph line=1
			    RawText "a | b"
			    LineBreak
			    RawText "c | d"
			`,
	},
	{
		name:     "definitions do not appear in the tree",
		markdown: "[^1]: note\n[x]: /url\n\ntext\n",
		trace: `
			Document line=1
			  Paragraph line=4
			    RawText "text"
			`,
	},
}

func TestParse_Trace(t *testing.T) {
	for _, tc := range parseTraceTests {
		t.Run(tc.name, func(t *testing.T) {
			doc := Parse(tc.markdown)
			if diff := cmp.Diff(testutil.Dedent(tc.trace), Trace(doc)); diff != "" {
				t.Errorf("Trace(Parse(%q)) (-want +got):\n%s", tc.markdown, diff)
			}
		})
	}
}

func TestParse_ATXHeadingClosingSequence(t *testing.T) {
	doc := Parse("  ## Title ##  \n")
	h := doc.Content[0].(*Heading)
	got := []string{h.Indent, h.Separator, h.Source, h.Closing}
	want := []string{"  ", " ", "Title", " ##  "}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestParse_TableRowWithLonePipe(t *testing.T) {
	doc := Parse("| a | b |\n| - | - |\n|\n")
	row := doc.Content[0].(*Table).Rows[0]
	if !row.LeadingPipe || row.TrailingPipe || len(row.Cells) != 1 {
		t.Errorf("got LeadingPipe=%v TrailingPipe=%v and %d cells, want true, false and 1",
			row.LeadingPipe, row.TrailingPipe, len(row.Cells))
	}
}

func TestParse_TableHeaderIsNotAChild(t *testing.T) {
	doc := Parse("intro\n\n| l | c | r |\n|:--|:-:|--:|\n| 1 | 2 | 3 |\n")
	table := doc.Content[1].(*Table)
	if table.Header == nil {
		t.Fatal("table has no header")
	}
	if line := table.Header.Line(); line != 3 {
		t.Errorf("header line = %d, want 3", line)
	}
	for _, c := range table.Children() {
		if c == Node(table.Header) {
			t.Errorf("header is among the children")
		}
	}
	if n := len(table.Children()); n != 1 {
		t.Errorf("got %d children, want 1", n)
	}
	if diff := cmp.Diff([]Align{AlignLeft, AlignCenter, AlignRight}, table.Aligns); diff != "" {
		t.Errorf("aligns (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Span{&RawText{Content: "c"}}, table.Header.Cells[1].Content); diff != "" {
		t.Errorf("header cell content (-want +got):\n%s", diff)
	}
}

func TestParse_DefinitionsResolveInAnyOrder(t *testing.T) {
	doc := Parse("See [the docs][docs] and a note[^1].\n" +
		"\n" +
		"[^1]: The note.\n" +
		"[docs]: https://example.com \"Docs\"\n")

	link := doc.Content[0].(*Paragraph).Content[1].(*Link)
	target, title, ok := doc.ResolveLink(link)
	if !ok || target != "https://example.com" || title != "Docs" {
		t.Errorf("ResolveLink -> %q, %q, %v", target, title, ok)
	}
	ref, _ := doc.ResolveLinkReference("DOCS")
	if ref.Line != 4 {
		t.Errorf("definition line = %d, want 4", ref.Line)
	}

	def, ok := doc.ResolveFootnote("1")
	if !ok {
		t.Fatal("footnote 1 not found")
	}
	if def.Line() != 3 {
		t.Errorf("footnote line = %d, want 3", def.Line())
	}
	want := []Span{&RawText{Content: "The note."}}
	if diff := cmp.Diff(want, def.Content[0].(*Paragraph).Content); diff != "" {
		t.Errorf("footnote content (-want +got):\n%s", diff)
	}
}

func TestParse_FirstDefinitionWins(t *testing.T) {
	doc := Parse("[a]: /first\n[A]: /second\n\n[a]\n")
	ref, ok := doc.ResolveLinkReference("a")
	if !ok || ref.Target != "/first" {
		t.Errorf("got %v, %v, want /first", ref, ok)
	}
}

func TestParse_UnresolvedReferenceIsNotAnError(t *testing.T) {
	doc := Parse("[missing] and [^nope]\n")
	link := doc.Content[0].(*Paragraph).Content[0].(*Link)
	if _, _, ok := doc.ResolveLink(link); ok {
		t.Errorf("missing reference resolved")
	}
	if _, ok := doc.ResolveFootnote("nope"); ok {
		t.Errorf("missing footnote resolved")
	}
}

func TestParse_DefinitionInsideContainerRegistersInDocument(t *testing.T) {
	doc := Parse("> [x]: /url\n\n[x]\n")
	if _, ok := doc.ResolveLinkReference("x"); !ok {
		t.Errorf("definition inside a quote was not registered")
	}
}

func TestParseLines_NormalizesLineEndings(t *testing.T) {
	want := Trace(Parse("# a\nb\n"))
	got := Trace(NewSession().ParseLines([]string{"# a", "b\r\n"}))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestParse_HTMLBlock(t *testing.T) {
	s := NewSession()
	if err := s.AddBlockRecognizer(HTMLBlockRecognizer); err != nil {
		t.Fatal(err)
	}
	doc := s.Parse("<div>\nhi\n</div>\n\npara\n")
	html := doc.Content[0].(*HTMLBlock)
	if diff := cmp.Diff([]string{"<div>\n", "hi\n", "</div>\n"}, html.Lines); diff != "" {
		t.Errorf("HTML block lines (-want +got):\n%s", diff)
	}
	if line := doc.Content[1].Line(); line != 5 {
		t.Errorf("paragraph line = %d, want 5", line)
	}
}

func TestParse_VisibleDefinitions(t *testing.T) {
	s := NewSession()
	for _, r := range []*BlockRecognizer{
		BlankLineRecognizer, LinkDefinitionBlockRecognizer, FootnoteBlockRecognizer,
	} {
		if err := s.AddBlockRecognizer(r); err != nil {
			t.Fatal(err)
		}
	}
	doc := s.Parse("[x]: /url 'T'\n\n[^n]: note\n")
	ld := doc.Content[0].(*LinkDefinition)
	if ld.Title != "T" || ld.Target != "/url" {
		t.Errorf("link definition = %+v", ld)
	}
	if _, ok := doc.Content[1].(*BlankLine); !ok {
		t.Errorf("second block is %T, want *BlankLine", doc.Content[1])
	}
	fd := doc.Content[2].(*FootnoteDefinition)
	if fd.Line() != 3 {
		t.Errorf("footnote definition line = %d, want 3", fd.Line())
	}
	if _, ok := doc.ResolveFootnote("n"); !ok {
		t.Errorf("visible footnote definition was not registered")
	}
}

// Every block that has a code span as a direct child expects to start on the
// line named by the span; a visible link definition names it in its title.
var lineNumbersSample = "# Heading `1`\n" +
	"\n" +
	"Paragraph `3`\n" +
	"continued.\n" +
	"\n" +
	"> Quote paragraph `6`\n" +
	">\n" +
	"> | h `8` | h `8` |\n" +
	"> | ----- | ----- |\n" +
	"> | c `10` | c `10` |\n" +
	"\n" +
	"- item paragraph `12`\n" +
	"\n" +
	"  | h `14` |\n" +
	"  | ------ |\n" +
	"  | c `16` |\n" +
	"  | c `17` |\n" +
	"\n" +
	"<div>\n" +
	"<span>html</span>\n" +
	"</div>\n" +
	"\n" +
	"Setext `23`\n" +
	"------\n" +
	"\n" +
	"[label]: /url \"26\"\n" +
	"\n" +
	"1. outer `28`\n" +
	"   - inner `29`\n" +
	"     > deep quote `30`\n" +
	"\n" +
	"Text with <em>html</em> `32`\n"

func TestParse_LineNumbers(t *testing.T) {
	s := NewSession()
	testutil.Must(s.AddBlockRecognizer(HTMLBlockRecognizer))
	testutil.Must(s.AddSpanRecognizer(HTMLSpanRecognizer))
	testutil.Must(s.RemoveBlockRecognizer(FootnoteType))
	testutil.Must(s.AddBlockRecognizer(LinkDefinitionBlockRecognizer))
	doc := s.Parse(lineNumbersSample)

	checked := 0
	Walk(doc, func(n Node) bool {
		b, ok := n.(Block)
		if !ok {
			return true
		}
		want, ok := expectedLine(t, b)
		if !ok {
			return true
		}
		checked++
		if b.Line() != want {
			t.Errorf("%T starts on line %d, want %d", b, b.Line(), want)
		}
		return true
	})
	if checked != 17 {
		t.Errorf("checked %d line numbers, want 17", checked)
	}
}

func expectedLine(t *testing.T, b Block) (int, bool) {
	t.Helper()
	if def, ok := b.(*LinkDefinition); ok {
		return testutil.Must1(strconv.Atoi(def.Title)), true
	}
	for _, c := range b.Children() {
		if code, ok := c.(*CodeSpan); ok {
			n, err := strconv.Atoi(code.Code())
			if err != nil {
				t.Fatalf("code span %q is not a line number", code.Code())
			}
			return n, true
		}
	}
	return 0, false
}
