package mdhtml_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"src.mdtree.dev/pkg/md"
	. "src.mdtree.dev/pkg/md/mdhtml"
	"src.mdtree.dev/pkg/testutil"
)

var renderTests = []struct {
	name     string
	markdown string
	html     string
}{
	{"heading", "# Hi\n", "<h1>Hi</h1>\n"},
	{"tight list", "- a\n- b\n", "<ul>\n<li>a</li>\n<li>b</li>\n</ul>\n"},
	{"loose list", "1. a\n\n2. b\n",
		"<ol>\n<li>\n<p>a</p>\n</li>\n<li>\n<p>b</p>\n</li>\n</ol>\n"},
	{"ordered list start", "3. x\n", "<ol start=\"3\">\n<li>x</li>\n</ol>\n"},
	{"nested tight list", "- a\n  - b\n",
		"<ul>\n<li>a\n<ul>\n<li>b</li>\n</ul>\n</li>\n</ul>\n"},
	{"quote", "> q\n", "<blockquote>\n<p>q</p>\n</blockquote>\n"},
	{"code fence is escaped", "```go\n<a>\n```\n",
		"<pre><code class=\"language-go\">&lt;a&gt;\n</code></pre>\n"},
	{"indented code", "    x := 1\n", "<pre><code>x := 1\n</code></pre>\n"},
	{"thematic break", "***\n", "<hr />\n"},
	{"line breaks", "a  \nb\nc\n", "<p>a<br />\nb\nc</p>\n"},
	{"inline markup", "*e* **s** ~~d~~ `c` \\*\n",
		"<p><em>e</em> <strong>s</strong> <del>d</del> <code>c</code> *</p>\n"},
	{"inline link", `[a](/u "T")` + "\n", "<p><a href=\"/u\" title=\"T\">a</a></p>\n"},
	{"reference link", "[a][b]\n\n[b]: /u 'T'\n",
		"<p><a href=\"/u\" title=\"T\">a</a></p>\n"},
	{"unresolved reference degrades to text", "[missing] and [x][y]\n",
		"<p>[missing] and [x][y]</p>\n"},
	{"image alt is plain text", "![alt *x*](i.png)\n",
		"<p><img src=\"i.png\" alt=\"alt x\" /></p>\n"},
	{"email autolink", "<me@x.org>\n",
		"<p><a href=\"mailto:me@x.org\">me@x.org</a></p>\n"},
	{"unresolved footnote degrades to text", "a[^x]\n", "<p>a[^x]</p>\n"},
	{"escaping", "a < b & c\n", "<p>a &lt; b &amp; c</p>\n"},
}

func TestRender(t *testing.T) {
	for _, tc := range renderTests {
		t.Run(tc.name, func(t *testing.T) {
			got := Render(md.Parse(tc.markdown))
			if diff := cmp.Diff(tc.html, got); diff != "" {
				t.Errorf("Render(Parse(%q)) (-want +got):\n%s", tc.markdown, diff)
			}
		})
	}
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestRender_Footnotes(t *testing.T) {
	doc := md.Parse(testutil.Dedent(`
		Second[^b] and first[^a], again[^b].

		[^a]: Note A, citing[^c].
		[^b]: Note B.
		[^c]: Note C.
		[^unused]: Never referenced.
		`))
	html := parseHTML(t, Render(doc))

	var refs []string
	html.Find("sup.footnote-ref a").Each(func(_ int, s *goquery.Selection) {
		refs = append(refs, s.Text())
	})
	if diff := cmp.Diff([]string{"1", "2", "1", "3"}, refs); diff != "" {
		t.Errorf("reference numbers (-want +got):\n%s", diff)
	}

	var notes []string
	html.Find("section.footnotes li").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		notes = append(notes, id+": "+strings.TrimSpace(s.Find("p").Text()))
	})
	want := []string{"fn-b: Note B.", "fn-a: Note A, citing3.", "fn-c: Note C."}
	if diff := cmp.Diff(want, notes); diff != "" {
		t.Errorf("footnotes (-want +got):\n%s", diff)
	}
	if n := html.Find("a.footnote-backref").Length(); n != 3 {
		t.Errorf("got %d back references, want 3", n)
	}
}

func TestRender_HeadingIDs(t *testing.T) {
	doc := md.Parse("# Getting *Started*\n\n## Getting started\n\n## ?!\n")
	html := parseHTML(t, (&Renderer{HeadingIDs: true}).Render(doc))
	var ids []string
	html.Find("h1, h2").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		ids = append(ids, id)
	})
	if diff := cmp.Diff([]string{"getting-started", "getting-started-1", "section"}, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
}

func TestRender_Table(t *testing.T) {
	doc := md.Parse("| l | c | r | n |\n|:--|:-:|--:|---|\n| 1 | *2* | 3 | 4 |\n")
	html := parseHTML(t, Render(doc))

	var aligns []string
	html.Find("thead th").Each(func(_ int, s *goquery.Selection) {
		align, _ := s.Attr("align")
		aligns = append(aligns, align)
	})
	if diff := cmp.Diff([]string{"left", "center", "right", ""}, aligns); diff != "" {
		t.Errorf("aligns (-want +got):\n%s", diff)
	}
	if n := html.Find("tbody tr").Length(); n != 1 {
		t.Errorf("got %d body rows, want 1", n)
	}
	if got := html.Find("tbody td em").Text(); got != "2" {
		t.Errorf("emphasis in cell = %q", got)
	}
}

func TestRenderer_Hooks(t *testing.T) {
	r := &Renderer{
		RenderBlock: func(r *Renderer, b md.Block) (string, bool) {
			if h, ok := b.(*md.Heading); ok && h.Level == 1 {
				return "<header>" + r.Spans(h.Content) + "</header>\n", true
			}
			return "", false
		},
		RenderSpan: func(r *Renderer, sp md.Span) (string, bool) {
			if c, ok := sp.(*md.CodeSpan); ok {
				return "<kbd>" + c.Code() + "</kbd>", true
			}
			return "", false
		},
	}
	got := r.Render(md.Parse("# *T*\n\n## `k`\n"))
	want := "<header><em>T</em></header>\n<h2><kbd>k</kbd></h2>\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

// Inputs on which the output must agree with goldmark, a CommonMark
// compliant renderer.
var goldmarkTests = []string{
	"# Hi\n\nSome *emphasis*, **strong** and `code`.\n",
	"- a\n- b\n",
	"1. a\n\n2. b\n",
	"3. x\n",
	"> q\n",
	"```go\n<a>\n```\n",
	"    x := 1\n",
	"***\n",
	"a  \nb\nc\n",
	"[a](/u \"T\") and <https://x.org>\n",
	"a < b & c\n",
	"~~gone~~\n",
}

func TestRender_AgreesWithGoldmark(t *testing.T) {
	gm := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithXHTML()))
	for _, text := range goldmarkTests {
		var want bytes.Buffer
		if err := gm.Convert([]byte(text), &want); err != nil {
			t.Fatal(err)
		}
		got := Render(md.Parse(text))
		if diff := cmp.Diff(want.String(), got); diff != "" {
			t.Errorf("%q (-goldmark +got):\n%s", text, diff)
		}
	}
}
