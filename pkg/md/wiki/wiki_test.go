package wiki_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"src.mdtree.dev/pkg/md"
	"src.mdtree.dev/pkg/md/mdfmt"
	"src.mdtree.dev/pkg/md/mdhtml"
	. "src.mdtree.dev/pkg/md/wiki"
)

func TestRecognizer(t *testing.T) {
	s := md.NewSession()
	var spans []md.Span
	err := s.With(Extension, func() error {
		spans = s.TokenizeInner("text with [[wiki | target]]")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2:\n%s", len(spans), trace(spans))
	}
	if diff := cmp.Diff(&md.RawText{Content: "text with "}, spans[0]); diff != "" {
		t.Errorf("first span (-want +got):\n%s", diff)
	}
	link, ok := spans[1].(*Link)
	if !ok {
		t.Fatalf("second span is %T, want *wiki.Link", spans[1])
	}
	if diff := cmp.Diff([]md.Span{&md.RawText{Content: "wiki"}}, link.Content); diff != "" {
		t.Errorf("link content (-want +got):\n%s", diff)
	}
	if link.Target != "target" {
		t.Errorf("link target = %q, want target", link.Target)
	}
}

func trace(spans []md.Span) string {
	var sb strings.Builder
	for _, sp := range spans {
		sb.WriteString(md.Trace(sp))
	}
	return sb.String()
}

func TestRecognizer_ScopeClosed(t *testing.T) {
	s := md.NewSession()
	s.With(Extension, func() error { return nil })
	spans := s.TokenizeInner("[[wiki | target]]")
	for _, sp := range spans {
		if _, ok := sp.(*Link); ok {
			t.Errorf("wiki link recognized after the scope was closed")
		}
	}
}

func TestTrace(t *testing.T) {
	s := md.NewSession()
	s.AddSpanRecognizer(Recognizer)
	got := md.Trace(s.Parse("[[*a* | b]]\n"))
	want := "Document line=1\n" +
		"  Paragraph line=1\n" +
		"    wiki.Link Target=\"b\"\n" +
		"      Emphasis\n" +
		"        RawText \"a\"\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestHTML(t *testing.T) {
	s := md.NewSession()
	s.AddSpanRecognizer(Recognizer)
	r := &mdhtml.Renderer{RenderSpan: HTML}
	out := r.Render(s.Parse("See [[the *page* | Some Page]].\n"))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	a := doc.Find("p a")
	if href, _ := a.Attr("href"); href != "Some Page" {
		t.Errorf("href = %q", href)
	}
	if got := a.Find("em").Text(); got != "page" {
		t.Errorf("emphasized link text = %q", got)
	}
}

func TestMarkdown(t *testing.T) {
	const text = "See [[ the page |target ]] now.\n"
	s := md.NewSession()
	s.AddSpanRecognizer(Recognizer)

	if _, err := mdfmt.Render(s, text); !errors.Is(err, mdfmt.ErrUnsupportedNode) {
		t.Errorf("got error %v, want ErrUnsupportedNode", err)
	}
	got, err := (&mdfmt.Renderer{RenderSpan: Markdown}).RenderText(s, text)
	if err != nil {
		t.Fatal(err)
	}
	if got != text {
		t.Errorf("got %q, want %q", got, text)
	}
}
