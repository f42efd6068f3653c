package md_test

import (
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "src.mdtree.dev/pkg/md"
)

var tokenizeInnerTests = []struct {
	name  string
	text  string
	spans []Span
}{
	{
		name:  "plain text is one raw text node",
		text:  "just some text",
		spans: []Span{&RawText{Content: "just some text"}},
	},
	{
		name: "emphasis and strong",
		text: "Some *emphasis* and **strong**.",
		spans: []Span{
			&RawText{Content: "Some "},
			&Emphasis{Delimiter: '*', Content: []Span{&RawText{Content: "emphasis"}}},
			&RawText{Content: " and "},
			&Strong{Delimiter: '*', Content: []Span{&RawText{Content: "strong"}}},
			&RawText{Content: "."},
		},
	},
	{
		name: "strong nested in emphasis",
		text: "*a **b** c*",
		spans: []Span{
			&Emphasis{Delimiter: '*', Content: []Span{
				&RawText{Content: "a "},
				&Strong{Delimiter: '*', Content: []Span{&RawText{Content: "b"}}},
				&RawText{Content: " c"},
			}},
		},
	},
	{
		name: "triple delimiters produce emphasis around strong",
		text: "***both***",
		spans: []Span{
			&Emphasis{Delimiter: '*', Content: []Span{
				&Strong{Delimiter: '*', Content: []Span{&RawText{Content: "both"}}},
			}},
		},
	},
	{
		name: "intraword star emphasis",
		text: "foo*bar*",
		spans: []Span{
			&RawText{Content: "foo"},
			&Emphasis{Delimiter: '*', Content: []Span{&RawText{Content: "bar"}}},
		},
	},
	{
		name:  "intraword underscores are literal",
		text:  "snake_case_name",
		spans: []Span{&RawText{Content: "snake_case_name"}},
	},
	{
		name:  "unmatched delimiters degrade to raw text",
		text:  "**unclosed",
		spans: []Span{&RawText{Content: "**unclosed"}},
	},
	{
		name: "escapes take precedence over code spans and emphasis",
		text: "\\*not emphasis\\* `*code*`",
		spans: []Span{
			&Escape{Char: '*'},
			&RawText{Content: "not emphasis"},
			&Escape{Char: '*'},
			&RawText{Content: " "},
			&CodeSpan{Delimiter: "`", Raw: "*code*"},
		},
	},
	{
		name:  "code span with a backquote inside",
		text:  "`` a ` b ``",
		spans: []Span{&CodeSpan{Delimiter: "``", Raw: " a ` b "}},
	},
	{
		name:  "unmatched backquote runs are literal",
		text:  "```foo``",
		spans: []Span{&RawText{Content: "```foo``"}},
	},
	{
		name: "inline link with title",
		text: `[text](http://x.com "T")`,
		spans: []Span{
			&Link{
				Content: []Span{&RawText{Content: "text"}},
				Form:    InlineLink, Target: "http://x.com", Title: "T",
				Tail: `(http://x.com "T")`,
			},
		},
	},
	{
		name: "full reference link",
		text: "see [the docs][docs]",
		spans: []Span{
			&RawText{Content: "see "},
			&Link{
				Content: []Span{&RawText{Content: "the docs"}},
				Form:    FullReference, Label: "docs", Tail: "[docs]",
			},
		},
	},
	{
		name: "collapsed and shortcut reference links",
		text: "[a][] [b]",
		spans: []Span{
			&Link{
				Content: []Span{&RawText{Content: "a"}},
				Form:    CollapsedReference, Label: "a", Tail: "[]",
			},
			&RawText{Content: " "},
			&Link{
				Content: []Span{&RawText{Content: "b"}},
				Form:    ShortcutReference, Label: "b",
			},
		},
	},
	{
		name: "image with emphasis in alt text",
		text: "![alt *x*](a.png)",
		spans: []Span{
			&Image{
				Content: []Span{
					&RawText{Content: "alt "},
					&Emphasis{Delimiter: '*', Content: []Span{&RawText{Content: "x"}}},
				},
				Form: InlineLink, Target: "a.png", Tail: "(a.png)",
			},
		},
	},
	{
		name: "autolinks",
		text: "<https://a.b> <me@x.org>",
		spans: []Span{
			&AutoLink{Text: "https://a.b"},
			&RawText{Content: " "},
			&AutoLink{Text: "me@x.org", Email: true},
		},
	},
	{
		name: "footnote reference",
		text: "note[^1].",
		spans: []Span{
			&RawText{Content: "note"},
			&FootnoteReference{Label: "1"},
			&RawText{Content: "."},
		},
	},
	{
		name: "strikethrough",
		text: "~~gone~~ stays",
		spans: []Span{
			&Strikethrough{Content: []Span{&RawText{Content: "gone"}}},
			&RawText{Content: " stays"},
		},
	},
	{
		name: "hard and soft line breaks",
		text: "a  \nb\\\nc\n  d",
		spans: []Span{
			&RawText{Content: "a"},
			&LineBreak{Hard: true, Marker: "  "},
			&RawText{Content: "b"},
			&LineBreak{Hard: true, Marker: `\`},
			&RawText{Content: "c"},
			&LineBreak{Indent: "  "},
			&RawText{Content: "d"},
		},
	},
}

func TestTokenizeInner(t *testing.T) {
	for _, tc := range tokenizeInnerTests {
		t.Run(tc.name, func(t *testing.T) {
			spans := TokenizeInner(tc.text)
			if diff := cmp.Diff(tc.spans, spans); diff != "" {
				t.Errorf("TokenizeInner(%q) (-want +got):\n%s", tc.text, diff)
			}
		})
	}
}

func TestTokenizeInner_HTMLSpan(t *testing.T) {
	s := NewSession()
	if err := s.AddSpanRecognizer(HTMLSpanRecognizer); err != nil {
		t.Fatal(err)
	}
	spans := s.TokenizeInner("a <b>bold</b> <!-- c -->")
	want := []Span{
		&RawText{Content: "a "},
		&HTMLSpan{Content: "<b>"},
		&RawText{Content: "bold"},
		&HTMLSpan{Content: "</b>"},
		&RawText{Content: " "},
		&HTMLSpan{Content: "<!-- c -->"},
	}
	if diff := cmp.Diff(want, spans); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

type wikiLink struct {
	SpanBase
	Content, Target string
}

func (*wikiLink) Children() []Node { return nil }

var wikiLinkRegexp = regexp.MustCompile(`^\[\[ *(.+?) *\| *(.+?) *\]\]`)

var wikiLinkRecognizer = &SpanRecognizer{
	Type: "WikiLink",
	Find: func(text string, pos int) (Match, bool) {
		m := wikiLinkRegexp.FindStringSubmatch(text[pos:])
		if m == nil {
			return Match{}, false
		}
		return Match{End: pos + len(m[0]), Data: m}, true
	},
	Build: func(_ *SpanContext, m Match) Span {
		groups := m.Data.([]string)
		return &wikiLink{Content: groups[1], Target: groups[2]}
	},
}

func TestExtensionSpanRecognizer(t *testing.T) {
	s := NewSession()
	if err := s.AddSpanRecognizer(wikiLinkRecognizer); err != nil {
		t.Fatal(err)
	}
	spans := s.TokenizeInner("text with [[wiki | target]]")
	want := []Span{
		&RawText{Content: "text with "},
		&wikiLink{Content: "wiki", Target: "target"},
	}
	if diff := cmp.Diff(want, spans); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestCustomFallbackReceivesWholeRuns(t *testing.T) {
	var runs []string
	s := NewSession()
	s.SetFallback(&SpanRecognizer{
		Type: "Recorder",
		Build: func(_ *SpanContext, m Match) Span {
			runs = append(runs, m.Source())
			return &RawText{Content: m.Source()}
		},
	})
	s.TokenizeInner("ab *c* de")
	if diff := cmp.Diff([]string{"ab ", "c", " de"}, runs); diff != "" {
		t.Errorf("fallback runs (-want +got):\n%s", diff)
	}
}
