package md_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "src.mdtree.dev/pkg/md"
)

func TestWalk(t *testing.T) {
	doc := Parse("# T\n\n| h |\n| - |\n| c |\n")
	var visited []string
	Walk(doc, func(n Node) bool {
		if text, ok := n.(*RawText); ok {
			visited = append(visited, text.Content)
			return true
		}
		visited = append(visited, fmt.Sprintf("%T", n))
		_, isHeading := n.(*Heading)
		return !isHeading
	})
	want := []string{
		"*md.Document",
		"*md.Heading",
		"*md.Table",
		"*md.TableRow", "*md.TableCell", "h",
		"*md.TableRow", "*md.TableCell", "c",
	}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Errorf("visit order (-want +got):\n%s", diff)
	}
}

var plainTextTests = []struct {
	text string
	want string
}{
	{"*a* `b` [c](d)", "a b c"},
	{"x\\*y", "x*y"},
	{"soft\nbreak", "soft break"},
	{"hard\\\nbreak", "hard\nbreak"},
	{"![alt **text**](i.png) <https://e.com>", "alt text https://e.com"},
	{"note[^1] ~~gone~~", "note gone"},
}

func TestPlainText(t *testing.T) {
	for _, tc := range plainTextTests {
		if got := PlainText(TokenizeInner(tc.text)); got != tc.want {
			t.Errorf("PlainText(TokenizeInner(%q)) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
