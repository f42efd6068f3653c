// Package frontmatter reads a front matter block at the top of a Markdown
// document into Document.Meta.
//
// YAML front matter starts with a "---" line on the first line of the
// document and ends with a "---" or "..." line:
//
//	---
//	title: Hello
//	tags: [a, b]
//	---
//
// TOML front matter is delimited by "+++" lines instead.
package frontmatter

import (
	"fmt"
	"strings"

	fm "github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"src.mdtree.dev/pkg/logutil"
	"src.mdtree.dev/pkg/md"
	"src.mdtree.dev/pkg/md/mdfmt"
	"src.mdtree.dev/pkg/md/mdhtml"
)

var logger = logutil.GetLogger("[frontmatter] ")

// BlockType is the type of the block recognizer for front matter.
const BlockType = "FrontMatter"

// Block is a front matter block.
type Block struct {
	md.BlockBase
	// Lines are the raw source lines, including the delimiters.
	Lines []string
	// Data is the decoded YAML mapping; nil if decoding failed.
	Data map[string]any
	// Err is the decoding error, if any.
	Err error
}

func (*Block) Children() []md.Node { return nil }

// TraceInfo implements md.TraceInfo.
func (b *Block) TraceInfo() string {
	if b.Err != nil {
		return fmt.Sprintf("Keys=%d Error", len(b.Data))
	}
	return fmt.Sprintf("Keys=%d", len(b.Data))
}

// Recognizer recognizes front matter. It only claims lines at the very start
// of a document, never inside containers; a block without a closing
// delimiter is left to the other recognizers.
var Recognizer = &md.BlockRecognizer{
	Type:  BlockType,
	Start: func(line string) bool { return line == "---\n" || line == "+++\n" },
	Read:  read,
}

// Extension adds Recognizer to a session.
var Extension = md.Extension{Name: "frontmatter", Blocks: []*md.BlockRecognizer{Recognizer}}

func read(ctx *md.BlockContext, r *md.LineReader) (md.Block, bool) {
	if ctx.Depth > 0 || r.LineNumber() != 1 {
		return nil, false
	}
	opener := r.Next()
	lines := []string{opener}
	for r.More() {
		line := r.Next()
		lines = append(lines, line)
		if line == opener || (opener == "---\n" && line == "...\n") {
			return decode(ctx.Document, lines), true
		}
	}
	return nil, false
}

// Nested YAML mappings decode to map[string]any.
var yamlFormat = fm.NewFormat("---", "---", yaml.Unmarshal)

func decode(doc *md.Document, lines []string) *Block {
	b := &Block{Lines: lines}
	// Rewrite the delimiters so that a "..." closer is accepted too.
	delim := strings.TrimSuffix(lines[0], "\n")
	var formats []*fm.Format
	if delim == "---" {
		formats = []*fm.Format{yamlFormat}
	}
	text := delim + "\n" + strings.Join(lines[1:len(lines)-1], "") + delim + "\n"
	if _, err := fm.MustParse(strings.NewReader(text), &b.Data, formats...); err != nil {
		b.Err = fmt.Errorf("front matter: %w", err)
		b.Data = nil
		logger.Println(b.Err)
		return b
	}
	if doc != nil {
		for k, v := range b.Data {
			doc.Meta[k] = v
		}
	}
	return b
}

// Markdown is an mdfmt hook that reproduces front matter blocks.
func Markdown(_ *mdfmt.Renderer, b md.Block) (string, bool) {
	if fm, ok := b.(*Block); ok {
		return strings.Join(fm.Lines, ""), true
	}
	return "", false
}

// HTML is an mdhtml hook that drops front matter blocks from the output.
func HTML(_ *mdhtml.Renderer, b md.Block) (string, bool) {
	_, ok := b.(*Block)
	return "", ok
}
