// Mdtree parses Markdown into a syntax tree and renders it as HTML,
// normalized Markdown, or a dump of the tree. With -lsp, it runs a language
// server for Markdown instead.
package main

import (
	"os"

	"src.mdtree.dev/pkg/lsp"
	"src.mdtree.dev/pkg/prog"
	"src.mdtree.dev/pkg/render"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(prog.VersionProgram{}, lsp.Program{}, render.Program{})))
}
