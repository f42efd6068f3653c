// Mdtree-lsp runs the Markdown language server on stdin and stdout. It is
// equivalent to "mdtree -lsp", for editors that want a dedicated binary.
package main

import (
	"os"

	"src.mdtree.dev/pkg/lsp"
	"src.mdtree.dev/pkg/prog"
)

func main() {
	args := append([]string{os.Args[0], "-lsp"}, os.Args[1:]...)
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, args,
		prog.Composite(prog.VersionProgram{}, lsp.Program{})))
}
