//go:build unix

package render_test

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/creack/pty"

	"src.mdtree.dev/pkg/prog"
	. "src.mdtree.dev/pkg/render"
	"src.mdtree.dev/pkg/testutil"
)

func TestProgram_TerminalTrace(t *testing.T) {
	testutil.InTempDir(t)
	testutil.MustWriteFile("a.md", "# A\n")

	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skip("cannot open pty:", err)
	}
	defer ptmx.Close()
	out := make(chan string, 1)
	go func() {
		// Reading the master fails once the slave is closed and drained.
		b, _ := io.ReadAll(ptmx)
		out <- string(b)
	}()

	stdin, w := testutil.Must2(os.Pipe())
	w.Close()
	defer stdin.Close()
	exit := prog.Run([3]*os.File{stdin, tty, tty},
		[]string{"mdtree", "-format", "trace", "a.md"}, Program{})
	tty.Close()
	if exit != 0 {
		t.Fatalf("exit %d", exit)
	}
	if got := <-out; !strings.Contains(got, "\033[1;34mDocument\033[m line=1") {
		t.Errorf("trace not colored: %q", got)
	}
}
