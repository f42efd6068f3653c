// Package lsp implements a language server for Markdown.
package lsp

import (
	"context"
	"io"
	"os"

	"github.com/sourcegraph/jsonrpc2"
	"src.mdtree.dev/pkg/logutil"
	"src.mdtree.dev/pkg/md"
	"src.mdtree.dev/pkg/prog"
)

var logger = logutil.GetLogger("[lsp] ")

// Config configures the language server.
type Config struct {
	// Extensions are opened on the session used to parse every document.
	Extensions []md.Extension
}

// Program is the LSP subprogram.
type Program struct{}

func (Program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	if !f.LSP {
		return prog.ErrNotSuitable
	}
	if len(args) > 0 {
		return prog.BadUsage("arguments are not allowed with -lsp")
	}
	return Serve(context.Background(), fds[0], fds[1], Config{Extensions: f.Extensions()})
}

// Serve runs the language server over in and out until the client
// disconnects or ctx is canceled. Both in and out are closed when Serve
// returns.
func Serve(ctx context.Context, in io.ReadCloser, out io.WriteCloser, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s := newServer(cfg)
	conn := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(transport{in, out}, jsonrpc2.VSCodeObjectCodec{}),
		handler(s))
	select {
	case <-conn.DisconnectNotify():
		return nil
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	}
}

type transport struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (c transport) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c transport) Write(p []byte) (int, error) { return c.out.Write(p) }

func (c transport) Close() error {
	if err := c.in.Close(); err != nil {
		c.out.Close()
		return err
	}
	return c.out.Close()
}
