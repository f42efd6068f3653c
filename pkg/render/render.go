// Package render implements the main subprogram of mdtree, which parses
// Markdown sources and writes them out in one of several formats.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/k0kubun/pp"
	"github.com/mattn/go-isatty"

	"src.mdtree.dev/pkg/logutil"
	"src.mdtree.dev/pkg/md"
	"src.mdtree.dev/pkg/md/frontmatter"
	"src.mdtree.dev/pkg/md/mdfmt"
	"src.mdtree.dev/pkg/md/mdhtml"
	"src.mdtree.dev/pkg/md/wiki"
	"src.mdtree.dev/pkg/mdstore"
	"src.mdtree.dev/pkg/prog"
)

var logger = logutil.GetLogger("[render] ")

// Program renders the files named by its arguments, or stdin when there are
// none. It always runs, so it should come last in a composite program.
type Program struct{}

var formats = map[string]bool{"html": true, "md": true, "trace": true, "dump": true}

type options struct {
	format     string
	extensions []md.Extension
	headingIDs bool
	// Whether trace and dump output is colored.
	color bool
}

// The key under which outputs are cached. Everything that affects the output
// is part of it.
func (o options) cacheFormat() string {
	names := make([]string, len(o.extensions))
	for i, ext := range o.extensions {
		names[i] = ext.Name
	}
	key := fmt.Sprintf("%s ext=%s", o.format, strings.Join(names, ","))
	switch o.format {
	case "html":
		key += fmt.Sprintf(" ids=%t", o.headingIDs)
	case "trace", "dump":
		key += fmt.Sprintf(" color=%t", o.color)
	}
	return key
}

type source struct {
	name string
	// Set when the text has been read already.
	text   string
	loaded bool
}

type result struct {
	output string
	in     int
	cached bool
	err    error
}

func (Program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	if !formats[f.Format] {
		return prog.BadUsage(fmt.Sprintf("unknown format %q", f.Format))
	}
	if f.Jobs < 1 {
		return prog.BadUsage("-j must be positive")
	}
	opts := options{
		format:     f.Format,
		extensions: f.Extensions(),
		headingIDs: f.HeadingIDs,
		color:      isTerminal(fds[1]),
	}
	if opts.format == "dump" {
		pp.ColoringEnabled = opts.color
	}

	var store *mdstore.Store
	if f.Cache != "" {
		var err error
		store, err = mdstore.NewStore(f.Cache)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var sources []source
	if len(args) == 0 {
		text, err := io.ReadAll(fds[0])
		if err != nil {
			return err
		}
		sources = []source{{name: "stdin", text: string(text), loaded: true}}
	} else {
		for _, arg := range args {
			sources = append(sources, source{name: arg})
		}
	}

	results := renderAll(sources, f.Jobs, opts, store)
	var st stats
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintln(fds[2], r.err)
		}
		fds[1].WriteString(r.output)
		st.add(r)
	}
	if f.Stats {
		st.write(fds[2], store)
	}
	if st.failed > 0 {
		return prog.Exit(1)
	}
	return nil
}

// Renders sources with the given number of workers. Each worker parses with
// its own Session; results are in the order of sources.
func renderAll(sources []source, jobs int, opts options, store *mdstore.Store) []result {
	results := make([]result, len(sources))
	indices := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < min(jobs, len(sources)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := md.NewSession()
			for _, ext := range opts.extensions {
				sc, err := s.Open(ext)
				if err != nil {
					logger.Printf("open extension %s: %v", ext.Name, err)
					continue
				}
				defer sc.Close()
			}
			for i := range indices {
				results[i] = renderSource(s, sources[i], opts, store)
			}
		}()
	}
	for i := range sources {
		indices <- i
	}
	close(indices)
	wg.Wait()
	return results
}

func renderSource(s *md.Session, src source, opts options, store *mdstore.Store) result {
	if !src.loaded {
		text, err := os.ReadFile(src.name)
		if err != nil {
			return result{err: err}
		}
		src.text = string(text)
	}
	r := result{in: len(src.text)}
	render := func() (string, error) { return renderText(s, src.text, opts) }
	if store == nil {
		r.output, r.err = render()
	} else {
		format := opts.cacheFormat()
		output, ok, err := store.Get(format, src.text)
		if err != nil {
			logger.Printf("%s: cache: %v", src.name, err)
		}
		if ok {
			r.output, r.cached = output, true
		} else if r.output, r.err = render(); r.err == nil {
			if err := store.Put(format, src.text, r.output); err != nil {
				logger.Printf("%s: cache: %v", src.name, err)
			}
		}
	}
	if r.err != nil {
		r.err = fmt.Errorf("%s: %w", src.name, r.err)
	}
	return r
}

func renderText(s *md.Session, text string, opts options) (string, error) {
	switch opts.format {
	case "md":
		r := &mdfmt.Renderer{RenderBlock: frontmatter.Markdown, RenderSpan: wiki.Markdown}
		return r.RenderText(s, text)
	case "trace":
		out := md.Trace(s.Parse(text))
		if opts.color {
			out = colorTrace(out)
		}
		return out, nil
	case "dump":
		return pp.Sprint(s.Parse(text)) + "\n", nil
	default:
		r := &mdhtml.Renderer{
			HeadingIDs:  opts.headingIDs,
			RenderBlock: frontmatter.HTML,
			RenderSpan:  wiki.HTML,
		}
		return r.Render(s.Parse(text)), nil
	}
}

// Highlights the node names in the output of md.Trace.
func colorTrace(trace string) string {
	var sb strings.Builder
	for _, line := range strings.SplitAfter(trace, "\n") {
		body := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(body)]
		name, rest, _ := strings.Cut(body, " ")
		if rest != "" {
			rest = " " + rest
		} else if strings.HasSuffix(name, "\n") {
			name, rest = strings.TrimSuffix(name, "\n"), "\n"
		}
		if name == "" {
			sb.WriteString(line)
			continue
		}
		sb.WriteString(indent + "\033[1;34m" + name + "\033[m" + rest)
	}
	return sb.String()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type stats struct {
	files, failed, cached int
	in, out               uint64
}

func (st *stats) add(r result) {
	st.files++
	if r.err != nil {
		st.failed++
	}
	if r.cached {
		st.cached++
	}
	st.in += uint64(r.in)
	st.out += uint64(len(r.output))
}

func (st *stats) write(w io.Writer, store *mdstore.Store) {
	fmt.Fprintf(w, "%s files, %s read, %s written, %s from cache, %s failed\n",
		humanize.Comma(int64(st.files)), humanize.Bytes(st.in), humanize.Bytes(st.out),
		humanize.Comma(int64(st.cached)), humanize.Comma(int64(st.failed)))
	if store == nil {
		return
	}
	cs, err := store.Stats()
	if err != nil {
		fmt.Fprintln(w, "cache:", err)
		return
	}
	fmt.Fprintf(w, "cache: %s entries, %s\n",
		humanize.Comma(int64(cs.Entries)), humanize.Bytes(cs.Bytes))
}
