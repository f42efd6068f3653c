package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
	"src.mdtree.dev/pkg/md"
	"src.mdtree.dev/pkg/md/frontmatter"
	"src.mdtree.dev/pkg/md/mdfmt"
)

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

type server struct {
	cfg Config

	mu   sync.Mutex
	docs map[lsp.DocumentURI]document
}

// An open document. Both fields are immutable once stored.
type document struct {
	content string
	tree    *md.Document
}

func newServer(cfg Config) *server {
	return &server{cfg: cfg, docs: make(map[lsp.DocumentURI]document)}
}

func handler(s *server) jsonrpc2.Handler {
	return routingHandler(map[string]method{
		"initialize":                  s.initialize,
		"textDocument/didOpen":        s.didOpen,
		"textDocument/didChange":      s.didChange,
		"textDocument/didClose":       s.didClose,
		"textDocument/hover":          s.hover,
		"textDocument/definition":     s.definition,
		"textDocument/documentSymbol": s.documentSymbol,
		"exit":                        exit,

		"shutdown": noop,
		// Sent by clients after initialize.
		"initialized": noop,
		// Called by clients even when server doesn't advertise support:
		// https://microsoft.github.io/language-server-protocol/specification#workspace_didChangeWatchedFiles
		"workspace/didChangeWatchedFiles": noop,
	})
}

type method func(context.Context, jsonrpc2.JSONRPC2, json.RawMessage) (any, error)

func noop(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return nil, nil
}

func exit(_ context.Context, conn jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return nil, conn.Close()
}

func routingHandler(methods map[string]method) jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			logger.Printf("unknown method %s", req.Method)
			return nil, errMethodNotFound
		}
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		return fn(ctx, conn, params)
	})
}

// Parses content with a fresh session carrying the configured extensions.
func (s *server) parse(content string) *md.Document {
	session := md.NewSession()
	for _, ext := range s.cfg.Extensions {
		if _, err := session.Open(ext); err != nil {
			logger.Printf("open extension %s: %v", ext.Name, err)
		}
	}
	return session.Parse(content)
}

func (s *server) get(uri lsp.DocumentURI) (document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[uri]
	return d, ok
}

func (s *server) update(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI, content string) {
	d := document{content, s.parse(content)}
	s.mu.Lock()
	s.docs[uri] = d
	s.mu.Unlock()
	go publishDiagnostics(ctx, conn, uri, diagnostics(d))
}

// Handler implementations. These are all called synchronously.

func (s *server) initialize(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return &lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Options: &lsp.TextDocumentSyncOptions{
					OpenClose: true,
					Change:    lsp.TDSKFull,
				},
			},
			HoverProvider:          true,
			DefinitionProvider:     true,
			DocumentSymbolProvider: true,
		},
	}, nil
}

func (s *server) didOpen(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidOpenTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	s.update(ctx, conn, params.TextDocument.URI, params.TextDocument.Text)
	return nil, nil
}

func (s *server) didChange(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidChangeTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil || len(params.ContentChanges) == 0 {
		return nil, errInvalidParams
	}
	// ContentChanges includes full text since the server is only advertised to
	// support that; see the initialize method.
	s.update(ctx, conn, params.TextDocument.URI, params.ContentChanges[0].Text)
	return nil, nil
}

func (s *server) didClose(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidCloseTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	s.mu.Lock()
	delete(s.docs, params.TextDocument.URI)
	s.mu.Unlock()
	go publishDiagnostics(ctx, conn, params.TextDocument.URI, []lsp.Diagnostic{})
	return nil, nil
}

func (s *server) hover(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.TextDocumentPositionParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	d, ok := s.get(params.TextDocument.URI)
	if !ok {
		return lsp.Hover{}, nil
	}
	ref, ok := referenceAt(d.content, lspPositionToIdx(d.content, params.Position))
	if !ok {
		return lsp.Hover{}, nil
	}
	var text string
	if ref.footnote {
		def, ok := d.tree.ResolveFootnote(ref.label)
		if !ok {
			return lsp.Hover{}, nil
		}
		text = strings.TrimSpace(new(mdfmt.Renderer).Blocks(def.Content))
	} else {
		def, ok := d.tree.ResolveLinkReference(ref.label)
		if !ok {
			return lsp.Hover{}, nil
		}
		text = def.Target
		if def.Title != "" {
			text += fmt.Sprintf(" %q", def.Title)
		}
	}
	rg := lsp.Range{
		Start: lspPositionFromIdx(d.content, ref.from),
		End:   lspPositionFromIdx(d.content, ref.to),
	}
	return lsp.Hover{Contents: []lsp.MarkedString{lsp.RawMarkedString(text)}, Range: &rg}, nil
}

func (s *server) definition(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.TextDocumentPositionParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	uri := params.TextDocument.URI
	d, ok := s.get(uri)
	if !ok {
		return []lsp.Location{}, nil
	}
	ref, ok := referenceAt(d.content, lspPositionToIdx(d.content, params.Position))
	if !ok {
		return []lsp.Location{}, nil
	}
	line := 0
	if ref.footnote {
		if def, ok := d.tree.ResolveFootnote(ref.label); ok {
			line = def.Line()
		}
	} else if def, ok := d.tree.ResolveLinkReference(ref.label); ok {
		line = def.Line
	}
	if line == 0 {
		return []lsp.Location{}, nil
	}
	return []lsp.Location{{URI: uri, Range: lineRange(d.content, line)}}, nil
}

func (s *server) documentSymbol(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DocumentSymbolParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	uri := params.TextDocument.URI
	d, ok := s.get(uri)
	if !ok {
		return []lsp.SymbolInformation{}, nil
	}
	symbols := []lsp.SymbolInformation{}
	add := func(name string, kind lsp.SymbolKind, line int) {
		symbols = append(symbols, lsp.SymbolInformation{
			Name: name, Kind: kind,
			Location: lsp.Location{URI: uri, Range: lineRange(d.content, line)},
		})
	}
	md.Walk(d.tree, func(n md.Node) bool {
		if h, ok := n.(*md.Heading); ok {
			add(md.PlainText(h.Content), lsp.SKString, h.Line())
			return false
		}
		return true
	})
	// Definitions are usually kept out of the tree.
	for _, def := range d.tree.Footnotes {
		add("[^"+def.Label+"]", lsp.SKKey, def.Line())
	}
	for label, ref := range d.tree.LinkReferences {
		add("["+label+"]", lsp.SKKey, ref.Line)
	}
	slices.SortStableFunc(symbols, func(a, b lsp.SymbolInformation) int {
		if c := a.Location.Range.Start.Line - b.Location.Range.Start.Line; c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return symbols, nil
}

func publishDiagnostics(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI, diags []lsp.Diagnostic) {
	conn.Notify(ctx, "textDocument/publishDiagnostics",
		lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: diags})
}

// Reports references without a definition, and front matter that failed to
// decode. Shortcut references like "[x]" are not reported, since they are
// commonly meant as literal text.
func diagnostics(d document) []lsp.Diagnostic {
	diags := []lsp.Diagnostic{}
	// Position in content from which references of the current block are
	// searched.
	cursor := 0
	note := func(needle, message string) {
		from := cursor
		if i := strings.Index(d.content[cursor:], needle); i >= 0 && needle != "" {
			from = cursor + i
			cursor = from + len(needle)
		}
		diags = append(diags, lsp.Diagnostic{
			Range: lsp.Range{
				Start: lspPositionFromIdx(d.content, from),
				End:   lspPositionFromIdx(d.content, from+len(needle)),
			},
			Severity: lsp.Information,
			Source:   "mdtree",
			Message:  message,
		})
	}
	md.Walk(d.tree, func(n md.Node) bool {
		switch n := n.(type) {
		case *frontmatter.Block:
			if n.Err != nil {
				diags = append(diags, lsp.Diagnostic{
					Range:    lineRange(d.content, n.Line()),
					Severity: lsp.Error,
					Source:   "frontmatter",
					Message:  n.Err.Error(),
				})
			}
		case md.Block:
			if n.Line() > 0 {
				cursor = lspPositionToIdx(d.content, lsp.Position{Line: n.Line() - 1})
			}
		case *md.Link:
			if isReference(n.Form) {
				if _, _, ok := d.tree.ResolveLink(n); !ok {
					note(n.Tail, fmt.Sprintf("undefined link reference %q", n.Label))
				}
			}
		case *md.Image:
			if isReference(n.Form) {
				if _, _, ok := d.tree.ResolveImage(n); !ok {
					note(n.Tail, fmt.Sprintf("undefined link reference %q", n.Label))
				}
			}
		case *md.FootnoteReference:
			if _, ok := d.tree.ResolveFootnote(n.Label); !ok {
				note("[^"+n.Label+"]", fmt.Sprintf("undefined footnote %q", n.Label))
			}
		}
		return true
	})
	return diags
}

func isReference(f md.LinkForm) bool {
	return f == md.FullReference || f == md.CollapsedReference
}

// A link or footnote reference in the source, spanning content[from:to].
type reference struct {
	label    string
	footnote bool
	from, to int
}

var referenceRegexp = regexp.MustCompile(`!?\[(\^?)([^\[\]]+)\](?:\[([^\[\]]*)\])?`)

// Finds the reference covering idx, looking only at the line idx is on.
// Inline links are not references and are skipped.
func referenceAt(content string, idx int) (reference, bool) {
	start := strings.LastIndexByte(content[:idx], '\n') + 1
	end := strings.IndexByte(content[idx:], '\n')
	if end < 0 {
		end = len(content)
	} else {
		end += idx
	}
	line := content[start:end]
	for _, m := range referenceRegexp.FindAllStringSubmatchIndex(line, -1) {
		from, to := start+m[0], start+m[1]
		if idx < from || idx >= to {
			continue
		}
		if m[1] < len(line) && line[m[1]] == '(' {
			return reference{}, false
		}
		if m[3] > m[2] {
			if m[6] >= 0 {
				// "[^a][b]" is not a footnote reference.
				return reference{}, false
			}
			return reference{line[m[4]:m[5]], true, from, to}, true
		}
		label := line[m[4]:m[5]]
		if m[6] >= 0 && m[7] > m[6] {
			label = line[m[6]:m[7]]
		}
		return reference{label, false, from, to}, true
	}
	return reference{}, false
}

// Returns the range of a 1-based line, excluding the line ending.
func lineRange(s string, line int) lsp.Range {
	from := lspPositionToIdx(s, lsp.Position{Line: line - 1})
	to := strings.IndexAny(s[from:], "\r\n")
	if to < 0 {
		to = len(s)
	} else {
		to += from
	}
	return lsp.Range{
		Start: lspPositionFromIdx(s, from),
		End:   lspPositionFromIdx(s, to),
	}
}

func lspPositionToIdx(s string, pos lsp.Position) int {
	var idx int
	walkString(s, func(i int, p lsp.Position) bool {
		idx = i
		return p.Line < pos.Line || (p.Line == pos.Line && p.Character < pos.Character)
	})
	return idx
}

func lspPositionFromIdx(s string, idx int) lsp.Position {
	var pos lsp.Position
	walkString(s, func(i int, p lsp.Position) bool {
		pos = p
		return i < idx
	})
	return pos
}

// Generates (index, lspPosition) pairs in s, stopping if f returns false.
func walkString(s string, f func(i int, p lsp.Position) bool) {
	var p lsp.Position
	lastCR := false

	for i, r := range s {
		if !f(i, p) {
			return
		}
		switch {
		case r == '\r':
			p.Line++
			p.Character = 0
		case r == '\n':
			if lastCR {
				// Ignore \n if it's part of a \r\n sequence
			} else {
				p.Line++
				p.Character = 0
			}
		case r <= 0xFFFF:
			// Encoded in UTF-16 with one unit
			p.Character++
		default:
			// Encoded in UTF-16 with two units
			p.Character += 2
		}
		lastCR = r == '\r'
	}
	f(len(s), p)
}
