package server

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/bfi/compiler"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "bfi-lsp"

var log = commonlog.GetLogger("bfi.lsp")

// LspServer provides bracket diagnostics, hover and go-to-definition for
// tape-language source files.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]*document // URI → analyzed document

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server.
func NewLSP(version string) *LspServer {
	s := &LspServer{
		docs:    make(map[string]*document),
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("bfi LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	doc := analyze(params.TextDocument.Text)

	s.mu.Lock()
	s.docs[string(uri)] = doc
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, doc)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			doc := analyze(whole.Text)

			s.mu.Lock()
			s.docs[string(uri)] = doc
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, doc)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) lookup(uri protocol.DocumentUri) *document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[string(uri)]
}

// --- Language features ---

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.lookup(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	return doc.hover(params.Position), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc := s.lookup(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	loc := doc.definition(params.TextDocument.URI, params.Position)
	if loc == nil {
		return nil, nil
	}
	return []protocol.Location{*loc}, nil
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, doc *document) {
	diagnostics := doc.diagnostics()
	if len(diagnostics) > 0 {
		log.Debugf("%s: %d bracket problems", uri, len(diagnostics))
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// ---------------------------------------------------------------------------
// document: per-file analysis shared by the handlers
// ---------------------------------------------------------------------------

type document struct {
	toks     []compiler.Token
	partner  []int // token index → matching bracket token index, or -1
	problems []*compiler.ParseError
}

// analyze tokenizes text and pairs every bracket with FindMatchingEnd and
// FindMatchingStart. Unlike Parse, which stops at the first bad bracket,
// every stray ']' and every unclosed '[' is recorded, in source order.
func analyze(text string) *document {
	toks := compiler.Tokenize(text)
	ops := make([]compiler.Opcode, len(toks))
	for i, tok := range toks {
		ops[i] = tok.Op
	}

	doc := &document{
		toks:    toks,
		partner: make([]int, len(toks)),
	}
	for i, op := range ops {
		doc.partner[i] = -1
		var (
			j    int
			ok   bool
			kind error
		)
		switch op {
		case compiler.OpLoopStart:
			j, ok = compiler.FindMatchingEnd(ops, i)
			kind = compiler.ErrUnterminatedOpen
		case compiler.OpLoopEnd:
			j, ok = compiler.FindMatchingStart(ops, i)
			kind = compiler.ErrUnexpectedClose
		default:
			continue
		}
		if !ok {
			doc.problems = append(doc.problems, &compiler.ParseError{Kind: kind, Position: i})
			continue
		}
		doc.partner[i] = j
	}
	return doc
}

func (d *document) diagnostics() []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	for _, pe := range d.problems {
		pos, ok := pe.SourcePosition(d.toks)
		if !ok {
			continue
		}
		severity := protocol.DiagnosticSeverityError
		source := lspName
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    charRange(pos),
			Severity: &severity,
			Source:   &source,
			Message:  pe.Kind.Error(),
		})
	}
	return diagnostics
}

// tokenAt returns the index of the command token under the cursor, or -1.
func (d *document) tokenAt(pos protocol.Position) int {
	line := int(pos.Line) + 1
	col := int(pos.Character) + 1
	for i, tok := range d.toks {
		if tok.Pos.Line == line && tok.Pos.Column == col {
			return i
		}
		if tok.Pos.Line > line {
			break
		}
	}
	return -1
}

func (d *document) hover(pos protocol.Position) *protocol.Hover {
	i := d.tokenAt(pos)
	if i < 0 {
		return nil
	}
	tok := d.toks[i]

	var b strings.Builder
	fmt.Fprintf(&b, "**%c** %s: %s", tok.Op.Char(), tok.Op, tok.Op.Describe())
	if tok.Op == compiler.OpLoopStart || tok.Op == compiler.OpLoopEnd {
		if j := d.partner[i]; j >= 0 {
			fmt.Fprintf(&b, "\n\nMatches `%c` at %s", d.toks[j].Op.Char(), d.toks[j].Pos)
		} else {
			b.WriteString("\n\nUnmatched")
		}
	}
	fmt.Fprintf(&b, "\n\nOpcode %d of %d", i, len(d.toks))

	r := charRange(tok.Pos)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
		Range: &r,
	}
}

// definition jumps from a bracket to its partner.
func (d *document) definition(uri protocol.DocumentUri, pos protocol.Position) *protocol.Location {
	i := d.tokenAt(pos)
	if i < 0 || d.partner[i] < 0 {
		return nil
	}
	return &protocol.Location{
		URI:   uri,
		Range: charRange(d.toks[d.partner[i]].Pos),
	}
}

// charRange covers the single source character at pos.
func charRange(pos compiler.Position) protocol.Range {
	start := protocol.Position{
		Line:      protocol.UInteger(pos.Line - 1),
		Character: protocol.UInteger(pos.Column - 1),
	}
	end := start
	end.Character++
	return protocol.Range{Start: start, End: end}
}

func boolPtr(b bool) *bool {
	return &b
}
